package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var _ repository.StockItemRepository = (*StockItemRepo)(nil)

// StockItemRepo implementación de StockItemRepository sobre PostgreSQL (usable con pool o tx).
type StockItemRepo struct {
	q Querier
}

// NewStockItemRepository construye el adaptador de ítems. Pasar pool o tx (Querier).
func NewStockItemRepository(q Querier) *StockItemRepo {
	return &StockItemRepo{q: q}
}

const itemColumns = `id, nome, COALESCE(codigo, ''), categoria, unidade, qtd_atual, estoque_minimo, created_at, updated_at`

func scanItem(row scanner) (*entity.StockItem, error) {
	var it entity.StockItem
	err := row.Scan(&it.ID, &it.Name, &it.Code, &it.Category, &it.Unit, &it.Quantity, &it.MinQuantity, &it.CreatedAt, &it.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &it, nil
}

func (r *StockItemRepo) list(ctx context.Context, query string, args ...any) ([]*entity.StockItem, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list itens: %w", err)
	}
	defer rows.Close()
	var out []*entity.StockItem
	for rows.Next() {
		it, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		out = append(out, it)
	}
	return out, rows.Err()
}

// Create persiste el ítem siempre con cantidad 0: el saldo solo cambia por movimientos.
func (r *StockItemRepo) Create(ctx context.Context, it *entity.StockItem) error {
	query := `
		INSERT INTO itens (id, nome, codigo, categoria, unidade, qtd_atual, estoque_minimo, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, 0, $6, $7, $8)`
	_, err := r.q.Exec(ctx, query, it.ID, it.Name, nullable(it.Code), it.Category, it.Unit, it.MinQuantity, it.CreatedAt, it.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID obtiene un ítem; nil si no existe.
func (r *StockItemRepo) GetByID(ctx context.Context, id string) (*entity.StockItem, error) {
	it, err := scanItem(r.q.QueryRow(ctx, `SELECT `+itemColumns+` FROM itens WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return it, nil
}

// Update actualiza solo los metadatos; la cantidad no se toca.
func (r *StockItemRepo) Update(ctx context.Context, it *entity.StockItem) error {
	query := `
		UPDATE itens
		SET nome = $2, codigo = $3, categoria = $4, unidade = $5, estoque_minimo = $6, updated_at = now()
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query, it.ID, it.Name, nullable(it.Code), it.Category, it.Unit, it.MinQuantity)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update item: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve los ítems por nombre. limit <= 0 devuelve todos.
func (r *StockItemRepo) List(ctx context.Context, limit, offset int) ([]*entity.StockItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM itens ORDER BY nome LIMIT NULLIF($1, 0) OFFSET $2`, max(limit, 0), max(offset, 0))
}

// ListLowStock devuelve los ítems con qtd_atual <= estoque_minimo.
func (r *StockItemRepo) ListLowStock(ctx context.Context) ([]*entity.StockItem, error) {
	return r.list(ctx, `SELECT `+itemColumns+` FROM itens WHERE qtd_atual - estoque_minimo <= 0 ORDER BY qtd_atual - estoque_minimo, nome`)
}

// AdjustQuantity suma delta en una sola sentencia condicional. Si el resultado fuera negativo
// no modifica nada y devuelve la cantidad actual con domain.ErrInsufficientStock.
func (r *StockItemRepo) AdjustQuantity(ctx context.Context, id string, delta int) (int, error) {
	query := `
		UPDATE itens SET qtd_atual = qtd_atual + $2, updated_at = now()
		WHERE id = $1 AND qtd_atual + $2 >= 0
		RETURNING qtd_atual`
	var qty int
	err := r.q.QueryRow(ctx, query, id, delta).Scan(&qty)
	if err == nil {
		return qty, nil
	}
	if !errors.Is(err, pgx.ErrNoRows) {
		return 0, fmt.Errorf("adjust qtd_atual: %w", err)
	}
	err = r.q.QueryRow(ctx, `SELECT qtd_atual FROM itens WHERE id = $1`, id).Scan(&qty)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, domain.ErrNotFound
	}
	if err != nil {
		return 0, fmt.Errorf("get qtd_atual: %w", err)
	}
	return qty, domain.ErrInsufficientStock
}

// CompareAndSetQuantity fija la cantidad solo si la almacenada sigue siendo expected.
func (r *StockItemRepo) CompareAndSetQuantity(ctx context.Context, id string, expected, next int) error {
	if next < 0 {
		return domain.ErrInvalidInput
	}
	tag, err := r.q.Exec(ctx, `UPDATE itens SET qtd_atual = $3, updated_at = now() WHERE id = $1 AND qtd_atual = $2`, id, expected, next)
	if err != nil {
		return fmt.Errorf("cas qtd_atual: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	ok, err := exists(ctx, r.q, "itens", id)
	if err != nil {
		return fmt.Errorf("cas qtd_atual: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}
