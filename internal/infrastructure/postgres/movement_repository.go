package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo libro de movimientos (solo inserción) sobre movimentacoes.
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, tipo, COALESCE(item_id, ''), COALESCE(onu_id, ''), quantidade,
	COALESCE(os_id, ''), COALESCE(funcionario_id, ''), usuario_id, descricao, created_at`

func scanMovement(row scanner) (*entity.Movement, error) {
	var m entity.Movement
	err := row.Scan(&m.ID, &m.Type, &m.ItemID, &m.EquipmentID, &m.Quantity,
		&m.OrderID, &m.EmployeeID, &m.ActorID, &m.Description, &m.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func (r *MovementRepo) many(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list movimentacoes: %w", err)
	}
	defer rows.Close()
	var out []*entity.Movement
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			return nil, fmt.Errorf("scan movimentacao: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// Append valida y agrega el movimiento.
func (r *MovementRepo) Append(ctx context.Context, m *entity.Movement) error {
	if err := m.Validate(); err != nil {
		return err
	}
	query := `
		INSERT INTO movimentacoes (id, tipo, item_id, onu_id, quantidade, os_id, funcionario_id, usuario_id, descricao, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, m.ID, m.Type, nullable(m.ItemID), nullable(m.EquipmentID), m.Quantity,
		nullable(m.OrderID), nullable(m.EmployeeID), m.ActorID, m.Description, m.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert movimentacao: %w", err)
	}
	return nil
}

// GetByID obtiene un movimiento; nil, nil si no existe.
func (r *MovementRepo) GetByID(ctx context.Context, id string) (*entity.Movement, error) {
	m, err := scanMovement(r.q.QueryRow(ctx, `SELECT `+movementColumns+` FROM movimentacoes WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get movimentacao: %w", err)
	}
	return m, nil
}

// ListByItem devuelve los movimientos del ítem, más reciente primero.
func (r *MovementRepo) ListByItem(ctx context.Context, itemID string, limit, offset int) ([]*entity.Movement, error) {
	return r.many(ctx, `SELECT `+movementColumns+` FROM movimentacoes WHERE item_id = $1 ORDER BY seq DESC LIMIT NULLIF($2, 0) OFFSET $3`,
		itemID, max(limit, 0), max(offset, 0))
}

// ListByEquipment devuelve los movimientos del equipo, más reciente primero.
func (r *MovementRepo) ListByEquipment(ctx context.Context, equipmentID string, limit, offset int) ([]*entity.Movement, error) {
	return r.many(ctx, `SELECT `+movementColumns+` FROM movimentacoes WHERE onu_id = $1 ORDER BY seq DESC LIMIT NULLIF($2, 0) OFFSET $3`,
		equipmentID, max(limit, 0), max(offset, 0))
}

// ListByOrder devuelve todos los movimientos registrados con la OS.
func (r *MovementRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Movement, error) {
	return r.many(ctx, `SELECT `+movementColumns+` FROM movimentacoes WHERE os_id = $1 ORDER BY seq DESC`, orderID)
}

// List devuelve el diario de movimientos filtrado, hasta repository.MaxMovementJournal filas.
func (r *MovementRepo) List(ctx context.Context, f repository.MovementFilter) ([]*entity.Movement, error) {
	query, args := movementListQuery(f)
	return r.many(ctx, query, args...)
}

func movementListQuery(f repository.MovementFilter) (string, []any) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, strings.Replace(cond, "?", "$"+strconv.Itoa(len(args)), 1))
	}
	if f.Type != "" {
		add("tipo = ?", string(f.Type))
	}
	if f.From != nil {
		add("created_at >= ?", *f.From)
	}
	if f.To != nil {
		add("created_at <= ?", *f.To)
	}
	limit := f.Limit
	if limit <= 0 || limit > repository.MaxMovementJournal {
		limit = repository.MaxMovementJournal
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + movementColumns + ` FROM movimentacoes`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	args = append(args, limit)
	b.WriteString(" ORDER BY seq DESC LIMIT $" + strconv.Itoa(len(args)))
	return b.String(), args
}

// SumByItem recalcula la cantidad de cada ítem sumando sus movimientos con signo.
func (r *MovementRepo) SumByItem(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT item_id, SUM(CASE WHEN tipo = 'saida' THEN -quantidade ELSE quantidade END)
		FROM movimentacoes
		WHERE item_id IS NOT NULL
		GROUP BY item_id`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("sum movimentacoes: %w", err)
	}
	defer rows.Close()
	sums := make(map[string]int)
	for rows.Next() {
		var id string
		var total int64
		if err := rows.Scan(&id, &total); err != nil {
			return nil, fmt.Errorf("scan sum: %w", err)
		}
		sums[id] = int(total)
	}
	return sums, rows.Err()
}
