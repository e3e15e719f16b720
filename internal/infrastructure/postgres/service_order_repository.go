package postgres

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var _ repository.ServiceOrderRepository = (*ServiceOrderRepo)(nil)

// ServiceOrderRepo implementación de ServiceOrderRepository sobre ordens_servico, os_itens y os_onus.
type ServiceOrderRepo struct {
	q Querier
}

// NewServiceOrderRepository construye el adaptador de órdenes.
func NewServiceOrderRepository(q Querier) *ServiceOrderRepo {
	return &ServiceOrderRepo{q: q}
}

const orderColumns = `id, numero, funcionario_id, status, observacoes,
	COALESCE(assinatura, ''), COALESCE(assinado_por, ''), assinado_em, criado_por, created_at, updated_at`

func scanOrder(row scanner) (*entity.ServiceOrder, error) {
	var o entity.ServiceOrder
	err := row.Scan(&o.ID, &o.Number, &o.EmployeeID, &o.Status, &o.Notes,
		&o.Signature, &o.SignedBy, &o.SignedAt, &o.CreatedBy, &o.CreatedAt, &o.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

// Create inserta la orden y sus líneas en una sola transacción y asigna el número secuencial.
func (r *ServiceOrderRepo) Create(ctx context.Context, o *entity.ServiceOrder) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		query := `
			INSERT INTO ordens_servico (id, funcionario_id, status, observacoes, criado_por, created_at, updated_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			RETURNING numero`
		err := tx.QueryRow(ctx, query, o.ID, o.EmployeeID, o.Status, o.Notes, o.CreatedBy, o.CreatedAt, o.UpdatedAt).Scan(&o.Number)
		if err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicate
			}
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: funcionário inexistente", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert ordem_servico: %w", err)
		}

		batch := &pgx.Batch{}
		for i := range o.Items {
			l := &o.Items[i]
			l.OrderID = o.ID
			batch.Queue(`INSERT INTO os_itens (id, os_id, item_id, quantidade, created_at) VALUES ($1, $2, $3, $4, $5)`,
				l.ID, l.OrderID, l.ItemID, l.Quantity, l.CreatedAt)
		}
		for i := range o.Equipment {
			l := &o.Equipment[i]
			l.OrderID = o.ID
			batch.Queue(`INSERT INTO os_onus (id, os_id, onu_id, created_at) VALUES ($1, $2, $3, $4)`,
				l.ID, l.OrderID, l.EquipmentID, l.CreatedAt)
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isForeignKeyViolation(err) {
				return fmt.Errorf("%w: línea con ítem o equipo inexistente", domain.ErrInvalidInput)
			}
			return fmt.Errorf("insert linhas da OS: %w", err)
		}
		return nil
	})
}

// GetByID obtiene la orden con sus líneas; nil si no existe.
func (r *ServiceOrderRepo) GetByID(ctx context.Context, id string) (*entity.ServiceOrder, error) {
	o, err := scanOrder(r.q.QueryRow(ctx, `SELECT `+orderColumns+` FROM ordens_servico WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get ordem_servico: %w", err)
	}

	rows, err := r.q.Query(ctx, `SELECT id, os_id, item_id, quantidade, created_at FROM os_itens WHERE os_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list os_itens: %w", err)
	}
	o.Items, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.OrderLineItem, error) {
		var l entity.OrderLineItem
		err := row.Scan(&l.ID, &l.OrderID, &l.ItemID, &l.Quantity, &l.CreatedAt)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan os_itens: %w", err)
	}

	rows, err = r.q.Query(ctx, `SELECT id, os_id, onu_id, created_at FROM os_onus WHERE os_id = $1 ORDER BY created_at, id`, id)
	if err != nil {
		return nil, fmt.Errorf("list os_onus: %w", err)
	}
	o.Equipment, err = pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.OrderLineEquipment, error) {
		var l entity.OrderLineEquipment
		err := row.Scan(&l.ID, &l.OrderID, &l.EquipmentID, &l.CreatedAt)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan os_onus: %w", err)
	}
	return o, nil
}

// List devuelve las órdenes (sin líneas) por número descendente.
func (r *ServiceOrderRepo) List(ctx context.Context, f repository.OrderFilter) ([]*entity.ServiceOrder, error) {
	query, args := orderListQuery(f)
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list ordens_servico: %w", err)
	}
	defer rows.Close()
	var out []*entity.ServiceOrder
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("scan ordem_servico: %w", err)
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

func orderListQuery(f repository.OrderFilter) (string, []any) {
	var where []string
	var args []any
	if f.EmployeeID != "" {
		args = append(args, f.EmployeeID)
		where = append(where, "funcionario_id = $"+strconv.Itoa(len(args)))
	}
	if f.Status != "" {
		args = append(args, string(f.Status))
		where = append(where, "status = $"+strconv.Itoa(len(args)))
	}
	var b strings.Builder
	b.WriteString(`SELECT ` + orderColumns + ` FROM ordens_servico`)
	if len(where) > 0 {
		b.WriteString(" WHERE " + strings.Join(where, " AND "))
	}
	b.WriteString(" ORDER BY numero DESC")
	if f.Limit > 0 {
		args = append(args, f.Limit)
		b.WriteString(" LIMIT $" + strconv.Itoa(len(args)))
	}
	if f.Offset > 0 {
		args = append(args, f.Offset)
		b.WriteString(" OFFSET $" + strconv.Itoa(len(args)))
	}
	return b.String(), args
}

// conditional ejecuta un UPDATE condicional y traduce "sin filas" en ErrNotFound o en miss.
func (r *ServiceOrderRepo) conditional(ctx context.Context, op string, miss error, query string, args ...any) error {
	tag, err := r.q.Exec(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}
	ok, err := exists(ctx, r.q, "ordens_servico", args[0].(string))
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return miss
}

// TransitionStatus cambia el estado solo si sigue siendo from.
func (r *ServiceOrderRepo) TransitionStatus(ctx context.Context, id string, from, to entity.OrderStatus) error {
	return r.conditional(ctx, "transition ordem_servico", domain.ErrConflict,
		`UPDATE ordens_servico SET status = $3, updated_at = now() WHERE id = $1 AND status = $2`,
		id, string(from), string(to))
}

// SetSignature guarda la firma una única vez.
func (r *ServiceOrderRepo) SetSignature(ctx context.Context, id, payload, signerID string, at time.Time) error {
	return r.conditional(ctx, "assinar ordem_servico", domain.ErrAlreadySigned,
		`UPDATE ordens_servico SET assinatura = $2, assinado_por = $3, assinado_em = $4, updated_at = now()
		 WHERE id = $1 AND assinatura IS NULL`,
		id, payload, signerID, at)
}

// AcquireLease toma el lease si está libre, vencido o ya es de token.
func (r *ServiceOrderRepo) AcquireLease(ctx context.Context, id, token string, until time.Time) error {
	return r.conditional(ctx, "lease ordem_servico", domain.ErrOperationInProgress,
		`UPDATE ordens_servico SET lease_token = $2, lease_until = $3
		 WHERE id = $1 AND (lease_token IS NULL OR lease_token = $2 OR lease_until < now())`,
		id, token, until)
}

// ReleaseLease libera el lease solo si pertenece a token.
func (r *ServiceOrderRepo) ReleaseLease(ctx context.Context, id, token string) error {
	_, err := r.q.Exec(ctx, `UPDATE ordens_servico SET lease_token = NULL, lease_until = NULL WHERE id = $1 AND lease_token = $2`, id, token)
	if err != nil {
		return fmt.Errorf("release lease ordem_servico: %w", err)
	}
	return nil
}
