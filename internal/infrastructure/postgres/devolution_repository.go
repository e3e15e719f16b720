package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/estoque-os-api/internal/domain"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var _ repository.DevolutionRepository = (*DevolutionRepo)(nil)

// DevolutionRepo devoluciones (solo inserción) sobre devolucoes, devolucao_itens y devolucao_onus.
type DevolutionRepo struct {
	q Querier
}

// NewDevolutionRepository construye el adaptador de devoluciones.
func NewDevolutionRepository(q Querier) *DevolutionRepo {
	return &DevolutionRepo{q: q}
}

// Create inserta la devolución con sus líneas en una sola transacción.
func (r *DevolutionRepo) Create(ctx context.Context, d *entity.Devolution) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		batch := &pgx.Batch{}
		batch.Queue(`INSERT INTO devolucoes (id, os_id, usuario_id, observacoes, created_at) VALUES ($1, $2, $3, $4, $5)`,
			d.ID, d.OrderID, d.ActorID, d.Notes, d.CreatedAt)
		for i := range d.Items {
			l := &d.Items[i]
			l.DevolutionID = d.ID
			batch.Queue(`INSERT INTO devolucao_itens (id, devolucao_id, item_id, quantidade) VALUES ($1, $2, $3, $4)`,
				l.ID, l.DevolutionID, l.ItemID, l.Quantity)
		}
		for i := range d.Equipment {
			l := &d.Equipment[i]
			l.DevolutionID = d.ID
			batch.Queue(`INSERT INTO devolucao_onus (id, devolucao_id, onu_id) VALUES ($1, $2, $3)`,
				l.ID, l.DevolutionID, l.EquipmentID)
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			if isForeignKeyViolation(err) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("insert devolucao: %w", err)
		}
		return nil
	})
}

// ListByOrder devuelve las devoluciones de la OS con sus líneas, de la más antigua a la más reciente.
func (r *DevolutionRepo) ListByOrder(ctx context.Context, orderID string) ([]*entity.Devolution, error) {
	rows, err := r.q.Query(ctx, `SELECT id, os_id, usuario_id, observacoes, created_at FROM devolucoes WHERE os_id = $1 ORDER BY seq`, orderID)
	if err != nil {
		return nil, fmt.Errorf("list devolucoes: %w", err)
	}
	devs, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (*entity.Devolution, error) {
		var d entity.Devolution
		err := row.Scan(&d.ID, &d.OrderID, &d.ActorID, &d.Notes, &d.CreatedAt)
		return &d, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan devolucoes: %w", err)
	}
	if len(devs) == 0 {
		return nil, nil
	}
	byID := make(map[string]*entity.Devolution, len(devs))
	ids := make([]string, 0, len(devs))
	for _, d := range devs {
		byID[d.ID] = d
		ids = append(ids, d.ID)
	}

	rows, err = r.q.Query(ctx, `SELECT id, devolucao_id, item_id, quantidade FROM devolucao_itens WHERE devolucao_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list devolucao_itens: %w", err)
	}
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DevolutionLineItem, error) {
		var l entity.DevolutionLineItem
		err := row.Scan(&l.ID, &l.DevolutionID, &l.ItemID, &l.Quantity)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan devolucao_itens: %w", err)
	}
	for _, l := range items {
		byID[l.DevolutionID].Items = append(byID[l.DevolutionID].Items, l)
	}

	rows, err = r.q.Query(ctx, `SELECT id, devolucao_id, onu_id FROM devolucao_onus WHERE devolucao_id = ANY($1) ORDER BY id`, ids)
	if err != nil {
		return nil, fmt.Errorf("list devolucao_onus: %w", err)
	}
	units, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (entity.DevolutionLineEquipment, error) {
		var l entity.DevolutionLineEquipment
		err := row.Scan(&l.ID, &l.DevolutionID, &l.EquipmentID)
		return l, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan devolucao_onus: %w", err)
	}
	for _, l := range units {
		byID[l.DevolutionID].Equipment = append(byID[l.DevolutionID].Equipment, l)
	}
	return devs, nil
}
