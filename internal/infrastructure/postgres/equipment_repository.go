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

var (
	_ repository.EquipmentRepository        = (*EquipmentRepo)(nil)
	_ repository.EquipmentHistoryRepository = (*EquipmentHistoryRepo)(nil)
)

// EquipmentRepo implementación de EquipmentRepository sobre la tabla onus.
type EquipmentRepo struct {
	q Querier
}

// NewEquipmentRepository construye el adaptador de equipos. Pasar pool o tx (Querier).
func NewEquipmentRepository(q Querier) *EquipmentRepo {
	return &EquipmentRepo{q: q}
}

const equipmentColumns = `id, codigo, modelo, serial, fornecedor, status,
	COALESCE(funcionario_atual_id, ''), COALESCE(os_vinculada_id, ''), created_at, updated_at`

func scanEquipment(row scanner) (*entity.Equipment, error) {
	var eq entity.Equipment
	err := row.Scan(&eq.ID, &eq.Code, &eq.Model, &eq.Serial, &eq.Supplier, &eq.Status,
		&eq.HolderID, &eq.OrderID, &eq.CreatedAt, &eq.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &eq, nil
}

func (r *EquipmentRepo) one(ctx context.Context, query string, args ...any) (*entity.Equipment, error) {
	eq, err := scanEquipment(r.q.QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get onu: %w", err)
	}
	return eq, nil
}

func (r *EquipmentRepo) many(ctx context.Context, query string, args ...any) ([]*entity.Equipment, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list onus: %w", err)
	}
	defer rows.Close()
	var out []*entity.Equipment
	for rows.Next() {
		eq, err := scanEquipment(rows)
		if err != nil {
			return nil, fmt.Errorf("scan onu: %w", err)
		}
		out = append(out, eq)
	}
	return out, rows.Err()
}

// Create persiste el equipo. Un código repetido devuelve domain.ErrDuplicateEquipmentCode.
func (r *EquipmentRepo) Create(ctx context.Context, eq *entity.Equipment) error {
	query := `
		INSERT INTO onus (id, codigo, modelo, serial, fornecedor, status, funcionario_atual_id, os_vinculada_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`
	_, err := r.q.Exec(ctx, query, eq.ID, eq.Code, eq.Model, eq.Serial, eq.Supplier, eq.Status,
		nullable(eq.HolderID), nullable(eq.OrderID), eq.CreatedAt, eq.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateEquipmentCode
		}
		return fmt.Errorf("insert onu: %w", err)
	}
	return nil
}

// GetByID obtiene un equipo; nil si no existe.
func (r *EquipmentRepo) GetByID(ctx context.Context, id string) (*entity.Equipment, error) {
	return r.one(ctx, `SELECT `+equipmentColumns+` FROM onus WHERE id = $1`, id)
}

// GetByCode obtiene un equipo por código normalizado; nil si no existe.
func (r *EquipmentRepo) GetByCode(ctx context.Context, code string) (*entity.Equipment, error) {
	return r.one(ctx, `SELECT `+equipmentColumns+` FROM onus WHERE codigo = $1`, code)
}

// Update actualiza modelo, serial y fornecedor. Estado y portador solo cambian por TransitionStatus.
func (r *EquipmentRepo) Update(ctx context.Context, eq *entity.Equipment) error {
	tag, err := r.q.Exec(ctx, `UPDATE onus SET modelo = $2, serial = $3, fornecedor = $4, updated_at = now() WHERE id = $1`,
		eq.ID, eq.Model, eq.Serial, eq.Supplier)
	if err != nil {
		return fmt.Errorf("update onu: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// List devuelve los equipos por código, opcionalmente filtrados por estado.
func (r *EquipmentRepo) List(ctx context.Context, status entity.EquipmentStatus, limit, offset int) ([]*entity.Equipment, error) {
	query := `
		SELECT ` + equipmentColumns + ` FROM onus
		WHERE ($1 = '' OR status = $1)
		ORDER BY codigo
		LIMIT NULLIF($2, 0) OFFSET $3`
	return r.many(ctx, query, string(status), max(limit, 0), max(offset, 0))
}

// ListByHolder devuelve los equipos cuyo portador es el funcionário (em_uso o extraviados).
func (r *EquipmentRepo) ListByHolder(ctx context.Context, employeeID string) ([]*entity.Equipment, error) {
	return r.many(ctx, `SELECT `+equipmentColumns+` FROM onus WHERE funcionario_atual_id = $1 ORDER BY codigo`, employeeID)
}

// TransitionStatus aplica la transición solo si el estado y la OS vinculada siguen siendo los esperados.
func (r *EquipmentRepo) TransitionStatus(ctx context.Context, id string, t repository.EquipmentTransition) error {
	query := `
		UPDATE onus
		SET status = $2, funcionario_atual_id = $3, os_vinculada_id = $4, updated_at = now()
		WHERE id = $1 AND status = $5 AND COALESCE(os_vinculada_id, '') = $6`
	tag, err := r.q.Exec(ctx, query, id, t.To, nullable(t.HolderID), nullable(t.OrderID), t.From, t.FromOrderID)
	if err != nil {
		return fmt.Errorf("transition onu: %w", err)
	}
	if tag.RowsAffected() == 1 {
		return nil
	}
	ok, err := exists(ctx, r.q, "onus", id)
	if err != nil {
		return fmt.Errorf("transition onu: %w", err)
	}
	if !ok {
		return domain.ErrNotFound
	}
	return domain.ErrConflict
}

// EquipmentHistoryRepo historial de equipos (solo inserción) sobre onu_historico.
type EquipmentHistoryRepo struct {
	q Querier
}

// NewEquipmentHistoryRepository construye el adaptador del historial.
func NewEquipmentHistoryRepository(q Querier) *EquipmentHistoryRepo {
	return &EquipmentHistoryRepo{q: q}
}

const historyColumns = `id, onu_id, COALESCE(status_anterior, ''), status_novo,
	COALESCE(funcionario_id, ''), COALESCE(os_id, ''), usuario_id, descricao, created_at`

func scanHistory(row scanner) (*entity.EquipmentHistory, error) {
	var h entity.EquipmentHistory
	err := row.Scan(&h.ID, &h.EquipmentID, &h.PreviousStatus, &h.NewStatus, &h.HolderID, &h.OrderID,
		&h.ActorID, &h.Description, &h.CreatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

// Append agrega una entrada. PreviousStatus vacío indica el alta del equipo.
func (r *EquipmentHistoryRepo) Append(ctx context.Context, h *entity.EquipmentHistory) error {
	query := `
		INSERT INTO onu_historico (id, onu_id, status_anterior, status_novo, funcionario_id, os_id, usuario_id, descricao, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, query, h.ID, h.EquipmentID, nullable(string(h.PreviousStatus)), h.NewStatus,
		nullable(h.HolderID), nullable(h.OrderID), h.ActorID, h.Description, h.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert onu_historico: %w", err)
	}
	return nil
}

// GetByID obtiene una entrada del historial; nil, nil si no existe.
func (r *EquipmentHistoryRepo) GetByID(ctx context.Context, id string) (*entity.EquipmentHistory, error) {
	h, err := scanHistory(r.q.QueryRow(ctx, `SELECT `+historyColumns+` FROM onu_historico WHERE id = $1`, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get onu_historico: %w", err)
	}
	return h, nil
}

// ListByEquipment devuelve el historial del equipo, más reciente primero.
func (r *EquipmentHistoryRepo) ListByEquipment(ctx context.Context, equipmentID string, limit, offset int) ([]*entity.EquipmentHistory, error) {
	query := `
		SELECT ` + historyColumns + ` FROM onu_historico
		WHERE onu_id = $1
		ORDER BY seq DESC
		LIMIT NULLIF($2, 0) OFFSET $3`
	rows, err := r.q.Query(ctx, query, equipmentID, max(limit, 0), max(offset, 0))
	if err != nil {
		return nil, fmt.Errorf("list onu_historico: %w", err)
	}
	defer rows.Close()
	var out []*entity.EquipmentHistory
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan onu_historico: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

// LatestByEquipment devuelve la última entrada de cada equipo.
func (r *EquipmentHistoryRepo) LatestByEquipment(ctx context.Context) (map[string]*entity.EquipmentHistory, error) {
	query := `
		SELECT DISTINCT ON (onu_id) ` + historyColumns + `
		FROM onu_historico
		ORDER BY onu_id, seq DESC`
	rows, err := r.q.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("latest onu_historico: %w", err)
	}
	defer rows.Close()
	latest := make(map[string]*entity.EquipmentHistory)
	for rows.Next() {
		h, err := scanHistory(rows)
		if err != nil {
			return nil, fmt.Errorf("scan onu_historico: %w", err)
		}
		latest[h.EquipmentID] = h
	}
	return latest, rows.Err()
}
