// Package memory implementa los puertos de repositorio en memoria.
// Se usa con STORE_DRIVER=memory y en los tests de aplicación.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

var (
	_ inventory.TxRunner = (*Store)(nil)
	_ equipment.TxRunner = (*Store)(nil)
)

type orderRow struct {
	order      entity.ServiceOrder
	leaseToken string
	leaseUntil time.Time
}

// state es el contenido completo del almacén. Movimientos, historial y devoluciones
// son inmutables una vez insertados, por lo que clone copia solo los punteros.
type state struct {
	employees   map[string]entity.Employee
	items       map[string]entity.StockItem
	equipment   map[string]entity.Equipment
	history     []*entity.EquipmentHistory
	movements   []*entity.Movement
	orders      map[string]*orderRow
	devolutions []*entity.Devolution
	nextNumber  int64
}

func newState() *state {
	return &state{
		employees: make(map[string]entity.Employee),
		items:     make(map[string]entity.StockItem),
		equipment: make(map[string]entity.Equipment),
		orders:    make(map[string]*orderRow),
	}
}

func (s *state) clone() *state {
	c := &state{
		employees:   make(map[string]entity.Employee, len(s.employees)),
		items:       make(map[string]entity.StockItem, len(s.items)),
		equipment:   make(map[string]entity.Equipment, len(s.equipment)),
		history:     append([]*entity.EquipmentHistory(nil), s.history...),
		movements:   append([]*entity.Movement(nil), s.movements...),
		orders:      make(map[string]*orderRow, len(s.orders)),
		devolutions: append([]*entity.Devolution(nil), s.devolutions...),
		nextNumber:  s.nextNumber,
	}
	for k, v := range s.employees {
		c.employees[k] = v
	}
	for k, v := range s.items {
		c.items[k] = v
	}
	for k, v := range s.equipment {
		c.equipment[k] = v
	}
	for k, v := range s.orders {
		row := *v
		row.order = copyOrder(&v.order)
		c.orders[k] = &row
	}
	return c
}

// access ejecuta fn sobre el estado con la sincronización que corresponda.
type access func(fn func(st *state) error) error

// Store es el almacén en memoria. Las transacciones trabajan sobre una copia del
// estado y la publican solo si fn termina sin error.
type Store struct {
	mu sync.Mutex
	st *state
}

// NewStore crea un almacén vacío.
func NewStore() *Store {
	return &Store{st: newState()}
}

func (s *Store) locked(fn func(st *state) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.st)
}

func direct(st *state) access {
	return func(fn func(st *state) error) error { return fn(st) }
}

// Employees devuelve el repositorio de funcionários.
func (s *Store) Employees() *EmployeeRepo { return &EmployeeRepo{do: s.locked} }

// Items devuelve el repositorio de ítems.
func (s *Store) Items() *StockItemRepo { return &StockItemRepo{do: s.locked} }

// Equipment devuelve el repositorio de equipos.
func (s *Store) Equipment() *EquipmentRepo { return &EquipmentRepo{do: s.locked} }

// History devuelve el historial de equipos.
func (s *Store) History() *EquipmentHistoryRepo { return &EquipmentHistoryRepo{do: s.locked} }

// Movements devuelve el libro de movimientos.
func (s *Store) Movements() *MovementRepo { return &MovementRepo{do: s.locked} }

// Orders devuelve el repositorio de órdenes.
func (s *Store) Orders() *ServiceOrderRepo { return &ServiceOrderRepo{do: s.locked} }

// Devolutions devuelve el repositorio de devoluciones.
func (s *Store) Devolutions() *DevolutionRepo { return &DevolutionRepo{do: s.locked} }

// Run implementa inventory.TxRunner.
func (s *Store) Run(ctx context.Context, fn func(
	itemRepo repository.StockItemRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.tx(ctx, func(do access) error {
		return fn(&StockItemRepo{do: do}, &MovementRepo{do: do})
	})
}

// RunEquipment implementa equipment.TxRunner.
func (s *Store) RunEquipment(ctx context.Context, fn func(
	equipmentRepo repository.EquipmentRepository,
	historyRepo repository.EquipmentHistoryRepository,
	movRepo repository.MovementRepository,
) error) error {
	return s.tx(ctx, func(do access) error {
		return fn(&EquipmentRepo{do: do}, &EquipmentHistoryRepo{do: do}, &MovementRepo{do: do})
	})
}

func (s *Store) tx(ctx context.Context, fn func(do access) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}
	work := s.st.clone()
	if err := fn(direct(work)); err != nil {
		return err
	}
	s.st = work
	return nil
}

func page[T any](rows []T, limit, offset int) []T {
	if offset >= len(rows) {
		return []T{}
	}
	rows = rows[offset:]
	if limit > 0 && limit < len(rows) {
		rows = rows[:limit]
	}
	return rows
}
