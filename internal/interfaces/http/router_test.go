package http_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/equipment"
	"github.com/jhoicas/estoque-os-api/internal/application/inventory"
	"github.com/jhoicas/estoque-os-api/internal/application/reconciliation"
	"github.com/jhoicas/estoque-os-api/internal/application/serviceorder"
	"github.com/jhoicas/estoque-os-api/internal/application/usecase"
	"github.com/jhoicas/estoque-os-api/internal/infrastructure/memory"
	apphttp "github.com/jhoicas/estoque-os-api/internal/interfaces/http"
	pkgjwt "github.com/jhoicas/estoque-os-api/pkg/jwt"
	"github.com/jhoicas/estoque-os-api/pkg/logger"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

// newAPI arma la API completa sobre el almacén en memoria.
func newAPI(t *testing.T) *fiber.App {
	t.Helper()
	store := memory.NewStore()
	log := logger.Nop()
	ledger := inventory.NewLedger(store, store.Movements(), 0)
	registry := equipment.NewRegistry(store, store.History())
	engine := serviceorder.NewEngine(serviceorder.Deps{
		Orders:      store.Orders(),
		Devolutions: store.Devolutions(),
		Employees:   store.Employees(),
		Items:       store.Items(),
		Equipment:   store.Equipment(),
		Movements:   store.Movements(),
		Ledger:      ledger,
		Registry:    registry,
	}, serviceorder.Config{RetryAttempts: 2, RetryDelay: time.Millisecond, OperationTimeout: 5 * time.Second}, log)
	guard := reconciliation.NewGuard(store.Items(), store.Equipment(), store.Movements(), store.History(), log)

	app := fiber.New()
	apphttp.Router(app, apphttp.RouterDeps{
		EmployeeUC:       usecase.NewEmployeeUseCase(store.Employees(), store.Equipment(), store.Orders()),
		ItemUC:           usecase.NewItemUseCase(store.Items(), ledger),
		EquipmentUC:      usecase.NewEquipmentUseCase(store.Equipment(), registry),
		OrderUC:          usecase.NewOrderUseCase(engine),
		MovementUC:       usecase.NewMovementUseCase(store.Movements()),
		ReconciliationUC: usecase.NewReconciliationUseCase(guard),
		JWTSecret:        testJWTSecret,
		Log:              log,
	})
	return app
}

// call envía la petición con el rol indicado y decodifica la respuesta en out (si no es nil).
func call(t *testing.T, app *fiber.App, role, method, path string, body any, out any) int {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", tokenForRole(t, role))
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	if out != nil {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(out))
	}
	return resp.StatusCode
}

type catalog struct {
	employeeID  string
	itemID      string
	equipmentID string
}

// seedCatalog crea un funcionário, un ítem con 10 unidades y una ONU.
func seedCatalog(t *testing.T, app *fiber.App) catalog {
	t.Helper()
	var emp dto.EmployeeResponse
	require.Equal(t, http.StatusCreated, call(t, app, pkgjwt.RoleOperator, http.MethodPost, "/api/employees",
		dto.CreateEmployeeRequest{Name: "João Técnico", Badge: "T-10"}, &emp))

	var item dto.ItemResponse
	require.Equal(t, http.StatusCreated, call(t, app, pkgjwt.RoleOperator, http.MethodPost, "/api/items",
		dto.CreateItemRequest{Name: "Cabo drop", Unit: "m", MinQuantity: 2, InitialQuantity: 10}, &item))
	require.Equal(t, 10, item.Quantity)

	var eq dto.EquipmentResponse
	require.Equal(t, http.StatusCreated, call(t, app, pkgjwt.RoleOperator, http.MethodPost, "/api/equipment",
		dto.CreateEquipmentRequest{Code: " onu-001 ", Model: "HG8310"}, &eq))
	require.Equal(t, "ONU-001", eq.Code)
	require.Equal(t, "em_estoque", eq.Status)

	return catalog{employeeID: emp.ID, itemID: item.ID, equipmentID: eq.ID}
}

// ──────────────────────────────────────────────────────────────────────────────
// Flujo completo
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_FlujoOrdenCompleto(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	var order dto.OrderResponse
	status := call(t, app, op, http.MethodPost, "/api/orders", dto.CreateOrderRequest{
		EmployeeID:   cat.employeeID,
		Items:        []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 4}},
		EquipmentIDs: []string{cat.equipmentID},
	}, &order)
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "rascunho", order.Status)
	assert.Equal(t, int64(1), order.Number)

	var confirmed dto.OrderResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, &confirmed))
	assert.Equal(t, "confirmada", confirmed.Status)

	var item dto.ItemResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/items/"+cat.itemID, nil, &item))
	assert.Equal(t, 6, item.Quantity)

	var emp dto.EmployeeDetailResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/employees/"+cat.employeeID, nil, &emp))
	require.Len(t, emp.Equipment, 1)
	assert.Equal(t, "em_uso", emp.Equipment[0].Status)
	require.Len(t, emp.Orders, 1)
	assert.Equal(t, order.ID, emp.Orders[0].ID)

	var signed dto.OrderResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/signature",
		dto.SignatureRequest{Payload: "aGVsbG8="}, &signed))
	assert.True(t, signed.Signed)
	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusConflict, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/signature",
		dto.SignatureRequest{Payload: "b3Rybw=="}, &errResp))
	assert.Equal(t, "ALREADY_SIGNED", errResp.Code)

	var dev dto.DevolutionResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/devolutions",
		dto.DevolutionRequest{
			Items:        []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 4}},
			EquipmentIDs: []string{cat.equipmentID},
		}, &dev))
	assert.Equal(t, []string{cat.equipmentID}, dev.EquipmentIDs)

	var detail dto.OrderDetailResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/orders/"+order.ID, nil, &detail))
	assert.Equal(t, "encerrada", detail.Status)
	require.Len(t, detail.Items, 1)
	assert.Equal(t, 4, detail.Items[0].Returned)
	assert.Equal(t, 0, detail.Items[0].Outstanding)
	require.Len(t, detail.Equipment, 1)
	assert.True(t, detail.Equipment[0].Returned)
	assert.False(t, detail.Equipment[0].Outstanding)
	assert.Len(t, detail.Devolutions, 1)

	var journal dto.MovementListResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/movements", nil, &journal))
	// entrada inicial, saída de ítem y de ONU, devolución de ítem y de ONU
	assert.Len(t, journal.Items, 5)

	var exits dto.MovementListResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/movements?type=saida", nil, &exits))
	assert.Len(t, exits.Items, 2)

	var rep dto.ReconciliationReportResponse
	require.Equal(t, http.StatusOK, call(t, app, pkgjwt.RoleViewer, http.MethodGet, "/api/reconciliation", nil, &rep))
	assert.True(t, rep.Clean)
	assert.Equal(t, 1, rep.ItemsChecked)
	assert.Equal(t, 1, rep.UnitsChecked)

	errResp = dto.ErrorResponse{}
	assert.Equal(t, http.StatusUnprocessableEntity, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/cancel", nil, &errResp))
	assert.Equal(t, "INVALID_TRANSITION", errResp.Code)
}

func TestAPI_CancelarDevuelveStock(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	var order dto.OrderResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/orders", dto.CreateOrderRequest{
		EmployeeID: cat.employeeID,
		Items:      []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 3}, {ItemID: cat.itemID, Quantity: 1}},
	}, &order))
	require.Len(t, order.Items, 1, "líneas del mismo ítem se suman")
	assert.Equal(t, 4, order.Items[0].Quantity)

	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, nil))
	var cancelled dto.OrderResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/cancel", nil, &cancelled))
	assert.Equal(t, "cancelada", cancelled.Status)

	var item dto.ItemResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/items/"+cat.itemID, nil, &item))
	assert.Equal(t, 10, item.Quantity)

	var hist dto.MovementListResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/items/"+cat.itemID+"/movements", nil, &hist))
	require.Len(t, hist.Items, 3)
	assert.Equal(t, "cancelamento", hist.Items[0].Type)
}

func TestAPI_MarcarExtraviadaCierraOrden(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	var order dto.OrderResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/orders", dto.CreateOrderRequest{
		EmployeeID:   cat.employeeID,
		EquipmentIDs: []string{cat.equipmentID},
	}, &order))
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, nil))

	var lost dto.EquipmentResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/equipment/"+cat.equipmentID+"/lost", nil, &lost))
	assert.Equal(t, "extraviada", lost.Status)
	assert.Equal(t, cat.employeeID, lost.HolderID)
	assert.Empty(t, lost.OrderID)

	var detail dto.OrderDetailResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/orders/"+order.ID, nil, &detail))
	assert.Equal(t, "encerrada", detail.Status)

	var recovered dto.EquipmentResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPost, "/api/equipment/"+cat.equipmentID+"/recover",
		dto.EquipmentStatusRequest{Description: "encontrada no veículo"}, &recovered))
	assert.Equal(t, "em_estoque", recovered.Status)

	var hist dto.EquipmentHistoryListResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/equipment/"+cat.equipmentID+"/history", nil, &hist))
	require.Len(t, hist.Items, 4) // cadastro, em_uso, extraviada, em_estoque
	assert.Equal(t, "em_estoque", hist.Items[0].NewStatus)
	assert.Equal(t, "encontrada no veículo", hist.Items[0].Description)
}

// ──────────────────────────────────────────────────────────────────────────────
// Errores
// ──────────────────────────────────────────────────────────────────────────────

func TestAPI_StockInsuficienteInformaLinea(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	var order dto.OrderResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/orders", dto.CreateOrderRequest{
		EmployeeID: cat.employeeID,
		Items:      []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 12}},
	}, &order))

	var errResp dto.ErrorResponse
	status := call(t, app, op, http.MethodPost, "/api/orders/"+order.ID+"/confirm", nil, &errResp)
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "INSUFFICIENT_STOCK", errResp.Code)
	require.NotNil(t, errResp.Line)
	assert.Equal(t, cat.itemID, errResp.Line.ItemID)
	assert.Equal(t, "12", errResp.Line.Expected)
	assert.Equal(t, "10", errResp.Line.Actual)
	assert.Nil(t, errResp.Partial)

	var detail dto.OrderDetailResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/orders/"+order.ID, nil, &detail))
	assert.Equal(t, "rascunho", detail.Status)
}

func TestAPI_Validaciones(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"orden sin funcionário", http.MethodPost, "/api/orders", dto.CreateOrderRequest{Items: []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 1}}}, http.StatusBadRequest, "VALIDATION"},
		{"cantidad cero", http.MethodPost, "/api/orders", dto.CreateOrderRequest{EmployeeID: cat.employeeID, Items: []dto.OrderItemRequest{{ItemID: cat.itemID}}}, http.StatusBadRequest, "VALIDATION"},
		{"orden vacía", http.MethodPost, "/api/orders", dto.CreateOrderRequest{EmployeeID: cat.employeeID}, http.StatusBadRequest, "VALIDATION"},
		{"ONU duplicada", http.MethodPost, "/api/equipment", dto.CreateEquipmentRequest{Code: "ONU-001"}, http.StatusConflict, "DUPLICATE_EQUIPMENT_CODE"},
		{"ítem sin nombre", http.MethodPost, "/api/items", dto.CreateItemRequest{InitialQuantity: 1}, http.StatusBadRequest, "VALIDATION"},
		{"entrada negativa", http.MethodPost, "/api/items/" + cat.itemID + "/entries", dto.ItemEntryRequest{Quantity: -1}, http.StatusBadRequest, "VALIDATION"},
		{"orden inexistente", http.MethodGet, "/api/orders/no-existe", nil, http.StatusNotFound, "NOT_FOUND"},
		{"ítem inexistente", http.MethodGet, "/api/items/no-existe", nil, http.StatusNotFound, "NOT_FOUND"},
		{"estado de ONU inválido", http.MethodGet, "/api/equipment?status=quebrada", nil, http.StatusBadRequest, "VALIDATION"},
		{"fecha inválida", http.MethodGet, "/api/movements?from=ayer", nil, http.StatusBadRequest, "VALIDATION"},
		{"tipo de movimiento inválido", http.MethodGet, "/api/movements?type=ajuste", nil, http.StatusBadRequest, "VALIDATION"},
		{"extraviar ONU en estoque", http.MethodPost, "/api/equipment/" + cat.equipmentID + "/lost", nil, http.StatusUnprocessableEntity, "INVALID_TRANSITION"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var errResp dto.ErrorResponse
			status := call(t, app, op, tt.method, tt.path, tt.body, &errResp)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, errResp.Code)
		})
	}
}

func TestAPI_Roles(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)

	var errResp dto.ErrorResponse
	status := call(t, app, pkgjwt.RoleViewer, http.MethodPost, "/api/items", dto.CreateItemRequest{Name: "Conector"}, &errResp)
	assert.Equal(t, http.StatusForbidden, status, "consulta no escribe")
	assert.Equal(t, "FORBIDDEN", errResp.Code)

	status = call(t, app, pkgjwt.RoleOperator, http.MethodPost, "/api/reconciliation/items/"+cat.itemID+"/correct", nil, nil)
	assert.Equal(t, http.StatusForbidden, status, "solo admin corrige")

	var d dto.DivergenceResponse
	status = call(t, app, pkgjwt.RoleAdmin, http.MethodPost, "/api/reconciliation/items/"+cat.itemID+"/correct", nil, &d)
	assert.Equal(t, http.StatusOK, status)
	assert.Equal(t, d.Stored, d.Computed)

	req := httptest.NewRequest(http.MethodGet, "/api/items", nil)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestAPI_CatalogoEmpleados(t *testing.T) {
	app := newAPI(t)
	cat := seedCatalog(t, app)
	op := pkgjwt.RoleOperator

	name := "João da Silva"
	var updated dto.EmployeeResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPut, "/api/employees/"+cat.employeeID,
		dto.UpdateEmployeeRequest{Name: &name}, &updated))
	assert.Equal(t, name, updated.Name)

	inactive := false
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPatch, "/api/employees/"+cat.employeeID+"/active",
		dto.SetEmployeeActiveRequest{Active: &inactive}, &updated))
	assert.False(t, updated.Active)

	var list dto.EmployeeListResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/employees?active=true", nil, &list))
	assert.Empty(t, list.Items)

	var errResp dto.ErrorResponse
	assert.Equal(t, http.StatusBadRequest, call(t, app, op, http.MethodPost, "/api/orders", dto.CreateOrderRequest{
		EmployeeID: cat.employeeID,
		Items:      []dto.OrderItemRequest{{ItemID: cat.itemID, Quantity: 1}},
	}, &errResp), "funcionário inactivo no recibe OS")

	assert.Equal(t, http.StatusBadRequest, call(t, app, op, http.MethodPatch, "/api/employees/"+cat.employeeID+"/active",
		map[string]any{}, &errResp))
	assert.Equal(t, "VALIDATION", errResp.Code)
}

func TestAPI_ItemsStockBajoYReposicion(t *testing.T) {
	app := newAPI(t)
	op := pkgjwt.RoleOperator

	var item dto.ItemResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/items",
		dto.CreateItemRequest{Name: "Conector SC/APC", MinQuantity: 5, InitialQuantity: 2}, &item))
	assert.True(t, item.LowStock)

	var low dto.ItemListResponse
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/items/low-stock", nil, &low))
	require.Len(t, low.Items, 1)

	var mov dto.MovementResponse
	require.Equal(t, http.StatusCreated, call(t, app, op, http.MethodPost, "/api/items/"+item.ID+"/entries",
		dto.ItemEntryRequest{Quantity: 8}, &mov))
	assert.Equal(t, "entrada", mov.Type)
	assert.Equal(t, testUserID, mov.ActorID)

	minQty := 20
	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodPut, "/api/items/"+item.ID,
		dto.UpdateItemRequest{MinQuantity: &minQty}, &item))
	assert.Equal(t, 10, item.Quantity, "update no toca la cantidad")
	assert.True(t, item.LowStock)

	require.Equal(t, http.StatusOK, call(t, app, op, http.MethodGet, "/api/items/low-stock", nil, &low))
	assert.Len(t, low.Items, 1)
}
