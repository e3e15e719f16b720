package usecase

import (
	"context"

	"github.com/jhoicas/estoque-os-api/internal/application/dto"
	"github.com/jhoicas/estoque-os-api/internal/application/serviceorder"
	"github.com/jhoicas/estoque-os-api/internal/domain/entity"
	"github.com/jhoicas/estoque-os-api/internal/domain/repository"
)

// OrderUseCase expone el motor de OS con entradas y salidas en DTO.
type OrderUseCase struct {
	engine *serviceorder.Engine
}

// NewOrderUseCase construye el caso de uso.
func NewOrderUseCase(engine *serviceorder.Engine) *OrderUseCase {
	return &OrderUseCase{engine: engine}
}

// Create crea la OS en rascunho.
func (uc *OrderUseCase) Create(ctx context.Context, actorID string, in dto.CreateOrderRequest) (*dto.OrderResponse, error) {
	order, err := uc.engine.CreateDraft(ctx, serviceorder.DraftInput{
		EmployeeID:   in.EmployeeID,
		Items:        toItemQuantities(in.Items),
		EquipmentIDs: in.EquipmentIDs,
		Notes:        in.Notes,
		ActorID:      actorID,
	})
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// Detail devuelve la OS con pendientes por línea y devoluciones.
func (uc *OrderUseCase) Detail(ctx context.Context, id string) (*dto.OrderDetailResponse, error) {
	d, err := uc.engine.Detail(ctx, id)
	if err != nil {
		return nil, err
	}
	return toOrderDetailResponse(d), nil
}

// List lista OS por número descendente.
func (uc *OrderUseCase) List(ctx context.Context, employeeID, status string, limit, offset int) (*dto.OrderListResponse, error) {
	list, err := uc.engine.List(ctx, repository.OrderFilter{
		EmployeeID: employeeID,
		Status:     entity.OrderStatus(status),
		Limit:      limit,
		Offset:     offset,
	})
	if err != nil {
		return nil, err
	}
	items := make([]dto.OrderResponse, 0, len(list))
	for _, o := range list {
		items = append(items, *toOrderResponse(o))
	}
	return &dto.OrderListResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: limit, Offset: offset},
	}, nil
}

// Confirm emite la OS: descuenta ítems y asigna equipos.
func (uc *OrderUseCase) Confirm(ctx context.Context, id, actorID string) (*dto.OrderResponse, error) {
	order, err := uc.engine.Confirm(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// Cancel cancela la OS y revierte lo que siga en poder del funcionário.
func (uc *OrderUseCase) Cancel(ctx context.Context, id, actorID string) (*dto.OrderResponse, error) {
	order, err := uc.engine.Cancel(ctx, id, actorID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// RegisterDevolution registra una devolución parcial o total.
func (uc *OrderUseCase) RegisterDevolution(ctx context.Context, id, actorID string, in dto.DevolutionRequest) (*dto.DevolutionResponse, error) {
	dev, err := uc.engine.RegisterDevolution(ctx, serviceorder.DevolutionInput{
		OrderID:      id,
		Items:        toItemQuantities(in.Items),
		EquipmentIDs: in.EquipmentIDs,
		ActorID:      actorID,
		Notes:        in.Notes,
	})
	if err != nil {
		return nil, err
	}
	out := toDevolutionResponse(dev)
	return &out, nil
}

// Sign registra la firma de la OS.
func (uc *OrderUseCase) Sign(ctx context.Context, id, actorID string, in dto.SignatureRequest) (*dto.OrderResponse, error) {
	order, err := uc.engine.Sign(ctx, id, in.Payload, actorID)
	if err != nil {
		return nil, err
	}
	return toOrderResponse(order), nil
}

// MarkEquipmentLost marca la ONU como extraviada y reevalúa su OS.
func (uc *OrderUseCase) MarkEquipmentLost(ctx context.Context, equipmentID, actorID string, in dto.EquipmentStatusRequest) (*dto.EquipmentResponse, error) {
	eq, err := uc.engine.MarkEquipmentLost(ctx, equipmentID, actorID, in.Description)
	if err != nil {
		return nil, err
	}
	return toEquipmentResponse(eq), nil
}

func toItemQuantities(in []dto.OrderItemRequest) []serviceorder.ItemQuantity {
	out := make([]serviceorder.ItemQuantity, 0, len(in))
	for _, l := range in {
		out = append(out, serviceorder.ItemQuantity{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	return out
}

func toOrderResponse(o *entity.ServiceOrder) *dto.OrderResponse {
	if o == nil {
		return nil
	}
	out := &dto.OrderResponse{
		ID:         o.ID,
		Number:     o.Number,
		EmployeeID: o.EmployeeID,
		Status:     string(o.Status),
		Notes:      o.Notes,
		Signed:     o.IsSigned(),
		SignedBy:   o.SignedBy,
		SignedAt:   o.SignedAt,
		CreatedBy:  o.CreatedBy,
		CreatedAt:  o.CreatedAt,
		UpdatedAt:  o.UpdatedAt,
	}
	for _, l := range o.Items {
		out.Items = append(out.Items, dto.OrderItemLineResponse{ID: l.ID, ItemID: l.ItemID, Quantity: l.Quantity})
	}
	for _, l := range o.Equipment {
		out.Equipment = append(out.Equipment, dto.OrderEquipmentLineResponse{ID: l.ID, EquipmentID: l.EquipmentID})
	}
	return out
}

func toOrderDetailResponse(d *serviceorder.OrderDetail) *dto.OrderDetailResponse {
	out := &dto.OrderDetailResponse{
		OrderResponse: *toOrderResponse(d.Order),
		Devolutions:   make([]dto.DevolutionResponse, 0, len(d.Devolutions)),
	}
	out.Items = make([]dto.OrderItemLineResponse, 0, len(d.Items))
	for _, p := range d.Items {
		out.Items = append(out.Items, dto.OrderItemLineResponse{
			ID:          p.Line.ID,
			ItemID:      p.Line.ItemID,
			Quantity:    p.Line.Quantity,
			Returned:    p.Returned,
			Outstanding: p.Outstanding,
		})
	}
	out.Equipment = make([]dto.OrderEquipmentLineResponse, 0, len(d.Equipment))
	for _, p := range d.Equipment {
		out.Equipment = append(out.Equipment, dto.OrderEquipmentLineResponse{
			ID:          p.Line.ID,
			EquipmentID: p.Line.EquipmentID,
			Status:      string(p.Status),
			Returned:    p.Returned,
			Outstanding: p.Outstanding,
		})
	}
	for _, dev := range d.Devolutions {
		out.Devolutions = append(out.Devolutions, toDevolutionResponse(dev))
	}
	return out
}

func toDevolutionResponse(d *entity.Devolution) dto.DevolutionResponse {
	out := dto.DevolutionResponse{
		ID:           d.ID,
		OrderID:      d.OrderID,
		ActorID:      d.ActorID,
		Notes:        d.Notes,
		CreatedAt:    d.CreatedAt,
		Items:        make([]dto.DevolutionItemResponse, 0, len(d.Items)),
		EquipmentIDs: make([]string, 0, len(d.Equipment)),
	}
	for _, l := range d.Items {
		out.Items = append(out.Items, dto.DevolutionItemResponse{ItemID: l.ItemID, Quantity: l.Quantity})
	}
	for _, l := range d.Equipment {
		out.EquipmentIDs = append(out.EquipmentIDs, l.EquipmentID)
	}
	return out
}
