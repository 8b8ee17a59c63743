package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"

	"github.com/rl1809/shop-bridge/internal/core/domain"
	"github.com/rl1809/shop-bridge/internal/core/service"
)

const (
	InventoryServiceName = "shopbridge.inventory.v1.InventoryService"

	idempotencyKeyMetadata = "idempotency-key"

	errMissingPatchDocument = "The patch document must be a JSON array of operations."
)

// InventoryServer is the server API for the inventory gRPC service.
type InventoryServer interface {
	ListItems(context.Context, *emptypb.Empty) (*structpb.ListValue, error)
	GetItem(context.Context, *wrapperspb.Int64Value) (*structpb.Struct, error)
	CreateItem(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateItem(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	PatchItem(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	DeleteItem(context.Context, *wrapperspb.Int64Value) (*emptypb.Empty, error)
}

var InventoryServiceDesc = grpc.ServiceDesc{
	ServiceName: InventoryServiceName,
	HandlerType: (*InventoryServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "ListItems", Handler: unaryHandler("ListItems", InventoryServer.ListItems)},
		{MethodName: "GetItem", Handler: unaryHandler("GetItem", InventoryServer.GetItem)},
		{MethodName: "CreateItem", Handler: unaryHandler("CreateItem", InventoryServer.CreateItem)},
		{MethodName: "UpdateItem", Handler: unaryHandler("UpdateItem", InventoryServer.UpdateItem)},
		{MethodName: "PatchItem", Handler: unaryHandler("PatchItem", InventoryServer.PatchItem)},
		{MethodName: "DeleteItem", Handler: unaryHandler("DeleteItem", InventoryServer.DeleteItem)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "shopbridge/inventory/v1/inventory.proto",
}

func RegisterInventoryServer(s grpc.ServiceRegistrar, srv InventoryServer) {
	s.RegisterService(&InventoryServiceDesc, srv)
}

func unaryHandler[Req any, Resp any](method string, call func(InventoryServer, context.Context, *Req) (Resp, error)) grpc.MethodHandler {
	fullMethod := "/" + InventoryServiceName + "/" + method
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(Req)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(InventoryServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(InventoryServer), ctx, req.(*Req))
		}
		return interceptor(ctx, in, info, handler)
	}
}

type GRPCHandler struct {
	inventoryService *service.InventoryService
	logger           *zap.Logger
}

var _ InventoryServer = (*GRPCHandler)(nil)

func NewGRPCHandler(inventoryService *service.InventoryService, logger *zap.Logger) *GRPCHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GRPCHandler{inventoryService: inventoryService, logger: logger}
}

func (h *GRPCHandler) ListItems(ctx context.Context, _ *emptypb.Empty) (*structpb.ListValue, error) {
	items, err := h.inventoryService.ListItems(ctx)
	if err != nil {
		return nil, h.toStatus(err)
	}

	values := make([]*structpb.Value, 0, len(items))
	for _, item := range items {
		st, err := itemStruct(item)
		if err != nil {
			return nil, h.toStatus(err)
		}
		values = append(values, structpb.NewStructValue(st))
	}
	return &structpb.ListValue{Values: values}, nil
}

func (h *GRPCHandler) GetItem(ctx context.Context, req *wrapperspb.Int64Value) (*structpb.Struct, error) {
	item, err := h.inventoryService.GetItem(ctx, req.GetValue())
	if err != nil {
		return nil, h.toStatus(err)
	}
	st, err := itemStruct(item)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return st, nil
}

// CreateItem reads the idempotency key from the idempotency-key metadata entry.
func (h *GRPCHandler) CreateItem(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var create domain.CreateItemRequest
	if err := decodeStruct(req, &create); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}

	var key string
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		if values := md.Get(idempotencyKeyMetadata); len(values) > 0 {
			key = values[0]
		}
	}

	item, err := h.inventoryService.CreateItem(ctx, key, create)
	if err != nil {
		return nil, h.toStatus(err)
	}
	st, err := itemStruct(item)
	if err != nil {
		return nil, h.toStatus(err)
	}
	return st, nil
}

func (h *GRPCHandler) UpdateItem(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var body struct {
		ID json.Number `json:"id"`
		domain.UpdateItemRequest
	}
	if err := decodeStruct(req, &body); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, err := parseNumericID(body.ID)
	if err != nil {
		return nil, h.toStatus(err)
	}

	if err := h.inventoryService.UpdateItem(ctx, id, body.UpdateItemRequest); err != nil {
		return nil, h.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *GRPCHandler) PatchItem(ctx context.Context, req *structpb.Struct) (*emptypb.Empty, error) {
	var body struct {
		ID         json.Number             `json:"id"`
		Operations []domain.PatchOperation `json:"operations"`
	}
	if err := decodeStruct(req, &body); err != nil {
		return nil, status.Error(codes.InvalidArgument, err.Error())
	}
	id, err := parseNumericID(body.ID)
	if err != nil {
		return nil, h.toStatus(err)
	}
	if body.Operations == nil {
		return nil, h.toStatus(domain.NewValidationError("operations", errMissingPatchDocument))
	}

	if err := h.inventoryService.PatchItem(ctx, id, body.Operations); err != nil {
		return nil, h.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *GRPCHandler) DeleteItem(ctx context.Context, req *wrapperspb.Int64Value) (*emptypb.Empty, error) {
	if err := h.inventoryService.DeleteItem(ctx, req.GetValue()); err != nil {
		return nil, h.toStatus(err)
	}
	return &emptypb.Empty{}, nil
}

func (h *GRPCHandler) toStatus(err error) error {
	var verr *domain.ValidationError
	switch {
	case errors.As(err, &verr):
		return status.Error(codes.InvalidArgument, verr.Error())
	case errors.Is(err, service.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, service.ErrDuplicateRequest):
		return status.Error(codes.AlreadyExists, err.Error())
	default:
		h.logger.Error("rpc failed", zap.Error(err))
		return status.Error(codes.Internal, "internal error")
	}
}

// UnaryLogging logs every unary call with its method, code and duration.
func UnaryLogging(logger *zap.Logger) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		logger.Info("grpc request",
			zap.String("method", info.FullMethod),
			zap.String("code", status.Code(err).String()),
			zap.Duration("duration", time.Since(start)),
		)
		return resp, err
	}
}

func itemStruct(item domain.ItemView) (*structpb.Struct, error) {
	return structpb.NewStruct(map[string]any{
		"id":          item.ID,
		"name":        item.Name,
		"description": item.Description,
		"price":       item.Price,
	})
}

func decodeStruct(st *structpb.Struct, dst any) error {
	if st == nil {
		st = &structpb.Struct{}
	}
	raw, err := protojson.Marshal(st)
	if err != nil {
		return fmt.Errorf("marshal request: %w", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("decode request: %w", err)
	}
	return nil
}

func parseNumericID(raw json.Number) (int64, error) {
	id, err := raw.Int64()
	if err != nil {
		return 0, domain.NewValidationError("id", fmt.Sprintf("The value '%s' is not valid.", raw))
	}
	return id, nil
}
