package grpctransport

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"github.com/corray333/backend-labs/food-ordering/internal/service/models/ids"
	"github.com/corray333/backend-labs/food-ordering/internal/service/models/order"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/types/known/structpb"
)

const serviceName = "foodordering.v1.OrderService"

// Full method names, usable with grpc.ClientConn.Invoke.
const (
	CreateOrderMethod = "/" + serviceName + "/CreateOrder"
	TrackOrderMethod  = "/" + serviceName + "/TrackOrder"
)

// OrderServiceServer carries the HTTP JSON bodies as google.protobuf.Struct,
// so both transports share one message shape.
type OrderServiceServer interface {
	CreateOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	TrackOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// RegisterOrderServiceServer registers srv on s.
func RegisterOrderServiceServer(s grpc.ServiceRegistrar, srv OrderServiceServer) {
	s.RegisterService(&orderServiceDesc, srv)
}

var orderServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*OrderServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "CreateOrder", Handler: unaryHandler(CreateOrderMethod, OrderServiceServer.CreateOrder)},
		{MethodName: "TrackOrder", Handler: unaryHandler(TrackOrderMethod, OrderServiceServer.TrackOrder)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "foodordering/v1/order.proto",
}

type unaryMethod func(OrderServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(OrderServiceServer), ctx, in)
		}
		info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(OrderServiceServer), ctx, req.(*structpb.Struct))
		}

		return interceptor(ctx, in, info, handler)
	}
}

// OrderServer implements OrderServiceServer on top of the order service.
type OrderServer struct {
	service service
}

// NewOrderServer creates a new OrderServer.
func NewOrderServer(service service) *OrderServer {
	return &OrderServer{
		service: service,
	}
}

// CreateOrder handles the create order gRPC request.
func (s *OrderServer) CreateOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var cmd order.CreateOrderCommand
	if err := fromStruct(req, &cmd); err != nil {
		return nil, status.Errorf(codes.InvalidArgument, "failed to convert request: %v", err)
	}

	resp, err := s.service.CreateOrder(ctx, cmd)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(resp)
}

// TrackOrder handles the track order gRPC request.
func (s *OrderServer) TrackOrder(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	trackingID, err := ids.ParseTrackingID(req.GetFields()["trackingId"].GetStringValue())
	if err != nil {
		return nil, status.Error(codes.InvalidArgument, "invalid tracking id")
	}

	resp, err := s.service.TrackOrder(ctx, trackingID)
	if err != nil {
		return nil, toStatus(err)
	}

	return toStruct(resp)
}

func toStatus(err error) error {
	switch {
	case errors.Is(err, order.ErrValidation):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, order.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	default:
		slog.Error("gRPC request failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}

func fromStruct(in *structpb.Struct, v any) error {
	data, err := protojson.Marshal(in)
	if err != nil {
		return err
	}

	return json.Unmarshal(data, v)
}

func toStruct(v any) (*structpb.Struct, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal response: %v", err)
	}

	out := new(structpb.Struct)
	if err := protojson.Unmarshal(data, out); err != nil {
		return nil, status.Errorf(codes.Internal, "failed to marshal response: %v", err)
	}

	return out, nil
}
