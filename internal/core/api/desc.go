package api

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "stemkeeper.v1.Warehouse"

// Full method names.
const (
	MethodAddStem  = "/" + ServiceName + "/AddStem"
	MethodGetStock = "/" + ServiceName + "/GetStock"
)

// WarehouseServer is the server API for the Warehouse service.
//
//	rpc AddStem(google.protobuf.StringValue) returns (google.protobuf.StringValue);
//	rpc GetStock(google.protobuf.StringValue) returns (google.protobuf.Struct);
type WarehouseServer interface {
	AddStem(context.Context, *wrapperspb.StringValue) (*wrapperspb.StringValue, error)
	GetStock(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterWarehouseServer registers srv on s.
func RegisterWarehouseServer(s grpc.ServiceRegistrar, srv WarehouseServer) {
	s.RegisterService(&WarehouseServiceDesc, srv)
}

func addStemHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WarehouseServer).AddStem(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodAddStem}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WarehouseServer).AddStem(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

func getStockHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(WarehouseServer).GetStock(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: MethodGetStock}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(WarehouseServer).GetStock(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// WarehouseServiceDesc describes the Warehouse service. Messages are
// protobuf well-known types, so no generated code is needed.
var WarehouseServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*WarehouseServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "AddStem", Handler: addStemHandler},
		{MethodName: "GetStock", Handler: getStockHandler},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "stemkeeper/v1/warehouse.proto",
}
