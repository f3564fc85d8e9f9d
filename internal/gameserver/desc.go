package gameserver

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

const (
	serviceName    = "arena.v1.Arena"
	placeBetMethod = "/arena.v1.Arena/PlaceBet"
	snapshotMethod = "/arena.v1.Arena/Snapshot"
	watchMethod    = "/arena.v1.Arena/Watch"
)

// ArenaService is the server API of arena.v1.Arena. Messages are
// well-known protobuf types so no generated code is required.
type ArenaService interface {
	PlaceBet(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	Snapshot(ctx context.Context, req *emptypb.Empty) (*structpb.Struct, error)
	Watch(req *emptypb.Empty, stream EventStream) error
}

// EventStream is the server side of a Watch call.
type EventStream interface {
	Send(*structpb.Struct) error
	Context() context.Context
}

type eventStream struct {
	grpc.ServerStream
}

func (s eventStream) Send(m *structpb.Struct) error { return s.ServerStream.SendMsg(m) }

// ArenaServiceDesc describes arena.v1.Arena for grpc.Server.RegisterService.
var ArenaServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*ArenaService)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "PlaceBet", Handler: placeBetHandler},
		{MethodName: "Snapshot", Handler: snapshotHandler},
	},
	Streams: []grpc.StreamDesc{
		{StreamName: "Watch", Handler: watchHandler, ServerStreams: true},
	},
	Metadata: "arena/v1/arena.proto",
}

// RegisterArenaService registers srv on s.
func RegisterArenaService(s grpc.ServiceRegistrar, srv ArenaService) {
	s.RegisterService(&ArenaServiceDesc, srv)
}

func placeBetHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(structpb.Struct)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArenaService).PlaceBet(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: placeBetMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ArenaService).PlaceBet(ctx, req.(*structpb.Struct))
	}
	return interceptor(ctx, in, info, handler)
}

func snapshotHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(emptypb.Empty)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(ArenaService).Snapshot(ctx, in)
	}
	info := &grpc.UnaryServerInfo{Server: srv, FullMethod: snapshotMethod}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(ArenaService).Snapshot(ctx, req.(*emptypb.Empty))
	}
	return interceptor(ctx, in, info, handler)
}

func watchHandler(srv any, stream grpc.ServerStream) error {
	in := new(emptypb.Empty)
	if err := stream.RecvMsg(in); err != nil {
		return err
	}
	return srv.(ArenaService).Watch(in, eventStream{stream})
}
