package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/emptypb"
	"google.golang.org/protobuf/types/known/structpb"
)

// Messages are well-known types: commands and replies travel as
// google.protobuf.Struct with the same field names as the HTTP API.

const serviceName = "wordrush.GameService"

// GameServiceServer is the server API for GameService
type GameServiceServer interface {
	Join(context.Context, *structpb.Struct) (*structpb.Struct, error)
	Submit(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	Leave(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	StartRound(context.Context, *structpb.Struct) (*emptypb.Empty, error)
	GetState(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StreamEvents(*structpb.Struct, GameService_StreamEventsServer) error
}

// GameService_StreamEventsServer is the server side of the event stream
type GameService_StreamEventsServer interface {
	Send(*structpb.Struct) error
	grpc.ServerStream
}

type streamEventsServer struct {
	grpc.ServerStream
}

func (x *streamEventsServer) Send(m *structpb.Struct) error {
	return x.ServerStream.SendMsg(m)
}

// RegisterGameServiceServer registers srv on s
func RegisterGameServiceServer(s grpc.ServiceRegistrar, srv GameServiceServer) {
	s.RegisterService(&GameServiceDesc, srv)
}

func unary[Req any, Resp any](method string, call func(GameServiceServer, context.Context, *Req) (Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: method,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(GameServiceServer), ctx, in)
			}
			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: "/" + serviceName + "/" + method,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(GameServiceServer), ctx, req.(*Req))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// GameServiceDesc describes GameService for grpc.Server
var GameServiceDesc = grpc.ServiceDesc{
	ServiceName: serviceName,
	HandlerType: (*GameServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unary("Join", GameServiceServer.Join),
		unary("Submit", GameServiceServer.Submit),
		unary("Leave", GameServiceServer.Leave),
		unary("StartRound", GameServiceServer.StartRound),
		unary("GetState", GameServiceServer.GetState),
	},
	Streams: []grpc.StreamDesc{
		{
			StreamName: "StreamEvents",
			Handler: func(srv interface{}, stream grpc.ServerStream) error {
				in := new(structpb.Struct)
				if err := stream.RecvMsg(in); err != nil {
					return err
				}
				return srv.(GameServiceServer).StreamEvents(in, &streamEventsServer{stream})
			},
			ServerStreams: true,
		},
	},
}

// GameClient calls GameService
type GameClient struct {
	cc grpc.ClientConnInterface
}

// NewGameClient wraps a client connection
func NewGameClient(cc grpc.ClientConnInterface) *GameClient {
	return &GameClient{cc: cc}
}

func (c *GameClient) invoke(ctx context.Context, method string, in, out interface{}, opts ...grpc.CallOption) error {
	return c.cc.Invoke(ctx, "/"+serviceName+"/"+method, in, out, opts...)
}

func (c *GameClient) Join(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "Join", in, out, opts...)
}

func (c *GameClient) Submit(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.invoke(ctx, "Submit", in, out, opts...)
}

func (c *GameClient) Leave(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.invoke(ctx, "Leave", in, out, opts...)
}

func (c *GameClient) StartRound(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*emptypb.Empty, error) {
	out := new(emptypb.Empty)
	return out, c.invoke(ctx, "StartRound", in, out, opts...)
}

func (c *GameClient) GetState(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	return out, c.invoke(ctx, "GetState", in, out, opts...)
}

// StreamEvents opens the event stream and returns a receive function
func (c *GameClient) StreamEvents(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (func() (*structpb.Struct, error), error) {
	stream, err := c.cc.NewStream(ctx, &GameServiceDesc.Streams[0], "/"+serviceName+"/StreamEvents", opts...)
	if err != nil {
		return nil, err
	}
	if err := stream.SendMsg(in); err != nil {
		return nil, err
	}
	if err := stream.CloseSend(); err != nil {
		return nil, err
	}
	return func() (*structpb.Struct, error) {
		m := new(structpb.Struct)
		if err := stream.RecvMsg(m); err != nil {
			return nil, err
		}
		return m, nil
	}, nil
}
