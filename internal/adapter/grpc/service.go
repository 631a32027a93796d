package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ChallengeServiceName is the fully qualified gRPC service name
const ChallengeServiceName = "tradesense.v1.ChallengeService"

// ChallengeServiceServer is the server API for ChallengeService.
// Every RPC takes and returns a google.protobuf.Struct.
type ChallengeServiceServer interface {
	GetPerformance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ComputePerformance(context.Context, *structpb.Struct) (*structpb.Struct, error)
	EvaluateChallenge(context.Context, *structpb.Struct) (*structpb.Struct, error)
	StartChallenge(context.Context, *structpb.Struct) (*structpb.Struct, error)
	UpdateEquity(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListPlans(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetLeaderboard(context.Context, *structpb.Struct) (*structpb.Struct, error)
	FormatAmount(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ValuePositions(context.Context, *structpb.Struct) (*structpb.Struct, error)
	SetChallengeStatus(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetStats(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

type unaryMethod func(ChallengeServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// unaryHandler adapts a ChallengeServiceServer method to a grpc.MethodDesc,
// running the configured unary interceptor around it
func unaryHandler(name string, call unaryMethod) grpc.MethodDesc {
	fullMethod := "/" + ChallengeServiceName + "/" + name

	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv interface{}, ctx context.Context, dec func(interface{}) error, interceptor grpc.UnaryServerInterceptor) (interface{}, error) {
			in := new(structpb.Struct)
			if err := dec(in); err != nil {
				return nil, err
			}
			if interceptor == nil {
				return call(srv.(ChallengeServiceServer), ctx, in)
			}

			info := &grpc.UnaryServerInfo{
				Server:     srv,
				FullMethod: fullMethod,
			}
			handler := func(ctx context.Context, req interface{}) (interface{}, error) {
				return call(srv.(ChallengeServiceServer), ctx, req.(*structpb.Struct))
			}
			return interceptor(ctx, in, info, handler)
		},
	}
}

// ChallengeServiceDesc describes ChallengeService for grpc.Server.RegisterService
var ChallengeServiceDesc = grpc.ServiceDesc{
	ServiceName: ChallengeServiceName,
	HandlerType: (*ChallengeServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryHandler("GetPerformance", ChallengeServiceServer.GetPerformance),
		unaryHandler("ComputePerformance", ChallengeServiceServer.ComputePerformance),
		unaryHandler("EvaluateChallenge", ChallengeServiceServer.EvaluateChallenge),
		unaryHandler("StartChallenge", ChallengeServiceServer.StartChallenge),
		unaryHandler("UpdateEquity", ChallengeServiceServer.UpdateEquity),
		unaryHandler("ListPlans", ChallengeServiceServer.ListPlans),
		unaryHandler("GetLeaderboard", ChallengeServiceServer.GetLeaderboard),
		unaryHandler("FormatAmount", ChallengeServiceServer.FormatAmount),
		unaryHandler("ValuePositions", ChallengeServiceServer.ValuePositions),
		unaryHandler("SetChallengeStatus", ChallengeServiceServer.SetChallengeStatus),
		unaryHandler("GetStats", ChallengeServiceServer.GetStats),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "tradesense/v1/challenge.proto",
}

// RegisterChallengeServiceServer registers srv on s
func RegisterChallengeServiceServer(s grpc.ServiceRegistrar, srv ChallengeServiceServer) {
	s.RegisterService(&ChallengeServiceDesc, srv)
}

// ChallengeServiceClient calls ChallengeService over a client connection
type ChallengeServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewChallengeServiceClient creates a client for ChallengeService
func NewChallengeServiceClient(cc grpc.ClientConnInterface) *ChallengeServiceClient {
	return &ChallengeServiceClient{cc: cc}
}

// Call invokes the named RPC of ChallengeService
func (c *ChallengeServiceClient) Call(ctx context.Context, method string, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, "/"+ChallengeServiceName+"/"+method, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *ChallengeServiceClient) GetPerformance(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "GetPerformance", in, opts...)
}

func (c *ChallengeServiceClient) EvaluateChallenge(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "EvaluateChallenge", in, opts...)
}

func (c *ChallengeServiceClient) ListPlans(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "ListPlans", in, opts...)
}

func (c *ChallengeServiceClient) FormatAmount(ctx context.Context, in *structpb.Struct, opts ...grpc.CallOption) (*structpb.Struct, error) {
	return c.Call(ctx, "FormatAmount", in, opts...)
}
