package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
	"google.golang.org/protobuf/types/known/wrapperspb"
)

const (
	// ServiceName is the fully qualified gRPC service name.
	ServiceName = "geolookup.v1.LookupService"
	// LookupMethod is the full method name of LookupService.Lookup.
	LookupMethod = "/" + ServiceName + "/Lookup"
)

// LookupServiceServer is the server API for LookupService. The request is the
// query (possibly empty); the response carries the same fields as the HTTP
// JSON body.
type LookupServiceServer interface {
	Lookup(context.Context, *wrapperspb.StringValue) (*structpb.Struct, error)
}

// RegisterLookupServiceServer registers srv with s.
func RegisterLookupServiceServer(s grpc.ServiceRegistrar, srv LookupServiceServer) {
	s.RegisterService(&LookupServiceDesc, srv)
}

// LookupServiceDesc describes LookupService for grpc.Server.
var LookupServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*LookupServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{
			MethodName: "Lookup",
			Handler:    lookupHandler,
		},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "geolookup/v1/lookup.proto",
}

func lookupHandler(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	in := new(wrapperspb.StringValue)
	if err := dec(in); err != nil {
		return nil, err
	}
	if interceptor == nil {
		return srv.(LookupServiceServer).Lookup(ctx, in)
	}
	info := &grpc.UnaryServerInfo{
		Server:     srv,
		FullMethod: LookupMethod,
	}
	handler := func(ctx context.Context, req any) (any, error) {
		return srv.(LookupServiceServer).Lookup(ctx, req.(*wrapperspb.StringValue))
	}
	return interceptor(ctx, in, info, handler)
}

// LookupServiceClient is the client API for LookupService.
type LookupServiceClient struct {
	cc grpc.ClientConnInterface
}

// NewLookupServiceClient creates a client on cc.
func NewLookupServiceClient(cc grpc.ClientConnInterface) *LookupServiceClient {
	return &LookupServiceClient{cc: cc}
}

// Lookup calls LookupService.Lookup.
func (c *LookupServiceClient) Lookup(ctx context.Context, in *wrapperspb.StringValue, opts ...grpc.CallOption) (*structpb.Struct, error) {
	out := new(structpb.Struct)
	if err := c.cc.Invoke(ctx, LookupMethod, in, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}
