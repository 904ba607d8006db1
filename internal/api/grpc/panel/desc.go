package panel

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified gRPC service name.
const ServiceName = "panicalert.v1.PanelService"

// Full method names used by clients.
const (
	MethodSubmitAlert       = "/" + ServiceName + "/SubmitAlert"
	MethodGetStatus         = "/" + ServiceName + "/GetStatus"
	MethodApplySirenCommand = "/" + ServiceName + "/ApplySirenCommand"
	MethodResolveNext       = "/" + ServiceName + "/ResolveNext"
	MethodResolveAll        = "/" + ServiceName + "/ResolveAll"
	MethodClearTenant       = "/" + ServiceName + "/ClearTenant"
)

// PanelServer is the server API of the panel service.
type PanelServer interface {
	SubmitAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ApplySirenCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveNext(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ResolveAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
	ClearTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error)
}

// unaryMethod is a PanelServer method expression.
type unaryMethod func(PanelServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

// ServiceDesc describes the panel service for grpc.ServiceRegistrar.
//
//nolint:gochecknoglobals // Service descriptors are package-level by convention.
var ServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PanelServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "SubmitAlert", Handler: unaryHandler(MethodSubmitAlert, PanelServer.SubmitAlert)},
		{MethodName: "GetStatus", Handler: unaryHandler(MethodGetStatus, PanelServer.GetStatus)},
		{MethodName: "ApplySirenCommand", Handler: unaryHandler(MethodApplySirenCommand, PanelServer.ApplySirenCommand)},
		{MethodName: "ResolveNext", Handler: unaryHandler(MethodResolveNext, PanelServer.ResolveNext)},
		{MethodName: "ResolveAll", Handler: unaryHandler(MethodResolveAll, PanelServer.ResolveAll)},
		{MethodName: "ClearTenant", Handler: unaryHandler(MethodClearTenant, PanelServer.ClearTenant)},
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "panicalert/v1/panel.proto",
}

// Register attaches the panel service to a gRPC server.
func Register(registrar grpc.ServiceRegistrar, srv PanelServer) {
	registrar.RegisterService(&ServiceDesc, srv)
}

// unaryHandler adapts a method expression to grpc.MethodHandler, honoring interceptors.
func unaryHandler(fullMethod string, call unaryMethod) grpc.MethodHandler {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}

		server, _ := srv.(PanelServer) //nolint:errcheck // RegisterService checks HandlerType.

		if interceptor == nil {
			return call(server, ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}

		handler := func(ctx context.Context, req any) (any, error) {
			typed, _ := req.(*structpb.Struct) //nolint:errcheck // Interceptors pass the decoded request through.

			return call(server, ctx, typed)
		}

		return interceptor(ctx, in, info, handler)
	}
}
