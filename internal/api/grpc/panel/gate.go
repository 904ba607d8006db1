package panel

import (
	"context"

	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"

	"github.com/oshokin/panic-alert/internal/logger"
)

// PasswordMetadataKey carries the console password on console calls.
const PasswordMetadataKey = "x-console-password"

// publicMethods are open to the panic buttons and displays.
//
//nolint:gochecknoglobals // Read-only method set.
var publicMethods = map[string]struct{}{
	MethodSubmitAlert: {},
	MethodGetStatus:   {},
}

// ConsoleGate requires the console password on every method except
// SubmitAlert and GetStatus. An empty hash leaves all methods open.
func ConsoleGate(hash []byte) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		if len(hash) == 0 {
			return handler(ctx, req)
		}

		if _, ok := publicMethods[info.FullMethod]; ok {
			return handler(ctx, req)
		}

		var password string
		if md, ok := metadata.FromIncomingContext(ctx); ok {
			if values := md.Get(PasswordMetadataKey); len(values) > 0 {
				password = values[0]
			}
		}

		if password == "" || bcrypt.CompareHashAndPassword(hash, []byte(password)) != nil {
			logger.WarnKV(ctx, "Console access denied", "method", info.FullMethod, "peer", peerHost(ctx))

			return nil, status.Error(codes.Unauthenticated, "console password required")
		}

		return handler(ctx, req)
	}
}
