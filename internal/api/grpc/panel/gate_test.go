package panel

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/metadata"
	"google.golang.org/grpc/status"
)

// TestConsoleGate checks which methods need the console password.
func TestConsoleGate(t *testing.T) {
	t.Parallel()

	hash, err := bcrypt.GenerateFromPassword([]byte("diretoria"), bcrypt.MinCost)
	require.NoError(t, err)

	gate := ConsoleGate(hash)

	withPassword := func(password string) context.Context {
		return metadata.NewIncomingContext(context.Background(), metadata.Pairs(PasswordMetadataKey, password))
	}

	cases := []struct {
		name   string
		ctx    context.Context
		method string
		want   codes.Code
	}{
		{"submit is public", context.Background(), MethodSubmitAlert, codes.OK},
		{"status is public", context.Background(), MethodGetStatus, codes.OK},
		{"siren without password", context.Background(), MethodApplySirenCommand, codes.Unauthenticated},
		{"clear without password", context.Background(), MethodClearTenant, codes.Unauthenticated},
		{"resolve with wrong password", withPassword("aluno"), MethodResolveNext, codes.Unauthenticated},
		{"resolve all with password", withPassword("diretoria"), MethodResolveAll, codes.OK},
		{"siren with password", withPassword("diretoria"), MethodApplySirenCommand, codes.OK},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			called := false
			handler := func(context.Context, any) (any, error) {
				called = true

				return "ok", nil
			}

			_, err := gate(tc.ctx, nil, &grpc.UnaryServerInfo{FullMethod: tc.method}, handler)
			require.Equal(t, tc.want, status.Code(err))
			require.Equal(t, tc.want == codes.OK, called)
		})
	}
}

// TestConsoleGate_NoHash leaves every method open.
func TestConsoleGate_NoHash(t *testing.T) {
	t.Parallel()

	gate := ConsoleGate(nil)

	resp, err := gate(context.Background(), nil, &grpc.UnaryServerInfo{FullMethod: MethodClearTenant},
		func(context.Context, any) (any, error) { return "ok", nil })
	require.NoError(t, err)
	require.Equal(t, "ok", resp)
}
