package panel

import (
	"context"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/ratelimit"
	"github.com/oshokin/panic-alert/internal/tenant"
)

var errBroken = errors.New("broken")

// brokenService fails every operation with a system error.
type brokenService struct{}

func (brokenService) SubmitAlert(context.Context, *coordinator.SubmitRequest) (*alert.Record, error) {
	return nil, errBroken
}

func (brokenService) GetStatus(context.Context, string) (*coordinator.Status, error) {
	return nil, errBroken
}

func (brokenService) ApplySirenCommand(context.Context, string, string) (alert.SirenState, error) {
	return alert.SirenState{}, errBroken
}

func (brokenService) ResolveNext(context.Context, string) (bool, error) { return false, errBroken }

func (brokenService) ResolveAll(context.Context, string) (int, error) { return 0, errBroken }

func (brokenService) ClearTenant(context.Context, string) error { return errBroken }

// newTestServer builds a server over a real coordinator.
func newTestServer(limit int) *Server {
	co := coordinator.New(tenant.NewRegistry(0), ratelimit.New(time.Minute, limit))

	return NewServer(co)
}

// mustStruct converts a wire value for a request.
func mustStruct(t *testing.T, v any) *structpb.Struct {
	t.Helper()

	s, err := view.ToStruct(v)
	require.NoError(t, err)

	return s
}

// peerContext simulates a call from the given address.
func peerContext(ip string) context.Context {
	return peer.NewContext(context.Background(), &peer.Peer{
		Addr: &net.TCPAddr{IP: net.ParseIP(ip), Port: 50000},
	})
}

// TestServer_Validation ensures malformed requests return InvalidArgument.
func TestServer_Validation(t *testing.T) {
	t.Parallel()

	s := newTestServer(10)

	_, err := s.SubmitAlert(context.Background(), nil)
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.SubmitAlert(peerContext("10.0.0.1"), mustStruct(t, view.SubmitRequest{Teacher: "Ana"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))

	_, err = s.ApplySirenCommand(context.Background(), mustStruct(t, view.SirenRequest{Action: "explode"}))
	require.Equal(t, codes.InvalidArgument, status.Code(err))
}

// TestServer_Roundtrip submits, commands and resolves through the transport.
func TestServer_Roundtrip(t *testing.T) {
	t.Parallel()

	s := newTestServer(10)
	ctx := peerContext("10.0.0.1")

	resp, err := s.SubmitAlert(ctx, mustStruct(t, view.SubmitRequest{
		Tenant:  "Escola 1",
		Teacher: "Ana",
		Room:    "Sala 3",
	}))
	require.NoError(t, err)

	var submitted view.SubmitResponse
	require.NoError(t, view.FromStruct(resp, &submitted))
	require.True(t, submitted.OK)
	require.Equal(t, int64(1), submitted.Alert.ID)
	require.Equal(t, "escola1", submitted.Alert.Tenant)

	resp, err = s.GetStatus(ctx, mustStruct(t, view.TenantRequest{Tenant: "Escola 1"}))
	require.NoError(t, err)

	var snapshot view.Status
	require.NoError(t, view.FromStruct(resp, &snapshot))
	require.Equal(t, 1, snapshot.ActiveAlerts)
	require.True(t, snapshot.Siren.Sounding)

	resp, err = s.ApplySirenCommand(ctx, mustStruct(t, view.SirenRequest{Tenant: "Escola 1", Action: "mute"}))
	require.NoError(t, err)

	var siren view.SirenResponse
	require.NoError(t, view.FromStruct(resp, &siren))
	require.Equal(t, "muted", siren.Siren.Mode)

	resp, err = s.ResolveNext(ctx, mustStruct(t, view.TenantRequest{Tenant: "Escola 1"}))
	require.NoError(t, err)

	var resolved view.ResolveResponse
	require.NoError(t, view.FromStruct(resp, &resolved))
	require.Equal(t, 1, resolved.Resolved)

	resp, err = s.ResolveAll(ctx, mustStruct(t, view.TenantRequest{Tenant: "Escola 1"}))
	require.NoError(t, err)
	require.NoError(t, view.FromStruct(resp, &resolved))
	require.Equal(t, 0, resolved.Resolved)

	_, err = s.ClearTenant(ctx, mustStruct(t, view.TenantRequest{Tenant: "Escola 1"}))
	require.NoError(t, err)
}

// TestServer_RateLimitedCarriesRetryInfo maps throttling to ResourceExhausted.
func TestServer_RateLimitedCarriesRetryInfo(t *testing.T) {
	t.Parallel()

	s := newTestServer(1)
	req := mustStruct(t, view.SubmitRequest{Teacher: "Ana", Room: "Lab"})

	_, err := s.SubmitAlert(peerContext("10.0.0.1"), req)
	require.NoError(t, err)

	_, err = s.SubmitAlert(peerContext("10.0.0.1"), req)

	st, ok := status.FromError(err)
	require.True(t, ok)
	require.Equal(t, codes.ResourceExhausted, st.Code())
	require.Len(t, st.Details(), 1)

	info, ok := st.Details()[0].(*errdetails.RetryInfo)
	require.True(t, ok)
	require.Positive(t, info.GetRetryDelay().AsDuration())

	// Another source is admitted.
	_, err = s.SubmitAlert(peerContext("10.0.0.2"), req)
	require.NoError(t, err)
}

// TestServer_SystemErrorsAreInternal hides system failures behind Internal.
func TestServer_SystemErrorsAreInternal(t *testing.T) {
	t.Parallel()

	s := NewServer(brokenService{})
	req := mustStruct(t, view.TenantRequest{})

	_, err := s.GetStatus(context.Background(), req)
	require.Equal(t, codes.Internal, status.Code(err))

	_, err = s.ClearTenant(context.Background(), req)
	require.Equal(t, codes.Internal, status.Code(err))
}

// TestServiceDesc_OverTheWire exercises the hand-written descriptor through a real gRPC stack.
func TestServiceDesc_OverTheWire(t *testing.T) {
	t.Parallel()

	lis := bufconn.Listen(1 << 20)
	srv := grpc.NewServer()
	Register(srv, newTestServer(10))

	go func() {
		_ = srv.Serve(lis)
	}()

	t.Cleanup(srv.Stop)

	conn, err := grpc.NewClient(
		"passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()),
	)
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = conn.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	out := new(structpb.Struct)
	err = conn.Invoke(ctx, MethodSubmitAlert, mustStruct(t, view.SubmitRequest{Teacher: "Ana", Room: "Lab"}), out)
	require.NoError(t, err)

	var submitted view.SubmitResponse
	require.NoError(t, view.FromStruct(out, &submitted))
	require.Equal(t, int64(1), submitted.Alert.ID)

	out = new(structpb.Struct)
	require.NoError(t, conn.Invoke(ctx, MethodGetStatus, mustStruct(t, view.TenantRequest{}), out))

	var snapshot view.Status
	require.NoError(t, view.FromStruct(out, &snapshot))
	require.Equal(t, "default", snapshot.Tenant)
	require.Equal(t, 1, snapshot.TotalAlerts)
}
