package panel

import (
	"context"
	"errors"
	"net"

	"google.golang.org/genproto/googleapis/rpc/errdetails"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/peer"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/durationpb"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/clock"
	"github.com/oshokin/panic-alert/internal/coordinator"
	"github.com/oshokin/panic-alert/internal/domain/alert"
	"github.com/oshokin/panic-alert/internal/logger"
)

// Service abstracts the panel operations the transport layer depends on.
type Service interface {
	SubmitAlert(ctx context.Context, req *coordinator.SubmitRequest) (*alert.Record, error)
	GetStatus(ctx context.Context, tenantRef string) (*coordinator.Status, error)
	ApplySirenCommand(ctx context.Context, tenantRef, command string) (alert.SirenState, error)
	ResolveNext(ctx context.Context, tenantRef string) (bool, error)
	ResolveAll(ctx context.Context, tenantRef string) (int, error)
	ClearTenant(ctx context.Context, tenantRef string) error
}

// Server implements PanelServer on top of a Service.
type Server struct {
	// service provides the panel operations.
	service Service
	// clock stamps server_time in responses.
	clock clock.Clock
}

// NewServer wires the provided service implementation into a gRPC handler.
func NewServer(service Service) *Server {
	return &Server{
		service: service,
		clock:   clock.Real{},
	}
}

// SubmitAlert records an alert. The rate limiting key is the peer address.
func (s *Server) SubmitAlert(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.SubmitRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	rec, err := s.service.SubmitAlert(ctx, &coordinator.SubmitRequest{
		Tenant:      in.Tenant,
		Teacher:     in.Teacher,
		Room:        in.Room,
		Description: in.Description,
		Source:      peerHost(ctx),
	})
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(view.SubmitResponse{
		OK:         true,
		Alert:      view.NewAlert(rec),
		ServerTime: view.ServerTime(s.clock.Now()),
	})
}

// GetStatus returns the tenant snapshot.
func (s *Server) GetStatus(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.TenantRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	snapshot, err := s.service.GetStatus(ctx, in.Tenant)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(view.NewStatus(snapshot))
}

// ApplySirenCommand runs a siren command.
func (s *Server) ApplySirenCommand(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.SirenRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	state, err := s.service.ApplySirenCommand(ctx, in.Tenant, in.Action)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(view.SirenResponse{
		OK:         true,
		Siren:      view.NewSiren(state),
		ServerTime: view.ServerTime(s.clock.Now()),
	})
}

// ResolveNext resolves one active alert.
func (s *Server) ResolveNext(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.TenantRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	ok, err := s.service.ResolveNext(ctx, in.Tenant)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	resolved := 0
	if ok {
		resolved = 1
	}

	return encode(view.ResolveResponse{
		OK:         true,
		Resolved:   resolved,
		ServerTime: view.ServerTime(s.clock.Now()),
	})
}

// ResolveAll resolves every alert.
func (s *Server) ResolveAll(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.TenantRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	resolved, err := s.service.ResolveAll(ctx, in.Tenant)
	if err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(view.ResolveResponse{
		OK:         true,
		Resolved:   resolved,
		ServerTime: view.ServerTime(s.clock.Now()),
	})
}

// ClearTenant empties the tenant history.
func (s *Server) ClearTenant(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	var in view.TenantRequest
	if err := decode(req, &in); err != nil {
		return nil, err
	}

	if err := s.service.ClearTenant(ctx, in.Tenant); err != nil {
		return nil, toStatusError(ctx, err)
	}

	return encode(view.OKResponse{
		OK:         true,
		ServerTime: view.ServerTime(s.clock.Now()),
	})
}

// decode maps a request Struct onto a wire type.
func decode(req *structpb.Struct, v any) error {
	if req == nil {
		return status.Error(codes.InvalidArgument, "request is required")
	}

	if err := view.FromStruct(req, v); err != nil {
		return status.Errorf(codes.InvalidArgument, "malformed request: %v", err)
	}

	return nil
}

// encode converts a wire type into a response Struct.
func encode(v any) (*structpb.Struct, error) {
	out, err := view.ToStruct(v)
	if err != nil {
		return nil, status.Error(codes.Internal, "unable to encode response")
	}

	return out, nil
}

// toStatusError maps coordinator errors to gRPC status codes.
func toStatusError(ctx context.Context, err error) error {
	var rateErr *coordinator.RateLimitError

	switch {
	case errors.As(err, &rateErr):
		st := status.New(codes.ResourceExhausted, err.Error())

		detailed, detailErr := st.WithDetails(&errdetails.RetryInfo{
			RetryDelay: durationpb.New(rateErr.RetryAfter),
		})
		if detailErr != nil {
			return st.Err()
		}

		return detailed.Err()
	case errors.Is(err, coordinator.ErrInvalidInput), errors.Is(err, coordinator.ErrInvalidCommand):
		return status.Error(codes.InvalidArgument, err.Error())
	case errors.Is(err, coordinator.ErrTenantResolution):
		return status.Error(codes.FailedPrecondition, err.Error())
	default:
		logger.ErrorKV(ctx, "Panel operation failed", "error", err)

		return status.Error(codes.Internal, "internal error")
	}
}

// peerHost returns the client IP of the call, or an empty string.
func peerHost(ctx context.Context) string {
	p, ok := peer.FromContext(ctx)
	if !ok || p.Addr == nil {
		return ""
	}

	addr := p.Addr.String()

	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return addr
	}

	return host
}
