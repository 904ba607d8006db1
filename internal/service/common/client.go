//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common

import (
	"context"
	"errors"
	"fmt"
	"time"

	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/metadata"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/oshokin/panic-alert/internal/api/grpc/panel"
	"github.com/oshokin/panic-alert/internal/api/view"
	"github.com/oshokin/panic-alert/internal/config"
)

// Client wraps the PanelService gRPC API with typed helpers.
type Client struct {
	// conn is the underlying gRPC connection to the panel server.
	conn *grpc.ClientConn

	// callTimeout is the default timeout for individual RPC calls.
	callTimeout time.Duration
	// consolePassword is sent with every call when set.
	consolePassword string
}

// Option configures client behaviour.
type Option func(*Client)

// WithCallTimeout sets a default timeout for service calls.
func WithCallTimeout(timeout time.Duration) Option {
	return func(c *Client) {
		if timeout > 0 {
			c.callTimeout = timeout
		}
	}
}

// WithConsolePassword sends the console password required by the siren,
// resolve and clear calls when the server has one configured.
func WithConsolePassword(password string) Option {
	return func(c *Client) {
		c.consolePassword = password
	}
}

var (
	// errAddressRequired is returned when a required address value is missing.
	errAddressRequired = errors.New("address must be provided")
	// errRequestRequired is returned when a submission is nil.
	errRequestRequired = errors.New("request must be provided")
	// errNotConnected is returned when a call is made on a client without a connection.
	errNotConnected = errors.New("client is not connected")
)

// Dial establishes a gRPC connection to the panel server.
// Note: this uses insecure transport credentials; deploy on a trusted network
// or terminate TLS in a proxy until native TLS is added.
func Dial(_ context.Context, address string, opts ...Option) (*Client, error) {
	if address == "" {
		return nil, errAddressRequired
	}

	conn, err := grpc.NewClient(address, grpc.WithTransportCredentials(insecure.NewCredentials()))
	if err != nil {
		return nil, fmt.Errorf("dial panel server: %w", err)
	}

	client := &Client{
		conn:        conn,
		callTimeout: config.DefaultTimeout,
	}

	for _, opt := range opts {
		opt(client)
	}

	return client, nil
}

// Close releases the underlying gRPC connection.
func (c *Client) Close() error {
	if c == nil || c.conn == nil {
		return nil
	}

	return c.conn.Close()
}

// SubmitAlert raises an alert.
func (c *Client) SubmitAlert(ctx context.Context, req *view.SubmitRequest) (*view.SubmitResponse, error) {
	if req == nil {
		return nil, errRequestRequired
	}

	out := new(view.SubmitResponse)
	if err := c.invoke(ctx, panel.MethodSubmitAlert, req, out); err != nil {
		return nil, fmt.Errorf("submit alert: %w", err)
	}

	return out, nil
}

// GetStatus fetches the tenant snapshot.
func (c *Client) GetStatus(ctx context.Context, tenantRef string) (*view.Status, error) {
	out := new(view.Status)
	if err := c.invoke(ctx, panel.MethodGetStatus, view.TenantRequest{Tenant: tenantRef}, out); err != nil {
		return nil, fmt.Errorf("get status: %w", err)
	}

	return out, nil
}

// ApplySirenCommand runs on, off, mute or unmute.
func (c *Client) ApplySirenCommand(ctx context.Context, tenantRef, action string) (*view.SirenResponse, error) {
	out := new(view.SirenResponse)

	req := view.SirenRequest{Tenant: tenantRef, Action: action}
	if err := c.invoke(ctx, panel.MethodApplySirenCommand, req, out); err != nil {
		return nil, fmt.Errorf("apply siren command: %w", err)
	}

	return out, nil
}

// ResolveNext resolves one active alert.
func (c *Client) ResolveNext(ctx context.Context, tenantRef string) (*view.ResolveResponse, error) {
	out := new(view.ResolveResponse)
	if err := c.invoke(ctx, panel.MethodResolveNext, view.TenantRequest{Tenant: tenantRef}, out); err != nil {
		return nil, fmt.Errorf("resolve next: %w", err)
	}

	return out, nil
}

// ResolveAll resolves every alert.
func (c *Client) ResolveAll(ctx context.Context, tenantRef string) (*view.ResolveResponse, error) {
	out := new(view.ResolveResponse)
	if err := c.invoke(ctx, panel.MethodResolveAll, view.TenantRequest{Tenant: tenantRef}, out); err != nil {
		return nil, fmt.Errorf("resolve all: %w", err)
	}

	return out, nil
}

// ClearTenant empties the tenant history.
func (c *Client) ClearTenant(ctx context.Context, tenantRef string) (*view.OKResponse, error) {
	out := new(view.OKResponse)
	if err := c.invoke(ctx, panel.MethodClearTenant, view.TenantRequest{Tenant: tenantRef}, out); err != nil {
		return nil, fmt.Errorf("clear tenant: %w", err)
	}

	return out, nil
}

// invoke performs one unary call, converting wire values to and from Struct messages.
func (c *Client) invoke(ctx context.Context, method string, in, out any) error {
	if c == nil || c.conn == nil {
		return errNotConnected
	}

	req, err := view.ToStruct(in)
	if err != nil {
		return err
	}

	callCtx, cancel := c.callContext(ctx)
	defer cancel()

	if c.consolePassword != "" {
		callCtx = metadata.AppendToOutgoingContext(callCtx, panel.PasswordMetadataKey, c.consolePassword)
	}

	resp := new(structpb.Struct)
	if err = c.conn.Invoke(callCtx, method, req, resp); err != nil {
		return err
	}

	return view.FromStruct(resp, out)
}

// callContext returns a context with the client's call timeout if configured,
// otherwise a cancellable child context without a deadline.
func (c *Client) callContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if c.callTimeout <= 0 {
		return context.WithCancel(ctx)
	}

	return context.WithTimeout(ctx, c.callTimeout)
}
