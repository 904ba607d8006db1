// Package panel implements the gRPC transport for the panic panel.
//
// Requests and responses are google.protobuf.Struct values whose field names
// match the HTTP JSON API. The service descriptor is declared by hand, so no
// generated code is required on either side of the wire.
package panel
