// Package view defines the wire representation of panel state shared by the
// HTTP and gRPC transports and their clients.
package view
