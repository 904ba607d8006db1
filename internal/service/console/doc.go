// Package console implements the school office console: status display,
// siren commands, resolving alerts and clearing a tenant over gRPC.
package console
