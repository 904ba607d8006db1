// Package common holds helpers shared by the client binaries.
//
// It provides a lightweight PanelService client wrapper with timeouts and a
// helper that detects the current machine and account, which the panic
// button uses as the default room and teacher.
//
//nolint:revive,nolintlint // Package name "common" is intentional for shared helpers.
package common
