// Package tenant maps tenant references to isolated alert/siren state.
//
// The Registry lock covers only lookup and create-if-absent. Each Tenant
// carries its own lock, so operations on different schools never wait on
// each other.
package tenant
