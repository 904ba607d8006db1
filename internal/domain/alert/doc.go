// Package alert contains core domain types for the panic-alert business logic.
//
// It defines Record (a single alert raised from a classroom), Store (the
// ordered alert history of one tenant) and SirenState (the siren state
// machine). None of these types lock: the tenant that owns them does.
package alert
