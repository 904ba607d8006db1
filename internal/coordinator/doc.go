// Package coordinator is the shared alert/siren state coordinator.
//
// Every operation resolves a tenant through the registry, takes that tenant's
// lock for the whole read-modify-write and releases it before logging,
// metrics or change notification run. Alert submission is gated by the rate
// limiter before any tenant is touched.
package coordinator
