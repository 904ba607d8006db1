// Package http exposes the panic panel over a chi router: alert submission,
// status polling, console commands, reports, school metadata, a websocket
// status feed, Prometheus metrics and a health probe.
package http
