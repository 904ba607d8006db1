// Package report renders alert history documents (PDF and XLSX) from
// read-only tenant snapshots. It never mutates panel state.
package report
