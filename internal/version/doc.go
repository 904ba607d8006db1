// Package version holds the panel build metadata.
//
// Version, Commit and BuildTime are set with -ldflags at release time.
package version
