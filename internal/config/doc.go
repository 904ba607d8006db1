// Package config defines the settings used by the panic-alert binaries and
// provides helpers to load, validate and save them in YAML format.
//
// Validate fills defaults for everything except the listen addresses.
package config
