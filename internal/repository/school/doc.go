// Package school implements persistence for school (tenant) metadata.
//
// The FileRepository stores every school in one YAML document keyed by the
// sanitized tenant id. Alert and siren state are never persisted.
package school
