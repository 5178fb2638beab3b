// Package source defines the raw record shapes and fetcher boundaries for
// the modeled upstream systems. Records carry exactly what the source sends;
// cleaning and typing happen downstream.
package source

// Kind identifies an upstream system. The string values are persisted in
// source_system columns and must not change.
type Kind string

const (
	FEC     Kind = "FEC"
	MDState Kind = "MD_STATE"
)

// DateWindow bounds an extraction pass. Zero values mean unbounded on that
// side; sources interpret the bounds in their own date format.
type DateWindow struct {
	Start string
	End   string
}
