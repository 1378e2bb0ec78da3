package events

import "time"

// Column limits of the scan_events table.
const (
	MaxProjectNameLen = 255
	MaxFilePathLen    = 500
	MaxSecretTypeLen  = 100
)

// ScanEvent is one detected-secret finding reported by a scanner.
// Rows are immutable once stored.
type ScanEvent struct {
	ID          int64
	Timestamp   time.Time
	ProjectName string
	FilePath    string
	SecretType  string
	Confidence  float64
	LineNumber  int
	Preview     *string
	CreatedAt   time.Time
}

// ListFilter selects a page of events ordered by timestamp, newest first.
// An empty ProjectName matches every project.
type ListFilter struct {
	ProjectName string
	Limit       int
	Offset      int
}

const (
	DefaultLimit  = 100
	DefaultOffset = 0
)

// ProjectCount is one row of the per-project grouping.
type ProjectCount struct {
	ProjectName string
	Count       int64
}

// SecretTypeCount is one row of the per-secret-type grouping.
type SecretTypeCount struct {
	SecretType string
	Count      int64
}

// Stats aggregates the whole table. Groups only contain values that exist.
type Stats struct {
	TotalEvents  int64
	BySecretType []SecretTypeCount
	ByProject    []ProjectCount
}
