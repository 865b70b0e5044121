package store

import "time"

// ReportConfigRecord is a persisted report config. Body holds the JSON
// encoding of everything but the identifying columns.
type ReportConfigRecord struct {
	ID        string
	Name      string
	Pump      string
	Body      []byte
	CreatedAt time.Time
	UpdatedAt time.Time
}
