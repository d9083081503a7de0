package domain

import "time"

// IngestStats holds statistics about one ingestion tick.
type IngestStats struct {
	Fetched      int
	New          int
	Duplicates   int
	SourceErrors int
	StoreErrors  int
	Published    int
	Duration     time.Duration
}
