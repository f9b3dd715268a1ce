package repository

// SyncSummary reports the outcome of a provider re-scan.
type SyncSummary struct {
	message string
	synced  int
}

// NewSyncSummary creates a SyncSummary.
func NewSyncSummary(message string, synced int) SyncSummary {
	return SyncSummary{message: message, synced: synced}
}

// Message returns the backend's human-readable summary.
func (s SyncSummary) Message() string { return s.message }

// Synced returns the number of repositories touched by the scan.
func (s SyncSummary) Synced() int { return s.synced }
