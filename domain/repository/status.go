package repository

// IndexStatus represents the backend-reported indexing lifecycle of a repository.
// Transitions are owned by the backend; clients only observe them.
type IndexStatus string

// IndexStatus values.
const (
	StatusDiscovered IndexStatus = "discovered"
	StatusPending    IndexStatus = "pending"
	StatusIndexing   IndexStatus = "indexing"
	StatusCompleted  IndexStatus = "completed"
	StatusFailed     IndexStatus = "failed"
)

// ParseIndexStatus parses a wire status string. Unknown values map to
// StatusDiscovered so a newer backend cannot wedge an older client.
func ParseIndexStatus(s string) IndexStatus {
	switch IndexStatus(s) {
	case StatusDiscovered, StatusPending, StatusIndexing, StatusCompleted, StatusFailed:
		return IndexStatus(s)
	default:
		return StatusDiscovered
	}
}

// String returns the wire representation.
func (s IndexStatus) String() string { return string(s) }

// IsActive returns true while the backend is working (or about to work)
// on the repository. Status polling continues only while this holds.
func (s IndexStatus) IsActive() bool {
	return s == StatusIndexing || s == StatusPending
}

// IsTerminal returns true once the backend has finished, successfully or not.
func (s IndexStatus) IsTerminal() bool {
	return s == StatusCompleted || s == StatusFailed
}

// StatusReport is the polled status payload, optionally carrying progress.
type StatusReport struct {
	status   IndexStatus
	progress float64
	hasProg  bool
}

// NewStatusReport creates a StatusReport without progress information.
func NewStatusReport(status IndexStatus) StatusReport {
	return StatusReport{status: status}
}

// NewStatusReportWithProgress creates a StatusReport carrying a progress fraction.
func NewStatusReportWithProgress(status IndexStatus, progress float64) StatusReport {
	return StatusReport{status: status, progress: progress, hasProg: true}
}

// Status returns the reported indexing status.
func (r StatusReport) Status() IndexStatus { return r.status }

// Progress returns the progress fraction and whether the backend reported one.
func (r StatusReport) Progress() (float64, bool) { return r.progress, r.hasProg }
