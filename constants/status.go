package constants

// JobStatus is the canonical status for rows in extractions.
type JobStatus string

// Stable values (store these exact strings in DB).
const (
	JobStatusQueued    JobStatus = "QUEUED"
	JobStatusRunning   JobStatus = "RUNNING"
	JobStatusOCROK     JobStatus = "OCR_OK"    // scanned pages recognized
	JobStatusExtracted JobStatus = "EXTRACTED" // line items normalized
	JobStatusFailed    JobStatus = "FAILED"    // terminal failure
)
