package models

import "time"

const (
	JobStatusPending    = "pending"
	JobStatusProcessing = "processing"
	JobStatusCompleted  = "completed"
	JobStatusFailed     = "failed"
	JobStatusCancelled  = "cancelled"
)

// Job modes. Standard jobs render from listing photos; document jobs render
// from the pages of an uploaded appraisal PDF.
const (
	JobModeStandard = "standard"
	JobModeDocument = "document"
)

// IsTerminal reports whether a job status permits no further transitions.
func IsTerminal(status string) bool {
	switch status {
	case JobStatusCompleted, JobStatusFailed, JobStatusCancelled:
		return true
	default:
		return false
	}
}

// JobParams are the immutable inputs captured at job creation.
type JobParams struct {
	Mode           string // standard | document
	CaseNumber     string
	SourceMode     string // listing source override: mock | file | postgres
	MockMode       bool   // force template script + silent audio
	OutputFilename string
	DocumentPath   string // document mode: saved upload
	PageCount      int    // document mode: validated page count
}

// Job tracks one video generation run. The API returns a job_id on
// POST /api/v1/jobs; the client polls GET /api/v1/jobs/{job_id} until
// status is terminal. Progress is monotonically non-decreasing until then.
type Job struct {
	ID          string    `json:"job_id"`
	Status      string    `json:"status"`
	Progress    int       `json:"progress"`
	CurrentStep *string   `json:"current_step"`
	VideoURL    *string   `json:"video_url"`
	Error       *string   `json:"error"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`

	Params    JobParams `json:"-"`
	VideoPath string    `json:"-"`
}
