// Package jobstore owns the registry of video generation jobs. It is the
// only component allowed to mutate job records; the pipeline drives updates
// and polling callers read consistent snapshots.
package jobstore

import (
	"errors"

	"github.com/greg-kim/auctionreel/pkg/models"
)

var ErrNotFound = errors.New("job not found")

// Store is the job registry interface. Implementations must be safe for
// concurrent use: a single writer per job, readers never observe a torn
// record, and progress never decreases before a terminal status.
type Store interface {
	// Create registers a new pending job and returns a snapshot of it.
	Create(params models.JobParams) *models.Job
	// Get returns a snapshot of the job, or ErrNotFound.
	Get(id string) (*models.Job, error)
	// List returns snapshots of all jobs in creation order.
	List() []*models.Job
	// Update applies mutate to the live record. Mutations of terminal jobs
	// and progress regressions are discarded. Returns ErrNotFound if the job
	// was deleted.
	Update(id string, mutate func(*models.Job)) error
	// Delete removes the job record. The caller is responsible for
	// cancelling in-flight work and releasing artifacts first.
	Delete(id string) error
}
