package jobstore

import (
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/greg-kim/auctionreel/pkg/models"
)

// MemoryStore is the in-process Store implementation. A durable backing
// store can be substituted without touching the pipeline.
type MemoryStore struct {
	mu    sync.RWMutex
	jobs  map[string]*models.Job
	order []string
}

// NewMemoryStore creates an empty in-memory job registry.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{jobs: make(map[string]*models.Job)}
}

func (s *MemoryStore) Create(params models.JobParams) *models.Job {
	now := time.Now().UTC()
	job := &models.Job{
		ID:        newJobID(),
		Status:    models.JobStatusPending,
		Progress:  0,
		CreatedAt: now,
		UpdatedAt: now,
		Params:    params,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[job.ID] = job
	s.order = append(s.order, job.ID)
	return snapshot(job)
}

func (s *MemoryStore) Get(id string) (*models.Job, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	job, ok := s.jobs[id]
	if !ok {
		return nil, ErrNotFound
	}
	return snapshot(job), nil
}

func (s *MemoryStore) List() []*models.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*models.Job, 0, len(s.order))
	for _, id := range s.order {
		if job, ok := s.jobs[id]; ok {
			out = append(out, snapshot(job))
		}
	}
	return out
}

func (s *MemoryStore) Update(id string, mutate func(*models.Job)) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	job, ok := s.jobs[id]
	if !ok {
		return ErrNotFound
	}
	if models.IsTerminal(job.Status) {
		return nil
	}

	prevProgress := job.Progress
	mutate(job)

	// Progress is monotonically non-decreasing until terminal.
	if job.Progress < prevProgress {
		job.Progress = prevProgress
	}
	if job.Progress > 100 {
		job.Progress = 100
	}
	job.UpdatedAt = time.Now().UTC()
	return nil
}

func (s *MemoryStore) Delete(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[id]; !ok {
		return ErrNotFound
	}
	delete(s.jobs, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
	return nil
}

// snapshot copies the record so callers never share memory with the live job.
func snapshot(job *models.Job) *models.Job {
	cp := *job
	if job.CurrentStep != nil {
		v := *job.CurrentStep
		cp.CurrentStep = &v
	}
	if job.VideoURL != nil {
		v := *job.VideoURL
		cp.VideoURL = &v
	}
	if job.Error != nil {
		v := *job.Error
		cp.Error = &v
	}
	return &cp
}

// newJobID returns a short opaque id, the first uuid group.
func newJobID() string {
	return strings.SplitN(uuid.New().String(), "-", 2)[0]
}
