package jobstore_test

import (
	"sync"
	"testing"

	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newStandardParams(caseNumber string) models.JobParams {
	return models.JobParams{
		Mode:       models.JobModeStandard,
		CaseNumber: caseNumber,
		SourceMode: "mock",
		MockMode:   true,
	}
}

func TestCreate_StartsPending(t *testing.T) {
	s := jobstore.NewMemoryStore()

	job := s.Create(newStandardParams("2024타경12345"))

	assert.Len(t, job.ID, 8)
	assert.Equal(t, models.JobStatusPending, job.Status)
	assert.Equal(t, 0, job.Progress)
	assert.Nil(t, job.Error)
	assert.False(t, job.CreatedAt.IsZero())
	assert.Equal(t, job.CreatedAt, job.UpdatedAt)
}

func TestGet_NotFound(t *testing.T) {
	s := jobstore.NewMemoryStore()

	_, err := s.Get("deadbeef")
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}

func TestGet_ReturnsSnapshot(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	got, err := s.Get(job.ID)
	require.NoError(t, err)

	// Mutating the snapshot must not leak into the store.
	got.Status = models.JobStatusFailed
	got.Progress = 99

	again, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusPending, again.Status)
	assert.Equal(t, 0, again.Progress)
}

func TestList_CreationOrder(t *testing.T) {
	s := jobstore.NewMemoryStore()
	first := s.Create(newStandardParams("2024타경00001"))
	second := s.Create(newStandardParams("2024타경00002"))
	third := s.Create(newStandardParams("2024타경00003"))

	jobs := s.List()
	require.Len(t, jobs, 3)
	assert.Equal(t, []string{first.ID, second.ID, third.ID},
		[]string{jobs[0].ID, jobs[1].ID, jobs[2].ID})
}

func TestUpdate_ProgressNeverDecreases(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	require.NoError(t, s.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
		j.Progress = 40
	}))
	require.NoError(t, s.Update(job.ID, func(j *models.Job) {
		j.Progress = 25
	}))

	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 40, got.Progress)
}

func TestUpdate_ClampsProgressTo100(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	require.NoError(t, s.Update(job.ID, func(j *models.Job) {
		j.Progress = 180
	}))

	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 100, got.Progress)
}

func TestUpdate_TerminalJobsAreImmutable(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	msg := "render failed"
	require.NoError(t, s.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusFailed
		j.Progress = 60
		j.Error = &msg
	}))

	// A follow-up update must be discarded.
	require.NoError(t, s.Update(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.Progress = 100
		j.Error = nil
	}))

	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	assert.Equal(t, 60, got.Progress)
	require.NotNil(t, got.Error)
	assert.Equal(t, "render failed", *got.Error)
}

func TestDelete(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	require.NoError(t, s.Delete(job.ID))

	_, err := s.Get(job.ID)
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
	assert.Empty(t, s.List())

	assert.ErrorIs(t, s.Delete(job.ID), jobstore.ErrNotFound)
}

func TestUpdate_AfterDelete(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))
	require.NoError(t, s.Delete(job.ID))

	err := s.Update(job.ID, func(j *models.Job) { j.Progress = 50 })
	assert.ErrorIs(t, err, jobstore.ErrNotFound)
}

func TestConcurrentAccess(t *testing.T) {
	s := jobstore.NewMemoryStore()
	job := s.Create(newStandardParams("2024타경12345"))

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func(p int) {
			defer wg.Done()
			_ = s.Update(job.ID, func(j *models.Job) {
				j.Status = models.JobStatusProcessing
				j.Progress = p
			})
		}(i)
		go func() {
			defer wg.Done()
			got, err := s.Get(job.ID)
			if err == nil {
				assert.GreaterOrEqual(t, got.Progress, 0)
				assert.LessOrEqual(t, got.Progress, 100)
			}
		}()
	}
	wg.Wait()

	// Readers polling concurrently must have seen monotonic state only;
	// final progress is the max of all writes.
	got, err := s.Get(job.ID)
	require.NoError(t, err)
	assert.Equal(t, 49, got.Progress)
}
