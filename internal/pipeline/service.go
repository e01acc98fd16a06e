// Package pipeline orchestrates video generation jobs: it owns the worker
// pool, drives each job through its stages and keeps the job registry and
// status mirror in sync.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/greg-kim/auctionreel/internal/cache"
	"github.com/greg-kim/auctionreel/internal/config"
	"github.com/greg-kim/auctionreel/internal/document"
	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/internal/listing"
	"github.com/greg-kim/auctionreel/internal/render"
	"github.com/greg-kim/auctionreel/internal/script"
	"github.com/greg-kim/auctionreel/internal/speech"
	"github.com/greg-kim/auctionreel/pkg/models"
)

// ErrQueueFull means the job queue is at capacity; the request fails
// synchronously and no job record is kept.
var ErrQueueFull = errors.New("job queue is full")

// statusTTL bounds how long the cache mirrors a job status entry.
const statusTTL = time.Hour

// Renderer assembles scenes into the final video file. onClip reports
// per-clip completion for progress accounting and may be nil.
type Renderer interface {
	Assemble(ctx context.Context, scenes []models.Scene, crossfade time.Duration, tempDir, outPath string, onClip func(done, total int)) error
}

// Service coordinates job creation, execution and deletion. Construct with
// NewService and call Start before accepting requests.
type Service struct {
	cfg      *config.Config
	store    jobstore.Store
	cache    cache.Cache
	catalog  *listing.Catalog
	raster   *document.Rasterizer
	renderer Renderer
	logger   *slog.Logger

	// Backend factories, overridable in tests.
	newGenerator   func(mockMode bool) script.Generator
	newSynthesizer func(mockMode bool) speech.Synthesizer

	jobCh chan string
	wg    sync.WaitGroup

	mu      sync.Mutex
	cancels map[string]context.CancelFunc
}

func NewService(cfg *config.Config, store jobstore.Store, c cache.Cache, catalog *listing.Catalog, logger *slog.Logger) *Service {
	return &Service{
		cfg:      cfg,
		store:    store,
		cache:    c,
		catalog:  catalog,
		raster:   document.NewRasterizer(cfg.Pipeline.PdfinfoPath, cfg.Pipeline.PdftoppmPath, cfg.Pipeline.MaxUploadBytes),
		renderer: render.NewAssembler(cfg.Video),
		logger:   logger,
		newGenerator: func(mockMode bool) script.Generator {
			return script.NewGenerator(cfg.Script, cfg.Listing.ChannelName, mockMode || cfg.ScriptMockOnly())
		},
		newSynthesizer: func(mockMode bool) speech.Synthesizer {
			return speech.NewSynthesizer(cfg.Speech, cfg.Video.FFprobePath, mockMode || cfg.SpeechMockOnly())
		},
		jobCh:   make(chan string, cfg.Pipeline.QueueSize),
		cancels: make(map[string]context.CancelFunc),
	}
}

// Start launches the worker pool. Workers exit when ctx is cancelled; Wait
// blocks until in-flight jobs have drained.
func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.cfg.Pipeline.Workers; i++ {
		s.wg.Add(1)
		go s.worker(ctx, i)
	}
	s.logger.Info("pipeline workers started", "workers", s.cfg.Pipeline.Workers, "queue_size", s.cfg.Pipeline.QueueSize)
}

// Wait blocks until all workers have exited.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context, id int) {
	defer s.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case jobID := <-s.jobCh:
			s.logger.Debug("worker picked up job", "worker", id, "job_id", jobID)
			s.runJob(ctx, jobID)
		}
	}
}

// CreateJob validates a standard-mode request and enqueues the job. The
// listing lookup happens synchronously: an unknown case number fails the
// request before any job record exists.
func (s *Service) CreateJob(ctx context.Context, caseNumber, sourceMode, outputFilename string, mockMode bool) (*models.Job, error) {
	src, err := s.catalog.Select(sourceMode)
	if err != nil {
		return nil, err
	}
	if _, err := src.GetListing(ctx, caseNumber); err != nil {
		return nil, err
	}

	return s.enqueue(models.JobParams{
		Mode:           models.JobModeStandard,
		CaseNumber:     caseNumber,
		SourceMode:     sourceMode,
		MockMode:       mockMode,
		OutputFilename: outputFilename,
	})
}

// CreateDocumentJob validates an uploaded appraisal PDF and enqueues a
// document-mode job. Validation failures surface synchronously and the
// saved upload is removed.
func (s *Service) CreateDocumentJob(ctx context.Context, documentPath, outputFilename string, mockMode bool) (*models.Job, error) {
	pages, err := s.raster.Validate(ctx, documentPath)
	if err != nil {
		os.Remove(documentPath)
		return nil, err
	}

	job, err := s.enqueue(models.JobParams{
		Mode:           models.JobModeDocument,
		MockMode:       mockMode,
		OutputFilename: outputFilename,
		DocumentPath:   documentPath,
		PageCount:      pages,
	})
	if err != nil {
		os.Remove(documentPath)
		return nil, err
	}
	return job, nil
}

func (s *Service) enqueue(params models.JobParams) (*models.Job, error) {
	job := s.store.Create(params)
	select {
	case s.jobCh <- job.ID:
	default:
		// Roll the record back so a full queue leaves no trace.
		_ = s.store.Delete(job.ID)
		return nil, ErrQueueFull
	}
	s.mirrorStatus(job.ID, job.Status)
	s.logger.Info("job enqueued", "job_id", job.ID, "mode", params.Mode, "case_number", params.CaseNumber)
	return job, nil
}

// GetJob returns a snapshot of the job, or jobstore.ErrNotFound.
func (s *Service) GetJob(id string) (*models.Job, error) {
	return s.store.Get(id)
}

// ListJobs returns snapshots of all jobs in creation order.
func (s *Service) ListJobs() []*models.Job {
	return s.store.List()
}

// DeleteJob cancels the job if it is in flight, then removes its record and
// released artifacts. In-flight work observes the cancelled context and
// stops; its temp files are cleaned by the runner's own deferred cleanup.
func (s *Service) DeleteJob(ctx context.Context, id string) error {
	job, err := s.store.Get(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	cancel, active := s.cancels[id]
	delete(s.cancels, id)
	s.mu.Unlock()
	if active {
		cancel()
	}

	if err := s.store.Delete(id); err != nil {
		return err
	}
	if job.VideoPath != "" {
		os.Remove(job.VideoPath)
	}
	// The snapshot is taken before the cancel fires, so a job completing
	// in between would leak its video. The output name is deterministic;
	// remove that path too.
	os.Remove(filepath.Join(s.cfg.Paths.OutputDir, outputFilename(job)))
	if job.Params.DocumentPath != "" {
		os.Remove(job.Params.DocumentPath)
	}
	if err := s.cache.DeleteJobStatus(ctx, id); err != nil {
		s.logger.Warn("failed to delete cached job status", "job_id", id, "error", err)
	}
	s.logger.Info("job deleted", "job_id", id, "was_active", active)
	return nil
}

func (s *Service) registerCancel(id string, cancel context.CancelFunc) {
	s.mu.Lock()
	s.cancels[id] = cancel
	s.mu.Unlock()
}

func (s *Service) unregisterCancel(id string) {
	s.mu.Lock()
	delete(s.cancels, id)
	s.mu.Unlock()
}

// mirrorStatus best-effort copies a job status into the cache for external
// pollers. Mirror failures never affect the job itself.
func (s *Service) mirrorStatus(jobID, status string) {
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.cache.SetJobStatus(ctx, jobID, status, statusTTL); err != nil {
		s.logger.Warn("failed to mirror job status", "job_id", jobID, "error", err)
	}
}

// outputFilename picks the final video file name for a job: an explicit
// name when the request gave one, otherwise <case>_<timestamp>.mp4.
func outputFilename(job *models.Job) string {
	if job.Params.OutputFilename != "" {
		return job.Params.OutputFilename
	}
	stamp := job.CreatedAt.Format("20060102_150405")
	if job.Params.Mode == models.JobModeDocument {
		return fmt.Sprintf("appraisal_%s_%s.mp4", stamp, job.ID)
	}
	return fmt.Sprintf("%s_%s_%s.mp4", listing.SafeCaseNumber(job.Params.CaseNumber), stamp, job.ID)
}

// videoURL is the public download path served by the API.
func videoURL(filename string) string {
	return "/api/v1/videos/" + filepath.Base(filename)
}
