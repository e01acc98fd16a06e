package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/greg-kim/auctionreel/internal/jobstore"
	"github.com/greg-kim/auctionreel/internal/script"
	"github.com/greg-kim/auctionreel/internal/speech"
	"github.com/greg-kim/auctionreel/pkg/models"
)

// Pipeline stages in execution order, with their share of the progress bar.
const (
	stepExtract  = "extracting-sources"
	stepScript   = "generating-script"
	stepAudio    = "synthesizing-audio"
	stepVideo    = "assembling-video"
	stepFinalize = "finalizing"
)

// Cumulative progress at the start of each stage. The weights are
// 10/25/35/25/5, so e.g. audio synthesis covers 35..70.
var stageStart = map[string]int{
	stepExtract:  0,
	stepScript:   10,
	stepAudio:    35,
	stepVideo:    70,
	stepFinalize: 95,
}

var stageWeight = map[string]int{
	stepExtract:  10,
	stepScript:   25,
	stepAudio:    35,
	stepVideo:    25,
	stepFinalize: 5,
}

// synthesisConcurrency bounds parallel TTS calls within one job.
const synthesisConcurrency = 2

// runJob drives one job through all stages. Any panic or error marks the
// job failed with its progress frozen; a cancelled context marks it
// cancelled instead.
func (s *Service) runJob(baseCtx context.Context, jobID string) {
	job, err := s.store.Get(jobID)
	if err != nil {
		// Deleted while still queued.
		return
	}

	ctx, cancel := context.WithCancel(baseCtx)
	defer cancel()
	s.registerCancel(jobID, cancel)
	defer s.unregisterCancel(jobID)

	defer func() {
		if r := recover(); r != nil {
			s.logger.Error("job panicked", "job_id", jobID, "panic", r)
			s.failJob(jobID, "internal error")
		}
	}()

	tempDir, err := os.MkdirTemp(s.cfg.Paths.TempDir, "job-"+jobID+"-")
	if err != nil {
		s.failJob(jobID, fmt.Sprintf("create temp dir: %v", err))
		return
	}
	defer os.RemoveAll(tempDir)

	s.updateJob(jobID, func(j *models.Job) {
		j.Status = models.JobStatusProcessing
	})
	s.mirrorStatus(jobID, models.JobStatusProcessing)

	start := time.Now()
	if err := s.execute(ctx, job, tempDir); err != nil {
		if ctx.Err() != nil {
			// Deletion cancelled the context; the record is usually gone
			// already, so this update is best-effort.
			s.logger.Info("job cancelled", "job_id", jobID)
			s.updateJob(jobID, func(j *models.Job) {
				j.Status = models.JobStatusCancelled
			})
			s.mirrorStatus(jobID, models.JobStatusCancelled)
			return
		}
		s.logger.Error("job failed", "job_id", jobID, "error", err, "elapsed", time.Since(start))
		s.failJob(jobID, err.Error())
		return
	}

	s.mirrorStatus(jobID, models.JobStatusCompleted)
	s.logger.Info("job completed", "job_id", jobID, "elapsed", time.Since(start))
}

func (s *Service) execute(ctx context.Context, job *models.Job, tempDir string) error {
	var scenes []models.Scene
	var err error

	switch job.Params.Mode {
	case models.JobModeDocument:
		scenes, err = s.documentScenes(ctx, job, tempDir)
	default:
		scenes, err = s.listingScenes(ctx, job, tempDir)
	}
	if err != nil {
		return err
	}

	if err := s.synthesizeAudio(ctx, job, scenes, tempDir); err != nil {
		return err
	}
	return s.assembleVideo(ctx, job, scenes, tempDir)
}

// listingScenes runs the extract and script stages for a standard job:
// resolve the listing, fetch its photos and compose the section narration.
func (s *Service) listingScenes(ctx context.Context, job *models.Job, tempDir string) ([]models.Scene, error) {
	s.setStep(job.ID, stepExtract, 0)

	src, err := s.catalog.Select(job.Params.SourceMode)
	if err != nil {
		return nil, err
	}
	l, err := src.GetListing(ctx, job.Params.CaseNumber)
	if err != nil {
		return nil, fmt.Errorf("resolve listing: %w", err)
	}
	s.setStep(job.ID, stepExtract, 50)

	imageDir := filepath.Join(tempDir, "images")
	if err := os.MkdirAll(imageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create image dir: %w", err)
	}
	images, err := src.FetchImages(ctx, l, imageDir)
	if err != nil {
		return nil, fmt.Errorf("fetch images: %w", err)
	}
	s.setStep(job.ID, stepScript, 0)

	gen := s.newGenerator(job.Params.MockMode)
	var sections []script.Section
	err = withRetry(ctx, func() error {
		var serr error
		sections, serr = gen.ListingScript(ctx, l)
		return serr
	})
	if err != nil {
		return nil, fmt.Errorf("generate script: %w", err)
	}
	s.setStep(job.ID, stepScript, 100)

	// One scene per section, one photo per scene in order; the last photo
	// repeats when the listing has fewer photos than sections.
	scenes := make([]models.Scene, len(sections))
	for i, sec := range sections {
		imgIdx := i
		if imgIdx >= len(images) {
			imgIdx = len(images) - 1
		}
		scenes[i] = models.Scene{
			Index:     i,
			Section:   sec.Name,
			ImagePath: images[imgIdx],
			Narration: models.NarrationSegment{Text: sec.Text},
		}
	}
	return scenes, nil
}

// documentScenes runs the extract and script stages for a document job:
// rasterize the PDF pages and narrate each one.
func (s *Service) documentScenes(ctx context.Context, job *models.Job, tempDir string) ([]models.Scene, error) {
	s.setStep(job.ID, stepExtract, 0)

	pageDir := filepath.Join(tempDir, "pages")
	if err := os.MkdirAll(pageDir, 0o755); err != nil {
		return nil, fmt.Errorf("create page dir: %w", err)
	}
	pages, err := s.raster.Rasterize(ctx, job.Params.DocumentPath, pageDir)
	if err != nil {
		return nil, fmt.Errorf("rasterize document: %w", err)
	}
	s.setStep(job.ID, stepScript, 0)

	gen := s.newGenerator(job.Params.MockMode)
	scenes := make([]models.Scene, len(pages))
	for i, pagePath := range pages {
		var text string
		err := withRetry(ctx, func() error {
			var serr error
			text, serr = gen.PageScript(ctx, pagePath, i+1, len(pages))
			return serr
		})
		if err != nil {
			return nil, fmt.Errorf("narrate page %d: %w", i+1, err)
		}
		scenes[i] = models.Scene{
			Index:     i,
			ImagePath: pagePath,
			Narration: models.NarrationSegment{Text: text},
		}
		s.setStep(job.ID, stepScript, (i+1)*100/len(pages))
	}
	return scenes, nil
}

// synthesizeAudio voices every scene. Scenes synthesize concurrently with a
// small bound; progress advances by completed scene count.
func (s *Service) synthesizeAudio(ctx context.Context, job *models.Job, scenes []models.Scene, tempDir string) error {
	s.setStep(job.ID, stepAudio, 0)

	audioDir := filepath.Join(tempDir, "audio")
	if err := os.MkdirAll(audioDir, 0o755); err != nil {
		return fmt.Errorf("create audio dir: %w", err)
	}

	synth := s.newSynthesizer(job.Params.MockMode)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(synthesisConcurrency)

	done := make(chan int, len(scenes))
	for i := range scenes {
		g.Go(func() error {
			scene := &scenes[i]
			basePath := filepath.Join(audioDir, fmt.Sprintf("scene-%03d", i))
			var path string
			var d time.Duration
			err := withRetry(gctx, func() error {
				var serr error
				path, d, serr = synth.Synthesize(gctx, scene.Narration.Text, basePath)
				return serr
			})
			if err != nil {
				return fmt.Errorf("synthesize scene %d: %w", i, err)
			}
			scene.Narration.AudioPath = path
			scene.Narration.Duration = d
			scene.Duration = d
			done <- i
			return nil
		})
	}

	// Drain completions for progress while the group runs.
	progressDone := make(chan struct{})
	go func() {
		defer close(progressDone)
		completed := 0
		for range done {
			completed++
			s.setStep(job.ID, stepAudio, completed*100/len(scenes))
			if completed == len(scenes) {
				return
			}
		}
	}()

	err := g.Wait()
	close(done)
	<-progressDone
	return err
}

// assembleVideo runs the render and finalize stages under the configured
// render timeout.
func (s *Service) assembleVideo(ctx context.Context, job *models.Job, scenes []models.Scene, tempDir string) error {
	s.setStep(job.ID, stepVideo, 0)

	if err := os.MkdirAll(s.cfg.Paths.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	filename := outputFilename(job)
	outPath := filepath.Join(s.cfg.Paths.OutputDir, filename)

	renderCtx, cancel := context.WithTimeout(ctx, s.cfg.Pipeline.RenderTimeout)
	defer cancel()
	// Clip renders earn most of the stage; the concat pass takes the rest.
	onClip := func(done, total int) {
		s.setStep(job.ID, stepVideo, done*100/(total+1))
	}
	if err := s.renderer.Assemble(renderCtx, scenes, s.cfg.Video.Crossfade, tempDir, outPath, onClip); err != nil {
		// An aborted encode must not leave a partial file in the output dir.
		os.Remove(outPath)
		if renderCtx.Err() != nil && ctx.Err() == nil {
			return fmt.Errorf("render timed out after %s", s.cfg.Pipeline.RenderTimeout)
		}
		return err
	}

	s.setStep(job.ID, stepFinalize, 0)
	url := videoURL(filename)
	return s.updateJob(job.ID, func(j *models.Job) {
		j.Status = models.JobStatusCompleted
		j.Progress = 100
		j.CurrentStep = nil
		j.VideoURL = &url
		j.VideoPath = outPath
	})
}

// setStep records the current step and the progress implied by pct percent
// of that stage being done.
func (s *Service) setStep(jobID, step string, pct int) {
	progress := stageStart[step] + stageWeight[step]*pct/100
	s.updateJob(jobID, func(j *models.Job) {
		j.CurrentStep = &step
		j.Progress = progress
	})
}

func (s *Service) failJob(jobID, message string) {
	s.updateJob(jobID, func(j *models.Job) {
		j.Status = models.JobStatusFailed
		j.Error = &message
	})
	s.mirrorStatus(jobID, models.JobStatusFailed)
}

// updateJob applies a mutation, tolerating a record deleted mid-run.
func (s *Service) updateJob(jobID string, mutate func(*models.Job)) error {
	err := s.store.Update(jobID, mutate)
	if err != nil && !errors.Is(err, jobstore.ErrNotFound) {
		return err
	}
	return nil
}

// withRetry runs fn and retries exactly once when the failure is a
// transient external timeout. All other failures are final.
func withRetry(ctx context.Context, fn func() error) error {
	err := fn()
	if err == nil || !isTransient(err) || ctx.Err() != nil {
		return err
	}
	return fn()
}

func isTransient(err error) bool {
	return errors.Is(err, script.ErrGenerationTimeout) ||
		errors.Is(err, speech.ErrSynthesisTimeout)
}
