// Package render assembles scenes into a single narrated video with ffmpeg.
package render

import (
	"errors"
	"time"

	"github.com/greg-kim/auctionreel/pkg/models"
)

// Sentinel errors for video assembly failures.
var (
	ErrNoScenes     = errors.New("no scenes to render")
	ErrRenderFailed = errors.New("render failed")
	ErrEmptyOutput  = errors.New("render produced empty output")
)

// Zoom directions for the slow pan effect. Scenes alternate by index so
// consecutive stills do not repeat the same motion.
type ZoomDirection int

const (
	ZoomIn ZoomDirection = iota
	ZoomOut
)

// Clip is the render recipe for one scene.
type Clip struct {
	ImagePath string
	AudioPath string // empty renders silence
	Duration  time.Duration
	Zoom      ZoomDirection
}

// Plan is the full assembly recipe: per-scene clips plus the crossfade
// offsets of the final concat.
type Plan struct {
	Clips     []Clip
	Crossfade time.Duration
	// Offsets[i] is where clip i+1 starts fading in on the combined
	// timeline. Offsets is empty for a single-clip plan.
	Offsets []time.Duration
	// Total is the combined duration: scene durations minus one
	// crossfade per transition.
	Total time.Duration
}

// BuildPlan lays out scenes on the output timeline. With n scenes of
// durations d and crossfade c, clip i+1 starts at sum(d[0..i]) - (i+1)*c
// and the total runs sum(d) - (n-1)*c.
func BuildPlan(scenes []models.Scene, crossfade time.Duration) (*Plan, error) {
	if len(scenes) == 0 {
		return nil, ErrNoScenes
	}
	if len(scenes) == 1 {
		crossfade = 0
	}

	plan := &Plan{
		Clips:     make([]Clip, 0, len(scenes)),
		Crossfade: crossfade,
	}

	var elapsed time.Duration
	for i, s := range scenes {
		zoom := ZoomIn
		if i%2 == 1 {
			zoom = ZoomOut
		}
		plan.Clips = append(plan.Clips, Clip{
			ImagePath: s.ImagePath,
			AudioPath: s.Narration.AudioPath,
			Duration:  s.Duration,
			Zoom:      zoom,
		})

		elapsed += s.Duration
		if i < len(scenes)-1 {
			plan.Offsets = append(plan.Offsets, elapsed-time.Duration(i+1)*crossfade)
		}
	}
	plan.Total = elapsed - time.Duration(len(scenes)-1)*crossfade
	return plan, nil
}
