package render

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/greg-kim/auctionreel/internal/config"
	"github.com/greg-kim/auctionreel/pkg/models"
)

const (
	zoomStep      = 0.0015
	zoomMax       = 1.3
	videoCodec    = "libx264"
	videoPreset   = "medium"
	videoCRF      = "23"
	audioCodec    = "aac"
	pixelFormat   = "yuv420p"
	silentLayout  = "mono"
	silentRate    = 24000
	stderrTailMax = 400
)

// Assembler renders scene clips and concatenates them with crossfades.
// All ffmpeg invocations honor the passed context, so cancelling a job
// kills any in-flight subprocess.
type Assembler struct {
	ffmpegPath string
	width      int
	height     int
	fps        int
	bitrate    string
}

func NewAssembler(cfg config.VideoConfig) *Assembler {
	return &Assembler{
		ffmpegPath: cfg.FFmpegPath,
		width:      cfg.Width,
		height:     cfg.Height,
		fps:        cfg.FPS,
		bitrate:    cfg.AudioBitrate,
	}
}

// Assemble renders each scene into tempDir and concatenates the clips into
// outPath. onClip, when non-nil, is called after each rendered clip with
// the completed and total counts. Intermediate clips are removed on both
// success and failure; the caller owns tempDir itself.
func (a *Assembler) Assemble(ctx context.Context, scenes []models.Scene, crossfade time.Duration, tempDir, outPath string, onClip func(done, total int)) error {
	plan, err := BuildPlan(scenes, crossfade)
	if err != nil {
		return err
	}

	clipPaths := make([]string, len(plan.Clips))
	defer func() {
		for _, p := range clipPaths {
			if p != "" {
				os.Remove(p)
			}
		}
	}()

	for i, clip := range plan.Clips {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		clipPath := filepath.Join(tempDir, fmt.Sprintf("clip-%03d.mp4", i))
		if err := a.renderClip(ctx, clip, clipPath); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
		clipPaths[i] = clipPath
		if onClip != nil {
			onClip(i+1, len(plan.Clips))
		}
	}

	if len(clipPaths) == 1 {
		return a.finalize(clipPaths[0], outPath)
	}
	if err := a.concat(ctx, clipPaths, plan, outPath); err != nil {
		return err
	}
	return checkOutput(outPath)
}

// renderClip turns one still image plus narration into an encoded clip
// with a slow zoom.
func (a *Assembler) renderClip(ctx context.Context, clip Clip, outPath string) error {
	args := a.clipArgs(clip, outPath)
	return a.runFFmpeg(ctx, args)
}

func (a *Assembler) clipArgs(clip Clip, outPath string) []string {
	args := []string{"-y", "-loop", "1", "-t", ffSeconds(clip.Duration), "-i", clip.ImagePath}
	if clip.AudioPath != "" {
		args = append(args, "-i", clip.AudioPath)
	} else {
		args = append(args, "-f", "lavfi",
			"-i", fmt.Sprintf("anullsrc=channel_layout=%s:sample_rate=%d", silentLayout, silentRate))
	}

	filter := fmt.Sprintf("[0:v]scale=%d:%d:force_original_aspect_ratio=increase,crop=%d:%d,%s,fps=%d,format=%s[v];[1:a]apad[a]",
		a.width, a.height, a.width, a.height, a.zoompan(clip), a.fps, pixelFormat)

	return append(args,
		"-filter_complex", filter,
		"-map", "[v]", "-map", "[a]",
		"-t", ffSeconds(clip.Duration),
		"-c:v", videoCodec, "-preset", videoPreset, "-crf", videoCRF,
		"-c:a", audioCodec, "-b:a", a.bitrate,
		outPath,
	)
}

// zoompan builds the pan filter. Even scenes creep in toward the max
// zoom; odd scenes start there and creep back out.
func (a *Assembler) zoompan(clip Clip) string {
	frames := int(clip.Duration.Seconds() * float64(a.fps))
	expr := fmt.Sprintf("min(zoom+%g,%g)", zoomStep, zoomMax)
	if clip.Zoom == ZoomOut {
		expr = fmt.Sprintf("if(lte(on,1),%g,max(zoom-%g,1.0))", zoomMax, zoomStep)
	}
	return fmt.Sprintf("zoompan=z='%s':x='iw/2-(iw/zoom/2)':y='ih/2-(ih/zoom/2)':d=%d:s=%dx%d:fps=%d",
		expr, frames, a.width, a.height, a.fps)
}

// concat joins the clips with video xfade and audio acrossfade at the
// plan's offsets.
func (a *Assembler) concat(ctx context.Context, clipPaths []string, plan *Plan, outPath string) error {
	args := []string{"-y"}
	for _, p := range clipPaths {
		args = append(args, "-i", p)
	}
	filter, vLabel, aLabel := concatFilter(len(clipPaths), plan)
	args = append(args,
		"-filter_complex", filter,
		"-map", vLabel, "-map", aLabel,
		"-c:v", videoCodec, "-preset", videoPreset, "-crf", videoCRF,
		"-c:a", audioCodec, "-b:a", a.bitrate,
		"-pix_fmt", pixelFormat,
		outPath,
	)
	return a.runFFmpeg(ctx, args)
}

// concatFilter chains pairwise xfade/acrossfade filters and returns the
// filtergraph plus the final video and audio labels.
func concatFilter(n int, plan *Plan) (filter, vLabel, aLabel string) {
	cf := plan.Crossfade.Seconds()
	var b strings.Builder

	vLabel, aLabel = "[0:v]", "[0:a]"
	for i := 1; i < n; i++ {
		outV := fmt.Sprintf("[v%d]", i)
		outA := fmt.Sprintf("[a%d]", i)
		if i == n-1 {
			outV, outA = "[vout]", "[aout]"
		}
		if b.Len() > 0 {
			b.WriteString(";")
		}
		fmt.Fprintf(&b, "%s[%d:v]xfade=transition=fade:duration=%g:offset=%g%s",
			vLabel, i, cf, plan.Offsets[i-1].Seconds(), outV)
		fmt.Fprintf(&b, ";%s[%d:a]acrossfade=d=%g%s", aLabel, i, cf, outA)
		vLabel, aLabel = outV, outA
	}
	return b.String(), vLabel, aLabel
}

// finalize moves a single-scene clip into place without re-encoding.
func (a *Assembler) finalize(clipPath, outPath string) error {
	if err := os.Rename(clipPath, outPath); err != nil {
		// Rename fails across filesystems; fall back to a copy.
		data, rerr := os.ReadFile(clipPath)
		if rerr != nil {
			return fmt.Errorf("%w: %v", ErrRenderFailed, err)
		}
		if werr := os.WriteFile(outPath, data, 0o644); werr != nil {
			return fmt.Errorf("%w: %v", ErrRenderFailed, werr)
		}
	}
	return checkOutput(outPath)
}

func (a *Assembler) runFFmpeg(ctx context.Context, args []string) error {
	cmd := exec.CommandContext(ctx, a.ffmpegPath, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %s", ErrRenderFailed, stderrTail(stderr.String()))
	}
	return nil
}

func checkOutput(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrEmptyOutput, err)
	}
	if info.Size() == 0 {
		return ErrEmptyOutput
	}
	return nil
}

func stderrTail(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > stderrTailMax {
		s = s[len(s)-stderrTailMax:]
	}
	return s
}

// ffSeconds formats a duration as fractional seconds for ffmpeg args.
func ffSeconds(d time.Duration) string {
	return fmt.Sprintf("%.3f", d.Seconds())
}
