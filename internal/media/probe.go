// Package media reads metadata from uploaded narration files via ffprobe.
package media

import (
	"context"
	"encoding/json"
	"errors"
	"os/exec"
	"strconv"
	"strings"
	"time"

	apperrors "storyreel/pkg/errors"
)

const defaultProbeTimeout = 15 * time.Second

// Prober shells out to ffprobe to read audio duration. Every probe runs
// under a deadline so a corrupt upload can never stall the request.
type Prober struct {
	ffprobePath string
	timeout     time.Duration
}

func NewProber(ffprobePath string, timeout time.Duration) *Prober {
	if strings.TrimSpace(ffprobePath) == "" {
		ffprobePath = "ffprobe"
	}
	if timeout <= 0 {
		timeout = defaultProbeTimeout
	}
	return &Prober{ffprobePath: ffprobePath, timeout: timeout}
}

type probeOutput struct {
	Format struct {
		Duration string `json:"duration"`
	} `json:"format"`
}

// Duration returns the audio length in seconds.
func (p *Prober) Duration(ctx context.Context, path string) (float64, error) {
	ctx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, p.ffprobePath,
		"-v", "error",
		"-show_entries", "format=duration",
		"-print_format", "json",
		path,
	)

	output, err := cmd.Output()
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return 0, apperrors.Wrap(apperrors.CodeAudioProbeFailed, "audio metadata probe timed out", err)
		}
		detail := ""
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			detail = strings.TrimSpace(string(exitErr.Stderr))
		}
		return 0, apperrors.WrapWithDetail(apperrors.CodeAudioProbeFailed, "ffprobe failed", detail, err)
	}

	var probed probeOutput
	if err := json.Unmarshal(output, &probed); err != nil {
		return 0, apperrors.Wrap(apperrors.CodeAudioProbeFailed, "unreadable ffprobe output", err)
	}

	duration, err := strconv.ParseFloat(strings.TrimSpace(probed.Format.Duration), 64)
	if err != nil {
		return 0, apperrors.WrapWithDetail(apperrors.CodeAudioProbeFailed, "file reports no duration", probed.Format.Duration, err)
	}
	if duration <= 0 {
		return 0, apperrors.New(apperrors.CodeAudioProbeFailed, "file reports a non-positive duration")
	}
	return duration, nil
}
