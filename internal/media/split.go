package media

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"terabox-relay-bot/internal/ffmpeg"
	"terabox-relay-bot/internal/logger"
)

// Prober and Cutter abstract the external ffprobe/ffmpeg invocations so the
// split planner is testable without the binaries.
type Prober func(path string) (float64, error)
type Cutter func(input, output string, startSec, durationSec float64) error

type Splitter struct {
	Probe Prober
	Cut   Cutter
}

func NewSplitter() *Splitter {
	return &Splitter{Probe: ffmpeg.ProbeDuration, Cut: ffmpeg.CutSegment}
}

// SplitPlan describes how an oversized video will be cut.
type SplitPlan struct {
	Parts       int
	PartSeconds float64
}

// Plan decides whether and how to split. Returns nil when the asset should be
// delivered whole: under the threshold, not a video, or duration unknown
// (a byte-range cut would corrupt the container, so oversized files with no
// duration go out unsplit and the upload is allowed to fail).
func (s *Splitter) Plan(asset *Asset, threshold int64) *SplitPlan {
	if threshold <= 0 || asset.Size <= threshold {
		return nil
	}
	if asset.Kind != KindVideo {
		return nil
	}

	duration, err := s.Probe(asset.Path)
	if err != nil || duration <= 0 {
		logger.Warn.Printf("duration probe failed for %s, delivering unsplit: %v", asset.Name, err)
		return nil
	}

	parts := int(math.Ceil(float64(asset.Size) / float64(threshold)))
	if parts < 2 {
		return nil
	}
	return &SplitPlan{
		Parts:       parts,
		PartSeconds: duration / float64(parts),
	}
}

// Split executes a plan, producing equal-duration stream-copied segments
// named <base>.001<ext>, <base>.002<ext>, ... next to the input. On any cut
// failure the segments written so far are removed so no partial set is left
// behind.
func (s *Splitter) Split(asset *Asset, plan *SplitPlan) ([]*Segment, error) {
	ext := filepath.Ext(asset.Path)
	if ext == "" {
		ext = ".mp4"
	}
	prefix := strings.TrimSuffix(asset.Path, ext)

	segments := make([]*Segment, 0, plan.Parts)
	for i := 0; i < plan.Parts; i++ {
		outputPath := fmt.Sprintf("%s.%03d%s", prefix, i+1, ext)
		start := float64(i) * plan.PartSeconds

		if err := s.Cut(asset.Path, outputPath, start, plan.PartSeconds); err != nil {
			for _, seg := range segments {
				seg.Remove()
			}
			return nil, fmt.Errorf("cut part %d/%d: %w", i+1, plan.Parts, err)
		}
		segments = append(segments, &Segment{Path: outputPath, Index: i + 1, Total: plan.Parts})
	}
	return segments, nil
}
