package ffmpeg

import (
	"fmt"
	"os/exec"
	"strconv"
	"strings"

	"terabox-relay-bot/internal/logger"
)

// ProbeDuration returns a media file's duration in seconds via ffprobe.
func ProbeDuration(path string) (float64, error) {
	cmd := exec.Command(
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	)
	logger.Debug.Println("Command: ", cmd.String())

	output, err := cmd.CombinedOutput()
	if err != nil {
		return 0, fmt.Errorf("failed to probe duration: %w", err)
	}

	durStr := strings.TrimSpace(string(output))
	dur, err := strconv.ParseFloat(durStr, 64)
	if err != nil {
		return 0, fmt.Errorf("failed to parse duration: %w", err)
	}
	return dur, nil
}

// CutSegment writes a lossless cut of the input starting at startSec and
// lasting durationSec. Stream copy only; re-encoding is out of scope.
func CutSegment(inputPath, outputPath string, startSec, durationSec float64) error {
	cmd := exec.Command(
		"ffmpeg",
		"-y",
		"-ss", formatSeconds(startSec),
		"-i", inputPath,
		"-t", formatSeconds(durationSec),
		"-c", "copy",
		"-map", "0",
		"-avoid_negative_ts", "make_zero",
		outputPath,
	)
	logger.Debug.Println("Command: ", cmd.String())

	_, err := cmd.CombinedOutput()
	if err != nil {
		return fmt.Errorf("failed to cut segment: %w", err)
	}
	return nil
}

// ExtractFrame grabs a single frame at the given timestamp as a JPEG.
func ExtractFrame(videoPath, framePath string, atSec float64) error {
	cmd := exec.Command(
		"ffmpeg",
		"-ss", formatSeconds(atSec),
		"-i", videoPath,
		"-vframes", "1",
		"-q:v", "2",
		"-y",
		framePath,
	)
	logger.Debug.Println("Command: ", cmd.String())

	cmd.Stdout = nil
	cmd.Stderr = nil
	if err := cmd.Run(); err != nil {
		return fmt.Errorf("failed to extract frame: %w", err)
	}
	return nil
}

func formatSeconds(s float64) string {
	return strconv.FormatFloat(s, 'f', 3, 64)
}
