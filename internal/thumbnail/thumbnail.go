// Package thumbnail generates the cover image attached to video uploads.
package thumbnail

import (
	"fmt"
	"image"
	stddraw "image/draw"
	"image/jpeg"
	"os"
	"path/filepath"

	"terabox-relay-bot/internal/ffmpeg"
	"terabox-relay-bot/internal/logger"

	"golang.org/x/image/draw"
)

const targetWidth = 320

// Generate extracts a frame near the start of the video, downscales it and
// writes a JPEG next to the video. Returns the thumbnail path, or "" with an
// error when the video yields no usable frame.
func Generate(videoPath string) (string, error) {
	ext := filepath.Ext(videoPath)
	framePath := videoPath[:len(videoPath)-len(ext)] + ".frame.jpg"
	thumbPath := videoPath[:len(videoPath)-len(ext)] + ".thumb.jpg"

	if err := ffmpeg.ExtractFrame(videoPath, framePath, 1.0); err != nil {
		return "", fmt.Errorf("failed to extract frame: %w", err)
	}
	defer os.Remove(framePath)

	frame, err := loadImage(framePath)
	if err != nil {
		return "", fmt.Errorf("failed to load frame: %w", err)
	}

	scaled := scale(frame, targetWidth)

	outFile, err := os.Create(thumbPath)
	if err != nil {
		return "", fmt.Errorf("failed to create thumbnail file: %w", err)
	}
	defer outFile.Close()

	if err := jpeg.Encode(outFile, scaled, &jpeg.Options{Quality: 85}); err != nil {
		return "", fmt.Errorf("failed to encode JPEG: %w", err)
	}

	logger.Debug.Printf("Thumbnail written to [%s](%dx%d)",
		thumbPath, scaled.Bounds().Dx(), scaled.Bounds().Dy())
	return thumbPath, nil
}

// scale resizes the frame to the target width, preserving aspect ratio,
// using bilinear interpolation.
func scale(src image.Image, width int) *image.RGBA {
	bounds := src.Bounds()
	if bounds.Dx() <= width {
		out := image.NewRGBA(bounds)
		stddraw.Draw(out, bounds, src, bounds.Min, stddraw.Src)
		return out
	}
	height := width * bounds.Dy() / bounds.Dx()
	if height < 1 {
		height = 1
	}
	out := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.BiLinear.Scale(out, out.Bounds(), src, bounds, stddraw.Src, nil)
	return out
}

func loadImage(path string) (image.Image, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	img, _, err := image.Decode(file)
	if err != nil {
		return nil, err
	}

	return img, nil
}
