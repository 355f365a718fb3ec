package engine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"  // register GIF decoder
	_ "image/jpeg" // register JPEG decoder
	_ "image/png"  // register PNG decoder
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

var commandContext = exec.CommandContext

// Minimum input dimensions for a dual fisheye frame.
const (
	minStitchWidth  = 1000
	minStitchHeight = 500
)

// Stitcher wraps the external fisheye stitcher binary. Each call runs one
// process with the inherited context deadline; a crashing or hanging binary
// never takes the service process down with it.
type Stitcher struct {
	binary  string
	mapPath string
}

// NewStitcher configures the stitcher with the binary and calibration map
// paths. Neither is required to exist until Stitch is called; Healthy reports
// their presence for the health endpoint.
func NewStitcher(binary, mapPath string) *Stitcher {
	return &Stitcher{binary: binary, mapPath: mapPath}
}

// Healthy reports whether the binary and the calibration map are present.
func (s *Stitcher) Healthy() (binaryExists, mapExists bool) {
	if _, err := os.Stat(s.binary); err == nil {
		binaryExists = true
	}
	if _, err := os.Stat(s.mapPath); err == nil {
		mapExists = true
	}
	return binaryExists, mapExists
}

// ValidateStitchInput checks that data decodes and has plausible dual fisheye
// dimensions. An unusual aspect ratio is only logged, matching the reference
// service.
func ValidateStitchInput(data []byte) error {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return errors.New("invalid image format")
	}
	if cfg.Width < minStitchWidth || cfg.Height < minStitchHeight {
		return fmt.Errorf("image too small: expected dual fisheye image with width >= %dpx", minStitchWidth)
	}
	ratio := float64(cfg.Width) / float64(cfg.Height)
	if ratio < 1.5 || ratio > 3.0 {
		log.Printf("unusual aspect ratio %.2f, expected ~2.0 for dual fisheye", ratio)
	}
	return nil
}

// Stitch runs the binary over a temp workspace and returns the blended
// output bytes.
func (s *Stitcher) Stitch(ctx context.Context, input []byte, progress func(int)) ([]byte, error) {
	if err := ValidateStitchInput(input); err != nil {
		return nil, &TransformError{Cause: err.Error()}
	}
	report(progress, 20)

	workDir, err := os.MkdirTemp("", "stitch-*")
	if err != nil {
		return nil, fmt.Errorf("failed to create work directory: %w", err)
	}
	defer os.RemoveAll(workDir)

	inputPath := filepath.Join(workDir, "input.jpg")
	outDir := filepath.Join(workDir, "output")
	if err := os.WriteFile(inputPath, input, 0o644); err != nil {
		return nil, fmt.Errorf("failed to write input: %w", err)
	}
	if err := os.Mkdir(outDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory: %w", err)
	}

	args := []string{
		"--out_dir", outDir,
		"--img_nm", "stitched",
		"--img_path", inputPath,
		"--mls_map_path", s.mapPath,
		"--enb_light_compen", "false",
		"--enb_refine_align", "false",
		"--mode", "image",
	}

	var stderr bytes.Buffer
	cmd := commandContext(ctx, s.binary, args...)
	cmd.Stderr = &stderr

	report(progress, 30)
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		return nil, &TransformError{Cause: "stitching failed: " + stderrSummary(stderr.String())}
	}
	report(progress, 85)

	matches, err := filepath.Glob(filepath.Join(outDir, "*_blend.jpg"))
	if err != nil || len(matches) == 0 {
		return nil, &TransformError{Cause: "stitcher produced no output"}
	}

	out, err := os.ReadFile(matches[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read stitcher output: %w", err)
	}
	return out, nil
}

// stderrSummary reduces engine diagnostics to a single caller-safe line.
func stderrSummary(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return "engine exited with an error"
	}
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	const max = 200
	if len(s) > max {
		s = s[:max]
	}
	return s
}
