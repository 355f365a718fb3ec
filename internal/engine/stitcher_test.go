package engine

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// stubStitcherCommand swaps the process launcher for a shell script and
// restores it when the test ends. The script sees OUT_DIR and IMG_PATH from
// the argument list the real binary would receive.
func stubStitcherCommand(t *testing.T, script string) {
	t.Helper()

	orig := commandContext
	commandContext = func(ctx context.Context, name string, args ...string) *exec.Cmd {
		outDir, imgPath := "", ""
		for i := 0; i < len(args)-1; i++ {
			switch args[i] {
			case "--out_dir":
				outDir = args[i+1]
			case "--img_path":
				imgPath = args[i+1]
			}
		}
		cmd := exec.CommandContext(ctx, "/bin/sh", "-c", script)
		cmd.Env = append(cmd.Environ(),
			"OUT_DIR="+outDir,
			"IMG_PATH="+imgPath,
		)
		return cmd
	}
	t.Cleanup(func() { commandContext = orig })
}

func TestStitch_Success(t *testing.T) {
	stubStitcherCommand(t, `cp "$IMG_PATH" "$OUT_DIR/stitched_blend.jpg"`)

	input := makeTestJPEG(t, 1920, 960)
	s := NewStitcher("/nonexistent/fisheyeStitcher", "/nonexistent/map.yml.gz")

	var last int
	out, err := s.Stitch(context.Background(), input, func(pct int) { last = pct })
	if err != nil {
		t.Fatalf("Stitch failed: %v", err)
	}
	if !bytes.Equal(out, input) {
		t.Fatal("output does not match what the engine wrote")
	}
	if last < 85 {
		t.Fatalf("expected progress to reach at least 85, got %d", last)
	}
}

func TestStitch_EngineFailure(t *testing.T) {
	stubStitcherCommand(t, `echo "boom: calibration map unreadable" >&2; exit 3`)

	input := makeTestJPEG(t, 1920, 960)
	s := NewStitcher("/nonexistent/fisheyeStitcher", "/nonexistent/map.yml.gz")

	_, err := s.Stitch(context.Background(), input, nil)
	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if !strings.Contains(terr.Cause, "boom") {
		t.Fatalf("expected stderr in cause, got %q", terr.Cause)
	}
}

func TestStitch_NoOutputProduced(t *testing.T) {
	stubStitcherCommand(t, `exit 0`)

	input := makeTestJPEG(t, 1920, 960)
	s := NewStitcher("/nonexistent/fisheyeStitcher", "/nonexistent/map.yml.gz")

	_, err := s.Stitch(context.Background(), input, nil)
	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if !strings.Contains(terr.Cause, "no output") {
		t.Fatalf("unexpected cause: %q", terr.Cause)
	}
}

func TestStitch_Timeout(t *testing.T) {
	stubStitcherCommand(t, `sleep 10`)

	input := makeTestJPEG(t, 1920, 960)
	s := NewStitcher("/nonexistent/fisheyeStitcher", "/nonexistent/map.yml.gz")

	ctx, cancel := context.WithTimeout(context.Background(), 100*time.Millisecond)
	defer cancel()

	_, err := s.Stitch(ctx, input, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("expected DeadlineExceeded, got %v", err)
	}
}

func TestStitch_RejectsSmallImage(t *testing.T) {
	input := makeTestJPEG(t, 400, 300)
	s := NewStitcher("/nonexistent/fisheyeStitcher", "/nonexistent/map.yml.gz")

	_, err := s.Stitch(context.Background(), input, nil)
	var terr *TransformError
	if !errors.As(err, &terr) {
		t.Fatalf("expected TransformError, got %v", err)
	}
	if !strings.Contains(terr.Cause, "too small") {
		t.Fatalf("unexpected cause: %q", terr.Cause)
	}
}

func TestValidateStitchInput(t *testing.T) {
	tests := []struct {
		name    string
		data    []byte
		wantErr bool
	}{
		{"valid dual fisheye", nil, false}, // filled in below
		{"too small", nil, true},
		{"not an image", []byte("garbage"), true},
	}
	tests[0].data = makeTestJPEG(t, 1920, 960)
	tests[1].data = makeTestJPEG(t, 800, 400)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateStitchInput(tt.data)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ValidateStitchInput() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestHealthy(t *testing.T) {
	dir := t.TempDir()
	binary := filepath.Join(dir, "fisheyeStitcher")
	mapPath := filepath.Join(dir, "map.yml.gz")

	s := NewStitcher(binary, mapPath)
	if b, m := s.Healthy(); b || m {
		t.Fatalf("expected both missing, got binary=%t map=%t", b, m)
	}

	writeFile(t, binary, "#!/bin/sh\n")
	if b, m := s.Healthy(); !b || m {
		t.Fatalf("expected binary only, got binary=%t map=%t", b, m)
	}

	writeFile(t, mapPath, "map")
	if b, m := s.Healthy(); !b || !m {
		t.Fatalf("expected both present, got binary=%t map=%t", b, m)
	}
}

func TestStderrSummary(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", "engine exited with an error"},
		{"  \n ", "engine exited with an error"},
		{"single line", "single line"},
		{"first\nsecond\nthird", "first"},
		{strings.Repeat("x", 500), strings.Repeat("x", 200)},
	}
	for i, tt := range tests {
		if got := stderrSummary(tt.in); got != tt.want {
			t.Errorf("case %d: got %q, want %q", i, got, tt.want)
		}
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write %s: %v", path, err)
	}
}
