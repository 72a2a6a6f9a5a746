package cli

import (
	"context"
	"image"
	"os"
	"path/filepath"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/ivlev/scene2video/internal/timeline"
)

func run(t *testing.T, args ...string) error {
	t.Helper()
	cmd := newRootCmd()
	cmd.SetArgs(append(args, "--env", filepath.Join(t.TempDir(), "missing.env")))
	return cmd.ExecuteContext(context.Background())
}

func TestImportThenValidate(t *testing.T) {
	out := filepath.Join(t.TempDir(), "timeline.yaml")
	if err := run(t, "import", "../timeline/testdata/generated.json", "-o", out); err != nil {
		t.Fatalf("import failed: %v", err)
	}

	tl, err := timeline.Read(out)
	if err != nil {
		t.Fatal(err)
	}
	if tl.Len() != 2 {
		t.Errorf("Expected 2 imported scenes, got %d", tl.Len())
	}

	if err := run(t, "validate", out); err != nil {
		t.Errorf("validate failed: %v", err)
	}
}

func TestValidateReportsInvalidScenes(t *testing.T) {
	s := timeline.NewScene(timeline.KindText)
	bad := -5
	s.DurationStay = &bad

	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := timeline.Write(timeline.New(s), path); err != nil {
		t.Fatal(err)
	}
	if err := run(t, "validate", path); err == nil {
		t.Error("Expected validate to fail")
	}
}

func TestFrameWritesImage(t *testing.T) {
	dir := t.TempDir()
	s := timeline.NewScene(timeline.KindText)
	s.BackgroundColor = "#0000ff"
	s.Text.Text = ""
	path := filepath.Join(dir, "one.json")
	if err := timeline.Write(timeline.New(s), path); err != nil {
		t.Fatal(err)
	}

	t.Setenv("SCENE2VIDEO_WIDTH", "64")
	t.Setenv("SCENE2VIDEO_HEIGHT", "36")

	png := filepath.Join(dir, "frame.png")
	if err := run(t, "frame", path, "--at", "750ms", "-o", png); err != nil {
		t.Fatalf("frame failed: %v", err)
	}

	img, err := imaging.Open(png)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 64, 36) {
		t.Errorf("Unexpected size %v", img.Bounds())
	}
	if r, g, b, _ := img.At(32, 18).RGBA(); r != 0 || g != 0 || b != 0xffff {
		t.Errorf("Expected blue background, got %d,%d,%d", r, g, b)
	}

	if err := run(t, "frame", path, "--scene", "3", "-o", png); err == nil {
		t.Error("Expected an out-of-range scene to fail")
	}
	if _, err := os.Stat(png); err != nil {
		t.Errorf("Previous frame should remain: %v", err)
	}
}
