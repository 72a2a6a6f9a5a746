package errs

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestOpErrorWrapsCause(t *testing.T) {
	root := errors.New("ffmpeg exited with status 1")
	err := Encoding("video.write_frame", root)

	if !errors.Is(err, root) {
		t.Fatalf("expected errors.Is to match cause")
	}
	if !errors.Is(err, ErrEncoding) {
		t.Fatalf("expected errors.Is to match ErrEncoding")
	}
	if errors.Is(err, ErrMediaDecode) {
		t.Fatalf("encoding error must not match ErrMediaDecode")
	}

	var got *OpError
	if !errors.As(err, &got) {
		t.Fatalf("expected errors.As to find *OpError")
	}
	if got.Op != "video.write_frame" {
		t.Fatalf("unexpected op %q", got.Op)
	}
}

func TestIsKindThroughWrapping(t *testing.T) {
	err := fmt.Errorf("export: %w", InvalidScene("timeline.validate", "scene-2", errors.New("durationIn is missing")))

	if !IsKind(err, KindInvalidScene) {
		t.Fatalf("expected invalid_scene kind")
	}
	if IsKind(err, KindEncoding) {
		t.Fatalf("did not expect encoding kind")
	}
	if !errors.Is(err, ErrInvalidScene) {
		t.Fatalf("expected sentinel match through fmt wrapping")
	}
}

func TestOpErrorMessage(t *testing.T) {
	err := MediaDecode("media.decode", "logo.png", errors.New("unexpected EOF"))
	msg := err.Error()
	for _, want := range []string{"media.decode", "media_decode", "logo.png", "unexpected EOF"} {
		if !strings.Contains(msg, want) {
			t.Errorf("message %q should contain %q", msg, want)
		}
	}

	var nilErr *OpError
	if nilErr.Error() != "<nil>" {
		t.Errorf("nil OpError should render as <nil>")
	}
}
