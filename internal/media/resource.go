// Package media resolves scene media into decoded handles: still images (and
// the first page of PDFs), ffmpeg-backed video, and host-supplied handles the
// core borrows but never releases.
package media

import (
	"errors"
	"fmt"
	"image"
	"time"
)

// ErrReleased is returned when drawing from a handle after Release.
var ErrReleased = errors.New("media: handle released")

// Kind tells the decoder how to interpret a resource.
type Kind int

const (
	KindImage Kind = iota
	KindVideo
)

func (k Kind) String() string {
	if k == KindVideo {
		return "video"
	}
	return "image"
}

// Resource is a scene's reference to media owned by the editing host. Exactly
// one of Handle, Data or Path is used, in that order.
type Resource struct {
	// Key identifies the resource across scenes. Defaults to Path.
	Key  string `yaml:"key,omitempty" json:"key,omitempty"`
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	MIME string `yaml:"mime,omitempty" json:"mime,omitempty"`

	Data   []byte `yaml:"-" json:"-"`
	Handle Handle `yaml:"-" json:"-"`
}

// Identity is the dedup key used by the cache and the export preload.
func (r *Resource) Identity() string {
	switch {
	case r.Key != "":
		return r.Key
	case r.Path != "":
		return r.Path
	default:
		return fmt.Sprintf("res:%p", r)
	}
}

// Handle is a decoded, drawable media resource.
type Handle interface {
	Size() (w, h int)
	// Frame returns the picture shown at the given media time. Stills ignore it.
	Frame(at time.Duration) (image.Image, error)
	Release() error
}

// Video is a Handle with a timeline.
type Video interface {
	Handle
	Duration() time.Duration
}

// Controller is implemented by handles that play in real time and must follow
// the live clock.
type Controller interface {
	Play() error
	Pause() error
	SetVolume(v float64)
	SetLoop(loop bool)
}

// Still is a Handle over a single decoded image.
type Still struct {
	img image.Image
}

func NewStill(img image.Image) *Still { return &Still{img: img} }

func (s *Still) Size() (int, int) {
	if s.img == nil {
		return 0, 0
	}
	b := s.img.Bounds()
	return b.Dx(), b.Dy()
}

func (s *Still) Frame(time.Duration) (image.Image, error) {
	if s.img == nil {
		return nil, ErrReleased
	}
	return s.img, nil
}

func (s *Still) Release() error {
	s.img = nil
	return nil
}

// borrowed wraps a host-supplied handle so that cache eviction does not
// release something the core does not own.
type borrowed struct {
	Handle
}

func (borrowed) Release() error { return nil }

// Unwrap returns the host handle, so Controller and Video assertions see it.
func (b borrowed) Unwrap() Handle { return b.Handle }

// Underlying peels borrowed wrappers off h.
func Underlying(h Handle) Handle {
	if b, ok := h.(borrowed); ok {
		return b.Handle
	}
	return h
}
