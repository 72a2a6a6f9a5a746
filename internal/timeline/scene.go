// Package timeline holds the scene model: the ordered list of timed scenes a
// movie is made of, their validation, and the file formats they travel in.
package timeline

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"

	"github.com/ivlev/scene2video/internal/canvas"
	"github.com/ivlev/scene2video/internal/errs"
	"github.com/ivlev/scene2video/internal/media"
)

// SceneKind discriminates the scene payload.
type SceneKind string

const (
	KindText  SceneKind = "text"
	KindImage SceneKind = "image"
	KindVideo SceneKind = "video"
)

// Scene is one timed unit of content. Durations are milliseconds; they are
// pointers so that a missing field can be told apart from an explicit 0.
type Scene struct {
	ID              string        `yaml:"id" json:"id"`
	Kind            SceneKind     `yaml:"type" json:"type"`
	AnimationIn     AnimationKind `yaml:"animation_in" json:"animation_in"`
	AnimationOut    AnimationKind `yaml:"animation_out" json:"animation_out"`
	DurationIn      *int          `yaml:"duration_in" json:"duration_in"`
	DurationStay    *int          `yaml:"duration_stay" json:"duration_stay"`
	DurationOut     *int          `yaml:"duration_out" json:"duration_out"`
	BackgroundColor string        `yaml:"background_color" json:"background_color"`
	// Easing is an optional curve name applied to enter and exit progress.
	Easing string `yaml:"easing,omitempty" json:"easing,omitempty"`

	Text   *TextContent   `yaml:"text,omitempty" json:"text,omitempty"`
	Visual *VisualContent `yaml:"visual,omitempty" json:"visual,omitempty"`
}

type TextContent struct {
	Text     string  `yaml:"text" json:"text"`
	FontSize float64 `yaml:"font_size" json:"font_size"`
	Color    string  `yaml:"color" json:"color"`
}

// VisualContent is shared by image and video scenes. Volume and Loop only
// apply to video.
type VisualContent struct {
	Media   *media.Resource `yaml:"media,omitempty" json:"media,omitempty"`
	Scale   float64         `yaml:"scale" json:"scale"`
	Opacity float64         `yaml:"opacity" json:"opacity"`
	Volume  float64         `yaml:"volume" json:"volume"`
	Loop    bool            `yaml:"loop" json:"loop"`
}

func DefaultVisual() VisualContent {
	return VisualContent{Scale: 1, Opacity: 1, Volume: 1}
}

// UnmarshalYAML fills omitted fields with DefaultVisual values.
func (v *VisualContent) UnmarshalYAML(node *yaml.Node) error {
	type plain VisualContent
	p := plain(DefaultVisual())
	if err := node.Decode(&p); err != nil {
		return err
	}
	*v = VisualContent(p)
	return nil
}

func (v *VisualContent) UnmarshalJSON(data []byte) error {
	type plain VisualContent
	p := plain(DefaultVisual())
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	*v = VisualContent(p)
	return nil
}

func ms(v int) *int { return &v }

// NewScene returns a scene with the editor's defaults: fade in and out over
// 500ms with a one second hold on black.
func NewScene(kind SceneKind) *Scene {
	s := &Scene{
		ID:              NewID(),
		Kind:            kind,
		AnimationIn:     FadeIn,
		AnimationOut:    FadeOut,
		DurationIn:      ms(500),
		DurationStay:    ms(1000),
		DurationOut:     ms(500),
		BackgroundColor: "#000000",
	}
	switch kind {
	case KindText:
		s.Text = &TextContent{Text: "New Text Scene", FontSize: 48, Color: "#ffffff"}
	case KindImage, KindVideo:
		v := DefaultVisual()
		s.Visual = &v
	}
	return s
}

// NewID returns a random RFC 4122 version 4 identifier.
func NewID() string {
	var b [16]byte
	if _, err := rand.Read(b[:]); err != nil {
		panic(err)
	}
	b[6] = (b[6] & 0x0f) | 0x40
	b[8] = (b[8] & 0x3f) | 0x80
	h := hex.EncodeToString(b[:])
	return h[0:8] + "-" + h[8:12] + "-" + h[12:16] + "-" + h[16:20] + "-" + h[20:]
}

// Durations returns the three phase lengths. Missing values read as 0, so
// call Validate first.
func (s *Scene) Durations() (in, stay, out int) {
	deref := func(p *int) int {
		if p == nil {
			return 0
		}
		return *p
	}
	return deref(s.DurationIn), deref(s.DurationStay), deref(s.DurationOut)
}

// TotalMs is the full length of the scene.
func (s *Scene) TotalMs() int {
	in, stay, out := s.Durations()
	return in + stay + out
}

// VisualOrDefault returns the visual payload, or defaults when absent.
func (s *Scene) VisualOrDefault() VisualContent {
	if s.Visual == nil {
		return DefaultVisual()
	}
	return *s.Visual
}

// Media returns the bound media resource, if any.
func (s *Scene) Media() *media.Resource {
	switch s.Kind {
	case KindImage, KindVideo:
		if s.Visual != nil {
			return s.Visual.Media
		}
	}
	return nil
}

// MediaKind tells the decoder how to treat this scene's media.
func (s *Scene) MediaKind() media.Kind {
	if s.Kind == KindVideo {
		return media.KindVideo
	}
	return media.KindImage
}

var (
	errMissingDuration  = errors.New("missing duration")
	errNegativeDuration = errors.New("negative duration")
)

// Validate rejects scenes the timing model cannot run. Nothing is clamped or
// defaulted.
func (s *Scene) Validate() error {
	invalid := func(err error) error {
		return errs.InvalidScene("validate", s.ID, err)
	}

	for _, d := range []struct {
		name string
		v    *int
	}{
		{"duration_in", s.DurationIn},
		{"duration_stay", s.DurationStay},
		{"duration_out", s.DurationOut},
	} {
		if d.v == nil {
			return invalid(fmt.Errorf("%s: %w", d.name, errMissingDuration))
		}
		if *d.v < 0 {
			return invalid(fmt.Errorf("%s = %d: %w", d.name, *d.v, errNegativeDuration))
		}
	}

	if !s.AnimationIn.Valid() {
		return invalid(fmt.Errorf("unknown animation_in %q", s.AnimationIn))
	}
	if !s.AnimationOut.Valid() {
		return invalid(fmt.Errorf("unknown animation_out %q", s.AnimationOut))
	}
	if s.BackgroundColor != "" {
		if _, err := canvas.ParseColor(s.BackgroundColor); err != nil {
			return invalid(err)
		}
	}
	if s.Easing != "" && !ValidEasing(s.Easing) {
		return invalid(fmt.Errorf("unknown easing %q", s.Easing))
	}

	switch s.Kind {
	case KindText:
		if s.Text == nil {
			return invalid(errors.New("text scene without text payload"))
		}
		if s.Text.FontSize < 0 {
			return invalid(fmt.Errorf("negative font size %v", s.Text.FontSize))
		}
		if s.Text.Color != "" {
			if _, err := canvas.ParseColor(s.Text.Color); err != nil {
				return invalid(err)
			}
		}
	case KindImage, KindVideo:
		v := s.VisualOrDefault()
		if v.Scale < 0 {
			return invalid(fmt.Errorf("negative scale %v", v.Scale))
		}
		if v.Opacity < 0 || v.Opacity > 1 {
			return invalid(fmt.Errorf("opacity %v outside [0, 1]", v.Opacity))
		}
		if v.Volume < 0 || v.Volume > 1 {
			return invalid(fmt.Errorf("volume %v outside [0, 1]", v.Volume))
		}
	default:
		return invalid(fmt.Errorf("unknown scene type %q", s.Kind))
	}
	return nil
}
