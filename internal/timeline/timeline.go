package timeline

import (
	"fmt"

	"go.uber.org/multierr"

	"github.com/ivlev/scene2video/internal/media"
)

const CurrentVersion = "1"

// Timeline is the ordered scene list. Order is playback and export order.
type Timeline struct {
	Version string   `yaml:"version" json:"version"`
	Scenes  []*Scene `yaml:"scenes" json:"scenes"`
}

func New(scenes ...*Scene) *Timeline {
	return &Timeline{Version: CurrentVersion, Scenes: scenes}
}

func (t *Timeline) Len() int { return len(t.Scenes) }

// At returns the scene at index i or an error when i is out of range.
func (t *Timeline) At(i int) (*Scene, error) {
	if i < 0 || i >= len(t.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range [0, %d)", i, len(t.Scenes))
	}
	return t.Scenes[i], nil
}

// Validate checks every scene and returns the first failure.
func (t *Timeline) Validate() error {
	seen := make(map[string]int, len(t.Scenes))
	for i, s := range t.Scenes {
		if s == nil {
			return fmt.Errorf("scene %d is nil", i)
		}
		if err := s.Validate(); err != nil {
			return fmt.Errorf("scene %d: %w", i, err)
		}
		if s.ID != "" {
			if j, dup := seen[s.ID]; dup {
				return fmt.Errorf("scenes %d and %d share id %q", j, i, s.ID)
			}
			seen[s.ID] = i
		}
	}
	return nil
}

// ValidateAll collects every scene error instead of stopping at the first.
func (t *Timeline) ValidateAll() error {
	var err error
	for i, s := range t.Scenes {
		if s == nil {
			err = multierr.Append(err, fmt.Errorf("scene %d is nil", i))
			continue
		}
		if serr := s.Validate(); serr != nil {
			err = multierr.Append(err, fmt.Errorf("scene %d: %w", i, serr))
		}
	}
	return err
}

func (t *Timeline) TotalMs() int {
	total := 0
	for _, s := range t.Scenes {
		total += s.TotalMs()
	}
	return total
}

// MediaRef is one unique media resource and how it is used.
type MediaRef struct {
	Resource *media.Resource
	Kind     media.Kind
}

// Media lists every bound resource once, deduplicated by identity, in first
// appearance order.
func (t *Timeline) Media() []MediaRef {
	var refs []MediaRef
	seen := make(map[string]bool)
	for _, s := range t.Scenes {
		res := s.Media()
		if res == nil {
			continue
		}
		id := res.Identity()
		if seen[id] {
			continue
		}
		seen[id] = true
		refs = append(refs, MediaRef{Resource: res, Kind: s.MediaKind()})
	}
	return refs
}

// MediaKeys returns the identities of Media, for media.Cache.Retain.
func (t *Timeline) MediaKeys() []string {
	refs := t.Media()
	keys := make([]string, len(refs))
	for i, r := range refs {
		keys[i] = r.Resource.Identity()
	}
	return keys
}
