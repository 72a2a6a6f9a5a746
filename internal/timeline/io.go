package timeline

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

func isJSON(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".json")
}

// Write saves a timeline as YAML, or JSON when path ends in .json.
func Write(t *Timeline, path string) error {
	var (
		data []byte
		err  error
	)
	if isJSON(path) {
		data, err = json.MarshalIndent(t, "", "  ")
	} else {
		data, err = yaml.Marshal(t)
	}
	if err != nil {
		return fmt.Errorf("encode timeline: %w", err)
	}
	return os.WriteFile(path, data, 0644)
}

// Read loads a timeline file. Relative media paths are resolved against the
// file's directory.
func Read(path string) (*Timeline, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	t, err := Decode(data, isJSON(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	base := filepath.Dir(path)
	for _, s := range t.Scenes {
		if res := s.Media(); res != nil && res.Path != "" && !filepath.IsAbs(res.Path) {
			res.Path = filepath.Join(base, res.Path)
		}
	}
	return t, nil
}

// Decode parses a timeline document.
func Decode(data []byte, asJSON bool) (*Timeline, error) {
	var t Timeline
	var err error
	if asJSON {
		err = json.Unmarshal(data, &t)
	} else {
		err = yaml.Unmarshal(data, &t)
	}
	if err != nil {
		return nil, fmt.Errorf("decode timeline: %w", err)
	}
	if t.Version == "" {
		t.Version = CurrentVersion
	}
	return &t, nil
}
