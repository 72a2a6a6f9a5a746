package timeline

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/PaesslerAG/jsonpath"
)

// generatedMessagePath locates the scene list inside a generator run response.
const generatedMessagePath = "$.outputs[0].outputs[0].outputs.message.message.text"

// generatedScene is the record shape the scene generator emits.
type generatedScene struct {
	SceneType       string  `json:"scene_type"`
	AnimationIn     string  `json:"animation_in"`
	AnimationOut    string  `json:"animation_out"`
	DurationIn      *int    `json:"duration_in"`
	StayDuration    *int    `json:"stay_duration"`
	DurationOut     *int    `json:"duration_out"`
	BackgroundColor string  `json:"background_color"`
	Text            string  `json:"text"`
	FontSize        float64 `json:"font_size"`
	TextColor       string  `json:"text_color"`
}

// ImportGenerated converts a generator response into a timeline. The payload
// may be the full run response, with the scene list as a JSON string nested in
// the first output message, or the bare scene list itself. The result is not
// validated.
func ImportGenerated(payload []byte) (*Timeline, error) {
	var doc interface{}
	if err := json.Unmarshal(payload, &doc); err != nil {
		return nil, fmt.Errorf("parse generator payload: %w", err)
	}

	var raw []byte
	switch v := doc.(type) {
	case []interface{}:
		raw = payload
	default:
		text, err := jsonpath.Get(generatedMessagePath, v)
		if err != nil {
			return nil, fmt.Errorf("locate generated scenes: %w", err)
		}
		s, ok := text.(string)
		if !ok {
			return nil, errors.New("generated scenes are not a JSON string")
		}
		raw = []byte(s)
	}

	var records []generatedScene
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse generated scenes: %w", err)
	}

	t := New()
	for _, r := range records {
		t.Scenes = append(t.Scenes, r.scene())
	}
	return t, nil
}

func (r generatedScene) scene() *Scene {
	s := &Scene{
		ID:              NewID(),
		Kind:            SceneKind(r.SceneType),
		AnimationIn:     AnimationKind(r.AnimationIn),
		AnimationOut:    AnimationKind(r.AnimationOut),
		DurationIn:      r.DurationIn,
		DurationStay:    r.StayDuration,
		DurationOut:     r.DurationOut,
		BackgroundColor: r.BackgroundColor,
	}
	if s.Kind == KindText {
		s.Text = &TextContent{Text: r.Text, FontSize: r.FontSize, Color: r.TextColor}
	} else {
		v := DefaultVisual()
		s.Visual = &v
	}
	return s
}
