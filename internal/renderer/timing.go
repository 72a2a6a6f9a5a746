package renderer

import (
	"math"

	"github.com/ivlev/scene2video/internal/timeline"
)

// Phase is the position of a scene within its enter/hold/exit envelope.
type Phase int

const (
	PhaseEnter Phase = iota
	PhaseHold
	PhaseExit
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseEnter:
		return "ENTER"
	case PhaseHold:
		return "HOLD"
	case PhaseExit:
		return "EXIT"
	default:
		return "DONE"
	}
}

// State is what a scene looks like at one instant. It is recomputed every
// frame and never stored.
type State struct {
	Phase     Phase
	Progress  float64
	Kind      timeline.AnimationKind
	Direction timeline.Direction
}

// Evaluate maps milliseconds since the scene became active to its phase,
// progress and active animation. The scene must have passed Validate.
//
// A zero-length phase is never entered, so nothing is divided by zero.
// Negative elapsed counts as 0. Progress is eased through the scene's curve
// and always lies in [0, 1].
func Evaluate(s *timeline.Scene, elapsedMs float64) State {
	in, stay, out := s.Durations()
	if elapsedMs < 0 || math.IsNaN(elapsedMs) {
		elapsedMs = 0
	}
	fin, fstay, fout := float64(in), float64(stay), float64(out)

	var st State
	switch {
	case elapsedMs < fin:
		st = State{Phase: PhaseEnter, Progress: elapsedMs / fin, Kind: s.AnimationIn, Direction: timeline.In}
	case elapsedMs < fin+fstay:
		return State{Phase: PhaseHold, Progress: 1, Kind: s.AnimationIn, Direction: timeline.In}
	case elapsedMs < fin+fstay+fout:
		st = State{Phase: PhaseExit, Progress: (elapsedMs - fin - fstay) / fout, Kind: s.AnimationOut, Direction: timeline.Out}
	default:
		return State{Phase: PhaseDone, Progress: 1, Kind: s.AnimationOut, Direction: timeline.Out}
	}

	st.Progress = clamp01(timeline.Ease(s.Easing, st.Progress))
	return st
}

// Settled is the static frame shown while paused or idle: the scene fully
// entered.
func Settled(s *timeline.Scene) State {
	return State{Phase: PhaseHold, Progress: 1, Kind: s.AnimationIn, Direction: timeline.In}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// FrameCount is the number of frames a scene of totalMs occupies at fps:
// ceil(totalMs / 1000 * fps).
func FrameCount(totalMs, fps int) int {
	if totalMs <= 0 || fps <= 0 {
		return 0
	}
	return (totalMs*fps + 999) / 1000
}

// FrameTime is the scene-local time in milliseconds of frame i.
func FrameTime(i, fps int) float64 {
	return float64(i) / float64(fps) * 1000
}
