package timeline

import (
	"fmt"
	"strings"
)

// AnimationKind names one enter or exit animation.
type AnimationKind string

const (
	FadeIn    AnimationKind = "fade-in"
	FadeOut   AnimationKind = "fade-out"
	FadeUp    AnimationKind = "fade-up"
	FadeDown  AnimationKind = "fade-down"
	FadeLeft  AnimationKind = "fade-left"
	FadeRight AnimationKind = "fade-right"

	SlideIn    AnimationKind = "slide-in"
	SlideOut   AnimationKind = "slide-out"
	SlideUp    AnimationKind = "slide-up"
	SlideDown  AnimationKind = "slide-down"
	SlideLeft  AnimationKind = "slide-left"
	SlideRight AnimationKind = "slide-right"

	GrowIn    AnimationKind = "grow-in"
	ShrinkIn  AnimationKind = "shrink-in"
	ZoomIn    AnimationKind = "zoom-in"
	ZoomOut   AnimationKind = "zoom-out"
	ScaleUp   AnimationKind = "scale-up"
	ScaleDown AnimationKind = "scale-down"

	Rotate      AnimationKind = "rotate"
	RotateLeft  AnimationKind = "rotate-left"
	RotateRight AnimationKind = "rotate-right"
	Flip        AnimationKind = "flip"
	FlipX       AnimationKind = "flip-x"
	FlipY       AnimationKind = "flip-y"

	Bounce AnimationKind = "bounce"
	Swing  AnimationKind = "swing"
	Shake  AnimationKind = "shake"
	Pulse  AnimationKind = "pulse"
	Float  AnimationKind = "float"
	Wobble AnimationKind = "wobble"

	Typewriter     AnimationKind = "typewriter"
	LetterByLetter AnimationKind = "letter-by-letter"
	WordByWord     AnimationKind = "word-by-word"
	Glitch         AnimationKind = "glitch"
)

// Family groups animation kinds the way the editor's picker does.
type Family string

const (
	FamilyFade    Family = "Fade"
	FamilySlide   Family = "Slide"
	FamilyScale   Family = "Scale"
	FamilyRotate  Family = "Rotate"
	FamilyDynamic Family = "Dynamic"
	FamilyText    Family = "Text"
)

// Families lists every kind per family, in picker order.
var Families = []struct {
	Family Family
	Kinds  []AnimationKind
}{
	{FamilyFade, []AnimationKind{FadeIn, FadeOut, FadeUp, FadeDown, FadeLeft, FadeRight}},
	{FamilySlide, []AnimationKind{SlideIn, SlideOut, SlideUp, SlideDown, SlideLeft, SlideRight}},
	{FamilyScale, []AnimationKind{GrowIn, ShrinkIn, ZoomIn, ZoomOut, ScaleUp, ScaleDown}},
	{FamilyRotate, []AnimationKind{Rotate, RotateLeft, RotateRight, Flip, FlipX, FlipY}},
	{FamilyDynamic, []AnimationKind{Bounce, Swing, Shake, Pulse, Float, Wobble}},
	{FamilyText, []AnimationKind{Typewriter, LetterByLetter, WordByWord, Glitch}},
}

var familyOf = func() map[AnimationKind]Family {
	m := make(map[AnimationKind]Family)
	for _, f := range Families {
		for _, k := range f.Kinds {
			m[k] = f.Family
		}
	}
	return m
}()

// Family returns the kind's family, or "" for an unknown kind.
func (k AnimationKind) Family() Family { return familyOf[k] }

func (k AnimationKind) Valid() bool {
	_, ok := familyOf[k]
	return ok
}

// TextReveal reports whether the kind draws text itself.
func (k AnimationKind) TextReveal() bool {
	return k == Typewriter || k == LetterByLetter || k == WordByWord
}

func ParseAnimationKind(s string) (AnimationKind, error) {
	k := AnimationKind(strings.ToLower(strings.TrimSpace(s)))
	if !k.Valid() {
		return "", fmt.Errorf("unknown animation %q", s)
	}
	return k, nil
}

// Direction says whether an animation plays a scene in or out.
type Direction int

const (
	In Direction = iota
	Out
)

func (d Direction) String() string {
	if d == Out {
		return "out"
	}
	return "in"
}
