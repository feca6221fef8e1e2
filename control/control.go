// Package control maps keyboard input to pitch changes of synth tracks.
package control

import (
	"math"
	"strings"

	"pipelined.dev/modular/mutable"
	"pipelined.dev/modular/signal"
)

// A4 is a reference pitch in Hz.
const A4 = 440

type (
	// Key is a name of keyboard key. Printable keys are named by their
	// character.
	Key string

	// Track identifies a voice of the synth.
	Track uint32

	// Change sets the pitch of the track in semitones relative to A4.
	Change struct {
		Track     Track
		Semitones float64
	}

	// Keymap maps keys to pitch changes.
	Keymap map[Key]Change

	// Setter feeds flow inputs with constants.
	Setter interface {
		SetInput(signal.InputNo, signal.Value) mutable.Mutation
	}
)

// RShift is a name of right shift key.
const RShift Key = "rshift"

var (
	lowerRow = []Key{
		"a", "z", "s", "x", "c", "f", "v", "g", "b", "n",
		"j", "m", "k", ",", "l", ".", "/", "'", RShift,
	}
	upperRow = []Key{
		"1", "q", "2", "w", "e", "4", "r", "5", "t", "y", "7",
		"u", "8", "i", "9", "o", "p", "-", "[", "=", "]", "\\",
	}
)

// Pitch returns frequency of the note that is provided number of
// semitones away from A4.
func Pitch(semitones float64) float64 {
	return A4 * math.Pow(2, semitones/12)
}

// Frequency returns frequency of the change.
func (c Change) Frequency() float64 {
	return Pitch(c.Semitones)
}

// Keyboard returns two-row piano layout. Lower row plays track 0
// starting one semitone below A4, upper row plays track 1 starting
// eleven semitones above A4.
func Keyboard() Keymap {
	km := make(Keymap, len(lowerRow)+len(upperRow))
	for i, k := range lowerRow {
		km[k] = Change{Track: 0, Semitones: float64(i) - 1}
	}
	for i, k := range upperRow {
		km[k] = Change{Track: 1, Semitones: float64(i) + 11}
	}
	return km
}

// Keys splits a line of typed text into keys. Whitespace separated words
// that name a key are taken as is, other words are split into
// characters.
func (km Keymap) Keys(line string) []Key {
	var keys []Key
	for _, field := range strings.Fields(line) {
		if _, ok := km[Key(strings.ToLower(field))]; ok && len(field) > 1 {
			keys = append(keys, Key(strings.ToLower(field)))
			continue
		}
		for _, r := range strings.ToLower(field) {
			keys = append(keys, Key(string(r)))
		}
	}
	return keys
}

// Controller turns key presses into mutations of frequency inputs.
type Controller struct {
	keymap Keymap
	setter Setter
	inputs map[Track]signal.InputNo
}

// NewController returns controller that sets frequency of every track
// to the mapped flow input.
func NewController(km Keymap, setter Setter, inputs map[Track]signal.InputNo) *Controller {
	return &Controller{
		keymap: km,
		setter: setter,
		inputs: inputs,
	}
}

// Press returns mutation for the key. False is returned if key is not
// mapped or its track has no input.
func (c *Controller) Press(k Key) (mutable.Mutation, bool) {
	change, ok := c.keymap[k]
	if !ok {
		return mutable.Mutation{}, false
	}
	no, ok := c.inputs[change.Track]
	if !ok {
		return mutable.Mutation{}, false
	}
	return c.setter.SetInput(no, signal.F32Value(float32(change.Frequency()))), true
}

// Type returns mutations for every mapped key of the line.
func (c *Controller) Type(line string) []mutable.Mutation {
	var mutations []mutable.Mutation
	for _, k := range c.keymap.Keys(line) {
		if m, ok := c.Press(k); ok {
			mutations = append(mutations, m)
		}
	}
	return mutations
}
