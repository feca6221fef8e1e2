package main

import (
	"fmt"

	"pipelined.dev/modular"
	"pipelined.dev/modular/control"
	"pipelined.dev/modular/prim"
	"pipelined.dev/modular/signal"
)

// voiceGain keeps the sum of two voices within [-1, 1].
const voiceGain = 0.4

// patch is a two-voice synth. Every voice is a nested flow with
// frequency input and one output that is mixed into every channel.
type patch struct {
	flow   modular.FlowID
	voice  modular.FlowID
	inputs map[control.Track]signal.InputNo
	// outputs in channel order
	outputs []signal.OutputNo
}

// buildPatch creates demo patch in the store.
func buildPatch(s *modular.Store, nyquist uint64, channels int) (*patch, error) {
	sampled := signal.SampledType(signal.F32, nyquist)

	// voice: sine oscillator with gain
	voice := s.NewFlow()
	_, freq := s.AddInput(voice, sampled)
	osc := s.AddElement(voice, prim.SineOsc(nyquist))
	gain := s.AddElement(voice, prim.Constant(signal.F32Value(voiceGain), nyquist))
	amp := s.AddElement(voice, prim.Multiply(nyquist))
	_, out := s.AddOutput(voice, sampled)
	for _, e := range []struct {
		source, target modular.NodeIx
		inputNo        signal.InputNo
	}{
		{freq, osc, 0},
		{osc, amp, 0},
		{gain, amp, 1},
		{amp, out, 0},
	} {
		if _, _, err := s.AddEdge(voice, e.source, 0, e.target, e.inputNo); err != nil {
			return nil, fmt.Errorf("build voice: %w", err)
		}
	}

	p := &patch{
		flow:   s.NewFlow(),
		voice:  voice,
		inputs: make(map[control.Track]signal.InputNo),
	}
	voices := make([]modular.NodeIx, 0, 2)
	for _, track := range []control.Track{0, 1} {
		no, in := s.AddInput(p.flow, sampled)
		v, err := s.AddFlowElement(p.flow, voice)
		if err != nil {
			return nil, err
		}
		if _, _, err := s.AddEdge(p.flow, in, 0, v, 0); err != nil {
			return nil, fmt.Errorf("connect track %d: %w", track, err)
		}
		p.inputs[track] = no
		voices = append(voices, v)
	}
	for i := 0; i < channels; i++ {
		no, out := s.AddOutput(p.flow, sampled)
		for _, v := range voices {
			if _, _, err := s.AddEdge(p.flow, v, 0, out, 0); err != nil {
				return nil, fmt.Errorf("connect channel %d: %w", i, err)
			}
		}
		p.outputs = append(p.outputs, no)
	}
	return p, nil
}
