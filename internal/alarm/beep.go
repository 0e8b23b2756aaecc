// Package alarm synthesises the completion beep and plays it through the
// system audio device.
package alarm

import (
	"bytes"
	"encoding/binary"
	"math"
)

// Audio format shared by the synthesiser and the oto context.
const (
	SampleRate    = 44100
	ChannelCount  = 1
	bitsPerSample = 16
)

// Beep shape: two mixed sines under an attack/sustain/release envelope.
const (
	beepSeconds    = 0.75
	toneLow        = 220.0 // A3
	toneHigh       = 277.0 // C#4
	attackSeconds  = 0.04
	releaseAt      = 0.6
	releaseSeconds = 0.15
)

// envelope returns the gain at t seconds into the beep.
func envelope(t float64) float64 {
	switch {
	case t < attackSeconds:
		return t / attackSeconds
	case t < releaseAt:
		return 1
	default:
		return math.Max(0, 1-(t-releaseAt)/releaseSeconds)
	}
}

// Samples returns the beep as signed 16-bit mono PCM samples.
func Samples() []int16 {
	n := int(math.Floor(SampleRate * beepSeconds))
	out := make([]int16, n)
	for i := range out {
		t := float64(i) / SampleRate
		s := math.Sin(2*math.Pi*toneLow*t)*0.3 + math.Sin(2*math.Pi*toneHigh*t)*0.15
		s *= envelope(t)
		v := math.Floor(s * 32767)
		out[i] = int16(math.Max(-32768, math.Min(32767, v)))
	}
	return out
}

// Beep returns a complete RIFF/WAVE file holding one beep.
func Beep() []byte {
	samples := Samples()
	dataLen := uint32(len(samples) * 2)

	var buf bytes.Buffer
	buf.Grow(44 + int(dataLen))
	le := binary.LittleEndian

	buf.WriteString("RIFF")
	binary.Write(&buf, le, 36+dataLen)
	buf.WriteString("WAVE")

	buf.WriteString("fmt ")
	binary.Write(&buf, le, uint32(16))
	binary.Write(&buf, le, uint16(1)) // PCM
	binary.Write(&buf, le, uint16(ChannelCount))
	binary.Write(&buf, le, uint32(SampleRate))
	binary.Write(&buf, le, uint32(SampleRate*ChannelCount*bitsPerSample/8))
	binary.Write(&buf, le, uint16(ChannelCount*bitsPerSample/8))
	binary.Write(&buf, le, uint16(bitsPerSample))

	buf.WriteString("data")
	binary.Write(&buf, le, dataLen)
	binary.Write(&buf, le, samples)
	return buf.Bytes()
}
