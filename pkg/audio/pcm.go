// Package audio provides small PCM conversion helpers shared by the
// capture engine and the output sinks.
package audio

// Clamp hard-saturates v to the [-1, 1] float PCM range. No soft knee:
// accumulated mix buses clip exactly at full scale.
func Clamp(v float32) float32 {
	if v > 1 {
		return 1
	}
	if v < -1 {
		return -1
	}
	return v
}

// FloatToInt16 converts normalized float32 samples to 16-bit PCM with
// saturation.
func FloatToInt16(samples []float32) []int16 {
	out := make([]int16, len(samples))
	for i, s := range samples {
		scaled := s * 32768.0
		if scaled > 32767 {
			scaled = 32767
		} else if scaled < -32768 {
			scaled = -32768
		}
		out[i] = int16(scaled)
	}
	return out
}

// Int16ToFloat converts 16-bit PCM samples to normalized float32.
func Int16ToFloat(samples []int16) []float32 {
	out := make([]float32, len(samples))
	for i, s := range samples {
		out[i] = float32(s) / 32768.0
	}
	return out
}

// Interleave converts planar per-channel float buffers into one
// interleaved int16 buffer (frame-major), the layout codecs expect.
// All channel slices must have the same length.
func Interleave(planar [][]float32) []int16 {
	if len(planar) == 0 {
		return nil
	}
	frames := len(planar[0])
	out := make([]int16, frames*len(planar))
	for ch, data := range planar {
		for i, s := range data {
			scaled := Clamp(s) * 32767.0
			out[i*len(planar)+ch] = int16(scaled)
		}
	}
	return out
}
