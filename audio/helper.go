package audio

// AdjustVolume scales the samples in place.
func AdjustVolume(volume float32, samples []float32) {
	for i := 0; i < len(samples); i++ {
		samples[i] *= volume
	}
}

// Deinterleave splits interleaved frames into one slice per channel.
func Deinterleave(channels int, interleaved []float32) [][]float32 {
	if channels < 1 {
		return nil
	}
	frames := len(interleaved) / channels
	res := make([][]float32, channels)
	for ch := range res {
		res[ch] = make([]float32, frames)
	}
	for i := 0; i < frames; i++ {
		for ch := 0; ch < channels; ch++ {
			res[ch][i] = interleaved[i*channels+ch]
		}
	}
	return res
}
