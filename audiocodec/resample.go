package audiocodec

import (
	"fmt"

	"github.com/dh1tw/gosamplerate"

	"github.com/dh1tw/plughost/audio"
)

// Resample converts interleaved samples from rate from to rate to. The
// input is returned unchanged when the rates match.
func Resample(interleaved []float32, channels int, from, to float64) ([]float32, error) {
	if from == to || len(interleaved) == 0 {
		return interleaved, nil
	}

	src, err := gosamplerate.New(gosamplerate.SRC_SINC_FASTEST, channels, 65536)
	if err != nil {
		return nil, fmt.Errorf("samplerate converter: %v", err)
	}
	defer gosamplerate.Delete(src)

	ratio := to / from
	res := make([]float32, 0, int(float64(len(interleaved))*ratio)+channels)

	// feed the converter in chunks which fit its internal buffer
	chunk := 4096 * channels
	for start := 0; start < len(interleaved); start += chunk {
		end := start + chunk
		last := end >= len(interleaved)
		if last {
			end = len(interleaved)
		}
		out, err := src.Process(interleaved[start:end], ratio, last)
		if err != nil {
			return nil, err
		}
		res = append(res, out...)
	}

	return res, nil
}

// NewSampleBuffer deinterleaves samples recorded at rate from and
// resamples them to rate to.
func NewSampleBuffer(interleaved []float32, channels int, from, to float64) (*SampleBuffer, error) {
	if channels < 1 {
		return nil, fmt.Errorf("invalid channel count %d", channels)
	}
	data, err := Resample(interleaved, channels, from, to)
	if err != nil {
		return nil, err
	}
	return &SampleBuffer{
		SampleRate: to,
		Channels:   audio.Deinterleave(channels, data),
	}, nil
}
