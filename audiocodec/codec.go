// Package audiocodec decodes audio files into sample buffers the engine
// can play. Readers for the individual file formats are registered
// explicitly by the application.
package audiocodec

import (
	"errors"
	"fmt"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// ErrUnsupported is returned by Decode for files no Reader handles.
var ErrUnsupported = errors.New("unsupported audio file format")

// Reader decodes files of one format.
type Reader interface {
	Name() string
	// Extensions returns the lower case file extensions (including the
	// dot) the reader handles.
	Extensions() []string
	// Decode reads the file at path and returns its content at
	// sampleRate.
	Decode(path string, sampleRate float64) (*SampleBuffer, error)
}

// SampleBuffer is a decoded file: one slice of samples per channel.
type SampleBuffer struct {
	SampleRate float64
	Channels   [][]float32
}

// Frames returns the number of samples per channel.
func (b *SampleBuffer) Frames() int {
	if len(b.Channels) == 0 {
		return 0
	}
	return len(b.Channels[0])
}

var (
	mu      sync.RWMutex
	readers = make(map[string]Reader)
)

// Register makes r available for its extensions. Registering an extension
// twice panics.
func Register(r Reader) {
	mu.Lock()
	defer mu.Unlock()
	for _, ext := range r.Extensions() {
		ext = strings.ToLower(ext)
		if prev, dup := readers[ext]; dup {
			panic(fmt.Sprintf("audiocodec: extension %s registered by %s and %s", ext, prev.Name(), r.Name()))
		}
		readers[ext] = r
	}
}

// Unregister removes r from all its extensions.
func Unregister(r Reader) {
	mu.Lock()
	defer mu.Unlock()
	for ext, existing := range readers {
		if existing == r {
			delete(readers, ext)
		}
	}
}

// Lookup returns the reader responsible for path.
func Lookup(path string) (Reader, bool) {
	mu.RLock()
	defer mu.RUnlock()
	r, ok := readers[strings.ToLower(filepath.Ext(path))]
	return r, ok
}

// Extensions returns all registered extensions, sorted.
func Extensions() []string {
	mu.RLock()
	defer mu.RUnlock()
	res := make([]string, 0, len(readers))
	for ext := range readers {
		res = append(res, ext)
	}
	sort.Strings(res)
	return res
}

// Decode decodes the file at path with the reader registered for its
// extension.
func Decode(path string, sampleRate float64) (*SampleBuffer, error) {
	r, ok := Lookup(path)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnsupported, path)
	}
	buf, err := r.Decode(path, sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", r.Name(), err)
	}
	return buf, nil
}
