package lv2

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeFeature struct {
	uri     string
	failing bool
	inits   int
	cleans  int
}

func (f *fakeFeature) URI() string          { return f.uri }
func (f *fakeFeature) Data() unsafe.Pointer { return nil }
func (f *fakeFeature) Cleanup()             { f.cleans++ }

func (f *fakeFeature) Initialize() error {
	if f.failing {
		return errors.New("out of memory")
	}
	f.inits++
	return nil
}

func TestFeatureSetAdd(t *testing.T) {
	a := &fakeFeature{uri: "http://ex/a"}
	s := NewFeatureSet(a, &fakeFeature{uri: "http://ex/b"})

	assert.Error(t, s.Add(&fakeFeature{uri: "http://ex/a"}))
	assert.Equal(t, []string{"http://ex/a", "http://ex/b"}, s.URIs())

	f, ok := s.Get("http://ex/a")
	require.True(t, ok)
	assert.Same(t, a, f)
	_, ok = s.Get("http://ex/c")
	assert.False(t, ok)

	assert.Equal(t, []string{"http://ex/c"}, s.Missing([]string{"http://ex/b", "http://ex/c"}))
}

func TestInstantiateCallsHooksOncePerInstance(t *testing.T) {
	a := &fakeFeature{uri: "http://ex/a"}
	b := &fakeFeature{uri: "http://ex/b"}
	s := NewFeatureSet(a, b)

	b1, err := s.Instantiate("http://ex/a")
	require.NoError(t, err)
	b2, err := s.Instantiate()
	require.NoError(t, err)
	assert.Equal(t, 2, a.inits)
	assert.Len(t, b1.Features(), 2)

	b1.Close()
	b1.Close()
	assert.Equal(t, 1, a.cleans)
	assert.Equal(t, 1, b.cleans)

	b2.Close()
	assert.Equal(t, 2, a.cleans)
	assert.Equal(t, 2, b.cleans)
}

func TestInstantiateMissingFeature(t *testing.T) {
	a := &fakeFeature{uri: "http://ex/a"}
	s := NewFeatureSet(a)

	_, err := s.Instantiate("http://ex/a", "http://ex/worker")
	assert.ErrorIs(t, err, ErrMissingFeature)
	assert.ErrorContains(t, err, "http://ex/worker")
	assert.Zero(t, a.inits)
}

func TestInstantiateRollsBack(t *testing.T) {
	a := &fakeFeature{uri: "http://ex/a"}
	b := &fakeFeature{uri: "http://ex/b", failing: true}
	s := NewFeatureSet(a, b)

	_, err := s.Instantiate()
	assert.ErrorContains(t, err, "http://ex/b")
	assert.Equal(t, 1, a.inits)
	assert.Equal(t, 1, a.cleans)
	assert.Zero(t, b.cleans)
}

func TestDefaultFeatures(t *testing.T) {
	r := NewURIRegistry()
	s := DefaultFeatures(r, nil)
	assert.Equal(t, []string{URIMapURI, URIDMapURI, URIDUnmapURI}, s.URIs())

	f, ok := s.Get(URIDMapURI)
	require.True(t, ok)
	id := f.(*URIDMap).Map("http://ex/a")

	f, ok = s.Get(URIDUnmapURI)
	require.True(t, ok)
	assert.Equal(t, "http://ex/a", f.(*URIDUnmap).Unmap(id))
	assert.Equal(t, "", f.(*URIDUnmap).Unmap(id+1))
}

func TestURIMapQualifierIsIgnored(t *testing.T) {
	var out bytes.Buffer
	log := slog.New(slog.NewTextHandler(&out, nil))
	r := NewURIRegistry()
	m := NewURIMap(r, log)

	assert.Equal(t, uint32(1), m.MapURI("", "http://ex/a"))
	assert.Empty(t, out.String())

	assert.Equal(t, uint32(1), m.MapURI("http://lv2plug.in/ns/ext/event", "http://ex/a"))
	assert.Contains(t, out.String(), "map qualifier not supported")
}

func TestSharedDataLifetime(t *testing.T) {
	r := NewURIRegistry()
	m := NewURIDMap(r)

	require.NoError(t, m.Initialize())
	require.NoError(t, m.Initialize())
	assert.Equal(t, 2, m.Refs())

	m.Cleanup()
	assert.Equal(t, 1, m.Refs())
	m.Cleanup()
	assert.Equal(t, 0, m.Refs())
	assert.Nil(t, m.Data())

	// unbalanced cleanups are ignored
	m.Cleanup()
	assert.Equal(t, 0, m.Refs())
}
