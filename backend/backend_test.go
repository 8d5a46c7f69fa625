package backend

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	err error
	cfg Config
}

func (p *fakeProvider) DisplayName() string { return "fake" }

func (p *fakeProvider) CreateBackend(cfg Config) (Backend, error) {
	p.cfg = cfg
	return nil, p.err
}

func TestRegistration(t *testing.T) {
	boom := errors.New("no hardware")
	ok := &fakeProvider{}
	broken := &fakeProvider{err: boom}

	Register("test-ok", ok)
	Register("test-broken", broken)

	assert.Panics(t, func() { Register("test-ok", ok) })

	names := Names()
	assert.Contains(t, names, "test-ok")
	assert.Contains(t, names, "test-broken")
	assert.IsIncreasing(t, names)

	p, found := Lookup("test-ok")
	require.True(t, found)
	assert.Equal(t, "fake", p.DisplayName())

	_, err := Create("test-ok", Config{SampleRate: 48000})
	require.NoError(t, err)
	assert.Equal(t, float64(48000), ok.cfg.SampleRate)

	_, err = Create("test-broken", Config{})
	assert.ErrorIs(t, err, boom)

	_, err = Create("missing", Config{})
	assert.Error(t, err)
}
