package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStringInSlice(t *testing.T) {
	list := []string{"alsa", "jack"}
	assert.True(t, StringInSlice("jack", list))
	assert.False(t, StringInSlice("oss", list))
	assert.False(t, StringInSlice("", nil))
}

func TestUniqueStrings(t *testing.T) {
	in := []string{"/usr/lib/ladspa", "", "/usr/local/lib/ladspa", "/usr/lib/ladspa"}
	assert.Equal(t, []string{"/usr/lib/ladspa", "/usr/local/lib/ladspa"}, UniqueStrings(in))
	assert.Empty(t, UniqueStrings(nil))
}
