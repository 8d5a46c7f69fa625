// Package nodes registers the processors implemented in Go with the
// plugin table.
package nodes

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dh1tw/plughost/audio"
	"github.com/dh1tw/plughost/audiocodec"
	"github.com/dh1tw/plughost/nodes/gain"
	"github.com/dh1tw/plughost/nodes/meter"
	"github.com/dh1tw/plughost/nodes/player"
	"github.com/dh1tw/plughost/nodes/recorder"
	"github.com/dh1tw/plughost/utils"
)

// Format is the plugin format of the builtin nodes.
const Format = "builtin"

// Factory creates the builtin nodes. Every decodable file in SampleDir is
// offered as a "player:<file name>" plugin. Recorders are only offered if
// RecordDir is set; each one writes to a new file named after the node.
type Factory struct {
	SampleDir  string
	RecordDir  string
	SampleRate float64
}

// Format implements plugin.Factory.
func (f *Factory) Format() string { return Format }

// Names implements plugin.Factory.
func (f *Factory) Names() []string {
	names := []string{gain.Name, meter.Name}
	if f.RecordDir != "" {
		names = append(names, recorder.Name)
	}
	for _, file := range f.samples() {
		names = append(names, player.Name+":"+file)
	}
	return names
}

// New implements plugin.Factory.
func (f *Factory) New(id, name string) (audio.Node, error) {
	switch name {
	case gain.Name:
		return gain.New(id), nil
	case meter.Name:
		return meter.New(id), nil
	case recorder.Name:
		if f.RecordDir == "" {
			break
		}
		file := fmt.Sprintf("%s-%s.wav", filepath.Base(id), time.Now().Format("20060102-150405"))
		return recorder.New(id, filepath.Join(f.RecordDir, file)), nil
	}

	file, ok := strings.CutPrefix(name, player.Name+":")
	if !ok || !utils.StringInSlice(file, f.samples()) {
		return nil, fmt.Errorf("unknown builtin node %s", name)
	}
	buf, err := audiocodec.Decode(filepath.Join(f.SampleDir, file), f.SampleRate)
	if err != nil {
		return nil, err
	}
	return player.New(id, name, buf), nil
}

// samples returns the names of the decodable files in SampleDir.
func (f *Factory) samples() []string {
	if f.SampleDir == "" {
		return nil
	}
	entries, err := os.ReadDir(f.SampleDir)
	if err != nil {
		return nil
	}
	var res []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if _, ok := audiocodec.Lookup(e.Name()); ok {
			res = append(res, e.Name())
		}
	}
	sort.Strings(res)
	return res
}
