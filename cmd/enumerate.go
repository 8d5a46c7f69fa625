// Copyright © 2016 Tobias Wellnitz, DH1TW <Tobias.Wellnitz@gmail.com>
//
// Permission is hereby granted, free of charge, to any person obtaining a copy
// of this software and associated documentation files (the "Software"), to deal
// in the Software without restriction, including without limitation the rights
// to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
// copies of the Software, and to permit persons to whom the Software is
// furnished to do so, subject to the following conditions:
//
// The above copyright notice and this permission notice shall be included in
// all copies or substantial portions of the Software.
//
// THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
// IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
// FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
// AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
// LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
// OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
// THE SOFTWARE.

package cmd

import (
	"fmt"
	"os"
	"text/template"

	"github.com/dh1tw/plughost/backend"
	pabackend "github.com/dh1tw/plughost/backend/portaudio"
	"github.com/gordonklaus/portaudio"
	"github.com/spf13/cobra"
)

// enumerateCmd represents the enumerate command
var enumerateCmd = &cobra.Command{
	Use:   "enumerate",
	Short: "List the audio backends, devices and supported Host APIs",
	Long: `List the audio backends, devices and supported Host APIs

The device and host API names can be used with the --input-device,
--output-device and --host-api flags of the serve command.`,
	Run: func(cmd *cobra.Command, args []string) {
		enumerate()
	},
}

func init() {
	RootCmd.AddCommand(enumerateCmd)
}

var tmpl = template.Must(template.New("").Parse(
	`
Audio backends:{{range .Backends}}
	{{.}}{{end}}

Host API names accepted by --host-api:
	{{range .HostAPINames}}{{.}} {{end}}

Available audio devices and supported Host APIs:

	Detected {{.HostAPIs | len}} host API(s): {{range .HostAPIs}}
	
	Name:                   {{.Name}}
	{{if .DefaultInputDevice}}Default input device:   {{.DefaultInputDevice.Name}}{{end}}
	{{if .DefaultOutputDevice}}Default output device:  {{.DefaultOutputDevice.Name}}{{end}}
	Devices: {{range .Devices}}
		Name:                      {{.Name}}
		MaxInputChannels:          {{.MaxInputChannels}}
		MaxOutputChannels:         {{.MaxOutputChannels}}
		DefaultLowInputLatency:    {{.DefaultLowInputLatency}}
		DefaultLowOutputLatency:   {{.DefaultLowOutputLatency}}
		DefaultHighInputLatency:   {{.DefaultHighInputLatency}}
		DefaultHighOutputLatency:  {{.DefaultHighOutputLatency}}
		DefaultSampleRate:         {{.DefaultSampleRate}}
		HostApi:                   {{.HostApi.Name}}
	{{end}}
{{end}}`,
))

// enumerate lists the registered backends and all audio devices on the
// system
func enumerate() {
	registerProviders(nil)

	if err := portaudio.Initialize(); err != nil {
		exit(err)
	}
	defer portaudio.Terminate()

	hs, err := portaudio.HostApis()
	if err != nil {
		exit(err)
	}

	var names []string
	for _, n := range backend.Names() {
		p, _ := backend.Lookup(n)
		names = append(names, fmt.Sprintf("%-10s %s", n, p.DisplayName()))
	}

	err = tmpl.Execute(os.Stdout, map[string]interface{}{
		"Backends":     names,
		"HostAPINames": pabackend.HostAPINames(),
		"HostAPIs":     hs,
	})
	if err != nil {
		fmt.Println(err)
	}
}
