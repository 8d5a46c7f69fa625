package cmd

import (
	"fmt"
	"os"
	"text/template"

	"github.com/dh1tw/plughost/nodes"
	"github.com/dh1tw/plughost/plugin"
	"github.com/dh1tw/plughost/plugin/ladspa"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// pluginsCmd represents the plugins command
var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List all plugins the host can instantiate",
	Long: `List all plugins the host can instantiate

LADSPA libraries are searched in the directories given with --ladspa-path
(or ladspa.path in the config file), $LADSPA_PATH or the system locations.
Libraries which can not be loaded are listed at the end.`,
	Run: listPlugins,
}

func init() {
	RootCmd.AddCommand(pluginsCmd)
	pluginsCmd.Flags().StringSlice("ladspa-path", nil, "LADSPA plugin directories")
	pluginsCmd.Flags().String("samples", "", "directory with audio files offered as player nodes")
	pluginsCmd.Flags().BoolP("verbose", "v", false, "show the ports of LADSPA plugins")
}

var pluginsTmpl = template.Must(template.New("").Parse(
	`
Node types ({{.Entries | len}}):
{{range .Entries}}
	{{.Ref}}{{end}}
{{if .Verbose}}
LADSPA plugins ({{.Descriptors | len}}):
{{range .Descriptors}}
	{{.}}
		Maker:      {{.Maker}}
		Library:    {{.Library}}
		Realtime:   {{.Realtime}}
		Ports:{{range .Ports}}
			{{.Name}} ({{.Direction}} {{.Type}}){{end}}
{{end}}{{end}}{{if .Errors}}
Skipped libraries ({{.Errors | len}}):
{{range .Errors}}
	{{.}}{{end}}
{{end}}`,
))

func listPlugins(cmd *cobra.Command, args []string) {

	viper.BindPFlag("ladspa.path", cmd.Flags().Lookup("ladspa-path"))
	viper.BindPFlag("samples.dir", cmd.Flags().Lookup("samples"))

	if err := readConfig(); err != nil {
		exit(err)
	}

	logger, err := newLogger()
	if err != nil {
		exit(err)
	}
	registerProviders(logger)

	path := viper.GetStringSlice("ladspa.path")
	if len(path) == 0 {
		path = ladspa.DefaultSearchPath()
	}

	registry := ladspa.NewRegistry(ladspa.Logger(logger))
	defer registry.Close()
	registry.Discover(path)

	sr := viper.GetFloat64("engine.sample-rate")
	table := plugin.NewTable(
		&nodes.Factory{SampleDir: viper.GetString("samples.dir"), SampleRate: sr},
		&ladspa.Factory{Registry: registry, SampleRate: sr},
	)

	verbose, _ := cmd.Flags().GetBool("verbose")

	err = pluginsTmpl.Execute(os.Stdout, map[string]interface{}{
		"Entries":     table.Entries(),
		"Descriptors": registry.Descriptors(),
		"Errors":      registry.Errors(),
		"Verbose":     verbose,
	})
	if err != nil {
		fmt.Println(err)
	}
}
