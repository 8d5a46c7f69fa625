package cmd

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var version string
var commitHash string

// versionCmd represents the version command
var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of plughost",
	Long:  `All software has versions. This is plughost's.`,
	Run: func(cmd *cobra.Command, args []string) {
		printPlughostVersion()
	},
}

func init() {
	RootCmd.AddCommand(versionCmd)
}

func printPlughostVersion() {
	// version and commitHash are injected with -ldflags; fall back to the
	// module build info for plain go install builds
	v, commit := version, commitHash
	if info, ok := debug.ReadBuildInfo(); ok {
		if v == "" {
			v = info.Main.Version
		}
		for _, s := range info.Settings {
			if s.Key == "vcs.revision" && commit == "" {
				commit = s.Value
			}
		}
	}
	if v == "" {
		v = "dev"
	}
	fmt.Printf("plughost Version: %s, %s/%s, %s, Commit: %s\n",
		v, runtime.GOOS, runtime.GOARCH, runtime.Version(), commit)
}
