package cmd

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// RootCmd represents the base command when called without any subcommands
var RootCmd = &cobra.Command{
	Use:   "plughost",
	Short: "Real-time audio plugin host",
	Long: `plughost hosts LADSPA plugins and built-in processors in a
real-time audio graph and exposes it through a REST API and NATS.`,
}

// Execute adds all child commands to the root command sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := RootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	RootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./plughost.yaml or $HOME/.config/plughost/plughost.yaml)")
	RootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	viper.BindPFlag("log.level", RootCmd.PersistentFlags().Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		viper.SetConfigName("plughost")
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "plughost"))
		}
	}

	viper.SetEnvPrefix("plughost")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()
}

// readConfig loads the config file. A missing file is not an error.
func readConfig() error {
	err := viper.ReadInConfig()
	if err == nil {
		fmt.Println("Using config file:", viper.ConfigFileUsed())
		return nil
	}
	if _, ok := err.(viper.ConfigFileNotFoundError); ok {
		fmt.Println("no config file found")
		return nil
	}
	return fmt.Errorf("error parsing config file %v: %w", viper.ConfigFileUsed(), err)
}

// newLogger returns a text logger writing to stderr at the configured
// level.
func newLogger() (*slog.Logger, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(viper.GetString("log.level"))); err != nil {
		return nil, &parmError{
			parm: "log.level",
			msg:  "allowed values are debug, info, warn, error",
		}
	}
	h := slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	return slog.New(h), nil
}

// exit prints the error to stderr and returns with exit code 1
func exit(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
