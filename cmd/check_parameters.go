package cmd

import (
	"fmt"

	"github.com/dh1tw/plughost/backend"
	"github.com/dh1tw/plughost/backend/portaudio"
	"github.com/dh1tw/plughost/utils"
	"github.com/spf13/viper"
)

// supported by the engine and the built-in nodes
var sampleRates = []float64{22050, 32000, 44100, 48000, 88200, 96000, 192000}

func checkParameterValues() error {

	sr := viper.GetFloat64("engine.sample-rate")
	supported := false
	for _, s := range sampleRates {
		if s == sr {
			supported = true
			break
		}
	}
	if !supported {
		return &parmError{
			parm: "engine.sample-rate",
			msg:  fmt.Sprintf("allowed values are %v", sampleRates),
		}
	}

	if bl := viper.GetInt("engine.block-length"); bl < 16 || bl > 8192 || bl&(bl-1) != 0 {
		return &parmError{
			parm: "engine.block-length",
			msg:  "value must be a power of two in [16...8192]",
		}
	}

	if viper.GetInt("engine.queue-capacity") <= 0 {
		return &parmError{
			parm: "engine.queue-capacity",
			msg:  "value must be > 0",
		}
	}

	if viper.GetInt("engine.commands-per-cycle") <= 0 {
		return &parmError{
			parm: "engine.commands-per-cycle",
			msg:  "value must be > 0",
		}
	}

	if name := viper.GetString("backend.name"); !utils.StringInSlice(name, backend.Names()) {
		return &parmError{
			parm: "backend.name",
			msg:  fmt.Sprintf("allowed values are %v", backend.Names()),
		}
	}

	if api := viper.GetString("portaudio.host-api"); !utils.StringInSlice(api, portaudio.HostAPINames()) {
		return &parmError{
			parm: "portaudio.host-api",
			msg:  fmt.Sprintf("allowed values are %v", portaudio.HostAPINames()),
		}
	}

	for _, key := range []string{"portaudio.input-channels", "portaudio.output-channels"} {
		if chs := viper.GetInt(key); chs < 0 || chs > 2 {
			return &parmError{
				parm: key,
				msg:  "allowed values are [0 (disabled), 1 (Mono), 2 (Stereo)]",
			}
		}
	}

	if p := viper.GetInt("web.port"); p < 0 || p > 65535 {
		return &parmError{
			parm: "web.port",
			msg:  "allowed values are [0...65535] (0 disables the webserver)",
		}
	}

	return nil
}

type parmError struct {
	parm string
	msg  string
}

func (p *parmError) Error() string {
	return fmt.Sprintf("%v: %v\n", p.parm, p.msg)
}
