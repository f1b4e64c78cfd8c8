// Package commands implements coapcli's cobra command surface.
package commands

import (
	"os"

	"github.com/lobaro/coap-engine/engine"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	flagVerbose bool
	flagTimeout string
)

var rootCmd = &cobra.Command{
	Use:   "coapcli",
	Short: "Send CoAP requests from the command line",
	Long: `coapcli sends a single CoAP request and prints its response.

Targets use coap:// for RFC 7252 over UDP, or coap+tcp:// for RFC 8323
over TCP.`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log every engine signal to stderr")
	rootCmd.PersistentFlags().StringVar(&flagTimeout, "timeout", "9s", "response timeout")
	rootCmd.AddCommand(getCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// signalSink returns the SignalSink every dialed Handle in this process
// uses: a LogrusSink logging to stderr under -v, NopSink otherwise.
func signalSink() engine.SignalSink {
	if !flagVerbose {
		return engine.NopSink{}
	}
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	return engine.LogrusSink{Logger: logger}
}
