// Command coapcli sends a single CoAP request from the command line,
// against coap:// (UDP) or coap+tcp:// (TCP) targets.
package main

import (
	"fmt"
	"os"

	"github.com/lobaro/coap-engine/cmd/coapcli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
