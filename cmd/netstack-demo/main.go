// netstack-demo drives the vibos protocol engine from the command line over
// an in-memory link that plays the remote peer: ping, arping, UDP send and a
// full TCP connect/send/close round trip.
package main

import "os"

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
