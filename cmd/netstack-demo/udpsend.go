package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vibos/pkg/netstack"
)

var (
	udpSrcPort uint16
	udpDstPort uint16
)

var udpsendCmd = &cobra.Command{
	Use:   "udpsend [dest-ip] <message>",
	Short: "Send a one-shot UDP datagram, fire-and-forget",
	Args:  cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		message := args[len(args)-1]
		dest, err := resolveTarget(args[:len(args)-1])
		if err != nil {
			return err
		}
		s, ref, err := buildStack()
		if err != nil {
			return err
		}

		n, err := s.SendUDP(dest, udpSrcPort, udpDstPort, []byte(message))
		if err != nil {
			return err
		}
		fmt.Printf("sent %d bytes to %s:%d (%d bytes on the wire)\n",
			n, netstack.FormatIPv4(dest), udpDstPort, len(ref.Last()))
		return nil
	},
}

func init() {
	udpsendCmd.Flags().Uint16Var(&udpSrcPort, "sport", 12345, "source port")
	udpsendCmd.Flags().Uint16Var(&udpDstPort, "dport", 7, "destination port")
}
