package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vibos/pkg/netstack"
)

var pingCount int

var pingCmd = &cobra.Command{
	Use:   "ping [dest-ip]",
	Short: "Send ICMP echo requests and report the peer's replies",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dest, err := resolveTarget(args)
		if err != nil {
			return err
		}
		s, ref, err := buildStack()
		if err != nil {
			return err
		}

		fmt.Printf("PING %s\n", netstack.FormatIPv4(dest))
		for seq := 1; seq <= pingCount; seq++ {
			if err := s.SendEcho(dest, 1, uint16(seq)); err != nil {
				return err
			}
			ref.Pump()
			fmt.Printf("echo request seq=%d: %d bytes on the wire\n", seq, len(ref.Last()))
		}

		for _, ifc := range s.Interfaces() {
			if ifc.Send != nil {
				fmt.Printf("%s: %d packets sent, %d received\n", ifc.Name, ifc.TxPackets, ifc.RxPackets)
			}
		}
		return nil
	},
}

func init() {
	pingCmd.Flags().IntVarP(&pingCount, "count", "n", 3, "number of echo requests")
}
