package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	connectPort uint16
	connectData string
)

var connectCmd = &cobra.Command{
	Use:   "connect [dest-ip]",
	Short: "Run a TCP active open, data exchange and orderly close",
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

		idx, err := s.Connect(dest, connectPort)
		if err != nil {
			return err
		}
		conn := s.Connection(idx)
		fmt.Printf("connecting from port %d, state %s\n", conn.LocalPort, conn.State)

		ref.Pump()
		fmt.Printf("handshake complete, state %s\n", conn.State)

		if connectData != "" {
			n, err := s.Send(idx, []byte(connectData))
			if err != nil {
				return err
			}
			ref.Pump()
			fmt.Printf("sent %d bytes\n", n)
		}

		if err := s.Close(idx); err != nil {
			return err
		}
		fmt.Printf("closing, state %s\n", conn.State)

		ref.Pump()
		if s.Connection(idx) == nil {
			fmt.Println("connection slot released")
		} else {
			fmt.Printf("final state %s\n", s.Connection(idx).State)
		}
		return nil
	},
}

func init() {
	connectCmd.Flags().Uint16VarP(&connectPort, "port", "p", 80, "destination TCP port")
	connectCmd.Flags().StringVarP(&connectData, "data", "d", "GET / HTTP/1.0\r\n\r\n", "payload to send once established")
}
