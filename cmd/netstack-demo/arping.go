package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"vibos/pkg/netstack"
)

var arpingCmd = &cobra.Command{
	Use:   "arping [dest-ip]",
	Short: "Broadcast an ARP request and print the resolved MAC",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		target, err := resolveTarget(args)
		if err != nil {
			return err
		}
		s, ref, err := buildStack()
		if err != nil {
			return err
		}

		if err := s.SendARPRequest(target); err != nil {
			return err
		}
		ref.Pump()

		mac, ok := s.ARPLookup(target)
		if !ok {
			return fmt.Errorf("no ARP reply for %s", netstack.FormatIPv4(target))
		}
		fmt.Printf("%s is at %s\n", netstack.FormatIPv4(target), mac)
		return nil
	},
}
