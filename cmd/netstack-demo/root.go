package main

import (
	"fmt"
	"net"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"vibos/internal/link"
	"vibos/pkg/netstack"
)

var configFile string

var rootCmd = &cobra.Command{
	Use:   "netstack-demo",
	Short: "Exercise the vibos TCP/IP protocol engine over an in-memory link",
	Long: `netstack-demo builds a protocol stack, attaches a scripted peer in place
of a real network driver, and drives the engine's entry points: ARP
resolution, ICMP echo, UDP datagrams and the TCP state machine.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if configFile != "" {
			viper.SetConfigFile(configFile)
			if err := viper.ReadInConfig(); err != nil {
				return fmt.Errorf("reading config: %w", err)
			}
		}
		level, err := logrus.ParseLevel(viper.GetString("log-level"))
		if err != nil {
			return err
		}
		logrus.SetLevel(level)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (yaml)")
	rootCmd.PersistentFlags().String("iface-name", "eth0", "interface name")
	rootCmd.PersistentFlags().String("ip", "10.0.2.15", "interface IPv4 address")
	rootCmd.PersistentFlags().String("netmask", "255.255.255.0", "interface netmask")
	rootCmd.PersistentFlags().String("gateway", "10.0.2.2", "default gateway")
	rootCmd.PersistentFlags().String("mac", "52:54:00:12:34:56", "interface MAC address")
	rootCmd.PersistentFlags().String("peer", "10.0.2.2", "peer IPv4 address for the in-memory link")
	rootCmd.PersistentFlags().String("log-level", "info", "log level (debug, info, warn, error)")
	_ = viper.BindPFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(pingCmd)
	rootCmd.AddCommand(arpingCmd)
	rootCmd.AddCommand(udpsendCmd)
	rootCmd.AddCommand(connectCmd)
}

// buildStack constructs a stack with the configured interface and wires a
// reflector link as its driver.
func buildStack() (*netstack.Stack, *link.Reflector, error) {
	ip, err := netstack.ParseIPv4(viper.GetString("ip"))
	if err != nil {
		return nil, nil, err
	}
	netmask, err := netstack.ParseIPv4(viper.GetString("netmask"))
	if err != nil {
		return nil, nil, err
	}
	gateway, err := netstack.ParseIPv4(viper.GetString("gateway"))
	if err != nil {
		return nil, nil, err
	}
	peer, err := netstack.ParseIPv4(viper.GetString("peer"))
	if err != nil {
		return nil, nil, err
	}
	mac, err := net.ParseMAC(viper.GetString("mac"))
	if err != nil {
		return nil, nil, err
	}

	s := netstack.New()
	ifc, err := s.AddInterface(viper.GetString("iface-name"), mac, ip, netmask, gateway)
	if err != nil {
		return nil, nil, err
	}

	ref := &link.Reflector{
		Stack:   s,
		Iface:   ifc,
		PeerIP:  peer,
		PeerMAC: net.HardwareAddr{0x52, 0x55, 0x0A, 0x00, 0x02, 0x02},
		ISS:     1000,
	}
	ifc.Send = ref.Send

	return s, ref, nil
}

// resolveTarget returns the positional destination argument, or the
// configured peer when none is given.
func resolveTarget(args []string) (uint32, error) {
	if len(args) > 0 {
		return netstack.ParseIPv4(args[0])
	}
	return netstack.ParseIPv4(viper.GetString("peer"))
}
