package main

import (
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/gregLibert/sim-trace/pkg/apdu"
	"github.com/gregLibert/sim-trace/pkg/filesystem"
	"github.com/gregLibert/sim-trace/pkg/source"
	"github.com/gregLibert/sim-trace/pkg/tracer"
	"github.com/gregLibert/sim-trace/pkg/uicc"
)

var (
	showSelect bool
	showStatus bool
)

func main() {
	root := &cobra.Command{
		Use:   "sim-trace",
		Short: "Decode SIM/UICC APDU traces into a human-readable log",
		Long: `sim-trace reconstructs what happened between a terminal and its SIM/UICC
from a passive capture of the APDU traffic. It tracks file selections and
logical channels across the trace, so every command is reported with the
file-system context it actually executed in.`,
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVar(&showSelect, "show-select", false,
		"also print SELECT FILE commands (suppressed by default)")
	root.PersistentFlags().BoolVar(&showStatus, "show-status", false,
		"also print STATUS polling commands (suppressed by default)")

	root.AddCommand(newUDPCommand(), newPcapCommand())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newUDPCommand() *cobra.Command {
	var bindIP string
	var port int

	cmd := &cobra.Command{
		Use:   "gsmtap-udp",
		Short: "Decode live GSMTAP SIM traffic from a UDP socket",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.NewUDPSource(bindIP, port)
			if err != nil {
				return err
			}
			defer func() {
				if err := src.Close(); err != nil {
					log.Printf("Warning: Failed to close UDP source: %v", err)
				}
			}()

			log.Printf("listening for GSMTAP on %s:%d", bindIP, port)
			return runTrace(src)
		},
	}

	cmd.Flags().StringVar(&bindIP, "bind-ip", "127.0.0.1", "local address to bind the GSMTAP listener to")
	cmd.Flags().IntVar(&port, "bind-port", source.DefaultPort, "local UDP port to listen on")
	return cmd
}

func newPcapCommand() *cobra.Command {
	var path string
	var port uint16

	cmd := &cobra.Command{
		Use:   "gsmtap-pcap",
		Short: "Decode GSMTAP SIM traffic replayed from a pcap file",
		RunE: func(cmd *cobra.Command, args []string) error {
			src, err := source.NewPcapSource(path, port)
			if err != nil {
				return err
			}
			defer func() {
				if err := src.Close(); err != nil {
					log.Printf("Warning: Failed to close capture: %v", err)
				}
			}()

			return runTrace(src)
		},
	}

	cmd.Flags().StringVar(&path, "pcap-file", "", "capture file to replay")
	cmd.Flags().Uint16Var(&port, "udp-port", source.DefaultPort, "UDP destination port carrying GSMTAP (0 for any)")
	if err := cmd.MarkFlagRequired("pcap-file"); err != nil {
		log.Fatalf("Error marking flag required: %v", err)
	}
	return cmd
}

// runTrace assembles the decode pipeline over the default UICC card model and
// the merged SIM + UICC + USIM command sets, then drains the source.
func runTrace(src apdu.Source) error {
	state := filesystem.NewRuntimeState(filesystem.DefaultUICCProfile())
	decoder := apdu.NewDecoder(uicc.DefaultCommands())

	t := tracer.New(state, decoder, src, os.Stdout, tracer.Options{
		ShowSelect: showSelect,
		ShowStatus: showStatus,
	})
	return t.Run()
}
