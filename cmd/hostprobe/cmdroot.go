// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/siemens/hostprobe/dig"

	"github.com/spf13/cobra"
	"github.com/thediveo/lxkns/log"
)

// settings of a single CLI run, as set by the command line flags.
type settings struct {
	indentation     uint
	spinnerInterval time.Duration
	workerNumber    uint
	timeout         time.Duration
	dnsServer       string
	netns           string
	hostsFile       string
	debug           bool
	ping            bool
	unprivileged    bool
	strict          bool
	insecure        bool
	privateOnly     bool
	publicOnly      bool
}

func newRootCmd() (rootCmd *cobra.Command) {
	opts := &settings{}
	rootCmd = &cobra.Command{
		Use:     "hostprobe [flags] host...",
		Short:   "hostprobe resolves hosts, classifies their addresses, and probes their HTTPS/HTTP reachability",
		Version: "0.9",
		PersistentPreRunE: func(_ *cobra.Command, _ []string) error {
			if opts.indentation > 80 {
				return fmt.Errorf("--indent width out of range [0..80]")
			}
			if opts.workerNumber < 1 || opts.workerNumber > 64 {
				return fmt.Errorf("--workers out of range [1..64]")
			}
			if opts.spinnerInterval < 10*time.Millisecond {
				return fmt.Errorf("--spinner must be at least 10ms")
			}
			if opts.timeout < 100*time.Millisecond {
				return fmt.Errorf("--timeout must be at least 100ms")
			}
			if opts.unprivileged && !opts.ping {
				return fmt.Errorf("--unprivileged requires --ping")
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.debug {
				log.SetLevel(log.DebugLevel)
				log.Debugf("debug logging enabled")
			}
			hosts := args
			if opts.hostsFile != "" {
				filehosts, err := dig.ReadHostsFile(opts.hostsFile)
				if err != nil {
					return err
				}
				hosts = append(hosts, filehosts...)
			}
			hosts = dig.UniqueHosts(hosts)
			if len(hosts) == 0 {
				return errors.New("no hosts to probe")
			}
			return ProbeAndReport(cmd.Context(), opts, hosts)
		},
	}
	// Sets up the flags.
	flags := rootCmd.PersistentFlags()
	flags.BoolVar(&opts.debug,
		"debug", false, "enable debugging output")
	flags.UintVar(&opts.indentation,
		"indent", 3, "indentation width")
	flags.DurationVar(&opts.spinnerInterval,
		"spinner", 100*time.Millisecond, "spinner interval")
	flags.UintVar(&opts.workerNumber,
		"workers", 8, "number of DNS, probing, and ping workers")
	flags.DurationVar(&opts.timeout,
		"timeout", 5*time.Second, "timeout per HTTPS and HTTP attempt")
	flags.StringVar(&opts.dnsServer,
		"dns", "", "DNS server host:port to resolve with (default: system resolver, and first nameserver in /etc/resolv.conf for A/AAAA queries)")
	flags.StringVar(&opts.netns,
		"netns", "", "path of network namespace to resolve and probe from")
	flags.StringVarP(&opts.hostsFile,
		"file", "f", "", "file with hosts to probe, one per line")
	flags.BoolVar(&opts.ping,
		"ping", false, "additionally verify resolved addresses by pinging them")
	flags.BoolVar(&opts.unprivileged,
		"unprivileged", false, "use unprivileged UDP pings instead of ICMP")
	flags.BoolVar(&opts.strict,
		"strict", false, "classify normalized addresses against proper CIDR ranges")
	flags.BoolVar(&opts.insecure,
		"insecure", false, "accept self-signed and otherwise invalid server certificates when probing HTTPS")
	flags.BoolVar(&opts.privateOnly,
		"private-only", false, "show only hosts with private addresses")
	flags.BoolVar(&opts.publicOnly,
		"public-only", false, "show only hosts with only public addresses")
	rootCmd.MarkFlagsMutuallyExclusive("private-only", "public-only")
	return
}
