// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"context"
	"fmt"
	"io"
	"net"
	"os"
	"time"

	"github.com/siemens/hostprobe/dig"
	"github.com/siemens/hostprobe/dnsworker"
	"github.com/siemens/hostprobe/ipclass"
	"github.com/siemens/hostprobe/ping"
	"github.com/siemens/hostprobe/probe"
	"github.com/siemens/hostprobe/resolve"
	"github.com/siemens/hostprobe/verifier"

	"github.com/gosuri/uilive"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
)

// For CLI unit tests...
var stdout io.Writer = os.Stdout

// ProbeAndReport digs the addresses of the specified hosts, classifies them as
// private or public, and probes the hosts for HTTPS/HTTP reachability, and
// optionally pings the addresses. The findings are rendered live to the
// terminal.
func ProbeAndReport(ctx context.Context, opts *settings, hosts []string) error {
	// Now lets put the required processing elements and their plumbing in
	// place.
	//
	//   - Digger producing classified IP addresses from a list of hosts.
	//   - Verifier probing the hosts and optionally pinging the IPs,
	//     producing "verdicts".
	//   - NamedAddressMap consuming these "verdicts".
	//
	// Rendering is done on the information collected by the NamedAddressMap.
	classifierOpts := []ipclass.Option{}
	if opts.strict {
		classifierOpts = append(classifierOpts, ipclass.WithNormalization())
	}
	classifier, err := ipclass.NewClassifier(classifierOpts...)
	if err != nil {
		return fmt.Errorf("cannot classify addresses: %w", err)
	}

	netres := newNetResolver(opts)
	sys := resolve.System(netres)
	resolverOpts := []resolve.Option{
		resolve.WithLookup(sys),
		resolve.WithHostLookup(sys),
		resolve.WithStageTimeout(opts.timeout),
	}
	pool, err := newDnsPool(ctx, opts)
	if err != nil {
		return err
	}
	if pool != nil {
		defer pool.StopWait()
		resolverOpts = append(resolverOpts, resolve.WithRecords(resolve.Pool(pool)))
	}
	resolver := resolve.New(resolverOpts...)

	digger, diggernews, err := dig.New(int(opts.workerNumber), resolver, classifier)
	if err != nil {
		return fmt.Errorf("cannot dig address information: %w", err)
	}

	clientOpts := []probe.ClientOption{
		probe.ClientInNetworkNamespace(opts.netns),
		probe.ClientWithResolver(netres),
	}
	if opts.insecure {
		clientOpts = append(clientOpts, probe.ClientInsecure())
	}
	prober := probe.New(probe.NewClient(clientOpts...))
	verifierOpts := []verifier.Option{verifier.WithTimeout(opts.timeout)}
	if opts.ping {
		pingOpts := []ping.PingerOption{ping.InNetworkNamespace(opts.netns)}
		if opts.unprivileged {
			pingOpts = append(pingOpts, ping.AsUnprivileged())
		}
		verifierOpts = append(verifierOpts, verifier.WithPinger(int(opts.workerNumber), pingOpts...))
	}
	verifier, news := verifier.New(int(opts.workerNumber), prober, verifierOpts...)

	// Create an empty (concurrency-safe) result map with named-and-qualified
	// addresses and immediately fire off the rendering goroutine. The rendering
	// will only stop after tracking has finished because the result stream
	// channel has been closed. We then render a final update and end rendering,
	// signalling the end of our activities via renderingDone.
	namaddrs := dig.NewNamedAddressesMap()
	trackingDone := make(chan struct{})
	renderingDone := make(chan struct{})

	var filters []dig.Filter
	switch {
	case opts.privateOnly:
		filters = append(filters, dig.PrivateOnly)
	case opts.publicOnly:
		filters = append(filters, dig.PublicOnly)
	}

	go func() {
		// We avoid uilive's background updating using Start() as it may
		// trigger anytime with the rendering into the buffer not yet
		// complete. Instead we explicitly flush to the terminal after having
		// completed the rendering.
		term := uilive.New()
		term.Out = stdout
		renderer := newRenderer(term, len(hosts), opts)
		defer func() {
			renderer.Final = true
			renderData(term, renderer, namaddrs, filters)
			renderer.Stop()
			close(renderingDone)
		}()
		renderData(term, renderer, namaddrs, filters)
		ticker := time.NewTicker(20 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				renderData(term, renderer, namaddrs, filters)
			case <-trackingDone:
				return
			}
		}
	}()

	go verifier.Verify(ctx, diggernews)
	go func() {
		_ = namaddrs.Track(ctx, news)
		close(trackingDone)
	}()

	// Finally feed the hosts into the Digger, so they can be processed and
	// move through the different stages. Then close the input stream and wait
	// for all the data to pass the stages and finally get rendered a last
	// time.
	go func() {
		digger.DigHosts(ctx, hosts)
		digger.StopWait()
	}()
	<-renderingDone

	return ctx.Err()
}

// newNetResolver returns a resolver sending all its queries to the explicitly
// specified DNS server, or nil if there is none in order to use the default
// resolver.
func newNetResolver(opts *settings) *net.Resolver {
	if opts.dnsServer == "" {
		return nil
	}
	server := opts.dnsServer
	return &net.Resolver{
		PreferGo: true,
		Dial: func(ctx context.Context, network, _ string) (net.Conn, error) {
			var d net.Dialer
			return d.DialContext(ctx, network, server)
		},
	}
}

// newDnsPool returns a DNS worker pool querying either the explicitly
// specified DNS server or otherwise the first DNS server from resolv.conf. If
// there is no DNS server to be found, newDnsPool returns a nil pool, so the
// A/AAAA record stage will be skipped.
func newDnsPool(ctx context.Context, opts *settings) (*dnsworker.DnsPool, error) {
	server := opts.dnsServer
	if server == "" {
		var err error
		server, err = dnsworker.ServerFromResolvConf(dnsworker.DefaultResolvConf)
		if err != nil {
			log.Warnf("no DNS server for A/AAAA queries: %s", err.Error())
			return nil, nil
		}
	}
	pool, err := dnsworker.New(ctx,
		int(opts.workerNumber),
		&dns.Client{Timeout: opts.timeout},
		server,
		dnsworker.InNetworkNamespace(opts.netns))
	if err != nil {
		return nil, fmt.Errorf("cannot query DNS server %s: %w", server, err)
	}
	return pool, nil
}

// renderData gets the current named+verified address data and then renders
// (and flushes) it to the terminal.
func renderData(term *uilive.Writer, r *renderer, data *dig.NamedAddressesMap, filters []dig.Filter) {
	r.Render(data.Get(filters...))
	_ = term.Flush()
}
