// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"errors"
	"net"
	"sync"

	"github.com/siemens/hostprobe/ipclass"
	"github.com/siemens/hostprobe/resolve"
	"github.com/siemens/hostprobe/types"

	"github.com/gammazero/workerpool"
	"github.com/thediveo/lxkns/log"
)

// Digger resolves the IPv4 and IPv6 addresses of host names, classifies them
// into private and public ones, and then streams its findings over its “news”
// channel.
//
// By connecting the news (output) channel of a Digger to the input channel of
// a Verifier the reachability of the hosts dug can automatically be probed.
type Digger struct {
	resolver   *resolve.Resolver
	classifier *ipclass.Classifier
	workers    *workerpool.WorkerPool
	news       chan types.NamedAddress
	stopOnce   sync.Once
}

// New returns a new Digger with a maximum worker pool of the specified size as
// well as a “news stream”. This news channel sends NamedAddress elements as
// hosts are submitted for digging, as well as the outcome(s) of the digs. The
// news channel gets closed only by [Digger.StopWait].
//
// A nil classifier defaults to the pragmatic [ipclass.New] classifier.
func New(size int, resolver *resolve.Resolver, classifier *ipclass.Classifier) (*Digger, <-chan types.NamedAddress, error) {
	if size < 1 {
		return nil, nil, errors.New("digger needs at least one worker")
	}
	if resolver == nil {
		return nil, nil, errors.New("digger needs a resolver")
	}
	if classifier == nil {
		classifier = ipclass.New()
	}
	news := make(chan types.NamedAddress, size)
	return &Digger{
		resolver:   resolver,
		classifier: classifier,
		workers:    workerpool.New(size),
		news:       news,
	}, news, nil
}

// DigHosts digs the given list of host names. Intermediate and final results
// are getting sent to the channel returned beforehand by New.
//
// Hosts may carry a port in the form of “host:port”, in which case only the
// host part is resolved.
//
// Each host is first announced without any address, so that consumers learn
// about all hosts to come before their addresses trickle in. Hosts that do not
// resolve at all are thus still known to consumers, just without addresses.
func (d *Digger) DigHosts(ctx context.Context, hosts []string) {
	for _, host := range hosts {
		host := host
		// We only block if the consumer doesn't consume our news ... and then
		// only until the context gets cancelled.
		if !d.send(ctx, &types.NamedAddressValue{Host: host}) {
			return
		}
		d.workers.Submit(func() {
			addrs := d.resolver.ResolveHost(ctx, hostname(host))
			log.Debugf("dug %q: %v", host, addrs)
			for _, addr := range addrs {
				if !d.send(ctx, &types.NamedAddressValue{
					Host: host,
					QualifiedAddressValue: types.QualifiedAddressValue{
						Address:   addr,
						Quality:   types.Unverified,
						AddrScope: d.classifier.Scope(addr),
					},
				}) {
					return
				}
			}
		})
	}
}

// hostname returns the host name part of a “host:port”, or otherwise the host
// unchanged.
func hostname(host string) string {
	if name, _, err := net.SplitHostPort(host); err == nil {
		return name
	}
	return host
}

// send the named address as news, unless the context is done first.
func (d *Digger) send(ctx context.Context, na types.NamedAddress) bool {
	select {
	case d.news <- na:
		return true
	case <-ctx.Done():
		return false
	}
}

// StopWait waits for all queued tasks to get processed and then finally closes
// the news channel.
func (d *Digger) StopWait() {
	d.stopOnce.Do(func() {
		d.workers.StopWait()
		close(d.news)
	})
}
