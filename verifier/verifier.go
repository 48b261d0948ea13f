// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"time"

	"github.com/siemens/hostprobe/ping"
	"github.com/siemens/hostprobe/probe"
	"github.com/siemens/hostprobe/types"

	"github.com/gammazero/workerpool"
	"github.com/thediveo/lxkns/log"
)

// DefaultTimeout is the per-attempt timeout for probing hosts, unless
// specified otherwise.
const DefaultTimeout = 5 * time.Second

// Verifier probes the reachability of the hosts in a stream of named
// addresses and optionally verifies the addresses themselves by pinging them,
// caching verification results as to avoid unnecessary duplicate verification
// attempts.
type Verifier struct {
	news    chan types.NamedAddress
	prober  *probe.Prober
	timeout time.Duration
	probes  *workerpool.WorkerPool
	pinger  *ping.Pinger
	checked <-chan types.QualifiedAddress
}

// Option configures a Verifier when passed to New.
type Option func(*Verifier)

// WithTimeout sets the per-attempt timeout when probing hosts.
func WithTimeout(timeout time.Duration) Option {
	return func(v *Verifier) {
		v.timeout = timeout
	}
}

// WithPinger additionally verifies the addresses of hosts by pinging them,
// using a [ping.Pinger] with the specified maximum number of parallel
// verification workers and options.
func WithPinger(size int, options ...ping.PingerOption) Option {
	return func(v *Verifier) {
		v.pinger, v.checked = ping.New(size, options...)
	}
}

// New returns a new Verifier that probes hosts with a maximum number of
// parallel probing workers. If prober is nil, hosts aren't probed.
func New(size int, prober *probe.Prober, options ...Option) (*Verifier, <-chan types.NamedAddress) {
	news := make(chan types.NamedAddress, size)
	v := &Verifier{
		news:    news,
		prober:  prober,
		timeout: DefaultTimeout,
		probes:  workerpool.New(size),
	}
	for _, opt := range options {
		opt(v)
	}
	return v, news
}

// Verify verifies the incoming stream of named addresses until the input
// channel is closed. It then waits for all enqueued verification tasks to
// complete and then closes the output channel returned by New, and finally
// returns.
//
// Host announcements (named addresses without address) are passed on and
// additionally trigger probing the host's reachability once per host. The
// probe outcome is later sent as a host-only named address carrying the
// outcome. Addresses are either passed on as they are, or verified when a
// pinger has been configured.
//
// In case the specified context is cancelled, then Verify will stop pulling off
// new verification tasks and return as soon as possible, closing the output
// channel.
func (v *Verifier) Verify(ctx context.Context, in <-chan types.NamedAddress) {
	addrcache := NewNamedAddressCache()
	// As soon as new validation results trickle in, update the cache so that
	// the cache can inform the consumer of this Validator of the results.
	done := make(chan struct{})
	if v.pinger != nil {
		go func() {
			defer close(done)
			for {
				select {
				case qaddr, ok := <-v.checked:
					if !ok {
						return
					}
					addrcache.Update(ctx, qaddr.(types.NamedAddress), v.news)
				case <-ctx.Done():
					return
				}
			}
		}()
	} else {
		close(done)
	}
	probed := map[string]struct{}{}
slurpNews:
	for {
		select {
		case namaddr, ok := <-in:
			if !ok {
				break slurpNews
			}
			if namaddr.Addr() == "" {
				if !send(ctx, v.news, namaddr) {
					break slurpNews
				}
				if _, seen := probed[namaddr.Name()]; !seen && namaddr.Reach() == nil {
					probed[namaddr.Name()] = struct{}{}
					v.probe(ctx, namaddr.Name())
				}
				continue
			}
			if v.pinger == nil {
				if !send(ctx, v.news, namaddr) {
					break slurpNews
				}
				continue
			}
			if addrcache.Update(ctx, namaddr, v.news) {
				// Only schedule a validation task the first time we see this
				// particular address.
				v.pinger.ValidateQA(ctx, namaddr)
			}
		case <-ctx.Done():
			break slurpNews
		}
	}
	v.probes.StopWait()
	if v.pinger != nil {
		v.pinger.StopWait()
	}
	// wait for all verification results to have come through and passed on
	// before calling it a day. Even when the context is cancelled we need to
	// wait, as the verdict goroutine might still be sending news; it bails out
	// on the done context anyway.
	<-done
	close(v.news)
}

// probe the reachability of the specified host in the background, sending the
// outcome as news.
func (v *Verifier) probe(ctx context.Context, host string) {
	if v.prober == nil {
		return
	}
	v.probes.Submit(func() {
		outcome := v.prober.ProbeDomain(ctx, host, v.timeout)
		log.Debugf("probed %q: %s", host, outcome)
		send(ctx, v.news, &types.NamedAddressValue{
			Host:    host,
			Outcome: &outcome,
		})
	})
}
