// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ping

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/siemens/hostprobe/types"

	"github.com/gammazero/workerpool"
	"github.com/go-ping/ping"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// ErrTooManyLosses signals that too few ping replies came back.
var ErrTooManyLosses = errors.New("no replies or too many losses")

// Pinger validates resolved IP addresses by pinging them and then streams the
// final [types.QualifiedAddress] verdicts to a verdict channel. Pingers use a
// goroutine-limited worker pool.
type Pinger struct {
	count               int           // number of pings to send.
	interval            time.Duration // distance between pings.
	thresholdPercentage uint          // percentage of successful pings for valid IP address.
	unprivileged        bool          // if true, uses UDP-based pings instead of privileged ICMPs.

	netns    relations.Relation          // network namespace to ping from, or nil.
	workers  *workerpool.WorkerPool      // workers for running validation jobs concurrently.
	verdicts chan types.QualifiedAddress // results/status stream channel.
	stopOnce sync.Once
}

// PingerOption can be passed to New when creating new Pinger objects.
type PingerOption func(*Pinger)

// New returns a new [Pinger] with a maximum worker pool of the specified size
// as well as a verdict stream. The verdict channel not only sends the final IP
// address verdicts, but also the addresses as they get submitted for
// validation, with their quality set to [types.Verifying].
//
// The new pinger defaults to pinging 3 times at intervals of 1s between each
// ping. The validity threshold defaults to 50(%).
func New(size int, options ...PingerOption) (*Pinger, <-chan types.QualifiedAddress) {
	return newPinger(size, size, options...)
}

// newPinger returns a new [Pinger] with a maximum worker pool of the specified
// size and a verdict stream with the specified buffer size.
func newPinger(workersize int, chansize int, options ...PingerOption) (*Pinger, <-chan types.QualifiedAddress) {
	verdicts := make(chan types.QualifiedAddress, chansize)
	pinger := &Pinger{
		count:               3,
		interval:            time.Second,
		thresholdPercentage: 50,
		workers:             workerpool.New(workersize),
		verdicts:            verdicts,
	}
	for _, opt := range options {
		opt(pinger)
	}
	return pinger, verdicts
}

// InNetworkNamespace optionally runs a [Pinger] inside the network namespace
// referenced by the specified filesystem path. An empty path is ignored.
func InNetworkNamespace(netnsref string) PingerOption {
	return func(p *Pinger) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// WithCount sets the number of pings for testing reachability of an IP address.
func WithCount(count uint) PingerOption {
	return func(p *Pinger) {
		p.count = int(count)
	}
}

// WithInterval sets the interval between consecutive pings.
func WithInterval(interval time.Duration) PingerOption {
	return func(p *Pinger) {
		p.interval = interval
	}
}

// AsUnprivileged tells the Pinger to carry out unprivileged pings using UDP
// instead of ICMP packets.
func AsUnprivileged() PingerOption {
	return func(p *Pinger) {
		p.unprivileged = true
	}
}

// WithThresholdPercentage takes a percentage between 0 and 100 that specifies
// the percentage of successful ping responses required in order to validate the
// pinged IP address.
func WithThresholdPercentage(threshold uint) PingerOption {
	if threshold > 100 {
		panic(fmt.Errorf("Pinger: threshold must be a percentage between 0 <= threshold <= 100, got: %d",
			threshold))
	}
	return func(p *Pinger) {
		p.thresholdPercentage = threshold
	}
}

// Ping the specified address synchronously, returning nil if enough replies
// came back. Pinging stops early when the context is done.
func (p *Pinger) Ping(ctx context.Context, addr string) error {
	if p.netns == nil {
		return p.ping(ctx, addr)
	}
	// lxkns' ops.Execute differentiates between a namespace switching error
	// and the result of the function called in the switched namespace.
	pingerr, err := ops.Execute(func() interface{} { return p.ping(ctx, addr) }, p.netns)
	if err != nil {
		return err
	}
	if pingerr, ok := pingerr.(error); ok && pingerr != nil {
		return pingerr
	}
	return nil
}

func (p *Pinger) ping(ctx context.Context, addr string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	pinger, err := ping.NewPinger(addr)
	if err != nil {
		return err
	}
	pinger.SetPrivileged(!p.unprivileged)
	pinger.Count = p.count
	pinger.Interval = p.interval
	// Always limit waiting for the last ping to get reflected (or not)!
	pinger.Timeout = time.Duration(int64(p.interval) * int64(p.count+2))
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			pinger.Stop()
		case <-done:
		}
	}()
	if err := pinger.Run(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	stats := pinger.Statistics()
	log.Debugf("ping %s: %d/%d replies", addr, stats.PacketsRecv, stats.PacketsSent)
	if stats.PacketsRecv < pinger.Count*int(p.thresholdPercentage)/100 || stats.PacketsRecv == 0 {
		return ErrTooManyLosses
	}
	return nil
}

// Validate the specified IP address by pinging it. The verdict is then sent to
// the channel returned together with the newly created [Pinger]. Additionally,
// an initial notice for the address to be validated is also sent beforehand.
//
// If the specified context gets cancelled the pending address verifications
// won't be echoed to the verdict stream at all, and in particular not even as
// invalid. However, spurious verdicts might still appear on the verdict
// stream due to the uncontrollable order of verdict sending and context
// cancellation detection.
func (p *Pinger) Validate(ctx context.Context, addr string) {
	p.validate(ctx, &types.QualifiedAddressValue{
		Address: addr,
		Quality: types.Verifying,
	})
}

// ValidateQA validates the specified [types.QualifiedAddress] and works
// otherwise like [Pinger.Validate] for a plain address string.
func (p *Pinger) ValidateQA(ctx context.Context, addr types.QualifiedAddress) {
	p.validate(ctx, addr.WithNewQuality(types.Verifying, nil))
}

// validate announces the address in verification and then enqueues the
// pinging job, which finally sends the verdict.
func (p *Pinger) validate(ctx context.Context, verdict types.QualifiedAddress) {
	if !p.send(ctx, verdict) {
		return
	}
	p.workers.Submit(func() {
		if err := p.Ping(ctx, verdict.Addr()); err != nil {
			p.send(ctx, verdict.WithNewQuality(types.Invalid, err))
			return
		}
		p.send(ctx, verdict.WithNewQuality(types.Verified, nil))
	})
}

// send a verdict, unless the context is done first; returns true if the
// verdict was sent.
func (p *Pinger) send(ctx context.Context, verdict types.QualifiedAddress) bool {
	select {
	case p.verdicts <- verdict:
		return true
	case <-ctx.Done():
		return false
	}
}

// StopWait waits for all queued tasks to get processed and then finally closes
// the verdict channel.
func (p *Pinger) StopWait() {
	p.stopOnce.Do(func() {
		p.workers.StopWait()
		close(p.verdicts)
	})
}
