// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/siemens/hostprobe/ipclass"

	"github.com/thediveo/lxkns/log"
	"golang.org/x/sync/errgroup"
)

// DefaultStageTimeout limits how long a single resolution stage may take.
const DefaultStageTimeout = 5 * time.Second

// Resolver resolves host names into their IP addresses, trying several
// resolution strategies one after another until one yields addresses:
//
//  1. dual-stack lookup of one IPv4 and one IPv6 address,
//  2. explicit A and AAAA record queries,
//  3. a generic lookup of all host addresses.
//
// Each strategy is backed by a capability that may be missing, in which case
// the strategy is skipped. Resolvers hold no mutable state and are safe for
// concurrent use.
type Resolver struct {
	lookup       Lookuper
	records      RecordResolver
	hosts        HostLookuper
	stageTimeout time.Duration
}

// Option can be passed to [New] when creating new Resolver objects.
type Option func(*Resolver)

// New returns a new Resolver without any capabilities, unless specified using
// options. A Resolver without capabilities always resolves to nothing.
func New(options ...Option) *Resolver {
	r := &Resolver{stageTimeout: DefaultStageTimeout}
	for _, opt := range options {
		opt(r)
	}
	return r
}

// NewDefault returns a new Resolver using the system resolver for the
// dual-stack and generic lookups. Further options are applied afterwards, such
// as [WithRecords] to enable explicit record queries.
func NewDefault(options ...Option) *Resolver {
	sys := System(nil)
	return New(append([]Option{WithLookup(sys), WithHostLookup(sys)}, options...)...)
}

// WithLookup sets the dual-stack lookup capability.
func WithLookup(l Lookuper) Option {
	return func(r *Resolver) { r.lookup = l }
}

// WithRecords sets the explicit A/AAAA record resolution capability.
func WithRecords(rr RecordResolver) Option {
	return func(r *Resolver) { r.records = rr }
}

// WithHostLookup sets the generic host lookup capability.
func WithHostLookup(h HostLookuper) Option {
	return func(r *Resolver) { r.hosts = h }
}

// WithStageTimeout limits the duration of each resolution stage; zero or
// negative durations disable the stage limit.
func WithStageTimeout(d time.Duration) Option {
	return func(r *Resolver) { r.stageTimeout = d }
}

// ResolveHost returns the IP addresses of the specified host, IPv4 addresses
// first, then IPv6 addresses. It never fails: when all strategies fail, or
// there aren't any resolution capabilities, the result is empty. When the
// passed context is done, no further strategies are tried.
func (r *Resolver) ResolveHost(ctx context.Context, host string) []string {
	stages := []struct {
		name    string
		enabled bool
		fn      func(context.Context, string) []string
	}{
		{"dual-stack lookup", r.lookup != nil, r.dualStack},
		{"A/AAAA records", r.records != nil, r.recordTypes},
		{"host lookup", r.hosts != nil, r.allHosts},
	}
	for _, stage := range stages {
		if !stage.enabled {
			log.Debugf("resolve %s: no %s capability", host, stage.name)
			continue
		}
		if err := ctx.Err(); err != nil {
			log.Debugf("resolve %s: abandoned before %s: %s", host, stage.name, err.Error())
			return []string{}
		}
		addrs := r.stage(ctx, host, stage.fn)
		if len(addrs) > 0 {
			log.Debugf("resolve %s: %s yields %s", host, stage.name, strings.Join(addrs, ", "))
			return addrs
		}
		log.Debugf("resolve %s: %s yields nothing", host, stage.name)
	}
	return []string{}
}

// stage runs a single resolution strategy under the stage timeout.
func (r *Resolver) stage(ctx context.Context, host string, fn func(context.Context, string) []string) []string {
	if r.stageTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.stageTimeout)
		defer cancel()
	}
	return fn(ctx, host)
}

// dualStack concurrently looks up an IPv4 and an IPv6 address, waiting for
// both lookups to settle.
func (r *Resolver) dualStack(ctx context.Context, host string) []string {
	var v4, v6 []string
	settle(
		func() error {
			addr, err := r.lookup.Lookup(ctx, host, ipclass.IPv4)
			if err != nil {
				return fmt.Errorf("IPv4 lookup: %w", err)
			}
			v4 = []string{addr}
			return nil
		},
		func() error {
			addr, err := r.lookup.Lookup(ctx, host, ipclass.IPv6)
			if err != nil {
				return fmt.Errorf("IPv6 lookup: %w", err)
			}
			v6 = []string{addr}
			return nil
		},
		host)
	return merge(v4, v6)
}

// recordTypes concurrently queries A and AAAA records, waiting for both
// queries to settle.
func (r *Resolver) recordTypes(ctx context.Context, host string) []string {
	var v4, v6 []string
	settle(
		func() (err error) {
			v4, err = r.records.Resolve(ctx, host, A)
			if err != nil {
				return fmt.Errorf("A records: %w", err)
			}
			return nil
		},
		func() (err error) {
			v6, err = r.records.Resolve(ctx, host, AAAA)
			if err != nil {
				return fmt.Errorf("AAAA records: %w", err)
			}
			return nil
		},
		host)
	return merge(v4, v6)
}

// allHosts looks up all host addresses at once, ordering IPv4 before IPv6.
func (r *Resolver) allHosts(ctx context.Context, host string) []string {
	var addrs []string
	settle(func() (err error) {
		addrs, err = r.hosts.LookupHost(ctx, host)
		return err
	}, nil, host)
	var v4, v6 []string
	for _, addr := range addrs {
		if ipclass.FamilyOf(addr) == ipclass.IPv6 {
			v6 = append(v6, addr)
			continue
		}
		v4 = append(v4, addr)
	}
	return merge(v4, v6)
}

// settle runs the specified functions concurrently and waits for all of them
// to finish, regardless of any of them failing. Failures (including panics)
// only get logged.
func settle(fn1, fn2 func() error, host string) {
	var g errgroup.Group
	for _, fn := range []func() error{fn1, fn2} {
		if fn == nil {
			continue
		}
		fn := fn
		g.Go(func() (err error) {
			defer func() {
				if p := recover(); p != nil {
					err = fmt.Errorf("panic: %v", p)
				}
				if err != nil {
					log.Debugf("resolve %s: %s", host, err.Error())
				}
			}()
			return fn()
		})
	}
	_ = g.Wait() // errors have already been logged and are of no further interest.
}

// merge concatenates the per-family address lists, in the order given, and
// drops empty entries as well as duplicates within the same family list.
// Addresses are never deduplicated across family lists.
func merge(families ...[]string) []string {
	addrs := []string{}
	for _, family := range families {
		seen := map[string]struct{}{}
		for _, addr := range family {
			if addr == "" {
				continue
			}
			if _, ok := seen[addr]; ok {
				continue
			}
			seen[addr] = struct{}{}
			addrs = append(addrs, addr)
		}
	}
	return addrs
}
