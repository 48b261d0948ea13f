// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"errors"
	"fmt"
	"net"

	"github.com/siemens/hostprobe/dnsworker"
	"github.com/siemens/hostprobe/ipclass"

	"github.com/miekg/dns"
)

// RecordType is the DNS record type for explicit record resolution.
type RecordType uint16

// The address record types.
const (
	A    = RecordType(dns.TypeA)
	AAAA = RecordType(dns.TypeAAAA)
)

// String returns "A" or "AAAA".
func (t RecordType) String() string {
	return dns.TypeToString[uint16(t)]
}

// Lookuper looks up a single address of the specified family for a host.
type Lookuper interface {
	Lookup(ctx context.Context, host string, family ipclass.Family) (string, error)
}

// RecordResolver resolves the addresses of a host using explicit A or AAAA
// record queries.
type RecordResolver interface {
	Resolve(ctx context.Context, host string, rtype RecordType) ([]string, error)
}

// HostLookuper returns all addresses of a host in one go.
type HostLookuper interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// SystemResolver adapts a [net.Resolver] to the [Lookuper] and [HostLookuper]
// capabilities.
type SystemResolver struct {
	r *net.Resolver
}

var (
	_ Lookuper     = (*SystemResolver)(nil)
	_ HostLookuper = (*SystemResolver)(nil)
)

// System returns a SystemResolver using the specified resolver; if nil, the
// default resolver is used.
func System(r *net.Resolver) *SystemResolver {
	if r == nil {
		r = net.DefaultResolver
	}
	return &SystemResolver{r: r}
}

// Lookup returns the first address of the specified family.
func (s *SystemResolver) Lookup(ctx context.Context, host string, family ipclass.Family) (string, error) {
	var network string
	switch family {
	case ipclass.IPv4:
		network = "ip4"
	case ipclass.IPv6:
		network = "ip6"
	default:
		return "", fmt.Errorf("invalid address family %d", family)
	}
	addrs, err := s.r.LookupNetIP(ctx, network, host)
	if err != nil {
		return "", err
	}
	if len(addrs) == 0 {
		return "", fmt.Errorf("no %s address for %q", family, host)
	}
	return addrs[0].Unmap().String(), nil
}

// LookupHost returns all addresses of the specified host.
func (s *SystemResolver) LookupHost(ctx context.Context, host string) ([]string, error) {
	return s.r.LookupHost(ctx, host)
}

// PoolResolver adapts a [dnsworker.DnsPool] to the [RecordResolver]
// capability.
type PoolResolver struct {
	pool *dnsworker.DnsPool
}

var _ RecordResolver = (*PoolResolver)(nil)

// Pool returns a PoolResolver submitting its queries to the specified DNS
// worker pool.
func Pool(pool *dnsworker.DnsPool) *PoolResolver {
	return &PoolResolver{pool: pool}
}

// Resolve submits a query for the specified record type and waits for its
// result or the context to be done.
func (p *PoolResolver) Resolve(ctx context.Context, host string, rtype RecordType) ([]string, error) {
	if p.pool == nil {
		return nil, errors.New("no DNS pool")
	}
	type result struct {
		addrs []string
		err   error
	}
	ch := make(chan result, 1) // never block the worker.
	p.pool.Resolve(ctx, host, uint16(rtype), func(addrs []string, err error) {
		ch <- result{addrs: addrs, err: err}
	})
	select {
	case res := <-ch:
		return res.addrs, res.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
