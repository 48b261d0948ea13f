// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dnsworker

import (
	"context"
	"fmt"
	"net"
	"sync"

	"github.com/gammazero/workerpool"
	"github.com/miekg/dns"
	"github.com/thediveo/lxkns/log"
	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// DefaultResolvConf is the path of the system's resolver configuration.
const DefaultResolvConf = "/etc/resolv.conf"

// DnsPool is a (size-limited) pool of DNS client connections talking with the
// same DNS resolver address.
type DnsPool struct {
	netns   relations.Relation // network namespace to query from, or nil.
	dnsclnt *dns.Client
	workers *workerpool.WorkerPool
	mu      sync.Mutex // protects the pool of DNS connections
	free    []*dns.Conn
}

// DnsPoolOption can be passed to New when creating new [DnsPool] objects.
type DnsPoolOption func(*DnsPool)

// New returns a pool of the specified size of DNS client connections, with each
// connection using the specified context and talking to the same DNS resolver
// address.
//
// DNS tasks are submitted using [DnsPool.Submit] in form of task functions
// receiving a concrete [dns.Conn], or using [DnsPool.Resolve] for A and AAAA
// record queries.
//
// The passed context is used for creating (dialing) the DNS client connections
// only. It is not directly passed to the submitted DNS tasks, so task
// submitters are themselves responsible for capturing the necessary context in
// their task function closure.
//
// To operate a DnsPool in a network namespace different to that of the OS-level
// thread of the caller specify the [InNetworkNamespace] option and pass it a
// filesystem path that must reference a network namespace (such as
// "/proc/666/ns/net").
func New(ctx context.Context, size int, dnsclnt *dns.Client, addr string, options ...DnsPoolOption) (*DnsPool, error) {
	if size < 1 {
		return nil, fmt.Errorf("dnsworker: invalid pool size %d", size)
	}
	dnspool := &DnsPool{
		dnsclnt: dnsclnt,
	}
	for _, opt := range options {
		opt(dnspool)
	}
	free := make([]*dns.Conn, 0, size)
	dial := func() interface{} {
		for i := 0; i < size; i++ {
			conn, err := dnsclnt.DialContext(ctx, addr)
			if err != nil {
				// Immediately release all connections created so far.
				for _, conn := range free {
					conn.Close()
				}
				return fmt.Errorf("dnsworker: cannot dial %s: %w", addr, err)
			}
			free = append(free, conn)
		}
		return nil
	}
	// Dial the connections in the requested network namespace, if necessary;
	// sockets stay in the namespace they were created in.
	var err error
	var dialerr interface{}
	if dnspool.netns != nil {
		dialerr, err = ops.Execute(dial, dnspool.netns)
	} else {
		dialerr = dial()
	}
	if err != nil {
		return nil, err
	}
	if dialerr != nil {
		return nil, dialerr.(error)
	}
	log.Debugf("dnsworker: %d connection(s) to %s", size, addr)
	dnspool.free = free
	dnspool.workers = workerpool.New(size)
	return dnspool, nil
}

// InNetworkNamespace optionally runs a DnsPool inside the network namespace
// referenced by the specified filesystem path. An empty path is ignored.
func InNetworkNamespace(netnsref string) DnsPoolOption {
	return func(p *DnsPool) {
		if netnsref == "" {
			return
		}
		p.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// ServerFromResolvConf returns the address in "host:port" format of the first
// name server configured in the specified resolv.conf file.
func ServerFromResolvConf(path string) (string, error) {
	conf, err := dns.ClientConfigFromFile(path)
	if err != nil {
		return "", fmt.Errorf("dnsworker: cannot read resolver configuration: %w", err)
	}
	if len(conf.Servers) == 0 {
		return "", fmt.Errorf("dnsworker: no name servers in %s", path)
	}
	return net.JoinHostPort(conf.Servers[0], conf.Port), nil
}

// Submit a task to the DNS client connection pool, where it gets enqueued to be
// executed on an available DNS client connection.
func (p *DnsPool) Submit(task func(conn *dns.Conn)) {
	p.workers.Submit(func() { p.task(task) })
}

// Resolve is a convenience method for submitting a single query of the
// specified type (typically dns.TypeA or dns.TypeAAAA) and gathering the
// addresses from the answer section. The results (resolved IP addresses in
// textual format) or an error if resolution failed is passed to the specified
// callback function fn, which is called exactly once.
//
// Please note that when the passed context is cancelled this will cancel the
// in-flight or scheduled query.
func (p *DnsPool) Resolve(ctx context.Context, name string, qtype uint16, fn func([]string, error)) {
	p.Submit(func(conn *dns.Conn) {
		addrs, err := p.query(ctx, conn, name, qtype)
		fn(addrs, err)
	})
}

// query sends a single question on the given connection and returns the A or
// AAAA addresses from the answer.
func (p *DnsPool) query(ctx context.Context, conn *dns.Conn, name string, qtype uint16) ([]string, error) {
	// don't even ask if the context has already been cancelled.
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	msg := dns.Msg{
		MsgHdr: dns.MsgHdr{Id: dns.Id(), RecursionDesired: true},
	}
	msg.SetQuestion(dns.Fqdn(name), qtype)
	r, _, err := p.dnsclnt.ExchangeWithConnContext(ctx, &msg, conn)
	if err != nil {
		return nil, fmt.Errorf("query %s %q: %w", dns.TypeToString[qtype], name, err)
	}
	if r.Rcode != dns.RcodeSuccess {
		return nil, fmt.Errorf("query %s %q: %s", dns.TypeToString[qtype], name, dns.RcodeToString[r.Rcode])
	}
	var addrs []string
	for _, rr := range r.Answer {
		switch rr := rr.(type) {
		case *dns.A:
			if qtype == dns.TypeA {
				addrs = append(addrs, rr.A.String())
			}
		case *dns.AAAA:
			if qtype == dns.TypeAAAA {
				addrs = append(addrs, rr.AAAA.String())
			}
		}
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("query %s %q yields no answers", dns.TypeToString[qtype], name)
	}
	return addrs, nil
}

// task grabs the next free DNS client and passes it to the specified function.
// After the function returns, the connection is put back into the free list.
func (p *DnsPool) task(task func(conn *dns.Conn)) {
	p.mu.Lock()
	if len(p.free) == 0 {
		p.mu.Unlock()
		panic("no free DNS client connection available")
	}
	last := len(p.free) - 1
	conn := p.free[last]
	p.free = p.free[:last]
	p.mu.Unlock()
	defer func() {
		p.mu.Lock()
		p.free = append(p.free, conn)
		p.mu.Unlock()
	}()
	task(conn)
}

// StopWait waits for all enqueued address lookup or generic DNS request tasks
// to finish, and then shuts down the pool.
func (p *DnsPool) StopWait() {
	p.workers.StopWait()
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, conn := range p.free {
		conn.Close()
	}
	p.free = nil
}
