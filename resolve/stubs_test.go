// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"errors"
	"sync"

	"github.com/siemens/hostprobe/ipclass"
)

var errNotFound = errors.New("not found")

// calls records the capability calls made by a Resolver.
type calls struct {
	mu    sync.Mutex
	calls []string
}

func (c *calls) add(call string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.calls = append(c.calls, call)
}

func (c *calls) Calls() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]string(nil), c.calls...)
}

// stubLookup implements Lookuper, answering from a per-family table; missing
// families fail.
type stubLookup struct {
	calls
	addrs map[ipclass.Family]string
	gate  func(family ipclass.Family)
}

func (s *stubLookup) Lookup(ctx context.Context, host string, family ipclass.Family) (string, error) {
	s.add("lookup " + family.String())
	if s.gate != nil {
		s.gate(family)
	}
	if addr, ok := s.addrs[family]; ok {
		return addr, nil
	}
	return "", errNotFound
}

// stubRecords implements RecordResolver.
type stubRecords struct {
	calls
	addrs map[RecordType][]string
	panic bool
}

func (s *stubRecords) Resolve(ctx context.Context, host string, rtype RecordType) ([]string, error) {
	s.add("resolve " + rtype.String())
	if s.panic && rtype == A {
		panic("D'oh!")
	}
	if addrs, ok := s.addrs[rtype]; ok {
		return addrs, nil
	}
	return nil, errNotFound
}

// stubHosts implements HostLookuper.
type stubHosts struct {
	calls
	addrs []string
	err   error
}

func (s *stubHosts) LookupHost(ctx context.Context, host string) ([]string, error) {
	s.add("lookuphost")
	return s.addrs, s.err
}
