// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package verifier

import (
	"context"
	"sync"

	"github.com/siemens/hostprobe/types"
)

// NamedAddressCache caches the qualities of addresses so that duplicate
// address validations for hosts sharing the same address can be avoided, yet
// validation results get distributed at once to all hosts pending on the
// verification of such a shared address.
type NamedAddressCache struct {
	mu sync.Mutex
	m  map[string]*addressVerdict // IP address -> verdict and pending hosts
}

// addressVerdict is the most recent quality of an address, together with the
// hosts that map to this address and thus want to learn about any updates in
// the address' quality.
type addressVerdict struct {
	q       types.Quality
	err     error    // optional error reason for invalid quality
	waiting []string // hosts waiting for a final quality.
	hosts   []string // all hosts seen for this address.
}

func (v *addressVerdict) knows(host string) bool {
	for _, h := range v.hosts {
		if h == host {
			return true
		}
	}
	return false
}

// NewNamedAddressCache returns a new NamedAddressCache object.
func NewNamedAddressCache() *NamedAddressCache {
	return &NamedAddressCache{
		m: map[string]*addressVerdict{},
	}
}

// Update checks the specified named address to see if its address hasn't yet
// been cached. In this case it returns true to signal a new address to the
// caller, so that the caller, for instance, can start validating the new
// address. Update returns false if the address has already been seen.
//
// Quality updates that are more recent than the cached quality are sent to
// all hosts still waiting for the address. Stale updates for yet unknown hosts
// of an already cached address are answered with the cached quality instead,
// so hosts joining late immediately learn about the final verdict.
func (c *NamedAddressCache) Update(ctx context.Context, namaddr types.NamedAddress, news chan<- types.NamedAddress) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	addr := namaddr.Addr()
	host := namaddr.Name()
	verdict, ok := c.m[addr]
	if !ok {
		// Note: we assume that a new address always enters in qualities
		// Unverified or Verifying, so there will always be a later quality
		// update to be expected.
		c.m[addr] = &addressVerdict{
			q:       namaddr.Qual(),
			waiting: []string{host},
			hosts:   []string{host},
		}
		send(ctx, news, namaddr)
		return true
	}
	if namaddr.Qual() <= verdict.q {
		// The state specified in the update is already stale, so we only
		// inform this specific host about the most recent quality, and only
		// if we didn't know the host so far.
		if !verdict.knows(host) {
			verdict.hosts = append(verdict.hosts, host)
			if verdict.q.IsPending() {
				verdict.waiting = append(verdict.waiting, host)
			}
			send(ctx, news, namaddr.WithNewQuality(verdict.q, verdict.err).(types.NamedAddress))
		}
		return false
	}
	verdict.q = namaddr.Qual()
	verdict.err = namaddr.Err()
	if !verdict.knows(host) {
		verdict.hosts = append(verdict.hosts, host)
		verdict.waiting = append(verdict.waiting, host)
	}
	hosts := verdict.waiting
	if !verdict.q.IsPending() {
		// Final verdict: all later updates for this address will be answered
		// from the cache.
		verdict.waiting = nil
	}
	templ := namaddr.NA()
	templ.Outcome = nil
	for _, host := range hosts {
		na := templ
		na.Host = host
		if !send(ctx, news, na.WithNewQuality(verdict.q, verdict.err).(types.NamedAddress)) {
			return false
		}
	}
	return false
}

// send the named address, unless the context is done first; returns true if
// the named address was sent.
func send(ctx context.Context, news chan<- types.NamedAddress, na types.NamedAddress) bool {
	select {
	case news <- na:
		return true
	case <-ctx.Done():
		return false
	}
}
