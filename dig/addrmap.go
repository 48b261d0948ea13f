// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"sort"
	"sync"

	"github.com/siemens/hostprobe/types"
)

// NamedAddressSet is a host name together with its reachability outcome (if
// already probed) and a list of associated/resolved qualified network
// addresses.
type NamedAddressSet struct {
	Host      string                        `json:"host"`            // the host name as given
	Reach     *types.ProbeOutcome           `json:"reach,omitempty"` // reachability, if already probed
	Addresses []types.QualifiedAddressValue `json:"addresses"`       // associated IP network address(es)
}

// IsPrivate returns true if any of the addresses of this host is in private
// scope.
func (s NamedAddressSet) IsPrivate() bool {
	for _, addr := range s.Addresses {
		if addr.AddrScope == types.ScopePrivate {
			return true
		}
	}
	return false
}

// IsPublic returns true if the host has addresses and all of them are in
// public scope.
func (s NamedAddressSet) IsPublic() bool {
	if len(s.Addresses) == 0 {
		return false
	}
	for _, addr := range s.Addresses {
		if addr.AddrScope != types.ScopePublic {
			return false
		}
	}
	return true
}

// Filter selects named address sets.
type Filter func(NamedAddressSet) bool

// PrivateOnly selects the hosts with at least one private address.
func PrivateOnly(s NamedAddressSet) bool { return s.IsPrivate() }

// PublicOnly selects the hosts with only public addresses.
func PublicOnly(s NamedAddressSet) bool { return s.IsPublic() }

type hostEntry struct {
	reach *types.ProbeOutcome
	addrs []types.QualifiedAddressValue
}

// NamedAddressesMap maps host names to their reachability and corresponding
// lists of qualified IP addresses. A typical use case for a NamedAddressMap is
// to consume name-address information from an event stream (channel) sending
// updates as hosts are announced, resolved into the corresponding IP
// addresses, probed and finally (in)validated.
type NamedAddressesMap struct {
	m  map[string]*hostEntry
	mu sync.Mutex
}

// NewNamedAddressesMap returns a new and properly initialized
// NamedAddressesMap.
func NewNamedAddressesMap() *NamedAddressesMap {
	return &NamedAddressesMap{
		m: map[string]*hostEntry{},
	}
}

// Get returns all named address sets from the map that pass all specified
// filters, sorted by host name.
func (m *NamedAddressesMap) Get(filters ...Filter) []NamedAddressSet {
	m.mu.Lock()
	defer m.mu.Unlock()
	sets := make([]NamedAddressSet, 0, len(m.m))
nextHost:
	for host, entry := range m.m {
		set := NamedAddressSet{
			Host:      host,
			Reach:     entry.reach,
			Addresses: append([]types.QualifiedAddressValue{}, entry.addrs...),
		}
		for _, filter := range filters {
			if !filter(set) {
				continue nextHost
			}
		}
		sets = append(sets, set)
	}
	sort.Slice(sets, func(a, b int) bool { return sets[a].Host < sets[b].Host })
	return sets
}

// Update the map with a NamedAddress, adding hosts and addresses in case they
// are yet unknown. A host-only NamedAddress carrying a reachability outcome
// sets the host's outcome. Known addresses are updated in case they have
// quality changing as follows:
//   - from unverified to verifying
//   - from verifying to either verified or invalid
func (m *NamedAddressesMap) Update(namaddr types.NamedAddress) {
	if namaddr == nil {
		return
	}
	host := namaddr.Name()
	if host == "" {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	entry, ok := m.m[host]
	if !ok {
		entry = &hostEntry{addrs: []types.QualifiedAddressValue{}}
		m.m[host] = entry
	}
	if reach := namaddr.Reach(); reach != nil {
		outcome := *reach
		entry.reach = &outcome
	}
	addr := namaddr.Addr()
	if addr == "" {
		return
	}
	for idx := range entry.addrs {
		if entry.addrs[idx].Address == addr {
			if namaddr.Qual() > entry.addrs[idx].Quality { // slightly simplified "update" rule
				entry.addrs[idx] = namaddr.QA()
			}
			return
		}
	}
	entry.addrs = append(entry.addrs, namaddr.QA())
}

// Track NamedAddress updates received from the specified update channel until
// the channel is closed or the context done. Track only returns after
// processing all updates or when the context is done.
func (m *NamedAddressesMap) Track(ctx context.Context, news <-chan types.NamedAddress) error {
	for {
		select {
		case namaddr, ok := <-news:
			if !ok {
				return nil
			}
			m.Update(namaddr)
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
