// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package dig

import (
	"context"
	"time"

	"github.com/siemens/hostprobe/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func named(host, addr string, q types.Quality, scope types.Scope) *types.NamedAddressValue {
	return &types.NamedAddressValue{
		Host: host,
		QualifiedAddressValue: types.QualifiedAddressValue{
			Address:   addr,
			Quality:   q,
			AddrScope: scope,
		},
	}
}

var _ = Describe("named addresses map", func() {

	It("ignores nonsense", func() {
		m := NewNamedAddressesMap()
		m.Update(nil)
		m.Update(&types.NamedAddressValue{})
		Expect(m.Get()).To(BeEmpty())
	})

	It("tracks hosts, addresses and their qualities", func() {
		m := NewNamedAddressesMap()
		m.Update(&types.NamedAddressValue{Host: "foo"})
		Expect(m.Get()).To(ConsistOf(NamedAddressSet{
			Host:      "foo",
			Addresses: []types.QualifiedAddressValue{},
		}))

		m.Update(named("foo", "10.0.0.1", types.Unverified, types.ScopePrivate))
		m.Update(named("foo", "10.0.0.1", types.Verifying, types.ScopePrivate))
		m.Update(named("foo", "10.0.0.1", types.Unverified, types.ScopePrivate))
		Expect(m.Get()).To(ConsistOf(HaveField("Addresses", ConsistOf(
			HaveField("Quality", types.Verifying)))))

		m.Update(named("foo", "10.0.0.1", types.Verified, types.ScopePrivate))
		m.Update(named("bar", "192.0.2.1", types.Unverified, types.ScopePublic))
		sets := m.Get()
		Expect(sets).To(HaveLen(2))
		Expect(sets[0].Host).To(Equal("bar"))
		Expect(sets[1].Host).To(Equal("foo"))
		Expect(sets[1].Addresses).To(ConsistOf(HaveField("Quality", types.Verified)))
	})

	It("tracks reachability outcomes", func() {
		m := NewNamedAddressesMap()
		m.Update(named("foo", "10.0.0.1", types.Unverified, types.ScopePrivate))
		outcome := types.Reachable(types.ProtocolHTTPS)
		m.Update(&types.NamedAddressValue{Host: "foo", Outcome: &outcome})
		outcome = types.Unreachable("modified afterwards")
		sets := m.Get()
		Expect(sets).To(HaveLen(1))
		Expect(sets[0].Reach).To(HaveValue(Equal(types.Reachable(types.ProtocolHTTPS))))
		Expect(sets[0].Addresses).To(HaveLen(1))
	})

	It("filters by scope", func() {
		m := NewNamedAddressesMap()
		m.Update(named("private", "10.0.0.1", types.Unverified, types.ScopePrivate))
		m.Update(named("mixed", "10.0.0.2", types.Unverified, types.ScopePrivate))
		m.Update(named("mixed", "192.0.2.2", types.Unverified, types.ScopePublic))
		m.Update(named("public", "192.0.2.3", types.Unverified, types.ScopePublic))
		m.Update(&types.NamedAddressValue{Host: "unresolved"})

		hosts := func(sets []NamedAddressSet) []string {
			names := []string{}
			for _, set := range sets {
				names = append(names, set.Host)
			}
			return names
		}
		Expect(hosts(m.Get())).To(Equal([]string{"mixed", "private", "public", "unresolved"}))
		Expect(hosts(m.Get(PrivateOnly))).To(Equal([]string{"mixed", "private"}))
		Expect(hosts(m.Get(PublicOnly))).To(Equal([]string{"public"}))
		Expect(m.Get(PrivateOnly, PublicOnly)).To(BeEmpty())
	})

	It("hands out copies", func() {
		m := NewNamedAddressesMap()
		m.Update(named("foo", "10.0.0.1", types.Unverified, types.ScopePrivate))
		sets := m.Get()
		sets[0].Addresses[0].Address = "garbage"
		Expect(m.Get()[0].Addresses[0].Address).To(Equal("10.0.0.1"))
	})

	It("tracks a news stream", func(ctx context.Context) {
		m := NewNamedAddressesMap()
		news := make(chan types.NamedAddress, 2)
		news <- &types.NamedAddressValue{Host: "foo"}
		news <- named("foo", "10.0.0.1", types.Unverified, types.ScopePrivate)
		close(news)
		Expect(m.Track(ctx, news)).To(Succeed())
		Expect(m.Get()).To(ConsistOf(HaveField("Addresses", HaveLen(1))))
	})

	It("stops tracking when the context is done", func(ctx context.Context) {
		m := NewNamedAddressesMap()
		ctx, cancel := context.WithTimeout(ctx, 100*time.Millisecond)
		defer cancel()
		Expect(m.Track(ctx, make(chan types.NamedAddress))).To(MatchError(context.DeadlineExceeded))
	})

})
