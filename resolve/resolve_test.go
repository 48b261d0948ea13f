// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package resolve

import (
	"context"
	"time"

	"github.com/siemens/hostprobe/ipclass"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	. "github.com/onsi/gomega/gleak"
)

var _ = Describe("resolving host names", func() {

	BeforeEach(func() {
		goodgos := Goroutines()
		DeferCleanup(func() {
			Eventually(Goroutines).WithTimeout(2 * time.Second).WithPolling(100 * time.Millisecond).
				ShouldNot(HaveLeaked(goodgos))
		})
	})

	It("returns nothing without any capabilities", func(ctx context.Context) {
		r := New()
		Expect(r.ResolveHost(ctx, "example.org")).NotTo(BeNil())
		Expect(r.ResolveHost(ctx, "example.org")).To(BeEmpty())
	})

	It("keeps partial dual-stack results", func(ctx context.Context) {
		lookup := &stubLookup{addrs: map[ipclass.Family]string{ipclass.IPv6: "2001:db8::1"}}
		records := &stubRecords{}
		r := New(WithLookup(lookup), WithRecords(records))
		Expect(r.ResolveHost(ctx, "example.org")).To(Equal([]string{"2001:db8::1"}))
		Expect(lookup.Calls()).To(ConsistOf("lookup IPv4", "lookup IPv6"))
		Expect(records.Calls()).To(BeEmpty())
	})

	It("orders IPv4 before IPv6 regardless of completion order", func(ctx context.Context) {
		lookup := &stubLookup{
			addrs: map[ipclass.Family]string{ipclass.IPv4: "192.0.2.1", ipclass.IPv6: "2001:db8::1"},
			gate: func(family ipclass.Family) {
				if family == ipclass.IPv4 {
					time.Sleep(50 * time.Millisecond)
				}
			},
		}
		Expect(New(WithLookup(lookup)).ResolveHost(ctx, "example.org")).To(Equal(
			[]string{"192.0.2.1", "2001:db8::1"}))
	})

	It("runs both lookups of a stage concurrently", NodeTimeout(5*time.Second), func(ctx context.Context) {
		v6started := make(chan struct{})
		lookup := &stubLookup{
			addrs: map[ipclass.Family]string{ipclass.IPv4: "192.0.2.1"},
			gate: func(family ipclass.Family) {
				switch family {
				case ipclass.IPv4:
					// would dead-lock if the lookups were sequential.
					<-v6started
				case ipclass.IPv6:
					close(v6started)
				}
			},
		}
		Expect(New(WithLookup(lookup)).ResolveHost(ctx, "example.org")).To(Equal([]string{"192.0.2.1"}))
	})

	It("falls back to A/AAAA records", func(ctx context.Context) {
		lookup := &stubLookup{}
		records := &stubRecords{addrs: map[RecordType][]string{
			A:    {"192.0.2.1", "192.0.2.2", "192.0.2.1"},
			AAAA: {"2001:db8::1"},
		}}
		hosts := &stubHosts{addrs: []string{"192.0.2.99"}}
		r := New(WithLookup(lookup), WithRecords(records), WithHostLookup(hosts))
		Expect(r.ResolveHost(ctx, "example.org")).To(Equal(
			[]string{"192.0.2.1", "192.0.2.2", "2001:db8::1"}))
		Expect(records.Calls()).To(ConsistOf("resolve A", "resolve AAAA"))
		Expect(hosts.Calls()).To(BeEmpty())
	})

	It("keeps partial record results, even when a query panics", func(ctx context.Context) {
		records := &stubRecords{
			addrs: map[RecordType][]string{AAAA: {"2001:db8::2"}},
			panic: true,
		}
		Expect(New(WithRecords(records)).ResolveHost(ctx, "example.org")).To(Equal([]string{"2001:db8::2"}))
	})

	It("falls back to a generic host lookup", func(ctx context.Context) {
		hosts := &stubHosts{addrs: []string{"2001:db8::1", "192.0.2.1", "2001:db8::1"}}
		r := New(WithLookup(&stubLookup{}), WithRecords(&stubRecords{}), WithHostLookup(hosts))
		Expect(r.ResolveHost(ctx, "example.org")).To(Equal([]string{"192.0.2.1", "2001:db8::1"}))
	})

	It("falls back to a generic host lookup without any other capabilities", func(ctx context.Context) {
		hosts := &stubHosts{addrs: []string{"192.0.2.1"}}
		Expect(New(WithHostLookup(hosts)).ResolveHost(ctx, "example.org")).To(Equal([]string{"192.0.2.1"}))
	})

	It("returns nothing when all strategies fail", func(ctx context.Context) {
		hosts := &stubHosts{err: errNotFound}
		r := New(WithLookup(&stubLookup{}), WithRecords(&stubRecords{}), WithHostLookup(hosts))
		Expect(r.ResolveHost(ctx, "example.org")).To(BeEmpty())
		Expect(hosts.Calls()).To(HaveLen(1))
	})

	It("abandons further strategies when cancelled", func(ctx context.Context) {
		ctx, cancel := context.WithCancel(ctx)
		lookup := &stubLookup{gate: func(ipclass.Family) { cancel() }}
		records := &stubRecords{addrs: map[RecordType][]string{A: {"192.0.2.1"}}}
		r := New(WithLookup(lookup), WithRecords(records))
		Expect(r.ResolveHost(ctx, "example.org")).To(BeEmpty())
		Expect(records.Calls()).To(BeEmpty())
	})

	It("bounds stages in time", NodeTimeout(5*time.Second), func(ctx context.Context) {
		lookup := &slowLookup{}
		hosts := &stubHosts{addrs: []string{"192.0.2.1"}}
		r := New(WithLookup(lookup), WithHostLookup(hosts), WithStageTimeout(100*time.Millisecond))
		start := time.Now()
		Expect(r.ResolveHost(ctx, "example.org")).To(Equal([]string{"192.0.2.1"}))
		Expect(time.Since(start)).To(BeNumerically("<", 2*time.Second))
	})

})

// slowLookup never answers before its context is done.
type slowLookup struct{}

func (s *slowLookup) Lookup(ctx context.Context, host string, family ipclass.Family) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}
