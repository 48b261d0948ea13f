// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ipclass

import (
	"fmt"

	"github.com/siemens/hostprobe/types"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("address classification", func() {

	Context("validating", func() {

		DescribeTable("IPv4 addresses",
			func(addr string, valid bool) {
				Expect(IsIPv4(addr)).To(Equal(valid))
			},
			Entry(nil, "8.8.8.8", true),
			Entry(nil, "0.0.0.0", true),
			Entry(nil, "255.255.255.255", true),
			Entry(nil, "010.0.0.1", true),
			Entry(nil, "256.0.0.1", false),
			Entry(nil, "1.2.3", false),
			Entry(nil, "1.2.3.4.5", false),
			Entry(nil, "1.2..4", false),
			Entry(nil, "1.2.3.-4", false),
			Entry(nil, "1.2.3.4 ", false),
			Entry(nil, "not.an.ip", false),
		)

		DescribeTable("IPv6 addresses",
			func(addr string, valid bool) {
				Expect(IsIPv6(addr)).To(Equal(valid))
			},
			Entry(nil, "::1", true),
			Entry(nil, "2001:db8::1", true),
			Entry(nil, "FE80:0000:0000:0000:0000:0000:0000:0001", true),
			Entry(nil, "1:2:3:4:5:6:7:8", true),
			Entry(nil, "1:2:3:4:5:6:7:8:9", false),
			Entry(nil, "2001:db8::12345", false),
			Entry(nil, "2001:dg8::1", false),
			Entry(nil, "::ffff:10.0.0.1", false),
			Entry(nil, "localhost", false),
		)

		It("tells address families", func() {
			Expect(FamilyOf("10.0.0.1")).To(Equal(IPv4))
			Expect(FamilyOf("[::1]")).To(Equal(IPv6))
			Expect(FamilyOf("example.org")).To(Equal(Unknown))
			Expect(IPv6.String()).To(Equal("IPv6"))
		})

	})

	Context("IPv4", func() {

		It("classifies loopback and RFC1918 space as private", func() {
			for b := 0; b <= 255; b += 17 {
				Expect(IsPrivate(fmt.Sprintf("127.%d.0.1", b))).To(BeTrue())
				Expect(IsPrivate(fmt.Sprintf("10.%d.42.1", b))).To(BeTrue())
			}
			for b := 16; b <= 31; b++ {
				Expect(IsPrivate(fmt.Sprintf("172.%d.1.1", b))).To(BeTrue(), "172.%d.1.1", b)
			}
			Expect(IsPrivate("172.15.1.1")).To(BeFalse())
			Expect(IsPrivate("172.32.1.1")).To(BeFalse())
			Expect(IsPrivate("192.168.0.1")).To(BeTrue())
			Expect(IsPrivate("192.169.0.1")).To(BeFalse())
		})

		It("classifies link-local and multicast space as private", func() {
			Expect(Classify("169.254.1.1")).To(Equal(LinkLocal))
			Expect(IsPrivate("169.253.1.1")).To(BeFalse())
			for a := 224; a <= 239; a++ {
				Expect(IsPrivate(fmt.Sprintf("%d.0.0.1", a))).To(BeTrue())
			}
			Expect(IsPrivate("240.0.0.1")).To(BeFalse())
			Expect(IsPrivate("223.255.255.255")).To(BeFalse())
		})

		It("classifies public space as not private", func() {
			Expect(IsPrivate("8.8.8.8")).To(BeFalse())
			Expect(Classify("173.53.52.116")).To(Equal(Public))
			Expect(Scope("8.8.4.4")).To(Equal(types.ScopePublic))
			Expect(Scope("10.1.2.3")).To(Equal(types.ScopePrivate))
		})

	})

	Context("IPv6", func() {

		DescribeTable("pragmatic prefix matching",
			func(addr string, class Class) {
				Expect(Classify(addr)).To(Equal(class))
				Expect(IsPrivate(addr)).To(Equal(class.IsPrivate()))
			},
			Entry(nil, "0000:0000:0000:0000:0000:0000:0000:0001", Loopback),
			Entry(nil, "fe80:0000:0000:0000:0000:0000:0000:0001", LinkLocal),
			Entry(nil, "FE80::1", LinkLocal),
			Entry(nil, "fe90::1", LinkLocal),
			Entry(nil, "feb0::1", LinkLocal),
			Entry(nil, "[fd12:3456::1]", UniqueLocal),
			Entry(nil, "fc00::1", UniqueLocal),
			Entry(nil, "ff02::1", Multicast),
			Entry(nil, "2001:db8::1", Public),
			Entry("compressed loopback is a known limitation", "::1", Public),
			Entry("fe81 is not one of the matched prefixes", "fe81::1", Public),
		)

	})

	It("treats garbage conservatively", func() {
		Expect(IsPrivate("not.an.ip")).To(BeFalse())
		Expect(Classify("not.an.ip")).To(Equal(Unparseable))
		Expect(Classify("")).To(Equal(Unparseable))
		Expect(Unparseable.String()).To(Equal("unparseable"))
		Expect(Class(666).String()).To(Equal("Class(666)"))
	})

	It("is a pure function", func() {
		for _, addr := range []string{"10.0.0.1", "8.8.8.8", "::1", "not.an.ip", "[fe80::1]"} {
			Expect(IsPrivate(addr)).To(Equal(IsPrivate(addr)))
			Expect(Classify(addr)).To(Equal(Classify(addr)))
		}
	})

})

var _ = Describe("classifiers", func() {

	It("overrides the unparseable verdict", func() {
		c := New(WithUnparseableAsPrivate(true))
		Expect(c.IsPrivate("not.an.ip")).To(BeTrue())
		Expect(c.Scope("not.an.ip")).To(Equal(types.ScopePrivate))
		Expect(c.IsPrivate("8.8.8.8")).To(BeFalse())
		Expect(c.Strict()).To(BeFalse())
	})

	DescribeTable("normalizing addresses in strict mode",
		func(addr string, class Class) {
			c := New(WithNormalization())
			Expect(c.Strict()).To(BeTrue())
			Expect(c.Classify(addr)).To(Equal(class))
		},
		Entry(nil, "::1", Loopback),
		Entry(nil, "[::1]", Loopback),
		Entry(nil, "0:0:0:0:0:0:0:1", Loopback),
		Entry(nil, "fe80::1", LinkLocal),
		Entry(nil, "fe81::1", LinkLocal),
		Entry(nil, "febf::1", LinkLocal),
		Entry(nil, "fec0::1", Public),
		Entry(nil, "fd00::1", UniqueLocal),
		Entry(nil, "ff02::1", Multicast),
		Entry(nil, "::ffff:10.0.0.1", Private),
		Entry(nil, "2001:db8::1", Public),
		Entry(nil, "172.20.0.1", Private),
		Entry(nil, "224.0.0.251", Multicast),
		Entry(nil, "8.8.8.8", Public),
		Entry("leading zeros fall back to pragmatic parsing", "010.0.0.1", Private),
		Entry(nil, "not.an.ip", Unparseable),
	)

	It("keeps strict and pragmatic verdicts apart", func() {
		strict := New(WithNormalization())
		Expect(strict.IsPrivate("::1")).To(BeTrue())
		Expect(IsPrivate("::1")).To(BeFalse())
	})

})
