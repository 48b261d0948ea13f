// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ipclass

import (
	"net/netip"

	"github.com/siemens/hostprobe/types"

	"go4.org/netipx"
)

// Classifier classifies addresses into private and public address space. The
// zero value is not usable; create classifiers using [New].
type Classifier struct {
	unparseableIsPrivate bool
	sets                 []classSet // non-nil only in strict (normalizing) mode.
}

// classSet is the set of address ranges making up a single Class.
type classSet struct {
	class Class
	set   *netipx.IPSet
}

// Option can be passed to [New] when creating new Classifier objects.
type Option func(*Classifier) error

// New returns a new Classifier, configured using the specified options. By
// default, the Classifier uses the pragmatic validators and prefix matching
// and treats unparseable input as not private.
func New(options ...Option) *Classifier {
	c, err := NewClassifier(options...)
	if err != nil {
		panic(err)
	}
	return c
}

// NewClassifier works like [New], but returns an error instead of panicking
// in case any option fails.
func NewClassifier(options ...Option) (*Classifier, error) {
	c := &Classifier{unparseableIsPrivate: UnparseableIsPrivate}
	for _, opt := range options {
		if err := opt(c); err != nil {
			return nil, err
		}
	}
	return c, nil
}

// WithUnparseableAsPrivate overrides the verdict for input that neither
// validates as an IPv4 nor as an IPv6 address.
func WithUnparseableAsPrivate(private bool) Option {
	return func(c *Classifier) error {
		c.unparseableIsPrivate = private
		return nil
	}
}

// WithNormalization switches the Classifier into strict mode: addresses are
// parsed and normalized (expanding “::” compression, unmapping IPv4-mapped
// IPv6 addresses) and then matched against the proper CIDR ranges. Input that
// the strict parser rejects, but the pragmatic validators accept (such as
// IPv4 octets with leading zeros), is classified the pragmatic way.
func WithNormalization() Option {
	return func(c *Classifier) error {
		sets, err := buildClassSets()
		if err != nil {
			return err
		}
		c.sets = sets
		return nil
	}
}

// privateRanges lists the private and reserved CIDR ranges for strict mode.
var privateRanges = []struct {
	class    Class
	prefixes []string
}{
	{Loopback, []string{"127.0.0.0/8", "::1/128"}},
	{Private, []string{"10.0.0.0/8", "172.16.0.0/12", "192.168.0.0/16"}},
	{LinkLocal, []string{"169.254.0.0/16", "fe80::/10"}},
	{Multicast, []string{"224.0.0.0/4", "ff00::/8"}},
	{UniqueLocal, []string{"fc00::/7"}},
}

func buildClassSets() ([]classSet, error) {
	sets := make([]classSet, 0, len(privateRanges))
	for _, r := range privateRanges {
		var b netipx.IPSetBuilder
		for _, prefix := range r.prefixes {
			b.AddPrefix(netip.MustParsePrefix(prefix))
		}
		set, err := b.IPSet()
		if err != nil {
			return nil, err
		}
		sets = append(sets, classSet{class: r.class, set: set})
	}
	return sets, nil
}

// Strict returns true if the Classifier normalizes addresses.
func (c *Classifier) Strict() bool { return c.sets != nil }

// IsPrivate returns true if the specified address is a private/internal
// address. Unparseable input yields the Classifier's configured verdict.
func (c *Classifier) IsPrivate(addr string) bool {
	class := c.Classify(addr)
	if class == Unparseable {
		return c.unparseableIsPrivate
	}
	return class.IsPrivate()
}

// Scope returns the scope of the specified address; unparseable input maps
// onto the scope corresponding with the Classifier's configured verdict.
func (c *Classifier) Scope(addr string) types.Scope {
	if c.IsPrivate(addr) {
		return types.ScopePrivate
	}
	return types.ScopePublic
}

// Classify returns the range class of the specified address.
func (c *Classifier) Classify(addr string) Class {
	addr = stripBrackets(addr)
	if c.sets != nil {
		if ip, err := netip.ParseAddr(addr); err == nil {
			return c.classifyNormalized(ip)
		}
	}
	if quad, ok := octets(addr); ok {
		return classifyIPv4(quad)
	}
	if IsIPv6(addr) {
		return classifyIPv6Text(addr)
	}
	return Unparseable
}

func (c *Classifier) classifyNormalized(ip netip.Addr) Class {
	ip = ip.Unmap().WithZone("")
	for _, cs := range c.sets {
		if cs.set.Contains(ip) {
			return cs.class
		}
	}
	return Public
}
