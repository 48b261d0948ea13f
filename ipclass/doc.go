/*
Package ipclass classifies IP addresses in textual form as either belonging to
private (internal, non-routable) address space or to public address space.

	ipclass.IsPrivate("192.168.1.10")  // true
	ipclass.IsPrivate("8.8.8.8")       // false
	ipclass.IsPrivate("[fd00::1]")     // true
	ipclass.IsPrivate("not.an.ip")     // false

Classification is a pure function of the address string.

# Validation

By default, a pragmatic validator is used instead of a full RFC parser: IPv4
addresses must consist of exactly four dot-separated decimal segments in the
range 0..255, IPv6 addresses must contain at least one colon and at most eight
colon-separated segments, each either empty or consisting of one to four hex
digits. Input that fails validation is classified according to
[UnparseableIsPrivate], unless a [Classifier] has been created using
[WithUnparseableAsPrivate].

# Known limitation and strict mode

The default classification matches IPv6 address prefixes on the lower-cased
address text without expanding “::” compression. The loopback address is thus
only recognized in its fully expanded form
“0000:0000:0000:0000:0000:0000:0000:0001”, but not as “::1”. Link-local
addresses are recognized only for the prefixes fe80:, fe90:, fea0:, and feb0:.

A [Classifier] created with [WithNormalization] instead parses addresses
using [net/netip], unmaps IPv4-mapped IPv6 addresses, and matches them against
proper CIDR ranges maintained as [go4.org/netipx.IPSet] sets.
*/
package ipclass
