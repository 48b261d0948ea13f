/*
Package types defines hostprobe's information model. The core results are
[ProbeOutcome] for the reachability of a host over HTTPS or HTTP, and plain
string slices of IP addresses for name resolution.

The streaming pipeline (digger and verifier) additionally passes around
[NamedAddress] values: a host name together with one of its resolved
addresses, the address' [Scope] (private or public), and its ping
verification [Quality]. A named address without an address announces the host
itself; once the host has been probed it carries the host's [ProbeOutcome].

# Extending QualifiedAddress

In case an implementation chooses to embed [QualifiedAddressValue] into its own
type, it is essential to (re)implement the
[QualifiedAddressValue.WithNewQuality] method. Otherwise the embedded method
gets promoted and returns only a stock QualifiedAddressValue, losing the
additional information in the process.

# Immutability

Named addresses travel as interface pointers through channels between
concurrently running stages. They thus must be treated as immutable: the
interfaces offer only getters, and updates always create new values.
*/
package types
