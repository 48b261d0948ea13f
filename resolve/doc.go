/*
Package resolve resolves host names into IP addresses with graceful
degradation across different resolution mechanisms.

A [Resolver] first tries a dual-stack lookup of an IPv4 and an IPv6 address
in parallel. If this comes up empty it falls back to explicit A and AAAA
record queries (again in parallel), and finally to a generic lookup of all
host addresses. Failures of individual lookups never cancel their sibling
lookups, and partial results are kept.

Resolution failures are not errors: [Resolver.ResolveHost] simply returns an
empty list, and callers might then still try to probe the host name directly.

The mechanisms are injected as capabilities: [Lookuper], [RecordResolver], and
[HostLookuper]. [System] adapts a [net.Resolver], and [Pool] adapts a
[github.com/siemens/hostprobe/dnsworker.DnsPool] that queries a specific DNS
server using [miekg/dns].

[miekg/dns]: https://github.com/miekg/dns
*/
package resolve
