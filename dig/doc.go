/*
Package dig implements a host-name-to-address digger that streams the resolved
addresses of hosts together with their private/public scope. The addresses dug
out can then be passed on for reachability probing and optional (in)validation
to a verifier.

The digging runs concurrently, but under the constraints of limited goroutines.
That is, the maximum number of concurrent host resolutions is limited by the
size of the digger's worker pool. The resolution itself is carried out by a
[resolve.Resolver] in its three stages (dual-stack lookup, A/AAAA records,
generic host lookup); the classification by an [ipclass.Classifier].

[NamedAddressesMap] finally consumes the stream of named addresses and their
updates, keeping the most recent state of each host for display.

Host lists can be read using [ReadHosts] and [ReadHostsFile].
*/
package dig
