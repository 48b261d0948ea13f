/*
Package ping implements an ICMP(v4/v6)-based IP address (in)validator, which
hostprobe optionally uses in addition to HTTP(S) probing to check whether the
individual resolved addresses of a host are alive.

[Pinger] objects support concurrent IP address validation jobs with maximum
goroutine limits. Individual verdicts are streamed as they are decided, to a
channel returned when creating a new Pinger object.

	         +---+
	string-->| P +-->ch QualifiedAddress
	         +---+

Please note that a [Pinger] initially emits any newly submitted address before
it undergoes verification (with its quality set to “verifying”), as well as
later the final verdict.

[Pinger.Ping] checks a single address synchronously instead.

# Acknowledgements

Under its hood, [Pinger] leverages [gammazero/workerpool] as the limiting
goroutine pool and [go-ping/ping] for the actual pinging.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[go-ping/ping]: https://github.com/go-ping/ping
*/
package ping
