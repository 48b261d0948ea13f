/*
Package dnsworker implements a simple limiting DNS client-request execution
pool. hostprobe uses [DnsPool] with a pool of “DNS workers” for explicit A and
AAAA record queries, when the dual-stack system lookup of a host name comes up
empty.

Usage

	dnsclnt := dns.Client{}
	server, _ := dnsworker.ServerFromResolvConf(dnsworker.DefaultResolvConf)
	workers, err := dnsworker.New(
	    context.Background(),
	    4,        // number of parallel DNS connections and thus workers
	    &dnsclnt, // DNS client
	    server,   // address of server/resolver
	)
	workers.Resolve(ctx, "foobar.example.org", dns.TypeAAAA,
	    func(addrs []string, err error) {
	        // do something with addrs, unless there's an error reported
	    })
	workers.Submit(func(conn *dns.Conn) {
	    // do something with the DNS connection
	})

# Acknowledgements

Under its hood, [DnsPool] leverages [gammazero/workerpool] as the limiting
goroutine pool and [miekg/dns] for talking DNS.

[gammazero/workerpool]: https://github.com/gammazero/workerpool
[miekg/dns]: https://github.com/miekg/dns
*/
package dnsworker
