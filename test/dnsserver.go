// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package test

import (
	"net"
	"strings"

	"github.com/miekg/dns"

	gi "github.com/onsi/ginkgo/v2"
	g "github.com/onsi/gomega"
	s "github.com/thediveo/success"
)

// SilentPrefix marks names the test DNS server never answers, so that queries
// for them run into their deadlines.
const SilentPrefix = "silent."

// Zone maps (not necessarily fully qualified) names to their IPv4 and IPv6
// addresses in textual form.
type Zone map[string][]string

// DNSServer is a tiny authoritative-for-everything UDP DNS server answering A
// and AAAA queries from a static Zone.
type DNSServer struct {
	Addr   string // "host:port" the server listens on.
	server *dns.Server
}

// StartDNSServer starts a new DNSServer on a free loopback UDP port, serving
// the specified zone. Names not in the zone are answered with NXDOMAIN.
func StartDNSServer(zone Zone) *DNSServer {
	gi.GinkgoHelper()

	fqdnZone := map[string][]string{}
	for name, addrs := range zone {
		fqdnZone[dns.Fqdn(strings.ToLower(name))] = addrs
	}
	pc := s.Successful(net.ListenPacket("udp", "127.0.0.1:0"))
	started := make(chan struct{})
	srv := &dns.Server{
		PacketConn:        pc,
		Handler:           dns.HandlerFunc(func(w dns.ResponseWriter, req *dns.Msg) { answer(fqdnZone, w, req) }),
		NotifyStartedFunc: func() { close(started) },
	}
	go func() { _ = srv.ActivateAndServe() }()
	g.Eventually(started).Should(g.BeClosed())
	return &DNSServer{
		Addr:   pc.LocalAddr().String(),
		server: srv,
	}
}

// Stop the server.
func (d *DNSServer) Stop() {
	_ = d.server.Shutdown()
}

func answer(zone map[string][]string, w dns.ResponseWriter, req *dns.Msg) {
	if len(req.Question) != 1 {
		return
	}
	q := req.Question[0]
	name := strings.ToLower(q.Name)
	if strings.HasPrefix(name, SilentPrefix) {
		return
	}
	m := new(dns.Msg)
	m.SetReply(req)
	m.Authoritative = true
	addrs, ok := zone[name]
	if !ok {
		m.Rcode = dns.RcodeNameError
	}
	for _, addr := range addrs {
		ip := net.ParseIP(addr)
		if ip == nil {
			continue
		}
		hdr := dns.RR_Header{Name: q.Name, Class: dns.ClassINET, Ttl: 60}
		switch {
		case ip.To4() != nil && q.Qtype == dns.TypeA:
			hdr.Rrtype = dns.TypeA
			m.Answer = append(m.Answer, &dns.A{Hdr: hdr, A: ip.To4()})
		case ip.To4() == nil && q.Qtype == dns.TypeAAAA:
			hdr.Rrtype = dns.TypeAAAA
			m.Answer = append(m.Answer, &dns.AAAA{Hdr: hdr, AAAA: ip})
		}
	}
	_ = w.WriteMsg(m)
}
