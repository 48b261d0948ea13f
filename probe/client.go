// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"crypto/tls"
	"net"
	"net/http"
	"time"

	"github.com/thediveo/lxkns/ops"
	"github.com/thediveo/lxkns/ops/relations"
	"github.com/thediveo/lxkns/species"
)

// clientConfig collects the settings of an HTTP client created by NewClient.
type clientConfig struct {
	netns    relations.Relation // network namespace to dial from, or nil.
	resolver *net.Resolver      // resolver for host names, or nil for the default.
	insecure bool
}

// ClientOption can be passed to [NewClient].
type ClientOption func(*clientConfig)

// ClientInNetworkNamespace makes the client dial its connections from inside
// the network namespace referenced by the specified filesystem path, such as
// "/proc/666/ns/net". An empty path is ignored.
//
// Please note that only the connection sockets are created inside the network
// namespace; host names in probed URLs should thus be resolvable from the
// caller's network namespace too, or be IP address literals.
func ClientInNetworkNamespace(netnsref string) ClientOption {
	return func(c *clientConfig) {
		if netnsref == "" {
			return
		}
		c.netns = ops.NewTypedNamespacePath(netnsref, species.CLONE_NEWNET)
	}
}

// ClientInsecure skips the verification of server certificates, so that
// HTTPS servers with self-signed or otherwise invalid certificates count as
// reachable.
func ClientInsecure() ClientOption {
	return func(c *clientConfig) { c.insecure = true }
}

// ClientWithResolver resolves the host names of probed URLs using the
// specified resolver instead of the default resolver.
func ClientWithResolver(r *net.Resolver) ClientOption {
	return func(c *clientConfig) { c.resolver = r }
}

// NewClient returns an [*http.Client] suitable as a [Requester] for probing:
// it doesn't keep idle connections around, as each host usually gets probed
// only once. Timeouts are controlled by the Prober using request contexts.
func NewClient(options ...ClientOption) *http.Client {
	var cfg clientConfig
	for _, opt := range options {
		opt(&cfg)
	}
	transport := http.DefaultTransport.(*http.Transport).Clone()
	transport.DisableKeepAlives = true
	if cfg.insecure {
		transport.TLSClientConfig = &tls.Config{InsecureSkipVerify: true} // #nosec G402
	}
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
		Resolver:  cfg.resolver,
	}
	if cfg.netns != nil {
		transport.DialContext = dialInNetworkNamespace(dialer, cfg.netns)
	} else {
		transport.DialContext = dialer.DialContext
	}
	return &http.Client{Transport: transport}
}

// dialInNetworkNamespace returns a dial function creating its connections in
// the specified network namespace; the connections then stay attached to this
// network namespace.
func dialInNetworkNamespace(dialer *net.Dialer, netns relations.Relation) func(ctx context.Context, network, addr string) (net.Conn, error) {
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		var conn net.Conn
		dialerr, err := ops.Execute(func() interface{} {
			c, err := dialer.DialContext(ctx, network, addr)
			if err != nil {
				return err
			}
			conn = c
			return nil
		}, netns)
		if err != nil {
			return nil, err
		}
		if dialerr != nil {
			return nil, dialerr.(error)
		}
		return conn, nil
	}
}
