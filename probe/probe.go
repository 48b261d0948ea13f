// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package probe

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/siemens/hostprobe/types"

	"github.com/thediveo/lxkns/log"
)

// DefaultUserAgent is the browser-like User-Agent header sent with probes.
const DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

// The error texts of unsuccessful probe outcomes not passing through
// transport errors.
const (
	ErrTimeout         = "Timeout"
	ErrHTTPUnavailable = "HTTP module not available"
)

// Requester is the capability of carrying out HTTP requests; [*http.Client]
// satisfies it.
type Requester interface {
	Do(req *http.Request) (*http.Response, error)
}

// Prober determines whether domains answer over HTTPS or HTTP. Probers hold
// no mutable state and are safe for concurrent use.
type Prober struct {
	requester Requester
	userAgent string
}

// Option can be passed to [New] when creating new Prober objects.
type Option func(*Prober)

// New returns a new Prober sending its requests using the specified requester.
// A nil requester results in a Prober that reports all domains to be
// unreachable, without attempting any request.
func New(requester Requester, options ...Option) *Prober {
	p := &Prober{
		requester: requester,
		userAgent: DefaultUserAgent,
	}
	for _, opt := range options {
		opt(p)
	}
	return p
}

// WithUserAgent sets the User-Agent header value sent with the requests.
func WithUserAgent(ua string) Option {
	return func(p *Prober) { p.userAgent = ua }
}

// attempt is the outcome of probing a single URL.
type attempt struct {
	url     string
	success bool
	err     string
}

// ProbeDomain probes the specified domain first via HTTPS and, only if this
// fails, via HTTP. Each attempt gets the full timeout, so probing might take
// up to twice the timeout in total. Any response with a status code of at
// least 100 counts as reachable, whatever the status class.
//
// When both attempts fail, the outcome carries the error of the HTTP attempt:
// "Timeout" if the attempt ran out of time, "HTTP {status}" for a bogus status
// code, or the transport error text otherwise. When the passed context is done
// after a failed HTTPS attempt, the HTTP attempt is skipped and the outcome
// carries the context's error text.
//
// ProbeDomain never fails in the sense of returning an error.
func (p *Prober) ProbeDomain(ctx context.Context, domain string, timeout time.Duration) types.ProbeOutcome {
	if p.requester == nil {
		log.Warnf("probe %s: %s", domain, ErrHTTPUnavailable)
		return types.Unreachable(ErrHTTPUnavailable)
	}
	log.Debugf("probe %s: timeout %s", domain, timeout)

	secure := p.probeURL(ctx, "https://"+domain, timeout)
	if secure.success {
		log.Debugf("probe %s: reachable via HTTPS", domain)
		return types.Reachable(types.ProtocolHTTPS)
	}
	log.Debugf("probe %s: HTTPS failed: %s", domain, secure.err)
	if err := ctx.Err(); err != nil {
		return types.Unreachable(err.Error())
	}

	plain := p.probeURL(ctx, "http://"+domain, timeout)
	if plain.success {
		log.Debugf("probe %s: reachable via HTTP", domain)
		return types.Reachable(types.ProtocolHTTP)
	}
	log.Debugf("probe %s: HTTP failed: %s", domain, plain.err)
	return types.Unreachable(plain.err)
}

// probeURL sends a single GET request to the specified URL, bounded by the
// specified timeout.
func (p *Prober) probeURL(ctx context.Context, rawurl string, timeout time.Duration) (a attempt) {
	a.url = rawurl
	actx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel() // disarms the timer as soon as we're done.

	req, err := http.NewRequestWithContext(actx, http.MethodGet, rawurl, nil)
	if err != nil {
		a.err = errorText(err)
		return
	}
	req.Header.Set("User-Agent", p.userAgent)

	start := time.Now()
	resp, err := p.do(req)
	if err != nil {
		if errors.Is(actx.Err(), context.DeadlineExceeded) {
			log.Debugf("probe %s: timed out after %s", rawurl, timeout)
			a.err = ErrTimeout
			return
		}
		a.err = errorText(err)
		return
	}
	if resp.Body != nil {
		resp.Body.Close()
	}
	if resp.StatusCode < 100 {
		a.err = fmt.Sprintf("HTTP %d", resp.StatusCode)
		return
	}
	log.Debugf("probe %s: status %d in %s", rawurl, resp.StatusCode, time.Since(start))
	a.success = true
	return
}

// do carries out the request, turning requester panics and missing responses
// into errors.
func (p *Prober) do(req *http.Request) (resp *http.Response, err error) {
	defer func() {
		if pnc := recover(); pnc != nil {
			resp, err = nil, fmt.Errorf("panic: %v", pnc)
		}
	}()
	resp, err = p.requester.Do(req)
	if err == nil && resp == nil {
		err = errors.New("no response")
	}
	if err != nil && resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	return resp, err
}

// errorText returns the native error message of the underlying cause of a
// request error, without the “Get "https://...":” decoration.
func errorText(err error) string {
	var uerr *url.Error
	if errors.As(err, &uerr) && uerr.Err != nil {
		return uerr.Err.Error()
	}
	return err.Error()
}
