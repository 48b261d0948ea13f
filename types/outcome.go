// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package types

import "fmt"

// Protocol is the protocol a host was found reachable with.
type Protocol int

// The protocols of a [ProbeOutcome]. ProtocolNone always goes together with an
// unsuccessful outcome.
const (
	ProtocolNone Protocol = iota
	ProtocolHTTP
	ProtocolHTTPS
)

// String returns "none", "http", or "https".
func (p Protocol) String() string {
	switch p {
	case ProtocolNone:
		return "none"
	case ProtocolHTTP:
		return "http"
	case ProtocolHTTPS:
		return "https"
	}
	return fmt.Sprintf("Protocol(%d)", p)
}

// Scheme returns the URL scheme for a protocol, or "" for ProtocolNone.
func (p Protocol) Scheme() string {
	switch p {
	case ProtocolHTTP, ProtocolHTTPS:
		return p.String()
	}
	return ""
}

// MarshalText renders a Protocol as its clear-text name.
func (p Protocol) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

// UnmarshalText parses a Protocol from its clear-text name.
func (p *Protocol) UnmarshalText(text []byte) error {
	for _, proto := range []Protocol{ProtocolNone, ProtocolHTTP, ProtocolHTTPS} {
		if proto.String() == string(text) {
			*p = proto
			return nil
		}
	}
	return fmt.Errorf("invalid protocol %q", text)
}

// ProbeOutcome is the terminal result of probing a single domain for
// reachability. Use [Reachable] and [Unreachable] to create outcomes: a
// successful outcome always carries either ProtocolHTTP or ProtocolHTTPS,
// while an unsuccessful outcome always carries ProtocolNone and an error
// text.
type ProbeOutcome struct {
	Success  bool     `json:"success"`
	Protocol Protocol `json:"protocol"`
	Error    string   `json:"error,omitempty"`
}

// Reachable returns a successful outcome for the specified protocol. Passing
// ProtocolNone is a programming error and panics.
func Reachable(p Protocol) ProbeOutcome {
	if p != ProtocolHTTP && p != ProtocolHTTPS {
		panic(fmt.Sprintf("Reachable: invalid protocol %s", p))
	}
	return ProbeOutcome{Success: true, Protocol: p}
}

// Unreachable returns an unsuccessful outcome with the specified error text.
// An empty error text is replaced with "unknown error".
func Unreachable(err string) ProbeOutcome {
	if err == "" {
		err = "unknown error"
	}
	return ProbeOutcome{Protocol: ProtocolNone, Error: err}
}

// String returns a short human-readable description of the outcome.
func (o ProbeOutcome) String() string {
	if o.Success {
		return "reachable via " + o.Protocol.String()
	}
	return "unreachable: " + o.Error
}
