// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package ipclass

import (
	"strconv"
	"strings"

	"github.com/siemens/hostprobe/types"
)

// UnparseableIsPrivate is the default verdict for address strings that are
// neither valid IPv4 nor IPv6 addresses: malformed asset data rather yields a
// false negative than a false positive.
const UnparseableIsPrivate = false

// Family of an IP address.
type Family int

// The address families; Unknown is used for unparseable input.
const (
	Unknown Family = 0
	IPv4    Family = 4
	IPv6    Family = 6
)

// String returns "IPv4", "IPv6", or "unknown".
func (f Family) String() string {
	switch f {
	case IPv4:
		return "IPv4"
	case IPv6:
		return "IPv6"
	}
	return "unknown"
}

// Class is the address range class an address falls into.
type Class int

// The address range classes.
const (
	Public Class = iota
	Loopback
	Private
	LinkLocal
	Multicast
	UniqueLocal
	Unparseable
)

var classNames = map[Class]string{
	Public:      "public",
	Loopback:    "loopback",
	Private:     "private",
	LinkLocal:   "link-local",
	Multicast:   "multicast",
	UniqueLocal: "unique-local",
	Unparseable: "unparseable",
}

// String returns the clear-text name of a class.
func (c Class) String() string {
	if name, ok := classNames[c]; ok {
		return name
	}
	return "Class(" + strconv.Itoa(int(c)) + ")"
}

// IsPrivate returns true for all classes of private, reserved, and otherwise
// internal address space. Unparseable is reported as not private; use
// [Classifier.IsPrivate] for the configurable policy.
func (c Class) IsPrivate() bool {
	switch c {
	case Public, Unparseable:
		return false
	}
	return true
}

var std = New()

// IsPrivate returns true if the specified address is a private/internal
// address, using the default pragmatic classifier. IPv6 literals may be
// enclosed in square brackets.
func IsPrivate(addr string) bool { return std.IsPrivate(addr) }

// Classify returns the range class of the specified address, using the
// default pragmatic classifier.
func Classify(addr string) Class { return std.Classify(addr) }

// Scope returns the address scope of the specified address, using the default
// pragmatic classifier.
func Scope(addr string) types.Scope { return std.Scope(addr) }

// FamilyOf returns the address family of the specified address according to
// the pragmatic validators, or Unknown.
func FamilyOf(addr string) Family {
	addr = stripBrackets(addr)
	switch {
	case IsIPv4(addr):
		return IPv4
	case IsIPv6(addr):
		return IPv6
	}
	return Unknown
}

// IsIPv4 returns true if addr consists of exactly four dot-separated segments,
// each a decimal number in the range 0..255 without any other characters.
func IsIPv4(addr string) bool {
	_, ok := octets(addr)
	return ok
}

// IsIPv6 returns true if addr contains at least one colon and splits into at
// most eight colon-separated segments, each either empty (allowing for “::”
// compression) or consisting of one to four hex digits.
func IsIPv6(addr string) bool {
	if !strings.Contains(addr, ":") {
		return false
	}
	segments := strings.Split(addr, ":")
	if len(segments) > 8 {
		return false
	}
	for _, seg := range segments {
		if len(seg) > 4 {
			return false
		}
		for _, r := range seg {
			if !isHexDigit(r) {
				return false
			}
		}
	}
	return true
}

// octets returns the four decimal segments of an IPv4 address, or false.
func octets(addr string) ([4]int, bool) {
	var quad [4]int
	segments := strings.Split(addr, ".")
	if len(segments) != 4 {
		return quad, false
	}
	for idx, seg := range segments {
		if seg == "" {
			return quad, false
		}
		for _, r := range seg {
			if r < '0' || r > '9' {
				return quad, false
			}
		}
		val, err := strconv.Atoi(seg)
		if err != nil || val > 255 {
			return quad, false
		}
		quad[idx] = val
	}
	return quad, true
}

func isHexDigit(r rune) bool {
	return (r >= '0' && r <= '9') || (r >= 'a' && r <= 'f') || (r >= 'A' && r <= 'F')
}

// stripBrackets removes a single leading “[” and a single trailing “]”.
func stripBrackets(addr string) string {
	addr = strings.TrimPrefix(addr, "[")
	return strings.TrimSuffix(addr, "]")
}

// classifyIPv4 applies the IPv4 private and reserved ranges to a valid
// dotted quad.
func classifyIPv4(quad [4]int) Class {
	a, b := quad[0], quad[1]
	switch {
	case a == 127:
		return Loopback
	case a == 10:
		return Private
	case a == 172 && b >= 16 && b <= 31:
		return Private
	case a == 192 && b == 168:
		return Private
	case a == 169 && b == 254:
		return LinkLocal
	case a >= 224 && a <= 239:
		return Multicast
	}
	return Public
}

// classifyIPv6Text applies prefix matches to the lower-cased address text,
// without expanding any “::” compression.
func classifyIPv6Text(addr string) Class {
	addr = strings.ToLower(addr)
	switch {
	case addr == "0000:0000:0000:0000:0000:0000:0000:0001":
		return Loopback
	case strings.HasPrefix(addr, "fe80:"),
		strings.HasPrefix(addr, "fe90:"),
		strings.HasPrefix(addr, "fea0:"),
		strings.HasPrefix(addr, "feb0:"):
		return LinkLocal
	case strings.HasPrefix(addr, "fc"), strings.HasPrefix(addr, "fd"):
		return UniqueLocal
	case strings.HasPrefix(addr, "ff"):
		return Multicast
	}
	return Public
}
