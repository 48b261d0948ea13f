// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import (
	"fmt"
	"io"
	"net/netip"
	"sort"

	"github.com/siemens/hostprobe/dig"
	"github.com/siemens/hostprobe/types"
)

// renderer renders the terminal display, based on named+qualified address
// information passed to its Render method.
type renderer struct {
	Indentation int
	Final       bool // renders a summary when set.
	hostsCount  int
	pinging     bool
	w           io.Writer
	spinner     *spinner
}

// newRenderer returns a Render object rendering to the specified io.Writer.
// hostsCount is the number of hosts that are going to be probed.
func newRenderer(w io.Writer, hostsCount int, opts *settings) *renderer {
	sp := newSpinner()
	sp.Start(opts.spinnerInterval)
	return &renderer{
		Indentation: int(opts.indentation),
		hostsCount:  hostsCount,
		pinging:     opts.ping,
		w:           w,
		spinner:     sp,
	}
}

// Stop the renderer's background ticker.
func (r *renderer) Stop() {
	r.spinner.Stop()
}

// Render the given named+qualified addresses.
func (r *renderer) Render(na []dig.NamedAddressSet) {
	// If we don't have any name+addressing information yet, show a proxy
	// message.
	if len(na) == 0 && !r.Final {
		fmt.Fprintf(r.w, "probing %d hosts...\n", r.hostsCount)
		return
	}
	// For neat display, determine the length of the longest host name in the
	// data to display, so that the reachability column doesn't zig-zag around.
	maxlen := 0
	for _, set := range na {
		if l := len(set.Host); l > maxlen {
			maxlen = l
		}
	}
	fmt.Fprintf(r.w, "reachability of %d hosts\n", r.hostsCount)
	for _, set := range na {
		r.renderHostDetails(maxlen, set)
	}
	if r.Final {
		r.renderSummary(na)
	}
}

// renderHostDetails renders a host's reachability and qualified addresses.
func (r *renderer) renderHostDetails(labelwidth int, na dig.NamedAddressSet) {
	fmt.Fprintf(r.w, "%-*s%-*s ", r.Indentation, "", labelwidth, na.Host)
	switch {
	case na.Reach == nil:
		fmt.Fprint(r.w, probingStyle.Styled(" "+r.spinner.Spinner()+"     "))
	case na.Reach.Success:
		fmt.Fprint(r.w, reachableStyle.Styled(fmt.Sprintf(" ✔ %-5s ", na.Reach.Protocol)))
	default:
		fmt.Fprint(r.w, unreachableStyle.Styled(" × "+na.Reach.Error+" "))
	}
	sortQualifiedAddresses(na.Addresses)
	for _, addr := range na.Addresses {
		fmt.Fprint(r.w, " ")
		text := addr.Address
		if addr.AddrScope == types.ScopePrivate {
			text = privateAddressStyle.Styled(text)
		}
		if !r.pinging {
			fmt.Fprint(r.w, text)
			continue
		}
		switch addr.Quality {
		case types.Unverified:
			fmt.Fprintf(r.w, " ? %s", text)
		case types.Verifying:
			fmt.Fprint(r.w, verifyingAddressStyle.Styled(" "+r.spinner.Spinner())+text+" ")
		case types.Verified:
			fmt.Fprint(r.w, validAddressStyle.Styled(" ✔ ")+text+" ")
		case types.Invalid:
			fmt.Fprint(r.w, invalidAddressStyle.Styled(" × ")+text+" ")
		}
	}
	fmt.Fprintln(r.w)
}

// renderSummary renders the final tally of reachable hosts and hosts with
// private addresses.
func (r *renderer) renderSummary(na []dig.NamedAddressSet) {
	reachable, private := 0, 0
	for _, set := range na {
		if set.Reach != nil && set.Reach.Success {
			reachable++
		}
		if set.IsPrivate() {
			private++
		}
	}
	fmt.Fprintf(r.w, "%d of %d hosts reachable, %d with private addresses\n",
		reachable, len(na), private)
}

// sortQualifiedAddresses sorts a slice of qualified address in place.
// - IPv4 first, IPv6 second.
// - sorts by address value.
// - unparseable addresses last, sorted by their text.
func sortQualifiedAddresses(addrs []types.QualifiedAddressValue) {
	sort.SliceStable(addrs, func(a, b int) bool {
		ipA, errA := netip.ParseAddr(addrs[a].Address)
		ipB, errB := netip.ParseAddr(addrs[b].Address)
		switch {
		case errA != nil && errB != nil:
			return addrs[a].Address < addrs[b].Address
		case errA != nil:
			return false
		case errB != nil:
			return true
		}
		return ipA.Unmap().Less(ipB.Unmap())
	})
}
