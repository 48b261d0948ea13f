// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	verifyingAddressStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	validAddressStyle     = termenv.Style{}.Foreground(termenv.ANSIGreen)
	invalidAddressStyle   = termenv.Style{}.Foreground(termenv.ANSIRed)
	privateAddressStyle   = termenv.Style{}.Underline()
)

var (
	probingStyle     = termenv.Style{}.Foreground(termenv.ANSIYellow)
	reachableStyle   = termenv.Style{}.Foreground(termenv.ANSIGreen).Bold()
	unreachableStyle = termenv.Style{}.Foreground(termenv.ANSIRed).Bold()
)
