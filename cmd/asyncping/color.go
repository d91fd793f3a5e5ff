// (c) Siemens AG 2023
//
// SPDX-License-Identifier: MIT

package main

import "github.com/muesli/termenv"

var (
	pingingStyle = termenv.Style{}.Foreground(termenv.ANSIYellow)
	repliedStyle = termenv.Style{}.Foreground(termenv.ANSIGreen)
	lostStyle    = termenv.Style{}.Foreground(termenv.ANSIRed)
)

var hostNameStyle = termenv.Style{}.Bold()
