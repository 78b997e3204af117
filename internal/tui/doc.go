// Package tui holds the terminal front ends: the interactive [Console]
// that drives a server like the browser page does, and the [LiveRenderer]
// status line used by local runs.
package tui
