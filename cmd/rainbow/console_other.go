//go:build !windows

package main

// enableANSI is a no-op outside Windows: every other terminal this tool
// runs in already interprets VT100 escapes natively.
func enableANSI() bool { return true }
