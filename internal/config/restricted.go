package config

import "runtime"

// defaultRestrictedPaths returns the deny-list of system directories the
// resolver must reject on the current platform.
func defaultRestrictedPaths() []string {
	if runtime.GOOS == "windows" {
		return []string{
			`C:\Windows`,
			`C:\Program Files`,
			`C:\Program Files (x86)`,
		}
	}
	return []string{
		"/etc",
		"/var",
		"/usr/bin",
		"/usr/sbin",
		"/usr/local/bin",
	}
}
