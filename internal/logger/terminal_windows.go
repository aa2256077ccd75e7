//go:build windows

package logger

// isTerminal always reports false on Windows; colored output is disabled.
func isTerminal(fd uintptr) bool {
	return false
}
