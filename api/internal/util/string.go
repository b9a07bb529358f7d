package util

// Truncate cuts s to at most n bytes, marking the cut with "…".
func Truncate(s string, n int) string {
	if n <= 0 || len(s) <= n {
		return s
	}
	return s[:n] + "…"
}
