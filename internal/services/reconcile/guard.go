package reconcile

// IsStale reports whether an incoming input sequence is older than the last
// accepted one. Equal sequences are not stale.
func IsStale(lastAccepted, incoming float64) bool {
	return incoming < lastAccepted
}
