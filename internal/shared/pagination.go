package shared

const (
	// DefaultListLimit applies when a listing request names no limit.
	DefaultListLimit = 100
	// MaxListLimit caps how many rows a single listing request may pull.
	MaxListLimit = 500
)

// ClampLimit normalises a requested page size into the allowed range.
func ClampLimit(limit int) int {
	if limit <= 0 || limit > MaxListLimit {
		return DefaultListLimit
	}
	return limit
}
