package tracing

// Merge outcomes reported to metrics and logs.
const (
	outcomeMerged     = "merged"
	outcomeSuppressed = "suppressed"
	outcomeReplaced   = "replaced"
	outcomeMissing    = "missing"
	outcomeMalformed  = "malformed"
	outcomeIgnored    = "ignored"
)

// indexOf returns the position of traceID in items, or -1.
func indexOf[T Record](items []T, traceID string) int {
	for i, item := range items {
		if item.Base().TraceID == traceID {
			return i
		}
	}
	return -1
}

// prepend returns a new slice with rec first, truncated to limit entries.
// A non-positive limit disables truncation.
func prepend[T Record](items []T, rec T, limit int) []T {
	n := len(items) + 1
	if limit > 0 && n > limit {
		n = limit
	}
	out := make([]T, n)
	out[0] = rec
	copy(out[1:], items)
	return out
}

// replace returns a copy of items with the entry matching rec's trace_id
// swapped for rec. It never appends.
func replace[T Record](items []T, rec T) ([]T, bool) {
	i := indexOf(items, rec.Base().TraceID)
	if i < 0 {
		return items, false
	}
	out := make([]T, len(items))
	copy(out, items)
	out[i] = rec
	return out, true
}

func pageCount(total, pageSize int) int {
	if pageSize <= 0 || total <= 0 {
		return 1
	}
	return (total + pageSize - 1) / pageSize
}
