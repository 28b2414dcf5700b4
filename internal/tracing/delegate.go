package tracing

// Delegate supplies kind-specific filtering and display shaping to the
// engine. It holds no connection or pagination state. Implementations must
// be safe for concurrent use: UpdateFilterOptions runs on the statistics
// worker while readers call FilterOptions.
type Delegate[T Record, S any] interface {
	// FilterKeys lists the structured filters this kind understands.
	FilterKeys() []FilterKey
	// FilterOptions returns the selectable values per filter name.
	FilterOptions() map[string][]FilterOption
	// UpdateFilterOptions refreshes options derived from a statistics snapshot.
	UpdateFilterOptions(stats S)
	// FormatStatistics projects a snapshot into display rows.
	FormatStatistics(stats S) []Statistic
	// TableFields describes the list columns.
	TableFields() []Field[T]
	// DetailFields describes the kind-specific rows of the detail view.
	DetailFields() []Field[T]
}
