package graph

import "log/slog"

// Config holds the construction options for a TreeStore.
// The zero value enables every validation.
type Config struct {
	// IgnoreDuplicates demotes duplicate ids to a warning. The id index then
	// keeps the last record seen for each id.
	IgnoreDuplicates bool

	// IgnoreRoot demotes a record whose id equals the root sentinel to a
	// warning.
	IgnoreRoot bool

	// IgnoreIDType skips id-type validation for records and query
	// arguments alike.
	IgnoreIDType bool

	// Logger receives construction warnings and debug summaries.
	// Default: slog.Default()
	Logger *slog.Logger
}

// validate fills in defaults.
func (c *Config) validate() {
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
