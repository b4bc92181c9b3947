package filter

import "strings"

// Chain applies an ordered sequence of filters to each angle's stream. Every
// filter consumes the previous filter's output, so composition is not
// commutative: median-then-average differs from average-then-median.
//
// A Chain is not safe for concurrent Process calls; the owner serializes
// them, typically on one processing goroutine.
type Chain struct {
	filters []Filter
	enabled bool
}

// NewChain builds a chain from the given filters, applied in argument order.
// An empty chain passes values through unchanged.
func NewChain(filters ...Filter) *Chain {
	return &Chain{
		filters: filters,
		enabled: true,
	}
}

// Process runs value through every filter in order for the given angle and
// returns the final filter's output. A disabled chain returns the input
// untouched without updating any filter state.
func (c *Chain) Process(angle int, value float64) float64 {
	if !c.enabled {
		return value
	}
	for _, f := range c.filters {
		value = f.Process(angle, value)
	}
	return value
}

// Reset discards every filter's per-angle state without altering the chain
// configuration. The router invokes this whenever the active sensor changes.
func (c *Chain) Reset() {
	for _, f := range c.filters {
		f.Reset()
	}
}

// SetEnabled toggles the whole chain. Filter state is preserved across a
// disable/enable cycle.
func (c *Chain) SetEnabled(enabled bool) {
	c.enabled = enabled
}

// Enabled reports whether the chain is active.
func (c *Chain) Enabled() bool {
	return c.enabled
}

// Len returns the number of filters in the chain.
func (c *Chain) Len() int {
	return len(c.filters)
}

// Name describes the chain for logs, e.g. "median(3) -> moving_average(3)".
func (c *Chain) Name() string {
	if len(c.filters) == 0 {
		return "passthrough"
	}
	names := make([]string, len(c.filters))
	for i, f := range c.filters {
		names[i] = f.Name()
	}
	return strings.Join(names, " -> ")
}
