// Package market holds the scalar market descriptor and the lookup
// capability the engine depends on.
package market

import "time"

// Range is the tradable band of settlement values for a scalar market.
type Range struct {
	Min      float64 `json:"min"`
	Max      float64 `json:"max"`
	TickSize float64 `json:"tick_size"`
}

// Descriptor describes a single scalar market: a market whose settlement
// value is a continuous quantity rather than a binary outcome. Descriptors
// are immutable once constructed.
type Descriptor struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Range       Range     `json:"range"`
	Expiry      time.Time `json:"expiry"`
	OracleValue float64   `json:"oracle_value"`
	MarkValue   float64   `json:"mark_value"`

	// Coin is the venue instrument the market settles against.
	Coin string `json:"coin"`
}

// Contains reports whether v falls inside the tradable range, inclusive of
// both bounds.
func (r Range) Contains(v float64) bool {
	return v >= r.Min && v <= r.Max
}

// TimeToExpiry returns the remaining life of the market at the given instant.
func (d Descriptor) TimeToExpiry(now time.Time) time.Duration {
	return d.Expiry.Sub(now)
}

// Source resolves the market a trade intent targets. The engine and transport
// depend on this capability rather than on any particular market's data.
type Source interface {
	Market() Descriptor
}

// StaticSource serves a single fixed descriptor. This terminal trades one
// configured market; there is no market lifecycle to manage.
type StaticSource struct {
	descriptor Descriptor
}

// NewStaticSource returns a Source that always yields d.
func NewStaticSource(d Descriptor) *StaticSource {
	return &StaticSource{descriptor: d}
}

// Market returns the configured descriptor.
func (s *StaticSource) Market() Descriptor {
	return s.descriptor
}
