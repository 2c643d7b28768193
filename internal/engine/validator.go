package engine

import (
	"errors"
	"fmt"
	"time"

	"github.com/scalar-terminal/scalar/internal/market"
)

// Sentinel errors returned by Validate.
var (
	ErrLeverageOutOfRange = errors.New("leverage out of range")
	ErrMarketExpiringSoon = errors.New("market expiring too soon")
	ErrValueOutOfRange    = errors.New("scalar value out of range")
)

// RiskLimits defines the static risk policy applied before any venue call.
type RiskLimits struct {
	MinLeverage    float64
	MaxLeverage    float64
	MinExpiryHours float64
}

// Profile selects which rule set the Validator runs.
type Profile string

const (
	// ProfileFull runs every client-side check: leverage bounds, expiry
	// gate, and scalar value range.
	ProfileFull Profile = "full"

	// ProfileVenueDelegated runs only the expiry gate and leaves margin and
	// range policing to the venue.
	ProfileVenueDelegated Profile = "venue-delegated"
)

// Validator performs pre-flight risk and lifecycle checks on trade intents
// before they reach the venue. It fails fast: the first failing check
// rejects the intent. This is the only place risk policy is expressed.
type Validator struct {
	limits  RiskLimits
	profile Profile
	nowFunc func() time.Time // injectable clock for testing
}

// NewValidator creates a Validator with the given limits and profile.
func NewValidator(limits RiskLimits, profile Profile) *Validator {
	if profile == "" {
		profile = ProfileFull
	}
	return &Validator{
		limits:  limits,
		profile: profile,
		nowFunc: time.Now,
	}
}

// Validate runs the configured checks in order, short-circuiting on the
// first failure. It has no side effects and is deterministic given the
// intent, the market, and the clock.
func (v *Validator) Validate(intent TradeIntent, m market.Descriptor) (ValidatedIntent, error) {
	now := v.nowFunc().UTC()

	// 1. Leverage bounds, inclusive at both ends.
	if v.profile == ProfileFull {
		if intent.Leverage < v.limits.MinLeverage || intent.Leverage > v.limits.MaxLeverage {
			return ValidatedIntent{}, fmt.Errorf("%w: %.2fx not in [%.2fx, %.2fx]",
				ErrLeverageOutOfRange, intent.Leverage, v.limits.MinLeverage, v.limits.MaxLeverage)
		}
	}

	// 2. Expiry gate. A market inside the minimum window rejects all new
	// orders regardless of direction or size.
	minWindow := time.Duration(v.limits.MinExpiryHours * float64(time.Hour))
	if m.TimeToExpiry(now) < minWindow {
		return ValidatedIntent{}, fmt.Errorf("%w: cannot trade on markets expiring in less than %.0f hours",
			ErrMarketExpiringSoon, v.limits.MinExpiryHours)
	}

	// 3. Scalar value inside the tradable range, bounds echoed for the caller.
	if v.profile == ProfileFull {
		if !m.Range.Contains(intent.ScalarValue) {
			return ValidatedIntent{}, fmt.Errorf("%w: scalar value must be between %.1f and %.1f",
				ErrValueOutOfRange, m.Range.Min, m.Range.Max)
		}
	}

	return ValidatedIntent{Intent: intent, Market: m}, nil
}

// IsValidationError reports whether err originated from Validate, i.e. the
// request was rejected before any venue call was made.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrLeverageOutOfRange) ||
		errors.Is(err, ErrMarketExpiringSoon) ||
		errors.Is(err, ErrValueOutOfRange)
}
