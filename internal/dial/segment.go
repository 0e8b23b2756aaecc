package dial

import "math"

// Tier is a ring's position from the rim inward.
type Tier int

const (
	TierOuter Tier = iota
	TierMiddle
	TierInner
)

func (t Tier) String() string {
	switch t {
	case TierOuter:
		return "outer"
	case TierMiddle:
		return "middle"
	case TierInner:
		return "inner"
	default:
		return "unknown"
	}
}

// Segment is one ring of remaining time. Value is in minutes, (0, 60].
type Segment struct {
	Tier  Tier
	Value float64
	Full  bool
}

// Segments splits remaining minutes into base-60 rings, outermost first.
// Only the first ring can be partial. An exact multiple of 60 reports the
// outer ring as full rather than empty.
func Segments(remaining float64) []Segment {
	switch {
	case remaining <= 0:
		return nil
	case remaining <= 60:
		return []Segment{{Tier: TierOuter, Value: remaining, Full: remaining == 60}}
	}

	outer := math.Mod(remaining, 60)
	if outer == 0 {
		outer = 60
	}
	segs := []Segment{
		{Tier: TierOuter, Value: outer, Full: outer == 60},
		{Tier: TierMiddle, Value: 60, Full: true},
	}
	if remaining > 120 {
		segs = append(segs, Segment{Tier: TierInner, Value: 60, Full: true})
	}
	return segs
}

// Radii maps tiers to face radii in dial units.
type Radii struct {
	Outer, Middle, Inner float64
}

// DefaultRadii matches a 450-unit face centred at 225.
var DefaultRadii = Radii{Outer: 180, Middle: 120, Inner: 60}

// Of returns the radius for tier.
func (r Radii) Of(t Tier) float64 {
	switch t {
	case TierMiddle:
		return r.Middle
	case TierInner:
		return r.Inner
	default:
		return r.Outer
	}
}
