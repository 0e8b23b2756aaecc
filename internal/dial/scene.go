package dial

import "time"

// Digital face geometry: every ring is packed into the outer band.
const (
	ringZoneOuter = 180
	ringZoneWidth = 60
	ringGap       = 2
	previewAlpha  = 0.2
)

// Shading applied to full rings.
var (
	darkenMiddle  = 0.7
	darkenInner   = 0.5
	darkenDigital = []float64{0.85, 0.7, 0.5}
)

// Frame is everything a renderer needs besides the remaining time. It is
// built fresh for each frame; nothing here is shared state.
type Frame struct {
	Mode    Mode
	Target  float64
	Now     time.Time
	Color   string
	Display Display
	Running bool
	Radii   Radii
}

// Wedge is one paintable ring: its arc, its radial band and its colour.
// Edge is the angle of the radial line drawn on the ring; Accent marks it
// as the live moving edge of a partial ring.
type Wedge struct {
	Segment Segment
	Angles  Angles
	Outer   float64
	Inner   float64
	Fill    string
	Opacity float64
	Edge    float64
	Accent  bool
}

// Compose lays out the rings for remaining minutes, outermost first.
func Compose(remaining float64, f Frame) []Wedge {
	segs := Segments(remaining)
	if len(segs) == 0 {
		return nil
	}
	radii := f.Radii
	if radii == (Radii{}) {
		radii = DefaultRadii
	}

	timerEnd := TimerEndAngle(segs[0], f.Mode, f.Now)
	opacity := 1.0
	if !f.Running {
		opacity = previewAlpha
	}
	n := float64(len(segs))
	ringWidth := (ringZoneWidth - (n-1)*ringGap) / n

	wedges := make([]Wedge, 0, len(segs))
	for i, seg := range segs {
		w := Wedge{
			Segment: seg,
			Angles:  WedgeAngles(seg, timerEnd, f.Mode, f.Target, f.Now),
			Outer:   radii.Of(seg.Tier),
			Fill:    f.Color,
			Opacity: opacity,
		}

		factor := darkenMiddle
		if f.Display == DisplayDigital {
			w.Outer = ringZoneOuter - float64(i)*(ringWidth+ringGap)
			w.Inner = w.Outer - ringWidth
			factor = darkenDigital[i]
		} else if seg.Tier == TierInner {
			factor = darkenInner
		}

		if seg.Full {
			w.Fill = Darken(f.Color, factor)
			w.Edge = w.Angles.Start
		} else {
			w.Edge = w.Angles.MovingEdge(f.Mode)
			w.Accent = true
		}
		wedges = append(wedges, w)
	}
	return wedges
}
