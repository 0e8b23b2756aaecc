package tui

import (
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/sadopc/timerpie/internal/dial"
)

// Face geometry in dial units. The outermost ring has radius 180.
const (
	faceRim     = 180.0
	ringInner   = 120.0 // digital completion: centre disc edge
	tickRadius  = 192.0
	labelRadius = 215.0
	viewRadius  = 232.0
	minRows     = 9
)

const (
	fillRune  = '█'
	edgeRune  = '┃'
	tickMinor = '·'
	tickMajor = '•'
	tickQuart = '●'
)

type cell struct {
	ch rune
	fg string
}

// canvas is a character grid. Terminal cells are about twice as tall as
// they are wide, so one row spans two columns of dial space.
type canvas struct {
	w, h   int
	cx, cy float64
	scale  float64 // dial units per row
	cells  []cell
}

func newCanvas(rows int) *canvas {
	rows = max(rows, minRows)
	if rows%2 == 0 {
		rows--
	}
	c := &canvas{
		w:     rows * 2,
		h:     rows,
		scale: viewRadius / (float64(rows) / 2),
	}
	c.cx = float64(c.w) / 2
	c.cy = float64(c.h) / 2
	c.cells = make([]cell, c.w*c.h)
	for i := range c.cells {
		c.cells[i].ch = ' '
	}
	return c
}

// point returns the dial coordinates of a cell centre.
func (c *canvas) point(col, row int) (x, y float64) {
	x = (float64(col) + 0.5 - c.cx) * 0.5 * c.scale
	y = (float64(row) + 0.5 - c.cy) * c.scale
	return x, y
}

// cellAt maps dial coordinates back to a cell.
func (c *canvas) cellAt(x, y float64) (col, row int) {
	col = int(math.Floor(c.cx + 2*x/c.scale))
	row = int(math.Floor(c.cy + y/c.scale))
	return col, row
}

func (c *canvas) set(col, row int, ch rune, fg string) {
	if col < 0 || col >= c.w || row < 0 || row >= c.h {
		return
	}
	c.cells[row*c.w+col] = cell{ch: ch, fg: fg}
}

// text writes s centred on col.
func (c *canvas) text(col, row int, s, fg string) {
	start := col - len([]rune(s))/2
	for i, r := range []rune(s) {
		c.set(start+i, row, r, fg)
	}
}

func (c *canvas) render() string {
	var b strings.Builder
	for row := 0; row < c.h; row++ {
		if row > 0 {
			b.WriteByte('\n')
		}
		line := c.cells[row*c.w : (row+1)*c.w]
		for i := 0; i < len(line); {
			j := i
			var run strings.Builder
			for j < len(line) && line[j].fg == line[i].fg {
				run.WriteRune(line[j].ch)
				j++
			}
			if line[i].fg == "" {
				b.WriteString(run.String())
			} else {
				b.WriteString(lipgloss.NewStyle().Foreground(lipgloss.Color(line[i].fg)).Render(run.String()))
			}
			i = j
		}
	}
	return b.String()
}

// blend mixes fg over bg at alpha, standing in for transparency.
func blend(fg, bg string, alpha float64) string {
	if alpha >= 1 {
		return fg
	}
	f, err := colorful.Hex(fg)
	if err != nil {
		return fg
	}
	b, err := colorful.Hex(bg)
	if err != nil {
		return fg
	}
	return b.BlendRgb(f, alpha).Clamped().Hex()
}

// doneFace is the look of a completed timer.
type doneFace struct {
	display dial.Display
	color   string
	blinkOn bool
}

// dialScene is everything drawDial paints.
type dialScene struct {
	wedges   []dial.Wedge
	mode     dial.Mode
	marks    int
	palette  facePalette
	center   string
	centerFg string
	done     *doneFace
}

// drawDial rasterises a scene into rows lines of text.
func drawDial(rows int, s dialScene) string {
	c := newCanvas(rows)

	for row := 0; row < c.h; row++ {
		for col := 0; col < c.w; col++ {
			x, y := c.point(col, row)
			r := math.Hypot(x, y)
			if r > faceRim {
				continue
			}
			if fg, ok := s.fillAt(r, math.Atan2(y, x)*180/math.Pi); ok {
				c.set(col, row, fillRune, fg)
			}
		}
	}

	if s.done == nil {
		for _, w := range s.wedges {
			if w.Accent {
				drawEdge(c, w, blend(s.palette.ink, s.palette.bg, w.Opacity))
			}
		}
	}

	drawTicks(c, s.palette.ink)
	drawLabels(c, s.mode, s.marks, s.palette.ink)

	if s.center != "" {
		fg := s.centerFg
		if fg == "" {
			fg = s.palette.ink
		}
		c.text(int(c.cx), int(c.cy), s.center, fg)
	}
	return c.render()
}

// fillAt picks the colour at polar (r, deg). The innermost matching wedge
// is painted last in the stack, so it wins.
func (s dialScene) fillAt(r, deg float64) (string, bool) {
	if d := s.done; d != nil {
		pulse := d.color
		if !d.blinkOn {
			pulse = dial.Darken(d.color, 0.7)
		}
		if d.display == dial.DisplayDigital && r <= ringInner {
			return d.color, true
		}
		return pulse, true
	}

	for i := len(s.wedges) - 1; i >= 0; i-- {
		w := s.wedges[i]
		if r > w.Outer || r < w.Inner {
			continue
		}
		if !w.Angles.Contains(deg) {
			continue
		}
		return blend(w.Fill, s.palette.bg, w.Opacity), true
	}
	return "", false
}

// drawEdge draws the radial line at a partial ring's moving edge.
func drawEdge(c *canvas, w dial.Wedge, fg string) {
	rad := w.Edge * math.Pi / 180
	step := c.scale / 4
	for r := w.Inner; r <= w.Outer; r += step {
		col, row := c.cellAt(r*math.Cos(rad), r*math.Sin(rad))
		c.set(col, row, edgeRune, fg)
	}
}

func drawTicks(c *canvas, fg string) {
	// Minor ticks first so majors win shared cells.
	for _, pass := range []func(int) bool{
		func(i int) bool { return i%5 != 0 },
		func(i int) bool { return i%5 == 0 && i%15 != 0 },
		func(i int) bool { return i%15 == 0 },
	} {
		for i := 0; i < 60; i++ {
			if !pass(i) {
				continue
			}
			ch := tickMinor
			switch {
			case i%15 == 0:
				ch = tickQuart
			case i%5 == 0:
				ch = tickMajor
			}
			x, y := dial.LabelPosition(i, dial.ModeCCW, 0, tickRadius)
			col, row := c.cellAt(x, y)
			c.set(col, row, ch, fg)
		}
	}
}

// faceLabels lists the minutes labelled for a marks setting.
func faceLabels(marks int) []int {
	if marks <= 0 {
		return nil
	}
	var out []int
	for m := marks; m <= 60; m += marks {
		out = append(out, m)
	}
	return out
}

func drawLabels(c *canvas, mode dial.Mode, marks int, fg string) {
	for _, m := range faceLabels(marks) {
		x, y := dial.LabelPosition(m, mode, 0, labelRadius)
		col, row := c.cellAt(x, y)
		c.text(col, row, strconv.Itoa(m), fg)
	}
}
