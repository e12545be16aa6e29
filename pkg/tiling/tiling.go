// Package tiling computes the anchor lattice for a repeating watermark.
//
// A watermark is a single text instance repeated on a rectangular lattice
// with period (Gap.X, Gap.Y) and origin Offset. Every lattice point is an
// anchor: the center around which one instance is rotated and painted.
//
// Instances are rotated around their own anchors, so a naive row/column
// bound leaves untiled strips near the edges once the rotation is non-zero.
// [Plan] therefore over-covers: it spans the surface diagonal on both axes
// plus [Margin] extra periods in every direction. Anchors that fall outside
// the surface are kept; the surface clips them when they are painted.
//
//	g, err := tiling.Plan(800, 600, tiling.Point{X: 100, Y: 100}, nil, -30)
//	a, _ := g.At(0, 0) // (50, 50)
package tiling

import (
	"math"

	"github.com/matzehuels/watermarkpro/pkg/errors"
)

// Margin is the number of extra lattice periods generated beyond the
// surface diagonal on each side of each axis.
const Margin = 4

// MaxAnchors bounds the size of a single plan. Tiny gaps on very large
// surfaces are rejected instead of allocating millions of anchors.
const MaxAnchors = 4_000_000

// Point is a 2D point or vector in surface pixels.
type Point struct {
	X, Y float64
}

// Anchor is the unrotated center of one watermark instance.
type Anchor struct {
	X, Y     float64
	Row, Col int
}

// Grid is a materialized, row-major anchor plan for one surface.
type Grid struct {
	Width, Height int
	Gap           Point
	// Offset is the effective lattice origin, reduced into [0, Gap) per axis.
	Offset   Point
	Rotation float64

	// Row indices span [RowMin, RowMax), column indices [ColMin, ColMax).
	RowMin, RowMax int
	ColMin, ColMax int

	Anchors []Anchor
}

// DefaultOffset returns the offset used when none is configured: half a
// period on each axis, which centers the first instance in its cell.
func DefaultOffset(gap Point) Point {
	return Point{X: gap.X / 2, Y: gap.Y / 2}
}

// Plan computes the ordered anchor sequence for a width x height surface.
//
// The gap must be finite and strictly positive on both axes; anything else
// is a CONFIGURATION_ERROR returned before any anchor is generated. A nil
// offset selects [DefaultOffset]. Anchors are ordered row-major: outer loop
// over rows, inner loop over columns.
func Plan(width, height int, gap Point, offset *Point, rotation float64) (Grid, error) {
	if err := errors.ValidateGap(gap.X, gap.Y); err != nil {
		return Grid{}, err
	}
	if err := errors.ValidateDimensions(width, height); err != nil {
		return Grid{}, err
	}

	off := DefaultOffset(gap)
	if offset != nil {
		if err := errors.ValidateOffset(offset.X, offset.Y); err != nil {
			return Grid{}, err
		}
		off = *offset
	}
	// Shifting the origin by whole periods leaves the lattice unchanged, so
	// reduce it next to the surface where the index ranges are centered.
	off = Point{X: reduce(off.X, gap.X), Y: reduce(off.Y, gap.Y)}

	d := math.Hypot(float64(width), float64(height))
	rows := math.Ceil(d/gap.Y) + Margin
	cols := math.Ceil(d/gap.X) + Margin

	if total := (2 * rows) * (2 * cols); total > MaxAnchors {
		return Grid{}, errors.New(errors.ErrCodeConfiguration,
			"gap (%v, %v) too small for a %dx%d surface: %.0f anchors (max %d)",
			gap.X, gap.Y, width, height, total, MaxAnchors)
	}

	nr, nc := int(rows), int(cols)
	g := Grid{
		Width:    width,
		Height:   height,
		Gap:      gap,
		Offset:   off,
		Rotation: rotation,
		RowMin:   -nr,
		RowMax:   nr,
		ColMin:   -nc,
		ColMax:   nc,
		Anchors:  make([]Anchor, 0, 4*nr*nc),
	}
	for r := -nr; r < nr; r++ {
		y := float64(r)*gap.Y + off.Y
		for c := -nc; c < nc; c++ {
			g.Anchors = append(g.Anchors, Anchor{
				X:   float64(c)*gap.X + off.X,
				Y:   y,
				Row: r,
				Col: c,
			})
		}
	}
	return g, nil
}

// Len returns the number of anchors in the plan.
func (g Grid) Len() int {
	return len(g.Anchors)
}

// Rows returns the number of lattice rows.
func (g Grid) Rows() int {
	return g.RowMax - g.RowMin
}

// Cols returns the number of lattice columns.
func (g Grid) Cols() int {
	return g.ColMax - g.ColMin
}

// At returns the anchor at lattice index (row, col).
// The second result is false if the index is outside the plan.
func (g Grid) At(row, col int) (Anchor, bool) {
	if row < g.RowMin || row >= g.RowMax || col < g.ColMin || col >= g.ColMax {
		return Anchor{}, false
	}
	i := (row-g.RowMin)*g.Cols() + (col - g.ColMin)
	return g.Anchors[i], true
}

// Origin returns the anchor at lattice index (0, 0).
func (g Grid) Origin() Anchor {
	a, _ := g.At(0, 0)
	return a
}

// Visible returns the anchors whose centers lie inside the surface,
// in plan order.
func (g Grid) Visible() []Anchor {
	var out []Anchor
	w, h := float64(g.Width), float64(g.Height)
	for _, a := range g.Anchors {
		if a.X >= 0 && a.X < w && a.Y >= 0 && a.Y < h {
			out = append(out, a)
		}
	}
	return out
}

// Nearest returns the anchor closest to p using lattice arithmetic.
// The second result is false if that anchor is outside the plan.
func (g Grid) Nearest(p Point) (Anchor, bool) {
	col := int(math.Round((p.X - g.Offset.X) / g.Gap.X))
	row := int(math.Round((p.Y - g.Offset.Y) / g.Gap.Y))
	return g.At(row, col)
}

func reduce(v, period float64) float64 {
	m := math.Mod(v, period)
	if m < 0 {
		m += period
	}
	if m >= period {
		m = 0
	}
	return m
}
