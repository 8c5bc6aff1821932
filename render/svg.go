package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/jbeda/geom"
	"github.com/phil-mansfield/diffgrowth/growth"
	"gonum.org/v1/gonum/spatial/r3"
)

// SVG writes simple SVG elements to an underlying writer.
type SVG struct {
	writer io.Writer
	err    error
}

func NewSVG(w io.Writer) *SVG {
	return &SVG{writer: w}
}

// Err returns the first error encountered while writing.
func (svg *SVG) Err() error { return svg.err }

func (svg *SVG) printf(format string, a ...interface{}) {
	if svg.err != nil {
		return
	}
	_, svg.err = fmt.Fprintf(svg.writer, format, a...)
}

// attrs turns "key='val'" strings into attributes and anything else into a
// style attribute.
func attrs(s []string) string {
	out := ""
	for i := range s {
		if strings.Index(s[i], "=") > 0 {
			out += s[i] + " "
		} else if len(s[i]) > 0 {
			out += fmt.Sprintf("style='%s' ", s[i])
		}
	}
	return out
}

func (svg *SVG) Start(viewBox geom.Rect, s ...string) {
	svg.printf(`<?xml version="1.0"?>
<svg version="1.1"
     viewBox="%f %f %f %f"
     xmlns="http://www.w3.org/2000/svg" %s>
`, viewBox.Min.X, viewBox.Min.Y, viewBox.Width(), viewBox.Height(), attrs(s))
}

func (svg *SVG) End() {
	svg.printf("</svg>\n")
}

func (svg *SVG) Line(p1, p2 geom.Coord, s ...string) {
	svg.printf("<line x1='%f' y1='%f' x2='%f' y2='%f' %s/>\n",
		p1.X, p1.Y, p2.X, p2.Y, attrs(s))
}

func (svg *SVG) Circle(c geom.Coord, r float64, s ...string) {
	svg.printf("<circle cx='%f' cy='%f' r='%f' %s/>\n", c.X, c.Y, r, attrs(s))
}

func (svg *SVG) StartPath(p geom.Coord, s ...string) {
	svg.printf("<path %sd='M%f,%f", attrs(s), p.X, p.Y)
}

func (svg *SVG) PathLineTo(p geom.Coord) {
	svg.printf("\n  L%f,%f", p.X, p.Y)
}

// EndPath finishes a path, closing it back to its start if closed is set.
func (svg *SVG) EndPath(closed bool) {
	if closed {
		svg.printf(" Z")
	}
	svg.printf("'/>\n")
}

// project drops the z coordinate and flips y so that +y points up.
func project(p r3.Vec) geom.Coord {
	return geom.Coord{X: p.X, Y: -p.Y}
}

// ViewBox returns the projected bounding box of snap with a margin of
// pad on every side.
func ViewBox(snap *growth.Snapshot, pad float64) geom.Rect {
	if snap.Len() == 0 {
		return geom.Rect{
			Min: geom.Coord{X: -pad, Y: -pad}, Max: geom.Coord{X: pad, Y: pad},
		}
	}

	c := project(snap.Positions[0])
	r := geom.Rect{Min: c, Max: c}
	for _, p := range snap.Positions[1:] {
		r.ExpandToContainCoord(project(p))
	}
	r.Min.X, r.Min.Y = r.Min.X-pad, r.Min.Y-pad
	r.Max.X, r.Max.Y = r.Max.X+pad, r.Max.Y+pad
	return r
}

// WriteSVG draws snap projected onto the XY plane. Meshes are drawn as
// their edges, curves as a single path, and points as circles with their
// collision radius.
func WriteSVG(w io.Writer, snap *growth.Snapshot) error {
	maxR := 0.0
	for _, r := range snap.Radii {
		if r > maxR {
			maxR = r
		}
	}
	if maxR == 0 {
		maxR = 1
	}

	svg := NewSVG(w)
	svg.Start(ViewBox(snap, maxR))
	stroke := fmt.Sprintf(
		"fill:none;stroke:black;stroke-width:%f;stroke-linejoin:round",
		maxR/8,
	)

	switch snap.Variant {
	case growth.Mesh:
		drawn := map[[2]int]bool{}
		for _, t := range snap.Triangles {
			for i := range t {
				a, b := t[i], t[(i+1)%3]
				if a > b {
					a, b = b, a
				}
				if drawn[[2]int{a, b}] {
					continue
				}
				drawn[[2]int{a, b}] = true
				svg.Line(project(snap.Positions[a]),
					project(snap.Positions[b]), stroke)
			}
		}
	case growth.Curve:
		if snap.Len() > 0 {
			svg.StartPath(project(snap.Positions[0]), stroke)
			for _, p := range snap.Positions[1:] {
				svg.PathLineTo(project(p))
			}
			svg.EndPath(snap.Closed)
		}
	case growth.Points:
		for i, p := range snap.Positions {
			svg.Circle(project(p), snap.Radii[i]/2,
				"fill:seagreen;stroke:none")
		}
	}

	svg.End()
	return svg.Err()
}
