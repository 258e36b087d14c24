package processor

import (
	"bytes"
	"fmt"
	"io"
	"math"
	"strings"
	"sync"

	svg "github.com/ajstarks/svgo/float"

	"github.com/roach88/turtle/internal/turtle"
)

const svgMargin = 10

type segment struct {
	from, to turtle.Position
	color    turtle.Color
}

// SVGCanvas collects lines and renders them as an SVG document. The y axis
// is flipped so positive y points up, matching turtle headings.
type SVGCanvas struct {
	mu       sync.Mutex
	segments []segment
}

func NewSVGCanvas() *SVGCanvas {
	return &SVGCanvas{}
}

func (c *SVGCanvas) DrawLine(from, to turtle.Position, color turtle.Color) error {
	if !color.Valid() {
		return fmt.Errorf("draw line: invalid color %d", int(color))
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.segments = append(c.segments, segment{from: from, to: to, color: color})
	return nil
}

// Lines returns the number of lines drawn so far.
func (c *SVGCanvas) Lines() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.segments)
}

// WriteTo writes the document: one <line> element per drawn line, in draw
// order, inside an <svg> whose viewBox fits them with a margin. Coordinates
// are written with two decimals, the precision turtle positions carry.
func (c *SVGCanvas) WriteTo(w io.Writer) (int64, error) {
	c.mu.Lock()
	segments := make([]segment, len(c.segments))
	copy(segments, c.segments)
	c.mu.Unlock()

	minX, minY, maxX, maxY := 0.0, 0.0, 0.0, 0.0
	for _, s := range segments {
		for _, p := range []turtle.Position{s.from, s.to} {
			minX = math.Min(minX, p.X)
			maxX = math.Max(maxX, p.X)
			minY = math.Min(minY, flip(p.Y))
			maxY = math.Max(maxY, flip(p.Y))
		}
	}
	width := maxX - minX + 2*svgMargin
	height := maxY - minY + 2*svgMargin

	var buf bytes.Buffer
	doc := svg.New(&buf)
	doc.Startview(width, height, minX-svgMargin, minY-svgMargin, width, height)
	for _, s := range segments {
		doc.Line(s.from.X, flip(s.from.Y), s.to.X, flip(s.to.Y),
			fmt.Sprintf(`stroke="%s"`, strings.ToLower(s.color.String())),
		)
	}
	doc.End()

	return buf.WriteTo(w)
}

// flip maps a turtle y onto the SVG axis, which points down. 0-y rather
// than -y keeps the origin from printing as -0.00.
func flip(y float64) float64 {
	return 0 - y
}
