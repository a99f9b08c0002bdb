package render

import (
	"bufio"
	"fmt"
	"html"
	"io"
	"strconv"
)

// Segment is a stroked link between two points.
type Segment struct {
	X1, Y1, X2, Y2 float64
	Style          LinkStyle
}

// Frame is everything painted for one timestamp, in graph coordinates.
// (CenterX, CenterY) is drawn at the middle of a Width x Height viewport at
// zoom Scale.
type Frame struct {
	Width, Height    float64
	CenterX, CenterY float64
	Scale            float64
	Background       RGBA
	Links            []Segment
	Commands         []Command
}

type svgWriter struct {
	w   *bufio.Writer
	err error
}

func (s *svgWriter) printf(format string, args ...any) {
	if s.err != nil {
		return
	}
	_, s.err = fmt.Fprintf(s.w, format, args...)
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', 3, 64)
}

func paint(c RGBA) string {
	return fmt.Sprintf(`rgb(%d,%d,%d)" fill-opacity="%s`, c.R, c.G, c.B, num(c.A))
}

// WriteSVG serializes a frame as a standalone SVG document.
func WriteSVG(w io.Writer, f Frame) error {
	scale := f.Scale
	if scale <= 0 {
		scale = 1
	}
	vw, vh := f.Width/scale, f.Height/scale

	s := &svgWriter{w: bufio.NewWriter(w)}
	s.printf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="%s %s %s %s">`+"\n",
		num(f.Width), num(f.Height), num(f.CenterX-vw/2), num(f.CenterY-vh/2), num(vw), num(vh))
	s.printf(`<rect x="%s" y="%s" width="%s" height="%s" fill="%s"/>`+"\n",
		num(f.CenterX-vw/2), num(f.CenterY-vh/2), num(vw), num(vh), paint(f.Background))

	s.printf("<defs>\n")
	for i, c := range f.Commands {
		if c.Op != OpGradientCircle {
			continue
		}
		s.printf(`<radialGradient id="g%d">`, i)
		for _, stop := range c.Stops {
			s.printf(`<stop offset="%s" stop-color="rgb(%d,%d,%d)" stop-opacity="%s"/>`,
				num(stop.Offset), stop.Color.R, stop.Color.G, stop.Color.B, num(stop.Color.A))
		}
		s.printf("</radialGradient>\n")
	}
	s.printf("</defs>\n")

	for _, l := range f.Links {
		s.printf(`<line x1="%s" y1="%s" x2="%s" y2="%s" stroke="rgb(%d,%d,%d)" stroke-opacity="%s" stroke-width="%s"/>`+"\n",
			num(l.X1), num(l.Y1), num(l.X2), num(l.Y2),
			l.Style.Color.R, l.Style.Color.G, l.Style.Color.B, num(l.Style.Color.A), num(l.Style.Width/scale))
	}

	for i, c := range f.Commands {
		switch c.Op {
		case OpGradientCircle:
			s.printf(`<circle cx="%s" cy="%s" r="%s" fill="url(#g%d)"/>`+"\n", num(c.X), num(c.Y), num(c.Radius), i)
		case OpText:
			s.printf(`<text x="%s" y="%s" font-size="%s" font-family="Inter, sans-serif" text-anchor="middle" dominant-baseline="hanging" fill="%s">%s</text>`+"\n",
				num(c.X), num(c.Y), num(c.FontSize), paint(c.Fill), html.EscapeString(c.Text))
		}
	}
	s.printf("</svg>\n")

	if s.err != nil {
		return fmt.Errorf("write svg: %w", s.err)
	}
	if err := s.w.Flush(); err != nil {
		return fmt.Errorf("write svg: %w", err)
	}
	return nil
}
