// Package mapgen turns validated address records into colored GeoJSON maps.
package mapgen

import (
	"bufio"
	"fmt"
	"io"
	"math/rand/v2"
	"strings"

	"github.com/rotisserie/eris"
)

// DefaultOpacity is the alpha channel of generated colors.
const DefaultOpacity = 0.4

// Palette assigns a random RGBA color to each area. Colors are not
// guaranteed to be distinct.
type Palette struct {
	rng     *rand.Rand
	opacity float64
	colors  map[string]string
	order   []string
}

// NewPalette creates an empty palette drawing colors from rng.
func NewPalette(rng *rand.Rand, opacity float64) *Palette {
	return &Palette{
		rng:     rng,
		opacity: opacity,
		colors:  make(map[string]string),
	}
}

// Color returns the color of area, generating one on first use.
func (p *Palette) Color(area string) string {
	if c, ok := p.colors[area]; ok {
		return c
	}
	c := fmt.Sprintf("rgba(%d, %d, %d, %.2f)", p.rng.IntN(256), p.rng.IntN(256), p.rng.IntN(256), p.opacity)
	p.set(area, c)
	return c
}

// Assign colors every area in order of first appearance.
func (p *Palette) Assign(areas []string) {
	for _, a := range areas {
		p.Color(a)
	}
}

// Areas returns the colored areas in assignment order.
func (p *Palette) Areas() []string {
	return append([]string(nil), p.order...)
}

// Len returns the number of colored areas.
func (p *Palette) Len() int { return len(p.order) }

func (p *Palette) set(area, color string) {
	if _, ok := p.colors[area]; !ok {
		p.order = append(p.order, area)
	}
	p.colors[area] = color
}

// WriteTo writes one "area,color" line per area in assignment order.
func (p *Palette) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for _, a := range p.order {
		n, err := fmt.Fprintf(w, "%s,%s\n", a, p.colors[a])
		total += int64(n)
		if err != nil {
			return total, eris.Wrap(err, "mapgen: write palette")
		}
	}
	return total, nil
}

// LoadPalette reads lines written by WriteTo. Areas missing from the file
// get fresh colors from rng.
func LoadPalette(r io.Reader, rng *rand.Rand, opacity float64) (*Palette, error) {
	p := NewPalette(rng, opacity)
	sc := bufio.NewScanner(r)
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimSpace(sc.Text())
		if text == "" {
			continue
		}
		area, color, ok := strings.Cut(text, ",")
		if !ok {
			return nil, eris.Errorf("mapgen: palette line %d: missing comma", line)
		}
		p.set(area, color)
	}
	if err := sc.Err(); err != nil {
		return nil, eris.Wrap(err, "mapgen: read palette")
	}
	return p, nil
}
