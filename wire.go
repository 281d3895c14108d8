package currentflow

import (
	"math/bits"
	"strings"

	"github.com/pkg/errors"
)

// Connections is the set of neighbor directions a wire connects to, laid out
// like the host's utility connection flags.
type Connections uint8

const (
	Left Connections = 1 << iota
	Right
	Up
	Down

	AllConnections = Left | Right | Up | Down
)

var directions = [...]struct {
	flag Connections
	name string
}{
	{Left, "left"},
	{Right, "right"},
	{Up, "up"},
	{Down, "down"},
}

func (c Connections) Has(d Connections) bool {
	return c&d == d
}

// Valence is the number of directions set.
func (c Connections) Valence() int {
	return bits.OnesCount8(uint8(c & AllConnections))
}

// Opposite mirrors every direction in c.
func (c Connections) Opposite() Connections {
	var o Connections
	if c.Has(Left) {
		o |= Right
	}
	if c.Has(Right) {
		o |= Left
	}
	if c.Has(Up) {
		o |= Down
	}
	if c.Has(Down) {
		o |= Up
	}
	return o
}

func (c Connections) String() string {
	if c&AllConnections == 0 {
		return "none"
	}
	names := make([]string, 0, 4)
	for _, d := range directions {
		if c.Has(d.flag) {
			names = append(names, d.name)
		}
	}
	return strings.Join(names, "|")
}

// ParseConnections reads direction names separated by '|' or ','.
func ParseConnections(s string) (Connections, error) {
	var c Connections
	fields := strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return r == '|' || r == ',' || r == ' '
	})
	for _, field := range fields {
		if field == "none" {
			continue
		}
		found := false
		for _, d := range directions {
			if d.name == field {
				c |= d.flag
				found = true
				break
			}
		}
		if !found {
			return 0, errors.Errorf("unknown connection direction %q", field)
		}
	}
	return c, nil
}

func (c Connections) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Connections) UnmarshalText(text []byte) error {
	parsed, err := ParseConnections(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// Neighbor returns the cell one step away in direction d on a grid of the
// given width. Cells are numbered x + y*width from the lower left corner.
func Neighbor(cell int, d Connections, width int) int {
	switch d {
	case Left:
		return cell - 1
	case Right:
		return cell + 1
	case Up:
		return cell + width
	case Down:
		return cell - width
	}
	return cell
}

// Wire is one conductor segment occupying a grid cell.
type Wire struct {
	Cell        int
	Connections Connections
	MaxWattage  float64
}

func (w Wire) Valence() int {
	return w.Connections.Valence()
}

// Neighbors lists the cells w connects to, in left, right, up, down order.
func (w Wire) Neighbors(width int) []int {
	cells := make([]int, 0, w.Valence())
	for _, d := range directions {
		if w.Connections.Has(d.flag) {
			cells = append(cells, Neighbor(w.Cell, d.flag, width))
		}
	}
	return cells
}
