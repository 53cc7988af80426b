// Package pack places rectangles into a single sheet with a shelf packer.
package pack

import (
	"errors"
	"fmt"
	"image"
	"sort"
)

// ErrTooWide is returned when an item does not fit the sheet width even on an
// empty shelf.
var ErrTooWide = errors.New("item wider than sheet")

// Item is a rectangle to place.
type Item struct {
	Name string
	Size image.Point
}

// Placement is where an item landed.
type Placement struct {
	Name string
	Rect image.Rectangle
}

// Sheet is the result of a packing run. Placements follow the input order.
type Sheet struct {
	Width      int
	Height     int
	Placements []Placement
}

// Shelves packs items row by row, tallest first, keeping padding pixels
// between items and around the sheet edge. The sheet is at most maxWidth
// pixels wide.
func Shelves(items []Item, maxWidth, padding int) (Sheet, error) {
	if padding < 0 {
		return Sheet{}, fmt.Errorf("negative padding %d", padding)
	}
	order := make([]int, len(items))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		ia, ib := items[order[a]], items[order[b]]
		if ia.Size.Y != ib.Size.Y {
			return ia.Size.Y > ib.Size.Y
		}
		return ia.Name < ib.Name
	})

	sheet := Sheet{Placements: make([]Placement, len(items))}
	x, y, shelfHeight := padding, padding, 0
	for _, idx := range order {
		it := items[idx]
		if it.Size.X+2*padding > maxWidth {
			return Sheet{}, fmt.Errorf("%w: '%s' is %d pixels wide, sheet allows %d", ErrTooWide, it.Name, it.Size.X, maxWidth-2*padding)
		}
		if x+it.Size.X+padding > maxWidth {
			y += shelfHeight + padding
			x, shelfHeight = padding, 0
		}
		r := image.Rect(x, y, x+it.Size.X, y+it.Size.Y)
		sheet.Placements[idx] = Placement{Name: it.Name, Rect: r}
		x += it.Size.X + padding
		shelfHeight = max(shelfHeight, it.Size.Y)
		sheet.Width = max(sheet.Width, r.Max.X+padding)
		sheet.Height = max(sheet.Height, r.Max.Y+padding)
	}
	return sheet, nil
}
