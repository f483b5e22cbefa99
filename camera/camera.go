// Package camera provides a viewport onto the tile grid for text previews.
package camera

import (
	"math"

	"github.com/pthm-cable/habitat/components"
)

// Camera maps screen cells to grid tiles.
// The grid is bounded; the view is clamped so it never leaves the world when
// the world is larger than the viewport.
type Camera struct {
	// Position is the camera center in tile coordinates
	X, Y float64

	// Zoom is screen cells per tile (1.0 = one cell per tile, 0.5 = each
	// cell covers two tiles)
	Zoom float64

	// Viewport dimensions in screen cells
	ViewportW, ViewportH int

	// World edge length in tiles
	WorldSize int

	// Zoom constraints
	MinZoom, MaxZoom float64
}

// New creates a camera centered on a worldSize x worldSize grid at 1:1 zoom.
func New(viewportW, viewportH, worldSize int) *Camera {
	c := &Camera{
		ViewportW: viewportW,
		ViewportH: viewportH,
		WorldSize: worldSize,
		MaxZoom:   4.0,
	}
	c.MinZoom = minZoom(viewportW, viewportH, worldSize)
	c.Reset()
	return c
}

// minZoom is the zoom at which the whole world fits the viewport.
func minZoom(viewportW, viewportH, worldSize int) float64 {
	if worldSize <= 0 {
		return 1
	}
	z := math.Min(float64(viewportW)/float64(worldSize), float64(viewportH)/float64(worldSize))
	return math.Min(z, 1.0)
}

// WorldToScreen returns the screen cell showing tile t and whether it lies
// inside the viewport.
func (c *Camera) WorldToScreen(t components.Coord) (sx, sy int, ok bool) {
	fx := float64(c.ViewportW)/2 + (float64(t.X)+0.5-c.X)*c.Zoom
	fy := float64(c.ViewportH)/2 + (float64(t.Y)+0.5-c.Y)*c.Zoom
	sx, sy = int(math.Floor(fx)), int(math.Floor(fy))
	ok = sx >= 0 && sy >= 0 && sx < c.ViewportW && sy < c.ViewportH
	return sx, sy, ok
}

// ScreenToWorld returns the tile under the center of screen cell (sx, sy)
// and whether that tile is on the grid.
func (c *Camera) ScreenToWorld(sx, sy int) (components.Coord, bool) {
	wx := c.X + (float64(sx)+0.5-float64(c.ViewportW)/2)/c.Zoom
	wy := c.Y + (float64(sy)+0.5-float64(c.ViewportH)/2)/c.Zoom
	t := components.Coord{X: int(math.Floor(wx)), Y: int(math.Floor(wy))}
	ok := t.X >= 0 && t.Y >= 0 && t.X < c.WorldSize && t.Y < c.WorldSize
	return t, ok
}

// Pan moves the camera by the given delta in screen cells.
func (c *Camera) Pan(dx, dy float64) {
	c.X += dx / c.Zoom
	c.Y += dy / c.Zoom
	c.clampCenter()
}

// CenterOn moves the camera center to tile t.
func (c *Camera) CenterOn(t components.Coord) {
	c.X = float64(t.X) + 0.5
	c.Y = float64(t.Y) + 0.5
	c.clampCenter()
}

// SetZoom sets the zoom level, clamped to min/max.
func (c *Camera) SetZoom(zoom float64) {
	c.Zoom = clamp(zoom, c.MinZoom, c.MaxZoom)
	c.clampCenter()
}

// ZoomBy multiplies the current zoom by the given factor.
func (c *Camera) ZoomBy(factor float64) {
	c.SetZoom(c.Zoom * factor)
}

// Reset returns the camera to the world center at 1:1 zoom.
func (c *Camera) Reset() {
	c.X = float64(c.WorldSize) / 2
	c.Y = float64(c.WorldSize) / 2
	c.Zoom = clamp(1.0, c.MinZoom, c.MaxZoom)
}

// VisibleBounds returns the inclusive tile range covered by the viewport,
// clipped to the grid.
func (c *Camera) VisibleBounds() (minX, minY, maxX, maxY int) {
	lo, _ := c.ScreenToWorld(0, 0)
	hi, _ := c.ScreenToWorld(c.ViewportW-1, c.ViewportH-1)
	last := c.WorldSize - 1
	return clampInt(lo.X, 0, last), clampInt(lo.Y, 0, last),
		clampInt(hi.X, 0, last), clampInt(hi.Y, 0, last)
}

// clampCenter keeps the view inside the world on each axis where the world
// is larger than the view; smaller axes stay centered.
func (c *Camera) clampCenter() {
	c.X = clampAxis(c.X, float64(c.ViewportW)/(2*c.Zoom), float64(c.WorldSize))
	c.Y = clampAxis(c.Y, float64(c.ViewportH)/(2*c.Zoom), float64(c.WorldSize))
}

func clampAxis(center, half, size float64) float64 {
	if 2*half >= size {
		return size / 2
	}
	return clamp(center, half, size-half)
}

// clamp restricts a value to a range.
func clamp(x, min, max float64) float64 {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}

func clampInt(x, min, max int) int {
	if x < min {
		return min
	}
	if x > max {
		return max
	}
	return x
}
