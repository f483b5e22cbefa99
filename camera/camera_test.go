package camera

import (
	"testing"

	"github.com/pthm-cable/habitat/components"
)

func TestNew(t *testing.T) {
	cam := New(40, 20, 100)

	if cam.X != 50 || cam.Y != 50 {
		t.Errorf("expected camera at (50, 50), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
	// The vertical axis limits: 20 cells over 100 tiles
	if cam.MinZoom != 0.2 {
		t.Errorf("expected MinZoom 0.2, got %f", cam.MinZoom)
	}
}

func TestWorldToScreenCentered(t *testing.T) {
	cam := New(40, 20, 100)

	sx, sy, ok := cam.WorldToScreen(components.Coord{X: 50, Y: 50})
	if !ok || sx != 20 || sy != 10 {
		t.Errorf("WorldToScreen(50,50) = (%d, %d, %v), want (20, 10, true)", sx, sy, ok)
	}

	if _, _, ok := cam.WorldToScreen(components.Coord{X: 0, Y: 0}); ok {
		t.Error("corner tile visible at 1:1 zoom")
	}
}

func TestScreenToWorldRoundtrip(t *testing.T) {
	cam := New(40, 20, 100)

	testCases := []struct{ sx, sy int }{
		{20, 10}, // center
		{0, 0},   // top-left
		{39, 19}, // bottom-right
	}

	for _, tc := range testCases {
		tile, ok := cam.ScreenToWorld(tc.sx, tc.sy)
		if !ok {
			t.Errorf("ScreenToWorld(%d,%d) off grid", tc.sx, tc.sy)
			continue
		}
		sx, sy, ok := cam.WorldToScreen(tile)
		if !ok || sx != tc.sx || sy != tc.sy {
			t.Errorf("roundtrip failed: (%d,%d) -> %v -> (%d,%d)", tc.sx, tc.sy, tile, sx, sy)
		}
	}
}

func TestPanClampsToWorld(t *testing.T) {
	cam := New(40, 20, 100)

	cam.Pan(-1000, 0)
	if cam.X != 20 {
		t.Errorf("X = %f, want 20", cam.X)
	}

	minX, minY, maxX, maxY := cam.VisibleBounds()
	if minX != 0 || minY != 40 || maxX != 39 || maxY != 59 {
		t.Errorf("VisibleBounds() = (%d,%d,%d,%d), want (0,40,39,59)", minX, minY, maxX, maxY)
	}
}

func TestCenterOnClamps(t *testing.T) {
	cam := New(40, 20, 100)

	cam.CenterOn(components.Coord{X: 90, Y: 50})
	if cam.X != 80 || cam.Y != 50.5 {
		t.Errorf("center = (%f, %f), want (80, 50.5)", cam.X, cam.Y)
	}
}

func TestSmallWorldStaysCentered(t *testing.T) {
	cam := New(40, 20, 10)

	if cam.MinZoom != 1.0 {
		t.Errorf("expected MinZoom 1.0, got %f", cam.MinZoom)
	}
	cam.Pan(5, 3)
	if cam.X != 5 || cam.Y != 5 {
		t.Errorf("center = (%f, %f), want (5, 5)", cam.X, cam.Y)
	}
	if _, ok := cam.ScreenToWorld(0, 0); ok {
		t.Error("cell outside a small world mapped onto the grid")
	}
}

func TestZoomClamp(t *testing.T) {
	cam := New(40, 20, 100)

	cam.SetZoom(0.01)
	if cam.Zoom != 0.2 {
		t.Errorf("expected zoom clamped to 0.2, got %f", cam.Zoom)
	}

	// At min zoom the whole grid is on screen
	for _, c := range []components.Coord{{X: 0, Y: 0}, {X: 99, Y: 99}} {
		if _, _, ok := cam.WorldToScreen(c); !ok {
			t.Errorf("tile %v not visible at min zoom", c)
		}
	}

	cam.SetZoom(10.0)
	if cam.Zoom != 4.0 {
		t.Errorf("expected zoom clamped to 4.0, got %f", cam.Zoom)
	}

	cam.SetZoom(1.0)
	cam.ZoomBy(2)
	if cam.Zoom != 2.0 {
		t.Errorf("expected zoom 2.0, got %f", cam.Zoom)
	}
}

func TestReset(t *testing.T) {
	cam := New(40, 20, 100)
	cam.X = 30
	cam.Y = 70
	cam.Zoom = 2.5

	cam.Reset()

	if cam.X != 50 || cam.Y != 50 {
		t.Errorf("expected position (50, 50), got (%f, %f)", cam.X, cam.Y)
	}
	if cam.Zoom != 1.0 {
		t.Errorf("expected zoom 1.0, got %f", cam.Zoom)
	}
}
