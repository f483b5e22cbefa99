// Terrain preview tool - prints the generated grid as ASCII for tuning
// terrain settings.
//
// Usage: go run ./cmd/terrainpreview -seed 7 -agents -width 80 -height 40 -zoom 0.5
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log/slog"
	"os"

	"gonum.org/v1/gonum/stat"

	"github.com/pthm-cable/habitat/camera"
	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/game"
	"github.com/pthm-cable/habitat/systems"
)

func main() {
	configPath := flag.String("config", "", "Path to config file (empty = use defaults)")
	seed := flag.Int64("seed", 0, "Terrain seed (0 = use config)")
	size := flag.Int("size", 0, "Grid size in tiles (0 = use config)")
	agents := flag.Bool("agents", false, "Overlay the initial population (first letter of species name)")
	width := flag.Int("width", 0, "Viewport width in characters (0 = grid size)")
	height := flag.Int("height", 0, "Viewport height in characters (0 = grid size)")
	zoom := flag.Float64("zoom", 1.0, "Characters per tile (below 1 shrinks the map)")
	cx := flag.Int("cx", -1, "Viewport center tile X (-1 = grid center)")
	cy := flag.Int("cy", -1, "Viewport center tile Y (-1 = grid center)")
	flag.Parse()

	if err := config.Init(*configPath); err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	cfg := config.Cfg()
	if *size > 0 {
		cfg.World.Size = *size
	}
	if *seed == 0 {
		*seed = cfg.World.Seed
	}

	// Keep the world's own logging out of the preview
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	var terrain *systems.TerrainData
	overlay := map[components.Coord]byte{}
	if *agents {
		w, err := game.New(cfg, game.Options{Seed: *seed, RunID: "preview"})
		if err != nil {
			slog.Error("failed to create world", "error", err)
			os.Exit(1)
		}
		terrain = w.Terrain()
		for _, a := range w.Agents() {
			overlay[a.Coord] = a.Species[0]
		}
		w.Close()
	} else {
		terrain = systems.GenerateTerrain(cfg.Terrain, cfg.World.Size, *seed)
	}

	out := bufio.NewWriter(os.Stdout)
	defer out.Flush()

	n := terrain.Size
	var water, trees int
	for i := range terrain.Water {
		switch {
		case terrain.Water[i]:
			water++
		case terrain.Trees[i]:
			trees++
		}
	}

	if *width <= 0 {
		*width = n
	}
	if *height <= 0 {
		*height = n
	}
	cam := camera.New(*width, *height, n)
	cam.SetZoom(*zoom)
	if *cx >= 0 || *cy >= 0 {
		center := components.Coord{X: n / 2, Y: n / 2}
		if *cx >= 0 {
			center.X = *cx
		}
		if *cy >= 0 {
			center.Y = *cy
		}
		cam.CenterOn(center)
	}

	for sy := 0; sy < cam.ViewportH; sy++ {
		row := make([]byte, cam.ViewportW)
		for sx := range row {
			row[sx] = tileChar(terrain, cam, overlay, sx, sy)
		}
		fmt.Fprintln(out, string(row))
	}

	total := float64(n * n)
	mean, std := stat.MeanStdDev(terrain.Heights, nil)
	minX, minY, maxX, maxY := cam.VisibleBounds()
	fmt.Fprintf(out, "\nview=(%d,%d)-(%d,%d) zoom=%.2f\n", minX, minY, maxX, maxY, cam.Zoom)
	fmt.Fprintf(out, "seed=%d size=%d water=%.1f%% trees=%.1f%% walkable=%d shore=%d height=%.2f±%.2f\n",
		*seed, n,
		float64(water)/total*100, float64(trees)/total*100,
		len(terrain.Grid.LandCoords()), countShore(terrain.Grid), mean, std)
}

// tileChar renders one screen cell: an agent letter if one stands on the
// tile, else the terrain.
func tileChar(terrain *systems.TerrainData, cam *camera.Camera, overlay map[components.Coord]byte, sx, sy int) byte {
	c, ok := cam.ScreenToWorld(sx, sy)
	if !ok {
		return ' '
	}
	if ch, ok := overlay[c]; ok {
		return ch
	}
	i := c.Y*terrain.Size + c.X
	switch {
	case terrain.Water[i]:
		return '~'
	case terrain.Trees[i]:
		return 'T'
	default:
		return '.'
	}
}

func countShore(g *systems.Grid) int {
	count := 0
	for y := 0; y < g.Size(); y++ {
		for x := 0; x < g.Size(); x++ {
			if g.Shore(components.Coord{X: x, Y: y}) {
				count++
			}
		}
	}
	return count
}
