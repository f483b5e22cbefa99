package systems

import (
	"math"
	"math/rand"

	opensimplex "github.com/ojrac/opensimplex-go"

	"github.com/pthm-cable/habitat/config"
)

// TerrainData is the output of terrain generation. Layers are row-major.
type TerrainData struct {
	Size    int
	Heights []float64 // Normalised to [0, 1]
	Water   []bool
	Trees   []bool
	Grid    *Grid
}

// GenerateTerrain builds a heightmap from layered simplex noise, floods
// everything at or below the water height, and scatters trees over the
// remaining land. Tree tiles are land but not walkable.
func GenerateTerrain(cfg config.TerrainConfig, size int, seed int64) *TerrainData {
	heights := generateHeightmap(cfg, size, seed)

	n := size * size
	water := make([]bool, n)
	trees := make([]bool, n)
	walkable := make([]bool, n)

	rng := rand.New(rand.NewSource(seed))
	for i, h := range heights {
		if h <= cfg.WaterHeight {
			water[i] = true
			continue
		}
		if rng.Float64() < cfg.TreeProbability {
			trees[i] = true
			continue
		}
		walkable[i] = true
	}

	grid := NewGrid(size, walkable, water)
	if cfg.TileSize > 0 {
		grid.SetTileSize(float32(cfg.TileSize))
	}

	return &TerrainData{
		Size:    size,
		Heights: heights,
		Water:   water,
		Trees:   trees,
		Grid:    grid,
	}
}

// generateHeightmap samples numLayers octaves with a random offset per
// layer, then rescales the result to [0, 1].
func generateHeightmap(cfg config.TerrainConfig, size int, seed int64) []float64 {
	noise := opensimplex.NewNormalized(seed)
	rng := rand.New(rand.NewSource(seed + 1))

	layers := cfg.Layers
	if layers < 1 {
		layers = 1
	}
	offsets := make([][2]float64, layers)
	for i := range offsets {
		offsets[i] = [2]float64{rng.Float64()*2000 - 1000, rng.Float64()*2000 - 1000}
	}

	scale := cfg.Scale
	if scale <= 0 {
		scale = 1
	}

	heights := make([]float64, size*size)
	minH, maxH := math.Inf(1), math.Inf(-1)
	for y := 0; y < size; y++ {
		for x := 0; x < size; x++ {
			amplitude := 1.0
			frequency := 1.0
			h := 0.0
			for l := 0; l < layers; l++ {
				sx := float64(x)/float64(size)*scale*frequency + offsets[l][0]
				sy := float64(y)/float64(size)*scale*frequency + offsets[l][1]
				h += noise.Eval2(sx, sy) * amplitude
				amplitude *= cfg.Persistence
				frequency *= cfg.Lacunarity
			}
			heights[y*size+x] = h
			minH = math.Min(minH, h)
			maxH = math.Max(maxH, h)
		}
	}

	span := maxH - minH
	for i := range heights {
		if span > 0 {
			heights[i] = (heights[i] - minH) / span
		} else {
			heights[i] = 0
		}
	}
	return heights
}
