// Package parallel provides the tile-parallel execution used by the software
// rasterizer.
//
// The framebuffer is split into square tiles (64x64 by default). Every pixel
// belongs to exactly one tile, so tiles can be shaded concurrently and write
// to the shared framebuffer without synchronization.
package parallel

import "errors"

// ErrPoolClosed is returned by WorkerPool.Run after Close.
var ErrPoolClosed = errors.New("parallel: worker pool closed")

// DefaultTileSize is the edge length of a tile in pixels.
// 64x64 float RGBA pixels fit in 64KB.
const DefaultTileSize = 64

// Tile is a half-open pixel rectangle [X0, X1) x [Y0, Y1) of the
// framebuffer.
type Tile struct {
	Index  int
	X0, Y0 int
	X1, Y1 int
}

// Width returns the tile width in pixels.
func (t Tile) Width() int { return t.X1 - t.X0 }

// Height returns the tile height in pixels.
func (t Tile) Height() int { return t.Y1 - t.Y0 }

// Contains reports whether pixel (x, y) lies in the tile.
func (t Tile) Contains(x, y int) bool {
	return x >= t.X0 && x < t.X1 && y >= t.Y0 && y < t.Y1
}

// Clip intersects the tile with the half-open rectangle [x0, x1) x [y0, y1)
// and reports whether the intersection is non-empty.
func (t Tile) Clip(x0, y0, x1, y1 int) (cx0, cy0, cx1, cy1 int, ok bool) {
	cx0, cy0 = max(t.X0, x0), max(t.Y0, y0)
	cx1, cy1 = min(t.X1, x1), min(t.Y1, y1)
	return cx0, cy0, cx1, cy1, cx0 < cx1 && cy0 < cy1
}

// Split covers a width x height framebuffer with tiles of the given size,
// in row-major order. Right and bottom edge tiles are clipped to the
// framebuffer. A non-positive size selects DefaultTileSize.
func Split(width, height, size int) []Tile {
	if width <= 0 || height <= 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultTileSize
	}

	tilesX := (width + size - 1) / size
	tilesY := (height + size - 1) / size
	tiles := make([]Tile, 0, tilesX*tilesY)
	for ty := range tilesY {
		for tx := range tilesX {
			tiles = append(tiles, Tile{
				Index: len(tiles),
				X0:    tx * size,
				Y0:    ty * size,
				X1:    min((tx+1)*size, width),
				Y1:    min((ty+1)*size, height),
			})
		}
	}
	return tiles
}
