package scene

import (
	"context"
	"fmt"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/gogpu/texquad"
	"github.com/gogpu/texquad/internal/parallel"
	"github.com/gogpu/texquad/texture"
)

// Render traces a width x height texture of the scene, one row per work
// item on a pool of workers (0 means GOMAXPROCS).
//
// Texel (x, y) looks through the image-plane point (2x/w - 1, 2y/h - 1, -1)
// relative to the eye, so texel row 0 is the bottom of the view.
func (s Scene) Render(ctx context.Context, width, height, workers int) (*texture.Image, error) {
	if width <= 0 || height <= 0 {
		return nil, texture.ErrInvalidDimensions
	}
	if err := s.Validate(); err != nil {
		return nil, err
	}

	data := make([]byte, width*height*texture.BytesPerTexel)
	pool := parallel.NewWorkerPool(workers)
	defer pool.Close()

	err := pool.Run(ctx, height, func(y int) {
		row := data[y*width*texture.BytesPerTexel : (y+1)*width*texture.BytesPerTexel]
		v := float32(y)/float32(height)*2 - 1
		for x := range width {
			u := float32(x)/float32(width)*2 - 1
			c := s.Trace(s.Eye, mgl32.Vec3{u, v, -1})
			i := x * texture.BytesPerTexel
			row[i], row[i+1], row[i+2], row[i+3] = c.ToRGBA8()
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scene: render: %w", err)
	}

	texquad.Logger().Debug("scene: traced",
		"width", width, "height", height, "spheres", len(s.Spheres))
	return texture.New(width, height, data)
}
