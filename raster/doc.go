// Package raster runs the textured shader program on the CPU.
//
// A Pipeline mirrors the fixed-function stages a WebGPU device applies
// around the two shader stages: it runs the vertex stage once per vertex,
// assembles triangle lists, rejects triangles that reach w <= 0, divides by
// w, maps NDC to the framebuffer (NDC +y is up, framebuffer row 0 is at the
// top), culls by winding, finds covered pixel centres with edge functions
// and a top-left fill rule, interpolates vertex outputs perspective-correctly
// and writes the fragment stage's colour with REPLACE semantics.
//
// The framebuffer is split into tiles that are shaded concurrently. Each
// pixel belongs to one tile and triangles are visited in submission order
// inside every tile, so the result does not depend on the worker count.
//
// Example:
//
//	p, err := raster.NewPipeline(256, 256, raster.WithWorkers(4))
//	if err != nil {
//	    return err
//	}
//	defer p.Close()
//
//	fb, err := p.Draw(ctx, texquad.UnitQuad(), raster.Bindings{
//	    Camera:  texquad.IdentityCamera(),
//	    Texture: img,
//	    Sampler: texture.DefaultSampler(),
//	})
package raster
