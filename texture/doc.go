// Package texture holds the texel data and sampling policy bound to the
// fragment stage.
//
// An Image is an immutable RGBA8 grid whose texel (0, 0) is the top-left
// corner, matching WebGPU texture coordinates where (0, 0) addresses the
// first row of the uploaded data. A Sampler describes how normalized
// coordinates are resolved to texels: the address mode decides what happens
// outside [0, 1] and the filter mode decides how neighbouring texels are
// combined. Both are host configuration and are always injected; nothing in
// this package picks a policy on the caller's behalf except DefaultSampler.
//
// Sampling follows the WebGPU conventions so the software host produces the
// same texels as the hardware host:
//
//   - texel i covers [i/w, (i+1)/w), its centre sits at (i+0.5)/w
//   - nearest filtering selects floor(u*w)
//   - linear filtering blends the 2x2 neighbourhood around u*w-0.5
//   - the address mode is applied to every texel index that is read
package texture
