// Package paint turns the pendulum tip into a spray brush.
//
// It holds the ordered colour palettes, the brush settings, a raster
// [Canvas] that accumulates alpha-blended spray particles, and the [View]
// that maps between world metres and screen pixels for drawing and for
// dragging the bobs during setup.
package paint
