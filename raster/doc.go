// Package raster expands decoded space-time blocks into cell grids.
//
// A Rasterizer walks the quadrant tree of a block down to its leaves and
// memoizes the grids of large sub-blocks by slice id, so translated copies
// of a pattern are expanded once.
package raster
