// Package block decodes canonical slices into renderable space-time
// quad-trees.
//
// A slice of block size k causally determines a region 2^(k-1) cells wide
// and 2^(k-2) steps tall centered under it. Decode splits that region into
// four quadrants, each again identified by a slice id of block size k-1,
// down to leaves holding two cells. Renderers walk the tree to whatever
// depth their resolution needs.
package block
