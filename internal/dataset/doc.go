// Package dataset loads rating triples and turns them into the leaf nodes of
// a bipartite user/content clustering.
//
// Input is delimited text with the columns user, item and rating; further
// columns (e.g. a timestamp) are ignored. A header row is skipped when its
// rating column is not numeric. Files ending in .gz, .zst or .lz4 are
// decompressed transparently.
package dataset
