// Package testutil provides testing utilities for agglo.
//
// This package is intended for use in tests and benchmarks only.
// It provides a deterministic random source and a generator of synthetic
// rating data sets with planted taste groups.
//
// # Synthetic Ratings
//
//	rng := testutil.NewRNG(seed)
//	ratings := rng.Ratings(testutil.RatingsConfig{Users: 40, Items: 25, Groups: 4})
//	leaves := dataset.Build(node.NewGraph(), ratings)
//
// Item popularity follows a Zipf law, so a few items are rated by most users
// and the tail is sparse, the way real rating data sets look.
package testutil
