package testutil

import (
	"math"
	"math/rand"
	"strconv"
	"sync"

	"github.com/hupe1980/agglo/internal/dataset"
)

// RNG struct encapsulates the random number generator and seed.
// It is thread-safe.
type RNG struct {
	rand *rand.Rand
	seed int64
	mu   sync.Mutex
}

// NewRNG creates a new RNG instance with the specified seed.
func NewRNG(seed int64) *RNG {
	return &RNG{
		rand: rand.New(rand.NewSource(seed)),
		seed: seed,
	}
}

// Reset resets the RNG to its initial seed.
func (r *RNG) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Seed(r.seed)
}

// Seed returns the initial seed.
func (r *RNG) Seed() int64 {
	return r.seed
}

// Intn returns a non-negative pseudo-random number in [0,n).
func (r *RNG) Intn(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Intn(n)
}

// Float64 returns a pseudo-random number in [0.0,1.0).
func (r *RNG) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.rand.Float64()
}

// Shuffle pseudo-randomizes the order of n elements.
func (r *RNG) Shuffle(n int, swap func(i, j int)) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rand.Shuffle(n, swap)
}

// Zipf returns a Zipfian-distributed value in [0, n).
// P(k) ∝ 1/k^s where s is the skew parameter.
func (r *RNG) Zipf(n int, s float64) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.zipfLocked(n, s)
}

func (r *RNG) zipfLocked(n int, s float64) int {
	if n <= 1 {
		return 0
	}

	var hns float64
	for i := 1; i <= n; i++ {
		hns += 1.0 / math.Pow(float64(i), s)
	}

	u := r.rand.Float64() * hns
	var cumulative float64
	for k := 1; k <= n; k++ {
		cumulative += 1.0 / math.Pow(float64(k), s)
		if u <= cumulative {
			return k - 1
		}
	}

	return n - 1
}

// RatingsConfig shapes a synthetic data set.
type RatingsConfig struct {
	Users  int
	Items  int
	Groups int // taste groups; users of a group rate items alike

	// PerUser is the number of ratings drawn per user (duplicates collapse).
	// Defaults to Items/2.
	PerUser int

	// Skew is the Zipf exponent of item popularity. Defaults to 1.
	Skew float64

	// Noise is the probability that a rating deviates from the group taste.
	Noise float64
}

// Ratings generates a data set on the 1..5 scale. Each group has a preferred
// rating per item; a user of the group repeats it unless noise kicks in.
// Users are labelled "u<i>" and items "i<j>".
func (r *RNG) Ratings(cfg RatingsConfig) []dataset.Rating {
	if cfg.Groups <= 0 {
		cfg.Groups = 1
	}
	if cfg.PerUser <= 0 {
		cfg.PerUser = max(cfg.Items/2, 1)
	}
	if cfg.Skew <= 0 {
		cfg.Skew = 1
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	taste := make([][]float64, cfg.Groups)
	for g := range taste {
		taste[g] = make([]float64, cfg.Items)
		for i := range taste[g] {
			taste[g][i] = float64(1 + r.rand.Intn(5))
		}
	}

	var out []dataset.Rating
	for u := range cfg.Users {
		group := u % cfg.Groups
		seen := make(map[int]struct{}, cfg.PerUser)
		for range cfg.PerUser {
			item := r.zipfLocked(cfg.Items, cfg.Skew)
			if _, ok := seen[item]; ok {
				continue
			}
			seen[item] = struct{}{}

			v := taste[group][item]
			if r.rand.Float64() < cfg.Noise {
				v = float64(1 + r.rand.Intn(5))
			}
			out = append(out, dataset.Rating{
				User:  "u" + strconv.Itoa(u),
				Item:  "i" + strconv.Itoa(item),
				Value: v,
			})
		}
	}
	return out
}
