package tiles

import (
	"math/rand/v2"
	"sort"
)

// Blank is the wildcard tile. It stands in for any letter and scores zero.
const Blank = '?'

// distribution is the per-round tile frequency table (standard English set).
var distribution = map[rune]int{
	'A': 9, 'B': 2, 'C': 2, 'D': 4, 'E': 12, 'F': 2, 'G': 3, 'H': 2, 'I': 9,
	'J': 1, 'K': 1, 'L': 4, 'M': 2, 'N': 6, 'O': 8, 'P': 2, 'Q': 1, 'R': 6,
	'S': 4, 'T': 6, 'U': 4, 'V': 2, 'W': 2, 'X': 1, 'Y': 2, 'Z': 1,
	Blank: 2,
}

// BagSize is the number of tiles in a full bag.
func BagSize() int {
	n := 0
	for _, c := range distribution {
		n += c
	}
	return n
}

// GenerateBag returns every tile of the distribution in uniformly random order.
func GenerateBag(rng *rand.Rand) []rune {
	letters := make([]rune, 0, len(distribution))
	for r := range distribution {
		letters = append(letters, r)
	}
	// map iteration order is random; sort so the shuffle alone decides the order
	sort.Slice(letters, func(i, j int) bool { return letters[i] < letters[j] })

	bag := make([]rune, 0, BagSize())
	for _, r := range letters {
		for i := 0; i < distribution[r]; i++ {
			bag = append(bag, r)
		}
	}
	rng.Shuffle(len(bag), func(i, j int) { bag[i], bag[j] = bag[j], bag[i] })
	return bag
}

// Pool is a multiset of available tiles, letter -> count.
type Pool map[rune]int

// NewPool returns an empty pool.
func NewPool() Pool {
	return Pool{}
}

// Clone returns an independent copy. Window resolution works on a clone so the
// live pool is never aliased by a speculative check.
func (p Pool) Clone() Pool {
	c := make(Pool, len(p))
	for r, n := range p {
		c[r] = n
	}
	return c
}

// Add puts tiles into the pool.
func (p Pool) Add(tiles ...rune) {
	for _, r := range tiles {
		p[r]++
	}
}

// Total returns the number of tiles in the pool.
func (p Pool) Total() int {
	n := 0
	for _, c := range p {
		n += c
	}
	return n
}

// Counts returns a string-keyed view of the non-empty entries, for broadcasting.
func (p Pool) Counts() map[string]int {
	out := make(map[string]int, len(p))
	for r, n := range p {
		if n > 0 {
			out[string(r)] = n
		}
	}
	return out
}

// CanSatisfy reports whether word can be built from pool, covering any
// shortfall of exact letters with blanks. It does not mutate pool.
func CanSatisfy(word string, pool Pool) bool {
	need := make(map[rune]int, len(word))
	for _, r := range word {
		need[r]++
	}

	shortfall := 0
	for r, n := range need {
		if have := pool[r]; have < n {
			shortfall += n - have
		}
	}
	return shortfall <= pool[Blank]
}

// Consume removes the tiles for word from pool, preferring exact letters and
// falling back to blanks. The word must already have passed CanSatisfy
// against the same pool.
func Consume(word string, pool Pool) {
	for _, r := range word {
		if pool[r] > 0 {
			pool[r]--
			continue
		}
		pool[Blank]--
	}
}
