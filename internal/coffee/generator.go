package coffee

import (
	"math/rand"
	"slices"

	"github.com/samber/lo"

	"github.com/tjansson60/slackrandomcoffee/internal/domain"
)

// Generator produces random coffee pairings. It prefers members who have not
// met before, falling back to a repeat pairing only when every remaining
// candidate is a historical match.
type Generator struct {
	rng *rand.Rand
}

// NewGenerator creates a Generator drawing from rng. Callers own the source;
// tests pass a seeded one for deterministic pairings.
func NewGenerator(rng *rand.Rand) *Generator {
	return &Generator{rng: rng}
}

// Generate shuffles members and pairs them off. Members already paired in
// history are avoided where possible. An odd member count double-books one
// member across two pairs; a single member is paired with themself; an empty
// member list yields an empty batch. The input slice is not modified.
func (g *Generator) Generate(members []string, history domain.History) domain.Batch {
	if len(members) == 0 {
		return nil
	}

	pool := slices.Clone(members)
	g.rng.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })

	// The floating member closes the final pair when the count is odd. It is
	// consumed first below, so it can never itself be the leftover (except in
	// the single-member case, which pairs it with itself).
	floating := pool[len(pool)-1]

	batch := make(domain.Batch, 0, (len(pool)+1)/2)
	for len(pool) > 0 {
		if len(pool) == 1 {
			batch = append(batch, domain.Pair{First: floating, Second: pool[0]})
			break
		}

		first := pool[len(pool)-1]
		pool = pool[:len(pool)-1]

		candidates := lo.Without(pool, history.Partners(first)...)
		var second string
		if len(candidates) > 0 {
			second = candidates[g.rng.Intn(len(candidates))]
		} else {
			second = pool[g.rng.Intn(len(pool))]
		}

		idx := slices.Index(pool, second)
		pool = slices.Delete(pool, idx, idx+1)
		batch = append(batch, domain.Pair{First: first, Second: second})
	}

	return batch
}
