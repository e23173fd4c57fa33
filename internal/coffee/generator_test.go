package coffee_test

import (
	"math/rand"
	"testing"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tjansson60/slackrandomcoffee/internal/coffee"
	"github.com/tjansson60/slackrandomcoffee/internal/domain"
)

func newGenerator(seed int64) *coffee.Generator {
	return coffee.NewGenerator(rand.New(rand.NewSource(seed)))
}

// occurrences counts how often each member appears across all pairs.
func occurrences(batch domain.Batch) map[string]int {
	var all []string
	for _, p := range batch {
		all = append(all, p.First, p.Second)
	}
	return lo.CountValues(all)
}

func TestGenerator_Generate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		members        []string
		history        domain.History
		wantPairs      int
		wantMaxSeen    int // highest appearance count of any single member
		wantDoubleSeen int // how many members appear more than once
	}{
		{
			name:           "odd member count double-books one member",
			members:        []string{"Liam", "Olivia", "Noah", "Emma", "Ava"},
			wantPairs:      3,
			wantMaxSeen:    2,
			wantDoubleSeen: 1,
		},
		{
			name:           "even member count pairs everyone once",
			members:        []string{"Liam", "Olivia", "Noah", "Emma", "Ava", "Sophia"},
			wantPairs:      3,
			wantMaxSeen:    1,
			wantDoubleSeen: 0,
		},
		{
			name:           "single member is paired with themself",
			members:        []string{"Liam"},
			wantPairs:      1,
			wantMaxSeen:    2,
			wantDoubleSeen: 1,
		},
		{
			name:           "even count with history",
			members:        []string{"Liam", "Olivia", "Noah", "Emma", "Ava", "Sophia"},
			history:        domain.History{{{First: "Olivia", Second: "Noah"}, {First: "Olivia", Second: "Ava"}}},
			wantPairs:      3,
			wantMaxSeen:    1,
			wantDoubleSeen: 0,
		},
		{
			name:           "odd count with history",
			members:        []string{"Liam", "Olivia", "Emma", "Ava", "Sophia"},
			history:        domain.History{{{First: "Olivia", Second: "Noah"}, {First: "Olivia", Second: "Ava"}}},
			wantPairs:      3,
			wantMaxSeen:    2,
			wantDoubleSeen: 1,
		},
	}

	for _, tc := range tests {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			// The generator is randomized, so check the invariants across
			// many seeds rather than one lucky draw.
			for seed := int64(0); seed < 50; seed++ {
				batch := newGenerator(seed).Generate(tc.members, tc.history)

				require.Len(t, batch, tc.wantPairs, "seed %d", seed)

				counts := occurrences(batch)
				assert.ElementsMatch(t, tc.members, lo.Keys(counts), "seed %d: every member must be covered", seed)
				assert.Equal(t, tc.wantMaxSeen, lo.Max(lo.Values(counts)), "seed %d", seed)

				doubled := lo.CountBy(lo.Values(counts), func(n int) bool { return n > 1 })
				assert.Equal(t, tc.wantDoubleSeen, doubled, "seed %d", seed)
			}
		})
	}
}

func TestGenerator_Generate_EmptyMembers(t *testing.T) {
	t.Parallel()

	batch := newGenerator(1).Generate(nil, nil)
	assert.Empty(t, batch)

	batch = newGenerator(1).Generate([]string{}, domain.History{})
	assert.Empty(t, batch)
}

func TestGenerator_Generate_AvoidsHistoricalMatches(t *testing.T) {
	t.Parallel()

	t.Run("avoidable history is always avoided", func(t *testing.T) {
		t.Parallel()

		// With four members and these two prior pairs a conflict-free
		// matching always exists, and the first pick is never forced, so no
		// seed may ever reproduce a prior pair.
		members := []string{"A", "B", "C", "D"}
		history := domain.History{{{First: "A", Second: "B"}, {First: "C", Second: "D"}}}

		for seed := int64(0); seed < 200; seed++ {
			batch := newGenerator(seed).Generate(members, history)
			assert.False(t, batch.Contains(domain.Pair{First: "A", Second: "B"}), "seed %d: %v", seed, batch)
			assert.False(t, batch.Contains(domain.Pair{First: "C", Second: "D"}), "seed %d: %v", seed, batch)
		}
	})

	t.Run("repeat pairing only when forced by exhaustion", func(t *testing.T) {
		t.Parallel()

		members := []string{"A", "B", "C", "D", "E", "F"}
		history := domain.History{{{First: "B", Second: "C"}, {First: "B", Second: "E"}}}

		for seed := int64(0); seed < 200; seed++ {
			batch := newGenerator(seed).Generate(members, history)
			for i, p := range batch {
				repeat := p.Same(domain.Pair{First: "B", Second: "C"}) || p.Same(domain.Pair{First: "B", Second: "E"})
				if repeat {
					// Exhaustion can only happen when a single candidate
					// remains, which is always the final pair.
					assert.Equal(t, len(batch)-1, i, "seed %d: repeat pair %v not forced", seed, p)
				}
			}
		}
	})

	t.Run("fully covered history still pairs", func(t *testing.T) {
		t.Parallel()

		members := []string{"A", "B"}
		history := domain.History{{{First: "A", Second: "B"}}}

		batch := newGenerator(7).Generate(members, history)
		require.Len(t, batch, 1)
		assert.True(t, batch[0].Same(domain.Pair{First: "A", Second: "B"}))
	})
}

func TestGenerator_Generate_Deterministic(t *testing.T) {
	t.Parallel()

	members := []string{"A", "B", "C", "D", "E"}

	first := newGenerator(42).Generate(members, nil)
	second := newGenerator(42).Generate(members, nil)
	assert.Equal(t, first, second)
}

func TestGenerator_Generate_DoesNotMutateInput(t *testing.T) {
	t.Parallel()

	members := []string{"A", "B", "C", "D"}
	newGenerator(3).Generate(members, nil)
	assert.Equal(t, []string{"A", "B", "C", "D"}, members)
}
