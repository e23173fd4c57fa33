package domain

import (
	"github.com/samber/lo"
)

// Pair is an unordered pairing of two channel members for one coffee chat.
// Members are stored in the textual form they will be rendered with in the
// announcement (mention form "<@U123>" or display form "@name").
type Pair struct {
	First  string
	Second string
}

// Has reports whether member is one of the two sides of the pair.
func (p Pair) Has(member string) bool {
	return p.First == member || p.Second == member
}

// Same reports whether other pairs the same two members, ignoring order.
func (p Pair) Same(other Pair) bool {
	return (p.First == other.First && p.Second == other.Second) ||
		(p.First == other.Second && p.Second == other.First)
}

// Batch is the ordered list of pairs produced by one pairing run. With an odd
// member count one member appears in two pairs; a single-member channel yields
// one pair of that member with themself.
type Batch []Pair

// Members returns every member appearing in the batch, deduplicated, in
// first-appearance order.
func (b Batch) Members() []string {
	members := make([]string, 0, len(b)*2)
	for _, p := range b {
		members = append(members, p.First, p.Second)
	}
	return lo.Uniq(members)
}

// Contains reports whether the batch holds a pair of the same two members as
// pair, ignoring order.
func (b Batch) Contains(pair Pair) bool {
	return lo.SomeBy(b, func(p Pair) bool { return p.Same(pair) })
}

// History is the sequence of batches recovered from prior announcements, one
// batch per announcement found in the channel's recent messages.
type History []Batch

// Partners returns everyone member has been paired with across all batches in
// the history, deduplicated. Appearing on either side of a pair counts.
func (h History) Partners(member string) []string {
	var partners []string
	for _, batch := range h {
		for _, p := range batch {
			switch member {
			case p.First:
				partners = append(partners, p.Second)
			case p.Second:
				partners = append(partners, p.First)
			}
		}
	}
	return lo.Uniq(partners)
}
