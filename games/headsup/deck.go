/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import "math/rand/v2"

// Deck hands out words from a category without repeats until every word
// has been drawn once, then starts over. Positions rather than strings are
// tracked so duplicate words in a category are separate draws.
type Deck struct {
	category *Category
	rng      *rand.Rand

	remaining []int
	used      map[int]struct{}
}

func NewDeck(category *Category, rng *rand.Rand) *Deck {
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}

	d := &Deck{category: category, rng: rng}
	d.PrepareRound()

	return d
}

// PrepareRound forgets every earlier draw.
func (d *Deck) PrepareRound() {
	d.used = make(map[int]struct{}, len(d.category.Words))
	d.remaining = d.allPositions()
}

func (d *Deck) allPositions() []int {
	out := make([]int, len(d.category.Words))
	for i := range out {
		out[i] = i
	}
	return out
}

func (d *Deck) Draw() (string, error) {
	if len(d.category.Words) == 0 {
		return "", ErrEmptyCategory
	}

	if len(d.remaining) == 0 {
		d.remaining = d.remaining[:0]
		for i := range d.category.Words {
			if _, ok := d.used[i]; !ok {
				d.remaining = append(d.remaining, i)
			}
		}

		if len(d.remaining) == 0 {
			clear(d.used)
			d.remaining = d.allPositions()
		}
	}

	n := d.rng.IntN(len(d.remaining))
	pos := d.remaining[n]

	last := len(d.remaining) - 1
	d.remaining[n] = d.remaining[last]
	d.remaining = d.remaining[:last]
	d.used[pos] = struct{}{}

	return d.category.Words[pos], nil
}

// Remaining reports how many draws are left before the next reshuffle.
func (d *Deck) Remaining() int {
	return len(d.remaining)
}
