package headsup

import (
	"errors"
	"math/rand/v2"
	"testing"
)

func seeded() *rand.Rand {
	return rand.New(rand.NewPCG(1, 2))
}

func TestDeckNoRepeatUntilExhausted(t *testing.T) {
	c := &Category{Name: "Animals", Words: []string{"cat", "dog", "fox", "owl", "elk"}}

	for seed := uint64(0); seed < 20; seed++ {
		d := NewDeck(c, rand.New(rand.NewPCG(seed, seed+1)))

		seen := make(map[string]bool)
		for i := 0; i < len(c.Words); i++ {
			w, err := d.Draw()
			if err != nil {
				t.Fatalf("draw %d: %v", i, err)
			}
			if seen[w] {
				t.Fatalf("seed %d: %q repeated within one cycle", seed, w)
			}
			seen[w] = true
		}

		if d.Remaining() != 0 {
			t.Fatalf("remaining after full cycle = %d, want 0", d.Remaining())
		}

		w, err := d.Draw()
		if err != nil {
			t.Fatalf("draw after exhaustion: %v", err)
		}
		if !seen[w] {
			t.Fatalf("draw after exhaustion returned unknown word %q", w)
		}
		if d.Remaining() != len(c.Words)-1 {
			t.Fatalf("remaining after reshuffle = %d, want %d", d.Remaining(), len(c.Words)-1)
		}
	}
}

func TestDeckDuplicatesAreDistinctDraws(t *testing.T) {
	c := &Category{Name: "Echo", Words: []string{"same", "same", "other"}}
	d := NewDeck(c, seeded())

	counts := make(map[string]int)
	for i := 0; i < 3; i++ {
		w, err := d.Draw()
		if err != nil {
			t.Fatalf("draw: %v", err)
		}
		counts[w]++
	}

	if counts["same"] != 2 || counts["other"] != 1 {
		t.Fatalf("counts = %v, want same=2 other=1", counts)
	}
}

func TestDeckPrepareRoundRestoresPool(t *testing.T) {
	c := &Category{Name: "Animals", Words: []string{"cat", "dog", "fox"}}
	d := NewDeck(c, seeded())

	if _, err := d.Draw(); err != nil {
		t.Fatalf("draw: %v", err)
	}
	if d.Remaining() != 2 {
		t.Fatalf("remaining = %d, want 2", d.Remaining())
	}

	d.PrepareRound()
	if d.Remaining() != 3 {
		t.Fatalf("remaining after prepare = %d, want 3", d.Remaining())
	}
}

func TestDeckEmptyCategory(t *testing.T) {
	d := NewDeck(&Category{Name: "Nothing"}, seeded())

	if _, err := d.Draw(); !errors.Is(err, ErrEmptyCategory) {
		t.Fatalf("err = %v, want %v", err, ErrEmptyCategory)
	}
}

func TestSortedIsStable(t *testing.T) {
	players := []*Player{
		{Name: "A", Score: 5},
		{Name: "B", Score: 5},
		{Name: "C", Score: 3},
		{Name: "D", Score: 7},
	}

	got := Sorted(players)
	want := []string{"D", "A", "B", "C"}
	for i, p := range got {
		if p.Name != want[i] {
			t.Fatalf("order = %v, want %v", got, want)
		}
	}

	got[0].Score = 100
	if players[3].Score != 7 {
		t.Fatalf("Sorted returned aliases of the input players")
	}
}

func TestIsGameOver(t *testing.T) {
	if IsGameOver(2, 3) {
		t.Fatalf("index 2 of 3 reported game over")
	}
	if !IsGameOver(3, 3) {
		t.Fatalf("index 3 of 3 not reported game over")
	}
}
