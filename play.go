/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/Seednode/headsup/games/headsup"
	"github.com/Seednode/headsup/games/motion"
)

const playHelp = "keys: c = correct, s = skip, e = end turn, n = next, q = quit (press enter after each)"

// terminalPresenter prints the game as plain text lines.
type terminalPresenter struct {
	w io.Writer
}

func (t *terminalPresenter) printf(format string, args ...any) {
	fmt.Fprintf(t.w, format+"\n", args...)
}

func (t *terminalPresenter) ShowMenu(categories []*headsup.Category) {
	names := make([]string, 0, len(categories))
	for _, c := range categories {
		names = append(names, c.Name)
	}

	t.printf("Categories: %s", strings.Join(names, ", "))
}

func (t *terminalPresenter) ShowSetup(category *headsup.Category, players []headsup.Player, totalRounds int) {
	name := "(none)"
	if category != nil {
		name = category.Name
	}

	t.printf("Category %s, %d player(s), %d round(s)", name, len(players), totalRounds)
}

func (t *terminalPresenter) ShowReady(player headsup.Player, roundIndex, totalRounds int) {
	t.printf("")
	t.printf("Round %d of %d. Pass the phone to %s, then press n to start.", roundIndex+1, totalRounds, player.Name)
}

func (t *terminalPresenter) ShowGame(player headsup.Player) {
	t.printf("%s, go!", player.Name)
}

func (t *terminalPresenter) ShowResults(player headsup.Player, score int, results []headsup.WordResult) {
	t.printf("Time's up! %s scored %d.", player.Name, score)

	for _, r := range results {
		mark := "-"
		if r.Correct {
			mark = "+"
		}
		t.printf("  %s %s", mark, r.Word)
	}
}

func (t *terminalPresenter) ShowLeaderboard(standings []headsup.Player, gameOver bool) {
	if gameOver {
		t.printf("Final standings:")
	} else {
		t.printf("Standings:")
	}

	for i, p := range standings {
		t.printf("  %d. %s: %d", i+1, p.Name, p.Score)
	}
}

func (t *terminalPresenter) FlashBackground(bool) {}

func (t *terminalPresenter) RestoreBackground() {}

func (t *terminalPresenter) DisplayWord(word string) {
	t.printf(">> %s", word)
}

func (t *terminalPresenter) DisplayFeedback(text string, _ bool) {
	t.printf("   %s", text)
}

func (t *terminalPresenter) DisplayTimer(remaining time.Duration) {
	secs := ceilSeconds(remaining)
	if secs%10 == 0 || secs <= 5 {
		t.printf("   [%s]", clockDisplay(secs))
	}
}

func (t *terminalPresenter) ShowDiagnostics(motion.Reading) {}

// scanLines feeds input lines to the game loop until in is exhausted or
// ctx is done.
func scanLines(ctx context.Context, in io.Reader) <-chan string {
	lines := make(chan string)

	go func() {
		defer close(lines)

		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- strings.ToLower(strings.TrimSpace(scanner.Text())):
			case <-ctx.Done():
				return
			}
		}
	}()

	return lines
}

// playLocal runs one game in the terminal. Keys stand in for tilt gestures,
// so no sensors are attached.
func playLocal(ctx context.Context, cfg *Config, in io.Reader, out io.Writer) error {
	catalog, err := loadCatalog(cfg)
	if err != nil {
		return err
	}

	engine := cfg.engine()
	engine.Diagnostics = false

	presenter := &terminalPresenter{w: out}
	m := headsup.NewMachine(engine, catalog, motion.NewFusionProvider(), presenter)

	category := cfg.category
	if category == "" {
		category = catalog.Categories()[0].Name
	}
	if err := m.SelectCategory(category); err != nil {
		return err
	}

	players := cfg.players
	if len(players) == 0 {
		players = []string{"Player 1"}
	}
	for _, name := range players {
		if _, err := m.AddPlayer(name); err != nil {
			return err
		}
	}

	presenter.printf(playHelp)

	if err := m.ConfirmSetup(time.Now()); err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	lines := scanLines(ctx, in)

	ticker := time.NewTicker(time.Second / time.Duration(cfg.tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case now := <-ticker.C:
			m.Tick(now)

		case line, ok := <-lines:
			if !ok {
				return nil
			}

			now := time.Now()

			var err error
			switch line {
			case "c":
				err = m.GestureOverride(motion.Confirm, now)
			case "s":
				err = m.GestureOverride(motion.Skip, now)
			case "e":
				err = m.ForceEndRound()
			case "n", "":
				if m.State() == headsup.StateReady {
					err = m.StartRound(now)
				} else {
					err = m.Next(now)
				}
			case "q":
				return nil
			default:
				presenter.printf(playHelp)
				continue
			}
			if err != nil {
				presenter.printf("   (%v)", err)
			}

			if m.State() == headsup.StateMenu {
				return nil
			}
		}
	}
}
