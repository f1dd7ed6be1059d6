/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import (
	"time"

	"github.com/Seednode/headsup/games/motion"
)

type WordResult struct {
	Word    string `json:"word"`
	Correct bool   `json:"correct"`
}

// Presenter renders what the machine asks for. All calls happen on the
// goroutine driving the machine.
type Presenter interface {
	ShowMenu(categories []*Category)
	ShowSetup(category *Category, players []Player, totalRounds int)
	ShowReady(player Player, roundIndex, totalRounds int)
	ShowGame(player Player)
	ShowResults(player Player, score int, results []WordResult)
	ShowLeaderboard(standings []Player, gameOver bool)

	FlashBackground(correct bool)
	RestoreBackground()
	DisplayWord(word string)
	DisplayFeedback(text string, correct bool)
	DisplayTimer(remaining time.Duration)

	// ShowDiagnostics is only called when diagnostics are enabled.
	ShowDiagnostics(reading motion.Reading)
}
