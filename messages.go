/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package main

import (
	"fmt"
	"time"

	"github.com/Seednode/headsup/games/headsup"
	"github.com/Seednode/headsup/games/motion"
)

// diagnosticsInterval caps how often raw sensor readings are pushed to clients.
const diagnosticsInterval = 200 * time.Millisecond

type ClientMessage struct {
	Type     string  `json:"type"`
	Name     string  `json:"name,omitempty"`
	Category string  `json:"category,omitempty"`
	Rounds   int     `json:"rounds,omitempty"`
	Kind     string  `json:"kind,omitempty"`
	X        float64 `json:"x,omitempty"`
	Y        float64 `json:"y,omitempty"`
	Z        float64 `json:"z,omitempty"`
	Beta     float64 `json:"beta,omitempty"`
	Gamma    float64 `json:"gamma,omitempty"`
}

type SimpleMessage struct {
	Type    string `json:"type"`
	Message string `json:"message,omitempty"`
}

type SessionInfoMessage struct {
	Type     string `json:"type"` // "session_info"
	GameID   string `json:"gameId"`
	ClientID string `json:"clientId"`
}

type CategoryInfo struct {
	Name  string `json:"name"`
	Color string `json:"color"`
	Words int    `json:"words"`
}

type PlayerInfo struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Score int    `json:"score"`
}

type ResultInfo struct {
	Word    string `json:"word"`
	Correct bool   `json:"correct"`
}

// ScreenMessage tells clients which screen to show. Only the fields that
// screen uses are set.
type ScreenMessage struct {
	Type        string         `json:"type"` // "screen"
	Screen      string         `json:"screen"`
	Categories  []CategoryInfo `json:"categories,omitempty"`
	Category    *CategoryInfo  `json:"category,omitempty"`
	Players     []PlayerInfo   `json:"players,omitempty"`
	Player      *PlayerInfo    `json:"player,omitempty"`
	RoundIndex  int            `json:"roundIndex"`
	TotalRounds int            `json:"totalRounds,omitempty"`
	Score       int            `json:"score"`
	Results     []ResultInfo   `json:"results,omitempty"`
	GameOver    bool           `json:"gameOver"`
}

type WordMessage struct {
	Type string `json:"type"` // "word"
	Word string `json:"word"`
}

type FeedbackMessage struct {
	Type    string `json:"type"` // "feedback"
	Text    string `json:"text"`
	Correct bool   `json:"correct"`
}

// FlashMessage with an empty Color restores the category background.
type FlashMessage struct {
	Type  string `json:"type"` // "flash"
	Color string `json:"color,omitempty"`
}

type TimerMessage struct {
	Type    string `json:"type"` // "timer"
	Seconds int    `json:"seconds"`
	Display string `json:"display"`
	Warning bool   `json:"warning"`
}

type DiagnosticsMessage struct {
	Type      string  `json:"type"` // "diagnostics"
	X         float64 `json:"x"`
	Y         float64 `json:"y"`
	Z         float64 `json:"z"`
	Magnitude float64 `json:"magnitude"`
	Source    string  `json:"source"`
}

const (
	flashCorrect = "#2e7d32"
	flashSkip    = "#c62828"
	warnSeconds  = 10
)

func categoryInfo(c *headsup.Category) CategoryInfo {
	return CategoryInfo{Name: c.Name, Color: c.Color.Hex(), Words: len(c.Words)}
}

func playerInfo(p headsup.Player) PlayerInfo {
	return PlayerInfo{ID: p.ID, Name: p.Name, Score: p.Score}
}

func playerInfos(players []headsup.Player) []PlayerInfo {
	out := make([]PlayerInfo, 0, len(players))
	for _, p := range players {
		out = append(out, playerInfo(p))
	}
	return out
}

// ceilSeconds rounds a remaining duration up, so a turn shows 1 until it is over.
func ceilSeconds(d time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int((d + time.Second - 1) / time.Second)
}

func clockDisplay(secs int) string {
	return fmt.Sprintf("%02d:%02d", secs/60, secs%60)
}

// hubPresenter renders machine output as websocket messages. It is only
// called from the hub's run goroutine.
type hubPresenter struct {
	hub      *Hub
	lastDiag time.Time
	now      func() time.Time
}

func (p *hubPresenter) ShowMenu(categories []*headsup.Category) {
	infos := make([]CategoryInfo, 0, len(categories))
	for _, c := range categories {
		infos = append(infos, categoryInfo(c))
	}

	p.hub.broadcast(ScreenMessage{Type: "screen", Screen: headsup.StateMenu.String(), Categories: infos})
}

func (p *hubPresenter) ShowSetup(category *headsup.Category, players []headsup.Player, totalRounds int) {
	msg := ScreenMessage{
		Type:        "screen",
		Screen:      headsup.StateSetup.String(),
		Players:     playerInfos(players),
		TotalRounds: totalRounds,
	}
	if category != nil {
		info := categoryInfo(category)
		msg.Category = &info
	}

	p.hub.broadcast(msg)
}

func (p *hubPresenter) ShowReady(player headsup.Player, roundIndex, totalRounds int) {
	info := playerInfo(player)

	p.hub.broadcast(ScreenMessage{
		Type:        "screen",
		Screen:      headsup.StateReady.String(),
		Player:      &info,
		RoundIndex:  roundIndex,
		TotalRounds: totalRounds,
	})
}

func (p *hubPresenter) ShowGame(player headsup.Player) {
	info := playerInfo(player)

	p.hub.broadcast(ScreenMessage{Type: "screen", Screen: headsup.StatePlaying.String(), Player: &info})
}

func (p *hubPresenter) ShowResults(player headsup.Player, score int, results []headsup.WordResult) {
	info := playerInfo(player)

	out := make([]ResultInfo, 0, len(results))
	for _, r := range results {
		out = append(out, ResultInfo{Word: r.Word, Correct: r.Correct})
	}

	p.hub.broadcast(ScreenMessage{
		Type:    "screen",
		Screen:  headsup.StateResults.String(),
		Player:  &info,
		Score:   score,
		Results: out,
	})
}

func (p *hubPresenter) ShowLeaderboard(standings []headsup.Player, gameOver bool) {
	p.hub.broadcast(ScreenMessage{
		Type:     "screen",
		Screen:   headsup.StateLeaderboard.String(),
		Players:  playerInfos(standings),
		GameOver: gameOver,
	})
}

func (p *hubPresenter) FlashBackground(correct bool) {
	color := flashSkip
	if correct {
		color = flashCorrect
	}

	p.hub.broadcast(FlashMessage{Type: "flash", Color: color})
}

func (p *hubPresenter) RestoreBackground() {
	p.hub.broadcast(FlashMessage{Type: "flash"})
}

func (p *hubPresenter) DisplayWord(word string) {
	p.hub.broadcast(WordMessage{Type: "word", Word: word})
}

func (p *hubPresenter) DisplayFeedback(text string, correct bool) {
	p.hub.broadcast(FeedbackMessage{Type: "feedback", Text: text, Correct: correct})
}

func (p *hubPresenter) DisplayTimer(remaining time.Duration) {
	secs := ceilSeconds(remaining)

	p.hub.broadcast(TimerMessage{
		Type:    "timer",
		Seconds: secs,
		Display: clockDisplay(secs),
		Warning: secs <= warnSeconds,
	})
}

func (p *hubPresenter) ShowDiagnostics(reading motion.Reading) {
	now := p.now()
	if now.Sub(p.lastDiag) < diagnosticsInterval {
		return
	}
	p.lastDiag = now

	p.hub.broadcast(DiagnosticsMessage{
		Type:      "diagnostics",
		X:         reading.Vector.X,
		Y:         reading.Vector.Y,
		Z:         reading.Vector.Z,
		Magnitude: reading.Magnitude,
		Source:    reading.Source.String(),
	})
}
