/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

package headsup

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/Seednode/headsup/games/motion"
	"github.com/google/uuid"
)

var (
	ErrEmptyCategory     = errors.New("category has no words")
	ErrUnknownCategory   = errors.New("unknown category")
	ErrNoCategory        = errors.New("no category selected")
	ErrNoPlayers         = errors.New("at least one player is required")
	ErrEmptyName         = errors.New("player name must not be empty")
	ErrInvalidRounds     = errors.New("total rounds must be at least 1")
	ErrSetupLocked       = errors.New("players and rounds can only change before the game starts")
	ErrInvalidTransition = errors.New("invalid transition")
)

type State string

const (
	StateMenu        State = "menu"
	StateSetup       State = "setup"
	StateReady       State = "ready"
	StatePlaying     State = "playing"
	StateResults     State = "results"
	StateLeaderboard State = "leaderboard"
)

func (s State) String() string {
	return string(s)
}

// CanTransitionTo reports whether the forward transition s -> target exists.
// Resetting back to the menu is always allowed and is not listed here.
func (s State) CanTransitionTo(target State) bool {
	validTransitions := map[State][]State{
		StateMenu:        {StateSetup},
		StateSetup:       {StateReady},
		StateReady:       {StatePlaying},
		StatePlaying:     {StateResults},
		StateResults:     {StateLeaderboard},
		StateLeaderboard: {StateReady, StateMenu},
	}

	for _, allowed := range validTransitions[s] {
		if allowed == target {
			return true
		}
	}

	return false
}

type Config struct {
	RoundDuration    time.Duration
	FeedbackDuration time.Duration
	TotalRounds      int

	Gesture motion.RecognizerConfig
	Ready   motion.RecognizerConfig

	CorrectText string
	SkipText    string

	Diagnostics bool

	// Rand drives word draws; nil uses a randomly seeded source.
	Rand *rand.Rand
}

func DefaultConfig() Config {
	return Config{
		RoundDuration:    60 * time.Second,
		FeedbackDuration: 300 * time.Millisecond,
		TotalRounds:      1,
		Gesture: motion.RecognizerConfig{
			Threshold: motion.DefaultThreshold,
			Cooldown:  motion.DefaultCooldown,
			Axis:      motion.AxisY,
		},
		Ready: motion.RecognizerConfig{
			Threshold: motion.DefaultThreshold,
			Cooldown:  motion.DefaultReadyCooldown,
			Axis:      motion.AxisY,
		},
		CorrectText: "Correct!",
		SkipText:    "Skipped",
	}
}

// Session is the per-game bookkeeping. Counts and Results cover the
// current turn only.
type Session struct {
	CurrentPlayerIndex int           `json:"currentPlayerIndex"`
	RoundIndex         int           `json:"roundIndex"`
	TotalRounds        int           `json:"totalRounds"`
	TimeRemaining      time.Duration `json:"timeRemaining"`
	Correct            int           `json:"correct"`
	Skipped            int           `json:"skipped"`
	Results            []WordResult  `json:"results"`
}

// Machine drives one game. It is not safe for concurrent use; a single
// goroutine owns it and calls Tick at a fixed rate.
type Machine struct {
	cfg       Config
	catalog   *Catalog
	sensors   *motion.FusionProvider
	presenter Presenter

	state    State
	category *Category
	deck     *Deck
	players  []*Player
	rounds   int
	session  Session

	word            string
	feedbackPending bool
	shownSeconds    int
	lastTick        time.Time

	timers Timers
	play   *motion.Recognizer
	ready  *motion.Recognizer
}

func NewMachine(cfg Config, catalog *Catalog, sensors *motion.FusionProvider, presenter Presenter) *Machine {
	if cfg.TotalRounds < 1 {
		cfg.TotalRounds = 1
	}
	if catalog == nil {
		catalog = NewCatalog(nil)
	}
	if sensors == nil {
		sensors = motion.NewFusionProvider()
	}

	return &Machine{
		cfg:       cfg,
		catalog:   catalog,
		sensors:   sensors,
		presenter: presenter,
		state:     StateMenu,
		rounds:    cfg.TotalRounds,
		play:      motion.NewRecognizer(cfg.Gesture),
		ready:     motion.NewRecognizer(cfg.Ready),
	}
}

func (m *Machine) State() State {
	return m.state
}

func (m *Machine) Category() *Category {
	return m.category
}

func (m *Machine) Word() string {
	return m.word
}

func (m *Machine) TotalRounds() int {
	return m.rounds
}

func (m *Machine) Players() []Player {
	out := make([]Player, len(m.players))
	for i, p := range m.players {
		out[i] = *p
	}
	return out
}

func (m *Machine) Standings() []Player {
	return Sorted(m.players)
}

func (m *Machine) CurrentPlayer() (Player, bool) {
	i := m.session.CurrentPlayerIndex
	if i < 0 || i >= len(m.players) {
		return Player{}, false
	}
	return *m.players[i], true
}

func (m *Machine) Session() Session {
	s := m.session
	s.Results = append([]WordResult(nil), m.session.Results...)
	return s
}

// IsGameOver is true once every player has finished every round.
func (m *Machine) IsGameOver() bool {
	return len(m.players) > 0 && IsGameOver(m.session.CurrentPlayerIndex, len(m.players))
}

// FeedbackPending is true between a gesture and the next word appearing.
func (m *Machine) FeedbackPending() bool {
	return m.feedbackPending
}

// Refresh re-sends the current screen, for a presenter that just attached.
func (m *Machine) Refresh() {
	switch m.state {
	case StateMenu:
		m.presenter.ShowMenu(m.catalog.Categories())
	case StateSetup:
		m.presenter.ShowSetup(m.category, m.Players(), m.rounds)
	case StateReady:
		p, _ := m.CurrentPlayer()
		m.presenter.ShowReady(p, m.session.RoundIndex, m.session.TotalRounds)
	case StatePlaying:
		p, _ := m.CurrentPlayer()
		m.presenter.ShowGame(p)
		m.presenter.DisplayTimer(m.session.TimeRemaining)
		if !m.feedbackPending {
			m.presenter.DisplayWord(m.word)
		}
	case StateResults:
		p, _ := m.CurrentPlayer()
		m.presenter.ShowResults(p, m.session.Correct, m.Session().Results)
	case StateLeaderboard:
		m.presenter.ShowLeaderboard(m.Standings(), m.IsGameOver())
	}
}

func (m *Machine) SelectCategory(name string) error {
	if m.state != StateMenu && m.state != StateSetup {
		return fmt.Errorf("%w: select category while %s", ErrSetupLocked, m.state)
	}

	c, ok := m.catalog.Lookup(name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownCategory, name)
	}
	if len(c.Words) == 0 {
		return fmt.Errorf("%w: %q", ErrEmptyCategory, c.Name)
	}

	m.category = c
	m.deck = NewDeck(c, m.cfg.Rand)
	m.state = StateSetup

	m.presenter.ShowSetup(m.category, m.Players(), m.rounds)

	return nil
}

func (m *Machine) AddPlayer(name string) (Player, error) {
	if m.state != StateMenu && m.state != StateSetup {
		return Player{}, ErrSetupLocked
	}

	name = strings.TrimSpace(name)
	if name == "" {
		return Player{}, ErrEmptyName
	}

	p := &Player{ID: uuid.New().String(), Name: name}
	m.players = append(m.players, p)

	m.refreshSetup()

	return *p, nil
}

func (m *Machine) RemoveLastPlayer() error {
	if m.state != StateMenu && m.state != StateSetup {
		return ErrSetupLocked
	}
	if len(m.players) == 0 {
		return ErrNoPlayers
	}

	m.players[len(m.players)-1] = nil
	m.players = m.players[:len(m.players)-1]

	m.refreshSetup()

	return nil
}

func (m *Machine) SetTotalRounds(n int) error {
	if m.state != StateMenu && m.state != StateSetup {
		return ErrSetupLocked
	}
	if n < 1 {
		return ErrInvalidRounds
	}

	m.rounds = n

	m.refreshSetup()

	return nil
}

func (m *Machine) refreshSetup() {
	if m.state == StateSetup {
		m.presenter.ShowSetup(m.category, m.Players(), m.rounds)
	}
}

// ConfirmSetup starts the game with the first player's ready screen.
func (m *Machine) ConfirmSetup(now time.Time) error {
	if m.state != StateSetup {
		return fmt.Errorf("%w: confirm setup while %s", ErrInvalidTransition, m.state)
	}
	if m.category == nil {
		return ErrNoCategory
	}
	if len(m.players) == 0 {
		return ErrNoPlayers
	}

	for _, p := range m.players {
		p.Score = 0
	}

	m.session = Session{TotalRounds: m.rounds}
	m.enterReady(now)

	return nil
}

// StartRound is the explicit start signal on the ready screen.
func (m *Machine) StartRound(now time.Time) error {
	if err := m.can(StatePlaying); err != nil {
		return err
	}

	return m.enterPlaying(now)
}

// GestureOverride behaves like a recognized gesture. While feedback for
// the previous word is still showing it is ignored.
func (m *Machine) GestureOverride(kind motion.Kind, now time.Time) error {
	switch m.state {
	case StateReady:
		if kind != motion.Confirm {
			return nil
		}
		return m.enterPlaying(now)
	case StatePlaying:
		if m.feedbackPending {
			return nil
		}
		m.play.Fire(now)
		m.apply(kind, now)
		return nil
	default:
		return fmt.Errorf("%w: gesture while %s", ErrInvalidTransition, m.state)
	}
}

// ForceEndRound ends the running turn at once, dropping pending feedback.
func (m *Machine) ForceEndRound() error {
	if err := m.can(StateResults); err != nil {
		return err
	}

	m.endRound()

	return nil
}

// Next moves from results to the leaderboard, and from the leaderboard
// to the next player's ready screen or, once the game is over, the menu.
func (m *Machine) Next(now time.Time) error {
	switch m.state {
	case StateResults:
		m.advance()
		m.state = StateLeaderboard
		m.presenter.ShowLeaderboard(m.Standings(), m.IsGameOver())
		return nil
	case StateLeaderboard:
		if m.IsGameOver() {
			m.Reset()
			return nil
		}
		m.enterReady(now)
		return nil
	default:
		return fmt.Errorf("%w: next while %s", ErrInvalidTransition, m.state)
	}
}

// Reset abandons the session and returns to the menu.
func (m *Machine) Reset() {
	m.timers.CancelAll()

	m.state = StateMenu
	m.category = nil
	m.deck = nil
	m.players = nil
	m.rounds = m.cfg.TotalRounds
	m.session = Session{}
	m.word = ""
	m.feedbackPending = false

	m.play.Reset()
	m.ready.Reset()

	m.presenter.ShowMenu(m.catalog.Categories())
}

// Tick advances the clock, runs due timers and feeds the sensors through
// the recognizer for the current screen.
func (m *Machine) Tick(now time.Time) {
	elapsed := time.Duration(0)
	if !m.lastTick.IsZero() {
		elapsed = max(now.Sub(m.lastTick), 0)
	}
	m.lastTick = now

	reading := m.sensors.Read(now)
	if m.cfg.Diagnostics {
		m.presenter.ShowDiagnostics(reading)
	}

	switch m.state {
	case StateReady:
		ev, ok := m.ready.OnTick(reading, now)
		if !ok {
			return
		}
		if ev.Kind == motion.Confirm {
			if err := m.enterPlaying(now); err == nil {
				return
			}
		}
		// a skip, or a round that could not start, leaves the ready screen up
		m.ready.Arm()

	case StatePlaying:
		m.session.TimeRemaining -= elapsed
		if m.session.TimeRemaining <= 0 {
			m.session.TimeRemaining = 0
			m.endRound()
			return
		}
		m.showTimer()

		m.timers.Advance(now)
		if m.state != StatePlaying {
			return
		}

		if ev, ok := m.play.OnTick(reading, now); ok {
			m.apply(ev.Kind, now)
		}
	}
}

func (m *Machine) can(target State) error {
	if !m.state.CanTransitionTo(target) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, m.state, target)
	}
	return nil
}

func (m *Machine) enterReady(now time.Time) {
	m.state = StateReady

	m.ready.Reset()
	m.ready.Hold(now)

	p, _ := m.CurrentPlayer()
	m.presenter.ShowReady(p, m.session.RoundIndex, m.session.TotalRounds)
}

func (m *Machine) enterPlaying(now time.Time) error {
	if m.deck == nil {
		return ErrNoCategory
	}

	m.timers.CancelAll()

	m.state = StatePlaying
	m.session.Correct = 0
	m.session.Skipped = 0
	m.session.Results = nil
	m.session.TimeRemaining = m.cfg.RoundDuration
	m.feedbackPending = false
	m.shownSeconds = -1
	m.lastTick = now

	m.deck.PrepareRound()
	m.play.Reset()

	p, _ := m.CurrentPlayer()
	m.presenter.ShowGame(p)
	m.showTimer()

	m.nextWord()

	return nil
}

func (m *Machine) showTimer() {
	secs := int((m.session.TimeRemaining + time.Second - 1) / time.Second)
	if secs == m.shownSeconds {
		return
	}

	m.shownSeconds = secs
	m.presenter.DisplayTimer(m.session.TimeRemaining)
}

func (m *Machine) nextWord() {
	w, err := m.deck.Draw()
	if err != nil {
		m.endRound()
		return
	}

	m.word = w
	m.presenter.DisplayWord(w)
}

func (m *Machine) apply(kind motion.Kind, now time.Time) {
	correct := kind == motion.Confirm

	m.session.Results = append(m.session.Results, WordResult{Word: m.word, Correct: correct})
	if correct {
		m.session.Correct++
		if i := m.session.CurrentPlayerIndex; i < len(m.players) {
			m.players[i].Score++
		}
	} else {
		m.session.Skipped++
	}

	text := m.cfg.SkipText
	if correct {
		text = m.cfg.CorrectText
	}

	m.feedbackPending = true
	m.presenter.FlashBackground(correct)
	m.presenter.DisplayFeedback(text, correct)

	done := now.Add(m.cfg.FeedbackDuration)
	m.timers.Schedule(done, func(time.Time) {
		m.presenter.RestoreBackground()
	})
	m.timers.Schedule(done, func(time.Time) {
		m.feedbackPending = false
		m.nextWord()
		m.play.Arm()
	})
}

func (m *Machine) endRound() {
	m.timers.CancelAll()
	m.feedbackPending = false
	m.play.Disarm()

	m.state = StateResults

	p, _ := m.CurrentPlayer()
	m.presenter.ShowResults(p, m.session.Correct, m.Session().Results)
}

// advance moves to the next turn, wrapping to the first player while
// rounds remain. After the final turn the index equals the player count.
func (m *Machine) advance() {
	next := m.session.CurrentPlayerIndex + 1
	if next >= len(m.players) && m.session.RoundIndex+1 < m.session.TotalRounds {
		m.session.RoundIndex++
		next = 0
	}

	m.session.CurrentPlayerIndex = next
}
