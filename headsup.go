/*
Copyright © 2026 Seednode <seednode@seedno.de>
*/

// Heads Up
//
// One phone is held against the current player's forehead. A word from the
// chosen category is shown to everyone else, who give clues. Tilting the phone
// down marks the word as guessed, tilting it up skips it. When the timer runs
// out the next player takes the phone, and after the last round the
// leaderboard decides the winner.
//
// Each $path/$gameid is its own session. Any browser that opens it sees the
// same screens, and the phone streams its motion sensors over the socket.

package main

import (
	"crypto/rand"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/Seednode/headsup/games/headsup"
	"github.com/Seednode/headsup/games/motion"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/julienschmidt/httprouter"
	"github.com/skip2/go-qrcode"
)

var errUnknownMessage = errors.New("unknown message type")

type Client struct {
	conn     *websocket.Conn
	send     chan any
	clientID string
}

type command struct {
	client *Client
	msg    ClientMessage
}

type Hub struct {
	id      string
	clients map[*Client]bool

	register chan *Client
	unreg    chan *Client
	commands chan command
	quit     chan struct{}
	stopOnce sync.Once

	mu sync.RWMutex

	createdAt  time.Time
	lastActive time.Time

	// owned by the run goroutine
	machine *headsup.Machine
	primary *motion.LatestSource
	native  *motion.LatestSource
	gravity *motion.LatestSource
}

func newHub(cfg *Config, catalog *headsup.Catalog, gameID string) *Hub {
	now := time.Now()

	h := &Hub{
		id:         gameID,
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unreg:      make(chan *Client),
		commands:   make(chan command),
		quit:       make(chan struct{}),
		createdAt:  now,
		lastActive: now,
		primary:    motion.NewLatestSource(motion.Primary, cfg.sensorTimeout),
		native:     motion.NewLatestSource(motion.SecondaryNative, cfg.sensorTimeout),
		gravity:    motion.NewLatestSource(motion.TertiaryGravity, cfg.sensorTimeout),
	}

	sensors := motion.NewFusionProvider(h.primary, h.native, h.gravity)
	presenter := &hubPresenter{hub: h, now: time.Now}

	h.machine = headsup.NewMachine(cfg.engine(), catalog, sensors, presenter)

	return h
}

func (h *Hub) run(cfg *Config) {
	ticker := time.NewTicker(time.Second / time.Duration(cfg.tickRate))
	defer ticker.Stop()

	for {
		select {
		case <-h.quit:
			return

		case c := <-h.register:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.clients[c] = true
			h.mu.Unlock()

			h.sendTo(c, SessionInfoMessage{
				Type:     "session_info",
				GameID:   h.id,
				ClientID: c.clientID,
			})

			h.machine.Refresh()

		case c := <-h.unreg:
			h.mu.Lock()
			h.lastActive = time.Now()
			h.dropLocked(c)
			h.mu.Unlock()

		case cmd := <-h.commands:
			now := time.Now()

			h.mu.Lock()
			h.lastActive = now
			h.mu.Unlock()

			if err := h.handleCommand(cmd.msg, now); err != nil {
				logf(cfg, "GAMES: %s rejected %q from %s: %v", h.id, cmd.msg.Type, cmd.client.clientID, err)

				h.sendTo(cmd.client, SimpleMessage{Type: "error", Message: err.Error()})
			}

		case now := <-ticker.C:
			h.machine.Tick(now)
		}
	}
}

// handleCommand applies one client message to the machine. Sensor samples
// are converted to g units here, before they reach the fusion provider.
func (h *Hub) handleCommand(msg ClientMessage, now time.Time) error {
	m := h.machine

	switch msg.Type {
	case "motion":
		h.primary.Update(motion.Normalize(motion.Vector{X: msg.X, Y: msg.Y, Z: msg.Z}), now)
		return nil
	case "accelerometer":
		h.native.Update(motion.Normalize(motion.Vector{X: msg.X, Y: msg.Y, Z: msg.Z}), now)
		return nil
	case "orientation":
		h.gravity.Update(motion.GravityFromOrientation(msg.Beta, msg.Gamma), now)
		return nil
	case "select_category":
		return m.SelectCategory(msg.Category)
	case "add_player":
		_, err := m.AddPlayer(msg.Name)
		return err
	case "remove_last_player":
		return m.RemoveLastPlayer()
	case "set_rounds":
		return m.SetTotalRounds(msg.Rounds)
	case "confirm_setup":
		return m.ConfirmSetup(now)
	case "start_round":
		return m.StartRound(now)
	case "gesture":
		kind, ok := motion.ParseKind(msg.Kind)
		if !ok {
			return fmt.Errorf("unknown gesture %q", msg.Kind)
		}
		return m.GestureOverride(kind, now)
	case "force_end":
		return m.ForceEndRound()
	case "next":
		return m.Next(now)
	case "reset":
		m.Reset()
		return nil
	}

	return fmt.Errorf("%w: %q", errUnknownMessage, msg.Type)
}

// dropLocked removes a client and closes its send channel. h.mu must be held.
func (h *Hub) dropLocked(c *Client) {
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
}

// broadcast never blocks the game loop: a client that cannot keep up is dropped.
func (h *Hub) broadcast(msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			h.dropLocked(c)
			if c.conn != nil {
				_ = c.conn.Close()
			}
		}
	}
}

func (h *Hub) sendTo(c *Client, msg any) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[c]; !ok {
		return
	}

	select {
	case c.send <- msg:
	default:
		h.dropLocked(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

// closeAll stops the hub and disconnects all of its clients (used by reaper).
func (h *Hub) closeAll() {
	h.stopOnce.Do(func() { close(h.quit) })

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		h.dropLocked(c)
		if c.conn != nil {
			_ = c.conn.Close()
		}
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

const clientCookieName = "headsup_id"

func getOrSetClientID(w http.ResponseWriter, r *http.Request) string {
	if c, err := r.Cookie(clientCookieName); err == nil {
		if _, err := uuid.Parse(c.Value); err == nil {
			return c.Value
		}
	}

	id := uuid.NewString()

	http.SetCookie(w, &http.Cookie{
		Name:     clientCookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	return id
}

// GameManager holds a set of hubs keyed by game ID, so each $path/$gameid
// is its own isolated session.
type GameManager struct {
	mu          sync.Mutex
	hubs        map[string]*Hub
	catalog     *headsup.Catalog
	idleTimeout time.Duration
}

func newGameManager(catalog *headsup.Catalog, idleTimeout time.Duration) *GameManager {
	gm := &GameManager{
		hubs:        make(map[string]*Hub),
		catalog:     catalog,
		idleTimeout: idleTimeout,
	}
	if idleTimeout > 0 {
		go gm.reaperLoop()
	}
	return gm
}

func (gm *GameManager) getHub(cfg *Config, gameID string) *Hub {
	gm.mu.Lock()
	defer gm.mu.Unlock()

	if hub, ok := gm.hubs[gameID]; ok {
		return hub
	}

	hub := newHub(cfg, gm.catalog, gameID)
	gm.hubs[gameID] = hub
	go hub.run(cfg)

	logf(cfg, "GAMES: Started session %s", gameID)

	return hub
}

// newGameID generates a crypto-random game ID and ensures it doesn't
// collide with existing games.
func (gm *GameManager) newGameID() string {
	const (
		letters = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
		length  = 6
	)

	for {
		buf := make([]byte, length)
		if _, err := rand.Read(buf); err != nil {
			panic("crypto/rand failure: " + err.Error())
		}
		for i := range buf {
			buf[i] = letters[int(buf[i])%len(letters)]
		}
		id := string(buf)

		gm.mu.Lock()
		_, exists := gm.hubs[id]
		gm.mu.Unlock()

		if !exists {
			return id
		}
	}
}

// reap removes hubs that have been idle since before cutoff.
func (gm *GameManager) reap(cutoff time.Time) []string {
	var reaped []string

	gm.mu.Lock()
	defer gm.mu.Unlock()

	for id, hub := range gm.hubs {
		hub.mu.RLock()
		last := hub.lastActive
		hub.mu.RUnlock()

		if last.Before(cutoff) {
			delete(gm.hubs, id)
			go hub.closeAll()
			reaped = append(reaped, id)
		}
	}

	return reaped
}

func (gm *GameManager) reaperLoop() {
	ticker := time.NewTicker(gm.idleTimeout / 2)
	for range ticker.C {
		gm.reap(time.Now().Add(-gm.idleTimeout))
	}
}

// WebSocket handler that picks the hub based on :gameid
func serveWSForManager(cfg *Config, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		clientID := getOrSetClientID(w, r)

		hub := gm.getHub(cfg, gameID)

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logf(cfg, "GAMES: Upgrade failed for %s: %v", realIP(r), err)
			return
		}

		client := &Client{
			conn:     conn,
			send:     make(chan any, 32),
			clientID: clientID,
		}

		select {
		case hub.register <- client:
		case <-hub.quit:
			_ = conn.Close()
			return
		}

		logf(cfg, "GAMES: %s joined %s", realIP(r), gameID)

		go client.writePump()
		client.readPump(hub)
	}
}

func (c *Client) readPump(h *Hub) {
	defer func() {
		select {
		case h.unreg <- c:
		case <-h.quit:
		}
		_ = c.conn.Close()
	}()

	for {
		var msg ClientMessage
		if err := c.conn.ReadJSON(&msg); err != nil {
			return
		}

		select {
		case h.commands <- command{client: c, msg: msg}:
		case <-h.quit:
			return
		}
	}
}

func (c *Client) writePump() {
	defer c.conn.Close()

	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(timeout))
		if err := c.conn.WriteJSON(msg); err != nil {
			return
		}
	}
}

// QR handler: generates a PNG QR code for the current game URL using go-qrcode.
func qrHandler(cfg *Config) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, ps httprouter.Params) {
		gameID := ps.ByName("gameid")
		if gameID == "" {
			http.Error(w, "missing game id", http.StatusBadRequest)
			return
		}

		scheme := cfg.scheme()
		if r.TLS != nil {
			scheme = "https"
		}
		if proto := r.Header.Get("X-Forwarded-Proto"); proto != "" {
			scheme = proto
		}

		// We are at /.../:gameid/qr; strip trailing "/qr" to get the game URL.
		url := scheme + "://" + r.Host + strings.TrimSuffix(r.URL.Path, "/qr")

		const qrSize = 320
		png, err := qrcode.Encode(url, qrcode.Medium, qrSize)
		if err != nil {
			http.Error(w, "qr generation failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "image/png")
		w.Header().Set("Cache-Control", "no-store")
		securityHeaders(cfg, w)

		_, _ = w.Write(png)
	}
}

func serveCategories(cfg *Config, catalog *headsup.Catalog, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		startTime := time.Now()

		infos := make([]CategoryInfo, 0, catalog.Len())
		for _, c := range catalog.Categories() {
			infos = append(infos, categoryInfo(c))
		}

		data, err := json.Marshal(infos)
		if err != nil {
			errs <- err
			http.Error(w, "unable to list categories", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "application/json")
		securityHeaders(cfg, w)

		written, err := w.Write(data)
		if err != nil {
			errs <- err
			return
		}

		logf(cfg, "SERVE: Category list (%s) to %s in %s",
			humanReadableSize(int64(written)),
			realIP(r),
			time.Since(startTime).Round(time.Microsecond),
		)
	}
}

func serveIndex(cfg *Config, errs chan<- error) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		data, err := assets.ReadFile("headsup/index.html")
		if err != nil {
			errs <- err
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-cache")
		securityHeaders(cfg, w)

		_ = getOrSetClientID(w, r)

		_, _ = w.Write(data)
	}
}

// redirectNewGame handles GET /path by generating a new random game ID
// (with server-side collision detection) and redirecting to /path/:gameid.
func redirectNewGame(cfg *Config, path string, gm *GameManager) httprouter.Handle {
	return func(w http.ResponseWriter, r *http.Request, _ httprouter.Params) {
		gameID := gm.newGameID()
		logf(cfg, "GAMES: Created game %s%s/%s", cfg.prefix, path, gameID)
		http.Redirect(w, r, cfg.prefix+path+"/"+gameID, http.StatusTemporaryRedirect)
	}
}

// registerHeadsUp sets up routes so that:
//   - $path                  → redirects to new random game
//   - $path/:gameid          → HTML client
//   - $path/:gameid/ws       → WebSocket for that game
//   - $path/:gameid/qr       → PNG QR code for that game URL
func registerHeadsUp(cfg *Config, path string, catalog *headsup.Catalog, mux *httprouter.Router, errs chan<- error) *GameManager {
	gm := newGameManager(catalog, cfg.sessionTimeout)

	mux.GET(cfg.prefix+path, redirectNewGame(cfg, path, gm))

	mux.GET(cfg.prefix+path+"/:gameid", serveIndex(cfg, errs))

	mux.GET(cfg.prefix+path+"/:gameid/ws", serveWSForManager(cfg, gm))

	mux.GET(cfg.prefix+path+"/:gameid/qr", qrHandler(cfg))

	mux.GET(cfg.prefix+"/api/categories", serveCategories(cfg, catalog, errs))

	return gm
}
