// Package debugapi serves read-only world state over HTTP and streams
// window stats over WebSocket.
//
// HTTP goroutines never touch the world. Each request is queued and
// answered by the simulation goroutine from Drain, between ticks.
package debugapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/game"
	"github.com/pthm-cable/habitat/telemetry"
)

// requestTimeout bounds how long a handler waits for the simulation
// goroutine to answer.
const requestTimeout = 5 * time.Second

// errNotFound makes a query answer 404.
var errNotFound = errors.New("not found")

// errBadRequest makes a query answer 400.
var errBadRequest = errors.New("bad request")

type query struct {
	fn    func(*game.World) (any, error)
	reply chan result
}

type result struct {
	body any
	err  error
}

// Server is the debug API.
type Server struct {
	addr    string
	queries chan query
	hub     *Broadcaster
	srv     *http.Server
}

// NewServer creates a debug server listening on addr once Serve is called.
func NewServer(addr string) *Server {
	s := &Server{
		addr:    addr,
		queries: make(chan query, 64),
		hub:     NewBroadcaster(),
	}
	s.srv = &http.Server{
		Addr:              addr,
		Handler:           s.Handler(),
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s
}

// Handler returns the API routes.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/status", s.handleStatus)
	mux.HandleFunc("GET /api/v1/counts", s.handleCounts)
	mux.HandleFunc("GET /api/v1/agents", s.handleAgents)
	mux.HandleFunc("GET /api/v1/sense", s.handleSense)
	mux.HandleFunc("GET /ws", s.handleWS)
	return mux
}

// Hub returns the WebSocket broadcaster.
func (s *Server) Hub() *Broadcaster {
	return s.hub
}

// Serve listens until ctx is cancelled.
func (s *Server) Serve(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		slog.Info("debug_api_listening", "addr", s.addr)
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		s.hub.Close()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

// Drain answers every pending query against w. Call it from the
// simulation goroutine between ticks.
func (s *Server) Drain(w *game.World) {
	for {
		select {
		case q := <-s.queries:
			body, err := q.fn(w)
			q.reply <- result{body: body, err: err}
		default:
			return
		}
	}
}

// Publish pushes a stats window to WebSocket subscribers.
func (s *Server) Publish(stats telemetry.WindowStats) {
	s.hub.Broadcast(Message{Type: "window", Tick: stats.WindowEndTick, Data: stats})
}

// do queues fn for the simulation goroutine and writes its answer.
func (s *Server) do(w http.ResponseWriter, r *http.Request, fn func(*game.World) (any, error)) {
	ctx, cancel := context.WithTimeout(r.Context(), requestTimeout)
	defer cancel()

	q := query{fn: fn, reply: make(chan result, 1)}
	select {
	case s.queries <- q:
	case <-ctx.Done():
		http.Error(w, "simulation busy", http.StatusServiceUnavailable)
		return
	}

	select {
	case res := <-q.reply:
		switch {
		case errors.Is(res.err, errNotFound):
			http.Error(w, res.err.Error(), http.StatusNotFound)
		case errors.Is(res.err, errBadRequest):
			http.Error(w, res.err.Error(), http.StatusBadRequest)
		case res.err != nil:
			http.Error(w, res.err.Error(), http.StatusInternalServerError)
		default:
			writeJSON(w, res.body)
		}
	case <-ctx.Done():
		http.Error(w, "simulation did not answer", http.StatusServiceUnavailable)
	}
}

func writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Debug("write response failed", "error", err)
	}
}

// Status is the /api/v1/status body.
type Status struct {
	RunID       string  `json:"run_id"`
	Seed        int64   `json:"seed"`
	Tick        int32   `json:"tick"`
	SimTimeSec  float64 `json:"sim_time"`
	WorldSize   int     `json:"world_size"`
	Summary     string  `json:"summary"`
	Subscribers int     `json:"subscribers"`
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	subs := s.hub.SubscriberCount()
	s.do(w, r, func(world *game.World) (any, error) {
		return Status{
			RunID:       world.RunID(),
			Seed:        world.Seed(),
			Tick:        world.TickCount(),
			SimTimeSec:  float64(world.TickCount()) * world.Config().Sim.DT,
			WorldSize:   world.Grid().Size(),
			Summary:     world.Summary(),
			Subscribers: subs,
		}, nil
	})
}

func (s *Server) handleCounts(w http.ResponseWriter, r *http.Request) {
	s.do(w, r, func(world *game.World) (any, error) {
		counts := world.Counts()
		out := make(map[string]int, len(counts))
		for i, sp := range world.Config().Species {
			out[sp.Name] = counts[i]
		}
		return out, nil
	})
}

// handleAgents lists live entities, or one entity with ?id=, optionally
// filtered by ?species=.
func (s *Server) handleAgents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	if idStr := q.Get("id"); idStr != "" {
		id, err := strconv.ParseUint(idStr, 10, 32)
		if err != nil {
			http.Error(w, "invalid id", http.StatusBadRequest)
			return
		}
		s.do(w, r, func(world *game.World) (any, error) {
			a, ok := world.Agent(uint32(id))
			if !ok {
				return nil, errNotFound
			}
			return a, nil
		})
		return
	}

	species := q.Get("species")
	s.do(w, r, func(world *game.World) (any, error) {
		agents := world.Agents()
		out := make([]game.AgentState, 0, len(agents))
		for _, a := range agents {
			if species == "" || a.Species == species {
				out = append(out, a)
			}
		}
		return out, nil
	})
}

// SenseResult is the /api/v1/sense body.
type SenseResult struct {
	From    components.Coord  `json:"from"`
	Food    *components.Coord `json:"food"`
	Water   *components.Coord `json:"water"`
	Visible int               `json:"visible_tiles"`
}

func (s *Server) handleSense(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	x, errX := strconv.Atoi(q.Get("x"))
	y, errY := strconv.Atoi(q.Get("y"))
	if errX != nil || errY != nil {
		http.Error(w, "x and y must be integers", http.StatusBadRequest)
		return
	}
	c := components.Coord{X: x, Y: y}

	s.do(w, r, func(world *game.World) (any, error) {
		if !world.Grid().InBounds(c) {
			return nil, errBadRequest
		}
		sur := world.Sense(c)
		res := SenseResult{From: c, Visible: len(sur.Visible)}
		if sur.HasFood() {
			food := sur.FoodCoord
			res.Food = &food
		}
		if sur.HasWater() {
			water := sur.NearestWater
			res.Water = &water
		}
		return res, nil
	})
}
