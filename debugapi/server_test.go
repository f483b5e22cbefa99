package debugapi

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/pthm-cable/habitat/components"
	"github.com/pthm-cable/habitat/config"
	"github.com/pthm-cable/habitat/game"
	"github.com/pthm-cable/habitat/systems"
	"github.com/pthm-cable/habitat/telemetry"
)

func init() {
	config.MustInit("")
}

// newTestServer serves a 16x16 world holding one plant at (3,3) and one
// rabbit at (8,8). A goroutine stands in for the simulation loop.
func newTestServer(t *testing.T) (*Server, *httptest.Server, uint32) {
	t.Helper()
	w, err := game.NewWithGrid(config.Cfg(), systems.NewOpenGrid(16), game.Options{RunID: "debug-test", SkipSpawn: true})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := w.SpawnPlant(0, components.Coord{X: 3, Y: 3}, 1); err != nil {
		t.Fatal(err)
	}
	rabbit, err := w.SpawnAnimal(1, components.Coord{X: 8, Y: 8}, components.Needs{Hunger: 0.2})
	if err != nil {
		t.Fatal(err)
	}

	s := NewServer("")
	ts := httptest.NewServer(s.Handler())

	done := make(chan struct{})
	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		for {
			select {
			case <-done:
				return
			default:
				s.Drain(w)
				time.Sleep(time.Millisecond)
			}
		}
	}()

	t.Cleanup(func() {
		ts.Close()
		close(done)
		<-stopped
		w.Close()
	})
	return s, ts, rabbit
}

func getJSON(t *testing.T, url string, v any) int {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatal(err)
		}
	}
	return resp.StatusCode
}

func TestStatusAndCounts(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var st Status
	if code := getJSON(t, ts.URL+"/api/v1/status", &st); code != http.StatusOK {
		t.Fatalf("status code = %d", code)
	}
	if st.RunID != "debug-test" || st.WorldSize != 16 || st.Tick != 0 {
		t.Errorf("status = %+v", st)
	}

	var counts map[string]int
	if code := getJSON(t, ts.URL+"/api/v1/counts", &counts); code != http.StatusOK {
		t.Fatalf("counts code = %d", code)
	}
	want := map[string]int{"plant": 1, "rabbit": 1, "fox": 0}
	for k, v := range want {
		if counts[k] != v {
			t.Errorf("counts[%s] = %d, want %d", k, counts[k], v)
		}
	}
}

func TestAgents(t *testing.T) {
	_, ts, rabbit := newTestServer(t)

	var all []game.AgentState
	if code := getJSON(t, ts.URL+"/api/v1/agents", &all); code != http.StatusOK {
		t.Fatalf("agents code = %d", code)
	}
	if len(all) != 2 {
		t.Errorf("got %d agents, want 2", len(all))
	}

	var rabbits []game.AgentState
	getJSON(t, ts.URL+"/api/v1/agents?species=rabbit", &rabbits)
	if len(rabbits) != 1 || rabbits[0].ID != rabbit {
		t.Errorf("rabbits = %+v", rabbits)
	}

	tests := []struct {
		query string
		code  int
	}{
		{"?id=" + strconv.FormatUint(uint64(rabbit), 10), http.StatusOK},
		{"?id=999", http.StatusNotFound},
		{"?id=abc", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if code := getJSON(t, ts.URL+"/api/v1/agents"+tt.query, nil); code != tt.code {
			t.Errorf("agents%s code = %d, want %d", tt.query, code, tt.code)
		}
	}
}

func TestSense(t *testing.T) {
	_, ts, _ := newTestServer(t)

	var res SenseResult
	if code := getJSON(t, ts.URL+"/api/v1/sense?x=4&y=4", &res); code != http.StatusOK {
		t.Fatalf("sense code = %d", code)
	}
	if res.Food == nil || *res.Food != (components.Coord{X: 3, Y: 3}) {
		t.Errorf("food = %v, want (3,3)", res.Food)
	}
	if res.Water != nil {
		t.Errorf("water = %v on a dry grid", res.Water)
	}
	if res.Visible == 0 {
		t.Error("no visible tiles")
	}

	for _, q := range []string{"?x=99&y=0", "?x=a&y=1", ""} {
		if code := getJSON(t, ts.URL+"/api/v1/sense"+q, nil); code != http.StatusBadRequest {
			t.Errorf("sense%s code = %d, want 400", q, code)
		}
	}
}

func TestWebSocketStreamsWindows(t *testing.T) {
	s, ts, _ := newTestServer(t)

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for s.Hub().SubscriberCount() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscriber never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}

	s.Publish(telemetry.WindowStats{
		WindowEndTick: 100,
		Species:       []telemetry.SpeciesStats{{Species: "rabbit", Count: 3}},
	})

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg struct {
		Type string                `json:"type"`
		Tick int32                 `json:"tick"`
		Data telemetry.WindowStats `json:"data"`
	}
	if err := conn.ReadJSON(&msg); err != nil {
		t.Fatal(err)
	}
	if msg.Type != "window" || msg.Tick != 100 || msg.Data.Count("rabbit") != 3 {
		t.Errorf("message = %+v", msg)
	}
}

func TestBroadcasterDropsWhenFull(t *testing.T) {
	b := NewBroadcaster()
	id, ch := b.Register()
	for i := 0; i < 100; i++ {
		b.Broadcast(Message{Type: "window", Tick: int32(i)})
	}
	if len(ch) != cap(ch) {
		t.Errorf("buffered = %d, want %d", len(ch), cap(ch))
	}
	b.Unregister(id)
	if b.SubscriberCount() != 0 {
		t.Errorf("SubscriberCount() = %d, want 0", b.SubscriberCount())
	}
	if _, ok := <-drain(ch); ok {
		t.Error("channel not closed after Unregister")
	}
}

// drain empties ch and returns it.
func drain(ch <-chan Message) <-chan Message {
	for len(ch) > 0 {
		<-ch
	}
	return ch
}
