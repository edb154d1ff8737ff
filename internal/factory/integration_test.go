package factory

import (
	"bufio"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/suite"

	"github.com/mcoot/blockmatch/internal/model"
	"github.com/mcoot/blockmatch/internal/services/session"
	redisstorage "github.com/mcoot/blockmatch/internal/storage/redis"
)

type IntegrationSuite struct {
	suite.Suite
	app    *TestApp
	server *httptest.Server
	ctx    context.Context
}

func TestIntegrationSuite(t *testing.T) {
	suite.Run(t, new(IntegrationSuite))
}

func (s *IntegrationSuite) SetupTest() {
	s.app = NewTestApp()
	s.server = httptest.NewServer(s.app.Router())
	s.ctx = context.Background()
}

func (s *IntegrationSuite) TearDownTest() {
	s.Require().NoError(s.app.Close())
	s.server.Close()
}

func (s *IntegrationSuite) do(method, path, body string) *http.Response {
	req, err := http.NewRequestWithContext(s.ctx, method, s.server.URL+path, strings.NewReader(body))
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	return resp
}

type frame struct {
	event string
	data  string
}

// subscribe streams a board's SSE frames into a channel until the stream ends
func (s *IntegrationSuite) subscribe(id string) (<-chan frame, context.CancelFunc) {
	ctx, cancel := context.WithCancel(s.ctx)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.server.URL+"/api/v1/boards/"+id+"/events", nil)
	s.Require().NoError(err)
	resp, err := http.DefaultClient.Do(req)
	s.Require().NoError(err)
	s.Require().Equal(http.StatusOK, resp.StatusCode)

	frames := make(chan frame, 64)
	go func() {
		defer close(frames)
		defer func() { _ = resp.Body.Close() }()
		scanner := bufio.NewScanner(resp.Body)
		var current frame
		for scanner.Scan() {
			line := scanner.Text()
			switch {
			case strings.HasPrefix(line, "event: "):
				current.event = strings.TrimPrefix(line, "event: ")
			case strings.HasPrefix(line, "data: "):
				current.data = strings.TrimPrefix(line, "data: ")
			case line == "" && current.event != "":
				frames <- current
				current = frame{}
			}
		}
	}()

	first := s.next(frames)
	s.Require().Equal("connected", first.event)
	return frames, cancel
}

func (s *IntegrationSuite) next(frames <-chan frame) frame {
	select {
	case f, ok := <-frames:
		s.Require().True(ok, "event stream ended")
		return f
	case <-time.After(2 * time.Second):
		s.FailNow("timed out waiting for an event")
	}
	return frame{}
}

// Test: a stored level is played over HTTP while a watcher follows the events
func (s *IntegrationSuite) TestPlayStoredLevelWithWatcher() {
	resp := s.do(http.MethodPut, "/api/v1/levels/pairs",
		`{"rows":2,"cols":2,"colors":4,"layout":[["red","red"],["green","blue"]]}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	_ = resp.Body.Close()

	s.app.MockRandom.QueueString("board1")
	resp = s.do(http.MethodPost, "/api/v1/boards", `{"level":"pairs"}`)
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	_ = resp.Body.Close()

	frames, cancel := s.subscribe("board1")
	defer cancel()

	// Refills draw index 0 from the unqueued mock, which is red
	resp = s.do(http.MethodPost, "/api/v1/boards/board1/tap", `{"row":0,"col":1}`)
	s.Require().Equal(http.StatusOK, resp.StatusCode)
	var tap struct {
		Outcome string `json:"outcome"`
		Removed int    `json:"removed"`
		Columns []int  `json:"columns"`
		Board   struct {
			Cells [][]*struct {
				Color string `json:"color"`
			} `json:"cells"`
		} `json:"board"`
	}
	s.Require().NoError(json.NewDecoder(resp.Body).Decode(&tap))
	_ = resp.Body.Close()
	s.Equal("matched", tap.Outcome)
	s.Equal(2, tap.Removed)
	s.Equal([]int{0, 1}, tap.Columns)
	s.Equal("red", tap.Board.Cells[0][0].Color)
	s.Equal("green", tap.Board.Cells[1][0].Color)

	counts := map[string]int{}
	for range 4 {
		f := s.next(frames)
		counts[f.event]++
		var event model.Event
		s.Require().NoError(json.Unmarshal([]byte(f.data), &event))
		s.Equal(model.BoardID("board1"), event.BoardID)
		s.True(s.app.MockClock.Now().Equal(event.Timestamp))
	}
	s.Equal(map[string]int{"block_removed": 2, "block_spawned": 2}, counts)

	resp = s.do(http.MethodDelete, "/api/v1/boards/board1", "")
	s.Equal(http.StatusNoContent, resp.StatusCode)
	_ = resp.Body.Close()

	// Watchers hear about the delete before the stream ends
	f := s.next(frames)
	s.Equal("board_closed", f.event)
	deadline := time.After(2 * time.Second)
	select {
	case _, ok := <-frames:
		s.False(ok, "stream should end after board_closed")
	case <-deadline:
		s.FailNow("event stream did not end after delete")
	}

	resp = s.do(http.MethodGet, "/api/v1/boards/board1", "")
	s.Equal(http.StatusNotFound, resp.StatusCode)
	_ = resp.Body.Close()
}

// Test: manual shuffles lock the board and tell watchers input is paused
func (s *IntegrationSuite) TestShuffleTogglesInteraction() {
	seed := uint64(7)
	s.app.MockRandom.QueueString("board2")
	_, err := s.app.Sessions.Create(s.ctx, session.CreateParams{Rows: 4, Cols: 4, Colors: 3, Seed: &seed})
	s.Require().NoError(err)

	frames, cancel := s.subscribe("board2")
	defer cancel()

	outcome, err := s.app.Sessions.Shuffle(s.ctx, "board2")
	s.Require().NoError(err)
	s.True(outcome.Result.Playable)
	s.False(outcome.State.Locked)

	var events []string
	for {
		f := s.next(frames)
		if f.event == "block_moved" || f.event == "block_tier_changed" {
			continue
		}
		events = append(events, f.event)
		if f.event == "board_revealed" {
			break
		}
	}
	s.Equal([]string{"interaction_changed", "board_hidden", "board_revealed"}, events)

	f := s.next(frames)
	s.Equal("interaction_changed", f.event)
	s.Contains(f.data, `"enabled":true`)
}

// Test: levels imported from disk become playable boards
func (s *IntegrationSuite) TestNewImportsLevelsDir() {
	dir := s.T().TempDir()
	level := []byte(`{"rows":3,"cols":2,"colors":3,"columns":[["red","red","green"],["green","blue","blue"]]}`)
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "tall.json"), level, 0o600))
	s.Require().NoError(os.WriteFile(filepath.Join(dir, "broken.json"), []byte(`{"rows":0}`), 0o600))

	app, err := New(s.ctx, Config{LevelsDir: dir})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	all, err := app.Levels.List(s.ctx)
	s.Require().NoError(err)
	names := make([]string, len(all))
	for i, l := range all {
		names[i] = l.Name
	}
	s.Equal([]string{"default", "tall"}, names)

	state, err := app.Sessions.Create(s.ctx, session.CreateParams{Level: "tall"})
	s.Require().NoError(err)
	s.Equal(3, state.Rows)
	s.Equal(model.ColorGreen, state.Cells[0][1].Color)
	s.Equal(model.ColorBlue, state.Cells[2][1].Color)
}

func (s *IntegrationSuite) TestNewRejectsBadConfig() {
	_, err := New(s.ctx, Config{StorageType: "cassandra"})
	s.Error(err)

	_, err = New(s.ctx, Config{StorageType: StorageTypeRedis})
	s.Error(err)

	cfg := session.DefaultConfig()
	cfg.Engine.MinMatch = 1
	_, err = New(s.ctx, Config{Session: cfg})
	s.ErrorIs(err, model.ErrInvalidConfig)
}

// Test: a redis-backed app stores levels in redis and reports the backend in health checks
func (s *IntegrationSuite) TestNewWithRedisStorage() {
	mini := miniredis.RunT(s.T())
	redisCfg := redisstorage.DefaultConfig()
	redisCfg.URL = "redis://" + mini.Addr()

	app, err := New(s.ctx, Config{StorageType: StorageTypeRedis, RedisConfig: &redisCfg})
	s.Require().NoError(err)
	defer func() { _ = app.Close() }()

	level := &model.Level{Name: "duo", Rows: 2, Cols: 2, Colors: 2}
	s.Require().NoError(app.Levels.Save(s.ctx, level))
	s.True(mini.Exists("blockmatch:level:duo"), "keys: %v", mini.Keys())

	state, err := app.Sessions.Create(s.ctx, session.CreateParams{Level: "duo"})
	s.Require().NoError(err)
	s.Equal("duo", state.Level)

	server := httptest.NewServer(app.Router())
	defer server.Close()

	resp, err := http.Get(server.URL + "/api/v1/health")
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusOK, resp.StatusCode)

	mini.Close()
	resp, err = http.Get(server.URL + "/api/v1/health")
	s.Require().NoError(err)
	_ = resp.Body.Close()
	s.Equal(http.StatusServiceUnavailable, resp.StatusCode)
}
