package e2e_test

import (
	"bufio"
	"context"
	"encoding/json"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mcoot/blockmatch/internal/api"
	"github.com/mcoot/blockmatch/internal/factory"
	"github.com/mcoot/blockmatch/internal/model"
)

// cliRunner manages CLI binary execution
type cliRunner struct {
	binaryPath string
	serverURL  string
}

func newCLIRunner(t *testing.T, serverURL string) *cliRunner {
	t.Helper()

	projectRoot := findProjectRoot(t)

	binaryPath := filepath.Join(t.TempDir(), "blockmatch-test")
	cmd := exec.Command("go", "build", "-o", binaryPath, "./cmd/blockmatch")
	cmd.Dir = projectRoot
	output, err := cmd.CombinedOutput()
	require.NoError(t, err, "failed to build CLI: %s", string(output))

	return &cliRunner{
		binaryPath: binaryPath,
		serverURL:  serverURL,
	}
}

func (r *cliRunner) command(args ...string) *exec.Cmd {
	fullArgs := append([]string{
		"--server", r.serverURL,
		"--output", "json",
	}, args...)
	return exec.Command(r.binaryPath, fullArgs...)
}

func (r *cliRunner) run(args ...string) (string, error) {
	output, err := r.command(args...).CombinedOutput()
	return string(output), err
}

func findProjectRoot(t *testing.T) string {
	t.Helper()

	dir, err := os.Getwd()
	require.NoError(t, err)

	for {
		if _, err := os.Stat(filepath.Join(dir, "go.mod")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			t.Fatal("could not find project root (go.mod)")
		}
		dir = parent
	}
}

// testServer runs the real application on a loopback port
type testServer struct {
	app *factory.App
	url string
}

func startTestServer(t *testing.T) *testServer {
	t.Helper()

	listener, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
	app, err := factory.New(context.Background(), factory.Config{Logger: logger})
	require.NoError(t, err)

	server := api.NewServer(app.Router(), api.DefaultServerConfig(), logger)
	go func() {
		if err := server.Serve(listener); err != nil {
			t.Logf("server error: %v", err)
		}
	}()

	ts := &testServer{app: app, url: "http://" + listener.Addr().String()}
	waitForServer(t, ts.url+"/api/v1/health")

	t.Cleanup(func() {
		_ = app.Close()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(ctx)
	})
	return ts
}

func waitForServer(t *testing.T, url string) {
	t.Helper()

	client := &http.Client{Timeout: 100 * time.Millisecond}
	deadline := time.Now().Add(5 * time.Second)

	for time.Now().Before(deadline) {
		resp, err := client.Get(url)
		if err == nil {
			_ = resp.Body.Close()
			if resp.StatusCode == http.StatusOK {
				return
			}
		}
		time.Sleep(50 * time.Millisecond)
	}

	t.Fatal("server did not become ready in time")
}

// Response types for JSON parsing
type cellResponse struct {
	Color string `json:"color"`
	Tier  int    `json:"tier"`
}

type boardResponse struct {
	ID       string            `json:"id"`
	Level    string            `json:"level"`
	Rows     int               `json:"rows"`
	Cols     int               `json:"cols"`
	Cells    [][]*cellResponse `json:"cells"`
	Playable bool              `json:"playable"`
}

type tapResponse struct {
	Outcome string        `json:"outcome"`
	Removed int           `json:"removed"`
	Columns []int         `json:"columns"`
	Board   boardResponse `json:"board"`
}

type errorResponse struct {
	Error struct {
		Code string `json:"code"`
	} `json:"error"`
}

type eventLine struct {
	Event string `json:"event"`
	Data  string `json:"data"`
}

func writeLevel(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "pairs.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		"rows": 2, "cols": 2, "colors": 4,
		"layout": [["red", "red"], ["green", "blue"]]
	}`), 0o600))
	return path
}

func TestCLI_HealthCheck(t *testing.T) {
	server := startTestServer(t)
	cli := newCLIRunner(t, server.url)

	output, err := cli.run("health")
	require.NoError(t, err, output)

	var health struct {
		Status string `json:"status"`
		Boards int    `json:"boards"`
	}
	require.NoError(t, json.Unmarshal([]byte(output), &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, 0, health.Boards)
}

func TestCLI_PlayStoredLevel(t *testing.T) {
	server := startTestServer(t)
	cli := newCLIRunner(t, server.url)

	output, err := cli.run("level", "put", "-f", writeLevel(t))
	require.NoError(t, err, output)

	output, err = cli.run("board", "create", "--level", "pairs", "--seed", "42")
	require.NoError(t, err, output)
	var board boardResponse
	require.NoError(t, json.Unmarshal([]byte(output), &board))
	require.NotEmpty(t, board.ID)
	assert.Equal(t, "pairs", board.Level)
	assert.Equal(t, "red", board.Cells[0][0].Color)

	// Watch the board before tapping so the removals are streamed
	events := cli.command("events", board.ID, "--json", "-n", "2")
	stdout, err := events.StdoutPipe()
	require.NoError(t, err)
	require.NoError(t, events.Start())
	require.Eventually(t, func() bool {
		hub := server.app.HubManager.GetHub(model.BoardID(board.ID))
		return hub != nil && hub.ClientCount() == 1
	}, 5*time.Second, 20*time.Millisecond)

	output, err = cli.run("board", "tap", board.ID, "0", "1")
	require.NoError(t, err, output)
	var tap tapResponse
	require.NoError(t, json.Unmarshal([]byte(output), &tap))
	assert.Equal(t, "matched", tap.Outcome)
	assert.Equal(t, 2, tap.Removed)
	assert.Equal(t, []int{0, 1}, tap.Columns)
	assert.True(t, tap.Board.Playable)

	var lines []eventLine
	scanner := bufio.NewScanner(stdout)
	for scanner.Scan() {
		var line eventLine
		require.NoError(t, json.Unmarshal(scanner.Bytes(), &line))
		lines = append(lines, line)
	}
	require.NoError(t, events.Wait())
	require.Len(t, lines, 2)
	for _, line := range lines {
		assert.Equal(t, "block_removed", line.Event)
		assert.True(t, strings.Contains(line.Data, `"color":"red"`), line.Data)
	}

	output, err = cli.run("board", "delete", board.ID)
	require.NoError(t, err, output)
}

func TestCLI_ErrorHandling(t *testing.T) {
	server := startTestServer(t)
	cli := newCLIRunner(t, server.url)

	output, err := cli.run("board", "get", "missing")
	require.Error(t, err)
	assert.Contains(t, output, "BOARD_NOT_FOUND")

	output, err = cli.run("board", "create", "--level", "missing")
	require.Error(t, err)
	assert.Contains(t, output, "LEVEL_NOT_FOUND")

	output, err = cli.run("board", "create", "--rows", "3", "--cols", "3")
	require.NoError(t, err, output)
	var board boardResponse
	require.NoError(t, json.Unmarshal([]byte(output), &board))

	output, err = cli.run("board", "tap", board.ID, "7", "7")
	require.Error(t, err)
	assert.Contains(t, output, "OUT_OF_BOUNDS")

	// The raw API reports the same code
	resp, err := http.Post(server.url+"/api/v1/boards/"+board.ID+"/tap", "application/json", strings.NewReader(`{"row": 7, "col": 7}`))
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	var apiErr errorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "OUT_OF_BOUNDS", apiErr.Error.Code)
}
