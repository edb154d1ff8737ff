package sse

import (
	"slices"
	"testing"
	"time"

	"github.com/mcoot/blockmatch/internal/testutil"
)

func TestFormatSSEMessage(t *testing.T) {
	tests := []struct {
		name      string
		id        uint64
		eventName string
		data      string
		expected  string
	}{
		{
			name:      "single line data",
			id:        1,
			eventName: "block_removed",
			data:      `{"type":"block_removed"}`,
			expected:  "id: 1\nevent: block_removed\ndata: {\"type\":\"block_removed\"}\n\n",
		},
		{
			name:      "multi-line data",
			id:        7,
			eventName: "grid",
			data:      "RG\nBY",
			expected:  "id: 7\nevent: grid\ndata: RG\ndata: BY\n\n",
		},
		{
			name:      "empty data",
			id:        2,
			eventName: "ping",
			data:      "",
			expected:  "id: 2\nevent: ping\ndata: \n\n",
		},
		{
			name:      "data with carriage returns",
			id:        3,
			eventName: "test",
			data:      "line1\r\nline2",
			expected:  "id: 3\nevent: test\ndata: line1\ndata: line2\n\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := formatSSEMessage(tt.id, tt.eventName, tt.data)
			if string(result) != tt.expected {
				t.Errorf("formatSSEMessage(%d, %q, %q)\ngot:  %q\nwant: %q",
					tt.id, tt.eventName, tt.data, string(result), tt.expected)
			}
		})
	}
}

func TestSplitLines(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []string
	}{
		{name: "single line", input: "hello", expected: []string{"hello"}},
		{name: "two lines", input: "line1\nline2", expected: []string{"line1", "line2"}},
		{name: "trailing newline", input: "line1\n", expected: []string{"line1"}},
		{name: "empty string", input: "", expected: []string{""}},
		{name: "crlf line endings", input: "line1\r\nline2\r\n", expected: []string{"line1", "line2"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := splitLines(tt.input)
			if len(result) != len(tt.expected) {
				t.Errorf("splitLines(%q) returned %d lines, want %d", tt.input, len(result), len(tt.expected))
				return
			}
			for i, line := range result {
				if line != tt.expected[i] {
					t.Errorf("splitLines(%q)[%d] = %q, want %q", tt.input, i, line, tt.expected[i])
				}
			}
		})
	}
}

func waitForClients(t *testing.T, hub *Hub, want int) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for hub.ClientCount() != want {
		if time.Now().After(deadline) {
			t.Fatalf("ClientCount() = %d, want %d", hub.ClientCount(), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receive(t *testing.T, client *Client) string {
	t.Helper()
	select {
	case msg, ok := <-client.send:
		if !ok {
			t.Fatal("client channel closed")
		}
		return string(msg)
	case <-time.After(time.Second):
		t.Fatal("client did not receive message")
	}
	return ""
}

func TestHub_RegisterAndBroadcast(t *testing.T) {
	hub := NewHub("board1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "127.0.0.1")
	if !hub.Register(client) {
		t.Fatal("Register() = false on open hub")
	}
	waitForClients(t, hub, 1)

	hub.BroadcastEvent("first", "a")
	hub.BroadcastEvent("second", "b")

	if got := receive(t, client); got != "id: 1\nevent: first\ndata: a\n\n" {
		t.Errorf("first message = %q", got)
	}
	if got := receive(t, client); got != "id: 2\nevent: second\ndata: b\n\n" {
		t.Errorf("second message = %q", got)
	}
}

func TestHub_Unregister(t *testing.T) {
	hub := NewHub("board1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	client := NewClient(hub, "127.0.0.1")
	hub.Register(client)
	waitForClients(t, hub, 1)

	hub.Unregister(client)
	waitForClients(t, hub, 0)

	if _, ok := <-client.send; ok {
		t.Error("client channel still open after unregister")
	}
}

func TestHub_BroadcastToMultipleClients(t *testing.T) {
	hub := NewHub("board1", testutil.NopLogger())
	go hub.Run()
	defer hub.Close()

	clients := []*Client{
		NewClient(hub, "a"),
		NewClient(hub, "b"),
		NewClient(hub, "c"),
	}
	for _, c := range clients {
		hub.Register(c)
	}
	waitForClients(t, hub, 3)

	hub.BroadcastEvent("update", "data")

	for i, c := range clients {
		if got := receive(t, c); got != "id: 1\nevent: update\ndata: data\n\n" {
			t.Errorf("client %d received %q", i, got)
		}
	}
}

func TestHub_RegisterAfterClose(t *testing.T) {
	hub := NewHub("board1", testutil.NopLogger())
	go hub.Run()
	hub.Close()
	hub.Close()

	if hub.Register(NewClient(hub, "late")) {
		t.Error("Register() = true on closed hub")
	}
	hub.Unregister(NewClient(hub, "late"))
}

func TestHubManager_GetOrCreateHub(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	hub1 := manager.GetOrCreateHub("abc")
	hub2 := manager.GetOrCreateHub("abc")
	if hub1 != hub2 {
		t.Error("GetOrCreateHub() returned different hubs for the same board")
	}
	if manager.GetHub("other") != nil {
		t.Error("GetHub() returned a hub for an unwatched board")
	}
}

func TestHubManager_RemoveAndCleanup(t *testing.T) {
	manager := NewHubManager(testutil.NopLogger())
	defer manager.Close()

	manager.GetOrCreateHub("gone")
	manager.RemoveHub("gone")
	if manager.GetHub("gone") != nil {
		t.Error("hub still present after RemoveHub()")
	}

	manager.GetOrCreateHub("empty")
	manager.CleanupEmptyHubs()
	if manager.GetHub("empty") != nil {
		t.Error("empty hub survived CleanupEmptyHubs()")
	}
}

func TestHub_CloseFlushesQueuedMessages(t *testing.T) {
	for range 50 {
		hub := NewHub("board1", testutil.NopLogger())
		go hub.Run()
		client := NewClient(hub, "test")
		if !hub.Register(client) {
			t.Fatal("Register() = false on an open hub")
		}
		waitForClients(t, hub, 1)

		hub.BroadcastEvent("first", "1")
		hub.BroadcastEvent("second", "2")
		hub.Close()

		var frames []string
		for frame := range client.send {
			frames = append(frames, string(frame))
		}
		want := []string{
			"id: 1\nevent: first\ndata: 1\n\n",
			"id: 2\nevent: second\ndata: 2\n\n",
		}
		if !slices.Equal(frames, want) {
			t.Fatalf("frames = %q, want %q", frames, want)
		}
	}
}
