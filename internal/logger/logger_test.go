package logger

import (
	"bytes"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingHub struct {
	mu    sync.Mutex
	types []string
}

func (h *recordingHub) Broadcast(msgType string, _ interface{}) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.types = append(h.types, msgType)
	return nil
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"trace", zerolog.TraceLevel},
		{"DEBUG", zerolog.DebugLevel},
		{"warning", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"", zerolog.InfoLevel},
		{"bogus", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		if got := ParseLevel(tt.in); got != tt.want {
			t.Errorf("ParseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestNew_WritesFileAndBroadcaster(t *testing.T) {
	dir := t.TempDir()
	var console bytes.Buffer
	hub := &recordingHub{}
	b := NewLogBroadcaster(hub, 10)

	log := New(Config{Level: "info", Format: "json", Path: dir, Output: &console}, b)
	catalogLog := log.WithComponent("catalog")
	catalogLog.Info().Int("folders", 3).Msg("Catalog rebuilt")
	log.Debug().Msg("hidden")
	require.NoError(t, log.Close())

	assert.Contains(t, console.String(), `"message":"Catalog rebuilt"`)
	assert.NotContains(t, console.String(), "hidden")

	data, err := os.ReadFile(filepath.Join(dir, FileName))
	require.NoError(t, err)
	assert.Contains(t, string(data), "Catalog rebuilt")

	entries := b.GetRecentLogs()
	require.Len(t, entries, 1)
	assert.Equal(t, "info", entries[0].Level)
	assert.Equal(t, "catalog", entries[0].Component)
	assert.Equal(t, "Catalog rebuilt", entries[0].Message)
	assert.EqualValues(t, 3, entries[0].Fields["folders"])
	assert.Equal(t, []string{"logs:entry"}, hub.types)
}

func TestLogBroadcaster_Recent(t *testing.T) {
	b := NewLogBroadcaster(nil, 10)
	for _, line := range []string{
		`{"level":"debug","message":"one"}`,
		`{"level":"warn","message":"two"}`,
		`{"level":"error","message":"three"}`,
		`not json`,
		`{"level":"info","message":"four"}`,
	} {
		_, err := b.Write([]byte(line))
		require.NoError(t, err)
	}

	all := b.Recent("", 0)
	require.Len(t, all, 4)

	warn := b.Recent("warn", 0)
	require.Len(t, warn, 2)
	assert.Equal(t, "two", warn[0].Message)

	last := b.Recent("", 2)
	require.Len(t, last, 2)
	assert.Equal(t, "three", last[0].Message)
	assert.Equal(t, "four", last[1].Message)
}

func TestRingBuffer(t *testing.T) {
	r := NewRingBuffer[int](3)
	for i := 1; i <= 5; i++ {
		r.Push(i)
	}
	assert.Equal(t, []int{3, 4, 5}, r.GetAll())
	assert.Equal(t, 3, r.Len())

	r.Clear()
	assert.Empty(t, r.GetAll())
}

func TestRingBuffer_Tail(t *testing.T) {
	r := NewRingBuffer[int](4)
	assert.Empty(t, r.Tail(2, nil))

	for i := 1; i <= 6; i++ {
		r.Push(i)
	}
	even := func(n int) bool { return n%2 == 0 }

	assert.Equal(t, []int{5, 6}, r.Tail(2, nil))
	assert.Equal(t, []int{3, 4, 5, 6}, r.Tail(0, nil))
	assert.Equal(t, []int{4, 6}, r.Tail(0, even))
	assert.Equal(t, []int{6}, r.Tail(1, even))
}
