// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/elastic/gosigar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/genesis"
)

func TestReadIntFromUInt64Flag_WithinRange(t *testing.T) {
	got, err := readIntFromUInt64Flag(42)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != 42 {
		t.Fatalf("want 42, got %d", got)
	}
}

func TestReadIntFromUInt64Flag_MaxInt(t *testing.T) {
	val := uint64(math.MaxInt)
	got, err := readIntFromUInt64Flag(val)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != int(val) {
		t.Fatalf("want %d, got %d", val, got)
	}
}

func TestReadIntFromUInt64Flag_TooLarge(t *testing.T) {
	val := uint64(math.MaxInt) + 1
	if _, err := readIntFromUInt64Flag(val); err == nil {
		t.Fatalf("expected error for value > MaxInt")
	}
}

func TestSelectGenesis(t *testing.T) {
	gene, err := selectGenesis("")
	require.NoError(t, err)
	assert.Equal(t, genesis.NewDevnet().ID(), gene.ID())

	path := filepath.Join(t.TempDir(), "genesis.yaml")
	doc := `name: custom
launchTime: 1700000000
stakingAdmin: "0x7567d83b7b8d80addcb281a71d54fc7b3364ffed"
accounts:
  - address: "0xd3ae78222beadb038203be21ed5ce7c9b1bff602"
    balance: "0x3635c9adc5dea00000"
`
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o600))
	gene, err = selectGenesis(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", gene.Name())
	assert.Equal(t, uint64(1700000000), gene.LaunchTime())

	_, err = selectGenesis(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.ErrorContains(t, err, "load genesis")
}

func TestMakeInstanceDir(t *testing.T) {
	gene := genesis.NewDevnet()
	dir, err := makeInstanceDir(t.TempDir(), gene)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(filepath.Base(dir), "instance-"))

	info, err := os.Stat(dir)
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	_, err = makeInstanceDir("", gene)
	assert.Error(t, err)
}

func TestOpenMainDB(t *testing.T) {
	db, err := openMainDB(t.TempDir(), 16)
	require.NoError(t, err)
	defer db.Close()

	require.NoError(t, db.Put([]byte("k"), []byte("v")))
	v, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), v)
}

func TestCacheSize(t *testing.T) {
	assert.Equal(t, 16, normalizeCacheSize(0))
	assert.Equal(t, 256, normalizeCacheSize(256))
	assert.Equal(t, 128*1024*1024/128, ledgerCacheSize(256))

	var mem gosigar.Mem
	require.NoError(t, mem.Get())
	limitMB := int(mem.Total / 1024 / 1024 / 2)
	assert.Equal(t, limitMB, normalizeCacheSize(limitMB*4))
}

func TestOpenEventLog(t *testing.T) {
	db, err := openEventLog("", true)
	require.NoError(t, err)
	assert.Equal(t, ":memory:", db.Path())
	require.NoError(t, db.Close())

	dir := t.TempDir()
	db, err = openEventLog(dir, false)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "events.db"), db.Path())
	require.NoError(t, db.Close())
	assert.FileExists(t, filepath.Join(dir, "events.db"))
}

func TestHandleAPITimeout(t *testing.T) {
	var deadline time.Time
	var hasDeadline bool
	h := handleAPITimeout(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		deadline, hasDeadline = r.Context().Deadline()
	}), time.Second)

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/grants/1", nil))
	assert.True(t, hasDeadline)
	assert.WithinDuration(t, time.Now().Add(time.Second), deadline, time.Second)

	req := httptest.NewRequest(http.MethodGet, "/subscriptions/grant", nil)
	req.Header.Set("Upgrade", "websocket")
	h.ServeHTTP(httptest.NewRecorder(), req)
	assert.False(t, hasDeadline)
}

func TestRequestBodyLimit(t *testing.T) {
	var readErr error
	h := requestBodyLimit(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/grants", strings.NewReader("{}")))
	assert.NoError(t, readErr)

	big := strings.Repeat("x", maxRequestBodySize+1)
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/grants", strings.NewReader(big)))
	assert.Error(t, readErr)
}

func TestIsLoopbackAddr(t *testing.T) {
	tests := []struct {
		addr string
		want bool
	}{
		{"localhost:8669", true},
		{"127.0.0.1:8669", true},
		{"[::1]:8669", true},
		{":8669", false},
		{"0.0.0.0:8669", false},
		{"10.0.0.5:8669", false},
		{"localhost", false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, isLoopbackAddr(tt.addr), tt.addr)
	}
}

func TestStartAPIServer(t *testing.T) {
	url, closeFunc, err := startAPIServer("127.0.0.1:0", http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}), time.Second)
	require.NoError(t, err)
	defer closeFunc()

	res, err := http.Get(url)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusTeapot, res.StatusCode)
}

func TestClockSyncLoopStops(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan struct{})
	go func() {
		// the first check may hit the network, it only logs on failure
		clockSyncLoop(ctx)
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(30 * time.Second):
		t.Fatal("clock sync loop did not stop")
	}
}
