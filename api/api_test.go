// Copyright (c) 2025 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/api/middleware"
	"github.com/vechain/tokengrant/eventlog"
	"github.com/vechain/tokengrant/test/testledger"
)

func newAPIServer(t *testing.T, opts Options) (*testledger.Ledger, *httptest.Server) {
	tl, err := testledger.New()
	require.NoError(t, err)

	handler, closeAPI := New(tl.Ledger, opts)
	ts := httptest.NewServer(handler)
	t.Cleanup(func() {
		closeAPI()
		ts.Close()
		tl.Close()
	})
	return tl, ts
}

func httpGet(t *testing.T, url string) ([]byte, int) {
	res, err := http.Get(url) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func httpPost(t *testing.T, url string, obj any) ([]byte, int) {
	data, err := json.Marshal(obj)
	require.NoError(t, err)
	res, err := http.Post(url, "application/json", bytes.NewReader(data)) //#nosec G107
	require.NoError(t, err)
	defer res.Body.Close()
	body, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return body, res.StatusCode
}

func TestRoot(t *testing.T) {
	tl, ts := newAPIServer(t, Options{AllowedOrigins: "*"})

	res, err := http.Get(ts.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, tl.GenesisID().String(), res.Header.Get(GenesisIDHeader))
	assert.NotEmpty(t, res.Header.Get(middleware.RequestIDHeader))

	var info map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&info))
	assert.Equal(t, tl.GenesisID().String(), info["genesisId"])
	assert.Equal(t, float64(tl.Now()), info["now"])
}

func TestRoutesMounted(t *testing.T) {
	tl, ts := newAPIServer(t, Options{AllowedOrigins: "*"})
	grantee := tl.Account(2).Address

	for _, path := range []string{
		"/grantees/" + grantee.String() + "/balance",
		"/grantees/" + grantee.String() + "/grants",
		"/managers/" + grantee.String() + "/grants",
		"/staking/collaborators/" + grantee.String(),
		"/accounts/" + grantee.String(),
	} {
		res, code := httpGet(t, ts.URL+path)
		assert.Equal(t, http.StatusOK, code, "%s: %s", path, res)
	}

	_, code := httpGet(t, ts.URL+"/grants/1")
	assert.Equal(t, http.StatusNotFound, code)

	_, code = httpGet(t, ts.URL+"/debug/pprof/")
	assert.Equal(t, http.StatusNotFound, code)

	_, code = httpPost(t, ts.URL+"/grants/1/revoke", map[string]any{"caller": grantee})
	assert.Equal(t, http.StatusNotFound, code)

	_, code = httpPost(t, ts.URL+"/events", map[string]any{})
	assert.Equal(t, http.StatusNotFound, code)
}

func TestEventsMounted(t *testing.T) {
	db, err := eventlog.NewMem()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	tl, ts := newAPIServer(t, Options{AllowedOrigins: "*", EventLog: db, EventsLimit: 10})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	follower := db.Follow(tl)
	go func() { done <- follower.Run(ctx) }()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	_, err = tl.CreateGrant(tl.Account(1).Address, tl.Account(2).Address, uint256.NewInt(10), tl.Now(), 10, 0, true)
	require.NoError(t, err)

	assert.Eventually(t, func() bool {
		body, code := httpPost(t, ts.URL+"/events", map[string]any{"criteriaSet": []any{map[string]any{"grantId": 1}}})
		var fes []map[string]any
		return code == http.StatusOK && json.Unmarshal(body, &fes) == nil && len(fes) == 1
	}, 5*time.Second, 10*time.Millisecond)
}

func TestCORS(t *testing.T) {
	_, ts := newAPIServer(t, Options{AllowedOrigins: "http://allowed.example"})

	req, err := http.NewRequest(http.MethodOptions, ts.URL+"/grants", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://allowed.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "content-type")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "http://allowed.example", res.Header.Get("Access-Control-Allow-Origin"))

	req, err = http.NewRequest(http.MethodGet, ts.URL+"/", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "http://evil.example")
	res, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	res.Body.Close()
	assert.Empty(t, res.Header.Get("Access-Control-Allow-Origin"))
}
