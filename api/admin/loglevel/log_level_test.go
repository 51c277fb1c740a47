// Copyright (c) 2024 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package loglevel

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vechain/tokengrant/log"
)

func TestLogLevel(t *testing.T) {
	tests := []struct {
		name      string
		method    string
		body      string
		wantCode  int
		wantLevel slog.Level
		wantErr   string
	}{
		{"get", http.MethodGet, "", http.StatusOK, log.LevelInfo, ""},
		{"debug", http.MethodPost, `{"level":"debug"}`, http.StatusOK, log.LevelDebug, ""},
		{"trace", http.MethodPost, `{"level":"trace"}`, http.StatusOK, log.LevelTrace, ""},
		{"case insensitive", http.MethodPost, `{"level":" WARN "}`, http.StatusOK, log.LevelWarn, ""},
		{"crit", http.MethodPost, `{"level":"crit"}`, http.StatusOK, log.LevelCrit, ""},
		{"unknown level", http.MethodPost, `{"level":"verbose"}`, http.StatusBadRequest, log.LevelInfo, `level: unknown "verbose"`},
		{"unknown field", http.MethodPost, `{"verbosity":"debug"}`, http.StatusBadRequest, log.LevelInfo, `body: json: unknown field "verbosity"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var level slog.LevelVar
			level.Set(log.LevelInfo)

			router := mux.NewRouter()
			New(&level).Mount(router, "/admin/loglevel")
			rr := httptest.NewRecorder()
			router.ServeHTTP(rr, httptest.NewRequest(tt.method, "/admin/loglevel", strings.NewReader(tt.body)))

			assert.Equal(t, tt.wantCode, rr.Code)
			assert.Equal(t, tt.wantLevel, level.Level())
			if tt.wantErr != "" {
				assert.Equal(t, tt.wantErr, strings.TrimSpace(rr.Body.String()))
				return
			}
			var resp Response
			require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
			assert.Equal(t, log.LevelString(tt.wantLevel), resp.CurrentLevel)
		})
	}
}

func TestLogLevelAppliesToHandlers(t *testing.T) {
	var level slog.LevelVar
	level.Set(log.LevelInfo)
	var buf bytes.Buffer
	logger := log.NewLogger(log.JSONHandlerWithLevel(&buf, &level))

	router := mux.NewRouter()
	New(&level).Mount(router, "/admin/loglevel")

	logger.Debug("before")
	assert.Empty(t, buf.String())

	rr := httptest.NewRecorder()
	router.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/admin/loglevel", strings.NewReader(`{"level":"debug"}`)))
	require.Equal(t, http.StatusOK, rr.Code)

	logger.Debug("after")
	assert.Contains(t, buf.String(), `"msg":"after"`)
}
