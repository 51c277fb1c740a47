// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package api

import (
	"net/http"
	"net/http/pprof"
	"strings"
	"sync/atomic"
	"time"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"github.com/vechain/tokengrant/api/accounts"
	"github.com/vechain/tokengrant/api/events"
	"github.com/vechain/tokengrant/api/grants"
	"github.com/vechain/tokengrant/api/middleware"
	"github.com/vechain/tokengrant/api/staking"
	"github.com/vechain/tokengrant/api/subscriptions"
	"github.com/vechain/tokengrant/api/utils"
	"github.com/vechain/tokengrant/eventlog"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/log"
)

var logger = log.WithContext("pkg", "api")

// GenesisIDHeader is set on every response, so clients can tell ledgers apart.
const GenesisIDHeader = "X-Genesis-Id"

type Options struct {
	AllowedOrigins       string
	PprofOn              bool
	EnableReqLogger      *atomic.Bool
	SlowQueriesThreshold time.Duration
	Log5xxErrors         bool
	EnableMetrics        bool
	EventLog             *eventlog.EventLog // nil leaves /events unmounted
	EventsLimit          uint64
}

// New return api router
func New(ledger *ledger.Ledger, opts Options) (http.HandlerFunc, func()) {
	origins := strings.Split(strings.TrimSpace(opts.AllowedOrigins), ",")
	for i, o := range origins {
		origins[i] = strings.ToLower(strings.TrimSpace(o))
	}

	router := mux.NewRouter()

	router.Path("/").
		Methods(http.MethodGet).
		Name("GET /").
		HandlerFunc(utils.WrapHandlerFunc(func(w http.ResponseWriter, _ *http.Request) error {
			return utils.WriteJSON(w, utils.M{
				"genesisId": ledger.GenesisID().String(),
				"now":       ledger.Now(),
			})
		}))

	g := grants.New(ledger)
	g.Mount(router, "/grants")
	g.MountGrantees(router, "/grantees")
	g.MountManagers(router, "/managers")
	staking.New(ledger).
		Mount(router, "/staking")
	accounts.New(ledger).
		Mount(router, "/accounts")
	if opts.EventLog != nil {
		events.New(opts.EventLog, opts.EventsLimit).
			Mount(router, "/events")
	}
	subs := subscriptions.New(ledger, origins)
	subs.Mount(router, "/subscriptions")

	if opts.PprofOn {
		router.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
		router.HandleFunc("/debug/pprof/profile", pprof.Profile)
		router.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
		router.HandleFunc("/debug/pprof/trace", pprof.Trace)
		router.PathPrefix("/debug/pprof/").HandlerFunc(pprof.Index)
	}

	if opts.EnableMetrics {
		router.Use(metricsMiddleware)
	}

	genesisID := ledger.GenesisID().String()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set(GenesisIDHeader, genesisID)
			next.ServeHTTP(w, r)
		})
	})

	handler := handlers.CompressHandler(router)
	handler = handlers.CORS(
		handlers.AllowedOrigins(origins),
		handlers.AllowedHeaders([]string{"content-type", "x-genesis-id", "x-request-id"}),
		handlers.ExposedHeaders([]string{"x-genesis-id", "x-request-id"}),
	)(handler)

	enabled := opts.EnableReqLogger
	if enabled == nil {
		enabled = &atomic.Bool{}
	}
	handler = middleware.RequestLoggerMiddleware(logger, enabled, opts.SlowQueriesThreshold, opts.Log5xxErrors)(handler)

	return handler.ServeHTTP, subs.Close // subscriptions handles hijacked conns, which need to be closed
}
