// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"net"
	"net/http"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"
	"time"

	"github.com/beevik/ntp"
	"github.com/elastic/gosigar"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/fdlimit"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"

	"github.com/vechain/tokengrant/co"
	"github.com/vechain/tokengrant/eventlog"
	"github.com/vechain/tokengrant/genesis"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/log"
	"github.com/vechain/tokengrant/lvldb"
	"github.com/vechain/tokengrant/metrics"
	"github.com/vechain/tokengrant/thor"
)

const (
	// maximal offset tolerated between the local clock and NTP
	maxClockOffset  = 5 * time.Second
	clockSyncPeriod = 10 * time.Minute
	// request bodies larger than this are rejected
	maxRequestBodySize = 200 * 1024
)

func readIntFromUInt64Flag(val uint64) (int, error) {
	if val > math.MaxInt {
		return 0, fmt.Errorf("invalid value %d, must be <= %d", val, math.MaxInt)
	}
	return int(val), nil
}

func initLogger(lvl int, jsonLogs bool) *slog.LevelVar {
	var level slog.LevelVar
	level.Set(log.FromLegacyLevel(lvl))

	var handler slog.Handler
	if jsonLogs {
		handler = log.JSONHandlerWithLevel(os.Stderr, &level)
	} else {
		useColor := (isatty.IsTerminal(os.Stderr.Fd()) || isatty.IsCygwinTerminal(os.Stderr.Fd())) && os.Getenv("TERM") != "dumb"
		handler = log.NewTerminalHandlerWithLevel(os.Stderr, &level, useColor)
	}
	log.SetDefault(log.NewLogger(handler))
	return &level
}

func selectGenesis(path string) (*genesis.Genesis, error) {
	if path == "" {
		return genesis.NewDevnet(), nil
	}
	gene, err := genesis.Load(path)
	if err != nil {
		return nil, errors.Wrapf(err, "load genesis [%v]", path)
	}
	return gene, nil
}

func makeInstanceDir(dataDir string, gene *genesis.Genesis) (string, error) {
	if dataDir == "" {
		return "", fmt.Errorf("unable to infer default data dir, use -%s to specify", dataDirFlag.Name)
	}
	instanceDir := filepath.Join(dataDir, fmt.Sprintf("instance-%x", gene.ID().Bytes()[24:]))
	if err := os.MkdirAll(instanceDir, 0o700); err != nil {
		return "", errors.Wrapf(err, "create instance dir [%v]", instanceDir)
	}
	return instanceDir, nil
}

func openMainDB(instanceDir string, cacheMB int) (*lvldb.LevelDB, error) {
	cacheMB = normalizeCacheSize(cacheMB)
	logger.Debug("cache size(MB)", "size", cacheMB)

	fdCache := suggestFDCache()
	logger.Debug("fd cache", "n", fdCache)

	dir := filepath.Join(instanceDir, "main.db")
	db, err := lvldb.New(dir, lvldb.Options{
		CacheSize:              cacheMB / 2,
		OpenFilesCacheCapacity: fdCache,
	})
	if err != nil {
		return nil, errors.Wrapf(err, "open ledger database [%v]", dir)
	}
	return db, nil
}

func normalizeCacheSize(sizeMB int) int {
	if sizeMB < 16 {
		sizeMB = 16
	}

	var mem gosigar.Mem
	if err := mem.Get(); err != nil {
		logger.Warn("failed to get total mem:", "err", err)
	} else {
		// limit to 1/2 os physical ram
		limitMB := int(mem.Total / 1024 / 1024 / 2)
		if sizeMB > limitMB {
			sizeMB = limitMB
			logger.Warn("cache size(MB) limited", "limit", limitMB)
		}
	}
	return sizeMB
}

// openEventLog opens the event log next to the ledger database, or in memory.
func openEventLog(instanceDir string, inMemory bool) (*eventlog.EventLog, error) {
	if inMemory {
		return eventlog.NewMem()
	}
	path := filepath.Join(instanceDir, "events.db")
	db, err := eventlog.New(path)
	if err != nil {
		return nil, errors.Wrapf(err, "open event log [%v]", path)
	}
	return db, nil
}

// followEventLog copies committed ledger events into db until ctx is done.
func followEventLog(ctx context.Context, follower *eventlog.Follower) {
	logger.Info("event log follower started")
	defer logger.Info("event log follower stopped")

	if err := follower.Run(ctx); err != nil {
		logger.Error("event log follower failed", "err", err)
	}
}

// ledgerCacheSize turns the half of the cache left to the ledger into storage slots.
func ledgerCacheSize(cacheMB int) int {
	return normalizeCacheSize(cacheMB) / 2 * 1024 * 1024 / 128
}

func suggestFDCache() int {
	limit, err := fdlimit.Current()
	if err != nil {
		logger.Warn("failed to get fd limit", "err", err)
		return 64
	}
	if limit <= 1024 {
		logger.Warn("low fd limit, increase it if possible", "limit", limit)
	}

	n := limit / 2
	if n > 5120 {
		return 5120
	}
	return n
}

// handleAPITimeout bounds the request context, websocket upgrades are left alone.
func handleAPITimeout(h http.Handler, timeout time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.EqualFold(r.Header.Get("Upgrade"), "websocket") {
			h.ServeHTTP(w, r)
			return
		}
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		h.ServeHTTP(w, r.WithContext(ctx))
	})
}

func requestBodyLimit(h http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)
		h.ServeHTTP(w, r)
	})
}

// isLoopbackAddr reports whether a listen address only accepts local connections.
func isLoopbackAddr(addr string) bool {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		return false
	}
	if strings.EqualFold(host, "localhost") {
		return true
	}
	ip := net.ParseIP(host)
	return ip != nil && ip.IsLoopback()
}

func startAPIServer(addr string, handler http.Handler, timeout time.Duration) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen API addr [%v]", addr)
	}
	if timeout > 0 {
		handler = handleAPITimeout(handler, timeout)
	}
	handler = requestBodyLimit(handler)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

func startMetricsServer(addr string) (string, func(), error) {
	listener, err := net.Listen("tcp", addr)
	if err != nil {
		return "", nil, errors.Wrapf(err, "listen metrics API addr [%v]", addr)
	}

	router := mux.NewRouter()
	router.PathPrefix("/metrics").Handler(metrics.HTTPHandler())
	handler := handlers.CompressHandler(router)

	srv := &http.Server{Handler: handler, ReadHeaderTimeout: time.Second, ReadTimeout: 5 * time.Second}
	var goes co.Goes
	goes.Go(func() {
		srv.Serve(listener)
	})
	return "http://" + listener.Addr().String() + "/metrics", func() {
		srv.Close()
		goes.Wait()
	}, nil
}

// handleExitSignal returns a context canceled on the first interrupt or terminate signal.
func handleExitSignal() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		exitSignalCh := make(chan os.Signal, 1)
		signal.Notify(exitSignalCh, os.Interrupt, syscall.SIGTERM)

		sig := <-exitSignalCh
		logger.Info("exit signal received", "signal", sig)
		cancel()
	}()
	return ctx
}

// clockSyncLoop warns when the local clock drifts, since vesting is computed from it.
func clockSyncLoop(ctx context.Context) {
	ticker := time.NewTicker(clockSyncPeriod)
	defer ticker.Stop()

	checkClockOffset()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			checkClockOffset()
		}
	}
}

func checkClockOffset() {
	resp, err := ntp.Query("pool.ntp.org")
	if err != nil {
		logger.Debug("failed to access NTP", "err", err)
		return
	}
	if resp.ClockOffset > maxClockOffset || resp.ClockOffset < -maxClockOffset {
		logger.Warn("clock offset detected", "offset", common.PrettyDuration(resp.ClockOffset))
	}
}

func printStartupMessage(gene *genesis.Genesis, ldg *ledger.Ledger, instanceDir string, apiURL string) {
	info := fmt.Sprintf(`Starting grantd %v
    Genesis      [ %v %v ]
    Launch time  [ %v ]
    Ledger time  [ %v ]
    Instance dir [ %v ]
    API portal   [ %v ]
`,
		fullVersion(),
		gene.ID(), gene.Name(),
		time.Unix(int64(gene.LaunchTime()), 0),
		time.Unix(int64(ldg.Now()), 0),
		instanceDir,
		apiURL)

	if gene.Name() == "devnet" {
		info += "    Dev accounts\n"
		for _, a := range genesis.DevAccounts() {
			info += fmt.Sprintf("      %v %v\n", a.Address, thor.BytesToBytes32(crypto.FromECDSA(a.PrivateKey)))
		}
	}
	fmt.Print(info)
}

// copy from go-ethereum
func defaultDataDir() string {
	// Try to place the data folder in the user's home dir
	if home := homeDir(); home != "" {
		if runtime.GOOS == "darwin" {
			return filepath.Join(home, "Library", "Application Support", "org.vechain.tokengrant")
		} else if runtime.GOOS == "windows" {
			return filepath.Join(home, "AppData", "Roaming", "org.vechain.tokengrant")
		}
		return filepath.Join(home, ".org.vechain.tokengrant")
	}
	// As we cannot guess a stable location, return empty and handle later
	return ""
}

func homeDir() string {
	if home := os.Getenv("HOME"); home != "" {
		return home
	}
	if usr, err := user.Current(); err == nil {
		return usr.HomeDir
	}
	return ""
}
