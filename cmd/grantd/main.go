// Copyright (c) 2018 The VeChainThor developers

// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

// grantd serves a token grant ledger over HTTP.
package main

import (
	"context"
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	cli "gopkg.in/urfave/cli.v1"

	"github.com/vechain/tokengrant/api"
	"github.com/vechain/tokengrant/co"
	"github.com/vechain/tokengrant/eventlog"
	"github.com/vechain/tokengrant/ledger"
	"github.com/vechain/tokengrant/log"
	"github.com/vechain/tokengrant/lvldb"
	"github.com/vechain/tokengrant/metrics"
)

var (
	version       string
	gitCommit     string
	gitTag        string
	copyrightYear string

	logger = log.WithContext("pkg", "grantd")
)

func fullVersion() string {
	versionMeta := "release"
	if gitTag == "" {
		versionMeta = "dev"
	}
	return fmt.Sprintf("%s-%s-%s", version, gitCommit, versionMeta)
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Version = fullVersion()
	app.Name = "grantd"
	app.Usage = "Token grant ledger with linear vesting"
	app.Description = `The API does not authenticate callers. Grant managers, revoke
   callers and token senders are taken from the request itself, so any client
   that reaches the API address can act for any account. Keep the API on a
   loopback address, or behind a proxy that authenticates, outside of devnets.`
	app.Copyright = fmt.Sprintf("2018-%s VeChain Foundation <https://vechain.org/>", copyrightYear)
	app.Flags = []cli.Flag{
		genesisFlag,
		dataDirFlag,
		persistFlag,
		cacheFlag,
		apiAddrFlag,
		apiCorsFlag,
		apiTimeoutFlag,
		enableAPILogsFlag,
		apiSlowQueriesThresholdFlag,
		apiLog5xxErrorsFlag,
		pprofFlag,
		verbosityFlag,
		jsonLogsFlag,
		enableMetricsFlag,
		metricsAddrFlag,
		enableAdminFlag,
		adminAddrFlag,
		skipEventLogFlag,
		apiEventsLimitFlag,
		skipNTPFlag,
	}
	app.Action = action
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func action(ctx *cli.Context) error {
	exitSignal := handleExitSignal()
	defer func() { logger.Info("exited") }()

	lvl, err := readIntFromUInt64Flag(ctx.Uint64(verbosityFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse verbosity flag")
	}
	logLevel := initLogger(lvl, ctx.Bool(jsonLogsFlag.Name))

	gene, err := selectGenesis(ctx.String(genesisFlag.Name))
	if err != nil {
		return err
	}

	cacheMB, err := readIntFromUInt64Flag(ctx.Uint64(cacheFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse cache flag")
	}

	var (
		mainDB      *lvldb.LevelDB
		instanceDir = "Memory"
		persistent  = ctx.String(genesisFlag.Name) != "" || ctx.Bool(persistFlag.Name)
	)
	if persistent {
		if instanceDir, err = makeInstanceDir(ctx.String(dataDirFlag.Name), gene); err != nil {
			return err
		}
		if mainDB, err = openMainDB(instanceDir, cacheMB); err != nil {
			return err
		}
	} else if mainDB, err = lvldb.NewMem(); err != nil {
		return errors.Wrap(err, "open memory database")
	}
	defer func() { logger.Info("closing main database..."); mainDB.Close() }()

	ldg, err := ledger.New(mainDB, gene, ledger.Options{CacheSize: ledgerCacheSize(cacheMB)})
	if err != nil {
		return err
	}
	defer ldg.Close()

	var (
		goes     co.Goes
		eventLog *eventlog.EventLog
	)
	if !ctx.Bool(skipEventLogFlag.Name) {
		if eventLog, err = openEventLog(instanceDir, !persistent); err != nil {
			return err
		}
		defer func() { logger.Info("closing event log..."); eventLog.Close() }()

		follower := eventLog.Follow(ldg)
		followCtx, stopFollow := context.WithCancel(exitSignal)
		goes.Go(func() { followEventLog(followCtx, follower) })
		defer func() { stopFollow(); goes.Wait() }()
	}

	if ctx.Bool(enableMetricsFlag.Name) {
		metrics.InitializePrometheusMetrics()
		url, closeFunc, err := startMetricsServer(ctx.String(metricsAddrFlag.Name))
		if err != nil {
			return errors.Wrap(err, "start metrics server")
		}
		defer func() { logger.Info("stopping metrics server..."); closeFunc() }()
		logger.Info("metrics server started", "url", url)
	}

	apiLogs := &atomic.Bool{}
	apiLogs.Store(ctx.Bool(enableAPILogsFlag.Name))

	if ctx.Bool(enableAdminFlag.Name) {
		url, closeFunc, err := api.StartAdminServer(ctx.String(adminAddrFlag.Name), logLevel, apiLogs)
		if err != nil {
			return errors.Wrap(err, "start admin server")
		}
		defer func() { logger.Info("stopping admin server..."); closeFunc() }()
		logger.Info("admin server started", "url", url)
	}

	slowQueriesThreshold, err := readIntFromUInt64Flag(ctx.Uint64(apiSlowQueriesThresholdFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse slow queries threshold flag")
	}
	apiHandler, apiCloser := api.New(ldg, api.Options{
		AllowedOrigins:       ctx.String(apiCorsFlag.Name),
		PprofOn:              ctx.Bool(pprofFlag.Name),
		EnableReqLogger:      apiLogs,
		SlowQueriesThreshold: time.Duration(slowQueriesThreshold) * time.Millisecond,
		Log5xxErrors:         ctx.Bool(apiLog5xxErrorsFlag.Name),
		EnableMetrics:        ctx.Bool(enableMetricsFlag.Name),
		EventLog:             eventLog,
		EventsLimit:          ctx.Uint64(apiEventsLimitFlag.Name),
	})
	defer func() { logger.Info("closing API..."); apiCloser() }()

	timeout, err := readIntFromUInt64Flag(ctx.Uint64(apiTimeoutFlag.Name))
	if err != nil {
		return errors.Wrap(err, "parse api timeout flag")
	}
	if apiAddr := ctx.String(apiAddrFlag.Name); !isLoopbackAddr(apiAddr) {
		logger.Warn("API is exposed without authentication, any client can act for any account", "addr", apiAddr)
	}
	apiURL, srvCloser, err := startAPIServer(ctx.String(apiAddrFlag.Name), apiHandler, time.Duration(timeout)*time.Millisecond)
	if err != nil {
		return err
	}
	defer func() { logger.Info("stopping API server..."); srvCloser() }()

	printStartupMessage(gene, ldg, instanceDir, apiURL)

	if !ctx.Bool(skipNTPFlag.Name) {
		goes.GoContext(exitSignal, clockSyncLoop)
	}

	<-exitSignal.Done()
	if !goes.WaitTimeout(5 * time.Second) {
		logger.Warn("background routines did not stop in time")
	}
	return nil
}
