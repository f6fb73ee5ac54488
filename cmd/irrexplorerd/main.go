// Command irrexplorerd runs the IRR Explorer daemon: it loads the
// configured set of IRR databases, starts one worker per database plus
// the BGP and RIPE-Auth workers, and serves the JSON HTTP surface.
package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"irrexplorer/pkg/bgpsnapshot"
	"irrexplorer/pkg/config"
	"irrexplorer/pkg/httpapi"
	"irrexplorer/pkg/nrtm"
	"irrexplorer/pkg/report"
	"irrexplorer/pkg/ripesnapshot"
	"irrexplorer/pkg/worker"
)

const (
	readyTimeout    = 30 * time.Second
	bgpRefresh      = 5 * time.Minute
	ripeAuthRefresh = time.Hour
	ripeDBName      = "ripe"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	configPath := flag.String("config", "irrexplorer.yaml", "path to the YAML configuration file")
	addr := flag.String("addr", ":8080", "HTTP listen address")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("path", *configPath).Msg("failed to load configuration")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	registry := worker.NewRegistry()
	started := time.Now()

	// Shared across every DB worker's initial connect so a burst of
	// simultaneous (re)connects at startup doesn't hammer a single
	// upstream NRTM host.
	connectLimiter := rate.NewLimiter(rate.Every(time.Second), 1)

	for _, db := range cfg.Databases {
		w := worker.NewDBWorker(db.Name, db.FamilyFilter, db.SerialFile, log.Logger)
		// A real deployment plugs a live NRTM session into connect; an
		// empty replay stream keeps the worker queryable, just
		// permanently empty, until one is wired in. Routing it through
		// ConnectWithBackoff means swapping in the live dialer later
		// doesn't require touching the startup/retry plumbing.
		stream, err := nrtm.ConnectWithBackoff(ctx, connectLimiter, nrtm.DefaultBackoffConfig(), func() (nrtm.Stream, error) {
			return nrtm.NewReplay(nil), nil
		})
		if err != nil {
			log.Fatal().Err(err).Str("db", db.Name).Msg("failed to connect NRTM stream")
		}
		w.Start(ctx, stream)
		registry.AddDB(w)
		log.Info().Str("db", db.Name).Msg("started IRR database worker")
	}

	bgpWorker := worker.NewBGPWorker("bgp", bgpRefresh, bgpsnapshot.FromSlice(nil), log.Logger)
	bgpWorker.Start(ctx)
	registry.SetBGP(bgpWorker)

	ripeAuthWorker := worker.NewRipeWorker("ripe-auth", ripeAuthRefresh, ripesnapshot.FromSlice(nil), log.Logger)
	ripeAuthWorker.Start(ctx)
	registry.SetRipe(ripeAuthWorker)

	notReady := registry.WaitReady(ctx, readyTimeout)
	if len(notReady) > 0 {
		log.Warn().Strs("workers", notReady).Msg("some workers did not become ready within the startup bound; accepting traffic anyway")
	}
	log.Info().Dur("elapsed", time.Since(started)).Msg("worker startup complete")

	engine := report.NewEngine(registry, ripeDBName, log.Logger)
	handler := httpapi.NewHandler(engine, registry, log.Logger)
	router := httpapi.NewRouter(handler, func() bool { return true })

	srv := &http.Server{Addr: *addr, Handler: router}
	go func() {
		log.Info().Str("addr", *addr).Msg("starting HTTP server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("http server failed")
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh
	log.Info().Msg("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("error shutting down HTTP server")
	}
	cancel()
}
