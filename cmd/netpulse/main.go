// cmd/netpulse/main.go
//
// NetPulse device manager – configuration entry point.
//
// Boot sequence
// -------------
//
//  1. Pick the env file (flag → jail-wide file → none).
//
//  2. Start the bootstrap console logger so configuration errors are
//     visible before the file logger exists.
//
//  3. config.Load – every error is printed, then exit 1.
//
//  4. Publish the snapshot, start the daily rotating logger from the
//     `logging` section, and log the redacted rendering at DEBUG.
//
//  5. Optional actions, in order:
//
//     • --print      – redacted snapshot as text, json, or yaml
//     • --check-db   – open the pool and log the server version
//     • --serve      – diagnostics API until SIGINT or SIGTERM
//
// Large comment blocks are framed by blank “//” lines; inline comments use
// a single “//”.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/netpulse/devicemngr/internal/config"
	"github.com/netpulse/devicemngr/internal/database"
	"github.com/netpulse/devicemngr/internal/httpapi"
	"github.com/netpulse/devicemngr/internal/logger"
	"github.com/netpulse/devicemngr/internal/server"
)

const serverEnvPath = "/usr/local/etc/netpulse/netpulse.env"

type options struct {
	envFile    string
	valuesFile string
	format     string
	print      bool
	checkDB    bool
	serve      bool
}

func parseFlags(args []string) (options, error) {
	var o options
	fs := flag.NewFlagSet("netpulse", flag.ContinueOnError)
	fs.StringVar(&o.envFile, "env-file", "", "dotenv file layered under the process environment")
	fs.StringVar(&o.valuesFile, "values-file", "", "flat YAML values file, lowest precedence")
	fs.StringVarP(&o.format, "format", "f", formatText, "output format for --print: text, json, or yaml")
	fs.BoolVarP(&o.print, "print", "p", false, "print the redacted configuration and continue")
	fs.BoolVar(&o.checkDB, "check-db", false, "connect to the database and report its version")
	fs.BoolVar(&o.serve, "serve", false, "run the diagnostics API")
	if err := fs.Parse(args); err != nil {
		return o, err
	}
	if !validFormat(o.format) {
		return o, fmt.Errorf("unknown format %q", o.format)
	}
	if o.envFile == "" {
		if _, err := os.Stat(serverEnvPath); err == nil {
			o.envFile = serverEnvPath
		}
	}
	return o, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}
	os.Exit(run(opts))
}

func run(opts options) int {
	boot := logger.Bootstrap()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	//
	// ── 1.  Resolve and validate ───────────────────────────────────────
	//
	snap, err := config.Load(ctx, config.Options{
		EnvFile:    opts.envFile,
		ValuesFile: opts.valuesFile,
	})
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}
	if err := config.Publish(snap); err != nil {
		boot.Errorw("publish config", "err", err)
		return 1
	}

	//
	// ── 2.  File logger from the resolved `logging` section ───────────
	//
	log, err := logger.New(config.LoggingFrom(snap))
	if err != nil {
		boot.Errorw("start logger", "err", err)
		return 1
	}
	defer func() { _ = log.Sync() }()
	config.LogRedacted(log, snap)

	if opts.print {
		if err := render(os.Stdout, snap, opts.format); err != nil {
			log.Errorw("print config", "err", err)
			return 1
		}
	}

	//
	// ── 3.  Database probe ─────────────────────────────────────────────
	//
	if opts.checkDB {
		dbCfg := config.DatabaseFrom(snap)
		pctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		db, err := database.Open(pctx, dbCfg)
		if err != nil {
			log.Errorw("database unreachable", "engine", dbCfg.Engine, "host", dbCfg.Host, "err", err)
			return 1
		}
		defer db.Close()

		v, err := database.ServerVersion(pctx, db)
		if err != nil {
			log.Errorw("database version query failed", "err", err)
			return 1
		}
		log.Infow("database online", "engine", dbCfg.Engine, "host", dbCfg.Host, "version", v)
	}

	//
	// ── 4.  Diagnostics API ────────────────────────────────────────────
	//
	if opts.serve {
		srv := server.New(config.DiagnosticsFrom(snap), httpapi.NewRouter(snap, log))
		if err := server.Run(ctx, srv, log); err != nil {
			log.Errorw("diagnostics server", "err", err)
			return 1
		}
	}
	return 0
}
