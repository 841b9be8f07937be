package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/juju/gnuflag"

	"github.com/hnrobert/teamlogin/internal/config"
	"github.com/hnrobert/teamlogin/internal/directory"
	"github.com/hnrobert/teamlogin/internal/keystore"
	"github.com/hnrobert/teamlogin/internal/logger"
	"github.com/hnrobert/teamlogin/internal/reconcile"
	"github.com/hnrobert/teamlogin/internal/runlock"
	"github.com/hnrobert/teamlogin/internal/usercmd"
)

const (
	exitOK     = 0
	exitFatal  = 1
	exitPruned = 2 // accounts reconciled, some stale key files could not be removed
)

type options struct {
	quotaGB    int
	configPath string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var o options
	fs := gnuflag.NewFlagSet("team-login", gnuflag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.IntVar(&o.quotaGB, "user-quota-gb", 0, "disk quota in GB for newly created users (required)")
	fs.StringVar(&o.configPath, "config", "", "path to an optional YAML config file")
	if err := fs.Parse(true, args); err != nil {
		return o, err
	}
	if fs.NArg() > 0 {
		return o, fmt.Errorf("unexpected arguments: %v", fs.Args())
	}
	if o.quotaGB <= 0 || o.quotaGB > reconcile.MaxQuotaGB {
		return o, fmt.Errorf("--user-quota-gb must be between 1 and %d", reconcile.MaxQuotaGB)
	}
	return o, nil
}

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(args []string) int {
	opts, err := parseFlags(args, os.Stderr)
	if err != nil {
		if !errors.Is(err, gnuflag.ErrHelp) {
			fmt.Fprintln(os.Stderr, err)
		}
		return exitFatal
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		logger.Error("%v", err)
		return exitFatal
	}
	if err := logger.Init(cfg.LogDir); err != nil {
		logger.Warn("file logging disabled: %v", err)
	}
	defer logger.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	lock, err := runlock.Acquire(ctx, cfg.LockName, cfg.LockTimeout)
	if err != nil {
		logger.Error("%v", err)
		return exitFatal
	}
	defer lock.Release()

	keys, err := keystore.Open(cfg.HostRoot, cfg.KeyDir)
	if err != nil {
		logger.Error("%v", err)
		return exitFatal
	}
	accounts := usercmd.New()
	accounts.Timeout = cfg.CommandTimeout

	dir := directory.New(directory.Config{
		TeamURL:   cfg.TeamURL,
		KeysURL:   cfg.KeysURL,
		UserAgent: cfg.UserAgent,
		Timeout:   cfg.HTTPTimeout,
	}, nil)

	r, err := reconcile.New(dir, keys, accounts, reconcile.Options{
		Prefix:     cfg.Prefix,
		Group:      cfg.SSHGroup,
		Shell:      cfg.Shell,
		QuotaGB:    opts.quotaGB,
		QuotaMount: cfg.QuotaMount,
	})
	if err != nil {
		logger.Error("%v", err)
		return exitFatal
	}

	sum, err := r.Run(ctx)
	return report(sum, err)
}

func report(sum *reconcile.Summary, err error) int {
	if err != nil && !reconcile.IsPruneOnly(err) {
		logger.Error("run aborted: %v", err)
		return exitFatal
	}
	logger.Info("reconciled %d identities: %d key files written, %d accounts created, %d key files revoked",
		sum.Identities, sum.KeysWritten, len(sum.Created), len(sum.Pruned))
	if err != nil {
		logger.Error("stale key sweep incomplete: %v", err)
		return exitPruned
	}
	return exitOK
}
