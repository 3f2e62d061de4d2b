package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/cli/go-gh/v2/pkg/term"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/altin/treeherder-cli/internal/api"
	"github.com/altin/treeherder-cli/internal/cmd"
	"github.com/altin/treeherder-cli/internal/config"
	"github.com/altin/treeherder-cli/internal/notify"
	"github.com/altin/treeherder-cli/internal/pipeline"
)

var version = "dev"

func init() {
	if version != "dev" {
		return
	}
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		version = info.Main.Version
	}
}

func main() {
	// A .env file never overrides variables already set.
	_ = godotenv.Load()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	t := term.FromEnv()
	root := cmd.NewRootCmd(cmd.Deps{
		In:        os.Stdin,
		Out:       t.Out(),
		ErrOut:    t.ErrOut(),
		Term:      t,
		StdinTTY:  term.IsTerminal(os.Stdin),
		StderrTTY: term.IsTerminal(os.Stderr),
		Caps:      config.DetectCapabilities(os.LookupEnv),
		Version:   version,
		NewClient: func(cfg config.Config, log logrus.FieldLogger) pipeline.Client {
			return api.NewClientFromConfig(cfg, log)
		},
		Notifier: notify.NewDesktop(),
	})

	err := root.ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	os.Exit(cmd.ExitCode(err))
}
