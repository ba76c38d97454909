package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/koding/multiconfig"
	"github.com/sirupsen/logrus"

	"github.com/cwuctl/controller/pkg/app"
	"github.com/cwuctl/controller/pkg/config"
	"github.com/cwuctl/controller/pkg/version"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGQUIT, syscall.SIGTERM)
	defer stop()
	err := Run(ctx)
	if err != nil {
		logrus.Error(err)
		os.Exit(1)
	}
}

func Run(ctx context.Context) error {
	cli := &config.CliConfig{}
	err := multiconfig.New().Load(cli)
	if err != nil {
		return err
	}
	lvl, err := logrus.ParseLevel(cli.LogLevel)
	if err != nil {
		return fmt.Errorf("error setting logrus loglevel: %w", err)
	}
	logrus.SetLevel(lvl)
	logrus.Info("starting cwuctl ", version.Version)

	app := app.New(cli)

	err = app.Start(ctx)
	if err != nil {
		return err
	}

	app.Wait()
	return nil
}
