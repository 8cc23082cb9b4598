// deletes hosted images once nothing references them
package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/ds124wfegd/linkhub/config"
	"github.com/ds124wfegd/linkhub/internal/appServer"
	"github.com/sirupsen/logrus"
)

func main() {
	logrus.SetFormatter(new(logrus.JSONFormatter))

	viperInstance, err := config.LoadConfig()
	if err != nil {
		logrus.Fatalf("Cannot load config. Error: {%s}", err.Error())
	}

	cfg, err := config.ParseConfig(viperInstance)
	if err != nil {
		logrus.Fatalf("Cannot parse config. Error: {%s}", err.Error())
	}
	appServer.SetupLogging(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	logrus.Print("Asset cleaner started")
	if err := appServer.RunProcessor(ctx, cfg); err != nil && !errors.Is(err, context.Canceled) {
		logrus.Fatalf("asset cleaner stopped: %s", err.Error())
	}
	logrus.Print("Asset cleaner stopped")
}
