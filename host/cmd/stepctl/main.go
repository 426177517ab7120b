// Command stepctl drives stepper motors attached to a PCA9685 expander,
// Raspberry Pi GPIO or a USB GPIO board.
package main

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	log := logrus.New()

	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		log.WithError(err).Warn("could not load .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	a := newApp(log)
	defer a.close()

	err := newRootCmd(a).ExecuteContext(ctx)
	a.dumpEvents()
	if err != nil {
		log.WithError(err).Error("stepctl failed")
		a.close()
		os.Exit(1)
	}
}
