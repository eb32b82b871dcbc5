package logger

import (
	"os"

	"go.uber.org/zap"
)

// New builds the process logger. LOG_LEVEL=debug switches to the
// development config, everything else gets production JSON output.
func New(service string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if os.Getenv("LOG_LEVEL") == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		panic("failed to build logger: " + err.Error())
	}
	return l.With(zap.String("service", service))
}
