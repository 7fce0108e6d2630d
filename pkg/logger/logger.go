package logger

import (
	"fmt"

	"go.uber.org/zap"
)

var base *zap.Logger

var serviceName = "nur_bot"

func SetServiceName(newName string) string {
	oldName := serviceName
	serviceName = newName
	return oldName
}

// Init builds the process logger. debug=true switches to the development
// config with DEBUG level enabled.
func Init(debug bool) error {
	var (
		l   *zap.Logger
		err error
	)
	if debug {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return err
	}
	base = l
	return nil
}

func log() *zap.Logger {
	if base == nil {
		// tests and replay don't always call Init
		base = zap.NewNop()
	}
	return base.With(zap.String("service", serviceName))
}

func Debug(format string, args ...interface{}) {
	log().Debug(fmt.Sprintf(format, args...))
}

func Info(format string, args ...interface{}) {
	log().Info(fmt.Sprintf(format, args...))
}

func Warn(format string, args ...interface{}) {
	log().Warn(fmt.Sprintf(format, args...))
}

func Error(format string, args ...interface{}) {
	log().Error(fmt.Sprintf(format, args...))
}

func Fatal(format string, args ...interface{}) {
	log().Fatal(fmt.Sprintf(format, args...))
}
