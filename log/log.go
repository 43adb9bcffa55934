// Package log wraps go-logging with the small set of level-named helpers
// the rest of radish calls. Nothing here decides *what* to log — that is
// the caller's business — only how it reaches stderr.
package log

import (
	"os"

	"github.com/op/go-logging"
)

const moduleName = "radish"

const (
	CRITICAL = logging.CRITICAL
	ERROR    = logging.ERROR
	WARNING  = logging.WARNING
	NOTICE   = logging.NOTICE
	INFO     = logging.INFO
	DEBUG    = logging.DEBUG
)

var logger = logging.MustGetLogger(moduleName)
var format = logging.MustStringFormatter(
	`%{color}%{time:15:04:05.000} ▶ %{level:.4s} %{id:03x}%{color:reset} %{message}`,
)

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	backendFormatter := logging.NewBackendFormatter(backend, format)
	logging.SetBackend(backendFormatter)
}

// SetLevel sets current global log level for the logger.
func SetLevel(level logging.Level) {
	logging.SetLevel(level, moduleName)
}

func Criticalf(format string, args ...interface{}) { logger.Critical(format, args...) }
func Critical(args ...interface{})                 { logger.Critical(args...) }

func Errorf(format string, args ...interface{}) { logger.Error(format, args...) }
func Error(args ...interface{})                 { logger.Error(args...) }

func Warningf(format string, args ...interface{}) { logger.Warning(format, args...) }
func Warning(args ...interface{})                 { logger.Warning(args...) }

func Noticef(format string, args ...interface{}) { logger.Notice(format, args...) }
func Notice(args ...interface{})                 { logger.Notice(args...) }

func Infof(format string, args ...interface{}) { logger.Info(format, args...) }
func Info(args ...interface{})                 { logger.Info(args...) }

func Debugf(format string, args ...interface{}) { logger.Debug(format, args...) }
func Debug(args ...interface{})                 { logger.Debug(args...) }
