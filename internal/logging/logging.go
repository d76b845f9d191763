// Package logging configures the process-wide logrus logger.
package logging

import (
	"io"
	"os"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"

	"sip_call_diagnoser_go/internal/config"
)

// Init applies the log configuration to the standard logrus logger. When a
// file is configured, output goes to both stderr and a size-rotated file.
func Init(cfg config.LogConfig) error {
	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return err
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	if cfg.File != "" {
		rotated := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
		}
		logrus.SetOutput(io.MultiWriter(os.Stderr, rotated))
	} else {
		logrus.SetOutput(os.Stderr)
	}
	return nil
}
