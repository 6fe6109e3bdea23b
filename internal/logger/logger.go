// Copyright 2026 The AllKorrect Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package logger provides the daemon's leveled logging, layered on top of
// log/slog with a TRACE level below slog's own Debug.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/allkorrect/allkorrect/cfg"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	LevelTrace = slog.Level(-8)
	LevelDebug = slog.LevelDebug
	LevelInfo  = slog.LevelInfo
	LevelWarn  = slog.LevelWarn
	LevelError = slog.LevelError
	// LevelOff sits above any level slog ever emits at.
	LevelOff = slog.Level(16)
)

var levelNames = map[slog.Leveler]string{
	LevelTrace: "TRACE",
	LevelOff:   "OFF",
}

type loggerFactory struct {
	file            *lumberjack.Logger
	sysWriter       io.Writer
	level           string
	format          string
	logRotateConfig cfg.LogRotateConfig
}

var defaultLoggerFactory = &loggerFactory{
	sysWriter: os.Stderr,
	level:     cfg.INFO,
	format:    "text",
}

var defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(os.Stderr, new(slog.LevelVar), ""))

func setLoggingLevel(level string, programLevel *slog.LevelVar) {
	switch level {
	case cfg.TRACE:
		programLevel.Set(LevelTrace)
	case cfg.DEBUG:
		programLevel.Set(LevelDebug)
	case cfg.INFO:
		programLevel.Set(LevelInfo)
	case cfg.WARNING:
		programLevel.Set(LevelWarn)
	case cfg.ERROR:
		programLevel.Set(LevelError)
	case cfg.OFF:
		programLevel.Set(LevelOff)
	default:
		programLevel.Set(LevelInfo)
	}
}

func (f *loggerFactory) writer() io.Writer {
	if f.file != nil {
		return f.file
	}
	return f.sysWriter
}

func (f *loggerFactory) createJsonOrTextHandler(w io.Writer, programLevel *slog.LevelVar, prefix string) slog.Handler {
	replace := func(groups []string, a slog.Attr) slog.Attr {
		if a.Key == slog.LevelKey {
			level := a.Value.Any().(slog.Level)
			if name, ok := levelNames[level]; ok {
				a.Value = slog.StringValue(name)
			}
			a.Key = "severity"
		}
		if a.Key == slog.MessageKey {
			a.Value = slog.StringValue(prefix + a.Value.String())
		}
		if a.Key == slog.TimeKey {
			a.Key = "time"
		}
		return a
	}

	opts := &slog.HandlerOptions{Level: programLevel, ReplaceAttr: replace}
	if f.format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// Init builds the default logger from the resolved daemon config. Call once
// at startup, after config has been rationalized.
func Init(c cfg.LoggingConfig) error {
	defaultLoggerFactory.format = c.Format
	defaultLoggerFactory.level = string(c.Severity)
	defaultLoggerFactory.logRotateConfig = c.LogRotate

	if c.FilePath != "" {
		defaultLoggerFactory.file = &lumberjack.Logger{
			Filename:   c.FilePath,
			MaxSize:    c.LogRotate.MaxFileSizeMB,
			MaxBackups: c.LogRotate.BackupFileCount,
			Compress:   c.LogRotate.Compress,
		}
	} else {
		defaultLoggerFactory.sysWriter = os.Stderr
	}

	programLevel := new(slog.LevelVar)
	setLoggingLevel(defaultLoggerFactory.level, programLevel)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), programLevel, ""))
	return nil
}

func SetLogFormat(format string) {
	if format == "" {
		format = "json"
	}
	defaultLoggerFactory.format = format
	programLevel := new(slog.LevelVar)
	setLoggingLevel(defaultLoggerFactory.level, programLevel)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(defaultLoggerFactory.writer(), programLevel, ""))
}

func Tracef(format string, v ...interface{}) {
	defaultLogger.Log(context.Background(), LevelTrace, fmt.Sprintf(format, v...))
}

func Debugf(format string, v ...interface{}) {
	defaultLogger.Debug(fmt.Sprintf(format, v...))
}

func Infof(format string, v ...interface{}) {
	defaultLogger.Info(fmt.Sprintf(format, v...))
}

func Warnf(format string, v ...interface{}) {
	defaultLogger.Warn(fmt.Sprintf(format, v...))
}

func Errorf(format string, v ...interface{}) {
	defaultLogger.Error(fmt.Sprintf(format, v...))
}
