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

package logger

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/allkorrect/allkorrect/cfg"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/suite"
)

type LoggerTest struct {
	suite.Suite
}

func TestLoggerSuite(t *testing.T) {
	suite.Run(t, new(LoggerTest))
}

func redirectLogsToGivenBuffer(buf *bytes.Buffer, level string) {
	programLevel := new(slog.LevelVar)
	defaultLogger = slog.New(defaultLoggerFactory.createJsonOrTextHandler(buf, programLevel, ""))
	setLoggingLevel(level, programLevel)
}

func (t *LoggerTest) TestSetLoggingLevel() {
	testData := []struct {
		inputLevel    string
		expectedLevel slog.Level
	}{
		{cfg.TRACE, LevelTrace},
		{cfg.DEBUG, LevelDebug},
		{cfg.INFO, LevelInfo},
		{cfg.WARNING, LevelWarn},
		{cfg.ERROR, LevelError},
		{cfg.OFF, LevelOff},
	}

	for _, tt := range testData {
		lv := new(slog.LevelVar)
		setLoggingLevel(tt.inputLevel, lv)
		assert.Equal(t.T(), tt.expectedLevel, lv.Level())
	}
}

func (t *LoggerTest) TestOffSuppressesEverything() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, cfg.OFF)

	Tracef("x")
	Debugf("x")
	Infof("x")
	Warnf("x")
	Errorf("x")

	assert.Empty(t.T(), buf.String())
}

func (t *LoggerTest) TestTraceLevelEmitsEverything() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, cfg.TRACE)

	Tracef("hello %s", "world")

	assert.Contains(t.T(), buf.String(), "severity=TRACE")
	assert.Contains(t.T(), buf.String(), "hello world")
}

func (t *LoggerTest) TestInfoLevelSuppressesDebugAndTrace() {
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, cfg.INFO)

	Tracef("trace-line")
	Debugf("debug-line")
	Infof("info-line")

	out := buf.String()
	assert.NotContains(t.T(), out, "trace-line")
	assert.NotContains(t.T(), out, "debug-line")
	assert.Contains(t.T(), out, "info-line")
}

func (t *LoggerTest) TestJSONFormat() {
	defaultLoggerFactory.format = "json"
	var buf bytes.Buffer
	redirectLogsToGivenBuffer(&buf, cfg.INFO)

	Infof("json-line")

	assert.Contains(t.T(), buf.String(), `"severity":"INFO"`)
	assert.Contains(t.T(), buf.String(), `"json-line"`)

	defaultLoggerFactory.format = "text"
}

func (t *LoggerTest) TestInitBuildsFileBackedLogger() {
	dir := t.T().TempDir()
	err := Init(cfg.LoggingConfig{
		Severity: cfg.DEBUG,
		Format:   "text",
		FilePath: dir + "/allkorrectd.log",
		LogRotate: cfg.LogRotateConfig{
			MaxFileSizeMB:   10,
			BackupFileCount: 2,
			Compress:        false,
		},
	})

	assert.NoError(t.T(), err)
	assert.NotNil(t.T(), defaultLoggerFactory.file)
	assert.Equal(t.T(), dir+"/allkorrectd.log", defaultLoggerFactory.file.Filename)
}
