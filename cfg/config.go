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

package cfg

import (
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Config is the fully resolved configuration for the allkorrectd daemon,
// assembled by viper from flags and an optional YAML file; environment
// variables are not read.
type Config struct {
	Daemon  DaemonConfig  `yaml:"daemon"`
	Sandbox SandboxConfig `yaml:"sandbox"`
	Logging LoggingConfig `yaml:"logging"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// DaemonConfig controls the TCP frontend and the on-disk cache.
type DaemonConfig struct {
	Port int `yaml:"port"`

	CacheRoot string `yaml:"cache-root"`

	MaxCacheSize ByteSize `yaml:"max-cache-size"`

	SessionTimeoutSecs int `yaml:"session-timeout-secs"`

	JanitorIntervalSecs int `yaml:"janitor-interval-secs"`

	MinDeletionAgeSecs int `yaml:"min-deletion-age-secs"`

	// Foreground keeps the process attached to its controlling terminal
	// instead of daemonizing via jacobsa/daemonize.
	Foreground bool `yaml:"foreground"`
}

// SandboxConfig names the unprivileged identity sandboxed children run as.
type SandboxConfig struct {
	NobodyUser string `yaml:"nobody-user"`

	NogroupGroup string `yaml:"nogroup-group"`
}

// LoggingConfig controls severity, rendering and optional file rotation.
type LoggingConfig struct {
	Severity LogSeverity `yaml:"severity"`

	Format string `yaml:"format"`

	FilePath string `yaml:"file-path"`

	LogRotate LogRotateConfig `yaml:"log-rotate"`
}

type LogRotateConfig struct {
	MaxFileSizeMB int `yaml:"max-file-size-mb"`

	BackupFileCount int `yaml:"backup-file-count"`

	Compress bool `yaml:"compress"`
}

// MetricsConfig controls the optional prometheus HTTP listener.
type MetricsConfig struct {
	ListenAddr string `yaml:"listen-addr"`
}

func BindFlags(flagSet *pflag.FlagSet) error {
	var err error

	flagSet.IntP("port", "", DefaultPort, "TCP port the daemon listens on.")
	if err = viper.BindPFlag("daemon.port", flagSet.Lookup("port")); err != nil {
		return err
	}

	flagSet.StringP("cache-root", "", DefaultCacheRoot, "Directory holding blobs and session tmp directories.")
	if err = viper.BindPFlag("daemon.cache-root", flagSet.Lookup("cache-root")); err != nil {
		return err
	}

	flagSet.StringP("max-cache-size", "", "500MB", "Maximum total size of cache-class blobs before the janitor starts evicting.")
	if err = viper.BindPFlag("daemon.max-cache-size", flagSet.Lookup("max-cache-size")); err != nil {
		return err
	}

	flagSet.IntP("session-timeout-secs", "", DefaultSessionTimeoutSecs, "Read/write deadline applied to each client connection.")
	if err = viper.BindPFlag("daemon.session-timeout-secs", flagSet.Lookup("session-timeout-secs")); err != nil {
		return err
	}

	flagSet.IntP("janitor-interval-secs", "", DefaultJanitorIntervalSecs, "Period between cache sweeps.")
	if err = viper.BindPFlag("daemon.janitor-interval-secs", flagSet.Lookup("janitor-interval-secs")); err != nil {
		return err
	}

	flagSet.IntP("min-deletion-age-secs", "", DefaultMinDeletionAgeSecs, "Minimum idle age before a blob becomes eligible for deletion.")
	if err = viper.BindPFlag("daemon.min-deletion-age-secs", flagSet.Lookup("min-deletion-age-secs")); err != nil {
		return err
	}

	flagSet.BoolP("foreground", "f", false, "Do not daemonize; stay attached to the controlling terminal.")
	if err = viper.BindPFlag("daemon.foreground", flagSet.Lookup("foreground")); err != nil {
		return err
	}

	flagSet.StringP("nobody-user", "", DefaultNobodyUser, "Unprivileged user sandboxed children run as.")
	if err = viper.BindPFlag("sandbox.nobody-user", flagSet.Lookup("nobody-user")); err != nil {
		return err
	}

	flagSet.StringP("nogroup-group", "", DefaultNogroupGroup, "Unprivileged group sandboxed children run as.")
	if err = viper.BindPFlag("sandbox.nogroup-group", flagSet.Lookup("nogroup-group")); err != nil {
		return err
	}

	flagSet.StringP("log-severity", "", INFO, "Log severity: TRACE, DEBUG, INFO, WARNING, ERROR or OFF.")
	if err = viper.BindPFlag("logging.severity", flagSet.Lookup("log-severity")); err != nil {
		return err
	}

	flagSet.StringP("log-format", "", "text", "Log rendering: text or json.")
	if err = viper.BindPFlag("logging.format", flagSet.Lookup("log-format")); err != nil {
		return err
	}

	flagSet.StringP("log-file", "", "", "Path to a log file; logs go to stderr when unset.")
	if err = viper.BindPFlag("logging.file-path", flagSet.Lookup("log-file")); err != nil {
		return err
	}

	flagSet.StringP("metrics-addr", "", "", "Address for the prometheus HTTP listener; disabled when unset.")
	if err = viper.BindPFlag("metrics.listen-addr", flagSet.Lookup("metrics-addr")); err != nil {
		return err
	}

	return nil
}
