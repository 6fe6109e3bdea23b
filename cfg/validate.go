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

import "fmt"

const (
	PortOutOfRangeError       = "the value of daemon.port must be between 1 and 65535"
	CacheRootEmptyError       = "daemon.cache-root must not be empty"
	MaxCacheSizeInvalidError  = "daemon.max-cache-size must be greater than zero"
	SessionTimeoutInvalidErr  = "daemon.session-timeout-secs must be greater than zero"
	JanitorIntervalInvalidErr = "daemon.janitor-interval-secs must be greater than zero"
)

func isValidLogRotateConfig(config *LogRotateConfig) error {
	if config.MaxFileSizeMB <= 0 {
		return fmt.Errorf("max-file-size-mb should be at least 1")
	}
	if config.BackupFileCount < 0 {
		return fmt.Errorf("backup-file-count should be 0 (retain all) or positive")
	}
	return nil
}

// ValidateConfig returns a non-nil error if the config is invalid.
func ValidateConfig(config *Config) error {
	if config.Daemon.Port < 1 || config.Daemon.Port > 65535 {
		return fmt.Errorf(PortOutOfRangeError)
	}
	if config.Daemon.CacheRoot == "" {
		return fmt.Errorf(CacheRootEmptyError)
	}
	if config.Daemon.MaxCacheSize <= 0 {
		return fmt.Errorf(MaxCacheSizeInvalidError)
	}
	if config.Daemon.SessionTimeoutSecs <= 0 {
		return fmt.Errorf(SessionTimeoutInvalidErr)
	}
	if config.Daemon.JanitorIntervalSecs <= 0 {
		return fmt.Errorf(JanitorIntervalInvalidErr)
	}
	if err := isValidLogRotateConfig(&config.Logging.LogRotate); err != nil {
		return fmt.Errorf("error parsing log-rotate config: %w", err)
	}
	return nil
}
