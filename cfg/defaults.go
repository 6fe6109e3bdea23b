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

// GetDefaultLoggingConfig returns the default configuration used before any
// flags or config file have been parsed.
func GetDefaultLoggingConfig() LoggingConfig {
	return LoggingConfig{
		Severity: INFO,
		Format:   "text",
		LogRotate: LogRotateConfig{
			MaxFileSizeMB:   512,
			BackupFileCount: 10,
			Compress:        true,
		},
	}
}

// GetDefaultConfig returns the full default configuration.
func GetDefaultConfig() Config {
	return Config{
		Daemon: DaemonConfig{
			Port:                DefaultPort,
			CacheRoot:           DefaultCacheRoot,
			MaxCacheSize:        ByteSize(DefaultMaxCacheSizeMB << 20),
			SessionTimeoutSecs:  DefaultSessionTimeoutSecs,
			JanitorIntervalSecs: DefaultJanitorIntervalSecs,
			MinDeletionAgeSecs:  DefaultMinDeletionAgeSecs,
		},
		Sandbox: SandboxConfig{
			NobodyUser:   DefaultNobodyUser,
			NogroupGroup: DefaultNogroupGroup,
		},
		Logging: GetDefaultLoggingConfig(),
	}
}
