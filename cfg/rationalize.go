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

// Rationalize updates config fields based on the values of other fields,
// after flags and the config file have been layered in by viper.
func Rationalize(c *Config) error {
	if c.Logging.Format == "" {
		c.Logging.Format = "text"
	}
	if c.Logging.Severity == "" {
		c.Logging.Severity = INFO
	}

	// Running in the foreground is almost always someone debugging the
	// daemon by hand; surface everything.
	if c.Daemon.Foreground && c.Logging.Severity == INFO {
		c.Logging.Severity = DEBUG
	}

	return nil
}
