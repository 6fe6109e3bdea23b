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

package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime/debug"

	"github.com/allkorrect/allkorrect/cfg"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile       string
	bindErr       error
	configFileErr error
	unmarshalErr  error
	resolvedCfg   = cfg.GetDefaultConfig()
)

var rootCmd = &cobra.Command{
	Use:   "allkorrectd",
	Short: "Run the AllKorrect sandboxed execution daemon",
	Long: `allkorrectd listens on a TCP port, accepting framed requests to
execute untrusted programs under ptrace supervision and to manage the
blobs/files those programs read and write.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if bindErr != nil {
			return bindErr
		}
		if configFileErr != nil {
			return configFileErr
		}
		if unmarshalErr != nil {
			return unmarshalErr
		}
		if err := cfg.Rationalize(&resolvedCfg); err != nil {
			return err
		}
		if err := cfg.ValidateConfig(&resolvedCfg); err != nil {
			return err
		}
		return runServe(cmd.Context(), &resolvedCfg)
	},
}

func resolvePath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if len(p) >= 2 && p[:2] == "~/" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolving home directory: %w", err)
		}
		p = filepath.Join(home, p[2:])
	}
	return filepath.Abs(p)
}

func Execute() {
	defer logCrashThenRepanic()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// logCrashThenRepanic writes a panic's message and stack trace to a crash
// log on disk before letting the panic continue to unwind. This matters
// once the daemon has daemonized: its stdout/stderr are no longer attached
// to anything a human is watching, so without this the crash would simply
// vanish.
func logCrashThenRepanic() {
	r := recover()
	if r == nil {
		return
	}
	w := &CrashWriter{fileName: filepath.Join(os.TempDir(), "allkorrectd.crash.log")}
	fmt.Fprintf(w, "panic: %v\n%s", r, debug.Stack())
	panic(r)
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config-file", "", "Path to an optional YAML config file")
	bindErr = cfg.BindFlags(rootCmd.PersistentFlags())
}

func initConfig() {
	if cfgFile == "" {
		unmarshalErr = viper.Unmarshal(&resolvedCfg, viper.DecodeHook(cfg.DecodeHook()))
		return
	}

	resolved, err := resolvePath(cfgFile)
	if err != nil {
		configFileErr = fmt.Errorf("resolving config file path: %w", err)
		return
	}
	viper.SetConfigFile(resolved)
	viper.SetConfigType("yaml")

	if err := viper.ReadInConfig(); err != nil {
		configFileErr = fmt.Errorf("reading config file: %w", err)
		return
	}
	unmarshalErr = viper.Unmarshal(&resolvedCfg, viper.DecodeHook(cfg.DecodeHook()))
}
