// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package cmd is the pvbacktest CLI entrypoint: a cobra root command plus run/report/
// batch/version subcommands, following the teacher's cmd/root.go + subcommand layout.
package cmd

import (
	"fmt"
	"os"

	"github.com/penny-vault/pv-backtest/common"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	viper.BindEnv("database.url", "PVBACKTEST_DATABASE_URL")
	rootCmd.PersistentFlags().String("database-url", "", "PostgreSQL connection string")
	viper.BindPFlag("database.url", rootCmd.PersistentFlags().Lookup("database-url"))

	viper.BindEnv("log.level", "PVBACKTEST_LOG_LEVEL")
	rootCmd.PersistentFlags().String("log-level", "warning", "Logging level")
	viper.BindPFlag("log.level", rootCmd.PersistentFlags().Lookup("log-level"))

	viper.BindEnv("log.output", "PVBACKTEST_LOG_OUTPUT")
	rootCmd.PersistentFlags().String("log-output", "stdout", "Write logs to specified output: file path, `stdout`, or `stderr`")
	viper.BindPFlag("log.output", rootCmd.PersistentFlags().Lookup("log-output"))

	rootCmd.PersistentFlags().Bool("log-pretty", false, "Write human-readable console logs instead of JSON")
	viper.BindPFlag("log.pretty", rootCmd.PersistentFlags().Lookup("log-pretty"))

	rootCmd.PersistentFlags().Int("workers", 0, "Worker pool size (0 = runtime.NumCPU())")
	viper.BindPFlag("workers.pool_size", rootCmd.PersistentFlags().Lookup("workers"))
}

var rootCmd = &cobra.Command{
	Use:     "pvbacktest",
	Version: common.CurrentVersion.String(),
	Short:   "Run passive-investment portfolio backtests",
	Long:    `pvbacktest simulates recurring-investment, rebalancing portfolio strategies against historical prices and reports their performance.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		common.SetupLogging()
	},
}

// Execute runs the root command, exiting the process with status 1 on failure.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
