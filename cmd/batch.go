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

package cmd

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/jobs"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(batchCmd)
}

var batchCmd = &cobra.Command{
	Use:   "batch [config-dir]",
	Short: "Run every *.json backtest configuration in a directory concurrently",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		paths, err := filepath.Glob(filepath.Join(args[0], "*.json"))
		if err != nil {
			log.Fatal().Err(err).Msg("could not list configuration directory")
		}
		if len(paths) == 0 {
			log.Fatal().Str("Dir", args[0]).Msg("no *.json configuration files found")
		}

		if err := database.Connect(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		manager := data.GetManagerInstance()

		dispatcher := jobs.NewDispatcher(manager)
		defer dispatcher.Shutdown()

		submitted := make([]*jobs.Job, 0, len(paths))
		for _, path := range paths {
			cfg := loadConfigOrExit(path)
			job := jobs.NewJob(*cfg)
			dispatcher.Submit(context.Background(), job)
			submitted = append(submitted, job)
			fmt.Printf("%s: submitted as job %s\n", filepath.Base(path), job.ID)
		}

		for i, job := range submitted {
			outcome := job.Wait()
			if outcome.Err != nil {
				fmt.Printf("%s: FAILED: %v\n", filepath.Base(paths[i]), outcome.Err)
				continue
			}
			fmt.Printf("%s: completed, %d holding snapshots\n", filepath.Base(paths[i]), len(outcome.Result.HoldingSnapshots))
		}
	},
}
