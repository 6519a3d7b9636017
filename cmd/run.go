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
	"encoding/json"
	"fmt"
	"os"

	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(runCmd)
}

var runCmd = &cobra.Command{
	Use:   "run [config.json]",
	Short: "Run a backtest from a JSON configuration file and print its snapshot streams",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit(args[0])

		if err := database.Connect(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		manager := data.GetManagerInstance()

		result, err := engine.Run(context.Background(), manager, *cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("backtest run failed")
		}

		out, err := json.MarshalIndent(result, "", "  ")
		if err != nil {
			log.Fatal().Err(err).Msg("could not marshal result")
		}
		fmt.Println(string(out))
	},
}

// loadConfigOrExit reads and validates the engine.Config at path, exiting the process on
// any InvalidConfig/UnknownEnumValue failure (spec section 7: fail fast at construction).
func loadConfigOrExit(path string) *engine.Config {
	raw, err := os.ReadFile(path)
	if err != nil {
		log.Fatal().Err(err).Str("Path", path).Msg("could not read configuration file")
	}

	cfg, err := engine.Parse(raw)
	if err != nil {
		log.Fatal().Err(err).Msg("invalid backtest configuration")
	}
	return cfg
}
