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

package engine

import (
	"context"

	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/rs/zerolog/log"
)

// Run prepares the price table and calendar for cfg and then dispatches to the engine
// variant cfg.Mode selects (spec section 2: "Preparer -> Engine"). jobs.Dispatcher calls
// it for every job; the CLI's report subcommand calls RunBasic/RunRealistic directly.
func Run(ctx context.Context, manager *data.Manager, cfg Config) (*Result, error) {
	tickers := cfg.Tickers()

	table, err := dataprep.Prepare(ctx, manager, cfg.Mode, cfg.BaseCurrency, tickers, cfg.StartDate, cfg.EndDate)
	if err != nil {
		log.Error().Err(err).Msg("data preparation failed")
		return nil, err
	}

	cal := calendar.Build(table, cfg.StartDate, cfg.EndDate)

	switch cfg.Mode {
	case dataprep.Basic:
		return RunBasic(cfg, cal, table)
	case dataprep.Realistic:
		return RunRealistic(cfg, cal, table)
	default:
		return nil, ErrUnknownMode
	}
}
