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

// Package benchmark replays a backtest's cashflow schedule against each eligible
// reference series and emits a per-date value series per benchmark (spec section 4.6). It
// runs independently of the engine on a disjoint subset of tickers and its output is
// merged into the Analyser's chart payload, never back into a Portfolio.
package benchmark

import (
	"time"

	"github.com/penny-vault/pv-backtest/engine"
)

// Config is the subset of a backtest configuration the Benchmark Simulator needs to
// replay the same cashflow schedule the engine used. RecurringInvestment reuses
// engine.RecurringInvestment directly -- spec section 4.6 requires the identical
// schedule, so this package generates it with engine.GenerateRecurringDates rather than a
// second implementation.
type Config struct {
	BaseCurrency        string
	StartDate           time.Time
	EndDate             time.Time
	InitialInvestment   float64
	RecurringInvestment *engine.RecurringInvestment
}

// LongRow is one (date, ticker, value) row of the simulator's long-format output (spec
// section 4.6's "Output is a (date, ticker, value) long table").
type LongRow struct {
	Date   time.Time
	Ticker string
	Value  float64
}

// WideSeries is the long table pivoted to wide form: one value per ticker per date, dates
// in ascending order, 0 before a benchmark's first purchase.
type WideSeries struct {
	Dates  []time.Time
	Values map[string][]float64
}

// Result is the Benchmark Simulator's output: the long rows, the pivoted wide series, and
// the tickers excluded because their active window didn't cover the full backtest period
// (spec section 7's BenchmarkIneligible, non-fatal).
type Result struct {
	Long       []LongRow
	Wide       WideSeries
	Ineligible []string
}
