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
	"os"
	"sort"

	"github.com/olekukonko/tablewriter"
	"github.com/penny-vault/pv-backtest/analyser"
	"github.com/penny-vault/pv-backtest/benchmark"
	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/common"
	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func init() {
	rootCmd.AddCommand(reportCmd)
}

var reportCmd = &cobra.Command{
	Use:   "report [config.json]",
	Short: "Run a backtest and print a human-readable performance summary",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		cfg := loadConfigOrExit(args[0])

		if err := database.Connect(); err != nil {
			log.Fatal().Err(err).Msg("could not connect to database")
		}
		manager := data.GetManagerInstance()

		ctx := context.Background()
		table, err := dataprep.Prepare(ctx, manager, cfg.Mode, cfg.BaseCurrency, cfg.Tickers(), cfg.StartDate, cfg.EndDate)
		if err != nil {
			log.Fatal().Err(err).Msg("data preparation failed")
		}
		cal := calendar.Build(table, cfg.StartDate, cfg.EndDate)

		var result *engine.Result
		switch cfg.Mode {
		case dataprep.Basic:
			result, err = engine.RunBasic(*cfg, cal, table)
		case dataprep.Realistic:
			result, err = engine.RunRealistic(*cfg, cal, table)
		default:
			log.Fatal().Msg("unknown backtest mode")
		}
		if err != nil {
			log.Fatal().Err(err).Msg("backtest run failed")
		}

		report, err := analyser.Analyse(result, cal)
		if err != nil {
			log.Fatal().Err(err).Msg("analysis failed")
		}

		runBenchmarks(ctx, manager, cfg, report)

		printSummary(report)
		printFinalHoldings(report)
	},
}

// runBenchmarks replays cfg's cashflow schedule against every eligible reference index
// (spec section 4.6) and merges the result into report's chart payload (spec section 2:
// "its output is merged into the Analyser's chart payload"). Benchmark preparation/
// simulation failures are logged and skipped rather than aborting the run -- the
// Benchmark Simulator is a parallel, best-effort enrichment, not part of the engine's own
// fatal-error surface.
func runBenchmarks(ctx context.Context, manager *data.Manager, cfg *engine.Config, report *analyser.Report) {
	tickers := manager.BenchmarkTickers()
	if len(tickers) == 0 {
		return
	}

	table, ineligible, err := dataprep.Benchmarks(ctx, manager, cfg.Mode, cfg.BaseCurrency, tickers, cfg.StartDate, cfg.EndDate)
	if err != nil {
		log.Warn().Err(err).Msg("benchmark data preparation failed; skipping benchmark growth series")
		return
	}
	for _, ticker := range ineligible {
		log.Warn().Str("Ticker", ticker).Msg("benchmark ineligible: active window does not cover the full backtest period")
	}
	if len(table) == 0 {
		return
	}

	simResult, err := benchmark.Simulate(benchmark.Config{
		BaseCurrency:        cfg.BaseCurrency,
		StartDate:           cfg.StartDate,
		EndDate:             cfg.EndDate,
		InitialInvestment:   cfg.InitialInvestment,
		RecurringInvestment: cfg.RecurringInvestment,
	}, table)
	if err != nil {
		log.Warn().Err(err).Msg("benchmark simulation failed; skipping benchmark growth series")
		return
	}

	labels := make(map[string]string, len(table))
	for ticker := range table {
		if meta, err := manager.Metadata(ticker); err == nil {
			labels[ticker] = meta.DisplayName
		}
	}
	analyser.AttachBenchmark(report, simResult, labels)
}

// printSummary renders report's headline metrics as a console table, following the
// teacher's strategy.Compute output style (cmd/backtest.go's target.Table()) but through
// tablewriter rather than the dataframe package's own formatter, since report's metrics
// aren't a dataframe.
func printSummary(report *analyser.Report) {
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Metric", "Value"})

	rows := [][]string{
		{"Final Value", fmt.Sprintf("%.2f", report.Metrics.FinalValue)},
		{"Total Contributions", fmt.Sprintf("%.2f", report.Metrics.TotalContributions)},
		{"Cumulative Gain", fmt.Sprintf("%.2f", report.Metrics.CumulativeGain)},
		{"Cumulative Return", fmt.Sprintf("%.2f%%", report.Metrics.CumulativeReturn*100)},
		{"CAGR", fmt.Sprintf("%.2f%%", report.Metrics.CAGR*100)},
		{"CMGR", fmt.Sprintf("%.2f%%", report.Metrics.CMGR*100)},
		{"Sharpe", fmt.Sprintf("%.2f", report.Metrics.Sharpe)},
		{"Volatility", fmt.Sprintf("%.2f%%", report.Metrics.Volatility*100)},
		{"Max Drawdown", fmt.Sprintf("%.2f%%", report.MaxDrawdown.MaxDrawdown*100)},
		{"Monthly Win Rate", fmt.Sprintf("%.2f%%", report.MonthlyWinLose.Rate*100)},
	}
	for _, row := range rows {
		table.Append(row)
	}
	table.Render()
}

// printFinalHoldings renders the last valuation's per-ticker positions, largest holding
// first, via common.PairList -- the teacher's weight-ranking sort.Interface.
func printFinalHoldings(report *analyser.Report) {
	if len(report.Valuations) == 0 {
		return
	}
	final := report.Valuations[len(report.Valuations)-1]

	pairs := make(common.PairList, len(final.Holdings))
	byTicker := make(map[string]analyser.HoldingValuation, len(final.Holdings))
	for i, h := range final.Holdings {
		pairs[i] = common.Pair{Key: h.Ticker, Value: h.Value}
		byTicker[h.Ticker] = h
	}
	sort.Sort(sort.Reverse(pairs))

	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Ticker", "Units", "Price", "Value", "Weight"})
	for _, p := range pairs {
		h := byTicker[p.Key]
		table.Append([]string{
			h.Ticker,
			fmt.Sprintf("%.4f", h.Units),
			fmt.Sprintf("%.2f", h.Price),
			fmt.Sprintf("%.2f", h.Value),
			fmt.Sprintf("%.2f%%", h.Weighting*100),
		})
	}
	table.Render()
}
