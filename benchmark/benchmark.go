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

package benchmark

import (
	"sort"
	"time"

	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/rs/zerolog/log"
)

// cashflow is one (date, amount) entry of the replay schedule.
type cashflow struct {
	date   time.Time
	amount float64
}

// Simulate replays cfg's cashflow schedule against every benchmark in table whose active
// window fully covers [cfg.StartDate, cfg.EndDate], producing a long-format value series
// per eligible ticker plus its wide pivot (spec section 4.6). Tickers that don't cover the
// full period are excluded silently (BenchmarkIneligible, non-fatal) and listed in
// Result.Ineligible.
func Simulate(cfg Config, table dataprep.Table) (*Result, error) {
	schedule := buildSchedule(cfg)

	tickers := make([]string, 0, len(table))
	for ticker := range table {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	result := &Result{Wide: WideSeries{Values: make(map[string][]float64)}}
	dateSet := make(map[int64]bool)

	for _, ticker := range tickers {
		series := table[ticker]
		if !covers(series, cfg.StartDate, cfg.EndDate) {
			log.Warn().Str("Ticker", ticker).Msg("benchmark ineligible: active window does not cover full backtest period")
			result.Ineligible = append(result.Ineligible, ticker)
			continue
		}

		sorted := make(dataprep.Series, len(series))
		copy(sorted, series)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

		priceByDay := make(map[int64]float64, len(sorted))
		for _, bar := range sorted {
			priceByDay[normalizeDay(bar.Date)] = bar.BasePrice
		}

		cashflowByDay := make(map[int64]float64, len(schedule))
		for _, cf := range schedule {
			cashflowByDay[normalizeDay(cf.date)] += cf.amount
		}

		var cumulativeUnits float64
		for _, bar := range sorted {
			d := bar.Date
			if bar.Date.Before(cfg.StartDate) || bar.Date.After(cfg.EndDate) {
				continue
			}
			key := normalizeDay(d)
			if amount, ok := cashflowByDay[key]; ok && amount > 0 {
				if bar.BasePrice > 0 {
					cumulativeUnits += amount / bar.BasePrice
				}
			}
			value := cumulativeUnits * bar.BasePrice

			result.Long = append(result.Long, LongRow{Date: d, Ticker: ticker, Value: value})
			dateSet[key] = true
		}
	}

	if len(result.Ineligible) == len(tickers) {
		return nil, ErrNoEligibleBenchmarks
	}

	result.Wide = pivot(result.Long, dateSet)
	return result, nil
}

// buildSchedule reproduces the engine's cashflow schedule: initial_investment at start,
// plus the recurring amount on every date engine.GenerateRecurringDates yields (spec
// section 4.6 step 1).
func buildSchedule(cfg Config) []cashflow {
	schedule := []cashflow{{date: cfg.StartDate, amount: cfg.InitialInvestment}}
	if cfg.RecurringInvestment == nil {
		return schedule
	}
	for _, d := range engine.GenerateRecurringDates(cfg.StartDate, cfg.EndDate, cfg.RecurringInvestment.Frequency) {
		schedule = append(schedule, cashflow{date: d, amount: cfg.RecurringInvestment.Amount})
	}
	return schedule
}

// covers reports whether series' observed date range fully contains [start, end] (spec
// section 4.6's benchmark eligibility rule).
func covers(series dataprep.Series, start, end time.Time) bool {
	if len(series) == 0 {
		return false
	}
	first, last := series[0].Date, series[0].Date
	for _, bar := range series[1:] {
		if bar.Date.Before(first) {
			first = bar.Date
		}
		if bar.Date.After(last) {
			last = bar.Date
		}
	}
	return !first.After(start) && !last.Before(end)
}

// pivot converts the long rows into a wide series keyed by ticker, aligned to the sorted
// union of observed dates (spec section 4.6's "pivoted to wide form").
func pivot(rows []LongRow, dateSet map[int64]bool) WideSeries {
	seen := make(map[int64]time.Time, len(dateSet))
	for _, row := range rows {
		key := normalizeDay(row.Date)
		if _, ok := seen[key]; !ok {
			seen[key] = normalizeDay2(row.Date)
		}
	}
	dates := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		dates = append(dates, d)
	}
	sort.Slice(dates, func(i, j int) bool { return dates[i].Before(dates[j]) })

	indexByDay := make(map[int64]int, len(dates))
	for i, d := range dates {
		indexByDay[normalizeDay(d)] = i
	}

	values := make(map[string][]float64)
	for _, row := range rows {
		col, ok := values[row.Ticker]
		if !ok {
			col = make([]float64, len(dates))
			values[row.Ticker] = col
		}
		col[indexByDay[normalizeDay(row.Date)]] = row.Value
	}

	return WideSeries{Dates: dates, Values: values}
}

func normalizeDay(d time.Time) int64 {
	return normalizeDay2(d).Unix()
}

func normalizeDay2(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
