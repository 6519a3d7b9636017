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

// Package calendar builds the dense daily calendar the engine's hot loop walks: for every
// date in [start, end] it tracks which tickers are "active" (within their first/last
// observation window in the prepared table) and which are "trading" (a real, non-forward-
// filled bar was observed that day). It is materialised both as a date-ordered slice, for
// the engine's sequential walk, and a hash map from date to row index, for O(1) day lookups
// -- Design Note 3.
package calendar

import (
	"sort"
	"time"

	"github.com/penny-vault/pv-backtest/dataprep"
)

// Row is one day of the calendar: the set of tickers active on Date and, as a subset, the
// tickers that actually traded (observed a real bar) on Date.
type Row struct {
	Date           time.Time
	ActiveTickers  map[string]bool
	TradingTickers map[string]bool
}

// Calendar is the dense [start, end] calendar described in spec section 4.1, materialised
// both as an ordered slice (Rows) and a date-to-row-index hash map (byDate) for O(1) lookups in
// the engine's per-day loop.
type Calendar struct {
	Rows            []Row
	FirstActiveDate time.Time

	byDate map[int64]int
}

// activeRange tracks the first and last date on which a ticker is observed in the
// prepared table, per spec's ticker_active_range.
type activeRange struct {
	first time.Time
	last  time.Time
}

// Build constructs the dense calendar over [start, end] from the Data Preparer's output.
// bars maps ticker -> its prepared rows (not assumed sorted; Build sorts defensively).
func Build(bars map[string]dataprep.Series, start, end time.Time) *Calendar {
	ranges := make(map[string]activeRange, len(bars))
	tradingByDay := make(map[int64]map[string]bool)

	for ticker, series := range bars {
		sorted := make(dataprep.Series, len(series))
		copy(sorted, series)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i].Date.Before(sorted[j].Date) })

		if len(sorted) == 0 {
			continue
		}
		ranges[ticker] = activeRange{first: sorted[0].Date, last: sorted[len(sorted)-1].Date}

		for _, bar := range sorted {
			if !bar.IsTradingDay {
				continue
			}
			key := dayKey(bar.Date)
			if tradingByDay[key] == nil {
				tradingByDay[key] = make(map[string]bool)
			}
			tradingByDay[key][ticker] = true
		}
	}

	days := denseDates(start, end)
	rows := make([]Row, len(days))
	byDate := make(map[int64]int, len(days))
	firstActive := time.Time{}

	for i, d := range days {
		key := dayKey(d)
		byDate[key] = i

		active := make(map[string]bool)
		for ticker, rng := range ranges {
			if !d.Before(rng.first) && !d.After(rng.last) {
				active[ticker] = true
			}
		}
		trading := tradingByDay[key]
		if trading == nil {
			trading = make(map[string]bool)
		}

		rows[i] = Row{Date: d, ActiveTickers: active, TradingTickers: trading}

		if firstActive.IsZero() && len(active) > 0 {
			firstActive = d
		}
	}

	return &Calendar{Rows: rows, FirstActiveDate: firstActive, byDate: byDate}
}

// Row looks up the calendar row for d, in O(1). ok is false if d falls outside the built
// range.
func (c *Calendar) Row(d time.Time) (Row, bool) {
	idx, ok := c.byDate[dayKey(d)]
	if !ok {
		return Row{}, false
	}
	return c.Rows[idx], true
}

// ActiveTickers returns the sorted, active ticker set on d -- sorted so callers that
// iterate it (weight normalisation, order queueing) produce deterministic output (P8).
func (c *Calendar) ActiveTickers(d time.Time) []string {
	row, ok := c.Row(d)
	if !ok {
		return nil
	}
	return sortedKeys(row.ActiveTickers)
}

// TradingTickers returns the sorted, trading ticker set on d.
func (c *Calendar) TradingTickers(d time.Time) []string {
	row, ok := c.Row(d)
	if !ok {
		return nil
	}
	return sortedKeys(row.TradingTickers)
}

// IsTrading reports whether ticker traded (a real bar, not a forward-fill) on d.
func (c *Calendar) IsTrading(d time.Time, ticker string) bool {
	row, ok := c.Row(d)
	if !ok {
		return false
	}
	return row.TradingTickers[ticker]
}

// AllActiveTrading reports whether every active ticker on d is also a trading ticker on
// d -- the realistic engine's should_rebalance gate (spec section 4.5).
func (c *Calendar) AllActiveTrading(d time.Time) bool {
	row, ok := c.Row(d)
	if !ok || len(row.ActiveTickers) == 0 {
		return false
	}
	for ticker := range row.ActiveTickers {
		if !row.TradingTickers[ticker] {
			return false
		}
	}
	return true
}

// NextTradingDate returns the earliest date d' >= target such that ticker trades on d',
// scanning forward through the calendar. ok is false if no such date exists before the
// calendar's end (spec's NoTradingDayBeforeEnd, non-fatal).
func (c *Calendar) NextTradingDate(ticker string, target time.Time) (time.Time, bool) {
	idx, ok := c.byDate[dayKey(target)]
	if !ok {
		return time.Time{}, false
	}
	for i := idx; i < len(c.Rows); i++ {
		if c.Rows[i].TradingTickers[ticker] {
			return c.Rows[i].Date, true
		}
	}
	return time.Time{}, false
}

func denseDates(start, end time.Time) []time.Time {
	start = normalize(start)
	end = normalize(end)
	days := make([]time.Time, 0, int(end.Sub(start).Hours()/24)+1)
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		days = append(days, d)
	}
	return days
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func dayKey(d time.Time) int64 {
	return normalize(d).Unix()
}

func normalize(d time.Time) time.Time {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}
