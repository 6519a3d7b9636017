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
	"time"

	"github.com/penny-vault/pv-backtest/dataprep"
)

// priceIndex is a (ticker, date) -> Bar lookup built once from the prepared table, giving
// the per-day loop O(1) access instead of scanning each ticker's series per day.
type priceIndex map[string]map[int64]dataprep.Bar

func buildPriceIndex(table dataprep.Table) priceIndex {
	idx := make(priceIndex, len(table))
	for ticker, series := range table {
		byDay := make(map[int64]dataprep.Bar, len(series))
		for _, bar := range series {
			byDay[normalizeDay(bar.Date)] = bar
		}
		idx[ticker] = byDay
	}
	return idx
}

// Bar returns the prepared bar for (ticker, date), if any.
func (idx priceIndex) Bar(ticker string, date time.Time) (dataprep.Bar, bool) {
	byDay, ok := idx[ticker]
	if !ok {
		return dataprep.Bar{}, false
	}
	bar, ok := byDay[normalizeDay(date)]
	return bar, ok
}

// Price returns BasePrice for (ticker, date), if any.
func (idx priceIndex) Price(ticker string, date time.Time) (float64, bool) {
	bar, ok := idx.Bar(ticker, date)
	if !ok {
		return 0, false
	}
	return bar.BasePrice, true
}

// Dividend returns the per-unit dividend for (ticker, date); 0 if the bar doesn't exist or
// carries none.
func (idx priceIndex) Dividend(ticker string, date time.Time) float64 {
	bar, ok := idx.Bar(ticker, date)
	if !ok {
		return 0
	}
	return bar.Dividend
}

// pricesOn returns a ticker->BasePrice snapshot for every ticker in tickers that has a bar
// on date.
func (idx priceIndex) pricesOn(tickers []string, date time.Time) map[string]float64 {
	prices := make(map[string]float64, len(tickers))
	for _, ticker := range tickers {
		if p, ok := idx.Price(ticker, date); ok {
			prices[ticker] = p
		}
	}
	return prices
}

func normalizeDay(d time.Time) int64 {
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC).Unix()
}

// normalizedWeights restricts cfg's target weights to active and renormalises them to sum
// to 1 (spec section 4.4 step 6: "weights restricted to active tickers, renormalised to
// sum to 1").
func normalizedWeights(target map[string]float64, active []string) map[string]float64 {
	var sum float64
	restricted := make(map[string]float64, len(active))
	for _, ticker := range active {
		if w, ok := target[ticker]; ok {
			restricted[ticker] = w
			sum += w
		}
	}
	if sum <= 0 {
		return map[string]float64{}
	}
	out := make(map[string]float64, len(restricted))
	for ticker, w := range restricted {
		out[ticker] = w / sum
	}
	return out
}

func dateSet(dates []time.Time) map[int64]bool {
	set := make(map[int64]bool, len(dates))
	for _, d := range dates {
		set[normalizeDay(d)] = true
	}
	return set
}
