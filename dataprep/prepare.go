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

package dataprep

import (
	"context"
	"time"

	"github.com/penny-vault/pv-backtest/data"
)

// Prepare implements the Data Preparer contract: select the price column by mode, restrict
// to tickers and the date window, join native currency and FX rate, and rewrite pence-quoted
// prices to pounds. Forward-fill of non-trading days is assumed already performed upstream;
// Prepare only carries the IsTradingDay flag through.
func Prepare(ctx context.Context, manager *data.Manager, mode Mode, baseCurrency string, tickers []string, start, end time.Time) (Table, error) {
	if len(tickers) == 0 {
		return nil, ErrNoTickers
	}

	rawBars, err := manager.Prices(ctx, tickers, start, end)
	if err != nil {
		return nil, err
	}
	if len(rawBars) == 0 {
		return nil, ErrEmptyPreparedData
	}

	prepared := make(Table, len(rawBars))
	for ticker, series := range rawBars {
		meta, err := manager.Metadata(ticker)
		if err != nil {
			return nil, ErrUnknownTicker
		}

		bars := make([]Bar, 0, len(series))
		for _, raw := range series {
			bar, err := enrich(ctx, manager, raw, meta, mode, baseCurrency)
			if err != nil {
				return nil, err
			}
			bars = append(bars, bar)
		}
		prepared[ticker] = bars
	}

	return prepared, nil
}

// Benchmarks prepares the benchmark table: the same Data Preparer contract, but restricted
// to tickers whose advertised active window fully covers [start, end]. Tickers that don't
// qualify are returned separately rather than silently dropped.
func Benchmarks(ctx context.Context, manager *data.Manager, mode Mode, baseCurrency string, tickers []string, start, end time.Time) (Table, []string, error) {
	rawBars, ineligible, err := manager.Benchmarks(ctx, tickers, start, end)
	if err != nil {
		return nil, nil, err
	}

	prepared := make(Table, len(rawBars))
	for ticker, series := range rawBars {
		meta, err := manager.Metadata(ticker)
		if err != nil {
			ineligible = append(ineligible, ticker)
			continue
		}

		bars := make([]Bar, 0, len(series))
		for _, raw := range series {
			bar, err := enrich(ctx, manager, raw, meta, mode, baseCurrency)
			if err != nil {
				return nil, nil, err
			}
			bars = append(bars, bar)
		}
		prepared[ticker] = bars
	}

	return prepared, ineligible, nil
}

func enrich(ctx context.Context, manager *data.Manager, raw data.PriceBar, meta *data.AssetMetadata, mode Mode, baseCurrency string) (Bar, error) {
	nativePrice := raw.AdjustedClose
	dividend := 0.0
	if mode == Realistic {
		nativePrice = raw.NativePrice
		dividend = raw.Dividend
	}

	currency, nativePrice := normalizePence(meta.NativeCurrency, nativePrice)

	rate, err := manager.FXRate(ctx, currency, baseCurrency, raw.Date)
	if err != nil {
		return Bar{}, err
	}

	return Bar{
		Date:           raw.Date,
		Ticker:         raw.Ticker,
		NativeCurrency: currency,
		NativePrice:    nativePrice,
		ExchangeRate:   rate,
		BasePrice:      nativePrice * rate,
		IsTradingDay:   raw.IsTradingDay,
		Dividend:       dividend,
	}, nil
}

// normalizePence rewrites a GBX-quoted price to GBP by dividing by 100, per the Data
// Preparer's pence-rewrite step.
func normalizePence(currency string, price float64) (string, float64) {
	if currency == data.PenceCode {
		return data.PoundCode, price / 100
	}
	return currency, price
}
