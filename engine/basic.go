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

// Package engine is the per-day state machine that drives a Portfolio through a backtest:
// cashflows, rebalances, dividends, and (realistic mode) next-day order settlement. Basic
// and Realistic are the two variants described in spec sections 4.4/4.5; they share the
// Portfolio contract and a large part of their per-day shape but differ in settlement
// timing and rebalance gating (see DESIGN.md's Open Question decision #1).
package engine

import (
	"sort"
	"time"

	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/portfolio"
	"github.com/rs/zerolog/log"
)

// RunBasic executes the idealised-settlement engine variant: every investment takes
// effect instantly at the day's base_price, fractional shares are always allowed, and
// rebalancing runs on schedule regardless of whether every component is tradable that day
// (spec section 4.4).
func RunBasic(cfg Config, cal *calendar.Calendar, table dataprep.Table) (*Result, error) {
	idx := buildPriceIndex(table)
	tickers := cfg.Tickers()

	rebalanceDates := dateSet(GenerateRecurringDates(cfg.StartDate, cfg.EndDate, cfg.Strategy.RebalanceFrequency))
	var cashflowDates map[int64]bool
	if cfg.RecurringInvestment != nil {
		cashflowDates = dateSet(GenerateRecurringDates(cfg.StartDate, cfg.EndDate, cfg.RecurringInvestment.Frequency))
	}

	p := portfolio.New()
	result := &Result{Config: cfg}
	invested := false

	for _, row := range cal.Rows {
		d := row.Date
		p.DailyReset()

		if d.Equal(cfg.StartDate) {
			if err := p.AddCash(cfg.InitialInvestment); err != nil {
				return nil, err
			}
			invested = false
		}
		if cashflowDates[normalizeDay(d)] {
			if err := p.AddCash(cfg.RecurringInvestment.Amount); err != nil {
				return nil, err
			}
			invested = false
		}

		if d.Before(cal.FirstActiveDate) {
			result.CashSnapshots = append(result.CashSnapshots, cashSnapshotOf(d, p))
			continue
		}

		active := cal.ActiveTickers(d)
		prices := idx.pricesOn(tickers, d)

		isRebalanceDay := rebalanceDates[normalizeDay(d)]
		if !invested || isRebalanceDay {
			weights := normalizedWeights(cfg.TargetWeights, active)

			if isRebalanceDay {
				total := p.GetTotalValue(prices)
				p.Holdings = make(map[string]float64)
				p.CashBalance = total
				investInOrder(p, weights, prices, true, total)
				p.DidRebalance = true
			} else {
				investInOrder(p, weights, prices, true, p.CashBalance)
			}
			invested = true
		}

		result.CashSnapshots = append(result.CashSnapshots, cashSnapshotOf(d, p))
		result.HoldingSnapshots = append(result.HoldingSnapshots, holdingSnapshotsOf(d, p, prices)...)
	}

	return result, nil
}

// investInOrder invests available cash across weights in sorted-ticker order, so two runs
// of the same config/data invest in the same sequence (P8).
func investInOrder(p *portfolio.Portfolio, weights map[string]float64, prices map[string]float64, allowFractional bool, available float64) {
	tickers := make([]string, 0, len(weights))
	for t := range weights {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)

	for _, ticker := range tickers {
		price, ok := prices[ticker]
		if !ok || price <= 0 {
			continue
		}
		funds := available * weights[ticker]
		if funds <= 0 {
			continue
		}
		if _, err := p.Invest(ticker, funds, price, allowFractional); err != nil {
			log.Warn().Err(err).Str("Ticker", ticker).Msg("invest failed during allocation")
		}
	}
}

func cashSnapshotOf(d time.Time, p *portfolio.Portfolio) CashSnapshot {
	return CashSnapshot{
		Date:           d,
		CashBalance:    p.CashBalance,
		CashInflow:     p.CashInflow,
		DidRebalance:   p.DidRebalance,
		DividendIncome: p.DividendIncome,
		DidBuy:         p.DidBuy,
		DidSell:        p.DidSell,
	}
}

func holdingSnapshotsOf(d time.Time, p *portfolio.Portfolio, prices map[string]float64) []HoldingSnapshot {
	tickers := p.SortedTickers()
	snaps := make([]HoldingSnapshot, 0, len(tickers))
	for _, ticker := range tickers {
		snaps = append(snaps, HoldingSnapshot{
			Date:      d,
			Ticker:    ticker,
			Units:     p.Holdings[ticker],
			BasePrice: prices[ticker],
		})
	}
	return snaps
}
