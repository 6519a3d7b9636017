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
	"sort"
	"time"

	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/portfolio"
	"github.com/rs/zerolog/log"
)

// realisticRun carries the per-run mutable state the spec section 4.5 per-day procedure
// needs beyond the Portfolio itself: the order queue, the rebalance clock, and the
// monotonic insertion counter that breaks ties between same-day, same-ticker orders.
type realisticRun struct {
	cfg                    Config
	cal                    *calendar.Calendar
	idx                    priceIndex
	tickers                []string
	portfolio              *portfolio.Portfolio
	orders                 []*Order
	insertionSeq           int
	previousRebalanceDate  time.Time
	dividendDates          map[int64]bool
	cashflowDates          map[int64]bool
}

// RunRealistic executes the next-trading-day-settlement engine variant: orders are queued
// against target values and settle on the ticker's next trading date, dividends are
// processed explicitly from the prepared per-bar dividend column, and rebalancing only
// fires when every active ticker is also trading that day and the configured interval has
// elapsed (spec section 4.5).
func RunRealistic(cfg Config, cal *calendar.Calendar, table dataprep.Table) (*Result, error) {
	run := &realisticRun{
		cfg:       cfg,
		cal:       cal,
		idx:       buildPriceIndex(table),
		tickers:   cfg.Tickers(),
		portfolio: portfolio.New(),
	}
	run.previousRebalanceDate = cal.FirstActiveDate
	run.dividendDates = run.collectDividendDates(table)
	if cfg.RecurringInvestment != nil {
		run.cashflowDates = dateSet(GenerateRecurringDates(cfg.StartDate, cfg.EndDate, cfg.RecurringInvestment.Frequency))
	}

	result := &Result{Config: cfg}

	for _, row := range cal.Rows {
		d := row.Date
		p := run.portfolio
		p.DailyReset()
		placeOrder := false

		if d.Equal(cfg.StartDate) {
			if err := p.AddCash(cfg.InitialInvestment); err != nil {
				return nil, err
			}
			placeOrder = true
		}
		if run.cashflowDates[normalizeDay(d)] {
			if err := p.AddCash(cfg.RecurringInvestment.Amount); err != nil {
				return nil, err
			}
			placeOrder = true
		}

		if d.Before(cal.FirstActiveDate) {
			result.CashSnapshots = append(result.CashSnapshots, cashSnapshotOf(d, p))
			continue
		}

		prices := run.idx.pricesOn(run.tickers, d)

		if run.dividendDates[normalizeDay(d)] {
			perUnit := make(map[string]float64, len(run.tickers))
			for _, ticker := range run.tickers {
				if div := run.idx.Dividend(ticker, d); div > 0 {
					perUnit[ticker] = div
				}
			}
			total := p.ProcessDividends(perUnit)
			if total > 0 {
				if cfg.Strategy.ReinvestDividends {
					p.Credit(total)
					placeOrder = true
				} else {
					p.DividendIncome += total
				}
			}
		}

		rebalancing := run.shouldRebalance(d)
		if placeOrder || rebalancing {
			active := cal.ActiveTickers(d)
			weights := normalizedWeights(cfg.TargetWeights, active)

			if rebalancing {
				run.queueRebalanceOrders(d, weights, prices)
				p.DidRebalance = true
				run.previousRebalanceDate = d
			} else {
				run.queueBuyOrders(d, weights, p.CashBalance)
			}
		}

		if err := run.executeOrders(d); err != nil {
			return nil, err
		}

		result.CashSnapshots = append(result.CashSnapshots, cashSnapshotOf(d, p))
		result.HoldingSnapshots = append(result.HoldingSnapshots, holdingSnapshotsOf(d, p, prices)...)
		result.DividendSnapshots = append(result.DividendSnapshots, dividendSnapshotsOf(d, p)...)
	}

	result.Orders = run.orders
	return result, nil
}

// collectDividendDates scans the prepared table for every date any configured ticker
// carries a positive Dividend value.
func (run *realisticRun) collectDividendDates(table dataprep.Table) map[int64]bool {
	dates := make(map[int64]bool)
	for _, ticker := range run.tickers {
		for _, bar := range table[ticker] {
			if bar.Dividend > 0 {
				dates[normalizeDay(bar.Date)] = true
			}
		}
	}
	return dates
}

// shouldRebalance is true iff every active ticker is trading on d (the market is open for
// every component) and the configured interval has elapsed since previousRebalanceDate.
func (run *realisticRun) shouldRebalance(d time.Time) bool {
	freq := run.cfg.Strategy.RebalanceFrequency
	if freq == Never {
		return false
	}
	if !run.cal.AllActiveTrading(d) {
		return false
	}
	return intervalElapsed(run.previousRebalanceDate, d, freq)
}

func intervalElapsed(prev, d time.Time, freq Frequency) bool {
	switch freq {
	case Daily:
		return d.After(prev)
	case Weekly:
		return !d.Before(prev.AddDate(0, 0, 7))
	case Monthly:
		return !d.Before(AddMonthsClamped(prev, 1))
	case Quarterly:
		return !d.Before(AddMonthsClamped(prev, 3))
	case Yearly:
		return !d.Before(AddMonthsClamped(prev, 12))
	default:
		return false
	}
}

// queueBuyOrders sizes a buy order per ticker at weight*availableCash, in sorted-ticker
// order (spec section 4.5 step 6 "else" branch).
func (run *realisticRun) queueBuyOrders(d time.Time, weights map[string]float64, availableCash float64) {
	for _, ticker := range sortedKeysOf(weights) {
		targetValue := availableCash * weights[ticker]
		run.queueOrder(d, ticker, Buy, targetValue)
	}
}

// queueRebalanceOrders computes the correction needed to reach each target weight and
// queues a buy (positive correction) or sell (negative correction) order, in sorted-ticker
// order (spec section 4.5's rebalance procedure).
func (run *realisticRun) queueRebalanceOrders(d time.Time, weights map[string]float64, prices map[string]float64) {
	total := run.portfolio.GetTotalValue(prices)
	for _, ticker := range sortedKeysOf(weights) {
		targetValue := total * weights[ticker]
		actualValue := run.portfolio.Holdings[ticker] * prices[ticker]
		correction := targetValue - actualValue
		if correction > 0 {
			run.queueOrder(d, ticker, Buy, correction)
		} else if correction < 0 {
			run.queueOrder(d, ticker, Sell, -correction)
		}
	}
}

// queueOrder appends a new pending Order for ticker, dropping it silently if targetValue
// is at or below the 0.01 dust threshold (spec section 4.5's floating-point defence). The
// settlement date is the ticker's next trading date at or after d; if none exists the
// order is still queued with a nil execution date and stays pending at end of run (spec's
// NoTradingDayBeforeEnd, non-fatal).
func (run *realisticRun) queueOrder(d time.Time, ticker string, side Side, targetValue float64) {
	if targetValue <= minOrderValue {
		return
	}

	order := &Order{
		Ticker:       ticker,
		TargetValue:  targetValue,
		DatePlaced:   d,
		Side:         side,
		Status:       Pending,
		insertionSeq: run.insertionSeq,
	}
	run.insertionSeq++

	if execDate, ok := run.cal.NextTradingDate(ticker, d); ok {
		order.DateExecuted = &execDate
	} else {
		log.Warn().Str("Ticker", ticker).Time("DatePlaced", d).Msg("no trading day before end; order stays pending")
	}

	run.orders = append(run.orders, order)
}

// executeOrders settles every pending order whose DateExecuted == d, in insertion order
// (spec section 5's ordering guarantee). A missing settlement price is fatal (spec
// section 7's MissingPriceForSettlement).
func (run *realisticRun) executeOrders(d time.Time) error {
	for _, order := range run.orders {
		if order.Status != Pending || order.DateExecuted == nil || !order.DateExecuted.Equal(d) {
			continue
		}

		price, ok := run.idx.Price(order.Ticker, d)
		if !ok {
			return ErrMissingPriceForSettlement
		}

		var units float64
		var err error
		switch order.Side {
		case Buy:
			units, err = run.portfolio.Invest(order.Ticker, order.TargetValue, price, run.cfg.Strategy.FractionalShares)
		case Sell:
			units, err = run.portfolio.Sell(order.Ticker, order.TargetValue, price, run.cfg.Strategy.FractionalShares)
		}
		if err != nil {
			return err
		}

		order.BasePrice = price
		order.Units = units
		if units > 0 {
			order.Status = Fulfilled
		} else {
			order.Status = Failed
		}
	}
	return nil
}

func dividendSnapshotsOf(d time.Time, p *portfolio.Portfolio) []DividendSnapshot {
	snaps := make([]DividendSnapshot, 0, len(p.Dividends))
	for _, rec := range p.Dividends {
		snaps = append(snaps, DividendSnapshot{
			Date:            d,
			Ticker:          rec.Ticker,
			DividendPerUnit: rec.PerUnit,
			TotalDividend:   rec.Total,
		})
	}
	return snaps
}

func sortedKeysOf(m map[string]float64) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
