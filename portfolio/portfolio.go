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

// Package portfolio holds the mutable per-day state a backtest engine advances: a cash
// balance, per-ticker unit holdings, and the accumulators/flags the engine resets and
// fills in once per simulated day. Both engine variants (basic, realistic) drive the same
// Portfolio through the Accessor contract; realistic additionally calls ProcessDividends.
package portfolio

import (
	"sort"

	"github.com/rs/zerolog/log"
)

// DividendRecord is one (ticker, per-unit dividend) line recorded on a dividend ex-date,
// realistic mode only.
type DividendRecord struct {
	Ticker  string
	PerUnit float64
	Total   float64
}

// Portfolio is the mutable state the engine advances one day at a time: a cash balance,
// per-ticker unit holdings (never negative, per invariant P2), and the accumulators the
// engine reads when it emits a day's snapshots. Holdings iterate in sorted ticker order
// wherever emitted, so two runs over the same config/data produce byte-identical output
// (spec P8) regardless of Go's randomised map iteration order.
type Portfolio struct {
	CashBalance float64
	Holdings    map[string]float64

	// Per-day accumulators, cleared by DailyReset at the start of every simulated day.
	CashInflow     float64
	DividendIncome float64
	DidBuy         bool
	DidSell        bool
	DidRebalance   bool

	// Dividends is populated only by realistic mode's ProcessDividends; basic mode never
	// calls it and the slice stays empty for the life of the run.
	Dividends []DividendRecord
}

// New returns an empty Portfolio: no cash, no holdings. The caller (engine) funds it via
// AddCash on the first simulated day, per spec section 4.4/4.5 step 2.
func New() *Portfolio {
	return &Portfolio{
		Holdings: make(map[string]float64),
	}
}

// DailyReset clears the per-day accumulators and flags. Called once at the start of every
// simulated day, before any cashflow, dividend, or order processing for that day.
func (p *Portfolio) DailyReset() {
	p.CashInflow = 0
	p.DividendIncome = 0
	p.DidBuy = false
	p.DidSell = false
	p.DidRebalance = false
	p.Dividends = nil
}

// AddCash increases the cash balance and the day's cash-inflow accumulator. amount must be
// strictly positive; spec section 7 treats a non-positive cashflow as a programmer error.
func (p *Portfolio) AddCash(amount float64) error {
	if amount <= 0 {
		return ErrNonPositiveAmount
	}
	p.CashBalance += amount
	p.CashInflow += amount
	return nil
}

// Invest buys units of ticker at price using at most funds of cash. allowFractional selects
// between funds/price (fractional) and math.Floor(funds/price) (integer lots). Returns the
// number of units actually bought, which may be 0 (funds < price in integer mode) -- the
// caller (a realistic order) treats 0 units as a failed order; basic mode never sees 0
// because it always allows fractional shares. amount must be strictly positive.
func (p *Portfolio) Invest(ticker string, funds, price float64, allowFractional bool) (float64, error) {
	if funds <= 0 {
		return 0, ErrNonPositiveAmount
	}
	if price <= 0 {
		log.Warn().Str("Ticker", ticker).Float64("Price", price).Msg("invest called with non-positive price")
		return 0, nil
	}

	units := funds / price
	if !allowFractional {
		units = unitFloor(units)
	}
	if units <= 0 {
		return 0, nil
	}

	p.CashBalance -= units * price
	if p.Holdings == nil {
		p.Holdings = make(map[string]float64)
	}
	p.Holdings[ticker] += units
	p.DidBuy = true

	return units, nil
}

// Sell disposes of up to fundsNeeded worth of ticker at price, clamped to the units
// actually owned (the source's documented behaviour even after a missed settlement; see
// spec section 9's open question -- no error is raised, the sale is simply smaller).
// allowFractional selects fundsNeeded/price vs math.Ceil(fundsNeeded/price) before the
// clamp. Returns 0 if the ticker isn't held at all.
func (p *Portfolio) Sell(ticker string, fundsNeeded, price float64, allowFractional bool) (float64, error) {
	if fundsNeeded <= 0 {
		return 0, ErrNonPositiveAmount
	}

	owned := p.Holdings[ticker]
	if owned <= 0 {
		return 0, nil
	}
	if price <= 0 {
		log.Warn().Str("Ticker", ticker).Float64("Price", price).Msg("sell called with non-positive price")
		return 0, nil
	}

	units := fundsNeeded / price
	if !allowFractional {
		units = unitCeil(units)
	}
	if units > owned {
		units = owned
	}
	if units <= 0 {
		return 0, nil
	}

	p.Holdings[ticker] = owned - units
	if p.Holdings[ticker] <= 1e-12 {
		delete(p.Holdings, ticker)
	}
	p.CashBalance += units * price
	p.DidSell = true

	return units, nil
}

// GetTotalValue is cash plus the mark-to-market value of every holding at prices. A
// ticker held but missing from prices contributes 0, matching the Analyser's
// total_holding_value fill rule (spec section 4.7 step 4).
func (p *Portfolio) GetTotalValue(prices map[string]float64) float64 {
	total := p.CashBalance
	for ticker, units := range p.Holdings {
		total += units * prices[ticker]
	}
	return total
}

// Credit adds amount directly to the cash balance without counting it as a CashInflow --
// used for dividend reinvestment, which is investment income, not new capital (spec
// invariant P3 defines cash_inflow in terms of initial_investment and recurring amounts
// only).
func (p *Portfolio) Credit(amount float64) {
	p.CashBalance += amount
}

// ProcessDividends computes per-holding dividend income (units * per-unit) for every
// ticker in perUnitByTicker that the portfolio currently holds, records each as a
// DividendRecord (realistic mode only), and returns the total. The caller decides whether
// to add the total to cash (reinvest) or book it to DividendIncome.
func (p *Portfolio) ProcessDividends(perUnitByTicker map[string]float64) float64 {
	tickers := make([]string, 0, len(perUnitByTicker))
	for ticker := range perUnitByTicker {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)

	var total float64
	for _, ticker := range tickers {
		units, held := p.Holdings[ticker]
		if !held || units <= 0 {
			continue
		}
		perUnit := perUnitByTicker[ticker]
		if perUnit <= 0 {
			continue
		}
		lineTotal := units * perUnit
		p.Dividends = append(p.Dividends, DividendRecord{Ticker: ticker, PerUnit: perUnit, Total: lineTotal})
		total += lineTotal
	}
	return total
}

// SortedTickers returns the currently-held tickers in ascending order, the iteration order
// every snapshot emitter uses to keep output deterministic (P8).
func (p *Portfolio) SortedTickers() []string {
	tickers := make([]string, 0, len(p.Holdings))
	for ticker := range p.Holdings {
		tickers = append(tickers, ticker)
	}
	sort.Strings(tickers)
	return tickers
}

func unitFloor(units float64) float64 {
	whole := float64(int64(units))
	if whole > units {
		whole--
	}
	return whole
}

func unitCeil(units float64) float64 {
	whole := float64(int64(units))
	if whole < units {
		whole++
	}
	return whole
}
