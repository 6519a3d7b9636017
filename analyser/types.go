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

// Package analyser consumes an engine.Result's four snapshot streams and derives the
// daily valuation series, returns, drawdowns, period aggregates, win rate, and chart-ready
// series spec section 4.7 describes. It is the only package in this repository that reads
// gonum/stat directly -- every other annualisation/drawdown computation in the codebase
// flows through here.
package analyser

import "time"

// DailyValuation is one enriched day of the backtest: the engine's raw cash snapshot plus
// everything the Analyser derives from it and the day's holdings (spec section 4.7
// points 1-7).
type DailyValuation struct {
	Date                time.Time
	CashBalance         float64
	CashInflow          float64
	DividendIncome      float64
	DidRebalance        bool
	DidBuy              bool
	DidSell             bool
	Trading             bool // at least one configured ticker traded (non-forward-filled) this date

	CumulativeCashflow   float64
	TotalHoldingValue    float64
	TotalPortfolioValue  float64
	NetDailyGain         float64
	NetCumulativeGain    float64
	NetDailyReturn       float64
	NetCumulativeReturn  float64

	Holdings []HoldingValuation
}

// HoldingValuation is one (date, ticker) row's contribution to a DailyValuation: its
// market value and its share of that day's total holding value.
type HoldingValuation struct {
	Ticker   string
	Units    float64
	Price    float64
	Value    float64
	Weighting float64
}

// PeriodReturn is one compounded-return bucket with a human-formatted label (spec
// section 4.7 point 7, supplemented per-horizon labels).
type PeriodReturn struct {
	Period      string
	Return      float64
	PeriodStart time.Time
}

// DrawdownEpisode is one peak-to-trough-to-recovery excursion of the wealth index.
type DrawdownEpisode struct {
	Start       time.Time
	End         time.Time
	ValleyDate  time.Time
	LengthDays  int
	MaxDrawdown float64 // non-positive fraction
}

// Metrics are the overall portfolio-level summary statistics (spec section 6's
// "results.metrics").
type Metrics struct {
	TotalContributions float64
	FinalValue         float64
	CumulativeGain     float64
	CumulativeReturn   float64
	CAGR               float64
	CMGR               float64
	Sharpe             float64
	Volatility         float64
}

// WinLoseAnalysis is the monthly win-rate breakdown (spec section 4.7's "win rate").
type WinLoseAnalysis struct {
	Win  int
	Loss int
	Rate float64
}

// HistogramBucket is one fixed bucket of the monthly-return histogram (spec section 4.7,
// six ordered buckets, zeros included).
type HistogramBucket struct {
	Bucket string
	Count  int
}

// BalanceEntry is one ticker's value and weight within a day's portfolio-balance series.
type BalanceEntry struct {
	Ticker string
	Value  float64
	Weight float64
}

// BalanceSnapshot is one date's full portfolio-balance breakdown.
type BalanceSnapshot struct {
	Date     time.Time
	Holdings []BalanceEntry
}

// GrowthPoint is one day of the chart-ready portfolio-growth series.
type GrowthPoint struct {
	Date          time.Time
	Contributions float64
	Gain          float64
	Value         float64
}

// ChartData is the chart-ready payload spec section 6 describes under "results.chart_data".
type ChartData struct {
	PortfolioGrowth          []GrowthPoint
	Returns                  map[string][]PeriodReturn
	MonthlyReturnsHistogram  []HistogramBucket
	PortfolioBalance         []BalanceSnapshot
	BenchmarkGrowth          BenchmarkGrowth
}

// BenchmarkGrowth is the merged output of the Benchmark Simulator, pivoted wide and
// labelled (spec section 6).
type BenchmarkGrowth struct {
	Dates  []time.Time
	Series map[string][]float64 // ticker -> value per Dates index
	Labels map[string]string    // ticker -> "TICKER - display name"
}

// OrderFlow is one day's did_buy/did_rebalance/did_sell flags joined back onto the cash
// snapshot, grounded on the original implementation's _enrich_cash_with_order_flags
// (spec supplement C.4).
type OrderFlow struct {
	Date         time.Time
	DidBuy       bool
	DidSell      bool
	DidRebalance bool
}

// DividendSummary is one day's dividend income alongside its yield against the prior
// day's total portfolio value (spec supplement C.4's dividend-yield time series).
type DividendSummary struct {
	Date           time.Time
	DividendIncome float64
	DividendYield  float64
}

// Report is the Analyser's full output.
type Report struct {
	Valuations      []DailyValuation
	Metrics         Metrics
	MaxDrawdown     DrawdownEpisode
	MonthlyWinLose  WinLoseAnalysis
	BestPeriods     map[string]PeriodReturn
	WorstPeriods    map[string]PeriodReturn
	OrderFlow       []OrderFlow
	DividendSummary []DividendSummary
	ChartData       ChartData
}

// Horizon names the period-aggregation buckets spec section 4.7 requires.
type Horizon string

const (
	HorizonDay     Horizon = "day"
	HorizonWeek    Horizon = "week"
	HorizonMonth   Horizon = "month"
	HorizonQuarter Horizon = "quarter"
	HorizonYear    Horizon = "year"
)

var horizons = []Horizon{HorizonDay, HorizonWeek, HorizonMonth, HorizonQuarter, HorizonYear}

// tradingDaysPerYear is the CAGR/Sharpe/volatility annualisation convention (DESIGN.md's
// Open Question decision #4): 252 trading days rather than a 365-calendar-day convention,
// used for every annualisation in this package.
const tradingDaysPerYear = 252.0
