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

package analyser

import (
	"sort"

	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/rs/zerolog/log"
)

// Analyse derives a full Report from an engine.Result's four snapshot streams, joining
// each day's holdings, computing gains/returns/cumulative series, drawdowns, period
// aggregates, win rate, histogram, and chart-ready series (spec section 4.7). cal is the
// same Calendar the run was built against; it supplies each date's trading-ticker set.
func Analyse(result *engine.Result, cal *calendar.Calendar) (*Report, error) {
	if len(result.CashSnapshots) == 0 {
		return nil, ErrEmptyResult
	}

	holdingsByDate := groupHoldings(result.HoldingSnapshots)

	valuations := make([]DailyValuation, 0, len(result.CashSnapshots))
	var cumulativeCashflow, cumulativeGain, prevTotalValue float64

	for i, cash := range result.CashSnapshots {
		d := cash.Date
		holdings := buildHoldings(holdingsByDate[d.Unix()])

		var totalHoldingValue float64
		for _, h := range holdings {
			totalHoldingValue += h.Value
		}
		for j := range holdings {
			if totalHoldingValue > 0 {
				holdings[j].Weighting = holdings[j].Value / totalHoldingValue
			}
		}

		totalPortfolioValue := cash.CashBalance + totalHoldingValue
		cumulativeCashflow += cash.CashInflow

		var dailyGain float64
		if i == 0 {
			dailyGain = totalPortfolioValue - cash.CashInflow
		} else {
			dailyGain = totalPortfolioValue - prevTotalValue - cash.CashInflow
		}
		cumulativeGain += dailyGain

		var dailyReturn float64
		if prevTotalValue > 0 {
			dailyReturn = dailyGain / prevTotalValue
		}

		var cumulativeReturn float64
		if cumulativeCashflow > 0 {
			cumulativeReturn = cumulativeGain / cumulativeCashflow
		}

		trading := len(cal.TradingTickers(d)) > 0

		valuations = append(valuations, DailyValuation{
			Date:                d,
			CashBalance:         cash.CashBalance,
			CashInflow:          cash.CashInflow,
			DividendIncome:      cash.DividendIncome,
			DidRebalance:        cash.DidRebalance,
			DidBuy:              cash.DidBuy,
			DidSell:             cash.DidSell,
			Trading:             trading,
			CumulativeCashflow:  cumulativeCashflow,
			TotalHoldingValue:   totalHoldingValue,
			TotalPortfolioValue: totalPortfolioValue,
			NetDailyGain:        dailyGain,
			NetCumulativeGain:   cumulativeGain,
			NetDailyReturn:      dailyReturn,
			NetCumulativeReturn: cumulativeReturn,
			Holdings:            holdings,
		})

		prevTotalValue = totalPortfolioValue
	}

	rets := tradingReturns(valuations)
	cagr, cmgr := cagrAndCMGR(rets)

	last := valuations[len(valuations)-1]
	metrics := Metrics{
		TotalContributions: last.CumulativeCashflow,
		FinalValue:         last.TotalPortfolioValue,
		CumulativeGain:     last.NetCumulativeGain,
		CumulativeReturn:   last.NetCumulativeReturn,
		CAGR:               cagr,
		CMGR:               cmgr,
		Sharpe:             sharpeRatio(rets),
		Volatility:         volatility(rets),
	}

	episodes := drawdownEpisodes(valuations)
	maxDrawdown, _ := worstDrawdown(episodes)

	returnsByHorizon := make(map[string][]PeriodReturn, len(horizons))
	best := make(map[string]PeriodReturn, len(horizons))
	worst := make(map[string]PeriodReturn, len(horizons))
	for _, h := range horizons {
		periods := aggregatePeriods(valuations, h)
		returnsByHorizon[string(h)] = periods
		if b, w, ok := bestAndWorst(periods); ok {
			best[string(h)] = b
			worst[string(h)] = w
		}
	}

	monthly := returnsByHorizon[string(HorizonMonth)]
	winLose := monthlyWinLose(monthly)
	histogram := monthlyHistogram(monthly)

	growth := make([]GrowthPoint, 0, len(valuations))
	balances := make([]BalanceSnapshot, 0, len(valuations))
	orderFlow := make([]OrderFlow, 0, len(valuations))
	dividends := make([]DividendSummary, 0, len(valuations))
	var prevValueForYield float64
	for _, v := range valuations {
		orderFlow = append(orderFlow, OrderFlow{
			Date:         v.Date,
			DidBuy:       v.DidBuy,
			DidSell:      v.DidSell,
			DidRebalance: v.DidRebalance,
		})

		var yield float64
		if prevValueForYield > 0 {
			yield = v.DividendIncome / prevValueForYield
		}
		dividends = append(dividends, DividendSummary{
			Date:           v.Date,
			DividendIncome: v.DividendIncome,
			DividendYield:  yield,
		})
		prevValueForYield = v.TotalPortfolioValue
		growth = append(growth, GrowthPoint{
			Date:          v.Date,
			Contributions: v.CumulativeCashflow,
			Gain:          v.NetCumulativeGain,
			Value:         v.TotalPortfolioValue,
		})

		entries := make([]BalanceEntry, 0, len(v.Holdings))
		for _, h := range v.Holdings {
			entries = append(entries, BalanceEntry{Ticker: h.Ticker, Value: h.Value, Weight: h.Weighting})
		}
		balances = append(balances, BalanceSnapshot{Date: v.Date, Holdings: entries})
	}

	log.Debug().Int("days", len(valuations)).Float64("cagr", cagr).Msg("analysis complete")

	return &Report{
		Valuations:      valuations,
		Metrics:         metrics,
		MaxDrawdown:     maxDrawdown,
		MonthlyWinLose:  winLose,
		BestPeriods:     best,
		WorstPeriods:    worst,
		OrderFlow:       orderFlow,
		DividendSummary: dividends,
		ChartData: ChartData{
			PortfolioGrowth:         growth,
			Returns:                 returnsByHorizon,
			MonthlyReturnsHistogram: histogram,
			PortfolioBalance:        balances,
		},
	}, nil
}

func groupHoldings(snaps []engine.HoldingSnapshot) map[int64][]engine.HoldingSnapshot {
	grouped := make(map[int64][]engine.HoldingSnapshot)
	for _, s := range snaps {
		key := s.Date.Unix()
		grouped[key] = append(grouped[key], s)
	}
	return grouped
}

func buildHoldings(snaps []engine.HoldingSnapshot) []HoldingValuation {
	sorted := make([]engine.HoldingSnapshot, len(snaps))
	copy(sorted, snaps)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Ticker < sorted[j].Ticker })

	holdings := make([]HoldingValuation, 0, len(sorted))
	for _, s := range sorted {
		holdings = append(holdings, HoldingValuation{
			Ticker: s.Ticker,
			Units:  s.Units,
			Price:  s.BasePrice,
			Value:  s.Units * s.BasePrice,
		})
	}
	return holdings
}
