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
	"math"

	"gonum.org/v1/gonum/stat"
)

// tradingReturns extracts the daily NetDailyReturn of every trading day in valuations, the
// series every annualised statistic below is computed over (spec's restriction of
// return-series analysis to days with a non-empty trading-ticker set).
func tradingReturns(valuations []DailyValuation) []float64 {
	rets := make([]float64, 0, len(valuations))
	for _, v := range valuations {
		if v.Trading {
			rets = append(rets, v.NetDailyReturn)
		}
	}
	return rets
}

// sharpeRatio is the annualised mean-over-stddev of daily returns, grounded on the
// teacher's SharpeRatio (portfolio/metrics.go): scale the daily stats up by
// sqrt(tradingDaysPerYear) rather than compound first and annualise after.
func sharpeRatio(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	mean := stat.Mean(rets, nil)
	sd := stat.StdDev(rets, nil)
	if sd == 0 {
		return 0
	}
	return (mean / sd) * math.Sqrt(tradingDaysPerYear)
}

// volatility is the annualised standard deviation of daily returns.
func volatility(rets []float64) float64 {
	if len(rets) < 2 {
		return 0
	}
	return stat.StdDev(rets, nil) * math.Sqrt(tradingDaysPerYear)
}

// cagrAndCMGR compounds rets into a wealth index and derives the annualised (CAGR) and
// monthly-compounded (CMGR) growth rate, using tradingDaysPerYear trading days per year to
// convert the observed day count into years.
func cagrAndCMGR(rets []float64) (cagr, cmgr float64) {
	if len(rets) == 0 {
		return 0, 0
	}
	wealth := 1.0
	for _, r := range rets {
		wealth *= 1.0 + r
	}
	years := float64(len(rets)) / tradingDaysPerYear
	if years <= 0 || wealth <= 0 {
		return 0, 0
	}
	cagr = math.Pow(wealth, 1.0/years) - 1.0
	cmgr = math.Pow(1.0+cagr, 1.0/12.0) - 1.0
	return cagr, cmgr
}
