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

package engine_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
)

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

// dailySeries builds a daily bar series over [start, end] for one ticker, using priceAt
// for the base price on each date and tradingAt to flag forward-filled (non-trading) days.
func dailySeries(start, end time.Time, priceAt func(time.Time) float64, tradingAt func(time.Time) bool) dataprep.Series {
	series := dataprep.Series{}
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		series = append(series, dataprep.Bar{
			Date:         d,
			Ticker:       "",
			BasePrice:    priceAt(d),
			IsTradingDay: tradingAt(d),
		})
	}
	return series
}

var _ = Describe("RunBasic", func() {
	It("invests a single-asset instant-settle backtest (spec scenario 1)", func() {
		start := date(2020, 1, 2)
		end := date(2020, 1, 3)

		table := dataprep.Table{
			"AAPL": dataprep.Series{
				{Date: start, BasePrice: 100, IsTradingDay: true},
				{Date: end, BasePrice: 110, IsTradingDay: true},
			},
		}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Basic,
			BaseCurrency:      "GBP",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"AAPL": 1.0},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				ReinvestDividends:  true,
				RebalanceFrequency: engine.Never,
			},
		}

		result, err := engine.RunBasic(cfg, cal, table)
		Expect(err).To(BeNil())
		Expect(result.HoldingSnapshots).To(HaveLen(2))
		Expect(result.HoldingSnapshots[0].Units).To(BeNumerically("~", 10.0, 1e-9))
		Expect(result.HoldingSnapshots[1].Units).To(BeNumerically("~", 10.0, 1e-9))

		Expect(result.CashSnapshots[0].CashBalance).To(BeNumerically("~", 0, 1e-9))
		totalDay1 := result.CashSnapshots[0].CashBalance + result.HoldingSnapshots[0].Units*100
		totalDay2 := result.CashSnapshots[1].CashBalance + result.HoldingSnapshots[1].Units*110
		Expect(totalDay1).To(BeNumerically("~", 1000, 1e-9))
		Expect(totalDay2).To(BeNumerically("~", 1100, 1e-9))
	})

	It("rebalances split weights back to equal value (spec scenario 2)", func() {
		start := date(2020, 1, 1)
		end := engine.AddMonthsClamped(start, 1)

		priceA := func(d time.Time) float64 {
			if d.Equal(end) {
				return 120
			}
			return 100
		}
		priceB := func(d time.Time) float64 {
			if d.Equal(end) {
				return 90
			}
			return 100
		}
		alwaysTrading := func(time.Time) bool { return true }

		table := dataprep.Table{
			"A": dailySeries(start, end, priceA, alwaysTrading),
			"B": dailySeries(start, end, priceB, alwaysTrading),
		}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Basic,
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"A": 0.5, "B": 0.5},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				RebalanceFrequency: engine.Monthly,
			},
		}

		result, err := engine.RunBasic(cfg, cal, table)
		Expect(err).To(BeNil())

		last := result.CashSnapshots[len(result.CashSnapshots)-1]
		Expect(last.DidRebalance).To(BeTrue())
		Expect(last.CashBalance).To(BeNumerically("~", 0, 1e-6))

		var valueA, valueB float64
		for _, h := range result.HoldingSnapshots {
			if !h.Date.Equal(end) {
				continue
			}
			if h.Ticker == "A" {
				valueA = h.Units * h.BasePrice
			}
			if h.Ticker == "B" {
				valueB = h.Units * h.BasePrice
			}
		}
		Expect(valueA).To(BeNumerically("~", 525, 1e-6))
		Expect(valueB).To(BeNumerically("~", 525, 1e-6))
	})
})

var _ = Describe("RunRealistic", func() {
	It("settles a recurring order on the ticker's next trading date (spec scenario 3)", func() {
		start := date(2020, 1, 1) // Wednesday, trading
		end := date(2020, 1, 15)
		holiday := date(2020, 1, 8)
		nextTradingDay := date(2020, 1, 9)

		tradingAt := func(d time.Time) bool { return !d.Equal(holiday) }
		priceAt := func(time.Time) float64 { return 50 }

		table := dataprep.Table{
			"X": dailySeries(start, end, priceAt, tradingAt),
		}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Realistic,
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"X": 1.0},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				RebalanceFrequency: engine.Never,
			},
			RecurringInvestment: &engine.RecurringInvestment{Amount: 100, Frequency: engine.Weekly},
		}

		result, err := engine.RunRealistic(cfg, cal, table)
		Expect(err).To(BeNil())

		var found *engine.Order
		for _, o := range result.Orders {
			if o.DatePlaced.Equal(holiday) {
				found = o
			}
		}
		Expect(found).NotTo(BeNil())
		Expect(found.DateExecuted).NotTo(BeNil())
		Expect(*found.DateExecuted).To(Equal(nextTradingDay))
		Expect(found.Status).To(Equal(engine.Fulfilled))
	})

	It("books a non-reinvested dividend to income without touching cash (spec scenario 6)", func() {
		start := date(2020, 1, 1)
		end := date(2020, 1, 10)
		divDate := date(2020, 1, 6)

		priceAt := func(time.Time) float64 { return 100 }
		alwaysTrading := func(time.Time) bool { return true }

		series := dailySeries(start, end, priceAt, alwaysTrading)
		for i := range series {
			if series[i].Date.Equal(divDate) {
				series[i].Dividend = 0.50
			}
		}
		table := dataprep.Table{"X": series}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Realistic,
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"X": 1.0},
			InitialInvestment: 10000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				ReinvestDividends:  false,
				RebalanceFrequency: engine.Never,
			},
		}

		result, err := engine.RunRealistic(cfg, cal, table)
		Expect(err).To(BeNil())

		var before, on *engine.CashSnapshot
		for i := range result.CashSnapshots {
			snap := &result.CashSnapshots[i]
			if snap.Date.Equal(divDate.AddDate(0, 0, -1)) {
				before = snap
			}
			if snap.Date.Equal(divDate) {
				on = snap
			}
		}
		Expect(before).NotTo(BeNil())
		Expect(on).NotTo(BeNil())
		Expect(on.DividendIncome).To(BeNumerically("~", 50.0, 1e-9))
		Expect(on.CashBalance).To(BeNumerically("~", before.CashBalance, 1e-9))
	})
})
