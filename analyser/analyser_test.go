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

package analyser_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-backtest/analyser"
	"github.com/penny-vault/pv-backtest/calendar"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Analyse", func() {
	It("derives valuations, gains, and returns from a two-day single-asset run", func() {
		start := day(2020, 1, 2)
		end := day(2020, 1, 3)

		table := dataprep.Table{
			"AAPL": dataprep.Series{
				{Date: start, BasePrice: 100, IsTradingDay: true},
				{Date: end, BasePrice: 110, IsTradingDay: true},
			},
		}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Basic,
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"AAPL": 1.0},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				RebalanceFrequency: engine.Never,
			},
		}

		result, err := engine.RunBasic(cfg, cal, table)
		Expect(err).To(BeNil())

		report, err := analyser.Analyse(result, cal)
		Expect(err).To(BeNil())
		Expect(report.Valuations).To(HaveLen(2))

		first := report.Valuations[0]
		Expect(first.TotalPortfolioValue).To(BeNumerically("~", 1000, 1e-6))
		Expect(first.NetDailyGain).To(BeNumerically("~", 0, 1e-6))

		last := report.Valuations[1]
		Expect(last.TotalPortfolioValue).To(BeNumerically("~", 1100, 1e-6))
		Expect(last.NetDailyGain).To(BeNumerically("~", 100, 1e-6))
		Expect(last.NetDailyReturn).To(BeNumerically("~", 0.10, 1e-6))

		Expect(report.Metrics.FinalValue).To(BeNumerically("~", 1100, 1e-6))
		Expect(report.Metrics.TotalContributions).To(BeNumerically("~", 1000, 1e-6))
		Expect(report.Metrics.CumulativeGain).To(BeNumerically("~", 100, 1e-6))
	})

	It("rejects an empty engine result", func() {
		_, err := analyser.Analyse(&engine.Result{}, &calendar.Calendar{})
		Expect(err).To(Equal(analyser.ErrEmptyResult))
	})
})

var _ = Describe("monthly histogram and win rate", func() {
	It("classifies monthly returns into the six fixed buckets", func() {
		start := day(2020, 1, 1)
		end := day(2020, 4, 30)

		price := func(d time.Time) float64 {
			switch {
			case d.Before(day(2020, 2, 1)):
				return 100
			case d.Before(day(2020, 3, 1)):
				return 120 // +20% on 1 February
			case d.Before(day(2020, 4, 1)):
				return 114 // -5% on 1 March
			default:
				return 114 // flat through April
			}
		}
		trading := func(time.Time) bool { return true }

		series := dataprep.Series{}
		for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
			series = append(series, dataprep.Bar{Date: d, BasePrice: price(d), IsTradingDay: trading(d)})
		}
		table := dataprep.Table{"X": series}
		cal := calendar.Build(table, start, end)

		cfg := engine.Config{
			Mode:              dataprep.Basic,
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			TargetWeights:     map[string]float64{"X": 1.0},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				RebalanceFrequency: engine.Never,
			},
		}

		result, err := engine.RunBasic(cfg, cal, table)
		Expect(err).To(BeNil())

		report, err := analyser.Analyse(result, cal)
		Expect(err).To(BeNil())

		var total int
		for _, b := range report.ChartData.MonthlyReturnsHistogram {
			total += b.Count
		}
		Expect(report.ChartData.MonthlyReturnsHistogram).To(HaveLen(6))
		Expect(total).To(Equal(report.MonthlyWinLose.Win + report.MonthlyWinLose.Loss))
	})
})
