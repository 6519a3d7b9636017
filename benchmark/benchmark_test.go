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

package benchmark_test

import (
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/penny-vault/pv-backtest/benchmark"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

var _ = Describe("Simulate", func() {
	It("replays the cashflow schedule and compounds cumulative units at each price", func() {
		start := date(2020, 1, 1)
		end := date(2020, 1, 3)

		table := dataprep.Table{
			"SPY": dataprep.Series{
				{Date: start, BasePrice: 100, IsTradingDay: true},
				{Date: date(2020, 1, 2), BasePrice: 100, IsTradingDay: true},
				{Date: end, BasePrice: 110, IsTradingDay: true},
			},
		}

		cfg := benchmark.Config{
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			InitialInvestment: 1000,
		}

		result, err := benchmark.Simulate(cfg, table)
		Expect(err).To(BeNil())
		Expect(result.Ineligible).To(BeEmpty())
		Expect(result.Long).To(HaveLen(3))

		Expect(result.Long[0].Value).To(BeNumerically("~", 1000, 1e-9))
		Expect(result.Long[2].Value).To(BeNumerically("~", 1100, 1e-9))

		Expect(result.Wide.Dates).To(HaveLen(3))
		Expect(result.Wide.Values["SPY"][2]).To(BeNumerically("~", 1100, 1e-9))
	})

	It("excludes a benchmark whose window doesn't cover the full period", func() {
		start := date(2020, 1, 1)
		end := date(2020, 1, 10)

		table := dataprep.Table{
			"LATE": dataprep.Series{
				{Date: date(2020, 1, 5), BasePrice: 100, IsTradingDay: true},
				{Date: end, BasePrice: 100, IsTradingDay: true},
			},
		}

		_, err := benchmark.Simulate(benchmark.Config{
			BaseCurrency:      "USD",
			StartDate:         start,
			EndDate:           end,
			InitialInvestment: 1000,
		}, table)
		Expect(err).To(Equal(benchmark.ErrNoEligibleBenchmarks))
	})

	It("adds recurring cashflows at additional units on each scheduled date", func() {
		start := date(2020, 1, 1)
		end := engine.AddMonthsClamped(start, 1)

		table := dataprep.Table{
			"SPY": {
				{Date: start, BasePrice: 100, IsTradingDay: true},
				{Date: end, BasePrice: 100, IsTradingDay: true},
			},
		}

		cfg := benchmark.Config{
			BaseCurrency:        "USD",
			StartDate:           start,
			EndDate:             end,
			InitialInvestment:   1000,
			RecurringInvestment: &engine.RecurringInvestment{Amount: 100, Frequency: engine.Monthly},
		}

		result, err := benchmark.Simulate(cfg, table)
		Expect(err).To(BeNil())

		last := result.Long[len(result.Long)-1]
		Expect(last.Value).To(BeNumerically("~", 1100, 1e-9))
	})
})
