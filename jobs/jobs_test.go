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

package jobs_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/penny-vault/pv-backtest/jobs"
)

var _ = Describe("Dispatcher", func() {
	It("runs a submitted job against the shared data manager and delivers its result", func() {
		dbPool, err := pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		manager := data.GetManagerInstance()
		manager.Reset()

		priceRows := pgxmock.NewRows([]string{"event_date", "ticker", "close", "adj_close", "is_trading_day", "dividend"}).
			AddRow(time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC), "AAPL", 100.0, 100.0, true, 0.0).
			AddRow(time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC), "AAPL", 110.0, 110.0, true, 0.0)
		dbPool.ExpectQuery("SELECT event_date, ticker, close").WillReturnRows(priceRows)

		cfg := engine.Config{
			Mode:              dataprep.Basic,
			BaseCurrency:      "USD",
			StartDate:         time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC),
			EndDate:           time.Date(2020, 1, 3, 0, 0, 0, 0, time.UTC),
			TargetWeights:     map[string]float64{"AAPL": 1.0},
			InitialInvestment: 1000,
			Strategy: engine.Strategy{
				FractionalShares:   true,
				RebalanceFrequency: engine.Never,
			},
		}

		dispatcher := jobs.NewDispatcher(manager)
		defer dispatcher.Shutdown()

		job := jobs.NewJob(cfg)
		dispatcher.Submit(context.Background(), job)

		outcome := job.Wait()
		Expect(outcome.Err).To(BeNil())
		Expect(outcome.JobID).To(Equal(job.ID))
		Expect(outcome.Result.HoldingSnapshots).To(HaveLen(2))
	})
})
