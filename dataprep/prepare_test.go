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

package dataprep_test

import (
	"context"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"github.com/pashagolub/pgxmock"
	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/dataprep"
	"github.com/penny-vault/pv-backtest/pgxmockhelper"
)

// The Manager is a process-wide singleton (sync.Once-guarded), so its metadata/holiday
// load queries only ever run once across this whole test binary. BeforeSuite drives that
// one-time load; each It below gets its own mock pool for the Prices/FXRate queries it
// actually exercises.
var _ = BeforeSuite(func() {
	dbPool, err := pgxmock.NewConn()
	Expect(err).To(BeNil())
	database.SetPool(dbPool)

	pgxmockhelper.MockHolidays(dbPool)

	metaRows := pgxmock.NewRows([]string{"ticker", "display_name", "asset_class", "native_currency",
		"first_seen", "last_seen", "pays_dividends", "is_benchmark"}).
		AddRow("TSLA", "Tesla Inc", "equity", "USD",
			time.Date(2010, 6, 29, 0, 0, 0, 0, time.UTC),
			time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), false, false).
		AddRow("VOD", "Vodafone Group", "equity", "GBX",
			time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC),
			time.Date(2030, 1, 1, 0, 0, 0, 0, time.UTC), true, false)
	dbPool.ExpectQuery("SELECT ticker, display_name").WillReturnRows(metaRows)

	data.GetManagerInstance()
})

var _ = Describe("Prepare", func() {
	var (
		manager *data.Manager
		dbPool  pgxmock.PgxConnIface
		ctx     context.Context
	)

	BeforeEach(func() {
		var err error
		dbPool, err = pgxmock.NewConn()
		Expect(err).To(BeNil())
		database.SetPool(dbPool)

		manager = data.GetManagerInstance()
		manager.Reset()
		ctx = context.Background()
	})

	It("carries the adjusted close through in basic mode when currencies match", func() {
		rows, err := pgxmockhelper.RowsFromCSV("testdata/tsla_prices.csv", map[string]string{
			"event_date":     "date",
			"close":          "float64",
			"adj_close":      "float64",
			"is_trading_day": "bool",
			"dividend":       "float64",
		})
		Expect(err).To(BeNil())
		dbPool.ExpectQuery("SELECT event_date, ticker, close").WillReturnRows(rows)

		bars, err := dataprep.Prepare(ctx, manager, dataprep.Basic, "USD", []string{"TSLA"},
			time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC))
		Expect(err).To(BeNil())
		Expect(bars["TSLA"]).To(HaveLen(2))
		Expect(bars["TSLA"][0].BasePrice).To(BeNumerically("~", 729.77, 0.001))
		Expect(bars["TSLA"][0].ExchangeRate).To(Equal(1.0))
		Expect(bars["TSLA"][0].NativeCurrency).To(Equal("USD"))
	})

	It("rewrites a GBX quote to GBP and joins the FX rate into USD", func() {
		rows, err := pgxmockhelper.RowsFromCSV("testdata/vod_prices.csv", map[string]string{
			"event_date":     "date",
			"close":          "float64",
			"adj_close":      "float64",
			"is_trading_day": "bool",
			"dividend":       "float64",
		})
		Expect(err).To(BeNil())
		dbPool.ExpectQuery("SELECT event_date, ticker, close").WillReturnRows(rows)

		fxRows := pgxmock.NewRows([]string{"rate"}).AddRow(1.25)
		dbPool.ExpectQuery("SELECT rate FROM fx_rates").WillReturnRows(fxRows)

		bars, err := dataprep.Prepare(ctx, manager, dataprep.Basic, "USD", []string{"VOD"},
			time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC))
		Expect(err).To(BeNil())
		Expect(bars["VOD"]).To(HaveLen(1))
		Expect(bars["VOD"][0].NativeCurrency).To(Equal("GBP"))
		Expect(bars["VOD"][0].NativePrice).To(BeNumerically("~", 1.2345, 0.0001))
		Expect(bars["VOD"][0].BasePrice).To(BeNumerically("~", 1.2345*1.25, 0.0001))
	})

	It("rejects an empty ticker set", func() {
		_, err := dataprep.Prepare(ctx, manager, dataprep.Basic, "USD", nil,
			time.Date(2021, 1, 4, 0, 0, 0, 0, time.UTC), time.Date(2021, 1, 5, 0, 0, 0, 0, time.UTC))
		Expect(err).To(Equal(dataprep.ErrNoTickers))
	})
})
