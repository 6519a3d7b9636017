// Copyright 2021-2023
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

package data

import "time"

const (
	CashAsset = "$CASH"
	PenceCode = "GBX"
	PoundCode = "GBP"
)

// PriceBar is one (date, ticker) row of the master price table maintained by the
// (out of scope) ingestion pipeline. On non-trading days NativePrice is the forward-fill
// of the last observed close and IsTradingDay is false.
type PriceBar struct {
	Date          time.Time
	Ticker        string
	NativePrice   float64
	AdjustedClose float64
	IsTradingDay  bool
	Dividend      float64 // 0 except on ex-dividend days
}

// AssetMetadata describes a ticker: its native currency, observation window, and whether
// it ever pays a dividend. Loaded once per process and refreshed alongside the price tables.
type AssetMetadata struct {
	Ticker         string
	DisplayName    string
	AssetClass     string
	NativeCurrency string
	FirstSeen      time.Time
	LastSeen       time.Time
	PaysDividends  bool
	IsBenchmark    bool
}

// FXRate is an exchange rate from NativeCurrency to BaseCurrency observed on Date.
type FXRate struct {
	Date           time.Time
	NativeCurrency string
	BaseCurrency   string
	Rate           float64
}
