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

package dataprep

import "time"

// Mode selects which price column Prepare reads off the master price table.
type Mode string

const (
	// Basic reads the adjusted close: dividends and splits are already folded into the price,
	// so execution is idealised and always instantaneous.
	Basic Mode = "basic"
	// Realistic reads the raw close plus the day's per-share dividend, so the engine must
	// account for dividend income and settlement separately.
	Realistic Mode = "realistic"
)

// Bar is one (date, ticker) row of the prepared table: a price bar enriched with the FX
// join and pence-rewrite the Data Preparer contract requires. BasePrice is what the engine
// and benchmark simulator trade against; NativePrice/NativeCurrency/ExchangeRate are kept
// for audit.
type Bar struct {
	Date           time.Time
	Ticker         string
	NativeCurrency string
	NativePrice    float64
	ExchangeRate   float64
	BasePrice      float64
	IsTradingDay   bool
	Dividend       float64 // realistic mode only; 0 in basic
}

// Series is one ticker's prepared bars, in whatever order Prepare produced them (callers
// that need date order, e.g. calendar.Build, sort defensively).
type Series []Bar

// Table is the prepared price table keyed by ticker, the Data Preparer's output shape.
type Table map[string]Series

