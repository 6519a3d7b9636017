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

package engine

import "time"

// Side is which direction an Order moves cash/holdings.
type Side string

const (
	Buy  Side = "buy"
	Sell Side = "sell"
)

// Status is an Order's lifecycle state -- spec section 4.5's order state machine:
// created -> pending -> (fulfilled | failed) on its execution date, or left pending if the
// run ends first.
type Status string

const (
	Pending   Status = "pending"
	Fulfilled Status = "fulfilled"
	Failed    Status = "failed"
)

// minOrderValue is the floating-point dust threshold: an order whose target value is
// 0.01 or less is dropped outright instead of being queued (spec section 4.5).
const minOrderValue = 0.01

// Order is one queued buy/sell intent and, once settled, its realised execution. Realistic
// mode only -- basic mode settles instantly and never materialises an Order.
type Order struct {
	Ticker        string
	TargetValue   float64
	DatePlaced    time.Time
	DateExecuted  *time.Time
	Side          Side
	BasePrice     float64
	Units         float64
	Status        Status
	insertionSeq  int
}

// CashSnapshot is one day's cash-side row of the engine's output (spec section 3).
type CashSnapshot struct {
	Date           time.Time
	CashBalance    float64
	CashInflow     float64
	DidRebalance   bool
	DividendIncome float64 // realistic mode only; 0 in basic
	DidBuy         bool    // realistic mode only
	DidSell        bool    // realistic mode only
}

// HoldingSnapshot is one (date, ticker) row of held units and the price they were marked
// at that day.
type HoldingSnapshot struct {
	Date      time.Time
	Ticker    string
	Units     float64
	BasePrice float64
}

// DividendSnapshot is one (date, ticker) dividend line, realistic mode only.
type DividendSnapshot struct {
	Date             time.Time
	Ticker           string
	DividendPerUnit  float64
	TotalDividend    float64
}

// Result is the engine's full output: the three append-only snapshot streams plus the
// orders log (realistic mode only), each in strict ascending-date order (spec section 5's
// ordering guarantee).
type Result struct {
	Config          Config
	CashSnapshots   []CashSnapshot
	HoldingSnapshots []HoldingSnapshot
	DividendSnapshots []DividendSnapshot
	Orders          []*Order
}
