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

import "errors"

// Config-construction errors (spec section 7, "InvalidConfig"/"UnknownEnumValue"): fail
// fast, no simulation starts.
var (
	ErrWeightsDoNotSumToOne  = errors.New("target weights do not sum to 1.0 within tolerance")
	ErrWeightOutOfRange      = errors.New("target weight must be in (0, 1]")
	ErrNoTargetWeights       = errors.New("target portfolio must have at least one ticker")
	ErrStartAfterEnd         = errors.New("start_date must not be after end_date")
	ErrNonPositiveInvestment = errors.New("initial_investment must be > 0")
	ErrNonPositiveRecurring  = errors.New("recurring_investment.amount must be > 0")
	ErrEURStartTooEarly      = errors.New("EUR-denominated backtests must start on or after 1999-01-03")
	ErrUnknownMode           = errors.New("mode must be \"basic\" or \"realistic\"")
	ErrUnknownCurrency       = errors.New("base_currency must be one of GBP, USD, EUR")
	ErrUnknownFrequency      = errors.New("frequency must be one of never, daily, weekly, monthly, quarterly, yearly")
	ErrUnparseableDate       = errors.New("date must be YYYY-MM-DD, DD/MM/YYYY, or MM/DD/YYYY")
)

// Fatal run-time errors (spec section 7): abort the run, surfaced as {status: "failed"}.
var (
	ErrMissingPriceForSettlement = errors.New("no base_price available for ticker on settlement date")
	ErrNonPositiveTradeAmount    = errors.New("invest/sell called with amount <= 0")
)
