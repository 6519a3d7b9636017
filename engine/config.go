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

import (
	"encoding/json"
	"math"
	"sort"
	"time"

	"github.com/penny-vault/pv-backtest/common"
	"github.com/penny-vault/pv-backtest/dataprep"
)

const weightTolerance = 1e-6

var eurEpoch = time.Date(1999, 1, 3, 0, 0, 0, 0, time.UTC)

// Strategy is the execution policy a backtest applies: whether fractional shares are
// allowed, whether dividends are reinvested, and how often the portfolio rebalances back
// to target weights.
type Strategy struct {
	FractionalShares   bool      `json:"fractional_shares"`
	ReinvestDividends  bool      `json:"reinvest_dividends"`
	RebalanceFrequency Frequency `json:"rebalance_frequency"`
}

// RecurringInvestment is a recurring cashflow added to the portfolio on a schedule.
type RecurringInvestment struct {
	Amount    float64   `json:"amount"`
	Frequency Frequency `json:"frequency"`
}

// Config is a fully validated backtest configuration -- spec section 3's "Backtest
// configuration". Construct via Parse, which validates before returning.
type Config struct {
	Mode                dataprep.Mode
	BaseCurrency        string
	StartDate           time.Time
	EndDate             time.Time
	TargetWeights       map[string]float64
	InitialInvestment   float64
	Strategy            Strategy
	RecurringInvestment *RecurringInvestment
}

// rawConfig mirrors the JSON wire shape from spec section 6; dates and weights need
// custom handling before they can be validated into a Config.
type rawConfig struct {
	Mode                string               `json:"mode"`
	BaseCurrency        string               `json:"base_currency"`
	StartDate           string               `json:"start_date"`
	EndDate             string               `json:"end_date"`
	TargetWeights       map[string]float64   `json:"target_weights"`
	InitialInvestment   float64              `json:"initial_investment"`
	Strategy            Strategy             `json:"strategy"`
	RecurringInvestment *RecurringInvestment `json:"recurring_investment"`
}

// Parse decodes the engine-input JSON shape from spec section 6 and validates it. No
// simulation starts on a config that fails validation (InvalidConfig/UnknownEnumValue are
// both fail-fast per spec section 7).
func Parse(data []byte) (*Config, error) {
	var raw rawConfig
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}
	raw.TargetWeights = normalizeTickerCase(raw.TargetWeights)

	mode, err := parseMode(raw.Mode)
	if err != nil {
		return nil, err
	}
	if !validCurrency(raw.BaseCurrency) {
		return nil, ErrUnknownCurrency
	}
	if !raw.Strategy.RebalanceFrequency.valid() {
		return nil, ErrUnknownFrequency
	}
	if raw.RecurringInvestment != nil && !raw.RecurringInvestment.Frequency.valid() {
		return nil, ErrUnknownFrequency
	}

	start, err := parseDate(raw.StartDate)
	if err != nil {
		return nil, err
	}
	end, err := parseDate(raw.EndDate)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Mode:                mode,
		BaseCurrency:        raw.BaseCurrency,
		StartDate:           start,
		EndDate:             end,
		TargetWeights:       raw.TargetWeights,
		InitialInvestment:   raw.InitialInvestment,
		Strategy:            raw.Strategy,
		RecurringInvestment: raw.RecurringInvestment,
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks every InvalidConfig rule from spec section 3/7. Called by Parse; exposed
// so callers that build a Config programmatically (tests, the CLI) get the same guarantees.
func (c *Config) Validate() error {
	if c.StartDate.After(c.EndDate) {
		return ErrStartAfterEnd
	}
	if c.InitialInvestment <= 0 {
		return ErrNonPositiveInvestment
	}
	if c.BaseCurrency == "EUR" && c.StartDate.Before(eurEpoch) {
		return ErrEURStartTooEarly
	}
	if len(c.TargetWeights) == 0 {
		return ErrNoTargetWeights
	}

	var sum float64
	for _, w := range c.TargetWeights {
		if w <= 0 || w > 1 {
			return ErrWeightOutOfRange
		}
		sum += w
	}
	if math.Abs(sum-1.0) > weightTolerance {
		return ErrWeightsDoNotSumToOne
	}

	if c.RecurringInvestment != nil && c.RecurringInvestment.Amount <= 0 {
		return ErrNonPositiveRecurring
	}

	return nil
}

// Tickers returns the target portfolio's tickers in sorted order, the set the Data
// Preparer and Calendar restrict themselves to.
func (c *Config) Tickers() []string {
	tickers := make([]string, 0, len(c.TargetWeights))
	for t := range c.TargetWeights {
		tickers = append(tickers, t)
	}
	sort.Strings(tickers)
	return tickers
}

// normalizeTickerCase upper-cases every ticker symbol in weights, so a config written with
// lowercase tickers still matches the upper-case symbols data.Manager stores them under.
func normalizeTickerCase(weights map[string]float64) map[string]float64 {
	tickers := make([]string, 0, len(weights))
	for t := range weights {
		tickers = append(tickers, t)
	}
	upper := make([]string, len(tickers))
	copy(upper, tickers)
	common.ArrToUpper(upper)

	normalized := make(map[string]float64, len(weights))
	for i, t := range tickers {
		normalized[upper[i]] = weights[t]
	}
	return normalized
}

func parseMode(s string) (dataprep.Mode, error) {
	switch dataprep.Mode(s) {
	case dataprep.Basic:
		return dataprep.Basic, nil
	case dataprep.Realistic:
		return dataprep.Realistic, nil
	default:
		return "", ErrUnknownMode
	}
}

func validCurrency(c string) bool {
	switch c {
	case "GBP", "USD", "EUR":
		return true
	}
	return false
}

// dateLayouts is tried in order: ISO first (unambiguous), then US month-first, then
// day-first. The US-vs-day-first ambiguity in spec section 6 is irreducible for a bare
// "DD/MM/YYYY" vs "MM/DD/YYYY" string; US order is tried first because it is this
// codebase's default locale (common.GetTimezone's America/New_York reference time).
var dateLayouts = []string{"2006-01-02", "01/02/2006", "02/01/2006"}

func parseDate(s string) (time.Time, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, ErrUnparseableDate
}
