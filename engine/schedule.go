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

// Frequency is the cadence of a recurring cashflow or a rebalance. Never is only valid as
// a rebalance frequency (spec section 3's Strategy type).
type Frequency string

const (
	Never     Frequency = "never"
	Daily     Frequency = "daily"
	Weekly    Frequency = "weekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

func (f Frequency) valid() bool {
	switch f {
	case Never, Daily, Weekly, Monthly, Quarterly, Yearly:
		return true
	}
	return false
}

// monthsPer returns the month-arithmetic step for a frequency, or 0 for Daily/Weekly/Never
// (handled separately).
func (f Frequency) monthsPer() int {
	switch f {
	case Monthly:
		return 1
	case Quarterly:
		return 3
	case Yearly:
		return 12
	default:
		return 0
	}
}

// AddMonthsClamped advances t by months using relativedelta-style semantics: the day of
// month is preserved, clamped to the last day of the resulting month, instead of Go's
// stdlib time.AddDate behaviour of overflowing into the following month (e.g. Jan 31 + 1
// month -> Feb 28, not Mar 3). Design Note 2 calls for this because the original
// implementation assumes relativedelta throughout.
func AddMonthsClamped(t time.Time, months int) time.Time {
	year, month, day := t.Date()
	totalMonths := int(month) - 1 + months
	year += totalMonths / 12
	monthIdx := totalMonths % 12
	if monthIdx < 0 {
		monthIdx += 12
		year--
	}
	newMonth := time.Month(monthIdx + 1)

	lastDay := daysInMonth(year, newMonth)
	if day > lastDay {
		day = lastDay
	}
	return time.Date(year, newMonth, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	firstOfNext := time.Date(year, month+1, 1, 0, 0, 0, 0, time.UTC)
	lastOfThis := firstOfNext.AddDate(0, 0, -1)
	return lastOfThis.Day()
}

// GenerateRecurringDates returns every date strictly after start, up to and including end,
// on which a cashflow or rebalance scheduled at frequency f falls. Exclusive of start per
// spec sections 4.4/4.5 ("generate_recurring_dates(start, end, frequency)... exclusive of
// start"). Never yields no dates at all.
func GenerateRecurringDates(start, end time.Time, f Frequency) []time.Time {
	if f == Never {
		return nil
	}

	dates := make([]time.Time, 0)

	if f == Daily {
		for d := start.AddDate(0, 0, 1); !d.After(end); d = d.AddDate(0, 0, 1) {
			dates = append(dates, d)
		}
		return dates
	}

	if f == Weekly {
		for d := start.AddDate(0, 0, 7); !d.After(end); d = d.AddDate(0, 0, 7) {
			dates = append(dates, d)
		}
		return dates
	}

	step := f.monthsPer()
	for i := 1; ; i++ {
		d := AddMonthsClamped(start, step*i)
		if d.After(end) {
			break
		}
		dates = append(dates, d)
	}
	return dates
}
