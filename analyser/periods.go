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

package analyser

import (
	"fmt"
	"time"
)

// periodStart truncates d down to the start of the bucket horizon names it in (spec
// section 4.7's daily/weekly/monthly/quarterly/yearly aggregation).
func periodStart(d time.Time, horizon Horizon) time.Time {
	switch horizon {
	case HorizonDay:
		return d
	case HorizonWeek:
		daysSinceMonday := (int(d.Weekday()) + 6) % 7
		return d.AddDate(0, 0, -daysSinceMonday)
	case HorizonMonth:
		return time.Date(d.Year(), d.Month(), 1, 0, 0, 0, 0, time.UTC)
	case HorizonQuarter:
		quarterMonth := time.Month(((int(d.Month())-1)/3)*3 + 1)
		return time.Date(d.Year(), quarterMonth, 1, 0, 0, 0, 0, time.UTC)
	case HorizonYear:
		return time.Date(d.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)
	default:
		return d
	}
}

// periodLabel formats a human-readable label for a bucket start, per horizon.
func periodLabel(start time.Time, horizon Horizon) string {
	switch horizon {
	case HorizonDay:
		return start.Format("2006-01-02")
	case HorizonWeek:
		return fmt.Sprintf("Week of %s", start.Format("2006-01-02"))
	case HorizonMonth:
		return start.Format("January 2006")
	case HorizonQuarter:
		quarter := (int(start.Month())-1)/3 + 1
		return fmt.Sprintf("Q%d %d", quarter, start.Year())
	case HorizonYear:
		return fmt.Sprintf("%d", start.Year())
	default:
		return start.Format("2006-01-02")
	}
}

// aggregatePeriods compounds the daily trading-day returns in valuations into one
// PeriodReturn per bucket of horizon, in ascending PeriodStart order (spec section 4.7
// point 7). Non-trading days are skipped -- they carry no new information, only a
// forward-filled valuation.
func aggregatePeriods(valuations []DailyValuation, horizon Horizon) []PeriodReturn {
	type bucket struct {
		start  time.Time
		wealth float64
	}
	order := []time.Time{}
	buckets := map[int64]*bucket{}

	for _, v := range valuations {
		if !v.Trading {
			continue
		}
		start := periodStart(v.Date, horizon)
		key := start.Unix()
		b, ok := buckets[key]
		if !ok {
			b = &bucket{start: start, wealth: 1.0}
			buckets[key] = b
			order = append(order, start)
		}
		b.wealth *= 1.0 + v.NetDailyReturn
	}

	results := make([]PeriodReturn, 0, len(order))
	for _, start := range order {
		b := buckets[start.Unix()]
		results = append(results, PeriodReturn{
			Period:      periodLabel(start, horizon),
			Return:      b.wealth - 1.0,
			PeriodStart: start,
		})
	}
	return results
}

// bestAndWorst returns the highest- and lowest-return entries of periods. ok is false if
// periods is empty.
func bestAndWorst(periods []PeriodReturn) (best, worst PeriodReturn, ok bool) {
	if len(periods) == 0 {
		return PeriodReturn{}, PeriodReturn{}, false
	}
	best, worst = periods[0], periods[0]
	for _, p := range periods[1:] {
		if p.Return > best.Return {
			best = p
		}
		if p.Return < worst.Return {
			worst = p
		}
	}
	return best, worst, true
}
