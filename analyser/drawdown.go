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

import "time"

// drawdownEpisodes walks the trading-day wealth index built from valuations' daily
// returns and extracts every peak-to-trough-to-recovery excursion, grounded on the
// teacher's Top10DrawDowns walk over a cumulative-return series (portfolio/metrics.go):
// track a running peak, and whenever the index dips below it, accumulate the episode
// until the index recovers to a new peak.
func drawdownEpisodes(valuations []DailyValuation) []DrawdownEpisode {
	var episodes []DrawdownEpisode

	wealth := 1.0
	peak := 1.0
	var peakDate, valleyDate time.Time
	inDrawdown := false
	var worst float64

	finish := func(endDate time.Time) {
		if inDrawdown {
			episodes = append(episodes, DrawdownEpisode{
				Start:       peakDate,
				End:         endDate,
				ValleyDate:  valleyDate,
				LengthDays:  int(endDate.Sub(peakDate).Hours() / 24),
				MaxDrawdown: worst,
			})
		}
		inDrawdown = false
		worst = 0
	}

	for _, v := range valuations {
		if !v.Trading {
			continue
		}
		wealth *= 1.0 + v.NetDailyReturn

		if wealth >= peak {
			finish(v.Date)
			peak = wealth
			peakDate = v.Date
			continue
		}

		drawdown := wealth/peak - 1.0
		if !inDrawdown {
			inDrawdown = true
			valleyDate = v.Date
			worst = drawdown
		} else if drawdown < worst {
			worst = drawdown
			valleyDate = v.Date
		}
	}
	if len(valuations) > 0 {
		finish(valuations[len(valuations)-1].Date)
	}

	return episodes
}

// worstDrawdown returns the episode with the most negative MaxDrawdown, the "max
// drawdown" headline metric. ok is false if episodes is empty.
func worstDrawdown(episodes []DrawdownEpisode) (DrawdownEpisode, bool) {
	if len(episodes) == 0 {
		return DrawdownEpisode{}, false
	}
	worst := episodes[0]
	for _, e := range episodes[1:] {
		if e.MaxDrawdown < worst.MaxDrawdown {
			worst = e
		}
	}
	return worst, true
}
