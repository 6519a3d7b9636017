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

// histogramBucketNames are the six fixed monthly-return buckets, ordered low to high
// (spec section 4.7's monthly-return histogram).
var histogramBucketNames = []string{
	"< -10%",
	"-10% to -5%",
	"-5% to 0%",
	"0% to 5%",
	"5% to 10%",
	"> 10%",
}

// bucketFor classifies a monthly return into one of the six fixed buckets.
func bucketFor(monthlyReturn float64) string {
	switch {
	case monthlyReturn < -0.10:
		return histogramBucketNames[0]
	case monthlyReturn < -0.05:
		return histogramBucketNames[1]
	case monthlyReturn < 0:
		return histogramBucketNames[2]
	case monthlyReturn < 0.05:
		return histogramBucketNames[3]
	case monthlyReturn < 0.10:
		return histogramBucketNames[4]
	default:
		return histogramBucketNames[5]
	}
}

// monthlyHistogram counts monthlyReturns into the six fixed buckets, preserving bucket
// order and including zero-count buckets (spec section 4.7).
func monthlyHistogram(monthlyReturns []PeriodReturn) []HistogramBucket {
	counts := make(map[string]int, len(histogramBucketNames))
	for _, name := range histogramBucketNames {
		counts[name] = 0
	}
	for _, p := range monthlyReturns {
		counts[bucketFor(p.Return)]++
	}

	out := make([]HistogramBucket, len(histogramBucketNames))
	for i, name := range histogramBucketNames {
		out[i] = HistogramBucket{Bucket: name, Count: counts[name]}
	}
	return out
}

// monthlyWinLose counts monthly periods with a non-negative return as wins (zero counts
// as a win, not a loss or a dropped observation) and negative returns as losses.
func monthlyWinLose(monthlyReturns []PeriodReturn) WinLoseAnalysis {
	var w WinLoseAnalysis
	for _, p := range monthlyReturns {
		if p.Return >= 0 {
			w.Win++
		} else {
			w.Loss++
		}
	}
	total := w.Win + w.Loss
	if total > 0 {
		w.Rate = float64(w.Win) / float64(total)
	}
	return w
}
