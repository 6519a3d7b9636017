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

import "github.com/penny-vault/pv-backtest/benchmark"

// AttachBenchmark merges the Benchmark Simulator's wide-pivoted output into report's chart
// payload (spec section 2: "its output is merged into the Analyser's chart payload").
// labels maps ticker -> a display name; a ticker absent from labels is labelled by its bare
// ticker symbol.
func AttachBenchmark(report *Report, result *benchmark.Result, labels map[string]string) {
	display := make(map[string]string, len(result.Wide.Values))
	for ticker := range result.Wide.Values {
		if name, ok := labels[ticker]; ok {
			display[ticker] = ticker + " - " + name
		} else {
			display[ticker] = ticker
		}
	}

	report.ChartData.BenchmarkGrowth = BenchmarkGrowth{
		Dates:  result.Wide.Dates,
		Series: result.Wide.Values,
		Labels: display,
	}
}
