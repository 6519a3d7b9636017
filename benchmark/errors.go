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

package benchmark

import "errors"

// ErrNoEligibleBenchmarks is returned when every candidate ticker's active window failed
// to cover the full [start, end] backtest period. Unlike a single ticker's exclusion
// (BenchmarkIneligible, non-fatal and silent) an empty result set is surfaced to the
// caller so a report doesn't silently ship with no benchmark chart data at all.
var ErrNoEligibleBenchmarks = errors.New("no benchmark series covers the full backtest period")
