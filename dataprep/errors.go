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

import "errors"

var (
	ErrNoTickers         = errors.New("no tickers requested")
	ErrUnknownTicker     = errors.New("ticker has no asset metadata")
	ErrMissingFXRate     = errors.New("no fx rate available for native currency on date")
	ErrCoverageTooShort  = errors.New("benchmark does not fully cover the requested date range")
	ErrEmptyPreparedData = errors.New("no bars matched the requested ticker/date filter")
)
