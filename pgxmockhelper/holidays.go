// Copyright 2021-2022
// SPDX-License-Identifier: Apache-2.0
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package pgxmockhelper

import (
	"github.com/pashagolub/pgxmock"
)

// MockHolidays arranges for the next market_holidays query issued against dbPool to return
// an empty result set, i.e. a calendar with no holidays -- the common case for tests that
// only care about weekend exclusion.
func MockHolidays(dbPool pgxmock.PgxConnIface) {
	rows := pgxmock.NewRows([]string{"event_date", "early_close", "close_time"})
	dbPool.ExpectQuery("SELECT event_date, early_close").WillReturnRows(rows)
}
