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

package jobs

import (
	"github.com/go-co-op/gocron"
	"github.com/penny-vault/pv-backtest/common"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// StartCacheRefresh schedules an hourly reset of the data.Manager's LRU cache, mirroring
// the teacher's hourly gocron job (cmd/serve.go's strategies.LoadStrategyMetricsFromDb)
// so the three cached tables (prices, benchmarks, FX) never serve data older than an hour
// once a long-lived dispatcher process is in use.
func (d *Dispatcher) StartCacheRefresh() *gocron.Scheduler {
	scheduler := gocron.NewScheduler(common.GetTimezone())
	interval := viper.GetInt("workers.cache_refresh_hours")
	if interval <= 0 {
		interval = 1
	}

	if _, err := scheduler.Every(interval).Hours().Do(func() {
		log.Info().Msg("refreshing cached price/benchmark/FX tables")
		d.manager.Reset()
	}); err != nil {
		log.Error().Err(err).Msg("could not schedule cache refresh")
	}

	scheduler.StartAsync()
	return scheduler
}
