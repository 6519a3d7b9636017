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

package data

import (
	"bytes"
	"context"
	"encoding/gob"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/coocood/freecache"
	"github.com/penny-vault/pv-backtest/common"
	"github.com/penny-vault/pv-backtest/data/database"
	"github.com/penny-vault/pv-backtest/tradecron"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
	"github.com/zeebo/blake3"
)

// Manager is the process-wide, read-only view over the three immutable cached tables
// (prices, benchmarks, FX rates) plus asset metadata. A backtest job never writes through
// it; data.GetManagerInstance is called once at startup and reused by every worker.
type Manager struct {
	lruCache *freecache.Cache
	locker   sync.RWMutex
	metadata map[string]*AssetMetadata
}

var (
	managerOnce     sync.Once
	managerInstance *Manager
)

// GetManagerInstance returns the process-wide Manager, loading asset metadata + the market
// holiday calendar on first call through the already-connected database pool.
func GetManagerInstance() *Manager {
	managerOnce.Do(func() {
		tradecron.LoadMarketHolidays()

		cacheMaxSize := viper.GetInt("cache.lru_bytes")
		if cacheMaxSize <= 0 {
			cacheMaxSize = 100 * 1024 * 1024 // 100 MB
		}

		managerInstance = &Manager{
			lruCache: freecache.NewCache(cacheMaxSize),
			metadata: make(map[string]*AssetMetadata),
		}

		if err := managerInstance.loadMetadata(); err != nil {
			log.Error().Err(err).Msg("could not load asset metadata")
		}
	})
	return managerInstance
}

// Metadata returns the asset metadata for ticker, or ErrNotFound.
func (manager *Manager) Metadata(ticker string) (*AssetMetadata, error) {
	manager.locker.RLock()
	defer manager.locker.RUnlock()

	meta, ok := manager.metadata[ticker]
	if !ok {
		return nil, ErrNotFound
	}
	return meta, nil
}

// Prices returns, per ticker, the price bars covering [begin, end]. Results are served
// from the LRU cache when a prior call asked for the same tickers and the same range.
func (manager *Manager) Prices(ctx context.Context, tickers []string, begin, end time.Time) (map[string][]PriceBar, error) {
	if err := (&Interval{Begin: begin, End: end}).Valid(); err != nil {
		return nil, ErrInvalidTimeRange
	}

	key := cacheKey("prices", tickers, begin, end)
	if cached, ok := manager.getCachedBars(key); ok {
		return cached, nil
	}

	sql := `SELECT event_date, ticker, close, adj_close, is_trading_day, dividend
	        FROM eod_prices WHERE ticker = ANY($1) AND event_date BETWEEN $2 AND $3
	        ORDER BY ticker, event_date ASC`
	rows, err := database.Query(ctx, sql, tickers, begin, end)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	bars := make(map[string][]PriceBar, len(tickers))
	for rows.Next() {
		var bar PriceBar
		if err := rows.Scan(&bar.Date, &bar.Ticker, &bar.NativePrice, &bar.AdjustedClose, &bar.IsTradingDay, &bar.Dividend); err != nil {
			return nil, err
		}
		bars[bar.Ticker] = append(bars[bar.Ticker], bar)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	manager.setCachedBars(key, bars)
	return bars, nil
}

// Benchmarks returns price bars for the requested benchmark tickers, restricted to those
// whose metadata window fully covers [begin, end] (per the Data Preparer's eligibility rule).
// Tickers that don't qualify are reported, not silently dropped.
func (manager *Manager) Benchmarks(ctx context.Context, tickers []string, begin, end time.Time) (map[string][]PriceBar, []string, error) {
	eligible := make([]string, 0, len(tickers))
	ineligible := make([]string, 0)
	for _, ticker := range tickers {
		meta, err := manager.Metadata(ticker)
		if err != nil || !meta.IsBenchmark {
			ineligible = append(ineligible, ticker)
			continue
		}
		if meta.FirstSeen.After(begin) || meta.LastSeen.Before(end) {
			ineligible = append(ineligible, ticker)
			continue
		}
		eligible = append(eligible, ticker)
	}

	if len(eligible) == 0 {
		return map[string][]PriceBar{}, ineligible, nil
	}

	bars, err := manager.Prices(ctx, eligible, begin, end)
	return bars, ineligible, err
}

// FXRate returns the exchange rate from nativeCurrency to baseCurrency on date. Identical
// currencies always return 1.0 without touching the database, per the Data Preparer spec.
func (manager *Manager) FXRate(ctx context.Context, nativeCurrency, baseCurrency string, date time.Time) (float64, error) {
	if nativeCurrency == baseCurrency {
		return 1.0, nil
	}

	key := fmt.Sprintf("fx:%s:%s:%s", nativeCurrency, baseCurrency, date.Format("2006-01-02"))
	if val, err := manager.lruCache.Get([]byte(key)); err == nil {
		var rate float64
		if err := gob.NewDecoder(bytes.NewReader(val)).Decode(&rate); err == nil {
			return rate, nil
		}
	}

	sql := `SELECT rate FROM fx_rates WHERE native_currency = $1 AND base_currency = $2 AND event_date = $3`
	rows, err := database.Query(ctx, sql, nativeCurrency, baseCurrency, date)
	if err != nil {
		return 0, err
	}
	defer rows.Close()

	if !rows.Next() {
		return 0, ErrNoFXRate
	}

	var rate float64
	if err := rows.Scan(&rate); err != nil {
		return 0, err
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(rate); err == nil {
		if err := manager.lruCache.Set([]byte(key), buf.Bytes(), viper.GetInt("cache.ttl")); err != nil {
			log.Warn().Err(err).Str("key", key).Msg("could not cache FX rate")
		}
	}

	return rate, nil
}

// BenchmarkTickers returns every ticker flagged IsBenchmark in asset metadata, sorted for
// determinism. This is the candidate set the Benchmark Simulator replays cashflows
// against; eligibility (full date-range coverage) is decided downstream by
// Manager.Benchmarks / dataprep.Benchmarks.
func (manager *Manager) BenchmarkTickers() []string {
	manager.locker.RLock()
	defer manager.locker.RUnlock()

	tickers := make([]string, 0, len(manager.metadata))
	for ticker, meta := range manager.metadata {
		if meta.IsBenchmark {
			tickers = append(tickers, ticker)
		}
	}
	sort.Strings(tickers)
	return tickers
}

// Reset clears the LRU cache; used in tests between pgxmock expectations.
func (manager *Manager) Reset() {
	cacheMaxSize := viper.GetInt("cache.lru_bytes")
	if cacheMaxSize <= 0 {
		cacheMaxSize = 100 * 1024 * 1024
	}
	manager.lruCache = freecache.NewCache(cacheMaxSize)
}

// Private methods

func (manager *Manager) loadMetadata() error {
	ctx := context.Background()
	sql := `SELECT ticker, display_name, asset_class, native_currency, first_seen, last_seen,
	               pays_dividends, is_benchmark
	        FROM asset_metadata`
	rows, err := database.Query(ctx, sql)
	if err != nil {
		return err
	}
	defer rows.Close()

	metadata := make(map[string]*AssetMetadata)
	for rows.Next() {
		meta := &AssetMetadata{}
		if err := rows.Scan(&meta.Ticker, &meta.DisplayName, &meta.AssetClass, &meta.NativeCurrency,
			&meta.FirstSeen, &meta.LastSeen, &meta.PaysDividends, &meta.IsBenchmark); err != nil {
			return err
		}
		metadata[meta.Ticker] = meta
	}
	if err := rows.Err(); err != nil {
		return err
	}

	manager.locker.Lock()
	manager.metadata = metadata
	manager.locker.Unlock()

	return nil
}

func (manager *Manager) getCachedBars(key string) (map[string][]PriceBar, bool) {
	raw, err := manager.lruCache.Get([]byte(key))
	if err != nil {
		return nil, false
	}
	gobBytes, err := common.Decompress(raw)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("could not decompress cached price bars")
		return nil, false
	}
	var bars map[string][]PriceBar
	if err := gob.NewDecoder(bytes.NewReader(gobBytes)).Decode(&bars); err != nil {
		return nil, false
	}
	return bars, true
}

// setCachedBars stores bars lz4-compressed (common.Compress): the gob encoding of a wide
// multi-ticker price-bar map runs to several MB for a full history, and freecache's
// capacity is shared across every cached (ticker-set, date-range) key this process serves.
func (manager *Manager) setCachedBars(key string, bars map[string][]PriceBar) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(bars); err != nil {
		log.Warn().Err(err).Msg("could not encode price bars for cache")
		return
	}
	compressed, err := common.Compress(buf.Bytes())
	if err != nil {
		log.Warn().Err(err).Msg("could not compress price bars for cache")
		return
	}
	if err := manager.lruCache.Set([]byte(key), compressed, viper.GetInt("cache.ttl")); err != nil {
		log.Warn().Err(err).Str("key", key).Msg("could not cache price bars")
	}
}

// cacheKey derives a deterministic cache key from a request shape; blake3 keeps it short
// and collision-resistant regardless of how many tickers are requested.
func cacheKey(kind string, tickers []string, begin, end time.Time) string {
	sorted := make([]string, len(tickers))
	copy(sorted, tickers)
	sort.Strings(sorted)

	h := blake3.New()
	fmt.Fprintf(h, "%s|%s|%s|%s", kind, sorted, begin.Format(time.RFC3339), end.Format(time.RFC3339))
	return fmt.Sprintf("%s:%x", kind, h.Sum(nil))
}
