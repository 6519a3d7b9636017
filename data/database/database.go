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

package database

import (
	"context"

	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/viper"
)

// PgxIface is the subset of a pgx connection or pool this package depends on.
// Tests substitute a pgxmock connection for it.
type PgxIface interface {
	Begin(context.Context) (pgx.Tx, error)
	Query(context.Context, string, ...interface{}) (pgx.Rows, error)
}

var pool PgxIface

// SetPool overrides the connection pool, used by tests to install a pgxmock connection.
func SetPool(myPool PgxIface) {
	pool = myPool
}

// Connect opens the pool backing the three immutable cached tables (prices, benchmarks, FX)
// read by data.Manager. There is a single role; backtest jobs only ever read this data.
func Connect() error {
	myPool, err := pgxpool.Connect(context.Background(), viper.GetString("database.url"))
	if err != nil {
		return err
	}
	if err = myPool.Ping(context.Background()); err != nil {
		return err
	}
	pool = myPool
	return nil
}

// Begin starts a transaction against the shared pool.
func Begin(ctx context.Context) (pgx.Tx, error) {
	return pool.Begin(ctx)
}

// Query runs a query against the shared pool without an explicit transaction.
func Query(ctx context.Context, sql string, args ...interface{}) (pgx.Rows, error) {
	return pool.Query(ctx, sql, args...)
}
