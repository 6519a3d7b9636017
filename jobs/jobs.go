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

// Package jobs owns the fixed-size worker pool that runs backtests: each Job carries a
// unique identifier, a fully validated engine.Config, and a result channel, and the
// Dispatcher never shares mutable state between jobs -- every job builds its own
// portfolio.Portfolio and drives the engine independently, reading only the process-wide,
// read-only data.Manager singleton (spec section 5 / SPEC_FULL.md section D).
package jobs

import (
	"context"
	"runtime"
	"sync"

	"github.com/google/uuid"
	"github.com/penny-vault/pv-backtest/data"
	"github.com/penny-vault/pv-backtest/engine"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

// Job is one backtest run request: a unique identifier, the configuration to run, and the
// channel its Result is delivered on.
type Job struct {
	ID     uuid.UUID
	Config engine.Config
	result chan Result
}

// Result is a job's outcome: either a completed engine.Result or the error that aborted
// it (spec section 7's fatal-error taxonomy surfaces here).
type Result struct {
	JobID  uuid.UUID
	Result *engine.Result
	Err    error
}

// NewJob wraps cfg in a Job with a fresh identifier and a buffered result channel, ready
// to hand to a Dispatcher.
func NewJob(cfg engine.Config) *Job {
	return &Job{
		ID:     uuid.New(),
		Config: cfg,
		result: make(chan Result, 1),
	}
}

// Wait blocks until the job's result is available.
func (j *Job) Wait() Result {
	return <-j.result
}

// Dispatcher is a fixed-size worker pool that drains queued Jobs and runs each one against
// the process-wide data.Manager. Workers share nothing but the Manager, which is read-only
// after initialization (spec section 5).
type Dispatcher struct {
	manager *data.Manager
	queue   chan *Job
	wg      sync.WaitGroup
}

// poolSize reads workers.pool_size from viper, defaulting to runtime.NumCPU() when unset
// or non-positive (SPEC_FULL.md section D).
func poolSize() int {
	n := viper.GetInt("workers.pool_size")
	if n <= 0 {
		n = runtime.NumCPU()
	}
	return n
}

// NewDispatcher starts poolSize() workers pulling from an internal job queue. manager is
// the process-wide data.Manager singleton every worker reads from.
func NewDispatcher(manager *data.Manager) *Dispatcher {
	d := &Dispatcher{
		manager: manager,
		queue:   make(chan *Job, poolSize()*4),
	}

	n := poolSize()
	log.Info().Int("workers", n).Msg("starting backtest dispatcher")
	for i := 0; i < n; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
	return d
}

// Submit enqueues job for execution. It blocks only if the internal queue is full.
func (d *Dispatcher) Submit(ctx context.Context, job *Job) {
	select {
	case d.queue <- job:
	case <-ctx.Done():
		job.result <- Result{JobID: job.ID, Err: ctx.Err()}
	}
}

// Shutdown closes the queue and waits for every in-flight worker to drain it.
func (d *Dispatcher) Shutdown() {
	close(d.queue)
	d.wg.Wait()
}

func (d *Dispatcher) worker(index int) {
	defer d.wg.Done()
	for job := range d.queue {
		log.Debug().Int("worker", index).Str("job_id", job.ID.String()).Msg("running backtest job")

		result, err := engine.Run(context.Background(), d.manager, job.Config)
		if err != nil {
			log.Error().Err(err).Str("job_id", job.ID.String()).Msg("backtest job failed")
		}
		job.result <- Result{JobID: job.ID, Result: result, Err: err}
	}
}
