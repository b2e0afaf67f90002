// Copyright 2025 Esteban Alvarez. All Rights Reserved.
//
// Created: October 2025
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

// Package main is a runnable demonstration of pkg/queryengine.
//
// It wires a Service against an in-memory scripted transport (standing in
// for a real data-platform connection, which this module deliberately does
// not implement) and issues one query_data call over forward streams,
// printing the assembled table's row and column counts, then waits for a
// signal before shutting down.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/transport/transporttest"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
	"github.com/osprey-dcs/dp-query-engine/pkg/queryengine"
	"github.com/osprey-dcs/dp-query-engine/pkg/request"
)

func main() {
	maxStreams := flag.Int("max_streams", 4, "Upper bound on concurrently running ingesters (multistream.max_streams)")
	threadCount := flag.Int("thread_count", 4, "Correlator shard count for parallel matching (concurrency.thread_count)")
	pivotSize := flag.Int("pivot_size", 64, "Minimum set size before the correlator switches to parallel matching (concurrency.pivot_size)")
	staticMax := flag.Int64("table_static_max", 8<<20, "Byte estimate above which the assembler switches to a dynamic table (table.static_max)")
	loggingActive := flag.Bool("logging_active", true, "Enable structured telemetry logging (logging.active)")
	flag.Parse()

	cfg := queryengine.Config{
		TimeoutLimit:           30,
		TimeoutUnit:            time.Second,
		ConcurrencyActive:      true,
		ConcurrencyThreadCount: *threadCount,
		ConcurrencyPivotSize:   *pivotSize,
		MultistreamMaxStreams:  *maxStreams,
		DecompMaxPVs:           8,
		DecompMaxRange:         int64(time.Hour),
		TableStaticDefault:     true,
		TableStaticMax:         *staticMax,
		TableDynamicEnabled:    true,
		LoggingActive:          *loggingActive,
	}

	script := seedScript()
	svc := queryengine.New(cfg, script)

	req, err := request.New().
		SelectPVs([]string{"reactor.temp", "reactor.pressure"}).
		RangeBetween(model.Instant{Seconds: 0}, model.Instant{Seconds: 2}).
		SetStreamType(model.StreamForward).
		SetID("demo-1").
		BuildDataRequest()
	if err != nil {
		log.Fatalf("build request: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	table, err := svc.QueryData(ctx, req)
	if err != nil {
		log.Fatalf("query_data: %v", err)
	}
	printTable(table, req.PVs)

	// Graceful shutdown on signal, matching the teacher's demo lifecycle:
	// wait for Ctrl+C, drain any in-flight serialized call, then exit.
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-stop
		fmt.Println("\nShutting down...")
		svc.Shutdown()
		svc.AwaitTermination(5 * time.Second)
		os.Exit(0)
	}()

	fmt.Println("demo query complete; press Ctrl+C to exit")
	select {}
}

// seedScript builds a scripted transport with two forward-streamed frames
// for request "demo-1", standing in for a real connection to the data
// platform.
func seedScript() *transporttest.Script {
	script := transporttest.NewScript()
	script.Enqueue("demo-1",
		transport.Frame{Buckets: []model.Bucket{
			clockBucket("reactor.temp", 0, 2),
			clockBucket("reactor.pressure", 0, 2),
		}},
		transport.Frame{Buckets: []model.Bucket{
			clockBucket("reactor.temp", 1, 2),
		}},
	)
	return script
}

func clockBucket(pv string, startSec int64, n int) model.Bucket {
	basis := model.NewClockBasis(model.Instant{Seconds: startSec}, 500_000_000, n)
	values := make([]model.Value, n)
	for i := range values {
		values[i] = model.Value{Kind: model.KindFloat64, Float64: float64(startSec*10 + int64(i))}
	}
	return model.Bucket{Basis: basis, Column: model.Column{PVName: pv, Type: model.KindFloat64, Values: values}}
}

func printTable(t interface {
	ColumnCount() int
	RowCount() int
}, pvs []string) {
	fmt.Printf("assembled table: %d rows x %d columns (%v)\n", t.RowCount(), t.ColumnCount(), pvs)
}
