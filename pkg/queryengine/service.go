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

package queryengine

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/osprey-dcs/dp-query-engine/internal/assemble"
	"github.com/osprey-dcs/dp-query-engine/internal/correlate"
	"github.com/osprey-dcs/dp-query-engine/internal/decompose"
	"github.com/osprey-dcs/dp-query-engine/internal/ingest"
	"github.com/osprey-dcs/dp-query-engine/internal/orchestrator"
	"github.com/osprey-dcs/dp-query-engine/internal/telemetry"
	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

const (
	stateReady uint32 = iota
	stateShuttingDown
	stateTerminated
)

// Service is the query engine's public façade. Construct with New; a
// *Service is safe for concurrent use by multiple goroutines.
type Service struct {
	cfg       Config
	transport transport.Transport

	correlator *correlate.Correlator
	serialMu   sync.Mutex // serializes query_data_unary/query_data/query_data_multi (§6)

	state     atomic.Uint32
	done      chan struct{}
	closeOnce sync.Once
}

// New constructs a Service over t, configured per cfg. Concurrency is
// disabled on the shared correlator until cfg.ConcurrencyActive enables it.
func New(cfg Config, t transport.Transport) *Service {
	telemetry.Enable(telemetry.Config{Enabled: cfg.LoggingActive})
	corr := correlate.New(correlate.Config{
		Pivot:       cfg.ConcurrencyPivotSize,
		ThreadCount: cfg.ConcurrencyThreadCount,
		Timeout:     cfg.taskTimeout(),
	})
	corr.SetConcurrency(cfg.ConcurrencyActive)
	return &Service{
		cfg:        cfg,
		transport:  t,
		correlator: corr,
		done:       make(chan struct{}),
	}
}

func (s *Service) checkAccepting() error {
	if s.state.Load() != stateReady {
		return xerr.New(xerr.Cancelled, "service is shutting down or terminated")
	}
	return nil
}

// QueryMeta looks up PV records for req. Not serialized: it never touches
// the shared correlator.
func (s *Service) QueryMeta(ctx context.Context, req model.MetadataRequest) ([]model.PvInfo, error) {
	if err := s.checkAccepting(); err != nil {
		return nil, err
	}
	infos, err := s.transport.QueryMeta(ctx, req)
	if err != nil {
		return nil, wrapQueryFailure(err)
	}
	return infos, nil
}

// QueryDataUnary performs a single round trip with no decomposition. A
// response too large to fit in one frame surfaces as xerr.Exhausted,
// wrapped in query-failure per §7.
func (s *Service) QueryDataUnary(ctx context.Context, req model.Request) (assemble.Table, error) {
	if err := s.checkAccepting(); err != nil {
		return nil, err
	}
	s.serialMu.Lock()
	defer s.serialMu.Unlock()
	defer s.timeQuery()()

	s.correlator.Reset()
	req.StreamPref = model.StreamUnary
	g := ingest.New(s.transport, req, s.correlator)
	if err := g.Run(ctx); err != nil {
		telemetry.Logf("query_data_unary id=%s failed: %v", req.ID, err)
		s.correlator.Reset()
		return nil, wrapQueryFailure(err)
	}
	return s.finishAssemble(req.PVs)
}

// QueryData decomposes req across concurrent streams, correlates the
// results, and assembles a table.
func (s *Service) QueryData(ctx context.Context, req model.Request) (assemble.Table, error) {
	if err := s.checkAccepting(); err != nil {
		return nil, err
	}
	s.serialMu.Lock()
	defer s.serialMu.Unlock()
	defer s.timeQuery()()

	s.correlator.Reset()
	subs, err := s.decomposeForStreams(req)
	if err != nil {
		return nil, wrapQueryFailure(err)
	}
	if telemetry.Active() {
		ids := make([]string, len(subs))
		for i, sub := range subs {
			ids[i] = sub.ID
		}
		telemetry.Logf("query_data id=%s decomposed into %d sub-requests: %v", req.ID, len(subs), ids)
	}
	telemetry.ObserveSubRequests(len(subs))
	res := orchestrator.Run(ctx, s.transport, subs, s.correlator, orchestrator.Config{
		MaxStreams: s.cfg.MultistreamMaxStreams,
		FailFast:   true,
	})
	if len(res.Errs) > 0 {
		telemetry.ObserveStreamFailure()
		telemetry.Logf("query_data id=%s failed: %v", req.ID, res.Errs[0])
		s.correlator.Reset()
		return nil, wrapQueryFailure(res.Errs[0])
	}
	return s.finishAssemble(req.PVs)
}

// QueryDataMulti decomposes and dispatches every request in reqs against
// the shared correlator and assembles a single table spanning the union of
// their PVs.
func (s *Service) QueryDataMulti(ctx context.Context, reqs []model.Request) (assemble.Table, error) {
	if err := s.checkAccepting(); err != nil {
		return nil, err
	}
	if len(reqs) == 0 {
		return nil, xerr.New(xerr.Malformed, "query_data_multi: empty request list")
	}
	s.serialMu.Lock()
	defer s.serialMu.Unlock()
	defer s.timeQuery()()

	s.correlator.Reset()
	var allSubs []model.Request
	var pvOrder []string
	seen := make(map[string]bool)
	for _, req := range reqs {
		subs, err := s.decomposeForStreams(req)
		if err != nil {
			return nil, wrapQueryFailure(err)
		}
		allSubs = append(allSubs, subs...)
		for _, pv := range req.PVs {
			if !seen[pv] {
				seen[pv] = true
				pvOrder = append(pvOrder, pv)
			}
		}
	}
	telemetry.ObserveSubRequests(len(allSubs))
	res := orchestrator.Run(ctx, s.transport, allSubs, s.correlator, orchestrator.Config{
		MaxStreams: s.cfg.MultistreamMaxStreams,
		FailFast:   true,
	})
	if len(res.Errs) > 0 {
		telemetry.ObserveStreamFailure()
		s.correlator.Reset()
		return nil, wrapQueryFailure(res.Errs[0])
	}
	return s.finishAssemble(pvOrder)
}

// QueryDataStream returns immediately with a StreamHandle the caller drains
// by calling Await. It uses a private correlator, so it does not engage the
// façade's shared correlator lock and may run concurrently with any other
// call (§6: "does not engage the shared correlator and may run
// concurrently").
func (s *Service) QueryDataStream(ctx context.Context, req model.Request) (*StreamHandle, error) {
	if err := s.checkAccepting(); err != nil {
		return nil, err
	}
	runCtx, cancel := context.WithCancel(ctx)
	corr := correlate.New(correlate.Config{
		Pivot:       s.cfg.ConcurrencyPivotSize,
		ThreadCount: s.cfg.ConcurrencyThreadCount,
		Timeout:     s.cfg.taskTimeout(),
	})
	corr.SetConcurrency(s.cfg.ConcurrencyActive)
	handle := &StreamHandle{result: make(chan streamResult, 1), cancel: cancel}

	go func() {
		defer cancel()
		subs, err := s.decomposeForStreams(req)
		if err != nil {
			handle.result <- streamResult{err: wrapQueryFailure(err)}
			return
		}
		telemetry.ObserveSubRequests(len(subs))
		res := orchestrator.Run(runCtx, s.transport, subs, corr, orchestrator.Config{
			MaxStreams: s.cfg.MultistreamMaxStreams,
			FailFast:   true,
		})
		if len(res.Errs) > 0 {
			telemetry.ObserveStreamFailure()
			handle.result <- streamResult{err: wrapQueryFailure(res.Errs[0])}
			return
		}
		set := corr.CorrelatedSet().Clone()
		table, err := assemble.Assemble(set, req.PVs, assemble.Config{
			StaticMax:      s.cfg.TableStaticMax,
			StaticDefault:  s.cfg.TableStaticDefault,
			DynamicEnabled: s.cfg.TableDynamicEnabled,
		})
		telemetry.ObserveCorrelatedBlocks(set.Len())
		telemetry.ObserveBytesProcessed(corr.BytesProcessed())
		if err != nil {
			handle.result <- streamResult{err: wrapQueryFailure(err)}
			return
		}
		handle.result <- streamResult{table: table}
	}()

	return handle, nil
}

// Shutdown begins a graceful shutdown: no further operations are accepted,
// but the call returns immediately and termination completes once any
// in-flight serialized call finishes. It returns false if shutdown was
// already in progress or complete.
func (s *Service) Shutdown() bool {
	if !s.state.CompareAndSwap(stateReady, stateShuttingDown) {
		return false
	}
	telemetry.Logf("service shutting down gracefully")
	go func() {
		s.serialMu.Lock()
		s.state.Store(stateTerminated)
		s.serialMu.Unlock()
		s.closeOnce.Do(func() { close(s.done) })
		telemetry.Logf("service terminated")
	}()
	return true
}

// ShutdownNow terminates immediately without waiting for any in-flight
// serialized call. It returns false if the service was already terminated.
func (s *Service) ShutdownNow() bool {
	prev := s.state.Swap(stateTerminated)
	s.closeOnce.Do(func() { close(s.done) })
	if prev != stateTerminated {
		telemetry.Logf("service terminated immediately")
	}
	return prev != stateTerminated
}

// AwaitTermination blocks until the service reaches the terminated state or
// timeout elapses, returning whether it terminated.
func (s *Service) AwaitTermination(timeout time.Duration) bool {
	select {
	case <-s.done:
		return true
	case <-time.After(timeout):
		return false
	}
}

func (s *Service) decomposeForStreams(req model.Request) ([]model.Request, error) {
	caps := decompose.Caps{
		MaxStreams:     s.cfg.MultistreamMaxStreams,
		MaxPVsPerSub:   s.cfg.DecompMaxPVs,
		MaxRangePerSub: s.cfg.DecompMaxRange,
	}
	target := s.cfg.MultistreamMaxStreams
	if target > len(req.PVs) {
		target = len(req.PVs)
	}
	if target < 1 {
		target = 1
	}
	return decompose.Decompose(req, decompose.Horizontal, target, caps)
}

func (s *Service) finishAssemble(pvs []string) (assemble.Table, error) {
	// Clone before assembling: a DynamicTable keeps its *model.Set as a
	// live backing store (internal/assemble/dynamic_table.go), and the
	// correlator is reset immediately below. Assembling against a clone
	// means that reset only clears the correlator's own blocks slice, never
	// the one a caller's table still reads from.
	set := s.correlator.CorrelatedSet().Clone()
	table, err := assemble.Assemble(set, pvs, assemble.Config{
		StaticMax:      s.cfg.TableStaticMax,
		StaticDefault:  s.cfg.TableStaticDefault,
		DynamicEnabled: s.cfg.TableDynamicEnabled,
	})
	telemetry.ObserveCorrelatedBlocks(set.Len())
	telemetry.ObserveBytesProcessed(s.correlator.BytesProcessed())
	s.correlator.Reset()
	if err != nil {
		return nil, wrapQueryFailure(err)
	}
	return table, nil
}

func (s *Service) timeQuery() func() {
	start := time.Now()
	return func() { telemetry.ObserveQueryDuration(time.Since(start)) }
}

// wrapQueryFailure folds any fatal error kind into a single query-failure
// carrying the originating kind and message (§7).
func wrapQueryFailure(err error) error {
	if err == nil {
		return nil
	}
	if xerr.KindOf(err) == xerr.Cancelled {
		return err
	}
	return xerr.Wrap(xerr.QueryFailure, fmt.Sprintf("query failed: %s", xerr.KindOf(err)), err)
}

// StreamHandle is returned by QueryDataStream; the caller drains it with
// Await or abandons it with Cancel.
type StreamHandle struct {
	result chan streamResult
	cancel context.CancelFunc
}

type streamResult struct {
	table assemble.Table
	err   error
}

// Await blocks until the stream completes or ctx is done, whichever comes
// first.
func (h *StreamHandle) Await(ctx context.Context) (assemble.Table, error) {
	select {
	case r := <-h.result:
		return r.table, r.err
	case <-ctx.Done():
		return nil, xerr.Wrap(xerr.Cancelled, "await cancelled", ctx.Err())
	}
}

// Cancel requests early termination of the stream's ingestion.
func (h *StreamHandle) Cancel() {
	h.cancel()
}
