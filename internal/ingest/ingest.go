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

// Package ingest drives a single sub-request against one transport stream
// and delivers its buckets to a sink in receipt order (§4.3). It is
// transport-mode-agnostic: the caller picks unary, forward-stream, or
// bidi-cursor by what it put in the sub-request's StreamPref, and the
// ingester drives whichever mode the transport hands back.
package ingest

import (
	"context"
	"fmt"
	"sync/atomic"

	"github.com/osprey-dcs/dp-query-engine/internal/telemetry"
	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/internal/xerr"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Sink receives buckets as they arrive. Implementations (the correlator, in
// production) must be safe for sequential calls from a single ingester, and
// for concurrent calls across ingesters when multiple run in parallel.
type Sink interface {
	InsertBucket(bucket model.Bucket) error
}

// Ingester runs one sub-request to completion or cancellation.
type Ingester struct {
	transport transport.Transport
	req       model.Request
	sink      Sink
	cancelled atomic.Bool
}

// New returns an Ingester for req, delivering to sink.
func New(t transport.Transport, req model.Request, sink Sink) *Ingester {
	return &Ingester{transport: t, req: req, sink: sink}
}

// Cancel requests early termination. Idempotent; safe to call from any
// goroutine, including concurrently with Run. Once cancelled, Run returns a
// Cancelled error at its next opportunity rather than delivering further
// buckets.
func (g *Ingester) Cancel() {
	g.cancelled.Store(true)
}

// Run drives the sub-request according to req.StreamPref and returns when
// the stream completes, the ingester is cancelled, or a fatal error occurs.
// A transport-level error is wrapped as xerr.TransportFailure; a frame
// carrying an Exceptional result is converted to xerr.TransportRejected (for
// a server-side rejection), xerr.Exhausted (for a unary result that would
// exceed the server's frame size limit), or xerr.TransportFailure (for any
// other server-side error), per §4.3 and §7.
func (g *Ingester) Run(ctx context.Context) error {
	switch g.req.StreamPref {
	case model.StreamUnary:
		return g.runUnary(ctx)
	case model.StreamForward:
		return g.runForward(ctx)
	case model.StreamBidi:
		return g.runBidi(ctx)
	default:
		return xerr.New(xerr.Malformed, fmt.Sprintf("ingest: unknown stream preference %d", g.req.StreamPref))
	}
}

func (g *Ingester) runUnary(ctx context.Context) error {
	frame, err := g.transport.Unary(ctx, g.req)
	if err != nil {
		return xerr.Wrap(xerr.TransportFailure, "unary request failed", err)
	}
	return g.deliver(frame)
}

func (g *Ingester) runForward(ctx context.Context) error {
	stream, err := g.transport.OpenForwardStream(ctx, g.req)
	if err != nil {
		return xerr.Wrap(xerr.TransportFailure, "failed to open forward stream", err)
	}
	defer stream.Close()
	for {
		if g.cancelled.Load() {
			return xerr.New(xerr.Cancelled, "ingestion cancelled")
		}
		frame, ok, err := stream.Recv(ctx)
		if err != nil {
			return xerr.Wrap(xerr.TransportFailure, "stream recv failed", err)
		}
		if !ok {
			return nil
		}
		if err := g.deliver(frame); err != nil {
			return err
		}
	}
}

func (g *Ingester) runBidi(ctx context.Context) error {
	stream, err := g.transport.OpenBidiStream(ctx, g.req)
	if err != nil {
		return xerr.Wrap(xerr.TransportFailure, "failed to open bidi stream", err)
	}
	defer stream.Close()
	for {
		if g.cancelled.Load() {
			return xerr.New(xerr.Cancelled, "ingestion cancelled")
		}
		if err := stream.SendNext(ctx); err != nil {
			return xerr.Wrap(xerr.TransportFailure, "cursor next failed", err)
		}
		frame, ok, err := stream.Recv(ctx)
		if err != nil {
			return xerr.Wrap(xerr.TransportFailure, "stream recv failed", err)
		}
		if !ok {
			return nil
		}
		if err := g.deliver(frame); err != nil {
			return err
		}
	}
}

// deliver pushes frame's buckets to the sink, or converts an exceptional
// frame to the corresponding error.
func (g *Ingester) deliver(frame transport.Frame) error {
	if frame.Exceptional != nil {
		telemetry.Logf("ingest: request %q received exceptional result status=%d: %s", g.req.ID, frame.Exceptional.Status, frame.Exceptional.Message)
		switch frame.Exceptional.Status {
		case transport.StatusRejected:
			return xerr.New(xerr.TransportRejected, frame.Exceptional.Message)
		case transport.StatusExhausted:
			return xerr.New(xerr.Exhausted, frame.Exceptional.Message)
		default:
			return xerr.New(xerr.TransportFailure, frame.Exceptional.Message)
		}
	}
	for _, b := range frame.Buckets {
		if g.cancelled.Load() {
			return xerr.New(xerr.Cancelled, "ingestion cancelled")
		}
		if err := g.sink.InsertBucket(b); err != nil {
			return err
		}
	}
	return nil
}
