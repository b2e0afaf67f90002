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

// Package transport defines the seams the engine needs from the archive's
// wire transport, without committing to any concrete RPC stack. Connection
// establishment, TLS, keep-alive, compression, and the wire schema itself
// are explicitly out of scope (§1, §6) — production callers supply a
// Transport backed by their real client; transporttest supplies in-memory
// fakes for unit tests, in the spirit of the teacher's KafkaProducer/
// RedisEvaler minimal-interface-over-a-real-client seams.
package transport

import (
	"context"

	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// ExceptionalStatus classifies a server-reported failure carried inline in
// a frame (§6 DataResponse = DataFrame | Exceptional).
type ExceptionalStatus int

const (
	StatusRejected ExceptionalStatus = iota
	StatusError
	// StatusExhausted marks a unary result the server declined to return
	// because it would exceed the unary frame size limit (§7 exhausted);
	// the caller must upgrade to a streaming preference.
	StatusExhausted
)

// Exceptional is a server-reported failure delivered in place of a data
// frame.
type Exceptional struct {
	Status  ExceptionalStatus
	Message string
}

// Frame is one unit of transport delivery: either a batch of buckets or an
// exceptional result (§4.3 "Frame content").
type Frame struct {
	Buckets     []model.Bucket
	Exceptional *Exceptional
}

// FrameStream is a server-streaming or bidi-cursor response: repeated calls
// to Recv deliver frames in receipt order until the server signals
// completion (ok == false) or an error occurs.
type FrameStream interface {
	// Recv blocks for the next frame. ok is false exactly when the stream has
	// completed with no further frames (not an error).
	Recv(ctx context.Context) (frame Frame, ok bool, err error)
	// Close terminates the stream immediately; safe to call more than once.
	Close() error
}

// BidiStream additionally requires the client to request each frame with a
// "next" cursor token before the next Recv can yield data (§4.3 bidi-cursor).
type BidiStream interface {
	FrameStream
	// SendNext issues a single CursorOp{kind: next} to the server.
	SendNext(ctx context.Context) error
}

// Transport is the abstract request/response contract described in §6. A
// production implementation wraps a real RPC client; it owns connection
// lifecycle entirely outside this package.
type Transport interface {
	// Unary performs a single round trip returning the full result in one
	// frame. The server may reject an oversize result (§7 exhausted).
	Unary(ctx context.Context, req model.Request) (Frame, error)
	// OpenForwardStream opens a server-streaming response for req.
	OpenForwardStream(ctx context.Context, req model.Request) (FrameStream, error)
	// OpenBidiStream opens a bidi-cursor response for req.
	OpenBidiStream(ctx context.Context, req model.Request) (BidiStream, error)
	// QueryMeta performs the single unary metadata lookup (§1: out of scope
	// beyond this interface — no state, no retries).
	QueryMeta(ctx context.Context, req model.MetadataRequest) ([]model.PvInfo, error)
}
