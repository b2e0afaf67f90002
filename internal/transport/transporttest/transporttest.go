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

// Package transporttest provides in-memory fakes of transport.Transport for
// unit tests, following the teacher's pattern of a thin logging fake behind
// a minimal client interface (persistence.LoggingKafkaProducer,
// persistence.LoggingRedisEvaler) rather than a generated mock.
package transporttest

import (
	"context"
	"sync"

	"github.com/osprey-dcs/dp-query-engine/internal/transport"
	"github.com/osprey-dcs/dp-query-engine/pkg/model"
)

// Script is a scripted Transport: each sub-request consumes frames from a
// queue keyed by request ID, in order. Tests build the queue up front with
// Enqueue, then hand the Script to the component under test.
type Script struct {
	mu       sync.Mutex
	frames   map[string][]transport.Frame
	metaResp []model.PvInfo
	metaErr  error
	openErr  map[string]error
}

// NewScript returns an empty scripted transport.
func NewScript() *Script {
	return &Script{
		frames:  make(map[string][]transport.Frame),
		openErr: make(map[string]error),
	}
}

// Enqueue appends frames to be delivered for the sub-request identified by
// reqID, in the order given.
func (s *Script) Enqueue(reqID string, frames ...transport.Frame) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.frames[reqID] = append(s.frames[reqID], frames...)
}

// FailOpen causes OpenForwardStream/OpenBidiStream for reqID to return err
// instead of a stream.
func (s *Script) FailOpen(reqID string, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.openErr[reqID] = err
}

// SetMeta fixes the response for QueryMeta.
func (s *Script) SetMeta(infos []model.PvInfo, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metaResp = infos
	s.metaErr = err
}

func (s *Script) take(reqID string) (transport.Frame, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	q := s.frames[reqID]
	if len(q) == 0 {
		return transport.Frame{}, false
	}
	next := q[0]
	s.frames[reqID] = q[1:]
	return next, true
}

// Unary returns the first queued frame for req.ID, or an empty frame if
// none was enqueued.
func (s *Script) Unary(ctx context.Context, req model.Request) (transport.Frame, error) {
	f, ok := s.take(req.ID)
	if !ok {
		return transport.Frame{}, nil
	}
	return f, nil
}

// OpenForwardStream returns a streamFake draining the queued frames for
// req.ID.
func (s *Script) OpenForwardStream(ctx context.Context, req model.Request) (transport.FrameStream, error) {
	s.mu.Lock()
	err := s.openErr[req.ID]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &streamFake{script: s, reqID: req.ID}, nil
}

// OpenBidiStream returns a bidiFake requiring SendNext before each Recv.
func (s *Script) OpenBidiStream(ctx context.Context, req model.Request) (transport.BidiStream, error) {
	s.mu.Lock()
	err := s.openErr[req.ID]
	s.mu.Unlock()
	if err != nil {
		return nil, err
	}
	return &bidiFake{streamFake: streamFake{script: s, reqID: req.ID}}, nil
}

// QueryMeta returns the fixed response set by SetMeta.
func (s *Script) QueryMeta(ctx context.Context, req model.MetadataRequest) ([]model.PvInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.metaResp, s.metaErr
}

type streamFake struct {
	script *Script
	reqID  string
	closed bool
}

func (s *streamFake) Recv(ctx context.Context) (transport.Frame, bool, error) {
	if s.closed {
		return transport.Frame{}, false, nil
	}
	f, ok := s.script.take(s.reqID)
	return f, ok, nil
}

func (s *streamFake) Close() error {
	s.closed = true
	return nil
}

type bidiFake struct {
	streamFake
}

func (b *bidiFake) SendNext(ctx context.Context) error {
	return nil
}
