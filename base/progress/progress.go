// Copyright 2024 teasel Project Authors
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

// Package progress tracks long-running jobs such as searches and downloads
// through context-scoped spans.
package progress

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/atomic"
)

type spanKeyType string

var spanKeyName = spanKeyType(uuid.New().String())

type Status string

const (
	StatusRunning  Status = "Running"
	StatusComplete Status = "Complete"
	StatusFailed   Status = "Failed"
)

// Tracer collects root spans under a common name.
type Tracer struct {
	name  string
	spans sync.Map
}

func NewTracer(name string) *Tracer {
	return &Tracer{name: name}
}

// Start creates a root span.
func (t *Tracer) Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	span := newSpan(name, total)
	t.spans.Store(name, span)
	return context.WithValue(ctx, spanKeyName, span), span
}

// List returns a snapshot of all spans, children included, sorted by name.
func (t *Tracer) List() []Progress {
	var progress []Progress
	t.spans.Range(func(_, value interface{}) bool {
		span := value.(*Span)
		progress = append(progress, span.flatten(t.name)...)
		return true
	})
	sort.Slice(progress, func(i, j int) bool {
		return progress[i].Name < progress[j].Name
	})
	return progress
}

// Span is one tracked job. Add may be called from concurrent workers.
type Span struct {
	name     string
	total    int
	count    atomic.Int64
	start    time.Time
	children sync.Map

	mu     sync.Mutex
	status Status
	err    error
	finish time.Time
}

func newSpan(name string, total int) *Span {
	return &Span{
		name:   name,
		status: StatusRunning,
		total:  total,
		start:  time.Now(),
	}
}

func (s *Span) Add(n int) {
	s.count.Add(int64(n))
}

func (s *Span) Count() int {
	return int(s.count.Load())
}

// End marks the span complete and saturates its counter.
func (s *Span) End() {
	s.count.Store(int64(s.total))
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusComplete
	s.finish = time.Now()
}

// Fail marks the span failed and records the cause.
func (s *Span) Fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = StatusFailed
	s.err = err
	s.finish = time.Now()
}

func (s *Span) flatten(tracer string) []Progress {
	s.mu.Lock()
	var errMessage string
	if s.err != nil {
		errMessage = s.err.Error()
	}
	progress := []Progress{{
		Tracer:     tracer,
		Name:       s.name,
		Status:     s.status,
		Error:      errMessage,
		Count:      int(s.count.Load()),
		Total:      s.total,
		StartTime:  s.start,
		FinishTime: s.finish,
	}}
	s.mu.Unlock()
	s.children.Range(func(_, value interface{}) bool {
		child := value.(*Span)
		progress = append(progress, child.flatten(tracer)...)
		return true
	})
	return progress
}

// Start creates a span nested under the span carried by ctx, or a detached
// span if ctx carries none.
func Start(ctx context.Context, name string, total int) (context.Context, *Span) {
	childSpan := newSpan(name, total)
	if ctx == nil {
		return nil, childSpan
	}
	span, ok := ctx.Value(spanKeyName).(*Span)
	if !ok {
		return context.WithValue(ctx, spanKeyName, childSpan), childSpan
	}
	span.children.Store(name, childSpan)
	return context.WithValue(ctx, spanKeyName, childSpan), childSpan
}

// Progress is a point-in-time snapshot of one span.
type Progress struct {
	Tracer     string
	Name       string
	Status     Status
	Error      string
	Count      int
	Total      int
	StartTime  time.Time
	FinishTime time.Time
}

// Elapsed returns the runtime of the span so far, or its final runtime once
// the span ended.
func (p Progress) Elapsed() time.Duration {
	if p.FinishTime.IsZero() {
		return time.Since(p.StartTime)
	}
	return p.FinishTime.Sub(p.StartTime)
}
