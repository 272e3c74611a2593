package draft

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"
)

type call struct {
	kind    string
	id      string
	payload Payload
}

// fakePersister records calls. With a gate every call blocks until the test
// sends on it; entered receives once per call before it blocks.
type fakePersister struct {
	mu        sync.Mutex
	calls     []call
	created   int
	results   []error
	active    int
	maxActive int

	gate    chan struct{}
	entered chan struct{}
}

func newFakePersister() *fakePersister {
	return &fakePersister{}
}

func newGatedPersister() *fakePersister {
	return &fakePersister{
		gate:    make(chan struct{}),
		entered: make(chan struct{}, 16),
	}
}

func (f *fakePersister) CreatePost(_ context.Context, p Payload) (string, error) {
	return f.do("create", "", p)
}

func (f *fakePersister) UpdatePost(_ context.Context, id string, p Payload) error {
	_, err := f.do("update", id, p)
	return err
}

func (f *fakePersister) do(kind, id string, p Payload) (string, error) {
	f.mu.Lock()
	f.active++
	if f.active > f.maxActive {
		f.maxActive = f.active
	}
	f.mu.Unlock()

	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.gate != nil {
		<-f.gate
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.active--
	f.calls = append(f.calls, call{kind: kind, id: id, payload: p})

	if len(f.results) > 0 {
		err := f.results[0]
		f.results = f.results[1:]
		if err != nil {
			return "", err
		}
	}
	if kind == "create" {
		f.created++
		return fmt.Sprintf("post-%d", f.created), nil
	}
	return id, nil
}

func (f *fakePersister) snapshot() []call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]call(nil), f.calls...)
}

func (f *fakePersister) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakePersister) release(t *testing.T) {
	t.Helper()
	select {
	case f.gate <- struct{}{}:
	case <-time.After(2 * time.Second):
		t.Fatal("no persistence call waiting to be released")
	}
}

func (f *fakePersister) awaitEntered(t *testing.T) {
	t.Helper()
	select {
	case <-f.entered:
	case <-time.After(2 * time.Second):
		t.Fatal("persistence call never started")
	}
}

type reportLog struct {
	mu      sync.Mutex
	reports []Report
}

func (l *reportLog) add(r Report) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.reports = append(l.reports, r)
}

func (l *reportLog) outcomes() []Outcome {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]Outcome, 0, len(l.reports))
	for _, r := range l.reports {
		out = append(out, r.Outcome)
	}
	return out
}

func (l *reportLog) last() Report {
	l.mu.Lock()
	defer l.mu.Unlock()
	if len(l.reports) == 0 {
		return Report{}
	}
	return l.reports[len(l.reports)-1]
}

var testEpoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func newTestEngine(p Persister) (*Engine, *FakeClock, *reportLog) {
	clock := NewFakeClock(testEpoch)
	reports := &reportLog{}
	e := NewEngine(p, WithClock(clock), WithReporter(reports.add))
	return e, clock, reports
}

func eventually(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met in time")
		}
		time.Sleep(time.Millisecond)
	}
}

func kinds(calls []call) []string {
	out := make([]string, 0, len(calls))
	for _, c := range calls {
		out = append(out, c.kind)
	}
	return out
}
