package scheduler

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ChartDataset/internal/pipeline"
)

type stubRunner struct {
	calls   int32
	block   chan struct{}
	started chan struct{}
	err     error
}

func (r *stubRunner) Run(context.Context) (*pipeline.RunSummary, error) {
	atomic.AddInt32(&r.calls, 1)
	if r.started != nil {
		r.started <- struct{}{}
	}
	if r.block != nil {
		<-r.block
	}
	status := pipeline.StatusSuccess
	if r.err != nil {
		status = pipeline.StatusFailed
	}
	return &pipeline.RunSummary{Status: status, Err: r.err}, r.err
}

func TestRunNow_ReportsSummary(t *testing.T) {
	r := &stubRunner{err: errors.New("directory down")}
	var got *pipeline.RunSummary
	s := NewScheduler(context.Background(), r, func(sum *pipeline.RunSummary) { got = sum }, log.NewNopLogger())

	s.RunNow()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.calls))
	require.NotNil(t, got)
	assert.Equal(t, pipeline.StatusFailed, got.Status)
}

func TestRunNow_DoesNotOverlap(t *testing.T) {
	r := &stubRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	s := NewScheduler(context.Background(), r, nil, log.NewNopLogger())

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.RunNow()
	}()
	<-r.started

	s.RunNow() // returns at once, the first build still holds the slot
	close(r.block)
	wg.Wait()
	assert.Equal(t, int32(1), atomic.LoadInt32(&r.calls))
}

func TestRunNow_CancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := &stubRunner{}
	s := NewScheduler(ctx, r, nil, log.NewNopLogger())

	s.RunNow()
	assert.Zero(t, atomic.LoadInt32(&r.calls))
}

func TestRegister(t *testing.T) {
	s := NewScheduler(context.Background(), &stubRunner{}, nil, log.NewNopLogger())
	assert.NoError(t, s.Register("0 0 6 * * 1-5"))
	assert.Error(t, s.Register("not a cron"))
	assert.Len(t, s.Cron.Entries(), 1)
}

func TestCronTriggersBuild(t *testing.T) {
	r := &stubRunner{started: make(chan struct{}, 4)}
	s := NewScheduler(context.Background(), r, nil, log.NewNopLogger())
	require.NoError(t, s.Register("* * * * * *"))
	s.Start()
	defer s.Stop()

	select {
	case <-r.started:
	case <-time.After(3 * time.Second):
		t.Fatal("build was not triggered")
	}
}

func TestStop_WaitsForAsyncBuild(t *testing.T) {
	r := &stubRunner{block: make(chan struct{}), started: make(chan struct{}, 1)}
	var finished int32
	s := NewScheduler(context.Background(), r, func(*pipeline.RunSummary) {
		atomic.StoreInt32(&finished, 1)
	}, log.NewNopLogger())
	s.Start()

	s.RunAsync()
	<-r.started

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while the build was still running")
	case <-time.After(100 * time.Millisecond):
	}

	close(r.block)
	select {
	case <-stopped:
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not return after the build finished")
	}
	assert.Equal(t, int32(1), atomic.LoadInt32(&finished), "summary delivered before Stop returned")
}
