package runloop

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/convonet/assistant/pkg/agent/tools"
	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

type fakeExecutor struct {
	name   string
	result string
}

func (f fakeExecutor) Name() string { return f.name }
func (f fakeExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, Description: "d", InputSchema: types.ObjectSchema(nil)}
}
func (f fakeExecutor) Execute(ctx context.Context, input map[string]any) (string, error) {
	return f.result, nil
}

type failingExecutor struct {
	name string
}

func (f failingExecutor) Name() string { return f.name }
func (f failingExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, Description: "d", InputSchema: types.ObjectSchema(nil)}
}
func (f failingExecutor) Execute(ctx context.Context, input map[string]any) (string, error) {
	return "", errors.New("tool exploded")
}

type blockingExecutor struct {
	name string
}

func (f blockingExecutor) Name() string { return f.name }
func (f blockingExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, Description: "d", InputSchema: types.ObjectSchema(nil)}
}
func (f blockingExecutor) Execute(ctx context.Context, input map[string]any) (string, error) {
	<-ctx.Done()
	return "", ctx.Err()
}

// flakyExecutor fails transiently until its transport is rebuilt.
type flakyExecutor struct {
	name string

	mu       sync.Mutex
	rebuilds int
	attempts int
}

func (f *flakyExecutor) Name() string { return f.name }
func (f *flakyExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, Description: "d", InputSchema: types.ObjectSchema(nil)}
}
func (f *flakyExecutor) Execute(ctx context.Context, input map[string]any) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts++
	if f.rebuilds == 0 {
		return "", core.NewError(core.ErrTransientConnection, "channel closed unexpectedly", nil)
	}
	return "recovered", nil
}
func (f *flakyExecutor) RebuildTransport(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rebuilds++
	return nil
}

type trackingExecutor struct {
	name  string
	delay time.Duration

	mu          sync.Mutex
	inFlight    int
	maxInFlight int
}

func (f *trackingExecutor) Name() string { return f.name }
func (f *trackingExecutor) Definition() types.Tool {
	return types.Tool{Name: f.name, Description: "d", InputSchema: types.ObjectSchema(nil)}
}
func (f *trackingExecutor) Execute(ctx context.Context, input map[string]any) (string, error) {
	f.mu.Lock()
	f.inFlight++
	if f.inFlight > f.maxInFlight {
		f.maxInFlight = f.inFlight
	}
	f.mu.Unlock()

	time.Sleep(f.delay)

	f.mu.Lock()
	f.inFlight--
	f.mu.Unlock()
	return "ok", nil
}

func testInvoker(executors ...tools.Executor) *Invoker {
	return NewInvoker(tools.NewRegistry(executors...), slog.Default())
}

func TestInvokeAllMissingAndSuccess(t *testing.T) {
	inv := testInvoker(fakeExecutor{name: "create_todo", result: "created"})

	records := inv.InvokeAll(context.Background(), []types.ToolCall{
		{ID: "a1", Name: "no_such_tool"},
		{ID: "a2", Name: "create_todo"},
	})

	if len(records) != 2 {
		t.Fatalf("got %d records, want 2", len(records))
	}
	if records[0].Status != types.StatusFailed {
		t.Errorf("missing tool status = %s, want failed", records[0].Status)
	}
	if records[0].Result != "Tool no_such_tool not found." {
		t.Errorf("missing tool result = %q", records[0].Result)
	}
	if records[1].Status != types.StatusSuccess || records[1].Result != "created" {
		t.Errorf("success record = %+v", records[1])
	}
}

func TestInvokeAllAlwaysTerminal(t *testing.T) {
	inv := testInvoker(
		fakeExecutor{name: "ok", result: "fine"},
		failingExecutor{name: "boom"},
	)
	inv.CallTimeout = 200 * time.Millisecond

	calls := []types.ToolCall{
		{ID: "c1", Name: "ok"},
		{ID: "c2", Name: "boom"},
		{ID: "c3", Name: "absent"},
	}
	records := inv.InvokeAll(context.Background(), calls)

	if len(records) != len(calls) {
		t.Fatalf("got %d records, want %d", len(records), len(calls))
	}
	for i, rec := range records {
		if !rec.Status.Terminal() {
			t.Errorf("record %d status = %s, not terminal", i, rec.Status)
		}
		if rec.ToolID != calls[i].ID {
			t.Errorf("record %d is for call %s, want %s: results must keep invocation order", i, rec.ToolID, calls[i].ID)
		}
	}
}

func TestInvokeAllFailureIndependence(t *testing.T) {
	inv := testInvoker(
		failingExecutor{name: "boom"},
		fakeExecutor{name: "steady", result: "done"},
	)

	records := inv.InvokeAll(context.Background(), []types.ToolCall{
		{ID: "x1", Name: "boom"},
		{ID: "x2", Name: "steady"},
	})

	if records[0].Status != types.StatusFailed {
		t.Errorf("boom status = %s, want failed", records[0].Status)
	}
	if records[1].Status != types.StatusSuccess {
		t.Errorf("steady status = %s: one failing call must not corrupt siblings", records[1].Status)
	}
}

func TestInvokeAllTimeout(t *testing.T) {
	inv := testInvoker(blockingExecutor{name: "slow"})
	inv.CallTimeout = 50 * time.Millisecond

	start := time.Now()
	records := inv.InvokeAll(context.Background(), []types.ToolCall{{ID: "t1", Name: "slow"}})
	elapsed := time.Since(start)

	if records[0].Status != types.StatusTimeout {
		t.Fatalf("status = %s, want timeout", records[0].Status)
	}
	if records[0].Result != toolTimeoutText {
		t.Errorf("result = %q, want the spoken-safe timeout text", records[0].Result)
	}
	if elapsed > time.Second {
		t.Errorf("invocation took %s, should return near the 50ms budget", elapsed)
	}
}

func TestInvokeAllRetriesTransientOnce(t *testing.T) {
	flaky := &flakyExecutor{name: "mcp_tool"}
	inv := testInvoker(flaky)
	inv.RetryBackoff = 10 * time.Millisecond

	records := inv.InvokeAll(context.Background(), []types.ToolCall{{ID: "r1", Name: "mcp_tool"}})

	if records[0].Status != types.StatusSuccess || records[0].Result != "recovered" {
		t.Fatalf("record = %+v, want recovered success after retry", records[0])
	}
	if flaky.attempts != 2 {
		t.Errorf("attempts = %d, want exactly 2", flaky.attempts)
	}
	if flaky.rebuilds != 1 {
		t.Errorf("rebuilds = %d, want the channel rebuilt before the retry", flaky.rebuilds)
	}
}

func TestInvokeAllSecondTransientFailureIsTerminal(t *testing.T) {
	// No RebuildTransport: the executor keeps failing transiently, so the
	// single retry also fails and the record is terminal failed.
	always := failingTransient{name: "mcp_tool"}
	inv := testInvoker(always)
	inv.RetryBackoff = 10 * time.Millisecond

	records := inv.InvokeAll(context.Background(), []types.ToolCall{{ID: "r1", Name: "mcp_tool"}})
	if records[0].Status != types.StatusFailed {
		t.Fatalf("status = %s, want failed after second transient failure", records[0].Status)
	}
}

type failingTransient struct{ name string }

func (f failingTransient) Name() string { return f.name }
func (f failingTransient) Definition() types.Tool {
	return types.Tool{Name: f.name, InputSchema: types.ObjectSchema(nil)}
}
func (f failingTransient) Execute(ctx context.Context, input map[string]any) (string, error) {
	return "", core.NewError(core.ErrTransientConnection, "channel closed unexpectedly", nil)
}

func TestInvokeAllRunsConcurrently(t *testing.T) {
	tracker := &trackingExecutor{name: "slowish", delay: 100 * time.Millisecond}
	inv := testInvoker(tracker)

	calls := []types.ToolCall{
		{ID: "p1", Name: "slowish"},
		{ID: "p2", Name: "slowish"},
		{ID: "p3", Name: "slowish"},
	}
	start := time.Now()
	records := inv.InvokeAll(context.Background(), calls)
	elapsed := time.Since(start)

	for i, rec := range records {
		if rec.Status != types.StatusSuccess {
			t.Errorf("record %d status = %s", i, rec.Status)
		}
	}
	if tracker.maxInFlight < 2 {
		t.Errorf("maxInFlight = %d, batch of 3 should overlap", tracker.maxInFlight)
	}
	if elapsed > 250*time.Millisecond {
		t.Errorf("batch took %s, concurrent dispatch should be near one call's delay", elapsed)
	}
}
