package runloop

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/convonet/assistant/pkg/agent/tools"
	"github.com/convonet/assistant/pkg/core"
	"github.com/convonet/assistant/pkg/core/types"
)

const (
	defaultCallTimeout  = 6 * time.Second
	defaultRetryBackoff = 500 * time.Millisecond
)

// Spoken-safe fallback texts fed back to the model in place of a result.
const (
	toolTimeoutText  = "I'm sorry, the operation timed out. Please try again."
	toolNoResultText = "No result was returned for this operation."
)

// transportRebuilder is implemented by executors whose transport channel
// can be torn down and re-established after a transient failure.
type transportRebuilder interface {
	RebuildTransport(ctx context.Context) error
}

// Invoker executes batches of tool calls against a registry. Each call is
// bounded by its own timeout; calls in the same batch run concurrently and
// fail independently.
type Invoker struct {
	Registry     *tools.Registry
	Log          *slog.Logger
	CallTimeout  time.Duration
	RetryBackoff time.Duration
}

// NewInvoker builds an invoker with the default timing policy.
func NewInvoker(registry *tools.Registry, log *slog.Logger) *Invoker {
	return &Invoker{
		Registry:     registry,
		Log:          log,
		CallTimeout:  defaultCallTimeout,
		RetryBackoff: defaultRetryBackoff,
	}
}

func (inv *Invoker) callTimeout() time.Duration {
	if inv.CallTimeout > 0 {
		return inv.CallTimeout
	}
	return defaultCallTimeout
}

func (inv *Invoker) retryBackoff() time.Duration {
	if inv.RetryBackoff > 0 {
		return inv.RetryBackoff
	}
	return defaultRetryBackoff
}

// InvokeAll executes every call and returns exactly one terminal record
// per call, in invocation order regardless of completion order. It never
// returns an error: failures are captured in the records so the model can
// react to them.
func (inv *Invoker) InvokeAll(ctx context.Context, calls []types.ToolCall) []*types.ToolExecutionRecord {
	records := make([]*types.ToolExecutionRecord, len(calls))
	for i, call := range calls {
		records[i] = types.NewExecutionRecord(call)
	}

	if len(calls) > 1 {
		var wg sync.WaitGroup
		for i, call := range calls {
			wg.Add(1)
			go func(idx int, c types.ToolCall) {
				defer wg.Done()
				inv.invokeOne(ctx, c, records[idx])
			}(i, call)
		}
		wg.Wait()
	} else {
		for i, call := range calls {
			inv.invokeOne(ctx, call, records[i])
		}
	}

	// Defensive: every record must be terminal even if an executor
	// misbehaved, so callers can rely on len(records) == len(calls)
	// with every entry finished.
	for _, rec := range records {
		if !rec.Status.Terminal() {
			rec.Finish(types.StatusFailed, toolNoResultText, "no result returned")
		}
	}
	return records
}

// invokeOne drives a single call to its terminal record, retrying once on
// a transient-connection failure after rebuilding the transport.
func (inv *Invoker) invokeOne(ctx context.Context, call types.ToolCall, rec *types.ToolExecutionRecord) {
	ex, ok := inv.Registry.Lookup(call.Name)
	if !ok {
		inv.Log.Warn("tool not found", "tool", call.Name, "call_id", call.ID)
		rec.Finish(types.StatusFailed,
			fmt.Sprintf("Tool %s not found.", call.Name),
			string(core.ErrToolNotFound))
		return
	}

	rec.MarkExecuting()
	start := time.Now()

	result, err := inv.execute(ctx, ex, call)
	if err != nil && core.IsTransient(err) {
		inv.Log.Warn("transient tool failure, retrying once",
			"tool", call.Name, "call_id", call.ID, "error", err)
		if rb, ok := ex.(transportRebuilder); ok {
			if rbErr := rb.RebuildTransport(ctx); rbErr != nil {
				inv.Log.Warn("transport rebuild failed", "tool", call.Name, "error", rbErr)
			}
		}
		select {
		case <-time.After(inv.retryBackoff()):
		case <-ctx.Done():
		}
		result, err = inv.execute(ctx, ex, call)
	}

	elapsed := time.Since(start)
	switch {
	case err == nil:
		rec.Finish(types.StatusSuccess, result, "")
		inv.Log.Info("tool executed", "tool", call.Name, "call_id", call.ID, "duration", elapsed)
	case core.IsKind(err, core.ErrToolTimeout):
		rec.Finish(types.StatusTimeout, toolTimeoutText, err.Error())
		inv.Log.Warn("tool timed out", "tool", call.Name, "call_id", call.ID, "duration", elapsed)
	default:
		rec.Finish(types.StatusFailed, fmt.Sprintf("Error: %s", err.Error()), err.Error())
		inv.Log.Warn("tool failed", "tool", call.Name, "call_id", call.ID, "error", err)
	}
}

// execute runs one attempt in its own goroutine so the per-call deadline
// can abandon it. The goroutine is not force-killed; work past the
// deadline completes against external systems but its result is dropped.
func (inv *Invoker) execute(ctx context.Context, ex tools.Executor, call types.ToolCall) (string, error) {
	callCtx, cancel := context.WithTimeout(ctx, inv.callTimeout())
	defer cancel()

	type outcome struct {
		result string
		err    error
	}
	done := make(chan outcome, 1)
	go func() {
		result, err := ex.Execute(callCtx, call.Input)
		done <- outcome{result: result, err: err}
	}()

	select {
	case out := <-done:
		if out.err != nil && callCtx.Err() == context.DeadlineExceeded {
			return "", core.NewError(core.ErrToolTimeout,
				fmt.Sprintf("tool %s exceeded its %s budget", call.Name, inv.callTimeout()), out.err)
		}
		return out.result, out.err
	case <-callCtx.Done():
		if ctx.Err() != nil {
			// The whole turn was cancelled, not just this call.
			return "", core.NewError(core.ErrToolTimeout,
				fmt.Sprintf("tool %s abandoned: turn cancelled", call.Name), ctx.Err())
		}
		return "", core.NewError(core.ErrToolTimeout,
			fmt.Sprintf("tool %s exceeded its %s budget", call.Name, inv.callTimeout()), callCtx.Err())
	}
}
