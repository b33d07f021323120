package metrics

import (
	"context"
	"time"

	"github.com/newrelic/go-agent/v3/newrelic"
)

// MethodTracer times one call within a New Relic transaction. A nil
// *MethodTracer is valid and records nothing.
type MethodTracer struct {
	ctx   context.Context
	name  string
	start time.Time

	txn *newrelic.Transaction
	seg *newrelic.Segment

	failed bool
}

// TraceMethodCall starts a segment named "<component>.<method>" in the
// transaction carried by ctx. It returns nil when ctx has no transaction.
//
// End also records "<component>/<method>/duration" and, when OnError saw an
// error, "<component>/<method>/errors" as custom metrics.
func TraceMethodCall(ctx context.Context, component, method string) *MethodTracer {
	txn := newrelic.FromContext(ctx)
	if txn == nil {
		return nil
	}

	return &MethodTracer{
		ctx:   ctx,
		name:  component + "/" + method,
		start: time.Now(),
		txn:   txn,
		seg:   txn.StartSegment(component + "." + method),
	}
}

func (t *MethodTracer) AddAttribute(key string, value interface{}) {
	if t == nil {
		return
	}

	t.seg.AddAttribute(key, value)
}

func (t *MethodTracer) AddAttributes(attributes map[string]interface{}) {
	for key, value := range attributes {
		t.AddAttribute(key, value)
	}
}

// OnError notices err on the transaction. Nil errors are ignored.
func (t *MethodTracer) OnError(err error) {
	if t == nil || err == nil {
		return
	}

	t.failed = true
	t.seg.AddAttribute("error", err.Error())
	t.txn.NoticeError(err)
}

func (t *MethodTracer) End() {
	if t == nil {
		return
	}

	t.seg.End()

	RecordDuration(t.ctx, t.name+"/duration", time.Since(t.start))
	if t.failed {
		RecordCount(t.ctx, t.name+"/errors", 1)
	}
}
