package metrics

import (
	"context"
	"time"
)

// RecordCount records a count metric. Without an application in ctx it does
// nothing.
func RecordCount(ctx context.Context, metricName string, count uint64) {
	if app := applicationFromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(count))
	}
}

// RecordDuration records a duration metric in milliseconds.
func RecordDuration(ctx context.Context, metricName string, duration time.Duration) {
	if app := applicationFromContext(ctx); app != nil {
		app.RecordCustomMetric(metricName, float64(duration)/float64(time.Millisecond))
	}
}

// RecordEvent records a custom event, such as a confirmed enrollment. Nil
// attribute values are dropped.
func RecordEvent(ctx context.Context, eventName string, attributes map[string]interface{}) {
	app := applicationFromContext(ctx)
	if app == nil {
		return
	}

	filtered := make(map[string]interface{}, len(attributes))
	for k, v := range attributes {
		if v != nil {
			filtered[k] = v
		}
	}
	app.RecordCustomEvent(eventName, filtered)
}
