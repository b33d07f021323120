package metrics

import (
	"context"

	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/pkg/errors"
)

// NewRelicContextKey is the context key holding the *newrelic.Application used
// for custom metrics and events.
type NewRelicContextKey struct{}

// NewApplication starts a New Relic application. A nil application and nil
// error are returned when no license key is configured, which disables every
// metric in this package.
func NewApplication(appName, licenseKey string) (*newrelic.Application, error) {
	if licenseKey == "" {
		return nil, nil
	}

	app, err := newrelic.NewApplication(
		newrelic.ConfigAppName(appName),
		newrelic.ConfigLicense(licenseKey),
		newrelic.ConfigAppLogForwardingEnabled(true),
	)
	if err != nil {
		return nil, errors.Wrap(err, "error creating new relic application")
	}
	return app, nil
}

// WithApplication injects app into ctx for downstream metrics and events.
func WithApplication(ctx context.Context, app *newrelic.Application) context.Context {
	if app == nil {
		return ctx
	}
	return context.WithValue(ctx, NewRelicContextKey{}, app)
}

func applicationFromContext(ctx context.Context) *newrelic.Application {
	app, _ := ctx.Value(NewRelicContextKey{}).(*newrelic.Application)
	return app
}

// StartTransaction starts a New Relic transaction for a unit of work, such as
// a CLI command, so that method traces beneath it are recorded. The returned
// function ends the transaction and notices err if it is non-nil.
func StartTransaction(ctx context.Context, name string) (context.Context, func(err error)) {
	app := applicationFromContext(ctx)
	if app == nil {
		return ctx, func(error) {}
	}

	txn := app.StartTransaction(name)
	return newrelic.NewContext(ctx, txn), func(err error) {
		if err != nil {
			txn.NoticeError(err)
		}
		txn.End()
	}
}
