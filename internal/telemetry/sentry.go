// Package telemetry forwards reportable errors to Sentry when the user opts in.
package telemetry

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/errors"
	"github.com/tphakala/lifelist/internal/logger"
)

const flushTimeout = 2 * time.Second

func getLogger() logger.Logger {
	return logger.Global().Module("telemetry")
}

// Init configures Sentry and installs the error reporter. It is a no-op unless
// telemetry is enabled in settings.
func Init(settings *conf.Settings, release string) error {
	if !settings.Telemetry.Enabled {
		getLogger().Debug("telemetry disabled")
		errors.SetTelemetryReporter(nil)
		return nil
	}
	return initWithOptions(clientOptions(settings, release))
}

func clientOptions(settings *conf.Settings, release string) sentry.ClientOptions {
	return sentry.ClientOptions{
		Dsn:              settings.Telemetry.DSN,
		SampleRate:       1.0,
		Debug:            settings.Debug,
		AttachStacktrace: false,
		Environment:      "production",
		ServerName:       "",
		Release:          fmt.Sprintf("lifelist@%s", release),
		BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
			return applyPrivacyFilters(event)
		},
	}
}

func initWithOptions(opts sentry.ClientOptions) error {
	if err := sentry.Init(opts); err != nil {
		return errors.New(fmt.Errorf("sentry initialization failed: %w", err)).
			Category(errors.CategoryConfiguration).
			Build()
	}

	errors.SetTelemetryReporter(errors.NewSentryReporter(true))
	getLogger().Info("telemetry enabled", logger.String("release", opts.Release))
	return nil
}

// Flush waits for queued events to be delivered.
func Flush() {
	if reporter := errors.GetTelemetryReporter(); reporter == nil || !reporter.IsEnabled() {
		return
	}
	if !sentry.Flush(flushTimeout) {
		getLogger().Warn("telemetry flush timed out", logger.Duration("timeout", flushTimeout))
	}
}

// applyPrivacyFilters strips host and user identifying data from an event.
func applyPrivacyFilters(event *sentry.Event) *sentry.Event {
	event.User = sentry.User{}
	event.ServerName = ""

	if event.Contexts != nil {
		delete(event.Contexts, "device")
		delete(event.Contexts, "os")
		delete(event.Contexts, "runtime")
	}

	for k := range event.Extra {
		if k != "error_type" && k != "component" {
			delete(event.Extra, k)
		}
	}

	if event.Tags != nil {
		delete(event.Tags, "server_name")
		delete(event.Tags, "hostname")
	}

	return event
}
