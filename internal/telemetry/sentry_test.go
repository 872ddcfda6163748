package telemetry

import (
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tphakala/lifelist/internal/conf"
	"github.com/tphakala/lifelist/internal/errors"
)

func initMock(t *testing.T) *MockTransport {
	t.Helper()

	transport := NewMockTransport()
	settings := &conf.Settings{Telemetry: conf.TelemetrySettings{Enabled: true}}
	opts := clientOptions(settings, "test")
	opts.Transport = transport
	require.NoError(t, initWithOptions(opts))

	t.Cleanup(func() {
		errors.SetTelemetryReporter(nil)
		sentry.CurrentHub().BindClient(nil)
	})
	return transport
}

func TestInitDisabled(t *testing.T) {
	require.NoError(t, Init(&conf.Settings{}, "test"))
	assert.Nil(t, errors.GetTelemetryReporter())
}

func TestReportedErrorReachesTransport(t *testing.T) {
	transport := initMock(t)

	errors.Newf("write failed for /home/alice/photos").
		Component("datastore").
		Category(errors.CategoryDatabase).
		Context("operation", "save_entry").
		Build()
	sentry.Flush(flushTimeout)

	events := transport.Events()
	require.Len(t, events, 1)
	assert.Contains(t, events[0].Message, "/home/[USER]")
	assert.NotContains(t, events[0].Message, "alice")
	assert.Equal(t, "datastore", events[0].Tags["component"])
	assert.Empty(t, events[0].ServerName)
}

func TestNotFoundErrorsAreNotReported(t *testing.T) {
	transport := initMock(t)

	errors.New(errors.NewStd("entry not found")).
		Category(errors.CategoryNotFound).
		EntityContext("entry", 7).
		Build()
	sentry.Flush(flushTimeout)

	assert.Empty(t, transport.Events())
}

func TestApplyPrivacyFilters(t *testing.T) {
	t.Parallel()

	event := sentry.NewEvent()
	event.ServerName = "laptop"
	event.User = sentry.User{ID: "42"}
	event.Extra = map[string]any{"component": "x", "path": "/home/a"}
	event.Tags = map[string]string{"hostname": "laptop", "category": "database"}

	out := applyPrivacyFilters(event)
	assert.Empty(t, out.ServerName)
	assert.True(t, out.User.IsEmpty())
	assert.Equal(t, map[string]any{"component": "x"}, out.Extra)
	assert.Equal(t, map[string]string{"category": "database"}, out.Tags)
}
