package logger

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObservedLogger() (*zap.Logger, *observer.ObservedLogs) {
	core, recorded := observer.New(zapcore.DebugLevel)
	return zap.New(core), recorded
}

func TestWithContext_RoundTrip(t *testing.T) {
	logger, recorded := newObservedLogger()

	ctx := WithContext(context.Background(), logger)
	FromContext(ctx).Info("token refreshed")

	assert.Equal(t, 1, recorded.Len())
}

func TestFromContext_Fallbacks(t *testing.T) {
	// No logger stored, and a value of the wrong type, both fall back to
	// a usable no-op logger.
	for name, ctx := range map[string]context.Context{
		"empty":      context.Background(),
		"wrong type": context.WithValue(context.Background(), LoggerKey, "not a logger"),
	} {
		t.Run(name, func(t *testing.T) {
			logger := FromContext(ctx)
			require.NotNil(t, logger)
			assert.NotPanics(t, func() { logger.Info("ok") })
		})
	}
}

func TestWithRequestID(t *testing.T) {
	logger, recorded := newObservedLogger()

	ctx, enriched := WithRequestID(context.Background(), logger, "req-123")

	assert.Equal(t, "req-123", GetRequestID(ctx))
	enriched.Info("accepted")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "req-123", recorded.All()[0].ContextMap()["request_id"])
}

func TestWithCredentialID(t *testing.T) {
	logger, recorded := newObservedLogger()

	ctx, enriched := WithCredentialID(context.Background(), logger, "7b9e0cde-1f7e-47a2-8fd3-25be75f8a111")

	assert.Equal(t, "7b9e0cde-1f7e-47a2-8fd3-25be75f8a111", GetCredentialID(ctx))
	enriched.Info("cycle started")
	require.Equal(t, 1, recorded.Len())
	assert.Equal(t, "7b9e0cde-1f7e-47a2-8fd3-25be75f8a111", recorded.All()[0].ContextMap()["credential_id"])
}

func TestWithFeedID(t *testing.T) {
	logger, _ := newObservedLogger()

	ctx, enriched := WithFeedID(context.Background(), logger, "f9f5a4cc-9b2e-4d8c-9c2b-000000000001")

	assert.Equal(t, "f9f5a4cc-9b2e-4d8c-9c2b-000000000001", GetFeedID(ctx))
	assert.NotNil(t, enriched)
}

func TestGetters_EmptyContext(t *testing.T) {
	ctx := context.Background()

	assert.Empty(t, GetRequestID(ctx))
	assert.Empty(t, GetCredentialID(ctx))
	assert.Empty(t, GetFeedID(ctx))
}

func TestContextChaining(t *testing.T) {
	logger, recorded := newObservedLogger()
	ctx := context.Background()

	ctx, logger = WithRequestID(ctx, logger, "req-1")
	ctx, logger = WithCredentialID(ctx, logger, "cred-1")
	ctx, logger = WithFeedID(ctx, logger, "feed-1")

	assert.Equal(t, "req-1", GetRequestID(ctx))
	assert.Equal(t, "cred-1", GetCredentialID(ctx))
	assert.Equal(t, "feed-1", GetFeedID(ctx))

	logger.Info("feed submitted")
	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "cred-1", fields["credential_id"])
	assert.Equal(t, "feed-1", fields["feed_id"])
}

func TestWithRequestID_Overrides(t *testing.T) {
	logger, _ := newObservedLogger()
	ctx := context.Background()

	ctx, _ = WithRequestID(ctx, logger, "first-id")
	ctx, _ = WithRequestID(ctx, logger, "second-id")

	assert.Equal(t, "second-id", GetRequestID(ctx))
}

func TestL_EnrichesFromContext(t *testing.T) {
	logger, recorded := newObservedLogger()

	ctx := context.Background()
	ctx, _ = WithRequestID(ctx, logger, "req-123")
	ctx, _ = WithCredentialID(ctx, logger, "cred-456")
	ctx, _ = WithFeedID(ctx, logger, "feed-789")
	ctx = WithContext(ctx, logger)

	L(ctx).Info("quantity feed built", zap.Int("items", 12))

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.Equal(t, "req-123", fields["request_id"])
	assert.Equal(t, "cred-456", fields["credential_id"])
	assert.Equal(t, "feed-789", fields["feed_id"])
	assert.EqualValues(t, 12, fields["items"])
}

func TestContextLogger_OmitsEmptyIdentifiers(t *testing.T) {
	logger, recorded := newObservedLogger()

	WithLogger(context.Background(), logger).Info("startup")

	require.Equal(t, 1, recorded.Len())
	fields := recorded.All()[0].ContextMap()
	assert.NotContains(t, fields, "request_id")
	assert.NotContains(t, fields, "credential_id")
	assert.NotContains(t, fields, "feed_id")
}

func TestContextLogger_With(t *testing.T) {
	logger, recorded := newObservedLogger()

	cl := WithLogger(context.Background(), logger).
		With(zap.String("marketplace", "amazon-uk")).
		With(zap.String("sku", "LEGO-75192"))
	cl.Warn("price drift detected")

	require.Equal(t, 1, recorded.Len())
	entry := recorded.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "amazon-uk", fields["marketplace"])
	assert.Equal(t, "LEGO-75192", fields["sku"])
}

func TestContextLogger_Levels(t *testing.T) {
	logger, recorded := newObservedLogger()
	cl := WithLogger(context.Background(), logger)

	cl.Debug("debug")
	cl.Info("info")
	cl.Warn("warn")
	cl.Error("error")

	entries := recorded.All()
	require.Len(t, entries, 4)
	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, zapcore.InfoLevel, entries[1].Level)
	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)
	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
}

func TestContextLogger_NilLogger(t *testing.T) {
	cl := &ContextLogger{ctx: context.Background()}

	assert.NotPanics(t, func() { cl.Info("no logger configured") })
}

func TestContextLogger_ZapAndSugar(t *testing.T) {
	logger, recorded := newObservedLogger()

	ctx, _ := WithFeedID(context.Background(), zap.NewNop(), "feed-1")
	cl := WithLogger(ctx, logger)

	cl.Zap().Info("raw")
	cl.Sugar().Infof("sugared %s", "entry")

	entries := recorded.All()
	require.Len(t, entries, 2)
	assert.Equal(t, "feed-1", entries[0].ContextMap()["feed_id"])
	assert.Equal(t, "sugared entry", entries[1].Message)
}
