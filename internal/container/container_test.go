package container

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/garyjia/expense-workflow/internal/domain/entity"
	"github.com/garyjia/expense-workflow/internal/domain/event"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	cfg := DefaultConfig()
	cfg.Database.Path = filepath.Join(t.TempDir(), "expense.db")
	return cfg
}

func TestNewContainer_Validation(t *testing.T) {
	_, err := NewContainer(nil, zap.NewNop())
	assert.Error(t, err)

	_, err = NewContainer(testConfig(t), nil)
	assert.Error(t, err)

	cfg := testConfig(t)
	cfg.Lark.Enabled = true
	_, err = NewContainer(cfg, zap.NewNop())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "lark.app_id")
}

func TestContainer_Lifecycle(t *testing.T) {
	ctx := context.Background()
	c, err := NewContainer(testConfig(t), zap.NewNop())
	require.NoError(t, err)
	assert.False(t, c.Ready())

	require.NoError(t, c.Start(ctx))
	assert.True(t, c.Ready())
	assert.Error(t, c.Start(ctx), "second start")

	require.NotNil(t, c.Services())
	assert.NotNil(t, c.Services().Claim)
	assert.NotNil(t, c.Services().Export)
	assert.NotNil(t, c.Services().Settings)
	assert.NotNil(t, c.DB())
	require.NotNil(t, c.Dispatcher())
	assert.Zero(t, c.Dispatcher().HandlerCount(event.TypeClaimSubmitted), "lark disabled")

	health := c.Health(ctx)
	assert.True(t, health.Overall)
	assert.True(t, health.Components["database"].Healthy)
	assert.Equal(t, "disabled", health.Components["lark"].Message)

	// the schema is migrated and the repositories are usable
	settings, err := c.Repositories().Settings.FetchFuelSettings(ctx, entity.Period{Year: 2025, Month: 7})
	require.NoError(t, err)
	assert.Nil(t, settings)

	require.NoError(t, c.Close())
	assert.False(t, c.Ready())
	assert.Error(t, c.Close())
	assert.Error(t, c.Start(ctx))

	health = c.Health(ctx)
	assert.False(t, health.Overall)
	assert.Equal(t, "not started", health.Components["database"].Message)
}

func TestContainer_StartFailure(t *testing.T) {
	cfg := testConfig(t)
	cfg.Database.Path = filepath.Join(t.TempDir(), "missing", "dir", "expense.db")

	c, err := NewContainer(cfg, zap.NewNop())
	require.NoError(t, err)
	assert.Error(t, c.Start(context.Background()))
	assert.False(t, c.Ready())
}

func TestProvideNotifier(t *testing.T) {
	n, err := ProvideNotifier(&LarkConfig{}, zap.NewNop())
	require.NoError(t, err)
	assert.Nil(t, n)

	n, err = ProvideNotifier(&LarkConfig{Enabled: true, AppID: "a", AppSecret: "b", ApproverOpenID: "ou_1"}, zap.NewNop())
	require.NoError(t, err)
	assert.NotNil(t, n)
}

func TestZapLoggerAdapter_Fields(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	adapter := &zapLoggerAdapter{logger: zap.New(core)}

	adapter.Error("save failed", "claim_id", int64(3), "error", errors.New("boom"), 42, "ignored", "dangling")

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(3), fields["claim_id"])
	assert.Equal(t, "boom", fields["error"])
	assert.Len(t, fields, 2)
}

func TestProvideDispatcher(t *testing.T) {
	d := ProvideDispatcher(nil, zap.NewNop())
	assert.Zero(t, d.HandlerCount(event.TypeClaimSubmitted))
	require.NoError(t, d.Close())

	n, err := ProvideNotifier(&LarkConfig{Enabled: true, AppID: "a", AppSecret: "b", ApproverOpenID: "ou_1"}, zap.NewNop())
	require.NoError(t, err)
	d = ProvideDispatcher(n, zap.NewNop())
	for _, typ := range []event.Type{event.TypeClaimSubmitted, event.TypeClaimApproved, event.TypeClaimRejected} {
		assert.Equal(t, 1, d.HandlerCount(typ), typ.String())
	}
	require.NoError(t, d.Close())
}
