package history

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/betbot/goocean/internal/market"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	recorder, err := Open(filepath.Join(t.TempDir(), "history.db"))
	require.NoError(t, err)
	t.Cleanup(func() { recorder.Close() })
	return recorder
}

func TestBalanceHistory(t *testing.T) {
	recorder := openTestRecorder(t)
	ctx := context.Background()

	require.NoError(t, recorder.RecordBalance(ctx, "0xwallet", 10))
	require.NoError(t, recorder.RecordBalance(ctx, "0xwallet", 12.5))
	require.NoError(t, recorder.RecordBalance(ctx, "0xother", 99))

	snaps, err := recorder.BalanceHistory(ctx, "0xwallet", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 2)
	for _, snap := range snaps {
		assert.Equal(t, "0xwallet", snap.Account)
		assert.False(t, snap.TS.IsZero())
	}
}

func TestPoolShareHistory(t *testing.T) {
	recorder := openTestRecorder(t)
	ctx := context.Background()

	record := market.NewPoolShareRecord("0xpool", "did:op:1", 50, 200)
	require.NoError(t, recorder.RecordPoolShare(ctx, "0xwallet", record))
	other := market.NewPoolShareRecord("0xpool2", "did:op:2", 10, 100)
	require.NoError(t, recorder.RecordPoolShare(ctx, "0xwallet", other))

	snaps, err := recorder.PoolShareHistory(ctx, "0xwallet", "0xpool", 10)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Equal(t, "did:op:1", snaps[0].DataAssetID)
	assert.Equal(t, 25.0, snaps[0].SharesPercentage)

	all, err := recorder.PoolShareHistory(ctx, "0xwallet", "", 10)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestHistoryLimitDefaults(t *testing.T) {
	recorder := openTestRecorder(t)
	ctx := context.Background()

	snaps, err := recorder.BalanceHistory(ctx, "0xwallet", -1)
	require.NoError(t, err)
	assert.Empty(t, snaps)
}
