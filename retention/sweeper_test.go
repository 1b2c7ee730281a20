package retention

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/careertrack/metrics-engine/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRetentionSweeper(t *testing.T) {
	t.Parallel()

	t.Run("nil store should error", func(t *testing.T) {
		t.Parallel()

		instance, err := NewRetentionSweeper(ArgsRetentionSweeper{})
		assert.Nil(t, instance)
		assert.Equal(t, "nil metric pruner", err.Error())
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		instance, err := NewRetentionSweeper(ArgsRetentionSweeper{Store: &testsCommon.StoreStub{}})
		require.NoError(t, err)
		assert.False(t, instance.IsInterfaceNil())
	})
}

func TestRetentionSweeper_Cleanup(t *testing.T) {
	t.Parallel()

	t.Run("invalid retention days should error", func(t *testing.T) {
		t.Parallel()

		instance, _ := NewRetentionSweeper(ArgsRetentionSweeper{Store: &testsCommon.StoreStub{}})

		for _, days := range []int{0, -1} {
			deleted, err := instance.Cleanup(context.Background(), days)
			require.Error(t, err)
			assert.Contains(t, err.Error(), "invalid retention days")
			assert.Equal(t, int64(0), deleted)
		}
	})
	t.Run("computes cutoff from retention days", func(t *testing.T) {
		t.Parallel()

		var receivedCutoff int64
		store := &testsCommon.StoreStub{
			DeleteMetricsBeforeHandler: func(ctx context.Context, cutoff int64) (int64, error) {
				receivedCutoff = cutoff
				return 7, nil
			},
		}

		instance, _ := NewRetentionSweeper(ArgsRetentionSweeper{Store: store})

		deleted, err := instance.Cleanup(context.Background(), 30)
		require.NoError(t, err)
		assert.Equal(t, int64(7), deleted)

		expected := time.Now().Unix() - 30*86400
		assert.InDelta(t, expected, receivedCutoff, 2)
	})
	t.Run("store error is wrapped", func(t *testing.T) {
		t.Parallel()

		expectedErr := errors.New("db closed")
		store := &testsCommon.StoreStub{
			DeleteMetricsBeforeHandler: func(ctx context.Context, cutoff int64) (int64, error) {
				return 0, expectedErr
			},
		}

		instance, _ := NewRetentionSweeper(ArgsRetentionSweeper{Store: store})

		deleted, err := instance.Cleanup(context.Background(), 30)
		require.ErrorIs(t, err, expectedErr)
		assert.Equal(t, int64(0), deleted)
	})
}
