package probe

import (
	"context"
	"testing"

	"github.com/careertrack/metrics-engine/testsCommon"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewResourceProbe(t *testing.T) {
	t.Parallel()

	t.Run("nil recorder should error", func(t *testing.T) {
		t.Parallel()

		instance, err := NewResourceProbe(ArgsResourceProbe{})
		assert.Nil(t, instance)
		assert.Equal(t, "nil recorder", err.Error())
	})
	t.Run("should work", func(t *testing.T) {
		t.Parallel()

		instance, err := NewResourceProbe(ArgsResourceProbe{Recorder: &testsCommon.IngestorStub{}})
		require.NoError(t, err)
		assert.False(t, instance.IsInterfaceNil())
	})
}

func TestResourceProbe_Sample(t *testing.T) {
	t.Parallel()

	recorded := make(map[string]float64)
	recorder := &testsCommon.IngestorStub{
		RecordHandler: func(name string, value float64, tags map[string]string, recordedAt int64) {
			recorded[name] = value
			assert.Greater(t, recordedAt, int64(0))
		},
	}

	instance, _ := NewResourceProbe(ArgsResourceProbe{Recorder: recorder})
	instance.Sample(context.Background())

	require.Equal(t, 4, len(recorded))
	assert.Greater(t, recorded[GoroutinesMetricName], float64(0))
	assert.Greater(t, recorded[HeapAllocMetricName], float64(0))
	assert.Greater(t, recorded[SysBytesMetricName], float64(0))
	assert.Contains(t, recorded, GCPauseMetricName)
}

func TestSnapshot(t *testing.T) {
	t.Parallel()

	usage := Snapshot()
	assert.Greater(t, usage.Goroutines, 0)
	assert.Greater(t, usage.HeapAllocBytes, uint64(0))
	assert.Greater(t, usage.SysBytes, uint64(0))
	assert.Greater(t, usage.NumCPU, 0)
}
