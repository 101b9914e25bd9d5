package analytics_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/analytics"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

func TestEmission(t *testing.T) {
	assert.Equal(t, 120., analytics.Emission(entity.VehicleCar, 3))
	assert.Equal(t, 120., analytics.Emission(entity.VehicleCar, 5))
	assert.Equal(t, 180., analytics.Emission(entity.VehicleCar, 6))
	assert.Equal(t, 800., analytics.Emission(entity.VehicleBus, 0))
	assert.Equal(t, 70., analytics.Emission(entity.VehicleBike, 0))
	assert.Equal(t, 300., analytics.Emission(entity.VehicleAmbulance, 10))
	assert.Equal(t, 120., analytics.Emission(entity.VehicleType("truck"), 0))

	assert.Equal(t, 4., analytics.Speed(15))
	assert.Equal(t, 0., analytics.Speed(0))
}

func TestFlushBeforeAnyData(t *testing.T) {
	a := analytics.New(0)
	s := a.Flush(0, 5)
	assert.Equal(t, 0., s.AvgWait)
	assert.Equal(t, 0., s.AvgSpeed)
	assert.Equal(t, 0., s.EfficiencyScore)
	assert.Equal(t, 0., s.CO2Emissions)
	assert.GreaterOrEqual(t, s.Throughput, 0)
	assert.LessOrEqual(t, s.Throughput, 2)
	assert.Equal(t, "00:00:05", s.Label)
	assert.Equal(t, entity.Totals{}, a.Totals())
}

func TestFlushWindow(t *testing.T) {
	a := analytics.New(42)
	a.RecordExit(entity.VehicleExitEvent{Lane: entity.North, Type: entity.VehicleCar, StoppedTime: 0, TotalTime: 15})
	a.RecordExit(entity.VehicleExitEvent{Lane: entity.South, Type: entity.VehicleBus, StoppedTime: 6, TotalTime: 20})
	assert.Equal(t, 2, a.Pending())

	s := a.Flush(40, 5)
	assert.Equal(t, 0, a.Pending())
	assert.InDelta(t, 3.5, s.AvgSpeed, 1e-9)
	assert.InDelta(t, 3., s.AvgWait, 1e-9)
	assert.InDelta(t, 980., s.CO2Emissions, 1e-9)
	assert.InDelta(t, 85., s.EfficiencyScore, 1e-9)
	// 原始值 0.5*40 + 0.3*3 + 0.2*20 = 24.9，平滑后 4.98
	assert.InDelta(t, 4.98, s.PollutionIndex, 1e-9)
	assert.GreaterOrEqual(t, s.Throughput, 0)
	assert.LessOrEqual(t, s.Throughput, 4)
	assert.Equal(t, 2, a.Totals().Crossed)
	assert.InDelta(t, 980., a.Totals().CO2, 1e-9)

	// 空窗口沿用平均值，累计值不变
	s = a.Flush(40, 10)
	assert.InDelta(t, 3.5, s.AvgSpeed, 1e-9)
	assert.InDelta(t, 3., s.AvgWait, 1e-9)
	assert.Equal(t, 0., s.CO2Emissions)
	assert.InDelta(t, 85., s.EfficiencyScore, 1e-9)
	assert.InDelta(t, 4.98+(24.9-4.98)*0.2, s.PollutionIndex, 1e-9)
	assert.LessOrEqual(t, s.Throughput, 2)
	assert.Equal(t, 2, a.Totals().Crossed)

	latest, ok := a.Latest()
	require.True(t, ok)
	assert.Equal(t, s, latest)
}

func TestEfficiencyWithoutWaiting(t *testing.T) {
	a := analytics.New(5)
	a.RecordExit(entity.VehicleExitEvent{Type: entity.VehicleBike, StoppedTime: 0, TotalTime: 15})
	s := a.Flush(10, 5)
	assert.Equal(t, 0., s.AvgWait)
	assert.Equal(t, 100., s.EfficiencyScore)

	// 空窗口沿用上一次的平均等待
	s = a.Flush(10, 10)
	assert.Equal(t, 100., s.EfficiencyScore)
}

func TestThroughputJitterRange(t *testing.T) {
	a := analytics.New(11)
	seen := map[int]bool{}
	for i := 1; i <= 200; i++ {
		for range 3 {
			a.RecordExit(entity.VehicleExitEvent{Type: entity.VehicleCar, TotalTime: 15})
		}
		s := a.Flush(0, float64(5*i))
		assert.GreaterOrEqual(t, s.Throughput, 1)
		assert.LessOrEqual(t, s.Throughput, 5)
		seen[s.Throughput] = true
	}
	assert.Len(t, seen, 5)
	assert.Equal(t, 600, a.Totals().Crossed)
}

func TestPollutionClamp(t *testing.T) {
	a := analytics.New(1)
	for range 200 {
		a.RecordExit(entity.VehicleExitEvent{Type: entity.VehicleCar, StoppedTime: 500, TotalTime: 520})
		s := a.Flush(100, 0)
		assert.LessOrEqual(t, s.PollutionIndex, 100.)
		assert.GreaterOrEqual(t, s.PollutionIndex, 0.)
		// 等待超过基准时效率为负
		assert.Less(t, s.EfficiencyScore, 0.)
	}
	assert.InDelta(t, 100., a.Pollution(), 1e-6)
}

func TestHistoryCapAndOrder(t *testing.T) {
	a := analytics.New(7)
	for i := 1; i <= analytics.HistorySize+5; i++ {
		a.Flush(0, float64(5*i))
	}
	h := a.History()
	require.Len(t, h, analytics.HistorySize)
	assert.Equal(t, 30., h[0].Timestamp)
	assert.Equal(t, float64(5*(analytics.HistorySize+5)), h[len(h)-1].Timestamp)
	for i := 1; i < len(h); i++ {
		assert.Less(t, h[i-1].Timestamp, h[i].Timestamp)
	}

	// 返回值是副本
	h[0].Throughput = -100
	assert.NotEqual(t, -100, a.History()[0].Throughput)
}

func TestSmoothDisplayedCO2(t *testing.T) {
	a := analytics.New(0)
	a.RecordExit(entity.VehicleExitEvent{Type: entity.VehicleBus, TotalTime: 20})
	a.Flush(0, 5)
	require.Equal(t, 800., a.Totals().CO2)

	a.Smooth()
	assert.InDelta(t, 80., a.Totals().DisplayedCO2, 1e-9)
	prev := a.Totals().DisplayedCO2
	for range 200 {
		a.Smooth()
		cur := a.Totals().DisplayedCO2
		assert.GreaterOrEqual(t, cur, prev)
		assert.LessOrEqual(t, cur, 800.)
		prev = cur
	}
	assert.Equal(t, 800., a.Totals().DisplayedCO2)
}
