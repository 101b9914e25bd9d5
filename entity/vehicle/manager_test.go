package vehicle_test

import (
	"testing"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
)

const (
	R  = mapv2.LightState_LIGHT_STATE_RED
	Y  = mapv2.LightState_LIGHT_STATE_YELLOW
	G  = mapv2.LightState_LIGHT_STATE_GREEN
	dt = 1. / 60
)

func TestSpawnCounts(t *testing.T) {
	m := vehicle.NewManager([4]float64{2000, 0, 0, 0})
	assert.Equal(t, 6, m.Count(entity.North))
	assert.Equal(t, 1, m.Count(entity.South))
	assert.Equal(t, 1, m.Count(entity.East))
	assert.Equal(t, 1, m.Count(entity.West))

	assert.Equal(t, 1, vehicle.VehicleCount(333))
	assert.Equal(t, 2, vehicle.VehicleCount(334))
	assert.Equal(t, 2, vehicle.VehicleCount(600))
	assert.Equal(t, 6, vehicle.VehicleCount(1900))
}

func TestStopLineCompliance(t *testing.T) {
	states := []entity.TrafficState{{R, R, R, R}, {Y, Y, R, R}}
	// 最大步长下一步的位移仍小于停车区
	for _, step := range []float64{dt, config.MaxInterval} {
		for _, lights := range states {
			stopLineCompliance(t, step, lights)
		}
	}
}

func stopLineCompliance(t *testing.T, step float64, lights entity.TrafficState) {
	m := vehicle.NewManager([4]float64{2000, 2000, 2000, 2000})
	for range int(60 / step) {
		m.Update(step, lights)
		for _, v := range m.Vehicles() {
			sign := v.Lane().Sign()
			// 所有车辆从停车线之前出发，红灯或黄灯下永远不会越线
			require.LessOrEqual(t, sign*v.Pos(), sign*v.StopLine(), "%v", v)
		}
	}
	// 最终全部停下
	for _, v := range m.Vehicles() {
		assert.Equal(t, 0., v.V(), "%v", v)
	}
}

func TestSpeedBounds(t *testing.T) {
	m := vehicle.NewManager([4]float64{1500, 800, 2000, 300})
	phases := []entity.TrafficState{{G, G, R, R}, {Y, Y, R, R}, {R, R, G, G}, {R, R, Y, Y}}
	m.SpawnAmbulance(entity.East)
	for i := range 60 * 120 {
		lights := phases[(i/(60*4))%len(phases)]
		for _, ev := range m.Update(dt, lights) {
			if _, ok := ev.(entity.AmbulanceClearedEvent); ok {
				m.RemoveAmbulance()
			}
		}
		for _, v := range m.Vehicles() {
			require.GreaterOrEqual(t, v.V(), 0.)
			require.LessOrEqual(t, v.V(), v.MaxV())
			// 驶出前始终位于驶出边界之内
			require.LessOrEqual(t, v.Lane().Sign()*v.Pos(), vehicle.ExitBoundary)
		}
	}
	assert.Nil(t, m.Ambulance())
}

func TestExitEvents(t *testing.T) {
	m := vehicle.NewManager([4]float64{600, 700, 400, 500})
	allGreen := entity.TrafficState{G, G, G, G}
	var exits []entity.VehicleExitEvent
	for range 60 * 30 {
		for _, ev := range m.Update(dt, allGreen) {
			e, ok := ev.(entity.VehicleExitEvent)
			require.True(t, ok)
			exits = append(exits, e)
		}
	}
	require.NotEmpty(t, exits)
	lanes := map[entity.Direction]int{}
	for _, e := range exits {
		lanes[e.Lane]++
		assert.Greater(t, e.TotalTime, 0.)
		assert.GreaterOrEqual(t, e.StoppedTime, 0.)
		assert.LessOrEqual(t, e.StoppedTime, e.TotalTime)
	}
	assert.Len(t, lanes, 4)
	// 北向0号车从-20以3单位/秒行驶45个单位，约15秒
	first := exits[0]
	assert.Equal(t, entity.North, first.Lane)
	assert.Equal(t, entity.VehicleCar, first.Type)
	assert.InDelta(t, 15., first.TotalTime, 0.1)
	assert.Equal(t, 0., first.StoppedTime)
}

func TestAmbulanceLifecycle(t *testing.T) {
	m := vehicle.NewManager([4]float64{600, 700, 400, 500})
	m.SpawnAmbulance(entity.North)
	require.NotNil(t, m.Ambulance())
	assert.Equal(t, entity.VehicleAmbulance, m.Ambulance().Type())
	assert.Equal(t, -vehicle.ExitBoundary, m.Ambulance().Pos())

	// 第二次生成被忽略
	first := m.Ambulance()
	m.SpawnAmbulance(entity.East)
	assert.Same(t, first, m.Ambulance())

	lights := entity.TrafficState{G, R, R, R}
	cleared := 0
	for range 60 * 30 {
		for _, ev := range m.Update(dt, lights) {
			switch e := ev.(type) {
			case entity.AmbulanceClearedEvent:
				assert.Equal(t, entity.North, e.Lane)
				cleared++
				m.RemoveAmbulance()
			case entity.VehicleExitEvent:
				assert.NotEqual(t, entity.VehicleAmbulance, e.Type)
			}
		}
	}
	assert.Equal(t, 1, cleared)
	assert.Nil(t, m.Ambulance())
	_, ok := m.Registry().Get("amb-n")
	assert.False(t, ok)
}

func TestResizeKeepsExistingVehicles(t *testing.T) {
	m := vehicle.NewManager([4]float64{2000, 700, 400, 500})
	for range 120 {
		m.Update(dt, entity.TrafficState{G, G, G, G})
	}
	assert.Equal(t, 6, m.Count(entity.North))
	_, ok := m.Registry().Get("n-5")
	assert.True(t, ok)
	before := m.Vehicles()[0]

	m.Resize(entity.North, 500)
	assert.Equal(t, 2, m.Count(entity.North))
	assert.Same(t, before, m.Vehicles()[0])
	_, ok = m.Registry().Get("n-5")
	assert.False(t, ok)
	_, ok = m.Registry().Get("n-1")
	assert.True(t, ok)

	m.Resize(entity.East, 2000)
	assert.Equal(t, 6, m.Count(entity.East))
}

func TestRegistryOrder(t *testing.T) {
	r := vehicle.NewRegistry()
	for _, id := range []string{"a", "b", "c", "d"} {
		r.Write(vehicle.Entry{ID: id})
	}
	r.Write(vehicle.Entry{ID: "b", Pos: 3})
	r.Remove("c")
	r.Remove("missing")
	ids := []string{}
	for _, e := range r.Entries() {
		ids = append(ids, e.ID)
	}
	assert.Equal(t, []string{"a", "b", "d"}, ids)
	e, ok := r.Get("b")
	assert.True(t, ok)
	assert.Equal(t, 3., e.Pos)
	e, ok = r.Get("d")
	assert.True(t, ok)
	assert.Equal(t, "d", e.ID)
	assert.Equal(t, 3, r.Len())
}
