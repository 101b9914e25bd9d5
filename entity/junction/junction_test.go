package junction

import (
	"context"
	"testing"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/clock"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
)

const (
	R = mapv2.LightState_LIGHT_STATE_RED
	Y = mapv2.LightState_LIGHT_STATE_YELLOW
	G = mapv2.LightState_LIGHT_STATE_GREEN
)

type fakeVehicles struct {
	spawned []entity.Direction
	removed int
}

func (v *fakeVehicles) Update(dt float64, lights entity.TrafficState) []entity.Event { return nil }
func (v *fakeVehicles) SpawnAmbulance(d entity.Direction)                            { v.spawned = append(v.spawned, d) }
func (v *fakeVehicles) RemoveAmbulance()                                             { v.removed++ }
func (v *fakeVehicles) Resize(d entity.Direction, volume float64)                    {}
func (v *fakeVehicles) Count(d entity.Direction) int                                 { return 1 }

type fakeContext struct {
	rc       *config.RuntimeConfig
	lanes    *lane.LaneManager
	vehicles *fakeVehicles
	cmds     []func()
}

func (c *fakeContext) Clock() *clock.Clock                    { return nil }
func (c *fakeContext) LaneManager() entity.ILaneManager       { return c.lanes }
func (c *fakeContext) VehicleManager() entity.IVehicleManager { return c.vehicles }
func (c *fakeContext) Junction() entity.IJunction             { return nil }
func (c *fakeContext) RuntimeConfig() *config.RuntimeConfig   { return c.rc }
func (c *fakeContext) Submit(cmd func())                      { c.cmds = append(c.cmds, cmd) }

func (c *fakeContext) flush() {
	for _, cmd := range c.cmds {
		cmd()
	}
	c.cmds = nil
}

func newTestJunction() (*Junction, *fakeContext) {
	rc := config.NewRuntimeConfig(config.Config{})
	ctx := &fakeContext{
		rc:       rc,
		lanes:    lane.NewManager(rc.Volumes, 0),
		vehicles: &fakeVehicles{},
	}
	return New(ctx), ctx
}

// tick 推进1秒并在下一步的准备阶段解析灯色
func tick(j *Junction, n int) {
	for range n {
		j.Update(1)
		j.Prepare()
	}
}

func TestInitialState(t *testing.T) {
	j, _ := newTestJunction()
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
	assert.Equal(t, entity.TrafficState{G, G, R, R}, j.Lights())
	assert.Equal(t, "N-S Green", j.Label())
	assert.True(t, j.ControlActive())
	assert.False(t, j.Halted())
	assert.True(t, j.Auto())
}

func TestCountdownAndTransition(t *testing.T) {
	j, _ := newTestJunction()
	tick(j, 7)
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, 1., j.RemainingTime())
	tick(j, 1)
	assert.Equal(t, trafficlight.NSYellow, j.Phase())
	assert.Equal(t, config.DefaultYellow, j.RemainingTime())
	assert.Equal(t, entity.TrafficState{Y, Y, R, R}, j.Lights())
	tick(j, 3)
	assert.False(t, j.Phase().IsYellow())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
}

func TestAmbulanceCrossAxisDispatch(t *testing.T) {
	j, ctx := newTestJunction()
	require.True(t, j.SetPhase(trafficlight.EWGreen, 0))
	j.Prepare()
	assert.Equal(t, entity.TrafficState{R, R, G, G}, j.Lights())

	require.True(t, j.DispatchAmbulance(entity.North))
	assert.Equal(t, []entity.Direction{entity.North}, ctx.vehicles.spawned)
	assert.Equal(t, trafficlight.EWYellow, j.Phase())
	assert.Equal(t, config.DefaultYellow, j.RemainingTime())
	assert.Equal(t, LabelEmergency, j.Label())
	j.Prepare()
	// 黄灯期间让冲突方向完成清空
	assert.Equal(t, entity.TrafficState{R, R, Y, Y}, j.Lights())

	tick(j, 3)
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, AmbulanceHold, j.RemainingTime())
	assert.Equal(t, entity.TrafficState{G, R, R, R}, j.Lights())

	// 救护车绿灯期间倒计时冻结，手动切换无效
	tick(j, 20)
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, AmbulanceHold, j.RemainingTime())
	assert.False(t, j.ForceNextPhase())

	j.OnAmbulanceCleared()
	assert.False(t, j.Ambulance().Active)
	assert.Equal(t, 1, ctx.vehicles.removed)
	assert.Equal(t, trafficlight.NSYellow, j.Phase())
	assert.Equal(t, config.DefaultYellow, j.RemainingTime())
	assert.Equal(t, "N-S Yellow", j.Label())
	tick(j, 3)
	assert.False(t, j.Phase().IsYellow())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
}

func TestAmbulanceSameAxisDispatch(t *testing.T) {
	j, _ := newTestJunction()
	require.True(t, j.DispatchAmbulance(entity.South))
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
	j.Prepare()
	assert.Equal(t, entity.TrafficState{R, G, R, R}, j.Lights())
	tick(j, 30)
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
}

func TestDuplicateDispatchIgnored(t *testing.T) {
	j, ctx := newTestJunction()
	require.True(t, j.DispatchAmbulance(entity.East))
	assert.False(t, j.DispatchAmbulance(entity.West))
	assert.Equal(t, entity.AmbulanceState{Active: true, Lane: entity.East}, j.Ambulance())
	assert.Len(t, ctx.vehicles.spawned, 1)
	assert.False(t, j.DispatchAmbulance(entity.Direction(7)))

	// 没有救护车时清空通知不做任何事
	j.OnAmbulanceCleared()
	j.OnAmbulanceCleared()
	assert.Equal(t, 1, ctx.vehicles.removed)
}

func TestHaltFreezesControl(t *testing.T) {
	j, ctx := newTestJunction()
	tick(j, 3)
	require.Equal(t, 5., j.RemainingTime())
	before := ctx.lanes.Metrics()

	assert.True(t, j.ToggleHalt())
	assert.False(t, j.ControlActive())
	j.Prepare()
	assert.Equal(t, entity.TrafficState{R, R, R, R}, j.Lights())
	assert.Equal(t, LabelHalted, j.Label())

	tick(j, 10)
	assert.Equal(t, 5., j.RemainingTime())
	assert.Equal(t, before, ctx.lanes.Metrics())
	assert.False(t, j.ForceNextPhase())
	assert.False(t, j.SetPhase(trafficlight.EWGreen, 4))

	// 全停覆盖救护车标签
	require.True(t, j.DispatchAmbulance(entity.West))
	assert.Equal(t, LabelHalted, j.Label())
	j.Prepare()
	assert.Equal(t, entity.TrafficState{R, R, R, R}, j.Lights())

	assert.False(t, j.ToggleHalt())
	assert.True(t, j.ControlActive())
	assert.Equal(t, LabelEmergency, j.Label())
}

func TestAutoModeOff(t *testing.T) {
	j, _ := newTestJunction()
	j.SetAutoMode(false)
	assert.False(t, j.ControlActive())
	tick(j, 20)
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())

	// 手动切换仍然生效
	assert.True(t, j.ForceNextPhase())
	assert.Equal(t, trafficlight.NSYellow, j.Phase())

	j.SetAutoMode(true)
	assert.True(t, j.ControlActive())
	tick(j, 3)
	assert.False(t, j.Phase().IsYellow())
}

func TestDurationsApplyOnNextEntry(t *testing.T) {
	j, _ := newTestJunction()
	assert.Equal(t, config.MaxGreen, j.SetGreenDuration(40))
	assert.Equal(t, config.MinYellow, j.SetYellowDuration(0.2))
	assert.Equal(t, config.DefaultGreen, j.RemainingTime())
	tick(j, 8)
	assert.Equal(t, trafficlight.NSYellow, j.Phase())
	assert.Equal(t, config.MinYellow, j.RemainingTime())
	tick(j, 1)
	assert.Equal(t, config.MaxGreen, j.RemainingTime())
}

func TestRPC(t *testing.T) {
	j, ctx := newTestJunction()
	bg := context.Background()

	_, err := j.GetTrafficLight(bg, connect.NewRequest(&mapv2.GetTrafficLightRequest{JunctionId: 3}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	res, err := j.GetTrafficLight(bg, connect.NewRequest(&mapv2.GetTrafficLightRequest{JunctionId: ID}))
	require.NoError(t, err)
	assert.Len(t, res.Msg.TrafficLight.Phases, 4)
	assert.Equal(t, int32(trafficlight.NSGreen), res.Msg.PhaseIndex)
	assert.Equal(t, config.DefaultGreen, res.Msg.TimeRemaining)

	_, err = j.SetTrafficLight(bg, connect.NewRequest(&mapv2.SetTrafficLightRequest{
		TrafficLight: &mapv2.TrafficLight{JunctionId: ID},
	}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	_, err = j.SetTrafficLightPhase(bg, connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{JunctionId: ID, PhaseIndex: 4}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	_, err = j.SetTrafficLightPhase(bg, connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{JunctionId: ID, PhaseIndex: 2, TimeRemaining: -1}))
	assert.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
	assert.Empty(t, ctx.cmds)

	_, err = j.SetTrafficLightPhase(bg, connect.NewRequest(&mapv2.SetTrafficLightPhaseRequest{JunctionId: ID, PhaseIndex: 2, TimeRemaining: 5}))
	require.NoError(t, err)
	// 写操作在下一步的准备阶段执行
	assert.Equal(t, trafficlight.NSGreen, j.Phase())
	ctx.flush()
	j.Prepare()
	assert.Equal(t, trafficlight.EWGreen, j.Phase())
	assert.Equal(t, 5., j.RemainingTime())
	res, err = j.GetTrafficLight(bg, connect.NewRequest(&mapv2.GetTrafficLightRequest{JunctionId: ID}))
	require.NoError(t, err)
	assert.Equal(t, int32(2), res.Msg.PhaseIndex)

	_, err = j.SetTrafficLightStatus(bg, connect.NewRequest(&mapv2.SetTrafficLightStatusRequest{JunctionId: ID, Ok: false}))
	require.NoError(t, err)
	ctx.flush()
	assert.True(t, j.Halted())
	_, err = j.SetTrafficLightStatus(bg, connect.NewRequest(&mapv2.SetTrafficLightStatusRequest{JunctionId: ID, Ok: true}))
	require.NoError(t, err)
	ctx.flush()
	assert.False(t, j.Halted())
}
