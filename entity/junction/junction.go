package junction

import (
	"errors"
	"sync"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/clock"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/junction/trafficlight"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
)

const (
	// ID 路口ID，RPC请求中的junction id必须与之一致
	ID int32 = 0
	// AmbulanceHold 救护车绿灯期间显示的倒计时，倒计时冻结直到救护车通过
	AmbulanceHold = 999.
	// 控制周期（秒）
	controlPeriod = 1.

	LabelHalted    = "SYSTEM HALTED"
	LabelEmergency = "EMERGENCY PRIORITY"
)

var (
	ErrUnknownJunction = errors.New("junction id does not exist")
	ErrInvalidTime     = errors.New("invalid remaining time")
)

var _ entity.IJunction = (*Junction)(nil)

// snapshot 供RPC并发读取的状态快照
type snapshot struct {
	program    *mapv2.TrafficLight
	phase      trafficlight.Phase
	remainingT float64
	halted     bool
}

// Junction 路口控制器
// 功能：在自适应信号灯之上实现紧急控制（全停、救护车优先），并按1秒周期驱动信号灯与车道估计
// 说明：
// 1. 灯色在准备阶段统一解析，同一步内运动与估计读取的都是同一结果
// 2. 全停或关闭自动模式时停止1秒控制定时器，恢复时重新开始计时
// 3. 同一时间最多一辆救护车
type Junction struct {
	mapv2connect.UnimplementedTrafficLightServiceHandler

	ctx entity.ITaskContext

	id           int32
	trafficLight ITrafficLight
	control      *clock.Interval

	halted    bool
	auto      bool
	ambulance entity.AmbulanceState
	lights    entity.TrafficState

	mtx  sync.RWMutex
	snap snapshot
}

// New 创建路口控制器
// 参数：ctx-任务上下文（需要已创建车道管理器）
func New(ctx entity.ITaskContext) *Junction {
	rc := ctx.RuntimeConfig()
	j := &Junction{
		ctx:          ctx,
		id:           ID,
		trafficLight: trafficlight.NewAdaptiveTrafficLight(ctx.LaneManager(), rc.Green, rc.Yellow),
		control:      clock.NewInterval(controlPeriod),
		auto:         rc.Auto,
	}
	j.syncControl()
	j.lights = j.resolve()
	j.publish()
	return j
}

func (j *Junction) ID() int32 {
	return j.id
}

// Phase 当前相位
func (j *Junction) Phase() trafficlight.Phase {
	return j.trafficLight.Phase()
}

func (j *Junction) PhaseName() string {
	return j.trafficLight.Phase().String()
}

// Label 显示标签，全停与救护车优先覆盖相位名称
func (j *Junction) Label() string {
	switch {
	case j.halted:
		return LabelHalted
	case j.ambulance.Active:
		return LabelEmergency
	}
	return j.PhaseName()
}

func (j *Junction) RemainingTime() float64 {
	return j.trafficLight.RemainingTime()
}

func (j *Junction) Halted() bool {
	return j.halted
}

func (j *Junction) Auto() bool {
	return j.auto
}

func (j *Junction) Ambulance() entity.AmbulanceState {
	return j.ambulance
}

// ControlActive 1秒控制定时器是否在运行
func (j *Junction) ControlActive() bool {
	return j.control.Active()
}

// Lights 当前解析出的灯色
// 说明：准备阶段解析一次供车辆运动使用，相位在更新阶段变化后重新解析
func (j *Junction) Lights() entity.TrafficState {
	return j.lights
}

func (j *Junction) resolve() entity.TrafficState {
	return trafficlight.ResolveLights(j.trafficLight.Phase(), j.halted, j.ambulance)
}

// Prepare 准备阶段，解析本步灯色
func (j *Junction) Prepare() {
	j.lights = j.resolve()
	j.publish()
}

// Update 更新阶段，推进1秒控制定时器
// 参数：dt-时间步长
func (j *Junction) Update(dt float64) {
	for n := j.control.Advance(dt); n > 0; n-- {
		j.controlTick()
	}
	j.lights = j.resolve()
	j.publish()
}

// controlTick 1秒控制周期
// 算法说明：
// 1. 记录周期开始时的灯色与相位，车道估计使用这组值
// 2. 没有救护车，或救护车期间处于黄灯：倒计时减1，结束时转移相位
// 3. 救护车绿灯期间倒计时冻结
// 4. 更新车道估计
func (j *Junction) controlTick() {
	lights := j.resolve()
	yellowPhase := j.trafficLight.Phase().IsYellow()
	if !j.ambulance.Active || yellowPhase {
		j.trafficLight.Tick()
		if j.trafficLight.Expired() {
			j.advance(false)
		}
	}
	j.ctx.LaneManager().Update(lights, yellowPhase, j.ambulance)
}

// advance 相位转移
// 参数：force-为true时不检查倒计时（手动切换）
// 返回：是否发生了转移
// 说明：全停时不转移；救护车期间只允许从黄灯进入救护车所在轴的绿灯并冻结倒计时
func (j *Junction) advance(force bool) bool {
	if j.halted {
		return false
	}
	if j.ambulance.Active {
		if !j.trafficLight.Phase().IsYellow() {
			return false
		}
		j.trafficLight.ForcePhase(trafficlight.GreenOf(j.ambulance.Lane.Axis()), AmbulanceHold)
		log.Infof("ambulance green on %v", j.ambulance.Lane.Axis())
		return true
	}
	if force {
		j.trafficLight.Next()
		return true
	}
	return j.trafficLight.Advance()
}

// ForceNextPhase 手动切换到下一个相位
// 返回：是否生效（全停时忽略）
func (j *Junction) ForceNextPhase() bool {
	ok := j.advance(true)
	if !ok {
		log.Debugf("manual advance ignored (halted=%v ambulance=%v)", j.halted, j.ambulance.Active)
	}
	return ok
}

// SetPhase 手动设置相位与剩余时间
// 参数：remaining-剩余时间，为0时使用该相位的配置时长
// 返回：是否生效（全停或救护车期间忽略）
func (j *Junction) SetPhase(p trafficlight.Phase, remaining float64) bool {
	if j.halted || j.ambulance.Active {
		log.Debugf("set phase %v ignored (halted=%v ambulance=%v)", p, j.halted, j.ambulance.Active)
		return false
	}
	if remaining <= 0 {
		remaining = j.trafficLight.Duration(p)
	}
	j.trafficLight.ForcePhase(p, remaining)
	return true
}

// ToggleHalt 切换全停
// 返回：切换后的全停状态
func (j *Junction) ToggleHalt() bool {
	j.SetHalt(!j.halted)
	return j.halted
}

// SetHalt 设置全停
func (j *Junction) SetHalt(on bool) {
	if j.halted == on {
		return
	}
	j.halted = on
	if on {
		log.Warn("system halted, all lanes red")
	} else {
		log.Info("system resumed")
	}
	j.syncControl()
}

// SetAutoMode 设置自动模式
func (j *Junction) SetAutoMode(on bool) {
	j.auto = on
	j.syncControl()
}

// syncControl 只有自动模式且未全停时运行1秒控制定时器
func (j *Junction) syncControl() {
	if j.auto && !j.halted {
		j.control.Start()
	} else {
		j.control.Stop()
	}
}

// DispatchAmbulance 派遣救护车
// 功能：激活救护车优先并生成救护车
// 参数：d-救护车所在车道
// 返回：是否受理（已有救护车时忽略）
// 算法说明：
// 1. 已有救护车：忽略
// 2. 当前为与救护车车道垂直方向的绿灯：立即进入该方向黄灯，剩余时间为黄灯时长
// 3. 通知车辆模块生成救护车
func (j *Junction) DispatchAmbulance(d entity.Direction) bool {
	if !d.Valid() {
		log.Warnf("invalid ambulance direction %v", d)
		return false
	}
	if j.ambulance.Active {
		log.Debugf("ambulance already active on %v, ignore dispatch on %v", j.ambulance.Lane, d)
		return false
	}
	j.ambulance = entity.AmbulanceState{Active: true, Lane: d}
	if p := j.trafficLight.Phase(); !p.IsYellow() && p.Axis() != d.Axis() {
		y := trafficlight.YellowOf(p.Axis())
		j.trafficLight.ForcePhase(y, j.trafficLight.Duration(y))
	}
	j.ctx.VehicleManager().SpawnAmbulance(d)
	log.Infof("ambulance dispatched on %v", d)
	return true
}

// OnAmbulanceCleared 救护车通过路口
// 功能：解除救护车优先，进入救护车所在轴的黄灯，黄灯结束后回到正常的相位选择
func (j *Junction) OnAmbulanceCleared() {
	if !j.ambulance.Active {
		return
	}
	lane := j.ambulance.Lane
	j.ambulance = entity.AmbulanceState{}
	y := trafficlight.YellowOf(lane.Axis())
	j.trafficLight.ForcePhase(y, j.trafficLight.Duration(y))
	j.lights = j.resolve()
	j.ctx.VehicleManager().RemoveAmbulance()
	log.Infof("ambulance on %v cleared, resuming adaptive control", lane)
}

// SetGreenDuration 设置绿灯时长，限制在[3,15]
// 返回：实际生效的时长
func (j *Junction) SetGreenDuration(v float64) float64 {
	c := config.ClampGreen(v)
	j.trafficLight.SetGreen(c)
	return c
}

// SetYellowDuration 设置黄灯时长，限制在[1,5]
// 返回：实际生效的时长
func (j *Junction) SetYellowDuration(v float64) float64 {
	c := config.ClampYellow(v)
	j.trafficLight.SetYellow(c)
	return c
}

// publish 更新供RPC读取的快照
func (j *Junction) publish() {
	j.mtx.Lock()
	defer j.mtx.Unlock()
	j.snap = snapshot{
		program:    j.trafficLight.Program(j.id),
		phase:      j.trafficLight.Phase(),
		remainingT: j.trafficLight.RemainingTime(),
		halted:     j.halted,
	}
}

func (j *Junction) loadSnapshot() snapshot {
	j.mtx.RLock()
	defer j.mtx.RUnlock()
	return j.snap
}
