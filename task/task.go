package task

import (
	"sync"
	"sync/atomic"

	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/analytics"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/clock"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/junction"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/lane"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/vehicle"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/output"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
)

// 未被取走的事件最多保留的条数
const maxPendingEvents = 4096

var _ entity.ITaskContext = (*Context)(nil)

// Context 仿真任务上下文
// 功能：包含一次仿真任务的所有变量和状态
// 说明：
// 1. 帧（clock.DT）、控制（1秒）、统计（5秒）、平滑（100毫秒）四个定时器都基于仿真时间
// 2. 外部指令（宿主调用或RPC）先进入队列，在下一步的准备阶段串行执行
type Context struct {
	// 任务名
	job string
	// 关闭指令
	closed atomic.Bool

	// 时钟
	clock *clock.Clock

	// 辅助程序，处理分布式模式下相关调用，包括与syncer、其他服务的交互
	sidecar *syncer.Sidecar
	// sidecar close channel
	sidecarCloseCh chan struct{}
	serving        bool

	// 运行时配置文件
	runtimeConfig *config.RuntimeConfig

	// Lane管理器
	laneManager *lane.LaneManager
	// Vehicle管理器
	vehicleManager *vehicle.VehicleManager
	// 路口控制器
	junction *junction.Junction
	// 分析统计
	aggregator *analytics.Aggregator
	// 分析快照输出
	output *output.Output

	analyticsTimer *clock.Interval
	smoothTimer    *clock.Interval

	// 外部指令队列
	cmdMtx sync.Mutex
	cmds   []func()

	// 尚未被取走的事件
	events []entity.Event
}

// NewContext 创建新的仿真任务上下文
// 参数：
//   - job: 任务名称
//   - c: 配置对象
//   - sidecar: sidecar实例，为nil时只能通过Step在进程内驱动
//   - startSidecarServe: 是否启动sidecar服务
//
// 返回：初始化完成的Context实例
// 算法说明：
// 1. 生成运行时配置（填充默认值、限制范围）并创建时钟
// 2. 创建车道、车辆、路口、统计、输出模块
// 3. 注册RPC服务到sidecar并启动服务（如果需要）
func NewContext(
	job string,
	c config.Config,
	sidecar *syncer.Sidecar,
	startSidecarServe bool,
) *Context {
	ctx := &Context{
		job:            job,
		sidecar:        sidecar,
		sidecarCloseCh: make(chan struct{}),
		analyticsTimer: clock.NewInterval(analytics.WindowPeriod),
		smoothTimer:    clock.NewInterval(analytics.SmoothPeriod),
	}
	ctx.runtimeConfig = config.NewRuntimeConfig(c)
	rc := ctx.runtimeConfig
	ctx.clock = clock.New(rc.C.Step)

	// 新建各类模拟对象，junction依赖lane与vehicle
	ctx.laneManager = lane.NewManager(rc.Volumes, rc.C.Seed)
	ctx.vehicleManager = vehicle.NewManager(rc.Volumes)
	ctx.junction = junction.New(ctx)
	ctx.aggregator = analytics.New(rc.C.Seed)
	ctx.output = output.New(job, rc.All.Output)

	ctx.analyticsTimer.Start()
	ctx.smoothTimer.Start()

	log.Infof("green=%vs yellow=%vs auto=%v volumes=%v dt=%vs", rc.Green, rc.Yellow, rc.Auto, rc.Volumes, ctx.clock.DT)

	if ctx.sidecar != nil {
		ctx.clock.Register(ctx.sidecar)
		ctx.junction.Register(ctx.sidecar)
	}

	// sidecar协程，用于提供gRPC服务
	if ctx.sidecar != nil && startSidecarServe {
		ctx.serving = true
		go func() {
			err := ctx.sidecar.Serve()
			if err != nil {
				log.Panicf("failed to serve: %v", err)
			}
			ctx.sidecarCloseCh <- struct{}{}
		}()
	}

	return ctx
}

func (ctx *Context) Clock() *clock.Clock {
	return ctx.clock
}

func (ctx *Context) LaneManager() entity.ILaneManager {
	return ctx.laneManager
}

func (ctx *Context) VehicleManager() entity.IVehicleManager {
	return ctx.vehicleManager
}

func (ctx *Context) Junction() entity.IJunction {
	return ctx.junction
}

func (ctx *Context) RuntimeConfig() *config.RuntimeConfig {
	return ctx.runtimeConfig
}

func (ctx *Context) Aggregator() *analytics.Aggregator {
	return ctx.aggregator
}

// Vehicles 当前所有车辆，供渲染使用
func (ctx *Context) Vehicles() []*vehicle.Vehicle {
	return ctx.vehicleManager.Vehicles()
}

// Submit 提交外部指令，在下一步的准备阶段执行
func (ctx *Context) Submit(cmd func()) {
	ctx.cmdMtx.Lock()
	defer ctx.cmdMtx.Unlock()
	ctx.cmds = append(ctx.cmds, cmd)
}

// applyCommands 按提交顺序执行外部指令
func (ctx *Context) applyCommands() {
	ctx.cmdMtx.Lock()
	cmds := ctx.cmds
	ctx.cmds = nil
	ctx.cmdMtx.Unlock()
	for _, cmd := range cmds {
		cmd()
	}
}

// State 当前控制器状态
func (ctx *Context) State() entity.ControllerState {
	j := ctx.junction
	return entity.ControllerState{
		Time:      ctx.clock.T,
		Lights:    j.Lights(),
		Phase:     j.PhaseName(),
		Label:     j.Label(),
		Countdown: j.RemainingTime(),
		Halted:    j.Halted(),
		Auto:      j.Auto(),
		Ambulance: j.Ambulance(),
		Lanes:     ctx.laneManager.Metrics(),
		History:   ctx.aggregator.History(),
		Totals:    ctx.aggregator.Totals(),
	}
}

// DrainEvents 取走上次调用以来产生的事件
func (ctx *Context) DrainEvents() []entity.Event {
	events := ctx.events
	ctx.events = nil
	return events
}

func (ctx *Context) pushEvent(e entity.Event) {
	if len(ctx.events) >= maxPendingEvents {
		ctx.events = ctx.events[1:]
	}
	ctx.events = append(ctx.events, e)
}

// 手动控制，均在下一步的准备阶段生效

func (ctx *Context) ForceNextPhase() {
	ctx.Submit(func() { ctx.junction.ForceNextPhase() })
}

func (ctx *Context) ToggleHalt() {
	ctx.Submit(func() { ctx.junction.ToggleHalt() })
}

func (ctx *Context) DispatchAmbulance(d entity.Direction) {
	ctx.Submit(func() { ctx.junction.DispatchAmbulance(d) })
}

func (ctx *Context) SetGreenDuration(v float64) {
	ctx.Submit(func() { ctx.junction.SetGreenDuration(v) })
}

func (ctx *Context) SetYellowDuration(v float64) {
	ctx.Submit(func() { ctx.junction.SetYellowDuration(v) })
}

func (ctx *Context) SetAutoMode(on bool) {
	ctx.Submit(func() { ctx.junction.SetAutoMode(on) })
}

// SetVolume 修改车道流量，同时调整该车道的车辆数
func (ctx *Context) SetVolume(d entity.Direction, v float64) {
	ctx.Submit(func() {
		if !d.Valid() {
			log.Warnf("invalid direction %v", d)
			return
		}
		c := ctx.laneManager.SetVolume(d, v)
		ctx.vehicleManager.Resize(d, c)
	})
}

func (ctx *Context) Close() {
	if ctx.closed.Load() {
		return
	}
	ctx.output.Close()
	if ctx.serving {
		ctx.sidecar.Close()
		// wait for graceful stop
		<-ctx.sidecarCloseCh
	}
	ctx.closed.Store(true)
}
