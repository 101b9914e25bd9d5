package task

import (
	"flag"

	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

const (
	SelfName = "signal" // 本程序在模拟任务集群中的名字
)

var (
	heartBeatInterval = flag.Int("log.heartbeat_interval", 100, "心跳日志间隔步数")
)

// prepare 准备阶段，每步执行一次
// 算法说明：
// 1. 更新时钟：增加内部步数并计算当前时间
// 2. 心跳日志：定期输出信号状态
// 3. 执行外部指令队列
// 4. 解析本步灯色，车辆运动与车道估计读取同一结果
func (ctx *Context) prepare() {
	ctx.clock.Next()

	if *heartBeatInterval > 0 && ctx.clock.InternalStep%int32(*heartBeatInterval) == 0 {
		hour, minute, second := ctx.clock.GetHourMinuteSecond()
		log.Infof(
			"STEP: %d(%d:%d:%.2f) %s %.0fs crossed=%d",
			ctx.clock.InternalStep,
			hour, minute, second,
			ctx.junction.Label(), ctx.junction.RemainingTime(),
			ctx.aggregator.Totals().Crossed,
		)
	}

	ctx.applyCommands()
	ctx.junction.Prepare()
}

// update 更新阶段，每步执行一次
// 算法说明：
// 1. 车辆运动：按本步灯色推进一帧，处理驶出与救护车通过事件
// 2. 路口：推进1秒控制定时器（倒计时、相位转移、车道估计）
// 3. 统计：5秒一次生成快照并输出，100毫秒一次平滑累计CO2显示值
func (ctx *Context) update() {
	dt := ctx.clock.DT

	for _, ev := range ctx.vehicleManager.Update(dt, ctx.junction.Lights()) {
		switch e := ev.(type) {
		case entity.VehicleExitEvent:
			ctx.aggregator.RecordExit(e)
		case entity.AmbulanceClearedEvent:
			ctx.junction.OnAmbulanceCleared()
		}
		ctx.pushEvent(ev)
	}

	ctx.junction.Update(dt)

	for n := ctx.analyticsTimer.Advance(dt); n > 0; n-- {
		s := ctx.aggregator.Flush(ctx.laneManager.MeanDensity(), ctx.clock.T)
		ctx.output.Write(s, ctx.aggregator.Totals())
	}
	for n := ctx.smoothTimer.Advance(dt); n > 0; n-- {
		ctx.aggregator.Smooth()
	}
}

// Step 在进程内推进一步，不经过sidecar
func (ctx *Context) Step() {
	ctx.prepare()
	ctx.update()
}

// Run 运行
func (ctx *Context) Run() {
	// init syncer
	ctx.sidecar.Step(false)
	for {
		ctx.prepare()
		// 通知准备阶段完成
		log.Debugf("step %d: prepare complete and call NotifyStepReady", ctx.clock.InternalStep)
		ctx.sidecar.NotifyStepReady()
		log.Debugf("step %d: NotifyStepReady complete", ctx.clock.InternalStep)
		ctx.update()
		log.Debugf("step %d: update complete", ctx.clock.InternalStep)
		close := false
		if ctx.clock.InternalStep+1 >= ctx.clock.END_STEP {
			close = ctx.sidecar.Step(true)
		} else {
			close = ctx.sidecar.Step(false)
		}
		if close || ctx.closed.Load() {
			break
		}
	}
	log.Infof("engine complete")
	ctx.Close()
}
