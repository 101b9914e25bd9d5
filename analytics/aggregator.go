// 5秒一次的路口分析统计：吞吐量、平均速度与等待、CO2排放、污染指数与效率评分
package analytics

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/clock"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/container"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/randengine"
)

const (
	// HistorySize 保留的快照个数
	HistorySize = 30
	// WindowPeriod 统计窗口（秒）
	WindowPeriod = 5.
	// SmoothPeriod 累计CO2显示值的平滑周期（秒）
	SmoothPeriod = 0.1

	pollutionSmoothing = 0.2
	co2Lerp            = 0.1
	co2Snap            = 0.5
	baselineWait       = 20. // 效率评分的基准等待（秒）
	jitterRange        = 2   // 吞吐量抖动取值范围[-2,2]
)

// window 当前统计窗口的累加值
type window struct {
	count int
	speed float64
	wait  float64
	co2   float64
}

// Aggregator 分析统计聚合器
// 功能：累加驶出事件，每个窗口结束时生成一条不可变的快照并追加进历史
// 说明：
// 1. 窗口内没有车辆驶出时平均速度与平均等待沿用上一次的值
// 2. 污染指数对原始值做指数平滑，快照中记录平滑后的值
// 3. 吞吐量叠加[-2,2]的整数抖动，累计通过数不受抖动影响
type Aggregator struct {
	generator *randengine.Engine
	window    window
	history   *container.Ring[entity.AnalyticsSnapshot]

	avgSpeed  float64
	avgWait   float64
	measured  bool // 是否已有车辆驶出
	pollution float64
	totals    entity.Totals
}

// New 创建聚合器
// 参数：seed-随机数种子，抖动使用seed+2
func New(seed uint64) *Aggregator {
	return &Aggregator{
		generator: randengine.New(seed + 2),
		history:   container.NewRing[entity.AnalyticsSnapshot](HistorySize),
	}
}

// RecordExit 记录一次车辆驶出
func (a *Aggregator) RecordExit(e entity.VehicleExitEvent) {
	a.window.count++
	a.window.speed += Speed(e.TotalTime)
	a.window.wait += e.StoppedTime
	a.window.co2 += Emission(e.Type, e.StoppedTime)
}

// Flush 结束当前窗口
// 功能：计算本窗口的快照并追加进历史，然后清空窗口
// 参数：meanDensity-四条车道密度百分比的均值，now-仿真时间（秒）
// 返回：新生成的快照
// 算法说明：
// 1. 累计通过数与累计CO2只在窗口有数据时增加
// 2. 吞吐量 = max(0, 驶出数 + 抖动)
// 3. 污染原始值 = clamp(0.5d + 0.3w + 0.2(0.5d), 0, 100)，平滑系数0.2
// 4. 效率 = (20 - w) / 20 * 100，尚无车辆驶出时记0
func (a *Aggregator) Flush(meanDensity, now float64) entity.AnalyticsSnapshot {
	w := a.window
	a.window = window{}

	if w.count > 0 || w.co2 > 0 {
		a.totals.Crossed += w.count
		a.totals.CO2 += w.co2
	}
	jitter := a.generator.IntRange(-jitterRange, jitterRange)
	throughput := max(0, w.count+jitter)

	if w.count > 0 {
		a.measured = true
		a.avgWait = w.wait / float64(w.count)
		a.avgSpeed = w.speed / float64(w.count)
	}

	idle := meanDensity * 0.5
	raw := lo.Clamp(0.5*meanDensity+0.3*a.avgWait+0.2*idle, 0, 100)
	a.pollution += (raw - a.pollution) * pollutionSmoothing

	efficiency := 0.
	if a.measured {
		efficiency = (baselineWait - a.avgWait) / baselineWait * 100
	}

	s := entity.AnalyticsSnapshot{
		Throughput:      throughput,
		AvgSpeed:        a.avgSpeed,
		AvgWait:         a.avgWait,
		CO2Emissions:    w.co2,
		PollutionIndex:  a.pollution,
		EfficiencyScore: efficiency,
		Timestamp:       now,
		Label:           clock.FormatSeconds(now),
	}
	a.history.Push(s)
	log.Debugf("window flushed: exits=%d throughput=%d co2=%.1f pollution=%.2f", w.count, throughput, w.co2, a.pollution)
	return s
}

// Smooth 累计CO2显示值向真实值移动10%，差值小于0.5时直接对齐
func (a *Aggregator) Smooth() {
	diff := a.totals.CO2 - a.totals.DisplayedCO2
	if math.Abs(diff) < co2Snap {
		a.totals.DisplayedCO2 = a.totals.CO2
		return
	}
	a.totals.DisplayedCO2 += diff * co2Lerp
}

// History 按时间顺序返回最近的快照
func (a *Aggregator) History() []entity.AnalyticsSnapshot {
	return a.history.Values()
}

// Latest 最新快照
func (a *Aggregator) Latest() (entity.AnalyticsSnapshot, bool) {
	return a.history.Last()
}

func (a *Aggregator) Totals() entity.Totals {
	return a.totals
}

// Pollution 当前平滑后的污染指数
func (a *Aggregator) Pollution() float64 {
	return a.pollution
}

// Pending 当前窗口已记录的驶出数
func (a *Aggregator) Pending() int {
	return a.window.count
}
