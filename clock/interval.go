package clock

// 浮点累加误差容忍度
const intervalEps = 1e-9

// Interval 基于仿真时间的周期定时器
// 功能：累加每步的dt，每累计满一个周期触发一次
// 说明：
// 1. 定时器只由仿真时间驱动，与墙钟无关，因此同一配置下结果可复现
// 2. Stop后不再累加，Start从零开始重新计时，不存在遗留的触发
type Interval struct {
	period  float64 // 周期（秒）
	elapsed float64 // 本周期已累计时间
	active  bool
}

// NewInterval 创建周期为period秒的定时器，创建后即处于运行状态
func NewInterval(period float64) *Interval {
	if period <= 0 {
		log.Panicf("interval period must be positive, got %v", period)
	}
	return &Interval{period: period, active: true}
}

// Period 周期
func (i *Interval) Period() float64 {
	return i.period
}

// Active 是否运行中
func (i *Interval) Active() bool {
	return i.active
}

// Stop 停止定时器并清空已累计时间
func (i *Interval) Stop() {
	i.active = false
	i.elapsed = 0
}

// Start 启动定时器，已在运行时不做任何事
func (i *Interval) Start() {
	if i.active {
		return
	}
	i.active = true
	i.elapsed = 0
}

// Advance 推进dt秒
// 返回：本次推进中触发的次数（dt大于周期时可能多于一次）
func (i *Interval) Advance(dt float64) int {
	if !i.active {
		return 0
	}
	i.elapsed += dt
	fired := 0
	for i.elapsed+intervalEps >= i.period {
		i.elapsed -= i.period
		fired++
	}
	if i.elapsed < 0 {
		i.elapsed = 0
	}
	return fired
}
