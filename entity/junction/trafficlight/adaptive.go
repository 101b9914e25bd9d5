package trafficlight

import (
	"errors"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
)

var (
	ErrAdaptiveProgram = errors.New("adaptive: cannot set traffic light program for adaptive controller")
	ErrInvalidPhase    = errors.New("adaptive: invalid phase index")
)

// IMetricsSource 相位选择所需的车道指标来源
type IMetricsSource interface {
	Priorities() [4]float64
	Waits() [4]float64
}

// AdaptiveTrafficLight 四相位自适应信号灯
// 功能：维护当前相位与倒计时，倒计时结束时按Transition选择下一个相位
// 说明：
// 1. 每个控制周期（1秒）调用一次Tick，倒计时减1
// 2. Advance只在倒计时归零时转移一次，重复调用不会连续跳过两个相位
// 3. 时长修改只在下一次进入相位时生效
type AdaptiveTrafficLight struct {
	metrics    IMetricsSource
	green      float64 // 绿灯时长
	yellow     float64 // 黄灯时长
	phase      Phase   // 当前相位
	totalTime  float64 // 当前相位总时长
	remainingT float64 // 当前相位剩余时间
}

// NewAdaptiveTrafficLight 创建自适应信号灯，初始相位为南北绿灯
func NewAdaptiveTrafficLight(metrics IMetricsSource, green, yellow float64) *AdaptiveTrafficLight {
	l := &AdaptiveTrafficLight{
		metrics: metrics,
		green:   green,
		yellow:  yellow,
	}
	l.enter(NSGreen, green)
	return l
}

func (l *AdaptiveTrafficLight) Phase() Phase {
	return l.phase
}

func (l *AdaptiveTrafficLight) RemainingTime() float64 {
	return l.remainingT
}

func (l *AdaptiveTrafficLight) TotalTime() float64 {
	return l.totalTime
}

// Expired 当前相位倒计时是否已结束
func (l *AdaptiveTrafficLight) Expired() bool {
	return l.remainingT <= 0
}

// Duration 进入相位p时使用的时长
func (l *AdaptiveTrafficLight) Duration(p Phase) float64 {
	if p.IsYellow() {
		return l.yellow
	}
	return l.green
}

func (l *AdaptiveTrafficLight) SetGreen(v float64) {
	l.green = v
}

func (l *AdaptiveTrafficLight) SetYellow(v float64) {
	l.yellow = v
}

// Tick 控制周期的倒计时，减到0为止
func (l *AdaptiveTrafficLight) Tick() {
	l.remainingT -= 1
	if l.remainingT < 0 {
		l.remainingT = 0
	}
}

// Advance 倒计时结束时转移到下一个相位
// 返回：是否发生了转移
func (l *AdaptiveTrafficLight) Advance() bool {
	if !l.Expired() {
		return false
	}
	l.Next()
	return true
}

// Next 无条件转移到下一个相位（手动切换）
func (l *AdaptiveTrafficLight) Next() {
	var p, w [4]float64
	if l.metrics != nil {
		p, w = l.metrics.Priorities(), l.metrics.Waits()
	}
	next := Transition(l.phase, p, w, true)
	log.Debugf("phase %v -> %v (priorities=%v waits=%v)", l.phase, next, p, w)
	l.enter(next, l.Duration(next))
}

// ForcePhase 强制进入相位并设置剩余时间，仅供紧急控制使用
func (l *AdaptiveTrafficLight) ForcePhase(p Phase, remaining float64) {
	if !p.Valid() {
		log.Panicf("trafficlight: force invalid phase %d", p)
	}
	log.Debugf("force phase %v -> %v (remaining=%v)", l.phase, p, remaining)
	l.enter(p, remaining)
}

func (l *AdaptiveTrafficLight) enter(p Phase, remaining float64) {
	l.phase = p
	l.totalTime = remaining
	l.remainingT = remaining
}

// Program 以城市信号灯协议描述的相位程序
// 说明：相位下标与Phases一致，灯色按北、南、东、西排列
func (l *AdaptiveTrafficLight) Program(junctionID int32) *mapv2.TrafficLight {
	tl := &mapv2.TrafficLight{JunctionId: junctionID}
	for _, p := range Phases {
		s := p.States()
		tl.Phases = append(tl.Phases, &mapv2.Phase{
			Duration: l.Duration(p),
			States:   append([]mapv2.LightState(nil), s[:]...),
		})
	}
	return tl
}

// PhaseByIndex 由程序下标得到相位
func PhaseByIndex(i int32) (Phase, error) {
	p := Phase(i)
	if !p.Valid() {
		return 0, ErrInvalidPhase
	}
	return p, nil
}
