package junction

import (
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/junction/trafficlight"
)

// 依赖倒置，表达junction对信号灯实现的接口需求

// 给外部提供的信控读取接口
type ITrafficLightGetter interface {
	Phase() trafficlight.Phase                    // 当前相位
	RemainingTime() float64                       // 当前相位剩余时长
	Duration(p trafficlight.Phase) float64        // 进入相位p时使用的时长
	Program(junctionID int32) *mapv2.TrafficLight // 当前程序
}

// 信号灯接口
type ITrafficLight interface {
	ITrafficLightGetter

	Tick()         // 控制周期倒计时
	Expired() bool // 倒计时是否结束
	Advance() bool // 倒计时结束时转移一次
	Next()         // 无条件转移

	ForcePhase(p trafficlight.Phase, remaining float64) // 强制设置相位与剩余时间
	SetGreen(v float64)                                 // 修改绿灯时长（下次进入相位生效）
	SetYellow(v float64)                                // 修改黄灯时长（下次进入相位生效）
}

var _ ITrafficLight = (*trafficlight.AdaptiveTrafficLight)(nil)
