// 提供四相位自适应信号灯的相位定义与相位转移规则
// 绿灯结束后无条件进入同轴黄灯；黄灯结束后比较两轴优先级之和选择下一个绿灯相位，
// 长时间未获得绿灯的轴线获得固定加分以避免饥饿
package trafficlight

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

const (
	// StarvationThreshold 饥饿判定阈值（秒）
	StarvationThreshold = 30.
	// StarvationBonus 饥饿轴线的优先级加分
	StarvationBonus = 1000.
)

const (
	red    = mapv2.LightState_LIGHT_STATE_RED
	yellow = mapv2.LightState_LIGHT_STATE_YELLOW
	green  = mapv2.LightState_LIGHT_STATE_GREEN
)

// Phase 相位，封闭枚举
type Phase int32

const (
	NSGreen  Phase = iota // 南北绿灯
	NSYellow              // 南北黄灯
	EWGreen               // 东西绿灯
	EWYellow              // 东西黄灯
)

// Phases 全部相位，顺序即信号灯程序中的相位下标
var Phases = [4]Phase{NSGreen, NSYellow, EWGreen, EWYellow}

// 相位对应的四车道灯色（北、南、东、西）
var phaseStates = [4]entity.TrafficState{
	NSGreen:  {green, green, red, red},
	NSYellow: {yellow, yellow, red, red},
	EWGreen:  {red, red, green, green},
	EWYellow: {red, red, yellow, yellow},
}

var phaseLabels = [4]string{
	NSGreen:  "N-S Green",
	NSYellow: "N-S Yellow",
	EWGreen:  "E-W Green",
	EWYellow: "E-W Yellow",
}

func (p Phase) String() string {
	if !p.Valid() {
		return fmt.Sprintf("Phase(%d)", int32(p))
	}
	return phaseLabels[p]
}

// Valid 是否为合法相位
func (p Phase) Valid() bool {
	return p >= NSGreen && p <= EWYellow
}

// States 相位的完整灯色分配
func (p Phase) States() entity.TrafficState {
	return phaseStates[p]
}

// IsYellow 是否为黄灯相位（决定相位时长类别）
func (p Phase) IsYellow() bool {
	return p == NSYellow || p == EWYellow
}

// Axis 相位放行（或清空）的轴线
func (p Phase) Axis() entity.Axis {
	if p == NSGreen || p == NSYellow {
		return entity.AxisZ
	}
	return entity.AxisX
}

// GreenOf 某轴线的绿灯相位
func GreenOf(a entity.Axis) Phase {
	if a == entity.AxisZ {
		return NSGreen
	}
	return EWGreen
}

// YellowOf 某轴线的黄灯相位
func YellowOf(a entity.Axis) Phase {
	if a == entity.AxisZ {
		return NSYellow
	}
	return EWYellow
}

// EvaluateNextGreen 选择黄灯结束后的下一个绿灯相位
// 功能：比较南北与东西两轴的优先级之和，纯函数
// 参数：priorities-各车道优先级，waits-各车道等待时间（均按Direction索引）
// 返回：NSGreen或EWGreen
// 算法说明：
// 1. nsScore = p[北]+p[南]，ewScore = p[东]+p[西]
// 2. 某轴任一车道等待超过30秒且另一轴未同时饥饿时，该轴加1000分
// 3. nsScore >= ewScore 时选择南北（平局偏向南北）
func EvaluateNextGreen(priorities, waits [4]float64) Phase {
	nsScore := priorities[entity.North] + priorities[entity.South]
	ewScore := priorities[entity.East] + priorities[entity.West]
	nsStarving := waits[entity.North] > StarvationThreshold || waits[entity.South] > StarvationThreshold
	ewStarving := waits[entity.East] > StarvationThreshold || waits[entity.West] > StarvationThreshold
	switch {
	case nsStarving && !ewStarving:
		nsScore += StarvationBonus
	case ewStarving && !nsStarving:
		ewScore += StarvationBonus
	}
	if nsScore >= ewScore {
		return NSGreen
	}
	return EWGreen
}

// Transition 相位转移函数
// 功能：给出下一个相位，纯函数
// 参数：expired-当前相位倒计时是否结束，未结束时保持当前相位
// 说明：绿灯进入同轴黄灯，不参考优先级；黄灯调用EvaluateNextGreen
func Transition(p Phase, priorities, waits [4]float64, expired bool) Phase {
	if !expired && p.Valid() {
		return p
	}
	switch p {
	case NSGreen:
		return NSYellow
	case EWGreen:
		return EWYellow
	case NSYellow, EWYellow:
		return EvaluateNextGreen(priorities, waits)
	}
	log.Panicf("trafficlight: invalid phase %d", p)
	return p
}
