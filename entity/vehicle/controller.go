package vehicle

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

const (
	// 跟车安全净距，小于该值停车
	safeGap = 1.5
	// 跟车范围，净距小于safeGap+followRange时不超过前车速度
	followRange = 5.
	// 停车线前的停车区长度
	nearStopZone = 1.
	// 救护车检查横向车辆的接近区间（距中心）
	approachNear = 5.
	approachFar  = 15.
	// 路口冲突区半径
	crossingRadius = 4.5
)

// policyCarFollow 策略1：前车跟车策略
// 功能：根据登记表中的前车净距与速度给出目标速度
// 算法说明：
// 1. 净距小于1.5：停车
// 2. 净距小于6.5：不超过前车速度
// 3. 其他：最大速度
func (v *Vehicle) policyCarFollow(reg *Registry, self Entry) (ac Action) {
	ac.V = v.maxV
	gap, leaderV := reg.Leader(self, v.maxV)
	if gap < safeGap {
		ac.Stop()
	} else if gap < safeGap+followRange {
		ac.V = math.Min(v.maxV, leaderV)
	}
	return
}

// policySignal 策略2：信号灯策略
// 功能：红灯或黄灯时在停车线前的停车区内停车
// 说明：优先车辆不受信号约束；已越过停车线（含恰好位于线上之后）的车辆不再停车
func (v *Vehicle) policySignal(light mapv2.LightState) (ac Action) {
	ac.V = mathutil.INF
	if v.priority {
		return
	}
	if light != mapv2.LightState_LIGHT_STATE_RED && light != mapv2.LightState_LIGHT_STATE_YELLOW {
		return
	}
	beforeStopLine := v.pos <= v.stopLine
	if v.lane.Sign() < 0 {
		beforeStopLine = v.pos >= v.stopLine
	}
	if beforeStopLine && math.Abs(v.pos-v.stopLine) < nearStopZone {
		ac.Stop()
	}
	return
}

// policyCrossTraffic 策略3：优先车辆让行路口内的横向车辆
// 功能：救护车接近路口（距中心5到15）时，若横向车辆仍在冲突区内则停车等待
func (v *Vehicle) policyCrossTraffic(reg *Registry) (ac Action) {
	ac.V = mathutil.INF
	if !v.priority {
		return
	}
	if d := math.Abs(v.pos); d > approachNear && d < approachFar {
		if reg.CrossOccupied(v.lane.Axis(), crossingRadius) {
			ac.Stop()
		}
	}
	return
}

// step 车辆单帧更新
// 功能：写入登记表、扫描决策、移动，并产生通过与驶出事件
// 参数：dt-帧时长，now-本帧结束时刻，light-本车道灯色，reg-登记表
// 返回：本帧产生的事件（通过事件先于驶出事件）
// 算法说明：
// 1. 以移动前的位置与上一帧速度写入登记表
// 2. 合并三条策略，取最小目标速度并限制在[0, 最大速度]
// 3. 速度低于0.1时累计停车时间，然后按速度移动
// 4. 救护车首次越过中心10个单位时产生一次通过事件
// 5. 沿行驶方向越过驶出边界时产生驶出事件（已通过的救护车不产生），并回到出生点
func (v *Vehicle) step(dt, now float64, light mapv2.LightState, reg *Registry) (events []entity.Event) {
	self := v.entry()
	reg.Write(self)

	ac := v.policyCarFollow(reg, self)
	ac.Update(v.policySignal(light), v.policyCrossTraffic(reg))
	target := lo.Clamp(ac.V, 0, v.maxV)

	if target < stoppedThreshold {
		v.stoppedTime += dt
	}
	v.v = target
	v.pos += v.lane.Sign() * target * dt

	if v.priority && !v.cleared && v.progress() > ClearDistance {
		v.cleared = true
		events = append(events, entity.AmbulanceClearedEvent{Lane: v.lane})
	}
	if v.progress() > ExitBoundary {
		if !v.cleared {
			events = append(events, entity.VehicleExitEvent{
				Lane:        v.lane,
				Type:        v.vType,
				StoppedTime: v.stoppedTime,
				TotalTime:   now - v.mountTime,
			})
		}
		v.reset(now)
	}
	return
}
