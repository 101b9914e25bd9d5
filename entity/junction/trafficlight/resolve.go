package trafficlight

import (
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

// ResolveLights 由相位与紧急覆盖状态得到四车道灯色
// 功能：每步唯一的灯色来源，车辆运动与车道估计都读取它的结果
// 算法说明：
// 1. 全停：四个方向全红
// 2. 救护车通行且处于黄灯相位：显示正常的黄灯分配，让冲突方向完成清空
// 3. 救护车通行且处于绿灯相位：救护车车道绿灯，其余全红
// 4. 其他情况：相位的灯色分配
func ResolveLights(p Phase, halted bool, ambulance entity.AmbulanceState) entity.TrafficState {
	if halted {
		return entity.TrafficState{red, red, red, red}
	}
	if ambulance.Active && !p.IsYellow() {
		s := entity.TrafficState{red, red, red, red}
		s[ambulance.Lane] = green
		return s
	}
	return p.States()
}
