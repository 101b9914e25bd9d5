package analytics

import "github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"

const (
	// TransitDistance 出生点到驶出边界的名义距离，用于计算平均速度
	TransitDistance = 60.
	defaultEmission = 120.
	idleThreshold   = 5.  // 怠速惩罚的等待阈值（秒）
	idlePenaltyRate = 10. // 每秒等待的额外排放
)

// 各车型单次通行的基础排放（g）
var emissionFactors = map[entity.VehicleType]float64{
	entity.VehicleCar:       120,
	entity.VehicleBus:       800,
	entity.VehicleBike:      70,
	entity.VehicleAmbulance: 200,
}

// Emission 单次通行的CO2排放
// 参数：t-车型，wait-停车等待时间（秒）
// 返回：基础排放，等待超过5秒时加上wait*10的怠速惩罚
func Emission(t entity.VehicleType, wait float64) float64 {
	e, ok := emissionFactors[t]
	if !ok {
		e = defaultEmission
	}
	if wait > idleThreshold {
		e += wait * idlePenaltyRate
	}
	return e
}

// Speed 单次通行的平均速度，总时长非正时为0
func Speed(totalTime float64) float64 {
	if totalTime <= 0 {
		return 0
	}
	return TransitDistance / totalTime
}
