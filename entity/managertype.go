package entity

import (
	"git.fiblab.net/sim/syncer/v3"
)

// Manager依赖倒置

// entity/lane/manager.go的依赖倒置
type ILaneManager interface {
	// 1秒一次的估计更新，lights为本次控制周期开始时的灯色
	Update(lights TrafficState, yellowPhase bool, ambulance AmbulanceState)

	Priorities() [4]float64 // 各车道优先级
	Waits() [4]float64      // 各车道等待时间
	MeanDensity() float64   // 四条车道密度百分比的均值
	Metrics() [4]LaneMetrics

	Volume(d Direction) float64
	SetVolume(d Direction, v float64) float64 // 返回限制后的实际值
}

// entity/vehicle/manager.go的依赖倒置
type IVehicleManager interface {
	// 逐帧推进，返回按产生顺序排列的事件
	Update(dt float64, lights TrafficState) []Event

	SpawnAmbulance(d Direction)
	RemoveAmbulance()
	Resize(d Direction, volume float64)
	Count(d Direction) int
}

// entity/junction/junction.go的依赖倒置
type IJunction interface {
	Register(sidecar *syncer.Sidecar) // 注册到Sidecar

	Prepare()          // 准备阶段：解析灯色
	Update(dt float64) // 更新阶段：推进1秒控制定时器
	Lights() TrafficState

	PhaseName() string
	Label() string
	RemainingTime() float64
	Halted() bool
	Auto() bool
	Ambulance() AmbulanceState

	ForceNextPhase() bool
	ToggleHalt() bool
	DispatchAmbulance(d Direction) bool
	OnAmbulanceCleared()
	SetGreenDuration(v float64) float64
	SetYellowDuration(v float64) float64
	SetAutoMode(on bool)
}
