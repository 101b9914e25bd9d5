package entity

import "fmt"

// Event 仿真事件，由车辆运动模块产生，经任务上下文交给调用方
type Event interface {
	fmt.Stringer
	isEvent()
}

// VehicleExitEvent 车辆驶出路口范围
type VehicleExitEvent struct {
	Lane        Direction
	Type        VehicleType
	StoppedTime float64 // 本次通行中速度低于阈值的累计时间（秒）
	TotalTime   float64 // 从出生到驶出的时间（秒）
}

func (VehicleExitEvent) isEvent() {}

func (e VehicleExitEvent) String() string {
	return fmt.Sprintf("VehicleExit{lane=%v type=%v stopped=%.2f total=%.2f}", e.Lane, e.Type, e.StoppedTime, e.TotalTime)
}

// AmbulanceClearedEvent 救护车驶过路口中心（每次派遣只产生一次）
type AmbulanceClearedEvent struct {
	Lane Direction
}

func (AmbulanceClearedEvent) isEvent() {}

func (e AmbulanceClearedEvent) String() string {
	return fmt.Sprintf("AmbulanceCleared{lane=%v}", e.Lane)
}
