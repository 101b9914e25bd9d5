package entity

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
)

// Direction 进口道方向，同时作为车道标识
type Direction int32

const (
	North Direction = iota // 北进口，沿z轴正向行驶
	South                  // 南进口，沿z轴负向行驶
	East                   // 东进口，沿x轴负向行驶
	West                   // 西进口，沿x轴正向行驶
)

// Directions 固定的遍历顺序：北、南、东、西
var Directions = [4]Direction{North, South, East, West}

func (d Direction) String() string {
	switch d {
	case North:
		return "north"
	case South:
		return "south"
	case East:
		return "east"
	case West:
		return "west"
	}
	return fmt.Sprintf("Direction(%d)", int32(d))
}

// Valid 是否为四个进口方向之一
func (d Direction) Valid() bool {
	return d >= North && d <= West
}

// Axis 所在轴线
func (d Direction) Axis() Axis {
	if d == North || d == South {
		return AxisZ
	}
	return AxisX
}

// Sign 行驶方向符号：北、西为+1，南、东为-1
func (d Direction) Sign() float64 {
	if d == North || d == West {
		return 1
	}
	return -1
}

// Axis 轴线，南北方向车道沿z轴，东西方向车道沿x轴
type Axis int32

const (
	AxisZ Axis = iota // 南北轴
	AxisX             // 东西轴
)

func (a Axis) String() string {
	if a == AxisZ {
		return "N-S"
	}
	return "E-W"
}

// TrafficState 每条车道的信号灯颜色，按Direction索引
type TrafficState [4]mapv2.LightState

func (s TrafficState) String() string {
	return fmt.Sprintf("{N:%v S:%v E:%v W:%v}", short(s[North]), short(s[South]), short(s[East]), short(s[West]))
}

func short(l mapv2.LightState) string {
	switch l {
	case mapv2.LightState_LIGHT_STATE_RED:
		return "R"
	case mapv2.LightState_LIGHT_STATE_YELLOW:
		return "Y"
	case mapv2.LightState_LIGHT_STATE_GREEN:
		return "G"
	}
	return "?"
}

// AmbulanceState 救护车优先状态
type AmbulanceState struct {
	Active bool      // 是否有救护车正在通行
	Lane   Direction // 救护车所在车道，仅在Active时有意义
}

// VehicleType 车辆类型
type VehicleType string

const (
	VehicleCar       VehicleType = "car"
	VehicleBus       VehicleType = "bus"
	VehicleBike      VehicleType = "bike"
	VehicleAmbulance VehicleType = "ambulance"
)

// Density 车道的合成车型构成与密度
type Density struct {
	Cars        int
	Buses       int
	Motorcycles int
	Percent     float64 // [0, 100]
}

// LaneMetrics 车道的估计指标
type LaneMetrics struct {
	Queue    float64 // 排队估计，非负，无上界
	Wait     float64 // 距上次真正绿灯的秒数
	Priority float64 // 0.7*Density.Percent + 0.3*Wait
	Volume   float64 // 当前配置流量（辆/小时）
	Density  Density
}

// AnalyticsSnapshot 5秒一次的分析快照，追加进历史后不再修改
type AnalyticsSnapshot struct {
	Throughput      int     // 本窗口通过车辆数（含抖动）
	AvgSpeed        float64 // 平均速度（km/h意义下的示意值）
	AvgWait         float64 // 平均停车等待（秒）
	CO2Emissions    float64 // 本窗口CO2排放（g）
	PollutionIndex  float64 // 平滑后的污染指数[0,100]
	EfficiencyScore float64 // 效率评分
	Timestamp       float64 // 仿真时间（秒）
	Label           string  // HH:MM:SS
}

// Totals 累计统计
type Totals struct {
	Crossed      int     // 累计通过车辆数
	CO2          float64 // 累计CO2（真实值）
	DisplayedCO2 float64 // 累计CO2（平滑显示值）
}

// ControllerState 对外输出的控制器状态
type ControllerState struct {
	Time      float64
	Lights    TrafficState
	Phase     string  // 相位名称
	Label     string  // 显示标签，紧急状态覆盖相位名称
	Countdown float64 // 当前相位剩余秒数
	Halted    bool
	Auto      bool
	Ambulance AmbulanceState
	Lanes     [4]LaneMetrics
	History   []AnalyticsSnapshot
	Totals    Totals
}
