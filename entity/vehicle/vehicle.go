package vehicle

import (
	"fmt"

	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

// 几何常量（沿车道方向的一维坐标，路口中心为0）
const (
	// 驶出边界，越过后回到出生点
	ExitBoundary = 25.
	// 救护车越过中心该距离后视为已通过路口
	ClearDistance = 10.

	// 0号车位的出生点与停车线距中心的距离，以及后续车位的间隔
	spawnBase    = 20.
	spawnSpacing = 6.
	stopBase     = 5.
	stopSpacing  = 4.

	// 普通车辆与救护车的最大速度
	DefaultMaxV   = 3.
	AmbulanceMaxV = 12.

	// 低于该速度计为停车
	stoppedThreshold = 0.1
)

// 车长
var lengths = map[entity.VehicleType]float64{
	entity.VehicleCar:       3.2,
	entity.VehicleBus:       6,
	entity.VehicleBike:      1.5,
	entity.VehicleAmbulance: 4,
}

// Vehicle 车辆
// 功能：沿所在车道做一维运动，位置为带符号的轴向坐标
// 说明：车辆驶出后在出生点原地重生，不会被销毁；救护车除外
type Vehicle struct {
	id       string
	lane     entity.Direction
	vType    entity.VehicleType
	slot     int
	length   float64
	maxV     float64
	start    float64 // 出生点
	stopLine float64 // 停车线
	priority bool    // 是否为优先车辆（救护车）

	pos         float64
	v           float64 // 上一帧解析出的速度
	mountTime   float64 // 本次出生时刻
	stoppedTime float64 // 本次通行累计停车时间
	cleared     bool    // 救护车是否已通过路口
}

// newVehicle 创建普通车辆
// 算法说明：
// 1. 第i个车位的出生点距中心20+6i，停车线距中心5+4i，位于来车方向一侧
// 2. 车型由车道与车位决定：北向全为小汽车，南向0号车位为公交，
// 东向每4个车位一辆自行车，西向每2个车位一辆自行车
func newVehicle(lane entity.Direction, slot int, now float64) *Vehicle {
	sign := lane.Sign()
	vType := vehicleTypeFor(lane, slot)
	return &Vehicle{
		id:        fmt.Sprintf("%c-%d", lane.String()[0], slot),
		lane:      lane,
		vType:     vType,
		slot:      slot,
		length:    lengths[vType],
		maxV:      DefaultMaxV,
		start:     -sign * (spawnBase + spawnSpacing*float64(slot)),
		stopLine:  -sign * (stopBase + stopSpacing*float64(slot)),
		pos:       -sign * (spawnBase + spawnSpacing*float64(slot)),
		v:         DefaultMaxV,
		mountTime: now,
	}
}

// newAmbulance 创建救护车，出生于驶入边界，忽略本车道信号
func newAmbulance(lane entity.Direction, now float64) *Vehicle {
	sign := lane.Sign()
	return &Vehicle{
		id:        fmt.Sprintf("amb-%c", lane.String()[0]),
		lane:      lane,
		vType:     entity.VehicleAmbulance,
		length:    lengths[entity.VehicleAmbulance],
		maxV:      AmbulanceMaxV,
		start:     -sign * ExitBoundary,
		stopLine:  -sign * stopBase,
		priority:  true,
		pos:       -sign * ExitBoundary,
		v:         AmbulanceMaxV,
		mountTime: now,
	}
}

func vehicleTypeFor(lane entity.Direction, slot int) entity.VehicleType {
	switch lane {
	case entity.South:
		if slot == 0 {
			return entity.VehicleBus
		}
	case entity.East:
		if slot%4 == 0 {
			return entity.VehicleBike
		}
	case entity.West:
		if slot%2 == 0 {
			return entity.VehicleBike
		}
	}
	return entity.VehicleCar
}

func (v *Vehicle) String() string {
	return fmt.Sprintf("Vehicle{%s %v pos=%.2f v=%.2f}", v.id, v.vType, v.pos, v.v)
}

func (v *Vehicle) ID() string {
	return v.id
}

func (v *Vehicle) Lane() entity.Direction {
	return v.lane
}

func (v *Vehicle) Type() entity.VehicleType {
	return v.vType
}

// Pos 轴向坐标
func (v *Vehicle) Pos() float64 {
	return v.pos
}

// V 当前速度
func (v *Vehicle) V() float64 {
	return v.v
}

func (v *Vehicle) MaxV() float64 {
	return v.maxV
}

func (v *Vehicle) Length() float64 {
	return v.length
}

func (v *Vehicle) StopLine() float64 {
	return v.stopLine
}

func (v *Vehicle) IsPriority() bool {
	return v.priority
}

// entry 当前状态对应的登记表记录
func (v *Vehicle) entry() Entry {
	return Entry{
		ID:     v.id,
		Lane:   v.lane,
		Axis:   v.lane.Axis(),
		Sign:   v.lane.Sign(),
		Pos:    v.pos,
		Length: v.length,
		V:      v.v,
	}
}

// progress 沿行驶方向的坐标（驶向路口为负，驶离路口为正）
func (v *Vehicle) progress() float64 {
	return v.lane.Sign() * v.pos
}

// reset 回到出生点并重新计时
func (v *Vehicle) reset(now float64) {
	v.pos = v.start
	v.mountTime = now
	v.stoppedTime = 0
	v.cleared = false
}
