package vehicle

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

const (
	// 每333辆/小时对应一个车位
	volumePerVehicle = 333.
	minVehicles      = 1
	maxVehicles      = 6
)

// VehicleCount 由流量得到车道上的车辆数，范围[1,6]
func VehicleCount(volume float64) int {
	return lo.Clamp(int(math.Ceil(volume/volumePerVehicle)), minVehicles, maxVehicles)
}

var _ entity.IVehicleManager = (*VehicleManager)(nil)

// VehicleManager 车辆运动引擎
// 功能：持有全部车辆与每帧共享的登记表，按固定顺序逐帧推进
// 说明：更新顺序为北、南、东、西四条车道（车位顺序），救护车最后
type VehicleManager struct {
	registry  *Registry
	lanes     [4][]*Vehicle
	ambulance *Vehicle
	t         float64 // 引擎内部时间（秒）
}

// NewManager 创建车辆运动引擎并按流量生成车辆
func NewManager(volumes [4]float64) *VehicleManager {
	m := &VehicleManager{registry: NewRegistry()}
	for _, d := range entity.Directions {
		m.Resize(d, volumes[d])
	}
	return m
}

// Registry 登记表
func (m *VehicleManager) Registry() *Registry {
	return m.registry
}

// Count 车道上的普通车辆数
func (m *VehicleManager) Count(d entity.Direction) int {
	return len(m.lanes[d])
}

// Vehicles 按更新顺序返回全部车辆
func (m *VehicleManager) Vehicles() []*Vehicle {
	out := make([]*Vehicle, 0, 4*maxVehicles+1)
	for _, vs := range m.lanes {
		out = append(out, vs...)
	}
	if m.ambulance != nil {
		out = append(out, m.ambulance)
	}
	return out
}

// Ambulance 当前救护车，没有时为nil
func (m *VehicleManager) Ambulance() *Vehicle {
	return m.ambulance
}

// Resize 按新流量调整车道的车辆数
// 说明：保留已有车位上的车辆，新增车位从出生点开始，多余车位的车辆连同登记记录一起删除
func (m *VehicleManager) Resize(d entity.Direction, volume float64) {
	n := VehicleCount(volume)
	vs := m.lanes[d]
	for len(vs) < n {
		vs = append(vs, newVehicle(d, len(vs), m.t))
	}
	for _, v := range vs[n:] {
		m.registry.Remove(v.id)
	}
	m.lanes[d] = vs[:n]
	log.Debugf("lane %v resized to %d vehicles", d, n)
}

// SpawnAmbulance 在车道d的驶入边界生成救护车，已存在时忽略
func (m *VehicleManager) SpawnAmbulance(d entity.Direction) {
	if m.ambulance != nil {
		log.Warnf("ambulance %s already exists, ignore spawn on %v", m.ambulance.id, d)
		return
	}
	m.ambulance = newAmbulance(d, m.t)
	log.Infof("ambulance spawned on %v", d)
}

// RemoveAmbulance 删除救护车及其登记记录
func (m *VehicleManager) RemoveAmbulance() {
	if m.ambulance == nil {
		return
	}
	m.registry.Remove(m.ambulance.id)
	m.ambulance = nil
}

// Update 逐帧推进全部车辆
// 参数：dt-帧时长，lights-本帧解析出的灯色
// 返回：按产生顺序排列的事件
func (m *VehicleManager) Update(dt float64, lights entity.TrafficState) []entity.Event {
	m.t += dt
	var events []entity.Event
	for _, vs := range m.lanes {
		for _, v := range vs {
			events = append(events, v.step(dt, m.t, lights[v.lane], m.registry)...)
		}
	}
	if m.ambulance != nil {
		events = append(events, m.ambulance.step(dt, m.t, lights[m.ambulance.lane], m.registry)...)
	}
	return events
}
