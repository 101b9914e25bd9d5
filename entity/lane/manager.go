package lane

import (
	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/randengine"
	"gonum.org/v1/gonum/stat"
)

// 与其他模块错开的随机数种子偏移
const seedOffset = 1

var _ entity.ILaneManager = (*LaneManager)(nil)

// LaneManager Lane管理器
// 功能：管理四条进口车道的估计状态，为相位选择提供优先级与等待时间
type LaneManager struct {
	lanes     [4]*Lane
	generator *randengine.Engine
}

// NewManager 创建Lane管理器实例
// 参数：volumes-四个方向的流量（按Direction索引），seed-随机数种子
func NewManager(volumes [4]float64, seed uint64) *LaneManager {
	m := &LaneManager{generator: randengine.New(seed + seedOffset)}
	for _, d := range entity.Directions {
		m.lanes[d] = newLane(d, config.ClampVolume(volumes[d]))
	}
	return m
}

// Get 获取车道
func (m *LaneManager) Get(d entity.Direction) *Lane {
	if !d.Valid() {
		log.Panicf("no lane for direction %v", d)
	}
	return m.lanes[d]
}

// Update 更新阶段，1秒一次
// 功能：按北、南、东、西的固定顺序更新四条车道，保证随机数消耗顺序确定
// 参数：lights-本周期开始时解析出的灯色，yellowPhase-是否为黄灯相位，ambulance-救护车状态
func (m *LaneManager) Update(lights entity.TrafficState, yellowPhase bool, ambulance entity.AmbulanceState) {
	for _, l := range m.lanes {
		l.update(lights[l.dir], yellowPhase, ambulance.Active && ambulance.Lane == l.dir, m.generator)
	}
	log.Debugf("lanes updated: %v", m.lanes)
}

// Priorities 各车道优先级（按Direction索引）
func (m *LaneManager) Priorities() (p [4]float64) {
	for i, l := range m.lanes {
		p[i] = l.Priority()
	}
	return
}

// Waits 各车道等待时间（按Direction索引）
func (m *LaneManager) Waits() (w [4]float64) {
	for i, l := range m.lanes {
		w[i] = l.wait
	}
	return
}

// MeanDensity 四条车道密度百分比的均值
func (m *LaneManager) MeanDensity() float64 {
	return stat.Mean(lo.Map(m.lanes[:], func(l *Lane, _ int) float64 {
		return l.density.Percent
	}), nil)
}

// Metrics 各车道指标快照
func (m *LaneManager) Metrics() (out [4]entity.LaneMetrics) {
	for i, l := range m.lanes {
		out[i] = l.Metrics()
	}
	return
}

func (m *LaneManager) Volume(d entity.Direction) float64 {
	return m.Get(d).volume
}

// SetVolume 设置流量，超出[0,2000]的值被截断
// 返回：实际生效的流量
func (m *LaneManager) SetVolume(d entity.Direction, v float64) float64 {
	c := config.ClampVolume(v)
	if c != v {
		log.Warnf("volume %v for %v out of range, clamped to %v", v, d, c)
	}
	m.Get(d).volume = c
	return c
}
