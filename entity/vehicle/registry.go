package vehicle

import (
	"math"

	"git.fiblab.net/general/common/v2/mathutil"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
)

// Entry 登记表中的一条记录
// 说明：Pos为写入时（本帧移动前）的位置，V为上一帧解析出的速度
type Entry struct {
	ID     string
	Lane   entity.Direction
	Axis   entity.Axis
	Sign   float64
	Pos    float64
	Length float64
	V      float64
}

// Registry 每帧共享的车辆登记表
// 功能：车辆在决策前先写入自己的记录，再扫描登记表寻找前车与冲突车辆
// 说明：
// 1. 遍历顺序为首次写入的顺序，与车辆更新顺序一致，保证结果可复现
// 2. 同一帧内先更新的车辆写入的记录对后更新的车辆立即可见
// 3. 由引擎持有并显式传入，不是全局变量
type Registry struct {
	index   map[string]int
	entries []Entry
}

// NewRegistry 创建空登记表
func NewRegistry() *Registry {
	return &Registry{index: make(map[string]int)}
}

// Len 记录数
func (r *Registry) Len() int {
	return len(r.entries)
}

// Write 写入记录，已存在则原地覆盖，保持原有顺序
func (r *Registry) Write(e Entry) {
	if i, ok := r.index[e.ID]; ok {
		r.entries[i] = e
		return
	}
	r.index[e.ID] = len(r.entries)
	r.entries = append(r.entries, e)
}

// Get 查找记录
func (r *Registry) Get(id string) (Entry, bool) {
	i, ok := r.index[id]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// Remove 删除记录，其余记录保持原有顺序
func (r *Registry) Remove(id string) {
	i, ok := r.index[id]
	if !ok {
		return
	}
	r.entries = append(r.entries[:i], r.entries[i+1:]...)
	delete(r.index, id)
	for j := i; j < len(r.entries); j++ {
		r.index[r.entries[j].ID] = j
	}
}

// Entries 全部记录的副本
func (r *Registry) Entries() []Entry {
	return append([]Entry(nil), r.entries...)
}

// Leader 寻找同车道正前方最近的车辆
// 参数：self-自身记录，defaultV-没有前车时返回的前车速度
// 返回：车身间净距（没有前车时为INF）与前车速度
// 算法说明：
// 1. 只考虑同车道、不同ID、沿行驶方向在前方的记录
// 2. 净距 = |Δpos| - (自身车长/2 + 对方车长/2)
// 3. 只接受净距大于0的候选（回到出生点的车辆可能与他车重叠），取最小者
func (r *Registry) Leader(self Entry, defaultV float64) (gap float64, leaderV float64) {
	gap, leaderV = mathutil.INF, defaultV
	for _, e := range r.entries {
		if e.Lane != self.Lane || e.ID == self.ID {
			continue
		}
		ahead := e.Pos > self.Pos
		if self.Sign < 0 {
			ahead = e.Pos < self.Pos
		}
		if !ahead {
			continue
		}
		d := math.Abs(e.Pos-self.Pos) - (self.Length/2 + e.Length/2)
		if d > 0 && d < gap {
			gap, leaderV = d, e.V
		}
	}
	return
}

// CrossOccupied 是否有与axis垂直方向的车辆位于路口中心radius范围内
func (r *Registry) CrossOccupied(axis entity.Axis, radius float64) bool {
	for _, e := range r.entries {
		if e.Axis != axis && math.Abs(e.Pos) < radius {
			return true
		}
	}
	return false
}
