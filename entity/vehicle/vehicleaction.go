package vehicle

// Action 车辆动作结构体
// 功能：描述一条策略给出的目标速度约束
type Action struct {
	V float64 // 目标速度（单位/秒），INF表示无约束
}

// Update 合并车辆动作
// 功能：采用取最小的方式合并目标速度，多条策略冲突时以最保守者为准
func (a *Action) Update(others ...Action) {
	for _, o := range others {
		if o.V < a.V {
			a.V = o.V
		}
	}
}

// Stop 设置为停车
func (a *Action) Stop() {
	a.V = 0
}
