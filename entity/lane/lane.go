package lane

import (
	"fmt"

	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/randengine"
)

const (
	// 绿灯下的离开率（辆/秒）
	departureRate = 2000. / 3600
	// 救护车车道的离开率倍数
	ambulanceDepartureFactor = 1.5
	// 优先级中密度与等待时间的权重
	densityWeight = 0.7
	waitWeight    = 0.3
)

// Lane 进口车道的估计状态
// 功能：以1秒为周期估计排队、等待时间、车型构成、密度与优先级
// 说明：排队是抽象的随机游走，与运动模块中实际生成的车辆数量互相独立
type Lane struct {
	dir     entity.Direction
	volume  float64 // 配置流量（辆/小时）
	queue   float64
	wait    float64
	density entity.Density
}

func newLane(dir entity.Direction, volume float64) *Lane {
	return &Lane{dir: dir, volume: volume}
}

func (l *Lane) String() string {
	return fmt.Sprintf("Lane{%v queue=%v wait=%v density=%v%%}", l.dir, l.queue, l.wait, l.density.Percent)
}

func (l *Lane) Direction() entity.Direction {
	return l.dir
}

func (l *Lane) Queue() float64 {
	return l.queue
}

func (l *Lane) Wait() float64 {
	return l.wait
}

func (l *Lane) Density() entity.Density {
	return l.density
}

// Priority 车道优先级
// 功能：P = 0.7*密度百分比 + 0.3*等待时间，两项均非负因此P非负
func (l *Lane) Priority() float64 {
	return densityWeight*l.density.Percent + waitWeight*l.wait
}

// Metrics 车道指标快照
func (l *Lane) Metrics() entity.LaneMetrics {
	return entity.LaneMetrics{
		Queue:    l.queue,
		Wait:     l.wait,
		Priority: l.Priority(),
		Volume:   l.volume,
		Density:  l.density,
	}
}

// update 1秒一次的估计更新
// 参数：light-本周期开始时的车道灯色，yellowPhase-当前是否为黄灯相位，
// ambulance-本车道是否为救护车车道，generator-随机数引擎
// 算法说明：
// 1. 真正绿灯（绿灯且不在黄灯相位）时等待清零，否则加1
// 2. 到达：以volume/3600的概率到达1辆
// 3. 离开：仅真正绿灯且有排队时，以2000/3600的概率离开1辆（救护车车道乘1.5）
// 4. 排队取max(0, 排队+到达-离开)
// 5. 由排队合成车型构成并计算密度
func (l *Lane) update(light mapv2.LightState, yellowPhase bool, ambulance bool, generator *randengine.Engine) {
	trueGreen := light == mapv2.LightState_LIGHT_STATE_GREEN && !yellowPhase
	if trueGreen {
		l.wait = 0
	} else {
		l.wait++
	}

	arrivals := generator.Bernoulli(l.volume / 3600)
	departures := 0
	if trueGreen && l.queue > 0 {
		rate := departureRate
		if ambulance {
			rate *= ambulanceDepartureFactor
		}
		departures = generator.Bernoulli(rate)
	}
	l.queue = max(0, l.queue+float64(arrivals-departures))
	l.density = synthesizeDensity(l.queue, generator)
}
