package lane

import (
	"math"

	"github.com/samber/lo"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/randengine"
)

const (
	// 车道容量（标准车当量），密度百分比以此为100%
	laneCapacity = 30.
	// 车型当量
	busEquivalent        = 3.
	motorcycleEquivalent = 0.5
)

// synthesizeDensity 由排队估计合成车型构成与密度
// 功能：模拟检测器输出，各车型数量为排队的固定比例再加上随机的±1辆
// 算法说明：
// 1. q = floor(queue)
// 2. 小汽车 = floor(0.7q) + B(0.5)，公交 = floor(0.1q) + B(0.2)，摩托 = floor(0.2q) + B(0.5)
// 3. 密度% = min(100, round((小汽车 + 3*公交 + 0.5*摩托) / 30 * 100))
func synthesizeDensity(queue float64, generator *randengine.Engine) entity.Density {
	q := math.Floor(queue)
	cars := int(math.Floor(q*0.7)) + generator.Bernoulli(0.5)
	buses := int(math.Floor(q*0.1)) + generator.Bernoulli(0.2)
	motorcycles := int(math.Floor(q*0.2)) + generator.Bernoulli(0.5)
	return entity.Density{
		Cars:        cars,
		Buses:       buses,
		Motorcycles: motorcycles,
		Percent:     densityPercent(cars, buses, motorcycles),
	}
}

// densityPercent 车型构成对应的密度百分比，限制在[0,100]
func densityPercent(cars, buses, motorcycles int) float64 {
	raw := float64(cars) + busEquivalent*float64(buses) + motorcycleEquivalent*float64(motorcycles)
	return lo.Clamp(math.Round(raw/laneCapacity*100), 0, 100)
}
