// 随机数引擎，包装了golang.org/x/exp/rand，提供了信号仿真中常用的随机数生成方法
package randengine

import (
	"flag"

	"golang.org/x/exp/rand"
)

var (
	seedOffset = flag.Uint64("rand.seed_offset", 0, "seed offset") // 种子偏移量，用于调整随机数生成
)

// Engine 随机数引擎
// 功能：提供可复现的随机数生成，同一种子得到同一条仿真轨迹
// 说明：仿真主循环是单线程的，引擎不加锁
type Engine struct {
	*rand.Rand // 底层随机数生成器
}

// New 创建随机数引擎
// 功能：初始化一个新的随机数引擎实例
// 参数：seed-随机数种子
// 返回：随机数引擎指针
// 说明：种子偏移量允许在不修改配置的情况下调整随机数序列
func New(seed uint64) *Engine {
	return &Engine{Rand: rand.New(rand.NewSource(seed + *seedOffset))}
}

// PTrue 以指定概率返回true
// 功能：伯努利试验，p<=0恒为false，p>=1恒为true
func (e *Engine) PTrue(p float64) bool {
	return e.Float64() < p
}

// Bernoulli 以指定概率返回1，否则返回0
// 说明：用于计数类的随机增量（到达、离开、车型构成）
func (e *Engine) Bernoulli(p float64) int {
	if e.PTrue(p) {
		return 1
	}
	return 0
}

// IntRange 在闭区间[lo, hi]内均匀生成整数
func (e *Engine) IntRange(lo, hi int) int {
	if hi < lo {
		lo, hi = hi, lo
	}
	return lo + e.Intn(hi-lo+1)
}
