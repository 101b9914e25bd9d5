package config

import (
	"github.com/samber/lo"
)

// 参数边界与默认值
const (
	MinGreen  = 3.
	MaxGreen  = 15.
	MinYellow = 1.
	MaxYellow = 5.
	MinVolume = 0.
	MaxVolume = 2000.

	DefaultGreen    = 8.
	DefaultYellow   = 3.
	DefaultInterval = 1. / 60
	// 普通车辆一步的位移（最大速度3）必须小于停车线前1个单位的停车区
	MaxInterval = 0.25
)

// DefaultVolumes 默认车流量，顺序为北、南、东、西
var DefaultVolumes = [4]float64{600, 700, 400, 500}

// ClampGreen 将绿灯时长限制在合法范围内
func ClampGreen(v float64) float64 {
	return lo.Clamp(v, MinGreen, MaxGreen)
}

// ClampYellow 将黄灯时长限制在合法范围内
func ClampYellow(v float64) float64 {
	return lo.Clamp(v, MinYellow, MaxYellow)
}

// ClampVolume 将车流量限制在合法范围内
func ClampVolume(v float64) float64 {
	return lo.Clamp(v, MinVolume, MaxVolume)
}

// ClampInterval 将步长限制在MaxInterval以内
func ClampInterval(v float64) float64 {
	return min(v, MaxInterval)
}

// RuntimeConfig 运行时配置
// 功能：存储仿真运行时的配置信息，所有数值均已填充默认值并限制在合法范围内
// 说明：将YAML配置转换为运行时可用的配置对象
type RuntimeConfig struct {
	All     Config  // 全部配置
	C       Control // 全局控制配置
	Green   float64
	Yellow  float64
	Auto    bool
	Volumes [4]float64 // 顺序为北、南、东、西
}

// NewRuntimeConfig 根据配置初始化运行时配置
// 功能：创建运行时配置对象，填充默认值并进行范围限制
// 参数：config-原始配置对象
// 返回：初始化的运行时配置指针
// 算法说明：
// 1. 未指定的时长与流量使用默认值
// 2. 超出范围的数值被截断到边界，并输出警告日志
// 3. 未指定步长时使用1/60秒，步长最大为0.25秒
func NewRuntimeConfig(config Config) *RuntimeConfig {
	rc := &RuntimeConfig{
		All:    config,
		C:      config.Control,
		Green:  DefaultGreen,
		Yellow: DefaultYellow,
		Auto:   true,
	}
	if rc.C.Step.Interval <= 0 {
		rc.C.Step.Interval = DefaultInterval
	} else {
		rc.C.Step.Interval = clampWarn("control.step.interval", rc.C.Step.Interval, ClampInterval)
	}
	if g := config.Control.Signal.Green; g != 0 {
		rc.Green = clampWarn("signal.green", g, ClampGreen)
	}
	if y := config.Control.Signal.Yellow; y != 0 {
		rc.Yellow = clampWarn("signal.yellow", y, ClampYellow)
	}
	if config.Control.Signal.Auto != nil {
		rc.Auto = *config.Control.Signal.Auto
	}
	names := [4]string{"volumes.north", "volumes.south", "volumes.east", "volumes.west"}
	for i, v := range []*float64{config.Volumes.North, config.Volumes.South, config.Volumes.East, config.Volumes.West} {
		if v == nil {
			rc.Volumes[i] = DefaultVolumes[i]
		} else {
			rc.Volumes[i] = clampWarn(names[i], *v, ClampVolume)
		}
	}
	return rc
}

func clampWarn(name string, v float64, clamp func(float64) float64) float64 {
	c := clamp(v)
	if c != v {
		log.Warnf("%s=%v out of range, clamped to %v", name, v, c)
	}
	return c
}
