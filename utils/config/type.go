package config

// OutputPath 指定分析快照输出位置的配置（MongoDB）
// 功能：定义输出路径的配置结构
// 说明：URI为空时不输出，仿真只在内存中保留最近的快照
type OutputPath struct {
	URI string `yaml:"uri,omitempty"` // MongoDB连接字符串
	DB  string `yaml:"db,omitempty"`  // 数据库名
	Col string `yaml:"col,omitempty"` // 集合名
}

// GetDb 获取数据库名
func (p OutputPath) GetDb() string {
	return p.DB
}

// GetColl 获取集合名
func (p OutputPath) GetColl() string {
	return p.Col
}

// Enabled 是否启用输出
func (p OutputPath) Enabled() bool {
	return p.URI != ""
}

// ControlStep 指定模拟器模拟时间范围和间隔的配置项
// 功能：定义仿真时间控制参数
// 说明：控制仿真的时间范围和步长，interval即每帧的dt（秒）
type ControlStep struct {
	Start    int32   `yaml:"start"`    // 开始步数
	Total    int32   `yaml:"total"`    // 总步数
	Interval float64 `yaml:"interval"` // 每步的时间间隔
}

// Signal 信号灯配置
// 功能：定义自适应信号灯的时长参数与自动模式开关
type Signal struct {
	Green  float64 `yaml:"green"`          // 绿灯时长（秒），范围[3,15]
	Yellow float64 `yaml:"yellow"`         // 黄灯时长（秒），范围[1,5]
	Auto   *bool   `yaml:"auto,omitempty"` // 自动模式，缺省为true
}

// Control 模拟器控制配置
// 功能：定义仿真系统的核心控制参数
type Control struct {
	Step   ControlStep `yaml:"step"`
	Signal Signal      `yaml:"signal"`
	Seed   uint64      `yaml:"seed,omitempty"` // 随机数种子
}

// Volumes 各进口道的车流量配置（辆/小时），范围[0,2000]
type Volumes struct {
	North *float64 `yaml:"north,omitempty"`
	South *float64 `yaml:"south,omitempty"`
	East  *float64 `yaml:"east,omitempty"`
	West  *float64 `yaml:"west,omitempty"`
}

// Config YAML配置文件的根结构
// 功能：定义整个仿真系统的配置结构
// 说明：包含控制、流量、输出等所有配置项
type Config struct {
	Control Control    `yaml:"control"`          // 模拟过程控制
	Volumes Volumes    `yaml:"volumes"`          // 车流量
	Output  OutputPath `yaml:"output,omitempty"` // 输出
}
