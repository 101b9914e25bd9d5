package entity

import (
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/clock"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
)

type ITaskContext interface {
	Clock() *clock.Clock
	LaneManager() ILaneManager
	VehicleManager() IVehicleManager
	Junction() IJunction
	RuntimeConfig() *config.RuntimeConfig

	// 提交外部指令，在下一步的准备阶段串行执行
	Submit(cmd func())
}
