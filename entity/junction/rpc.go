package junction

import (
	"context"
	"net/http"

	"connectrpc.com/connect"
	mapv2 "git.fiblab.net/sim/protos/v2/go/city/map/v2"
	mapv2connect "git.fiblab.net/sim/protos/v2/go/city/map/v2/mapv2connect"
	"git.fiblab.net/sim/syncer/v3"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity/junction/trafficlight"
	"google.golang.org/protobuf/proto"
)

// Register 将路口控制器注册到sidecar
// 说明：RPC写操作通过ctx.Submit排队，在下一步的准备阶段执行
func (j *Junction) Register(sidecar *syncer.Sidecar) {
	sidecar.Register(
		mapv2connect.TrafficLightServiceName,
		func(opts ...connect.HandlerOption) (pattern string, handler http.Handler) {
			return mapv2connect.NewTrafficLightServiceHandler(j, opts...)
		},
	)
}

// GetTrafficLight RPC接口：获取信号灯程序、当前相位下标与剩余时间
func (j *Junction) GetTrafficLight(
	ctx context.Context, in *connect.Request[mapv2.GetTrafficLightRequest],
) (*connect.Response[mapv2.GetTrafficLightResponse], error) {
	if in.Msg.JunctionId != j.id {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrUnknownJunction)
	}
	s := j.loadSnapshot()
	return connect.NewResponse(&mapv2.GetTrafficLightResponse{
		TrafficLight:  proto.Clone(s.program).(*mapv2.TrafficLight),
		PhaseIndex:    int32(s.phase),
		TimeRemaining: s.remainingT,
	}), nil
}

// SetTrafficLight RPC接口：自适应控制器的程序由车道指标决定，不接受外部程序
func (j *Junction) SetTrafficLight(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightRequest],
) (*connect.Response[mapv2.SetTrafficLightResponse], error) {
	if in.Msg.TrafficLight == nil || in.Msg.TrafficLight.JunctionId != j.id {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrUnknownJunction)
	}
	return nil, connect.NewError(connect.CodeInvalidArgument, trafficlight.ErrAdaptiveProgram)
}

// SetTrafficLightPhase RPC接口：设置当前相位与剩余时间
// 说明：剩余时间为0时使用相位的配置时长；全停或救护车优先期间该请求被忽略
func (j *Junction) SetTrafficLightPhase(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightPhaseRequest],
) (*connect.Response[mapv2.SetTrafficLightPhaseResponse], error) {
	req := in.Msg
	if req.JunctionId != j.id {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrUnknownJunction)
	}
	if req.TimeRemaining < 0 {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrInvalidTime)
	}
	p, err := trafficlight.PhaseByIndex(req.PhaseIndex)
	if err != nil {
		return nil, connect.NewError(connect.CodeInvalidArgument, err)
	}
	remaining := req.TimeRemaining
	j.ctx.Submit(func() { j.SetPhase(p, remaining) })
	return connect.NewResponse(&mapv2.SetTrafficLightPhaseResponse{}), nil
}

// SetTrafficLightStatus RPC接口：ok=false进入全停，ok=true解除全停
func (j *Junction) SetTrafficLightStatus(
	ctx context.Context, in *connect.Request[mapv2.SetTrafficLightStatusRequest],
) (*connect.Response[mapv2.SetTrafficLightStatusResponse], error) {
	req := in.Msg
	if req.JunctionId != j.id {
		return nil, connect.NewError(connect.CodeInvalidArgument, ErrUnknownJunction)
	}
	halt := !req.Ok
	j.ctx.Submit(func() { j.SetHalt(halt) })
	return connect.NewResponse(&mapv2.SetTrafficLightStatusResponse{}), nil
}
