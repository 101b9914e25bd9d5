// 分析快照输出到MongoDB，只写不读
package output

import (
	"context"

	"git.fiblab.net/general/common/v2/mongoutil"
	"github.com/google/uuid"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

// 缓存多少条快照后批量写入
const batchSize = 6

// Output 分析快照输出
// 功能：缓存快照并批量写入MongoDB，每条文档带有本次运行的ID与任务名
// 说明：未配置输出时所有方法都是空操作；写入失败只记录日志，不影响仿真
type Output struct {
	job    string
	runID  uuid.UUID
	client *mongo.Client
	coll   *mongo.Collection
	buffer []any
}

// New 创建输出
// 参数：job-任务名，path-输出位置（URI为空时不输出）
func New(job string, path config.OutputPath) *Output {
	o := &Output{
		job:   job,
		runID: uuid.New(),
	}
	if !path.Enabled() {
		return o
	}
	o.client = mongoutil.NewClient(path.URI)
	o.coll = mongoutil.GetMongoColl(o.client, path)
	log.Infof("export analytics to %s.%s (run %v)", path.DB, path.Col, o.runID)
	return o
}

// Enabled 是否启用输出
func (o *Output) Enabled() bool {
	return o.coll != nil
}

// RunID 本次运行的ID
func (o *Output) RunID() uuid.UUID {
	return o.runID
}

// Write 追加一条快照，缓存满后写入
func (o *Output) Write(s entity.AnalyticsSnapshot, totals entity.Totals) {
	if !o.Enabled() {
		return
	}
	o.buffer = append(o.buffer, toDoc(o.runID, o.job, s, totals))
	if len(o.buffer) >= batchSize {
		o.flush()
	}
}

func (o *Output) flush() {
	if len(o.buffer) == 0 {
		return
	}
	docs := o.buffer
	o.buffer = nil
	if _, err := o.coll.InsertMany(context.Background(), docs); err != nil {
		log.Errorf("failed to insert %d analytics snapshots: %v", len(docs), err)
	}
}

// Close 写入剩余快照并断开连接
func (o *Output) Close() {
	if !o.Enabled() {
		return
	}
	o.flush()
	if err := o.client.Disconnect(context.Background()); err != nil {
		log.Warnf("mongo disconnect: %v", err)
	}
	o.coll = nil
}

func toDoc(runID uuid.UUID, job string, s entity.AnalyticsSnapshot, totals entity.Totals) bson.M {
	return bson.M{
		"run":        runID.String(),
		"job":        job,
		"t":          s.Timestamp,
		"label":      s.Label,
		"throughput": s.Throughput,
		"avg_speed":  s.AvgSpeed,
		"avg_wait":   s.AvgWait,
		"co2":        s.CO2Emissions,
		"pollution":  s.PollutionIndex,
		"efficiency": s.EfficiencyScore,
		"total": bson.M{
			"crossed": totals.Crossed,
			"co2":     totals.CO2,
		},
	}
}
