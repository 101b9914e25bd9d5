package output

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/entity"
	"github.com/tsinghua-fib-lab/agentsociety-signal-oss/utils/config"
	"go.mongodb.org/mongo-driver/bson"
)

func TestDisabledOutput(t *testing.T) {
	o := New("job0", config.OutputPath{})
	assert.False(t, o.Enabled())
	assert.NotEqual(t, uuid.Nil, o.RunID())
	for range 2 * batchSize {
		o.Write(entity.AnalyticsSnapshot{}, entity.Totals{})
	}
	assert.Empty(t, o.buffer)
	o.Close()
}

func TestToDoc(t *testing.T) {
	id := uuid.MustParse("6f1c2f4e-8a1d-4b55-9d3e-2a7b4c5d6e7f")
	s := entity.AnalyticsSnapshot{
		Throughput:      7,
		AvgSpeed:        3.5,
		AvgWait:         2,
		CO2Emissions:    980,
		PollutionIndex:  4.98,
		EfficiencyScore: 90,
		Timestamp:       65,
		Label:           "00:01:05",
	}
	doc := toDoc(id, "job0", s, entity.Totals{Crossed: 12, CO2: 1500, DisplayedCO2: 1400})
	assert.Equal(t, "6f1c2f4e-8a1d-4b55-9d3e-2a7b4c5d6e7f", doc["run"])
	assert.Equal(t, "job0", doc["job"])
	assert.Equal(t, 65., doc["t"])
	assert.Equal(t, "00:01:05", doc["label"])
	assert.Equal(t, 7, doc["throughput"])
	assert.Equal(t, 980., doc["co2"])
	assert.Equal(t, bson.M{"crossed": 12, "co2": 1500.}, doc["total"])

	// 文档可以被编码
	_, err := bson.Marshal(doc)
	assert.NoError(t, err)
}
