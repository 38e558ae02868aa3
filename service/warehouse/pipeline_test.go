/*
 * @module service/warehouse/pipeline_test
 * @description ETL流水线端到端测试
 * @architecture 测试层 - 使用内存SQLite隔离数据库
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 原始数据写入 -> 流水线运行 -> 各层行数与审计记录验证
 * @rules 验证全链路阶段衔接、运行审计落库与重复运行幂等
 * @dependencies testing, testify, energyhub-service/testutil
 * @refs pipeline.go
 */

package warehouse

import (
	"context"
	"testing"
	"time"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedPipelineRaws(factory *testutil.TestDataFactory) {
	day := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawCO2(day, "DK1", "120")
	factory.CreateRawCO2(day.Add(5*time.Minute), "DK1", "2000") // 越界剔除
	factory.CreateRawProduction(day, "DK1", func(r *models.RawEnergyProduction) {
		r.CentralPowerMWh = "100"
		r.OnshoreWindGe50kWMWh = "100"
		r.GrossConsumptionMWh = "180"
	})
	factory.CreateRawPrice(day, "DK1", "55")
	factory.CreateRawPrice(day.Add(time.Hour), "DK1", "60")
}

func TestPipelineRun(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	seedPipelineRaws(factory)

	pipeline := NewPipelineService(tdb.DB, nil)
	result, err := pipeline.Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	run := result.Run
	assert.Equal(t, models.EtlRunStatusSuccess, run.Status)
	assert.Equal(t, TriggerManual, run.Trigger)
	assert.NotEmpty(t, run.ID)
	assert.NotNil(t, run.FinishedAt)

	assert.EqualValues(t, 1, run.EmissionRowsNew)
	assert.EqualValues(t, 1, run.ProductionRowsNew)
	assert.EqualValues(t, 2, run.PriceRowsNew)
	assert.EqualValues(t, 1, run.RowsExcluded)
	assert.EqualValues(t, 1, run.DailyMartRows)
	assert.EqualValues(t, 1, run.MonthlyMartRows)

	// 日期维覆盖原始层窗口，时间维全量
	var dateCount, timeCount, areaCount int64
	tdb.DB.Model(&models.DimDate{}).Count(&dateCount)
	tdb.DB.Model(&models.DimTime{}).Count(&timeCount)
	tdb.DB.Model(&models.DimPriceArea{}).Count(&areaCount)
	assert.EqualValues(t, 1, dateCount, "原始数据只覆盖一天")
	assert.EqualValues(t, 288, timeCount)
	assert.EqualValues(t, 6, areaCount)

	require.NotNil(t, result.Quality)
	assert.NotEmpty(t, result.Quality.TableCounts)

	// 审计记录落库
	var stored models.EtlRun
	require.NoError(t, tdb.DB.First(&stored, "id = ?", run.ID).Error)
	assert.Equal(t, models.EtlRunStatusSuccess, stored.Status)
	assert.Equal(t, "quality_check", stored.Stage)

	// 各阶段明细随运行记录保存
	require.NotNil(t, stored.StageDetail)
	emissionDetail, ok := stored.StageDetail["transform_emissions"].(map[string]interface{})
	require.True(t, ok, "排放阶段明细缺失")
	assert.EqualValues(t, 1, emissionDetail["rows_new"])
	assert.EqualValues(t, 1, emissionDetail["rows_excluded"])
	assert.Contains(t, stored.StageDetail, "build_dimensions")
	assert.Contains(t, stored.StageDetail, "aggregate_marts")
	assert.Contains(t, stored.StageDetail, "quality_check")
}

func TestPipelineRunIdempotent(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)
	seedPipelineRaws(factory)

	pipeline := NewPipelineService(tdb.DB, nil)
	_, err := pipeline.Run(context.Background(), TriggerManual)
	require.NoError(t, err)

	second, err := pipeline.Run(context.Background(), TriggerScheduled)
	require.NoError(t, err)
	assert.EqualValues(t, 0, second.Run.EmissionRowsNew)
	assert.EqualValues(t, 0, second.Run.PriceRowsNew)

	var factCount int64
	tdb.DB.Model(&models.FactElectricityPrice{}).Count(&factCount)
	assert.EqualValues(t, 2, factCount)

	runs, err := pipeline.ListRuns(0)
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, TriggerScheduled, runs[0].Trigger, "按开始时间倒序")
}

func TestPipelineRunEmptyRawStore(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	pipeline := NewPipelineService(tdb.DB, nil)
	result, err := pipeline.Run(context.Background(), TriggerManual)
	require.NoError(t, err)
	assert.Equal(t, models.EtlRunStatusSuccess, result.Run.Status)
	assert.EqualValues(t, 0, result.Run.DatesBuilt, "空原始层不构建日期维")

	var dateCount int64
	tdb.DB.Model(&models.DimDate{}).Count(&dateCount)
	assert.EqualValues(t, 0, dateCount)
}

func TestPipelineGetRun(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()
	factory := testutil.NewTestDataFactory(tdb.DB)

	run := factory.CreateEtlRun()
	pipeline := NewPipelineService(tdb.DB, nil)

	found, err := pipeline.GetRun(run.ID)
	require.NoError(t, err)
	assert.Equal(t, run.ID, found.ID)

	_, err = pipeline.GetRun("missing-id")
	assert.Error(t, err)
}

func TestPipelineTransformDatasetDispatch(t *testing.T) {
	tdb := testutil.NewTestDB()
	defer tdb.Close()

	pipeline := NewPipelineService(tdb.DB, nil)

	result, err := pipeline.TransformDataset(meta.DatasetCO2Emissions)
	require.NoError(t, err)
	assert.Equal(t, meta.DatasetCO2Emissions, result.Dataset)

	_, err = pipeline.TransformDataset("weather")
	assert.Error(t, err)
}
