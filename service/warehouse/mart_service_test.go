/*
 * @module service/warehouse/mart_service_test
 * @description 集市聚合服务单元测试
 * @architecture 测试层 - 使用内存SQLite隔离数据库
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 原始数据写入 -> 事实转换 -> 集市聚合 -> 度量验证
 * @rules 验证日粒度与月粒度聚合、样本标准差、异常小时计数与整段替换幂等
 * @dependencies testing, testify, energyhub-service/testutil
 * @refs mart_service.go
 */

package warehouse

import (
	"math"
	"testing"
	"time"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedMartFacts(t *testing.T, svc *TransformService, factory *testutil.TestDataFactory) {
	t.Helper()

	day := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawCO2(day, "DK1", "100")
	factory.CreateRawCO2(day.Add(5*time.Minute), "DK1", "200")

	factory.CreateRawProduction(day, "DK1", func(r *models.RawEnergyProduction) {
		r.CentralPowerMWh = "100"
		r.OnshoreWindGe50kWMWh = "100"
		r.GrossConsumptionMWh = "150"
	})
	factory.CreateRawProduction(day.Add(time.Hour), "DK1", func(r *models.RawEnergyProduction) {
		r.CentralPowerMWh = "300"
		r.SolarPowerGe40kWMWh = "100"
		r.GrossConsumptionMWh = "350"
	})

	factory.CreateRawPrice(day, "DK1", "40")
	factory.CreateRawPrice(day.Add(time.Hour), "DK1", "100")
	factory.CreateRawPrice(day.Add(7*time.Hour), "DK1", "-20")

	_, err := svc.TransformEmissions()
	require.NoError(t, err)
	_, err = svc.TransformProduction()
	require.NoError(t, err)
	_, err = svc.TransformPrices()
	require.NoError(t, err)
}

func TestAggregateDaily(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)
	seedMartFacts(t, svc, factory)

	marts := NewMartService(tdb.DB)
	result, err := marts.AggregateDaily()
	require.NoError(t, err)
	assert.Equal(t, meta.GranularityDay, result.Granularity)
	assert.EqualValues(t, 1, result.RowsWritten)

	var row models.MartDailyArea
	require.NoError(t, tdb.DB.First(&row, "date_key = ? AND area_code = ?", 20240315, "DK1").Error)

	assert.InDelta(t, 150, row.AvgCO2EmissionGPerKWh, 1e-9)
	assert.InDelta(t, 100, row.MinCO2EmissionGPerKWh, 1e-9)
	assert.InDelta(t, 200, row.MaxCO2EmissionGPerKWh, 1e-9)

	assert.InDelta(t, 600, row.TotalProductionMWh, 1e-9)
	assert.InDelta(t, 200, row.TotalRenewableMWh, 1e-9)
	assert.InDelta(t, 100, row.TotalWindMWh, 1e-9)
	assert.InDelta(t, 100, row.TotalSolarMWh, 1e-9)
	// 两小时的占比 50% 与 25% 取均值
	assert.InDelta(t, 37.5, row.AvgRenewablePct, 1e-9)
	assert.InDelta(t, 500, row.TotalConsumptionMWh, 1e-9)

	assert.InDelta(t, 40, row.AvgSpotPriceEUR, 1e-9)
	assert.InDelta(t, -20, row.MinSpotPriceEUR, 1e-9)
	assert.InDelta(t, 100, row.MaxSpotPriceEUR, 1e-9)
	// 样本标准差 sqrt(((0)^2+(60)^2+(-60)^2)/2) = 60
	assert.InDelta(t, 60, row.PriceStddevEUR, 1e-9)

	assert.Equal(t, 2, row.PriceSpikeHours, "40->100与100->-20都是尖峰")
	assert.Equal(t, 1, row.NegativePriceHours)
	assert.Equal(t, 1, row.PeakHourCount, "17点落在高峰窗口")
	assert.False(t, row.IsWeekend)
}

func TestAggregateDailyIdempotent(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)
	seedMartFacts(t, svc, factory)

	marts := NewMartService(tdb.DB)
	_, err := marts.AggregateDaily()
	require.NoError(t, err)
	_, err = marts.AggregateDaily()
	require.NoError(t, err)

	var count int64
	tdb.DB.Model(&models.MartDailyArea{}).Count(&count)
	assert.EqualValues(t, 1, count, "整段替换后不产生重复行")
}

func TestAggregateMonthly(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)
	seedMartFacts(t, svc, factory)

	// 同月另一天的数据并入同一月行，周六一天计入周末天数
	other := time.Date(2024, 3, 20, 12, 0, 0, 0, time.UTC)
	factory.CreateRawCO2(other, "DK1", "300")
	saturday := time.Date(2024, 3, 16, 12, 0, 0, 0, time.UTC)
	factory.CreateRawCO2(saturday, "DK1", "200")
	_, err := svc.TransformEmissions()
	require.NoError(t, err)

	marts := NewMartService(tdb.DB)
	result, err := marts.Aggregate(meta.GranularityMonth)
	require.NoError(t, err)
	assert.Equal(t, meta.GranularityMonth, result.Granularity)
	assert.EqualValues(t, 1, result.RowsWritten)

	var row models.MartMonthlyArea
	require.NoError(t, tdb.DB.First(&row, "year_month = ? AND area_code = ?", "2024-03", "DK1").Error)
	assert.InDelta(t, 200, row.AvgCO2EmissionGPerKWh, 1e-9, "(100+200+300+200)/4")
	assert.InDelta(t, 300, row.MaxCO2EmissionGPerKWh, 1e-9)
	assert.Equal(t, 1, row.WeekendDays, "3月15/16/20三天中仅16日为周末")
}

func TestAggregateInvalidGranularity(t *testing.T) {
	tdb, _, _ := setupWarehouse(t)

	marts := NewMartService(tdb.DB)
	_, err := marts.Aggregate("week")
	assert.Error(t, err)
}

func TestSampleStddev(t *testing.T) {
	assert.Zero(t, sampleStddev(nil, 0))
	assert.Zero(t, sampleStddev([]float64{42}, 42), "单样本标准差为0")

	values := []float64{2, 4, 4, 4, 5, 5, 7, 9}
	mean := 5.0
	assert.InDelta(t, math.Sqrt(32.0/7.0), sampleStddev(values, mean), 1e-9)
}
