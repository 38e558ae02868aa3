/*
 * @module service/dashboard/dashboard_service_test
 * @description 仪表盘查询服务单元测试
 * @architecture 测试层 - 内存SQLite数据库测试
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 直接写入维度与事实 -> 查询分析接口 -> 验证分组聚合结果
 * @rules 覆盖三表交集、丹麦区域过滤、峰谷拆分与空窗口行为
 * @dependencies testing, testify, testutil
 * @refs dashboard_service.go
 */

package dashboard

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyhub-service/service/dimension"
	"energyhub-service/service/models"
	"energyhub-service/testutil"
)

// dashboardFixture 昨日一天的维度与区域基线
type dashboardFixture struct {
	tdb       *testutil.TestDB
	svc       *DashboardService
	dateKey   int
	dateLabel string
	dk1Key    int
	deKey     int
}

func setupDashboard(t *testing.T) *dashboardFixture {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	now := time.Now().UTC()
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
	fx := &dashboardFixture{
		tdb:       tdb,
		svc:       NewDashboardService(tdb.DB),
		dateKey:   dimension.DateKeyFor(day),
		dateLabel: day.Format("2006-01-02"),
		dk1Key:    1,
		deKey:     6,
	}

	require.NoError(t, tdb.DB.Create(&models.DimDate{
		DateKey:   fx.dateKey,
		FullDate:  day,
		Year:      day.Year(),
		Month:     int(day.Month()),
		MonthName: day.Month().String(),
		YearMonth: day.Format("2006-01"),
	}).Error)
	require.NoError(t, tdb.DB.Create(&models.DimPriceArea{
		PriceAreaKey: fx.dk1Key, AreaCode: "DK1", AreaName: "West Denmark",
		Country: "Denmark", IsDanishArea: true, Timezone: "Europe/Copenhagen",
	}).Error)
	require.NoError(t, tdb.DB.Create(&models.DimPriceArea{
		PriceAreaKey: fx.deKey, AreaCode: "DE", AreaName: "Germany",
		Country: "Germany", IsDanishArea: false, Timezone: "Europe/Berlin",
	}).Error)
	return fx
}

func (fx *dashboardFixture) addCO2(t *testing.T, timeKey, areaKey int, value float64, peak bool) {
	require.NoError(t, fx.tdb.DB.Create(&models.FactCO2Emission{
		TimestampUTC: time.Now().UTC().Add(-time.Duration(timeKey) * time.Second),
		DateKey:      fx.dateKey, TimeKey: timeKey, PriceAreaKey: areaKey,
		CO2EmissionGPerKWh: value, EmissionLevel: "Medium", IsPeakHour: peak,
	}).Error)
}

func (fx *dashboardFixture) addProduction(t *testing.T, timeKey, areaKey int, f models.FactEnergyProduction) {
	f.TimestampUTC = time.Now().UTC().Add(-time.Duration(timeKey) * time.Second)
	f.DateKey = fx.dateKey
	f.TimeKey = timeKey
	f.PriceAreaKey = areaKey
	if f.RenewableCategory == "" {
		f.RenewableCategory = "Medium Renewable"
	}
	require.NoError(t, fx.tdb.DB.Create(&f).Error)
}

func (fx *dashboardFixture) addPrice(t *testing.T, timeKey, areaKey int, f models.FactElectricityPrice) {
	f.TimestampUTC = time.Now().UTC().Add(-time.Duration(timeKey) * time.Second)
	f.DateKey = fx.dateKey
	f.TimeKey = timeKey
	f.PriceAreaKey = areaKey
	if f.PriceCategory == "" {
		f.PriceCategory = "Medium"
	}
	require.NoError(t, fx.tdb.DB.Create(&f).Error)
}

func TestKpiSummary(t *testing.T) {
	fx := setupDashboard(t)

	// 两个完整的三表交集槽位
	fx.addCO2(t, 1000, fx.dk1Key, 100, false)
	fx.addProduction(t, 1000, fx.dk1Key, models.FactEnergyProduction{
		RenewablePercentage: 40, TotalProductionMWh: 500, GrossConsumptionMWh: 400,
	})
	fx.addPrice(t, 1000, fx.dk1Key, models.FactElectricityPrice{SpotPriceEUR: 50})

	fx.addCO2(t, 1005, fx.dk1Key, 200, false)
	fx.addProduction(t, 1005, fx.dk1Key, models.FactEnergyProduction{
		RenewablePercentage: 60, TotalProductionMWh: 300, GrossConsumptionMWh: 200,
	})
	fx.addPrice(t, 1005, fx.dk1Key, models.FactElectricityPrice{SpotPriceEUR: 70})

	// 没有发电与电价配对的排放记录不进入汇总
	fx.addCO2(t, 1010, fx.dk1Key, 999, false)

	summary, err := fx.svc.GetKpiSummary(30)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.TotalDays)
	assert.InDelta(t, 150, summary.AvgCO2Intensity, 0.001)
	assert.InDelta(t, 50, summary.AvgRenewablePercentage, 0.001)
	assert.InDelta(t, 60, summary.AvgElectricityPrice, 0.001)
	assert.InDelta(t, 800, summary.TotalEnergyProduction, 0.001)
	assert.InDelta(t, 600, summary.TotalEnergyConsumption, 0.001)
}

func TestKpiSummaryEmptyWindow(t *testing.T) {
	fx := setupDashboard(t)

	summary, err := fx.svc.GetKpiSummary(30)
	require.NoError(t, err)
	assert.Equal(t, 0, summary.TotalDays)
	assert.Zero(t, summary.AvgCO2Intensity)
	assert.Zero(t, summary.TotalEnergyProduction)
}

func TestRenewableTrends(t *testing.T) {
	fx := setupDashboard(t)

	fx.addProduction(t, 1000, fx.dk1Key, models.FactEnergyProduction{
		RenewablePercentage: 40, WindPercentage: 30, SolarPercentage: 5,
		TotalRenewableMWh: 100, TotalProductionMWh: 400,
	})
	fx.addProduction(t, 1100, fx.dk1Key, models.FactEnergyProduction{
		RenewablePercentage: 60, WindPercentage: 50, SolarPercentage: 15,
		TotalRenewableMWh: 200, TotalProductionMWh: 600,
	})
	// 非丹麦区域不入趋势
	fx.addProduction(t, 1000, fx.deKey, models.FactEnergyProduction{
		RenewablePercentage: 90, TotalRenewableMWh: 900, TotalProductionMWh: 1000,
	})

	points, err := fx.svc.GetRenewableTrends(30)
	require.NoError(t, err)
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, fx.dateLabel, p.Date)
	assert.Equal(t, "DK1", p.PriceArea)
	assert.InDelta(t, 50, p.RenewablePercentage, 0.001)
	assert.InDelta(t, 40, p.WindPercentage, 0.001)
	assert.InDelta(t, 10, p.SolarPercentage, 0.001)
	assert.InDelta(t, 300, p.TotalRenewableMWh, 0.001)
	assert.InDelta(t, 1000, p.TotalProductionMWh, 0.001)
}

func TestCO2Analysis(t *testing.T) {
	fx := setupDashboard(t)

	fx.addCO2(t, 1700, fx.dk1Key, 100, true)
	fx.addCO2(t, 1000, fx.dk1Key, 200, false)
	fx.addCO2(t, 1100, fx.dk1Key, 300, false)

	points, err := fx.svc.GetCO2Analysis(30)
	require.NoError(t, err)
	require.Len(t, points, 1)

	p := points[0]
	assert.Equal(t, "DK1", p.PriceArea)
	assert.InDelta(t, 200, p.AvgCO2Intensity, 0.001)
	assert.InDelta(t, 100, p.MinCO2Intensity, 0.001)
	assert.InDelta(t, 300, p.MaxCO2Intensity, 0.001)
	assert.Equal(t, 3, p.DataPoints)
	assert.InDelta(t, 100, p.PeakCO2Intensity, 0.001)
	assert.InDelta(t, 250, p.OffpeakCO2Intensity, 0.001)
}

func TestPriceAnalysis(t *testing.T) {
	fx := setupDashboard(t)

	fx.addPrice(t, 1000, fx.dk1Key, models.FactElectricityPrice{
		SpotPriceEUR: -20, IsNegativePrice: true, PriceCategory: "Negative",
	})
	fx.addPrice(t, 1100, fx.dk1Key, models.FactElectricityPrice{SpotPriceEUR: 50})
	fx.addPrice(t, 1700, fx.dk1Key, models.FactElectricityPrice{
		SpotPriceEUR: 120, IsPriceSpike: true, IsPeakHour: true, PriceCategory: "Very High",
	})

	points, err := fx.svc.GetPriceAnalysis(30)
	require.NoError(t, err)
	require.Len(t, points, 1)

	p := points[0]
	assert.InDelta(t, 50, p.AvgPriceEUR, 0.001)
	assert.InDelta(t, -20, p.MinPriceEUR, 0.001)
	assert.InDelta(t, 120, p.MaxPriceEUR, 0.001)
	// 样本标准差: 偏差-70/0/70
	assert.InDelta(t, 70, p.PriceVolatility, 0.001)
	assert.Equal(t, 1, p.NegativePriceHours)
	assert.Equal(t, 1, p.PriceSpikeHours)
	assert.InDelta(t, 120, p.PeakPriceEUR, 0.001)
	assert.InDelta(t, 15, p.OffpeakPriceEUR, 0.001)
}

func TestHourlyPatterns(t *testing.T) {
	fx := setupDashboard(t)

	addTriple := func(timeKey int, co2, renew, price, prod, cons float64) {
		fx.addCO2(t, timeKey, fx.dk1Key, co2, false)
		fx.addProduction(t, timeKey, fx.dk1Key, models.FactEnergyProduction{
			RenewablePercentage: renew, TotalProductionMWh: prod, GrossConsumptionMWh: cons,
		})
		fx.addPrice(t, timeKey, fx.dk1Key, models.FactElectricityPrice{SpotPriceEUR: price})
	}
	addTriple(1005, 100, 40, 50, 100, 150)
	addTriple(1010, 200, 60, 70, 200, 250)
	addTriple(1700, 300, 80, 90, 300, 350)

	points, err := fx.svc.GetHourlyPatterns(time.Time{}, time.Time{})
	require.NoError(t, err)
	require.Len(t, points, 2)

	assert.Equal(t, 10, points[0].Hour)
	assert.Equal(t, "DK1", points[0].PriceArea)
	assert.Equal(t, 2, points[0].DataPoints)
	assert.InDelta(t, 150, points[0].AvgCO2Intensity, 0.001)
	assert.InDelta(t, 50, points[0].AvgRenewablePercentage, 0.001)
	assert.InDelta(t, 60, points[0].AvgPriceEUR, 0.001)
	assert.InDelta(t, 300, points[0].TotalProductionMWh, 0.001)
	assert.InDelta(t, 400, points[0].TotalConsumptionMWh, 0.001)

	assert.Equal(t, 17, points[1].Hour)
	assert.Equal(t, 1, points[1].DataPoints)
}

func TestEnergyMix(t *testing.T) {
	fx := setupDashboard(t)

	fx.addProduction(t, 1000, fx.dk1Key, models.FactEnergyProduction{
		OffshoreWindMWh: 10, OnshoreWindMWh: 5, SolarPowerMWh: 3, HydroPowerMWh: 1,
		CentralPowerMWh: 50, LocalPowerMWh: 10, CommercialPowerMWh: 5,
		TotalProductionMWh: 84,
	})
	fx.addProduction(t, 1100, fx.dk1Key, models.FactEnergyProduction{
		OffshoreWindMWh: 20, OnshoreWindMWh: 15, SolarPowerMWh: 7, HydroPowerMWh: 1,
		CentralPowerMWh: 50, LocalPowerMWh: 10, CommercialPowerMWh: 5,
		TotalProductionMWh: 108,
	})

	points, err := fx.svc.GetEnergyMix(30)
	require.NoError(t, err)
	require.Len(t, points, 1)

	p := points[0]
	assert.InDelta(t, 30, p.OffshoreWindMWh, 0.001)
	assert.InDelta(t, 20, p.OnshoreWindMWh, 0.001)
	assert.InDelta(t, 10, p.SolarMWh, 0.001)
	assert.InDelta(t, 2, p.HydroMWh, 0.001)
	assert.InDelta(t, 130, p.ConventionalMWh, 0.001)
	assert.InDelta(t, 192, p.TotalProductionMWh, 0.001)
}
