/*
 * @module service/warehouse/transform_prices_test
 * @description 现货电价转换单元测试
 * @architecture 测试层 - 使用内存SQLite隔离数据库
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 原始数据写入 -> 转换执行 -> 滞后派生与标记验证
 * @rules 验证区域内价格滞后链、尖峰标记、负价标记与跨轮次滞后种子
 * @dependencies testing, testify, energyhub-service/testutil
 * @refs transform_prices.go
 */

package warehouse

import (
	"testing"
	"time"

	"energyhub-service/service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTransformPricesLagChain(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawPrice(base, "DK1", "30")
	factory.CreateRawPrice(base.Add(time.Hour), "DK1", "90")
	factory.CreateRawPrice(base.Add(2*time.Hour), "DK1", "85")

	result, err := svc.TransformPrices()
	require.NoError(t, err)
	assert.EqualValues(t, 3, result.RowsNew)

	var facts []models.FactElectricityPrice
	require.NoError(t, tdb.DB.Order("timestamp_utc").Find(&facts).Error)
	require.Len(t, facts, 3)

	// 首行没有前值，价差为0
	assert.Zero(t, facts[0].PriceChange)
	assert.Zero(t, facts[0].PriceVolatility)
	assert.False(t, facts[0].IsPriceSpike)
	assert.Equal(t, "Medium", facts[0].PriceCategory)

	// 30 -> 90 的跳变超过尖峰阈值
	assert.InDelta(t, 60, facts[1].PriceChange, 1e-9)
	assert.InDelta(t, 60, facts[1].PriceVolatility, 1e-9)
	assert.True(t, facts[1].IsPriceSpike)
	assert.Equal(t, "High", facts[1].PriceCategory)

	// 90 -> 85 的回落不构成尖峰
	assert.InDelta(t, -5, facts[2].PriceChange, 1e-9)
	assert.InDelta(t, 5, facts[2].PriceVolatility, 1e-9)
	assert.False(t, facts[2].IsPriceSpike)
}

func TestTransformPricesFlags(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)

	base := time.Date(2024, 3, 16, 17, 0, 0, 0, time.UTC)
	factory.CreateRawPrice(base, "DK1", "-10")
	factory.CreateRawPrice(base.Add(time.Hour), "DK1", "250")
	factory.CreateRawPrice(base.Add(2*time.Hour), "DK1", "5")

	_, err := svc.TransformPrices()
	require.NoError(t, err)

	var facts []models.FactElectricityPrice
	require.NoError(t, tdb.DB.Order("timestamp_utc").Find(&facts).Error)
	require.Len(t, facts, 3)

	assert.True(t, facts[0].IsNegativePrice)
	assert.True(t, facts[0].IsVeryLowPrice)
	assert.Equal(t, "Negative", facts[0].PriceCategory)
	assert.True(t, facts[0].IsPeakHour)
	assert.True(t, facts[0].IsWeekend)

	assert.True(t, facts[1].IsExtremeHigh)
	assert.Equal(t, "Very High", facts[1].PriceCategory)
	assert.True(t, facts[1].IsPriceSpike, "-10到250为尖峰")

	assert.True(t, facts[2].IsVeryLowPrice)
	assert.False(t, facts[2].IsNegativePrice)
}

func TestTransformPricesRangeExclusion(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawPrice(base, "DK1", "6000")
	factory.CreateRawPrice(base.Add(time.Hour), "DK1", "-1500")
	factory.CreateRawPrice(base.Add(2*time.Hour), "DK1", "-1000")

	result, err := svc.TransformPrices()
	require.NoError(t, err)
	assert.EqualValues(t, 2, result.RowsExcluded)
	assert.EqualValues(t, 1, result.RowsNew, "下界-1000本身合法")

	var facts []models.FactElectricityPrice
	require.NoError(t, tdb.DB.Find(&facts).Error)
	require.Len(t, facts, 1)
	assert.InDelta(t, -1000, facts[0].SpotPriceEUR, 0.001)
}

func TestTransformPricesLagSeedAcrossRuns(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawPrice(base, "DK1", "30")

	_, err := svc.TransformPrices()
	require.NoError(t, err)

	// 第二轮新增后续小时，首行滞后种子来自已有事实
	factory.CreateRawPrice(base.Add(time.Hour), "DK1", "90")
	second, err := svc.TransformPrices()
	require.NoError(t, err)
	assert.EqualValues(t, 1, second.RowsNew)
	assert.EqualValues(t, 1, second.RowsExisting)

	var fact models.FactElectricityPrice
	require.NoError(t, tdb.DB.Order("timestamp_utc DESC").First(&fact).Error)
	assert.InDelta(t, 60, fact.PriceChange, 1e-9, "滞后链跨轮次延续")
	assert.True(t, fact.IsPriceSpike)
}

func TestTransformPricesPerAreaLag(t *testing.T) {
	tdb, svc, factory := setupWarehouse(t)

	base := time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC)
	factory.CreateRawPrice(base, "DK1", "30")
	factory.CreateRawPrice(base.Add(time.Hour), "DK1", "40")
	factory.CreateRawPrice(base, "DK2", "100")
	factory.CreateRawPrice(base.Add(time.Hour), "DK2", "110")

	_, err := svc.TransformPrices()
	require.NoError(t, err)

	dk2Key := areaKeyFor(t, tdb, "DK2")
	var dk2 []models.FactElectricityPrice
	require.NoError(t, tdb.DB.Where("price_area_key = ?", dk2Key).Order("timestamp_utc").Find(&dk2).Error)
	require.Len(t, dk2, 2)
	assert.Zero(t, dk2[0].PriceChange, "区域之间滞后链互不影响")
	assert.InDelta(t, 10, dk2[1].PriceChange, 1e-9)
}
