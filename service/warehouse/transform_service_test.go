/*
 * @module service/warehouse/transform_service_test
 * @description 事实转换测试的共享夹具
 * @architecture 测试层 - 使用内存SQLite隔离数据库
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 测试数据库初始化 -> 维度构建 -> 原始数据工厂
 * @rules 各转换测试复用同一套维度窗口，避免夹具漂移
 * @dependencies testing, testify, energyhub-service/testutil
 * @refs transform_service.go
 */

package warehouse

import (
	"testing"
	"time"

	"energyhub-service/service/dimension"
	"energyhub-service/service/models"
	"energyhub-service/testutil"

	"github.com/stretchr/testify/require"
)

// setupWarehouse 准备内存库并构建2024年3月的维度窗口
func setupWarehouse(t *testing.T) (*testutil.TestDB, *TransformService, *testutil.TestDataFactory) {
	t.Helper()
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	dims := dimension.NewDimensionService(tdb.DB)
	_, err := dims.BuildDateDimension(
		time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC))
	require.NoError(t, err)
	_, err = dims.BuildTimeDimension()
	require.NoError(t, err)
	_, err = dims.BuildPriceAreaDimension()
	require.NoError(t, err)

	return tdb, NewTransformService(tdb.DB), testutil.NewTestDataFactory(tdb.DB)
}

// areaKeyFor 查询区域代码对应的维度代理键
func areaKeyFor(t *testing.T, tdb *testutil.TestDB, code string) int {
	t.Helper()
	var area models.DimPriceArea
	require.NoError(t, tdb.DB.First(&area, "area_code = ?", code).Error)
	return area.PriceAreaKey
}
