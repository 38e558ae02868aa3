/*
 * @module service/ingestion/extract_service_test
 * @description 抽取服务单元测试
 * @architecture 测试层 - httptest模拟数据接口，内存SQLite数据库
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 模拟接口响应 -> 抽取 -> 验证原始层落库、去重与预处理脚本
 * @rules 覆盖接口抽取、重复跳过、实时消息写入与脚本过滤
 * @dependencies testing, testify, testutil
 * @refs extract_service.go, script_executor.go
 */

package ingestion

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyhub-service/client"
	"energyhub-service/client/connectors"
	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/testutil"
)

func setupExtract(t *testing.T, handler http.HandlerFunc) (*testutil.TestDB, *ExtractService) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)

	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return tdb, NewExtractService(tdb.DB, client.NewEnergiDataClient(server.URL))
}

func TestExtractEmissions(t *testing.T) {
	var gotPath string
	tdb, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Write([]byte(`{"total": 2, "records": [
			{"Minutes5UTC": "2024-03-15T10:00:00", "Minutes5DK": "2024-03-15T11:00:00", "PriceArea": "DK1", "CO2Emission": 82.5},
			{"Minutes5UTC": "2024-03-15T10:05:00", "Minutes5DK": "2024-03-15T11:05:00", "PriceArea": "DK1", "CO2Emission": "79,1"}
		]}`))
	})

	result, err := svc.Extract(context.Background(), meta.DatasetCO2Emissions, ExtractOptions{})
	require.NoError(t, err)

	assert.Equal(t, "/CO2Emis", gotPath)
	assert.Equal(t, int64(2), result.RecordsTotal)
	assert.Equal(t, int64(2), result.RowsNew)
	assert.Equal(t, int64(0), result.RowsSkipped)

	var rows []models.RawCO2Emission
	require.NoError(t, tdb.DB.Order("timestamp_utc").Find(&rows).Error)
	require.Len(t, rows, 2)
	assert.Equal(t, "82.5", rows[0].CO2Emission)
	assert.Equal(t, "79,1", rows[1].CO2Emission)
	assert.Equal(t, "api:CO2Emis", rows[0].SourceFile)
	assert.Equal(t, time.Date(2024, 3, 15, 10, 0, 0, 0, time.UTC), rows[0].TimestampUTC.UTC())
}

func TestExtractUnknownDataset(t *testing.T) {
	_, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "records": []}`))
	})

	_, err := svc.Extract(context.Background(), "weather", ExtractOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "未知数据集")
}

func TestExtractSkipsExistingRows(t *testing.T) {
	tdb, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 2, "records": [
			{"HourUTC": "2024-03-15T10:00:00", "PriceArea": "DK1", "SpotPriceEUR": 45.2},
			{"HourUTC": "2024-03-15T11:00:00", "PriceArea": "DK1", "SpotPriceEUR": 48.0}
		]}`))
	})

	first, err := svc.Extract(context.Background(), meta.DatasetElectricityPrices, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(2), first.RowsNew)

	second, err := svc.Extract(context.Background(), meta.DatasetElectricityPrices, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), second.RowsNew)
	assert.Equal(t, int64(2), second.RowsExisting)

	var count int64
	tdb.DB.Model(&models.RawElectricityPrice{}).Count(&count)
	assert.Equal(t, int64(2), count)
}

func TestExtractBadTimestampSkipped(t *testing.T) {
	_, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 2, "records": [
			{"Minutes5UTC": "garbage", "PriceArea": "DK1", "CO2Emission": 82.5},
			{"Minutes5UTC": "2024-03-15T10:05:00", "PriceArea": "DK1", "CO2Emission": 79.1}
		]}`))
	})

	result, err := svc.Extract(context.Background(), meta.DatasetCO2Emissions, ExtractOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RowsNew)
	assert.Equal(t, int64(1), result.RowsSkipped)
	require.Len(t, result.Warnings, 1)
	assert.Contains(t, result.Warnings[0], "时间戳无法解析")
}

func TestExtractWithPreprocessScript(t *testing.T) {
	tdb, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 2, "records": [
			{"Minutes5UTC": "2024-03-15T10:00:00", "PriceArea": "DK1", "CO2Emission": 82.5},
			{"Minutes5UTC": "2024-03-15T10:00:00", "PriceArea": "DE", "CO2Emission": 400.0}
		]}`))
	})

	// 脚本只保留DK1区域的记录
	script := `
	out := []map[string]interface{}{}
	for _, item := range records.([]map[string]interface{}) {
		if item["PriceArea"] == "DK1" {
			out = append(out, item)
		}
	}
	_ = dataset
	_ = priceAreas
	_ = windowStart
	_ = windowEnd
	return out, nil`

	result, err := svc.Extract(context.Background(), meta.DatasetCO2Emissions, ExtractOptions{Script: script})
	require.NoError(t, err)
	assert.Equal(t, int64(1), result.RecordsTotal)
	assert.Equal(t, int64(1), result.RowsNew)

	var rows []models.RawCO2Emission
	require.NoError(t, tdb.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "DK1", rows[0].PriceArea)
}

func TestExtractPreprocessScriptCompileError(t *testing.T) {
	_, svc := setupExtract(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"total": 0, "records": []}`))
	})

	_, err := svc.Extract(context.Background(), meta.DatasetCO2Emissions, ExtractOptions{
		Script: "this is not go",
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "预处理脚本执行失败")
}

func TestStoreRealtimeEmission(t *testing.T) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	svc := NewExtractService(tdb.DB, nil)

	msg := &connectors.RealtimeEmission{
		Minutes5UTC: "2024-03-15T10:00:00",
		Minutes5DK:  "2024-03-15T11:00:00",
		PriceArea:   "DK2",
		CO2Emission: "95.4",
	}
	require.NoError(t, svc.StoreRealtimeEmission(msg))

	// 同(时间戳, 区域)重复消息不再落库
	require.NoError(t, svc.StoreRealtimeEmission(msg))

	var rows []models.RawCO2Emission
	require.NoError(t, tdb.DB.Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "mqtt:realtime", rows[0].SourceFile)
	assert.Equal(t, "95.4", rows[0].CO2Emission)

	err := svc.StoreRealtimeEmission(&connectors.RealtimeEmission{Minutes5UTC: "garbage", PriceArea: "DK1"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "时间戳无法解析")
}
