/*
 * @module client/energidataservice_client_test
 * @description 能源数据服务HTTP客户端单元测试
 * @architecture 测试层 - httptest模拟开放数据接口
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 启动测试服务器 -> 发起拉取 -> 验证查询参数与响应解析
 * @rules 覆盖正常响应、非200错误与响应体解析失败
 * @dependencies testing, testify, net/http/httptest
 * @refs energidataservice_client.go
 */

package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetchRecords(t *testing.T) {
	var gotPath string
	var gotQuery map[string]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = map[string]string{
			"start": r.URL.Query().Get("start"),
			"end":   r.URL.Query().Get("end"),
			"limit": r.URL.Query().Get("limit"),
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total": 2, "records": [
			{"Minutes5UTC": "2024-03-15T10:00:00", "PriceArea": "DK1", "CO2Emission": 82.5},
			{"Minutes5UTC": "2024-03-15T10:05:00", "PriceArea": "DK1", "CO2Emission": 79.1}
		]}`))
	}))
	defer server.Close()

	c := NewEnergiDataClient(server.URL)
	resp, err := c.FetchRecords(context.Background(), "CO2Emis", FetchOptions{
		Start: time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2024, 3, 16, 0, 0, 0, 0, time.UTC),
		Limit: 100,
	})
	require.NoError(t, err)

	assert.Equal(t, "/CO2Emis", gotPath)
	assert.Equal(t, "2024-03-15T00:00", gotQuery["start"])
	assert.Equal(t, "2024-03-16T00:00", gotQuery["end"])
	assert.Equal(t, "100", gotQuery["limit"])

	assert.Equal(t, int64(2), resp.Total)
	require.Len(t, resp.Records, 2)
	assert.Equal(t, "DK1", resp.Records[0]["PriceArea"])
}

func TestFetchRecordsNoWindow(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.URL.RawQuery)
		w.Write([]byte(`{"total": 0, "records": []}`))
	}))
	defer server.Close()

	c := NewEnergiDataClient(server.URL)
	resp, err := c.FetchRecords(context.Background(), "Elspotprices", FetchOptions{})
	require.NoError(t, err)
	assert.Equal(t, int64(0), resp.Total)
	assert.Empty(t, resp.Records)
}

func TestFetchRecordsServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "dataset unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	c := NewEnergiDataClient(server.URL)
	_, err := c.FetchRecords(context.Background(), "CO2Emis", FetchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "dataset unavailable")
}

func TestFetchRecordsBadJson(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not-json"))
	}))
	defer server.Close()

	c := NewEnergiDataClient(server.URL)
	_, err := c.FetchRecords(context.Background(), "CO2Emis", FetchOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "解析数据集")
}

func TestFetchRecordsContextCanceled(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.Write([]byte(`{"total": 0, "records": []}`))
	}))
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewEnergiDataClient(server.URL)
	_, err := c.FetchRecords(ctx, "CO2Emis", FetchOptions{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
}
