/*
 * @module testutil/test_helper
 * @description 测试工具和辅助函数
 * @architecture 测试基础设施 - 提供测试通用工具和数据工厂
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 测试环境初始化 -> 测试数据创建 -> 测试执行 -> 清理资源
 * @rules 提供可重用的测试工具，确保测试环境的一致性
 * @dependencies gorm, sqlite, testify, time
 * @refs service/models
 */

package testutil

import (
	"bytes"
	"encoding/json"
	"energyhub-service/service/models"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// TestDB 测试数据库配置
type TestDB struct {
	DB *gorm.DB
}

// NewTestDB 创建测试数据库
func NewTestDB() *TestDB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		panic(fmt.Sprintf("failed to connect test database: %v", err))
	}

	// 自动迁移所有模型
	err = db.AutoMigrate(
		&models.RawCO2Emission{},
		&models.RawEnergyProduction{},
		&models.RawElectricityPrice{},
		&models.DimDate{},
		&models.DimTime{},
		&models.DimPriceArea{},
		&models.FactCO2Emission{},
		&models.FactEnergyProduction{},
		&models.FactElectricityPrice{},
		&models.MartDailyArea{},
		&models.MartMonthlyArea{},
		&models.EtlRun{},
		&models.ApiKey{},
	)
	if err != nil {
		panic(fmt.Sprintf("failed to migrate test database: %v", err))
	}

	return &TestDB{DB: db}
}

// CleanDB 清理数据库
func (tdb *TestDB) CleanDB() {
	// 清空所有表的数据
	tables := []string{
		"raw_co2_emissions",
		"raw_energy_production",
		"raw_electricity_prices",
		"dim_date",
		"dim_time",
		"dim_price_area",
		"fact_co2_emissions",
		"fact_energy_production",
		"fact_electricity_prices",
		"mart_daily_area",
		"mart_monthly_area",
		"etl_runs",
		"api_keys",
	}

	for _, table := range tables {
		tdb.DB.Exec(fmt.Sprintf("DELETE FROM %s", table))
	}
}

// Close 关闭数据库连接
func (tdb *TestDB) Close() {
	if db, err := tdb.DB.DB(); err == nil {
		db.Close()
	}
}

// TestDataFactory 测试数据工厂
type TestDataFactory struct {
	DB *gorm.DB
}

// NewTestDataFactory 创建测试数据工厂
func NewTestDataFactory(db *gorm.DB) *TestDataFactory {
	return &TestDataFactory{DB: db}
}

// RawCO2Option CO2原始记录选项函数类型
type RawCO2Option func(*models.RawCO2Emission)

// CreateRawCO2 创建CO2排放原始记录
func (f *TestDataFactory) CreateRawCO2(ts time.Time, area, emission string, opts ...RawCO2Option) *models.RawCO2Emission {
	row := &models.RawCO2Emission{
		TimestampUTC: ts,
		TimestampDK:  ts.Add(time.Hour),
		PriceArea:    area,
		CO2Emission:  emission,
		SourceFile:   "test:fixture",
		IngestedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(row)
	}

	if err := f.DB.Create(row).Error; err != nil {
		panic(fmt.Sprintf("failed to create raw co2 row: %v", err))
	}
	return row
}

// RawProductionOption 发电原始记录选项函数类型
type RawProductionOption func(*models.RawEnergyProduction)

// CreateRawProduction 创建发电与消费结算原始记录
func (f *TestDataFactory) CreateRawProduction(ts time.Time, area string, opts ...RawProductionOption) *models.RawEnergyProduction {
	row := &models.RawEnergyProduction{
		TimestampUTC: ts,
		TimestampDK:  ts.Add(time.Hour),
		PriceArea:    area,
		SourceFile:   "test:fixture",
		IngestedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(row)
	}

	if err := f.DB.Create(row).Error; err != nil {
		panic(fmt.Sprintf("failed to create raw production row: %v", err))
	}
	return row
}

// RawPriceOption 电价原始记录选项函数类型
type RawPriceOption func(*models.RawElectricityPrice)

// CreateRawPrice 创建现货电价原始记录
func (f *TestDataFactory) CreateRawPrice(ts time.Time, area, priceEur string, opts ...RawPriceOption) *models.RawElectricityPrice {
	row := &models.RawElectricityPrice{
		TimestampUTC: ts,
		TimestampDK:  ts.Add(time.Hour),
		PriceArea:    area,
		SpotPriceEUR: priceEur,
		SpotPriceDKK: priceEur,
		SourceFile:   "test:fixture",
		IngestedAt:   time.Now(),
	}

	for _, opt := range opts {
		opt(row)
	}

	if err := f.DB.Create(row).Error; err != nil {
		panic(fmt.Sprintf("failed to create raw price row: %v", err))
	}
	return row
}

// EtlRunOption 流水线运行选项函数类型
type EtlRunOption func(*models.EtlRun)

// CreateEtlRun 创建流水线运行记录
func (f *TestDataFactory) CreateEtlRun(opts ...EtlRunOption) *models.EtlRun {
	run := &models.EtlRun{
		Trigger:   "manual",
		Status:    models.EtlRunStatusSuccess,
		Stage:     "quality_check",
		StartedAt: time.Now().Add(-time.Minute),
	}

	for _, opt := range opts {
		opt(run)
	}

	if err := f.DB.Create(run).Error; err != nil {
		panic(fmt.Sprintf("failed to create etl run: %v", err))
	}
	return run
}

// HTTPTestHelper HTTP测试辅助工具
type HTTPTestHelper struct{}

// NewHTTPTestHelper 创建HTTP测试辅助工具
func NewHTTPTestHelper() *HTTPTestHelper {
	return &HTTPTestHelper{}
}

// CreateJSONRequest 创建JSON请求
func (h *HTTPTestHelper) CreateJSONRequest(method, url string, body interface{}) (*http.Request, error) {
	var reqBody io.Reader

	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, url, reqBody)
	if err != nil {
		return nil, err
	}

	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return req, nil
}

// AssertJSONResponse 断言JSON响应
func (h *HTTPTestHelper) AssertJSONResponse(t *testing.T, w *httptest.ResponseRecorder, expectedStatus int, expectedBody interface{}) {
	assert.Equal(t, expectedStatus, w.Code)

	if expectedBody != nil {
		var actualBody interface{}
		err := json.Unmarshal(w.Body.Bytes(), &actualBody)
		assert.NoError(t, err)

		expectedJSON, _ := json.Marshal(expectedBody)
		actualJSON, _ := json.Marshal(actualBody)

		assert.JSONEq(t, string(expectedJSON), string(actualJSON))
	}
}
