/*
 * @module service/models/marts
 * @description 按(周期, 区域)聚合的数据集市表，日粒度与月粒度
 * @architecture 数据访问层 - 集市区
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 由聚合服务以整段替换方式重建，(周期, 区域)唯一
 * @rules 事实表为唯一数据来源，重复聚合产生相同结果
 * @dependencies gorm.io/gorm
 * @refs service/warehouse
 */

package models

import "time"

// MartDailyArea 日粒度区域集市
type MartDailyArea struct {
	ID       int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	DateKey  int    `json:"date_key" gorm:"not null;uniqueIndex:uq_mart_daily_date_area" example:"20240315"`
	AreaCode string `json:"area_code" gorm:"size:10;not null;uniqueIndex:uq_mart_daily_date_area" example:"DK1"`

	AvgCO2EmissionGPerKWh float64 `json:"avg_co2_emission_g_kwh" gorm:"not null"`
	MinCO2EmissionGPerKWh float64 `json:"min_co2_emission_g_kwh" gorm:"not null"`
	MaxCO2EmissionGPerKWh float64 `json:"max_co2_emission_g_kwh" gorm:"not null"`

	TotalProductionMWh  float64 `json:"total_production_mwh" gorm:"not null"`
	TotalRenewableMWh   float64 `json:"total_renewable_mwh" gorm:"not null"`
	TotalWindMWh        float64 `json:"total_wind_mwh" gorm:"not null"`
	TotalSolarMWh       float64 `json:"total_solar_mwh" gorm:"not null"`
	AvgRenewablePct     float64 `json:"avg_renewable_pct" gorm:"not null"`
	TotalConsumptionMWh float64 `json:"total_consumption_mwh" gorm:"not null"`

	AvgSpotPriceEUR    float64 `json:"avg_spot_price_eur" gorm:"not null"`
	MinSpotPriceEUR    float64 `json:"min_spot_price_eur" gorm:"not null"`
	MaxSpotPriceEUR    float64 `json:"max_spot_price_eur" gorm:"not null"`
	PriceStddevEUR     float64 `json:"price_stddev_eur" gorm:"not null"`
	PriceSpikeHours    int     `json:"price_spike_hours" gorm:"not null"`
	NegativePriceHours int     `json:"negative_price_hours" gorm:"not null"`
	PeakHourCount      int     `json:"peak_hour_count" gorm:"not null"`
	IsWeekend          bool    `json:"is_weekend" gorm:"not null"`

	ComputedAt time.Time `json:"computed_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (MartDailyArea) TableName() string {
	return "mart_daily_area"
}

// MartMonthlyArea 月粒度区域集市
type MartMonthlyArea struct {
	ID        int64  `json:"id" gorm:"primaryKey;autoIncrement"`
	YearMonth string `json:"year_month" gorm:"size:7;not null;uniqueIndex:uq_mart_monthly_ym_area" example:"2024-03"`
	AreaCode  string `json:"area_code" gorm:"size:10;not null;uniqueIndex:uq_mart_monthly_ym_area" example:"DK1"`

	AvgCO2EmissionGPerKWh float64 `json:"avg_co2_emission_g_kwh" gorm:"not null"`
	MinCO2EmissionGPerKWh float64 `json:"min_co2_emission_g_kwh" gorm:"not null"`
	MaxCO2EmissionGPerKWh float64 `json:"max_co2_emission_g_kwh" gorm:"not null"`

	TotalProductionMWh  float64 `json:"total_production_mwh" gorm:"not null"`
	TotalRenewableMWh   float64 `json:"total_renewable_mwh" gorm:"not null"`
	TotalWindMWh        float64 `json:"total_wind_mwh" gorm:"not null"`
	TotalSolarMWh       float64 `json:"total_solar_mwh" gorm:"not null"`
	AvgRenewablePct     float64 `json:"avg_renewable_pct" gorm:"not null"`
	TotalConsumptionMWh float64 `json:"total_consumption_mwh" gorm:"not null"`

	AvgSpotPriceEUR    float64 `json:"avg_spot_price_eur" gorm:"not null"`
	MinSpotPriceEUR    float64 `json:"min_spot_price_eur" gorm:"not null"`
	MaxSpotPriceEUR    float64 `json:"max_spot_price_eur" gorm:"not null"`
	PriceStddevEUR     float64 `json:"price_stddev_eur" gorm:"not null"`
	PriceSpikeHours    int     `json:"price_spike_hours" gorm:"not null"`
	NegativePriceHours int     `json:"negative_price_hours" gorm:"not null"`
	PeakHourCount      int     `json:"peak_hour_count" gorm:"not null"`
	WeekendDays        int     `json:"weekend_days" gorm:"not null;default:0"`

	ComputedAt time.Time `json:"computed_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (MartMonthlyArea) TableName() string {
	return "mart_monthly_area"
}
