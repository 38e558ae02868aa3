/*
 * @module service/models/facts
 * @description 星型模型事实表，携带维度键、度量与派生分析列
 * @architecture 数据访问层 - 事实区
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 由转换服务批量写入，(timestamp_utc, price_area_key)唯一，重复转换跳过已有行
 * @rules 维度键缺失的行在转换边界丢弃，越界度量在进入事实表前剔除
 * @dependencies gorm.io/gorm
 * @refs service/warehouse
 */

package models

import "time"

// FactCO2Emission CO2排放强度事实，5分钟粒度
type FactCO2Emission struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;uniqueIndex:uq_fact_co2_ts_area"`
	DateKey      int       `json:"date_key" gorm:"not null;index"`
	TimeKey      int       `json:"time_key" gorm:"not null;index"`
	PriceAreaKey int       `json:"price_area_key" gorm:"not null;uniqueIndex:uq_fact_co2_ts_area"`

	CO2EmissionGPerKWh float64 `json:"co2_emission_g_kwh" gorm:"not null"`
	EmissionLevel      string  `json:"emission_level" gorm:"size:20;not null" example:"Very Low"`
	IsPeakHour         bool    `json:"is_peak_hour" gorm:"not null"`
	IsWeekend          bool    `json:"is_weekend" gorm:"not null"`

	LoadedAt time.Time `json:"loaded_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (FactCO2Emission) TableName() string {
	return "fact_co2_emissions"
}

// FactEnergyProduction 发电结构事实，小时粒度，含可再生占比派生列
type FactEnergyProduction struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;uniqueIndex:uq_fact_prod_ts_area"`
	DateKey      int       `json:"date_key" gorm:"not null;index"`
	TimeKey      int       `json:"time_key" gorm:"not null;index"`
	PriceAreaKey int       `json:"price_area_key" gorm:"not null;uniqueIndex:uq_fact_prod_ts_area"`

	CentralPowerMWh    float64 `json:"central_power_mwh" gorm:"not null"`
	LocalPowerMWh      float64 `json:"local_power_mwh" gorm:"not null"`
	CommercialPowerMWh float64 `json:"commercial_power_mwh" gorm:"not null"`
	OffshoreWindMWh    float64 `json:"offshore_wind_mwh" gorm:"not null"`
	OnshoreWindMWh     float64 `json:"onshore_wind_mwh" gorm:"not null"`
	TotalWindMWh       float64 `json:"total_wind_mwh" gorm:"not null"`
	SolarPowerMWh      float64 `json:"solar_power_mwh" gorm:"not null"`
	HydroPowerMWh      float64 `json:"hydro_power_mwh" gorm:"not null"`
	UnknownProdMWh     float64 `json:"unknown_prod_mwh" gorm:"not null"`

	TotalProductionMWh  float64 `json:"total_production_mwh" gorm:"not null"`
	TotalRenewableMWh   float64 `json:"total_renewable_mwh" gorm:"not null"`
	RenewablePercentage float64 `json:"renewable_percentage" gorm:"not null"`
	WindPercentage      float64 `json:"wind_percentage" gorm:"not null"`
	SolarPercentage     float64 `json:"solar_percentage" gorm:"not null"`
	RenewableCategory   string  `json:"renewable_category" gorm:"size:30;not null" example:"High Renewable"`

	GrossConsumptionMWh     float64 `json:"gross_consumption_mwh" gorm:"not null"`
	GridLossTransmissionMWh float64 `json:"grid_loss_transmission_mwh" gorm:"not null"`
	GridEfficiencyPct       float64 `json:"grid_efficiency_pct" gorm:"not null"`

	IsPeakHour bool `json:"is_peak_hour" gorm:"not null"`
	IsWeekend  bool `json:"is_weekend" gorm:"not null"`

	LoadedAt time.Time `json:"loaded_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (FactEnergyProduction) TableName() string {
	return "fact_energy_production"
}

// FactElectricityPrice 现货电价事实，小时粒度，含区域内滞后派生列
type FactElectricityPrice struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;uniqueIndex:uq_fact_price_ts_area"`
	DateKey      int       `json:"date_key" gorm:"not null;index"`
	TimeKey      int       `json:"time_key" gorm:"not null;index"`
	PriceAreaKey int       `json:"price_area_key" gorm:"not null;uniqueIndex:uq_fact_price_ts_area"`

	SpotPriceDKK    float64 `json:"spot_price_dkk" gorm:"not null"`
	SpotPriceEUR    float64 `json:"spot_price_eur" gorm:"not null"`
	PriceCategory   string  `json:"price_category" gorm:"size:20;not null" example:"Medium"`
	PriceChange     float64 `json:"price_change" gorm:"not null"`
	PriceVolatility float64 `json:"price_volatility" gorm:"not null"`

	IsNegativePrice bool `json:"is_negative_price" gorm:"not null"`
	IsPriceSpike    bool `json:"is_price_spike" gorm:"not null"`
	IsExtremeHigh   bool `json:"is_extreme_high" gorm:"not null"`
	IsVeryLowPrice  bool `json:"is_very_low_price" gorm:"not null"`
	IsPeakHour      bool `json:"is_peak_hour" gorm:"not null"`
	IsWeekend       bool `json:"is_weekend" gorm:"not null"`

	LoadedAt time.Time `json:"loaded_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (FactElectricityPrice) TableName() string {
	return "fact_electricity_prices"
}
