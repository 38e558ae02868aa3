/*
 * @module service/models/raw_records
 * @description 原始数据层模型，每条源记录一行，宽松类型、最小校验
 * @architecture 数据访问层 - 原始数据区
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 抽取写入一次，此后不再修改，由事实转换读取
 * @rules 数值列以文本形式落地，类型矫正在原始层到事实层的边界完成
 * @dependencies gorm.io/gorm
 * @refs service/ingestion, service/warehouse
 */

package models

import "time"

// RawCO2Emission CO2排放强度原始记录（CO2Emis数据集，5分钟分辨率）
type RawCO2Emission struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;index:idx_raw_co2_ts_area"`
	TimestampDK  time.Time `json:"timestamp_dk"`
	PriceArea    string    `json:"price_area" gorm:"size:10;index:idx_raw_co2_ts_area" example:"DK1"`
	CO2Emission  string    `json:"co2_emission" gorm:"size:50"` // g/kWh，保留原始文本
	SourceFile   string    `json:"source_file,omitempty" gorm:"size:255"`
	IngestedAt   time.Time `json:"ingested_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (RawCO2Emission) TableName() string {
	return "raw_co2_emissions"
}

// RawEnergyProduction 发电与消费结算原始记录（ProductionConsumptionSettlement数据集，小时分辨率）
type RawEnergyProduction struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;index:idx_raw_prod_ts_area"`
	TimestampDK  time.Time `json:"timestamp_dk"`
	PriceArea    string    `json:"price_area" gorm:"size:10;index:idx_raw_prod_ts_area" example:"DK2"`

	CentralPowerMWh         string `json:"central_power_mwh" gorm:"size:50"`
	LocalPowerMWh           string `json:"local_power_mwh" gorm:"size:50"`
	CommercialPowerMWh      string `json:"commercial_power_mwh" gorm:"size:50"`
	OffshoreWindLt100MWMWh  string `json:"offshore_wind_lt100mw_mwh" gorm:"size:50"`
	OffshoreWindGe100MWMWh  string `json:"offshore_wind_ge100mw_mwh" gorm:"size:50"`
	OnshoreWindLt50kWMWh    string `json:"onshore_wind_lt50kw_mwh" gorm:"size:50"`
	OnshoreWindGe50kWMWh    string `json:"onshore_wind_ge50kw_mwh" gorm:"size:50"`
	HydroPowerMWh           string `json:"hydro_power_mwh" gorm:"size:50"`
	SolarPowerLt10kWMWh     string `json:"solar_power_lt10kw_mwh" gorm:"size:50"`
	SolarPowerGe10Lt40kWMWh string `json:"solar_power_ge10lt40kw_mwh" gorm:"size:50"`
	SolarPowerGe40kWMWh     string `json:"solar_power_ge40kw_mwh" gorm:"size:50"`
	UnknownProdMWh          string `json:"unknown_prod_mwh" gorm:"size:50"`
	GrossConsumptionMWh     string `json:"gross_consumption_mwh" gorm:"size:50"`
	GridLossTransmissionMWh string `json:"grid_loss_transmission_mwh" gorm:"size:50"`

	SourceFile string    `json:"source_file,omitempty" gorm:"size:255"`
	IngestedAt time.Time `json:"ingested_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (RawEnergyProduction) TableName() string {
	return "raw_energy_production"
}

// RawElectricityPrice 现货电价原始记录（Elspotprices数据集，小时分辨率）
type RawElectricityPrice struct {
	ID           int64     `json:"id" gorm:"primaryKey;autoIncrement"`
	TimestampUTC time.Time `json:"timestamp_utc" gorm:"not null;index:idx_raw_price_ts_area"`
	TimestampDK  time.Time `json:"timestamp_dk"`
	PriceArea    string    `json:"price_area" gorm:"size:10;index:idx_raw_price_ts_area" example:"DK1"`
	SpotPriceDKK string    `json:"spot_price_dkk" gorm:"size:50"`
	SpotPriceEUR string    `json:"spot_price_eur" gorm:"size:50"`
	SourceFile   string    `json:"source_file,omitempty" gorm:"size:255"`
	IngestedAt   time.Time `json:"ingested_at" gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName 指定表名
func (RawElectricityPrice) TableName() string {
	return "raw_electricity_prices"
}
