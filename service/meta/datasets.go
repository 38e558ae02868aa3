/*
 * @module service/meta/datasets
 * @description 能源数据集元数据定义，包含数据集类型、电价区域、业务时段等常量
 * @architecture 元数据层 - 静态常量定义
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 无状态常量定义
 * @rules 数据集标识与Energi Data Service官方数据集名称保持一致
 * @refs service/models, service/warehouse
 */

package meta

// 数据集类型常量，与Energi Data Service的数据集名称一一对应
const (
	DatasetCO2Emissions      = "co2_emissions"      // CO2Emis 数据集
	DatasetEnergyProduction  = "energy_production"  // ProductionConsumptionSettlement 数据集
	DatasetElectricityPrices = "electricity_prices" // Elspotprices 数据集
)

// EnergiDataServiceDatasets 数据集标识到API数据集名称的映射
var EnergiDataServiceDatasets = map[string]string{
	DatasetCO2Emissions:      "CO2Emis",
	DatasetEnergyProduction:  "ProductionConsumptionSettlement",
	DatasetElectricityPrices: "Elspotprices",
}

// IsValidDataset 验证数据集类型是否有效
func IsValidDataset(dataset string) bool {
	_, ok := EnergiDataServiceDatasets[dataset]
	return ok
}

// 聚合粒度常量
const (
	GranularityDay   = "day"
	GranularityMonth = "month"
)

// IsValidGranularity 验证聚合粒度是否有效
func IsValidGranularity(granularity string) bool {
	return granularity == GranularityDay || granularity == GranularityMonth
}

// 业务时段定义
const (
	// PeakHourStart 高峰时段起始小时（含）
	PeakHourStart = 17
	// PeakHourEnd 高峰时段结束小时（含），即17:00-20:00高峰窗口
	PeakHourEnd = 20

	// TimeSlotMinutes 时间维度的时间槽分辨率（分钟）
	TimeSlotMinutes = 5
	// TimeSlotsPerDay 每天的时间槽数量
	TimeSlotsPerDay = 24 * 60 / TimeSlotMinutes
)

// IsPeakHour 判断小时是否落在业务定义的高峰窗口内
func IsPeakHour(hour int) bool {
	return hour >= PeakHourStart && hour <= PeakHourEnd
}

// 数值有效范围，超出范围的原始行在事实转换边界被排除（不修正）
const (
	CO2EmissionMin = 0.0
	CO2EmissionMax = 1000.0

	SpotPriceEurMin = -1000.0
	SpotPriceEurMax = 5000.0
)

// 电价衍生指标阈值
const (
	// PriceSpikeThreshold 相邻时段价差绝对值超过该值视为价格尖峰
	PriceSpikeThreshold = 50.0
	// PriceExtremeHighThreshold 超过该值视为极端高价
	PriceExtremeHighThreshold = 200.0
	// PriceVeryLowThreshold 低于该值视为极低价
	PriceVeryLowThreshold = 10.0
)

// PriceAreaSeed 电价区域维度的静态种子数据
type PriceAreaSeed struct {
	AreaCode     string
	AreaName     string
	Country      string
	Region       string
	GridOperator string
	IsDanishArea bool
	Timezone     string
}

// PriceAreaSeeds 支持的电价区域，覆盖丹麦两个竞价区及相邻外部区域
var PriceAreaSeeds = []PriceAreaSeed{
	{AreaCode: "DK1", AreaName: "Denmark West", Country: "Denmark", Region: "Jutland/Funen", GridOperator: "Energinet", IsDanishArea: true, Timezone: "Europe/Copenhagen"},
	{AreaCode: "DK2", AreaName: "Denmark East", Country: "Denmark", Region: "Zealand", GridOperator: "Energinet", IsDanishArea: true, Timezone: "Europe/Copenhagen"},
	{AreaCode: "NO2", AreaName: "Norway South", Country: "Norway", Region: "Kristiansand", GridOperator: "Statnett", IsDanishArea: false, Timezone: "Europe/Oslo"},
	{AreaCode: "SE3", AreaName: "Sweden Central", Country: "Sweden", Region: "Stockholm", GridOperator: "Svenska kraftnat", IsDanishArea: false, Timezone: "Europe/Stockholm"},
	{AreaCode: "SE4", AreaName: "Sweden South", Country: "Sweden", Region: "Malmo", GridOperator: "Svenska kraftnat", IsDanishArea: false, Timezone: "Europe/Stockholm"},
	{AreaCode: "DE", AreaName: "Germany/Luxembourg", Country: "Germany", Region: "DE-LU", GridOperator: "TenneT/50Hertz", IsDanishArea: false, Timezone: "Europe/Berlin"},
}

// IsKnownPriceArea 判断区域代码是否为已知电价区域
func IsKnownPriceArea(code string) bool {
	for _, seed := range PriceAreaSeeds {
		if seed.AreaCode == code {
			return true
		}
	}
	return false
}
