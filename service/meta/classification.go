/*
 * @module service/meta/classification
 * @description 表驱动的数值分类定义，排放强度、可再生占比、电价水平共用同一套分档机制
 * @architecture 元数据层 - 表驱动分类
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 无状态纯函数：数值 -> 分档表匹配 -> 标签
 * @rules 分档表按上界升序排列，未命中任何分档时返回兜底标签
 * @refs service/warehouse
 */

package meta

// ClassBand 单个分档：上界与标签
type ClassBand struct {
	Upper float64
	Label string
}

// Classification 有序分档表，Inclusive 控制上界是否包含在本档内
type Classification struct {
	Bands     []ClassBand
	Inclusive bool
	Fallback  string
}

// Classify 按分档表对数值分类
func (c Classification) Classify(value float64) string {
	for _, band := range c.Bands {
		if c.Inclusive {
			if value <= band.Upper {
				return band.Label
			}
		} else {
			if value < band.Upper {
				return band.Label
			}
		}
	}
	return c.Fallback
}

// EmissionClassification CO2排放强度分档（g/kWh，上界含）
var EmissionClassification = Classification{
	Bands: []ClassBand{
		{Upper: 50, Label: "Very Low"},
		{Upper: 100, Label: "Low"},
		{Upper: 200, Label: "Medium"},
		{Upper: 400, Label: "High"},
	},
	Inclusive: true,
	Fallback:  "Very High",
}

// RenewableClassification 可再生能源占比分档（百分比，20个百分点一档）
var RenewableClassification = Classification{
	Bands: []ClassBand{
		{Upper: 20, Label: "Very Low Renewable"},
		{Upper: 40, Label: "Low Renewable"},
		{Upper: 60, Label: "Medium Renewable"},
		{Upper: 80, Label: "High Renewable"},
	},
	Fallback: "Very High Renewable",
}

// PriceClassification 现货电价水平分档（EUR/MWh）
var PriceClassification = Classification{
	Bands: []ClassBand{
		{Upper: 0, Label: "Negative"},
		{Upper: 30, Label: "Low"},
		{Upper: 60, Label: "Medium"},
		{Upper: 100, Label: "High"},
	},
	Fallback: "Very High",
}

// SolarPotentialForHour 根据小时估算光照潜力分档，用于时间维度
func SolarPotentialForHour(hour int) string {
	switch {
	case hour >= 11 && hour <= 15:
		return "High"
	case (hour >= 9 && hour <= 10) || (hour >= 16 && hour <= 17):
		return "Medium"
	case (hour >= 6 && hour <= 8) || (hour >= 18 && hour <= 20):
		return "Low"
	default:
		return "None"
	}
}

// SeasonForMonth 根据月份返回季节名称
func SeasonForMonth(month int) string {
	switch month {
	case 12, 1, 2:
		return "Winter"
	case 3, 4, 5:
		return "Spring"
	case 6, 7, 8:
		return "Summer"
	default:
		return "Autumn"
	}
}

// PeriodOfDayForHour 根据小时返回时段名称，用于时间维度描述属性
func PeriodOfDayForHour(hour int) string {
	switch {
	case hour < 6:
		return "Night"
	case hour < 12:
		return "Morning"
	case hour < 18:
		return "Afternoon"
	default:
		return "Evening"
	}
}
