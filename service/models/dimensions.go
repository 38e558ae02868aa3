/*
 * @module service/models/dimensions
 * @description 星型模型维度表，日期维、时间维与电价区域维
 * @architecture 数据访问层 - 维度区
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 由维度构建服务幂等生成，事实表通过代理键引用
 * @rules 维度键为确定性代理键，重复构建跳过已有成员
 * @dependencies gorm.io/gorm
 * @refs service/dimension, service/warehouse
 */

package models

import "time"

// DimDate 日期维度，主键为YYYYMMDD整型代理键
type DimDate struct {
	DateKey      int       `json:"date_key" gorm:"primaryKey" example:"20240315"`
	FullDate     time.Time `json:"full_date" gorm:"not null;uniqueIndex"`
	Year         int       `json:"year" gorm:"not null"`
	Quarter      int       `json:"quarter" gorm:"not null"`
	Month        int       `json:"month" gorm:"not null"`
	MonthName    string    `json:"month_name" gorm:"size:20;not null"`
	Week         int       `json:"week" gorm:"not null"`
	DayOfYear    int       `json:"day_of_year" gorm:"not null"`
	DayOfMonth   int       `json:"day_of_month" gorm:"not null"`
	DayOfWeek    int       `json:"day_of_week" gorm:"not null"` // 1=周一 ... 7=周日
	DayName      string    `json:"day_name" gorm:"size:20;not null"`
	IsWeekend    bool      `json:"is_weekend" gorm:"not null"`
	Season       string    `json:"season" gorm:"size:10;not null" example:"Spring"`
	YearMonth    string    `json:"year_month" gorm:"size:7;not null;index" example:"2024-03"`
	ISOYear      int       `json:"iso_year" gorm:"not null"`
	ISOWeek      int       `json:"iso_week" gorm:"not null"`
	IsMonthStart bool      `json:"is_month_start" gorm:"not null"`
	IsMonthEnd   bool      `json:"is_month_end" gorm:"not null"`
}

// TableName 指定表名
func (DimDate) TableName() string {
	return "dim_date"
}

// DimTime 时间维度，全天288个5分钟槽位，主键为hour*100+minute
type DimTime struct {
	TimeKey        int    `json:"time_key" gorm:"primaryKey" example:"1725"`
	Hour           int    `json:"hour" gorm:"not null;index"`
	Minute         int    `json:"minute" gorm:"not null"`
	TimeLabel      string `json:"time_label" gorm:"size:5;not null" example:"17:25"`
	PeriodOfDay    string `json:"period_of_day" gorm:"size:20;not null" example:"Evening"`
	IsPeakHour     bool   `json:"is_peak_hour" gorm:"not null"`
	SolarPotential string `json:"solar_potential" gorm:"size:20;not null" example:"High"`
}

// TableName 指定表名
func (DimTime) TableName() string {
	return "dim_time"
}

// DimPriceArea 电价区域维度
type DimPriceArea struct {
	PriceAreaKey int    `json:"price_area_key" gorm:"primaryKey;autoIncrement"`
	AreaCode     string `json:"area_code" gorm:"size:10;not null;uniqueIndex" example:"DK1"`
	AreaName     string `json:"area_name" gorm:"size:100;not null"`
	Country      string `json:"country" gorm:"size:50;not null"`
	Region       string `json:"region" gorm:"size:100"`
	IsDanishArea bool   `json:"is_danish_area" gorm:"not null"`
	GridOperator string `json:"grid_operator" gorm:"size:100"`
	Timezone     string `json:"timezone" gorm:"size:50;not null" example:"Europe/Copenhagen"`
}

// TableName 指定表名
func (DimPriceArea) TableName() string {
	return "dim_price_area"
}
