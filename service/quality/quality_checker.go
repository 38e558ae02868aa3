/*
 * @module service/quality/quality_checker
 * @description 数据质量检查服务，统计各层行数、越界原始值与事实表维度孤儿
 * @architecture 服务层 - 质量检查
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 流水线收尾阶段执行，只读检查，结果随运行记录返回
 * @rules 检查不修改数据，发现问题产生告警而非失败
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/pipeline
 */

package quality

import (
	"fmt"
	"log/slog"

	"gorm.io/gorm"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/service/utils"
)

// QualityChecker 数据质量检查器
type QualityChecker struct {
	db   *gorm.DB
	conv *utils.DataConverter
}

// NewQualityChecker 创建质量检查器实例
func NewQualityChecker(db *gorm.DB) *QualityChecker {
	return &QualityChecker{db: db, conv: utils.NewDataConverter()}
}

// TableCount 单表行数
type TableCount struct {
	Table string `json:"table"`
	Rows  int64  `json:"rows"`
}

// QualityReport 质量检查报告
type QualityReport struct {
	TableCounts        []TableCount `json:"table_counts"`
	RawCO2OutOfRange   int64        `json:"raw_co2_out_of_range"`
	RawPriceOutOfRange int64        `json:"raw_price_out_of_range"`
	OrphanEmissionRows int64        `json:"orphan_emission_rows"`
	OrphanPriceRows    int64        `json:"orphan_price_rows"`
	Warnings           []string     `json:"warnings,omitempty"`
}

// Check 执行全部质量检查
func (c *QualityChecker) Check() (*QualityReport, error) {
	report := &QualityReport{}

	tables := []struct {
		name  string
		model interface{}
	}{
		{"raw_co2_emissions", &models.RawCO2Emission{}},
		{"raw_energy_production", &models.RawEnergyProduction{}},
		{"raw_electricity_prices", &models.RawElectricityPrice{}},
		{"dim_date", &models.DimDate{}},
		{"dim_time", &models.DimTime{}},
		{"dim_price_area", &models.DimPriceArea{}},
		{"fact_co2_emissions", &models.FactCO2Emission{}},
		{"fact_energy_production", &models.FactEnergyProduction{}},
		{"fact_electricity_prices", &models.FactElectricityPrice{}},
		{"mart_daily_area", &models.MartDailyArea{}},
		{"mart_monthly_area", &models.MartMonthlyArea{}},
	}
	for _, t := range tables {
		var count int64
		if err := c.db.Model(t.model).Count(&count).Error; err != nil {
			return nil, fmt.Errorf("统计表 %s 行数失败: %w", t.name, err)
		}
		report.TableCounts = append(report.TableCounts, TableCount{Table: t.name, Rows: count})
	}

	var err error
	report.RawCO2OutOfRange, err = c.countRawCO2OutOfRange()
	if err != nil {
		return nil, err
	}
	report.RawPriceOutOfRange, err = c.countRawPriceOutOfRange()
	if err != nil {
		return nil, err
	}

	report.OrphanEmissionRows, err = c.countOrphans(&models.FactCO2Emission{})
	if err != nil {
		return nil, err
	}
	report.OrphanPriceRows, err = c.countOrphans(&models.FactElectricityPrice{})
	if err != nil {
		return nil, err
	}

	if report.RawCO2OutOfRange > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("原始排放越界行: %d", report.RawCO2OutOfRange))
	}
	if report.RawPriceOutOfRange > 0 {
		report.Warnings = append(report.Warnings, fmt.Sprintf("原始电价越界行: %d", report.RawPriceOutOfRange))
	}
	if report.OrphanEmissionRows > 0 || report.OrphanPriceRows > 0 {
		report.Warnings = append(report.Warnings,
			fmt.Sprintf("事实表维度孤儿行: emissions=%d prices=%d", report.OrphanEmissionRows, report.OrphanPriceRows))
	}

	slog.Info("数据质量检查完成",
		"co2_out_of_range", report.RawCO2OutOfRange,
		"price_out_of_range", report.RawPriceOutOfRange,
		"orphans", report.OrphanEmissionRows+report.OrphanPriceRows)
	return report, nil
}

// countRawCO2OutOfRange 统计排放度量越界的原始行
func (c *QualityChecker) countRawCO2OutOfRange() (int64, error) {
	var raws []models.RawCO2Emission
	if err := c.db.Select("co2_emission").Find(&raws).Error; err != nil {
		return 0, fmt.Errorf("读取原始排放记录失败: %w", err)
	}
	var count int64
	for _, r := range raws {
		v := c.conv.CoerceFloat(r.CO2Emission)
		if !c.conv.InRange(v, meta.CO2EmissionMin, meta.CO2EmissionMax) {
			count++
		}
	}
	return count, nil
}

// countRawPriceOutOfRange 统计欧元价越界的原始行
func (c *QualityChecker) countRawPriceOutOfRange() (int64, error) {
	var raws []models.RawElectricityPrice
	if err := c.db.Select("spot_price_eur").Find(&raws).Error; err != nil {
		return 0, fmt.Errorf("读取原始电价记录失败: %w", err)
	}
	var count int64
	for _, r := range raws {
		v := c.conv.CoerceFloat(r.SpotPriceEUR)
		if !c.conv.InRange(v, meta.SpotPriceEurMin, meta.SpotPriceEurMax) {
			count++
		}
	}
	return count, nil
}

// countOrphans 统计事实表中区域键不存在于区域维度的行
func (c *QualityChecker) countOrphans(factModel interface{}) (int64, error) {
	var areaKeys []int
	if err := c.db.Model(&models.DimPriceArea{}).Pluck("price_area_key", &areaKeys).Error; err != nil {
		return 0, fmt.Errorf("读取区域维度键失败: %w", err)
	}
	var count int64
	query := c.db.Model(factModel)
	if len(areaKeys) > 0 {
		query = query.Where("price_area_key NOT IN ?", areaKeys)
	}
	if err := query.Count(&count).Error; err != nil {
		return 0, fmt.Errorf("统计维度孤儿行失败: %w", err)
	}
	return count, nil
}
