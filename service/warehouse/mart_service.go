/*
 * @module service/warehouse/mart_service
 * @description 数据集市聚合服务，按(周期, 区域)整段替换重建日粒度与月粒度集市
 * @architecture 服务层 - 聚合层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取事实表 -> 内存分组累积 -> 删除受影响周期 -> 批量写入
 * @rules 事实表为唯一来源，标准差取样本标准差，重复聚合产生相同结果
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/pipeline
 */

package warehouse

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"strconv"

	"gorm.io/gorm"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
)

// MartService 集市聚合服务
type MartService struct {
	db *gorm.DB
}

// NewMartService 创建集市聚合服务实例
func NewMartService(db *gorm.DB) *MartService {
	return &MartService{db: db}
}

// AggregateResult 聚合结果
type AggregateResult struct {
	Granularity string `json:"granularity"`
	RowsWritten int64  `json:"rows_written"`
}

// martAccumulator 单个(周期, 区域)分组的累积状态
type martAccumulator struct {
	co2Sum, co2Min, co2Max float64
	co2Count               int64

	prodTotal, renewableTotal, windTotal, solarTotal float64
	renewablePctSum                                  float64
	prodCount                                        int64
	consumptionTotal                                 float64

	prices             []float64
	priceSum           float64
	priceMin, priceMax float64
	spikeHours         int
	negativeHours      int
	peakHours          int

	isWeekend   bool
	seenDates   map[int]struct{}
	weekendDays int
}

func newMartAccumulator() *martAccumulator {
	return &martAccumulator{
		co2Min:    math.Inf(1),
		co2Max:    math.Inf(-1),
		priceMin:  math.Inf(1),
		priceMax:  math.Inf(-1),
		seenDates: make(map[int]struct{}),
	}
}

// markDate 记录分组覆盖的日期，周末日期计入周末天数
func (a *martAccumulator) markDate(dateKey int, weekend bool) {
	if _, ok := a.seenDates[dateKey]; ok {
		return
	}
	a.seenDates[dateKey] = struct{}{}
	if weekend {
		a.weekendDays++
	}
}

// Aggregate 按粒度执行聚合
func (s *MartService) Aggregate(granularity string) (*AggregateResult, error) {
	switch granularity {
	case meta.GranularityDay:
		return s.AggregateDaily()
	case meta.GranularityMonth:
		return s.AggregateMonthly()
	default:
		return nil, fmt.Errorf("不支持的聚合粒度: %s", granularity)
	}
}

// AggregateDaily 重建日粒度集市
func (s *MartService) AggregateDaily() (*AggregateResult, error) {
	groups, err := s.accumulate(func(dateKey int, d *models.DimDate) string {
		return strconv.Itoa(dateKey)
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []models.MartDailyArea
	for _, gk := range keys {
		byArea := groups[gk]
		areaCodes := sortedAreaCodes(byArea)
		for _, code := range areaCodes {
			acc := byArea[code]
			dateKey, _ := strconv.Atoi(gk)
			row := models.MartDailyArea{
				DateKey:  dateKey,
				AreaCode: code,
			}
			fillMartMeasures(&row.AvgCO2EmissionGPerKWh, &row.MinCO2EmissionGPerKWh, &row.MaxCO2EmissionGPerKWh,
				&row.TotalProductionMWh, &row.TotalRenewableMWh, &row.TotalWindMWh, &row.TotalSolarMWh,
				&row.AvgRenewablePct, &row.TotalConsumptionMWh,
				&row.AvgSpotPriceEUR, &row.MinSpotPriceEUR, &row.MaxSpotPriceEUR, &row.PriceStddevEUR,
				&row.PriceSpikeHours, &row.NegativePriceHours, &row.PeakHourCount, acc)
			row.IsWeekend = acc.isWeekend
			rows = append(rows, row)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			dateKeys := make([]int, 0, len(rows))
			for _, r := range rows {
				dateKeys = append(dateKeys, r.DateKey)
			}
			if err := tx.Where("date_key IN ?", dateKeys).Delete(&models.MartDailyArea{}).Error; err != nil {
				return fmt.Errorf("清除日集市旧行失败: %w", err)
			}
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("写入日集市失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("日粒度集市聚合完成", "rows", len(rows))
	return &AggregateResult{Granularity: meta.GranularityDay, RowsWritten: int64(len(rows))}, nil
}

// AggregateMonthly 重建月粒度集市
func (s *MartService) AggregateMonthly() (*AggregateResult, error) {
	groups, err := s.accumulate(func(dateKey int, d *models.DimDate) string {
		return d.YearMonth
	})
	if err != nil {
		return nil, err
	}

	keys := make([]string, 0, len(groups))
	for k := range groups {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	var rows []models.MartMonthlyArea
	for _, ym := range keys {
		byArea := groups[ym]
		for _, code := range sortedAreaCodes(byArea) {
			acc := byArea[code]
			row := models.MartMonthlyArea{
				YearMonth: ym,
				AreaCode:  code,
			}
			fillMartMeasures(&row.AvgCO2EmissionGPerKWh, &row.MinCO2EmissionGPerKWh, &row.MaxCO2EmissionGPerKWh,
				&row.TotalProductionMWh, &row.TotalRenewableMWh, &row.TotalWindMWh, &row.TotalSolarMWh,
				&row.AvgRenewablePct, &row.TotalConsumptionMWh,
				&row.AvgSpotPriceEUR, &row.MinSpotPriceEUR, &row.MaxSpotPriceEUR, &row.PriceStddevEUR,
				&row.PriceSpikeHours, &row.NegativePriceHours, &row.PeakHourCount, acc)
			row.WeekendDays = acc.weekendDays
			rows = append(rows, row)
		}
	}

	err = s.db.Transaction(func(tx *gorm.DB) error {
		if len(rows) > 0 {
			months := make([]string, 0, len(rows))
			for _, r := range rows {
				months = append(months, r.YearMonth)
			}
			if err := tx.Where("year_month IN ?", months).Delete(&models.MartMonthlyArea{}).Error; err != nil {
				return fmt.Errorf("清除月集市旧行失败: %w", err)
			}
			if err := tx.CreateInBatches(rows, 500).Error; err != nil {
				return fmt.Errorf("写入月集市失败: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	slog.Info("月粒度集市聚合完成", "rows", len(rows))
	return &AggregateResult{Granularity: meta.GranularityMonth, RowsWritten: int64(len(rows))}, nil
}

// accumulate 扫描三张事实表，按(分组键, 区域)累积度量
func (s *MartService) accumulate(groupKey func(dateKey int, d *models.DimDate) string) (map[string]map[string]*martAccumulator, error) {
	var dimDates []models.DimDate
	if err := s.db.Find(&dimDates).Error; err != nil {
		return nil, fmt.Errorf("装载日期维度失败: %w", err)
	}
	dates := make(map[int]*models.DimDate, len(dimDates))
	for i := range dimDates {
		dates[dimDates[i].DateKey] = &dimDates[i]
	}

	var dimAreas []models.DimPriceArea
	if err := s.db.Find(&dimAreas).Error; err != nil {
		return nil, fmt.Errorf("装载区域维度失败: %w", err)
	}
	areas := make(map[int]string, len(dimAreas))
	for _, a := range dimAreas {
		areas[a.PriceAreaKey] = a.AreaCode
	}

	groups := make(map[string]map[string]*martAccumulator)
	getAcc := func(dateKey, areaKey int) *martAccumulator {
		d, ok := dates[dateKey]
		if !ok {
			return nil
		}
		code, ok := areas[areaKey]
		if !ok {
			return nil
		}
		gk := groupKey(dateKey, d)
		if groups[gk] == nil {
			groups[gk] = make(map[string]*martAccumulator)
		}
		acc, ok := groups[gk][code]
		if !ok {
			acc = newMartAccumulator()
			acc.isWeekend = d.IsWeekend
			groups[gk][code] = acc
		}
		acc.markDate(dateKey, d.IsWeekend)
		return acc
	}

	var emissions []models.FactCO2Emission
	if err := s.db.Find(&emissions).Error; err != nil {
		return nil, fmt.Errorf("读取排放事实失败: %w", err)
	}
	for _, f := range emissions {
		acc := getAcc(f.DateKey, f.PriceAreaKey)
		if acc == nil {
			continue
		}
		acc.co2Sum += f.CO2EmissionGPerKWh
		acc.co2Count++
		acc.co2Min = math.Min(acc.co2Min, f.CO2EmissionGPerKWh)
		acc.co2Max = math.Max(acc.co2Max, f.CO2EmissionGPerKWh)
	}

	var production []models.FactEnergyProduction
	if err := s.db.Find(&production).Error; err != nil {
		return nil, fmt.Errorf("读取发电事实失败: %w", err)
	}
	for _, f := range production {
		acc := getAcc(f.DateKey, f.PriceAreaKey)
		if acc == nil {
			continue
		}
		acc.prodTotal += f.TotalProductionMWh
		acc.renewableTotal += f.TotalRenewableMWh
		acc.windTotal += f.TotalWindMWh
		acc.solarTotal += f.SolarPowerMWh
		acc.renewablePctSum += f.RenewablePercentage
		acc.prodCount++
		acc.consumptionTotal += f.GrossConsumptionMWh
	}

	var prices []models.FactElectricityPrice
	if err := s.db.Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("读取电价事实失败: %w", err)
	}
	for _, f := range prices {
		acc := getAcc(f.DateKey, f.PriceAreaKey)
		if acc == nil {
			continue
		}
		acc.prices = append(acc.prices, f.SpotPriceEUR)
		acc.priceSum += f.SpotPriceEUR
		acc.priceMin = math.Min(acc.priceMin, f.SpotPriceEUR)
		acc.priceMax = math.Max(acc.priceMax, f.SpotPriceEUR)
		if f.IsPriceSpike {
			acc.spikeHours++
		}
		if f.IsNegativePrice {
			acc.negativeHours++
		}
		if f.IsPeakHour {
			acc.peakHours++
		}
	}

	return groups, nil
}

// fillMartMeasures 将累积状态落到集市行的度量列
func fillMartMeasures(avgCO2, minCO2, maxCO2,
	totalProd, totalRenewable, totalWind, totalSolar,
	avgRenewablePct, totalConsumption,
	avgPrice, minPrice, maxPrice, priceStddev *float64,
	spikeHours, negativeHours, peakHours *int, acc *martAccumulator) {
	if acc.co2Count > 0 {
		*avgCO2 = acc.co2Sum / float64(acc.co2Count)
		*minCO2 = acc.co2Min
		*maxCO2 = acc.co2Max
	}
	*totalProd = acc.prodTotal
	*totalRenewable = acc.renewableTotal
	*totalWind = acc.windTotal
	*totalSolar = acc.solarTotal
	if acc.prodCount > 0 {
		*avgRenewablePct = acc.renewablePctSum / float64(acc.prodCount)
	}
	*totalConsumption = acc.consumptionTotal

	n := len(acc.prices)
	if n > 0 {
		*avgPrice = acc.priceSum / float64(n)
		*minPrice = acc.priceMin
		*maxPrice = acc.priceMax
		*priceStddev = sampleStddev(acc.prices, *avgPrice)
	}
	*spikeHours = acc.spikeHours
	*negativeHours = acc.negativeHours
	*peakHours = acc.peakHours
}

// sampleStddev 样本标准差，样本数小于2时为0
func sampleStddev(values []float64, mean float64) float64 {
	if len(values) < 2 {
		return 0
	}
	var sum float64
	for _, v := range values {
		d := v - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(len(values)-1))
}

func sortedAreaCodes(byArea map[string]*martAccumulator) []string {
	codes := make([]string, 0, len(byArea))
	for code := range byArea {
		codes = append(codes, code)
	}
	sort.Strings(codes)
	return codes
}
