/*
 * @module service/dashboard/dashboard_service
 * @description 仪表盘查询服务，面向丹麦区域提供KPI、趋势、价格与能源结构分析
 * @architecture 服务层 - 查询服务
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取事实与维度 -> 内存分组聚合 -> 返回分析结果
 * @rules 只统计丹麦区域，时间窗口按自然日回溯，空窗口返回空集而非错误
 * @dependencies gorm.io/gorm
 * @refs api/controllers/dashboard_controller
 */

package dashboard

import (
	"fmt"
	"math"
	"sort"
	"time"

	"gorm.io/gorm"

	"energyhub-service/service/dimension"
	"energyhub-service/service/models"
)

// DashboardService 仪表盘查询服务
type DashboardService struct {
	db *gorm.DB
}

// NewDashboardService 创建仪表盘查询服务实例
func NewDashboardService(db *gorm.DB) *DashboardService {
	return &DashboardService{db: db}
}

// KpiSummary 核心指标汇总
type KpiSummary struct {
	TotalDays              int     `json:"total_days"`
	AvgCO2Intensity        float64 `json:"avg_co2_intensity"`
	AvgRenewablePercentage float64 `json:"avg_renewable_percentage"`
	AvgElectricityPrice    float64 `json:"avg_electricity_price"`
	TotalEnergyProduction  float64 `json:"total_energy_production"`
	TotalEnergyConsumption float64 `json:"total_energy_consumption"`
}

// RenewableTrendPoint 可再生趋势点
type RenewableTrendPoint struct {
	Date                string  `json:"date"`
	PriceArea           string  `json:"price_area"`
	RenewablePercentage float64 `json:"renewable_percentage"`
	WindPercentage      float64 `json:"wind_percentage"`
	SolarPercentage     float64 `json:"solar_percentage"`
	TotalRenewableMWh   float64 `json:"total_renewable_mwh"`
	TotalProductionMWh  float64 `json:"total_production_mwh"`
}

// CO2AnalysisPoint 排放分析点
type CO2AnalysisPoint struct {
	Date                string  `json:"date"`
	PriceArea           string  `json:"price_area"`
	AvgCO2Intensity     float64 `json:"avg_co2_intensity"`
	MinCO2Intensity     float64 `json:"min_co2_intensity"`
	MaxCO2Intensity     float64 `json:"max_co2_intensity"`
	DataPoints          int     `json:"data_points"`
	PeakCO2Intensity    float64 `json:"peak_co2_intensity"`
	OffpeakCO2Intensity float64 `json:"offpeak_co2_intensity"`
}

// PriceAnalysisPoint 电价分析点
type PriceAnalysisPoint struct {
	Date               string  `json:"date"`
	PriceArea          string  `json:"price_area"`
	AvgPriceEUR        float64 `json:"avg_price_eur"`
	MinPriceEUR        float64 `json:"min_price_eur"`
	MaxPriceEUR        float64 `json:"max_price_eur"`
	PriceVolatility    float64 `json:"price_volatility"`
	NegativePriceHours int     `json:"negative_price_hours"`
	PriceSpikeHours    int     `json:"price_spike_hours"`
	PeakPriceEUR       float64 `json:"peak_price_eur"`
	OffpeakPriceEUR    float64 `json:"offpeak_price_eur"`
}

// HourlyPatternPoint 小时模式点
type HourlyPatternPoint struct {
	Hour                   int     `json:"hour"`
	PriceArea              string  `json:"price_area"`
	AvgCO2Intensity        float64 `json:"avg_co2_intensity"`
	AvgRenewablePercentage float64 `json:"avg_renewable_percentage"`
	AvgPriceEUR            float64 `json:"avg_price_eur"`
	TotalProductionMWh     float64 `json:"total_production_mwh"`
	TotalConsumptionMWh    float64 `json:"total_consumption_mwh"`
	DataPoints             int     `json:"data_points"`
}

// EnergyMixPoint 能源结构点
type EnergyMixPoint struct {
	Date               string  `json:"date"`
	PriceArea          string  `json:"price_area"`
	OffshoreWindMWh    float64 `json:"offshore_wind_mwh"`
	OnshoreWindMWh     float64 `json:"onshore_wind_mwh"`
	SolarMWh           float64 `json:"solar_mwh"`
	HydroMWh           float64 `json:"hydro_mwh"`
	ConventionalMWh    float64 `json:"conventional_mwh"`
	TotalProductionMWh float64 `json:"total_production_mwh"`
}

// danishAreas 加载丹麦区域键到代码的映射
func (s *DashboardService) danishAreas() (map[int]string, error) {
	var areas []models.DimPriceArea
	if err := s.db.Where("is_danish_area = ?", true).Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("装载丹麦区域维度失败: %w", err)
	}
	result := make(map[int]string, len(areas))
	for _, a := range areas {
		result[a.PriceAreaKey] = a.AreaCode
	}
	return result, nil
}

// dateLabels 加载日期键到日期文本的映射
func (s *DashboardService) dateLabels() (map[int]string, error) {
	var dates []models.DimDate
	if err := s.db.Find(&dates).Error; err != nil {
		return nil, fmt.Errorf("装载日期维度失败: %w", err)
	}
	result := make(map[int]string, len(dates))
	for _, d := range dates {
		result[d.DateKey] = d.FullDate.Format("2006-01-02")
	}
	return result, nil
}

// cutoffDateKey 回溯days个自然日的日期键下界
func cutoffDateKey(days int) int {
	if days <= 0 {
		days = 30
	}
	return dimension.DateKeyFor(time.Now().UTC().AddDate(0, 0, -days))
}

// GetKpiSummary 三事实表交集上的核心指标
func (s *DashboardService) GetKpiSummary(days int) (*KpiSummary, error) {
	cutoff := cutoffDateKey(days)

	var emissions []models.FactCO2Emission
	if err := s.db.Where("date_key >= ?", cutoff).Find(&emissions).Error; err != nil {
		return nil, fmt.Errorf("读取排放事实失败: %w", err)
	}
	var production []models.FactEnergyProduction
	if err := s.db.Where("date_key >= ?", cutoff).Find(&production).Error; err != nil {
		return nil, fmt.Errorf("读取发电事实失败: %w", err)
	}
	var prices []models.FactElectricityPrice
	if err := s.db.Where("date_key >= ?", cutoff).Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("读取电价事实失败: %w", err)
	}

	joinKey := func(dateKey, timeKey, areaKey int) string {
		return fmt.Sprintf("%d|%d|%d", dateKey, timeKey, areaKey)
	}
	prodIdx := make(map[string]*models.FactEnergyProduction, len(production))
	for i := range production {
		f := &production[i]
		prodIdx[joinKey(f.DateKey, f.TimeKey, f.PriceAreaKey)] = f
	}
	priceIdx := make(map[string]*models.FactElectricityPrice, len(prices))
	for i := range prices {
		f := &prices[i]
		priceIdx[joinKey(f.DateKey, f.TimeKey, f.PriceAreaKey)] = f
	}

	summary := &KpiSummary{}
	daySet := make(map[int]struct{})
	var co2Sum, renewSum, priceSum float64
	var n int
	for i := range emissions {
		co2 := &emissions[i]
		key := joinKey(co2.DateKey, co2.TimeKey, co2.PriceAreaKey)
		prod, okP := prodIdx[key]
		price, okQ := priceIdx[key]
		if !okP || !okQ {
			continue
		}
		daySet[co2.DateKey] = struct{}{}
		co2Sum += co2.CO2EmissionGPerKWh
		renewSum += prod.RenewablePercentage
		priceSum += price.SpotPriceEUR
		summary.TotalEnergyProduction += prod.TotalProductionMWh
		summary.TotalEnergyConsumption += prod.GrossConsumptionMWh
		n++
	}
	if n > 0 {
		summary.TotalDays = len(daySet)
		summary.AvgCO2Intensity = co2Sum / float64(n)
		summary.AvgRenewablePercentage = renewSum / float64(n)
		summary.AvgElectricityPrice = priceSum / float64(n)
	}
	return summary, nil
}

// GetRenewableTrends 按(日期, 丹麦区域)的可再生趋势
func (s *DashboardService) GetRenewableTrends(days int) ([]RenewableTrendPoint, error) {
	areas, err := s.danishAreas()
	if err != nil {
		return nil, err
	}
	dates, err := s.dateLabels()
	if err != nil {
		return nil, err
	}

	var facts []models.FactEnergyProduction
	if err := s.db.Where("date_key >= ?", cutoffDateKey(days)).Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("读取发电事实失败: %w", err)
	}

	type acc struct {
		renewPct, windPct, solarPct float64
		renewMWh, prodMWh           float64
		n                           int
	}
	groups := make(map[string]*acc)
	for _, f := range facts {
		code, ok := areas[f.PriceAreaKey]
		if !ok {
			continue
		}
		date, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		gk := date + "|" + code
		a := groups[gk]
		if a == nil {
			a = &acc{}
			groups[gk] = a
		}
		a.renewPct += f.RenewablePercentage
		a.windPct += f.WindPercentage
		a.solarPct += f.SolarPercentage
		a.renewMWh += f.TotalRenewableMWh
		a.prodMWh += f.TotalProductionMWh
		a.n++
	}

	points := make([]RenewableTrendPoint, 0, len(groups))
	for gk, a := range groups {
		date, code := splitGroupKey(gk)
		points = append(points, RenewableTrendPoint{
			Date:                date,
			PriceArea:           code,
			RenewablePercentage: a.renewPct / float64(a.n),
			WindPercentage:      a.windPct / float64(a.n),
			SolarPercentage:     a.solarPct / float64(a.n),
			TotalRenewableMWh:   a.renewMWh,
			TotalProductionMWh:  a.prodMWh,
		})
	}
	sortByDateArea(points, func(p RenewableTrendPoint) (string, string) { return p.Date, p.PriceArea })
	return points, nil
}

// GetCO2Analysis 按(日期, 丹麦区域)的排放分析，含峰谷对比
func (s *DashboardService) GetCO2Analysis(days int) ([]CO2AnalysisPoint, error) {
	areas, err := s.danishAreas()
	if err != nil {
		return nil, err
	}
	dates, err := s.dateLabels()
	if err != nil {
		return nil, err
	}

	var facts []models.FactCO2Emission
	if err := s.db.Where("date_key >= ?", cutoffDateKey(days)).Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("读取排放事实失败: %w", err)
	}

	type acc struct {
		sum, min, max       float64
		n                   int
		peakSum, offpeakSum float64
		peakN, offpeakN     int
	}
	groups := make(map[string]*acc)
	for _, f := range facts {
		code, ok := areas[f.PriceAreaKey]
		if !ok {
			continue
		}
		date, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		gk := date + "|" + code
		a := groups[gk]
		if a == nil {
			a = &acc{min: math.Inf(1), max: math.Inf(-1)}
			groups[gk] = a
		}
		v := f.CO2EmissionGPerKWh
		a.sum += v
		a.n++
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
		if f.IsPeakHour {
			a.peakSum += v
			a.peakN++
		} else {
			a.offpeakSum += v
			a.offpeakN++
		}
	}

	points := make([]CO2AnalysisPoint, 0, len(groups))
	for gk, a := range groups {
		date, code := splitGroupKey(gk)
		p := CO2AnalysisPoint{
			Date:            date,
			PriceArea:       code,
			AvgCO2Intensity: a.sum / float64(a.n),
			MinCO2Intensity: a.min,
			MaxCO2Intensity: a.max,
			DataPoints:      a.n,
		}
		if a.peakN > 0 {
			p.PeakCO2Intensity = a.peakSum / float64(a.peakN)
		}
		if a.offpeakN > 0 {
			p.OffpeakCO2Intensity = a.offpeakSum / float64(a.offpeakN)
		}
		points = append(points, p)
	}
	sortByDateArea(points, func(p CO2AnalysisPoint) (string, string) { return p.Date, p.PriceArea })
	return points, nil
}

// GetPriceAnalysis 按(日期, 丹麦区域)的电价分析
func (s *DashboardService) GetPriceAnalysis(days int) ([]PriceAnalysisPoint, error) {
	areas, err := s.danishAreas()
	if err != nil {
		return nil, err
	}
	dates, err := s.dateLabels()
	if err != nil {
		return nil, err
	}

	var facts []models.FactElectricityPrice
	if err := s.db.Where("date_key >= ?", cutoffDateKey(days)).Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("读取电价事实失败: %w", err)
	}

	type acc struct {
		values              []float64
		sum, min, max       float64
		negative, spikes    int
		peakSum, offpeakSum float64
		peakN, offpeakN     int
	}
	groups := make(map[string]*acc)
	for _, f := range facts {
		code, ok := areas[f.PriceAreaKey]
		if !ok {
			continue
		}
		date, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		gk := date + "|" + code
		a := groups[gk]
		if a == nil {
			a = &acc{min: math.Inf(1), max: math.Inf(-1)}
			groups[gk] = a
		}
		v := f.SpotPriceEUR
		a.values = append(a.values, v)
		a.sum += v
		a.min = math.Min(a.min, v)
		a.max = math.Max(a.max, v)
		if f.IsNegativePrice {
			a.negative++
		}
		if f.IsPriceSpike {
			a.spikes++
		}
		if f.IsPeakHour {
			a.peakSum += v
			a.peakN++
		} else {
			a.offpeakSum += v
			a.offpeakN++
		}
	}

	points := make([]PriceAnalysisPoint, 0, len(groups))
	for gk, a := range groups {
		date, code := splitGroupKey(gk)
		n := len(a.values)
		mean := a.sum / float64(n)
		p := PriceAnalysisPoint{
			Date:               date,
			PriceArea:          code,
			AvgPriceEUR:        mean,
			MinPriceEUR:        a.min,
			MaxPriceEUR:        a.max,
			PriceVolatility:    stddev(a.values, mean),
			NegativePriceHours: a.negative,
			PriceSpikeHours:    a.spikes,
		}
		if a.peakN > 0 {
			p.PeakPriceEUR = a.peakSum / float64(a.peakN)
		}
		if a.offpeakN > 0 {
			p.OffpeakPriceEUR = a.offpeakSum / float64(a.offpeakN)
		}
		points = append(points, p)
	}
	sortByDateArea(points, func(p PriceAnalysisPoint) (string, string) { return p.Date, p.PriceArea })
	return points, nil
}

// GetHourlyPatterns 三事实表交集按(小时, 丹麦区域)的模式分析
func (s *DashboardService) GetHourlyPatterns(from, to time.Time) ([]HourlyPatternPoint, error) {
	if from.IsZero() {
		from = time.Now().UTC().AddDate(0, 0, -7)
	}
	if to.IsZero() {
		to = time.Now().UTC()
	}
	fromKey := dimension.DateKeyFor(from)
	toKey := dimension.DateKeyFor(to)

	areas, err := s.danishAreas()
	if err != nil {
		return nil, err
	}

	var emissions []models.FactCO2Emission
	if err := s.db.Where("date_key BETWEEN ? AND ?", fromKey, toKey).Find(&emissions).Error; err != nil {
		return nil, fmt.Errorf("读取排放事实失败: %w", err)
	}
	var production []models.FactEnergyProduction
	if err := s.db.Where("date_key BETWEEN ? AND ?", fromKey, toKey).Find(&production).Error; err != nil {
		return nil, fmt.Errorf("读取发电事实失败: %w", err)
	}
	var prices []models.FactElectricityPrice
	if err := s.db.Where("date_key BETWEEN ? AND ?", fromKey, toKey).Find(&prices).Error; err != nil {
		return nil, fmt.Errorf("读取电价事实失败: %w", err)
	}

	joinKey := func(dateKey, timeKey, areaKey int) string {
		return fmt.Sprintf("%d|%d|%d", dateKey, timeKey, areaKey)
	}
	prodIdx := make(map[string]*models.FactEnergyProduction, len(production))
	for i := range production {
		f := &production[i]
		prodIdx[joinKey(f.DateKey, f.TimeKey, f.PriceAreaKey)] = f
	}
	priceIdx := make(map[string]*models.FactElectricityPrice, len(prices))
	for i := range prices {
		f := &prices[i]
		priceIdx[joinKey(f.DateKey, f.TimeKey, f.PriceAreaKey)] = f
	}

	type acc struct {
		co2Sum, renewSum, priceSum float64
		prodMWh, consMWh           float64
		n                          int
	}
	groups := make(map[string]*acc)
	for i := range emissions {
		co2 := &emissions[i]
		code, ok := areas[co2.PriceAreaKey]
		if !ok {
			continue
		}
		key := joinKey(co2.DateKey, co2.TimeKey, co2.PriceAreaKey)
		prod, okP := prodIdx[key]
		price, okQ := priceIdx[key]
		if !okP || !okQ {
			continue
		}
		hour := co2.TimeKey / 100
		gk := fmt.Sprintf("%02d|%s", hour, code)
		a := groups[gk]
		if a == nil {
			a = &acc{}
			groups[gk] = a
		}
		a.co2Sum += co2.CO2EmissionGPerKWh
		a.renewSum += prod.RenewablePercentage
		a.priceSum += price.SpotPriceEUR
		a.prodMWh += prod.TotalProductionMWh
		a.consMWh += prod.GrossConsumptionMWh
		a.n++
	}

	points := make([]HourlyPatternPoint, 0, len(groups))
	for gk, a := range groups {
		var hour int
		var code string
		fmt.Sscanf(gk, "%02d|", &hour)
		code = gk[3:]
		points = append(points, HourlyPatternPoint{
			Hour:                   hour,
			PriceArea:              code,
			AvgCO2Intensity:        a.co2Sum / float64(a.n),
			AvgRenewablePercentage: a.renewSum / float64(a.n),
			AvgPriceEUR:            a.priceSum / float64(a.n),
			TotalProductionMWh:     a.prodMWh,
			TotalConsumptionMWh:    a.consMWh,
			DataPoints:             a.n,
		})
	}
	sort.Slice(points, func(i, j int) bool {
		if points[i].Hour != points[j].Hour {
			return points[i].Hour < points[j].Hour
		}
		return points[i].PriceArea < points[j].PriceArea
	})
	return points, nil
}

// GetEnergyMix 按(日期, 丹麦区域)的能源结构拆分
func (s *DashboardService) GetEnergyMix(days int) ([]EnergyMixPoint, error) {
	areas, err := s.danishAreas()
	if err != nil {
		return nil, err
	}
	dates, err := s.dateLabels()
	if err != nil {
		return nil, err
	}

	var facts []models.FactEnergyProduction
	if err := s.db.Where("date_key >= ?", cutoffDateKey(days)).Find(&facts).Error; err != nil {
		return nil, fmt.Errorf("读取发电事实失败: %w", err)
	}

	groups := make(map[string]*EnergyMixPoint)
	for _, f := range facts {
		code, ok := areas[f.PriceAreaKey]
		if !ok {
			continue
		}
		date, ok := dates[f.DateKey]
		if !ok {
			continue
		}
		gk := date + "|" + code
		p := groups[gk]
		if p == nil {
			p = &EnergyMixPoint{Date: date, PriceArea: code}
			groups[gk] = p
		}
		p.OffshoreWindMWh += f.OffshoreWindMWh
		p.OnshoreWindMWh += f.OnshoreWindMWh
		p.SolarMWh += f.SolarPowerMWh
		p.HydroMWh += f.HydroPowerMWh
		p.ConventionalMWh += f.CentralPowerMWh + f.LocalPowerMWh + f.CommercialPowerMWh
		p.TotalProductionMWh += f.TotalProductionMWh
	}

	points := make([]EnergyMixPoint, 0, len(groups))
	for _, p := range groups {
		points = append(points, *p)
	}
	sortByDateArea(points, func(p EnergyMixPoint) (string, string) { return p.Date, p.PriceArea })
	return points, nil
}

// stddev 样本标准差
func stddev(values []float64, mean float64) float64 {
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

// splitGroupKey 拆分"日期|区域"分组键
func splitGroupKey(gk string) (string, string) {
	for i := 0; i < len(gk); i++ {
		if gk[i] == '|' {
			return gk[:i], gk[i+1:]
		}
	}
	return gk, ""
}

// sortByDateArea 按(日期, 区域)排序任意分析点切片
func sortByDateArea[T any](points []T, key func(T) (string, string)) {
	sort.Slice(points, func(i, j int) bool {
		di, ai := key(points[i])
		dj, aj := key(points[j])
		if di != dj {
			return di < dj
		}
		return ai < aj
	})
}
