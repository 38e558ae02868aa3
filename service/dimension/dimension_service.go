/*
 * @module service/dimension/dimension_service
 * @description 维度构建服务，幂等生成日期维、时间维与电价区域维
 * @architecture 服务层 - 维度构建
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 查询已有维度成员 -> 生成缺失成员 -> 批量写入
 * @rules 维度键确定性派生，重复构建跳过已有成员，起始日期晚于结束日期视为参数错误
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/pipeline
 */

package dimension

import (
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
)

// DimensionService 维度构建服务
type DimensionService struct {
	db *gorm.DB
}

// NewDimensionService 创建维度构建服务实例
func NewDimensionService(db *gorm.DB) *DimensionService {
	return &DimensionService{db: db}
}

// BuildResult 维度构建结果
type BuildResult struct {
	Created int64 `json:"created"`
	Skipped int64 `json:"skipped"`
}

// BuildDateDimension 构建[start, end]闭区间内的日期维度成员
func (s *DimensionService) BuildDateDimension(start, end time.Time) (*BuildResult, error) {
	start = start.UTC().Truncate(24 * time.Hour)
	end = end.UTC().Truncate(24 * time.Hour)
	if start.After(end) {
		return nil, fmt.Errorf("起始日期 %s 晚于结束日期 %s", start.Format("2006-01-02"), end.Format("2006-01-02"))
	}

	var existing []int
	if err := s.db.Model(&models.DimDate{}).
		Where("date_key >= ? AND date_key <= ?", DateKeyFor(start), DateKeyFor(end)).
		Pluck("date_key", &existing).Error; err != nil {
		return nil, fmt.Errorf("查询已有日期维度失败: %w", err)
	}
	existingSet := make(map[int]struct{}, len(existing))
	for _, k := range existing {
		existingSet[k] = struct{}{}
	}

	result := &BuildResult{}
	var rows []models.DimDate
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := DateKeyFor(d)
		if _, ok := existingSet[key]; ok {
			result.Skipped++
			continue
		}
		rows = append(rows, buildDateRow(d))
	}

	if len(rows) > 0 {
		if err := s.db.CreateInBatches(rows, 500).Error; err != nil {
			return nil, fmt.Errorf("写入日期维度失败: %w", err)
		}
	}
	result.Created = int64(len(rows))
	slog.Info("日期维度构建完成", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// BuildTimeDimension 构建全天288个5分钟槽位的时间维度
func (s *DimensionService) BuildTimeDimension() (*BuildResult, error) {
	var existing []int
	if err := s.db.Model(&models.DimTime{}).Pluck("time_key", &existing).Error; err != nil {
		return nil, fmt.Errorf("查询已有时间维度失败: %w", err)
	}
	existingSet := make(map[int]struct{}, len(existing))
	for _, k := range existing {
		existingSet[k] = struct{}{}
	}

	result := &BuildResult{}
	var rows []models.DimTime
	for slot := 0; slot < meta.TimeSlotsPerDay; slot++ {
		hour := slot * meta.TimeSlotMinutes / 60
		minute := slot * meta.TimeSlotMinutes % 60
		key := hour*100 + minute
		if _, ok := existingSet[key]; ok {
			result.Skipped++
			continue
		}
		rows = append(rows, models.DimTime{
			TimeKey:        key,
			Hour:           hour,
			Minute:         minute,
			TimeLabel:      fmt.Sprintf("%02d:%02d", hour, minute),
			PeriodOfDay:    meta.PeriodOfDayForHour(hour),
			IsPeakHour:     meta.IsPeakHour(hour),
			SolarPotential: meta.SolarPotentialForHour(hour),
		})
	}

	if len(rows) > 0 {
		if err := s.db.CreateInBatches(rows, 500).Error; err != nil {
			return nil, fmt.Errorf("写入时间维度失败: %w", err)
		}
	}
	result.Created = int64(len(rows))
	slog.Info("时间维度构建完成", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// BuildPriceAreaDimension 构建电价区域维度
func (s *DimensionService) BuildPriceAreaDimension() (*BuildResult, error) {
	var existing []string
	if err := s.db.Model(&models.DimPriceArea{}).Pluck("area_code", &existing).Error; err != nil {
		return nil, fmt.Errorf("查询已有区域维度失败: %w", err)
	}
	existingSet := make(map[string]struct{}, len(existing))
	for _, code := range existing {
		existingSet[code] = struct{}{}
	}

	result := &BuildResult{}
	var rows []models.DimPriceArea
	for _, seed := range meta.PriceAreaSeeds {
		if _, ok := existingSet[seed.AreaCode]; ok {
			result.Skipped++
			continue
		}
		rows = append(rows, models.DimPriceArea{
			AreaCode:     seed.AreaCode,
			AreaName:     seed.AreaName,
			Country:      seed.Country,
			Region:       seed.Region,
			IsDanishArea: seed.IsDanishArea,
			GridOperator: seed.GridOperator,
			Timezone:     seed.Timezone,
		})
	}

	if len(rows) > 0 {
		if err := s.db.Create(&rows).Error; err != nil {
			return nil, fmt.Errorf("写入区域维度失败: %w", err)
		}
	}
	result.Created = int64(len(rows))
	slog.Info("电价区域维度构建完成", "created", result.Created, "skipped", result.Skipped)
	return result, nil
}

// DateKeyFor 计算日期的YYYYMMDD整型代理键
func DateKeyFor(t time.Time) int {
	return t.Year()*10000 + int(t.Month())*100 + t.Day()
}

// TimeKeyFor 计算时间戳对应的时间维代理键，分钟向下取整到5分钟槽位
func TimeKeyFor(t time.Time) int {
	minute := t.Minute() - t.Minute()%meta.TimeSlotMinutes
	return t.Hour()*100 + minute
}

// buildDateRow 派生单个日期维度成员的全部属性
func buildDateRow(d time.Time) models.DimDate {
	isoYear, isoWeek := d.ISOWeek()
	dow := int(d.Weekday())
	if dow == 0 {
		dow = 7 // 周日排最后
	}
	nextDay := d.AddDate(0, 0, 1)
	return models.DimDate{
		DateKey:      DateKeyFor(d),
		FullDate:     d,
		Year:         d.Year(),
		Quarter:      (int(d.Month())-1)/3 + 1,
		Month:        int(d.Month()),
		MonthName:    d.Month().String(),
		Week:         isoWeek,
		DayOfYear:    d.YearDay(),
		DayOfMonth:   d.Day(),
		DayOfWeek:    dow,
		DayName:      d.Weekday().String(),
		IsWeekend:    dow >= 6,
		Season:       meta.SeasonForMonth(int(d.Month())),
		YearMonth:    d.Format("2006-01"),
		ISOYear:      isoYear,
		ISOWeek:      isoWeek,
		IsMonthStart: d.Day() == 1,
		IsMonthEnd:   nextDay.Day() == 1,
	}
}
