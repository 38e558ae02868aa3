/*
 * @module service/warehouse/transform_service
 * @description 事实转换公共设施，维度索引装载、已有事实键集合与转换结果统计
 * @architecture 服务层 - 转换公共层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 装载维度索引 -> 查询已有事实键 -> 差集转换 -> 单次批量写入
 * @rules 幂等以(timestamp_utc, price_area_key)存在性判定，维度缺口行丢弃并告警
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/transform_emissions, transform_production, transform_prices
 */

package warehouse

import (
	"fmt"
	"time"

	"gorm.io/gorm"

	"energyhub-service/service/dimension"
	"energyhub-service/service/models"
	"energyhub-service/service/utils"
)

// TransformService 原始层到事实层的转换服务
type TransformService struct {
	db   *gorm.DB
	conv *utils.DataConverter
}

// NewTransformService 创建转换服务实例
func NewTransformService(db *gorm.DB) *TransformService {
	return &TransformService{db: db, conv: utils.NewDataConverter()}
}

// TransformResult 单数据集转换结果
type TransformResult struct {
	Dataset      string   `json:"dataset"`
	RowsRead     int64    `json:"rows_read"`
	RowsNew      int64    `json:"rows_new"`
	RowsExisting int64    `json:"rows_existing"`
	RowsExcluded int64    `json:"rows_excluded"`
	RowsDropped  int64    `json:"rows_dropped"`
	Warnings     []string `json:"warnings,omitempty"`
}

// AddWarning 追加一条告警
func (r *TransformResult) AddWarning(format string, args ...interface{}) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// dimIndex 维度索引快照，转换期间在内存中复用
type dimIndex struct {
	areaKeys map[string]int          // area_code -> price_area_key
	dates    map[int]*models.DimDate // date_key -> 日期维成员
	timeKeys map[int]struct{}        // time_key 存在性
}

// loadDimIndex 将三个维度表装入内存索引
func (s *TransformService) loadDimIndex() (*dimIndex, error) {
	idx := &dimIndex{
		areaKeys: make(map[string]int),
		dates:    make(map[int]*models.DimDate),
		timeKeys: make(map[int]struct{}),
	}

	var areas []models.DimPriceArea
	if err := s.db.Find(&areas).Error; err != nil {
		return nil, fmt.Errorf("装载区域维度失败: %w", err)
	}
	for _, a := range areas {
		idx.areaKeys[a.AreaCode] = a.PriceAreaKey
	}

	var dates []models.DimDate
	if err := s.db.Find(&dates).Error; err != nil {
		return nil, fmt.Errorf("装载日期维度失败: %w", err)
	}
	for i := range dates {
		idx.dates[dates[i].DateKey] = &dates[i]
	}

	var timeKeys []int
	if err := s.db.Model(&models.DimTime{}).Pluck("time_key", &timeKeys).Error; err != nil {
		return nil, fmt.Errorf("装载时间维度失败: %w", err)
	}
	for _, k := range timeKeys {
		idx.timeKeys[k] = struct{}{}
	}

	return idx, nil
}

// resolve 解析一条原始记录的维度键，任一维度缺口返回false
func (idx *dimIndex) resolve(ts time.Time, area string) (dateKey, timeKey, areaKey int, isWeekend, ok bool) {
	areaKey, ok = idx.areaKeys[area]
	if !ok {
		return 0, 0, 0, false, false
	}
	dateKey = dimension.DateKeyFor(ts)
	d, ok := idx.dates[dateKey]
	if !ok {
		return 0, 0, 0, false, false
	}
	timeKey = dimension.TimeKeyFor(ts)
	if _, ok = idx.timeKeys[timeKey]; !ok {
		return 0, 0, 0, false, false
	}
	return dateKey, timeKey, areaKey, d.IsWeekend, true
}

// factKey 事实唯一键的内存表示
func factKey(ts time.Time, areaKey int) string {
	return fmt.Sprintf("%d|%d", ts.UTC().Unix(), areaKey)
}

// existingFactKeys 查询事实表在[minTs, maxTs]窗口内已有的(时间戳, 区域键)集合
func (s *TransformService) existingFactKeys(model interface{}, minTs, maxTs time.Time) (map[string]struct{}, error) {
	type keyRow struct {
		TimestampUTC time.Time
		PriceAreaKey int
	}
	var rows []keyRow
	if err := s.db.Model(model).
		Select("timestamp_utc, price_area_key").
		Where("timestamp_utc >= ? AND timestamp_utc <= ?", minTs, maxTs).
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询已有事实键失败: %w", err)
	}
	keys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		keys[factKey(r.TimestampUTC, r.PriceAreaKey)] = struct{}{}
	}
	return keys, nil
}

// rawWindow 计算原始批次的时间窗口
func rawWindow(times []time.Time) (minTs, maxTs time.Time) {
	for _, t := range times {
		if minTs.IsZero() || t.Before(minTs) {
			minTs = t
		}
		if maxTs.IsZero() || t.After(maxTs) {
			maxTs = t
		}
	}
	return minTs, maxTs
}
