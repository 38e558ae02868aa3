/*
 * @module service/warehouse/transform_prices
 * @description 现货电价原始记录到事实表的转换，含区域内价格滞后与异常标记
 * @architecture 服务层 - 电价转换
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取原始记录 -> 区间剔除 -> 按区域稳定排序 -> 滞后派生 -> 差集写入
 * @rules 欧元价合法区间[-1000, 5000]，区域首行滞后值取事实表中该区域最后一行
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/pipeline
 */

package warehouse

import (
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
)

// TransformPrices 将现货电价原始记录转换进事实表
func (s *TransformService) TransformPrices() (*TransformResult, error) {
	result := &TransformResult{Dataset: meta.DatasetElectricityPrices}

	var raws []models.RawElectricityPrice
	if err := s.db.Order("timestamp_utc, price_area").Find(&raws).Error; err != nil {
		return nil, fmt.Errorf("读取电价原始记录失败: %w", err)
	}
	result.RowsRead = int64(len(raws))
	if len(raws) == 0 {
		return result, nil
	}

	idx, err := s.loadDimIndex()
	if err != nil {
		return nil, err
	}

	times := make([]time.Time, 0, len(raws))
	for _, raw := range raws {
		times = append(times, raw.TimestampUTC)
	}
	minTs, maxTs := rawWindow(times)
	existing, err := s.existingFactKeys(&models.FactElectricityPrice{}, minTs, maxTs)
	if err != nil {
		return nil, err
	}

	// 按区域分组，组内按时间戳稳定排序，保证滞后派生顺序确定
	byArea := make(map[string][]*models.RawElectricityPrice)
	var areaOrder []string
	for i := range raws {
		raw := &raws[i]
		if _, ok := byArea[raw.PriceArea]; !ok {
			areaOrder = append(areaOrder, raw.PriceArea)
		}
		byArea[raw.PriceArea] = append(byArea[raw.PriceArea], raw)
	}
	sort.Strings(areaOrder)

	var facts []models.FactElectricityPrice
	seen := make(map[string]struct{}, len(raws))
	for _, area := range areaOrder {
		rows := byArea[area]
		sort.SliceStable(rows, func(i, j int) bool {
			return rows[i].TimestampUTC.Before(rows[j].TimestampUTC)
		})

		areaKey, hasArea := idx.areaKeys[area]
		prevPrice, hasPrev := 0.0, false
		if hasArea {
			prevPrice, hasPrev = s.lastFactPrice(areaKey, rows[0].TimestampUTC)
		}

		for _, raw := range rows {
			priceEUR := s.conv.CoerceFloat(raw.SpotPriceEUR)
			if !s.conv.InRange(priceEUR, meta.SpotPriceEurMin, meta.SpotPriceEurMax) {
				result.RowsExcluded++
				continue
			}

			dateKey, timeKey, rowAreaKey, isWeekend, ok := idx.resolve(raw.TimestampUTC, raw.PriceArea)
			if !ok {
				result.RowsDropped++
				result.AddWarning("电价记录维度缺口: timestamp=%s area=%s", raw.TimestampUTC.UTC().Format("2006-01-02T15:04:05Z"), raw.PriceArea)
				continue
			}

			key := factKey(raw.TimestampUTC, rowAreaKey)
			if _, dup := existing[key]; dup {
				result.RowsExisting++
				prevPrice, hasPrev = priceEUR, true
				continue
			}
			if _, dup := seen[key]; dup {
				result.RowsExisting++
				continue
			}
			seen[key] = struct{}{}

			var priceChange float64
			if hasPrev {
				priceChange = priceEUR - prevPrice
			}
			volatility := math.Abs(priceChange)

			facts = append(facts, models.FactElectricityPrice{
				TimestampUTC: raw.TimestampUTC.UTC(),
				DateKey:      dateKey,
				TimeKey:      timeKey,
				PriceAreaKey: rowAreaKey,

				SpotPriceDKK:    s.conv.CoerceFloat(raw.SpotPriceDKK),
				SpotPriceEUR:    priceEUR,
				PriceCategory:   meta.PriceClassification.Classify(priceEUR),
				PriceChange:     priceChange,
				PriceVolatility: volatility,

				IsNegativePrice: priceEUR < 0,
				IsPriceSpike:    volatility > meta.PriceSpikeThreshold,
				IsExtremeHigh:   priceEUR > meta.PriceExtremeHighThreshold,
				IsVeryLowPrice:  priceEUR < meta.PriceVeryLowThreshold,
				IsPeakHour:      meta.IsPeakHour(raw.TimestampUTC.UTC().Hour()),
				IsWeekend:       isWeekend,
			})
			prevPrice, hasPrev = priceEUR, true
		}
	}

	if len(facts) > 0 {
		if err := s.db.CreateInBatches(facts, 500).Error; err != nil {
			return nil, fmt.Errorf("写入电价事实失败: %w", err)
		}
	}
	result.RowsNew = int64(len(facts))
	slog.Info("电价转换完成", "read", result.RowsRead, "new", result.RowsNew,
		"existing", result.RowsExisting, "excluded", result.RowsExcluded, "dropped", result.RowsDropped)
	return result, nil
}

// lastFactPrice 查询区域在给定时点之前最后一条事实行的欧元价，用作首行滞后种子
func (s *TransformService) lastFactPrice(areaKey int, before time.Time) (float64, bool) {
	var fact models.FactElectricityPrice
	err := s.db.Where("price_area_key = ? AND timestamp_utc < ?", areaKey, before).
		Order("timestamp_utc DESC").
		First(&fact).Error
	if err != nil {
		return 0, false
	}
	return fact.SpotPriceEUR, true
}
