/*
 * @module service/warehouse/transform_emissions
 * @description CO2排放原始记录到事实表的转换，含区间剔除与排放等级分类
 * @architecture 服务层 - 排放转换
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取原始记录 -> 矫正度量 -> 区间剔除 -> 维度解析 -> 差集写入
 * @rules co2排放合法区间[0, 1000] g/kWh，越界剔除，维度缺口丢弃并告警
 * @dependencies gorm.io/gorm
 * @refs service/warehouse/pipeline
 */

package warehouse

import (
	"fmt"
	"log/slog"
	"time"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
)

// TransformEmissions 将CO2排放原始记录转换进事实表
func (s *TransformService) TransformEmissions() (*TransformResult, error) {
	result := &TransformResult{Dataset: meta.DatasetCO2Emissions}

	var raws []models.RawCO2Emission
	if err := s.db.Order("timestamp_utc, price_area").Find(&raws).Error; err != nil {
		return nil, fmt.Errorf("读取CO2排放原始记录失败: %w", err)
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
	existing, err := s.existingFactKeys(&models.FactCO2Emission{}, minTs, maxTs)
	if err != nil {
		return nil, err
	}

	var facts []models.FactCO2Emission
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		co2 := s.conv.CoerceFloat(raw.CO2Emission)
		if !s.conv.InRange(co2, meta.CO2EmissionMin, meta.CO2EmissionMax) {
			result.RowsExcluded++
			continue
		}

		dateKey, timeKey, areaKey, isWeekend, ok := idx.resolve(raw.TimestampUTC, raw.PriceArea)
		if !ok {
			result.RowsDropped++
			result.AddWarning("排放记录维度缺口: timestamp=%s area=%s", raw.TimestampUTC.UTC().Format("2006-01-02T15:04:05Z"), raw.PriceArea)
			continue
		}

		key := factKey(raw.TimestampUTC, areaKey)
		if _, dup := existing[key]; dup {
			result.RowsExisting++
			continue
		}
		if _, dup := seen[key]; dup {
			result.RowsExisting++
			continue
		}
		seen[key] = struct{}{}

		facts = append(facts, models.FactCO2Emission{
			TimestampUTC:       raw.TimestampUTC.UTC(),
			DateKey:            dateKey,
			TimeKey:            timeKey,
			PriceAreaKey:       areaKey,
			CO2EmissionGPerKWh: co2,
			EmissionLevel:      meta.EmissionClassification.Classify(co2),
			IsPeakHour:         meta.IsPeakHour(raw.TimestampUTC.UTC().Hour()),
			IsWeekend:          isWeekend,
		})
	}

	if len(facts) > 0 {
		if err := s.db.CreateInBatches(facts, 500).Error; err != nil {
			return nil, fmt.Errorf("写入CO2排放事实失败: %w", err)
		}
	}
	result.RowsNew = int64(len(facts))
	slog.Info("CO2排放转换完成", "read", result.RowsRead, "new", result.RowsNew,
		"existing", result.RowsExisting, "excluded", result.RowsExcluded, "dropped", result.RowsDropped)
	return result, nil
}
