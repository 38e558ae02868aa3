/*
 * @module service/warehouse/transform_production
 * @description 发电结构原始记录到事实表的转换，含风光水聚合与可再生占比派生
 * @architecture 服务层 - 发电转换
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 读取原始记录 -> 矫正度量 -> 聚合装机类别 -> 派生占比 -> 差集写入
 * @rules 可再生占比分母不含未知来源发电，总发电为0时各占比为0
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

// TransformProduction 将发电结算原始记录转换进事实表
func (s *TransformService) TransformProduction() (*TransformResult, error) {
	result := &TransformResult{Dataset: meta.DatasetEnergyProduction}

	var raws []models.RawEnergyProduction
	if err := s.db.Order("timestamp_utc, price_area").Find(&raws).Error; err != nil {
		return nil, fmt.Errorf("读取发电结算原始记录失败: %w", err)
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
	existing, err := s.existingFactKeys(&models.FactEnergyProduction{}, minTs, maxTs)
	if err != nil {
		return nil, err
	}

	var facts []models.FactEnergyProduction
	seen := make(map[string]struct{}, len(raws))
	for _, raw := range raws {
		dateKey, timeKey, areaKey, isWeekend, ok := idx.resolve(raw.TimestampUTC, raw.PriceArea)
		if !ok {
			result.RowsDropped++
			result.AddWarning("发电记录维度缺口: timestamp=%s area=%s", raw.TimestampUTC.UTC().Format("2006-01-02T15:04:05Z"), raw.PriceArea)
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

		facts = append(facts, s.buildProductionFact(&raw, dateKey, timeKey, areaKey, isWeekend))
	}

	if len(facts) > 0 {
		if err := s.db.CreateInBatches(facts, 500).Error; err != nil {
			return nil, fmt.Errorf("写入发电事实失败: %w", err)
		}
	}
	result.RowsNew = int64(len(facts))
	slog.Info("发电结构转换完成", "read", result.RowsRead, "new", result.RowsNew,
		"existing", result.RowsExisting, "dropped", result.RowsDropped)
	return result, nil
}

// buildProductionFact 从单条原始记录派生完整发电事实
func (s *TransformService) buildProductionFact(raw *models.RawEnergyProduction, dateKey, timeKey, areaKey int, isWeekend bool) models.FactEnergyProduction {
	offshoreWind := s.conv.CoerceFloat(raw.OffshoreWindLt100MWMWh) + s.conv.CoerceFloat(raw.OffshoreWindGe100MWMWh)
	onshoreWind := s.conv.CoerceFloat(raw.OnshoreWindLt50kWMWh) + s.conv.CoerceFloat(raw.OnshoreWindGe50kWMWh)
	totalWind := offshoreWind + onshoreWind
	solar := s.conv.CoerceFloat(raw.SolarPowerLt10kWMWh) +
		s.conv.CoerceFloat(raw.SolarPowerGe10Lt40kWMWh) +
		s.conv.CoerceFloat(raw.SolarPowerGe40kWMWh)
	hydro := s.conv.CoerceFloat(raw.HydroPowerMWh)

	central := s.conv.CoerceFloat(raw.CentralPowerMWh)
	local := s.conv.CoerceFloat(raw.LocalPowerMWh)
	commercial := s.conv.CoerceFloat(raw.CommercialPowerMWh)
	unknown := s.conv.CoerceFloat(raw.UnknownProdMWh)

	totalRenewable := totalWind + solar + hydro
	// 可再生占比的分母不含未知来源发电
	totalProduction := central + local + commercial + totalWind + solar + hydro

	var renewablePct, windPct, solarPct float64
	if totalProduction > 0 {
		renewablePct = totalRenewable / totalProduction * 100
		windPct = totalWind / totalProduction * 100
		solarPct = solar / totalProduction * 100
	}

	consumption := s.conv.CoerceFloat(raw.GrossConsumptionMWh)
	gridLoss := s.conv.CoerceFloat(raw.GridLossTransmissionMWh)
	var gridEfficiency float64
	if consumption > 0 {
		gridEfficiency = (consumption - gridLoss) / consumption * 100
	}

	return models.FactEnergyProduction{
		TimestampUTC: raw.TimestampUTC.UTC(),
		DateKey:      dateKey,
		TimeKey:      timeKey,
		PriceAreaKey: areaKey,

		CentralPowerMWh:    central,
		LocalPowerMWh:      local,
		CommercialPowerMWh: commercial,
		OffshoreWindMWh:    offshoreWind,
		OnshoreWindMWh:     onshoreWind,
		TotalWindMWh:       totalWind,
		SolarPowerMWh:      solar,
		HydroPowerMWh:      hydro,
		UnknownProdMWh:     unknown,

		TotalProductionMWh:  totalProduction,
		TotalRenewableMWh:   totalRenewable,
		RenewablePercentage: renewablePct,
		WindPercentage:      windPct,
		SolarPercentage:     solarPct,
		RenewableCategory:   meta.RenewableClassification.Classify(renewablePct),

		GrossConsumptionMWh:     consumption,
		GridLossTransmissionMWh: gridLoss,
		GridEfficiencyPct:       gridEfficiency,

		IsPeakHour: meta.IsPeakHour(raw.TimestampUTC.UTC().Hour()),
		IsWeekend:  isWeekend,
	}
}
