/*
 * @module service/ingestion/extract_service
 * @description 抽取服务，从能源数据服务接口拉取记录写入原始层
 * @architecture 服务层 - 抽取
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 拉取接口记录 -> 解析时间戳 -> 跳过已有(时间戳, 区域) -> 批量写入原始层
 * @rules 数值字段原样以文本落地，时间戳解析失败的记录跳过并告警
 * @dependencies gorm.io/gorm
 * @refs client/energidataservice_client, service/warehouse
 */

package ingestion

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"energyhub-service/client"
	"energyhub-service/client/connectors"
	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/service/monitoring"
	"energyhub-service/service/utils"
)

// ExtractService 接口抽取服务
type ExtractService struct {
	db      *gorm.DB
	client  *client.EnergiDataClient
	conv    *utils.DataConverter
	scripts *ScriptExecutor
}

// NewExtractService 创建抽取服务实例
func NewExtractService(db *gorm.DB, c *client.EnergiDataClient) *ExtractService {
	return &ExtractService{
		db:      db,
		client:  c,
		conv:    utils.NewDataConverter(),
		scripts: NewScriptExecutor(),
	}
}

// ExtractResult 单数据集抽取结果
type ExtractResult struct {
	Dataset      string   `json:"dataset"`
	RecordsTotal int64    `json:"records_total"`
	RowsNew      int64    `json:"rows_new"`
	RowsExisting int64    `json:"rows_existing"`
	RowsSkipped  int64    `json:"rows_skipped"`
	Warnings     []string `json:"warnings,omitempty"`
}

// ExtractOptions 抽取参数
type ExtractOptions struct {
	Start  time.Time
	End    time.Time
	Limit  int
	Script string // 可选的记录预处理脚本
}

// Extract 按数据集名抽取时间窗口内的记录
func (s *ExtractService) Extract(ctx context.Context, dataset string, opts ExtractOptions) (*ExtractResult, error) {
	sourceDataset, ok := meta.EnergiDataServiceDatasets[dataset]
	if !ok {
		return nil, fmt.Errorf("未知数据集: %s", dataset)
	}

	resp, err := s.client.FetchRecords(ctx, sourceDataset, client.FetchOptions{
		Start: opts.Start,
		End:   opts.End,
		Limit: opts.Limit,
	})
	if err != nil {
		return nil, err
	}

	records := resp.Records
	if opts.Script != "" {
		records, err = s.runPreprocessScript(ctx, dataset, opts, records)
		if err != nil {
			return nil, err
		}
	}

	result := &ExtractResult{Dataset: dataset, RecordsTotal: int64(len(records))}
	switch dataset {
	case meta.DatasetCO2Emissions:
		err = s.storeEmissions(records, result, "api:CO2Emis")
	case meta.DatasetEnergyProduction:
		err = s.storeProduction(records, result, "api:ProductionConsumptionSettlement")
	case meta.DatasetElectricityPrices:
		err = s.storePrices(records, result, "api:Elspotprices")
	}
	if err != nil {
		return nil, err
	}

	monitoring.IngestRecordsTotal.WithLabelValues(dataset).Add(float64(result.RowsNew))
	slog.Info("接口抽取完成", "dataset", dataset, "total", result.RecordsTotal,
		"new", result.RowsNew, "existing", result.RowsExisting, "skipped", result.RowsSkipped)
	return result, nil
}

// StoreRealtimeEmission 将一条MQTT实时排放消息写入原始层，已有(时间戳, 区域)跳过
func (s *ExtractService) StoreRealtimeEmission(e *connectors.RealtimeEmission) error {
	tsUTC, err := s.conv.ParseTimestamp(e.Minutes5UTC)
	if err != nil {
		return fmt.Errorf("实时排放时间戳无法解析: %s", e.Minutes5UTC)
	}
	tsDK := tsUTC
	if t, err := s.conv.ParseTimestamp(e.Minutes5DK); err == nil {
		tsDK = t
	}

	var count int64
	if err := s.db.Model(&models.RawCO2Emission{}).
		Where("timestamp_utc = ? AND price_area = ?", tsUTC, e.PriceArea).
		Count(&count).Error; err != nil {
		return fmt.Errorf("查询原始排放记录失败: %w", err)
	}
	if count > 0 {
		return nil
	}

	row := models.RawCO2Emission{
		TimestampUTC: tsUTC,
		TimestampDK:  tsDK,
		PriceArea:    e.PriceArea,
		CO2Emission:  e.CO2Emission,
		SourceFile:   "mqtt:realtime",
	}
	if err := s.db.Create(&row).Error; err != nil {
		return fmt.Errorf("写入实时排放记录失败: %w", err)
	}
	monitoring.IngestRecordsTotal.WithLabelValues(meta.DatasetCO2Emissions).Inc()
	return nil
}

// runPreprocessScript 执行记录预处理脚本，脚本返回处理后的记录切片
func (s *ExtractService) runPreprocessScript(ctx context.Context, dataset string, opts ExtractOptions, records []map[string]interface{}) ([]map[string]interface{}, error) {
	params := map[string]interface{}{
		"records":     records,
		"dataset":     dataset,
		"windowStart": opts.Start,
		"windowEnd":   opts.End,
	}
	out, err := s.scripts.Execute(ctx, opts.Script, params)
	if err != nil {
		return nil, fmt.Errorf("预处理脚本执行失败: %w", err)
	}
	switch v := out.(type) {
	case nil:
		return records, nil
	case []map[string]interface{}:
		return v, nil
	case []interface{}:
		converted := make([]map[string]interface{}, 0, len(v))
		for _, item := range v {
			if m, ok := item.(map[string]interface{}); ok {
				converted = append(converted, m)
			}
		}
		return converted, nil
	default:
		return nil, fmt.Errorf("预处理脚本返回类型不支持: %T", out)
	}
}

// parseRecordTime 解析记录中的UTC与本地时间戳字段
func (s *ExtractService) parseRecordTime(record map[string]interface{}, utcField, dkField string) (time.Time, time.Time, error) {
	utcStr := s.conv.ToString(record[utcField])
	tsUTC, err := s.conv.ParseTimestamp(utcStr)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	tsDK := tsUTC
	if dkStr := s.conv.ToString(record[dkField]); dkStr != "" {
		if t, err := s.conv.ParseTimestamp(dkStr); err == nil {
			tsDK = t
		}
	}
	return tsUTC, tsDK, nil
}

// rawKeySet 查询原始表已有的(时间戳, 区域)集合
func (s *ExtractService) rawKeySet(model interface{}) (map[string]struct{}, error) {
	type keyRow struct {
		TimestampUTC time.Time
		PriceArea    string
	}
	var rows []keyRow
	if err := s.db.Model(model).Select("timestamp_utc, price_area").Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("查询原始层已有键失败: %w", err)
	}
	keys := make(map[string]struct{}, len(rows))
	for _, r := range rows {
		keys[fmt.Sprintf("%d|%s", r.TimestampUTC.UTC().Unix(), r.PriceArea)] = struct{}{}
	}
	return keys, nil
}

func (s *ExtractService) storeEmissions(records []map[string]interface{}, result *ExtractResult, sourceFile string) error {
	existing, err := s.rawKeySet(&models.RawCO2Emission{})
	if err != nil {
		return err
	}

	var rows []models.RawCO2Emission
	for _, rec := range records {
		tsUTC, tsDK, err := s.parseRecordTime(rec, "Minutes5UTC", "Minutes5DK")
		if err != nil {
			result.RowsSkipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("排放记录时间戳无法解析: %v", rec["Minutes5UTC"]))
			continue
		}
		area := s.conv.ToString(rec["PriceArea"])
		key := fmt.Sprintf("%d|%s", tsUTC.Unix(), area)
		if _, ok := existing[key]; ok {
			result.RowsExisting++
			continue
		}
		existing[key] = struct{}{}
		rows = append(rows, models.RawCO2Emission{
			TimestampUTC: tsUTC,
			TimestampDK:  tsDK,
			PriceArea:    area,
			CO2Emission:  s.conv.ToString(rec["CO2Emission"]),
			SourceFile:   sourceFile,
		})
	}
	return s.insertRaw(rows, result)
}

func (s *ExtractService) storeProduction(records []map[string]interface{}, result *ExtractResult, sourceFile string) error {
	existing, err := s.rawKeySet(&models.RawEnergyProduction{})
	if err != nil {
		return err
	}

	var rows []models.RawEnergyProduction
	for _, rec := range records {
		tsUTC, tsDK, err := s.parseRecordTime(rec, "HourUTC", "HourDK")
		if err != nil {
			result.RowsSkipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("发电记录时间戳无法解析: %v", rec["HourUTC"]))
			continue
		}
		area := s.conv.ToString(rec["PriceArea"])
		key := fmt.Sprintf("%d|%s", tsUTC.Unix(), area)
		if _, ok := existing[key]; ok {
			result.RowsExisting++
			continue
		}
		existing[key] = struct{}{}
		rows = append(rows, models.RawEnergyProduction{
			TimestampUTC:            tsUTC,
			TimestampDK:             tsDK,
			PriceArea:               area,
			CentralPowerMWh:         s.conv.ToString(rec["CentralPowerMWh"]),
			LocalPowerMWh:           s.conv.ToString(rec["LocalPowerMWh"]),
			CommercialPowerMWh:      s.conv.ToString(rec["CommercialPowerMWh"]),
			OffshoreWindLt100MWMWh:  s.conv.ToString(rec["OffshoreWindLt100MW_MWh"]),
			OffshoreWindGe100MWMWh:  s.conv.ToString(rec["OffshoreWindGe100MW_MWh"]),
			OnshoreWindLt50kWMWh:    s.conv.ToString(rec["OnshoreWindLt50kW_MWh"]),
			OnshoreWindGe50kWMWh:    s.conv.ToString(rec["OnshoreWindGe50kW_MWh"]),
			HydroPowerMWh:           s.conv.ToString(rec["HydroPowerMWh"]),
			SolarPowerLt10kWMWh:     s.conv.ToString(rec["SolarPowerLt10kW_MWh"]),
			SolarPowerGe10Lt40kWMWh: s.conv.ToString(rec["SolarPowerGe10Lt40kW_MWh"]),
			SolarPowerGe40kWMWh:     s.conv.ToString(rec["SolarPowerGe40kW_MWh"]),
			UnknownProdMWh:          s.conv.ToString(rec["UnknownProdMWh"]),
			GrossConsumptionMWh:     s.conv.ToString(rec["GrossConsumptionMWh"]),
			GridLossTransmissionMWh: s.conv.ToString(rec["GridLossTransmissionMWh"]),
			SourceFile:              sourceFile,
		})
	}
	return s.insertRaw(rows, result)
}

func (s *ExtractService) storePrices(records []map[string]interface{}, result *ExtractResult, sourceFile string) error {
	existing, err := s.rawKeySet(&models.RawElectricityPrice{})
	if err != nil {
		return err
	}

	var rows []models.RawElectricityPrice
	for _, rec := range records {
		tsUTC, tsDK, err := s.parseRecordTime(rec, "HourUTC", "HourDK")
		if err != nil {
			result.RowsSkipped++
			result.Warnings = append(result.Warnings, fmt.Sprintf("电价记录时间戳无法解析: %v", rec["HourUTC"]))
			continue
		}
		area := s.conv.ToString(rec["PriceArea"])
		key := fmt.Sprintf("%d|%s", tsUTC.Unix(), area)
		if _, ok := existing[key]; ok {
			result.RowsExisting++
			continue
		}
		existing[key] = struct{}{}
		rows = append(rows, models.RawElectricityPrice{
			TimestampUTC: tsUTC,
			TimestampDK:  tsDK,
			PriceArea:    area,
			SpotPriceDKK: s.conv.ToString(rec["SpotPriceDKK"]),
			SpotPriceEUR: s.conv.ToString(rec["SpotPriceEUR"]),
			SourceFile:   sourceFile,
		})
	}
	return s.insertRaw(rows, result)
}

// insertRaw 批量写入原始层并更新结果统计
func (s *ExtractService) insertRaw(rows interface{}, result *ExtractResult) error {
	switch v := rows.(type) {
	case []models.RawCO2Emission:
		if len(v) == 0 {
			return nil
		}
		if err := s.db.CreateInBatches(v, 500).Error; err != nil {
			return fmt.Errorf("写入原始排放记录失败: %w", err)
		}
		result.RowsNew = int64(len(v))
	case []models.RawEnergyProduction:
		if len(v) == 0 {
			return nil
		}
		if err := s.db.CreateInBatches(v, 500).Error; err != nil {
			return fmt.Errorf("写入原始发电记录失败: %w", err)
		}
		result.RowsNew = int64(len(v))
	case []models.RawElectricityPrice:
		if len(v) == 0 {
			return nil
		}
		if err := s.db.CreateInBatches(v, 500).Error; err != nil {
			return fmt.Errorf("写入原始电价记录失败: %w", err)
		}
		result.RowsNew = int64(len(v))
	}
	return nil
}
