/*
 * @module service/warehouse/pipeline
 * @description ETL流水线编排，维度构建、事实转换、集市聚合与质量检查的端到端执行
 * @architecture 服务层 - 流水线编排
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 创建运行记录 -> 维度 -> 事实 -> 集市 -> 质量 -> 结束记录 -> 发布事件
 * @rules 任一阶段失败即终止并标记失败，质量告警与事件发布失败不使运行失败
 * @dependencies gorm.io/gorm
 * @refs api/controllers/etl_controller, service/scheduler
 */

package warehouse

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"gorm.io/gorm"

	"energyhub-service/client/connectors"
	"energyhub-service/service/dimension"
	"energyhub-service/service/meta"
	"energyhub-service/service/models"
	"energyhub-service/service/monitoring"
	"energyhub-service/service/quality"
)

// 流水线触发方式
const (
	TriggerManual    = "manual"
	TriggerScheduled = "scheduled"
)

// PipelineService ETL流水线编排服务
type PipelineService struct {
	db        *gorm.DB
	dims      *dimension.DimensionService
	transform *TransformService
	marts     *MartService
	checker   *quality.QualityChecker
	publisher *connectors.KafkaEventPublisher // 可选，nil时跳过事件发布
}

// NewPipelineService 创建流水线服务实例
func NewPipelineService(db *gorm.DB, publisher *connectors.KafkaEventPublisher) *PipelineService {
	return &PipelineService{
		db:        db,
		dims:      dimension.NewDimensionService(db),
		transform: NewTransformService(db),
		marts:     NewMartService(db),
		checker:   quality.NewQualityChecker(db),
		publisher: publisher,
	}
}

// PipelineResult 流水线运行结果
type PipelineResult struct {
	Run        *models.EtlRun         `json:"run"`
	Emissions  *TransformResult       `json:"emissions,omitempty"`
	Production *TransformResult       `json:"production,omitempty"`
	Prices     *TransformResult       `json:"prices,omitempty"`
	Quality    *quality.QualityReport `json:"quality,omitempty"`
}

// Run 执行完整ETL流水线
func (p *PipelineService) Run(ctx context.Context, trigger string) (*PipelineResult, error) {
	started := time.Now()
	run := &models.EtlRun{Trigger: trigger, Status: models.EtlRunStatusPending, StartedAt: started}
	if err := p.db.Create(run).Error; err != nil {
		return nil, fmt.Errorf("创建运行记录失败: %w", err)
	}
	result := &PipelineResult{Run: run}

	fail := func(stage string, err error) (*PipelineResult, error) {
		run.Stage = stage
		run.MarkFailed(err)
		p.saveRun(run)
		monitoring.EtlRunsTotal.WithLabelValues(models.EtlRunStatusFailed).Inc()
		slog.Error("ETL流水线阶段失败", "run_id", run.ID, "stage", stage, "error", err)
		return result, err
	}

	stageStart := started
	recordStage := func(stage string, detail map[string]interface{}) {
		now := time.Now()
		detail["duration_ms"] = now.Sub(stageStart).Milliseconds()
		run.RecordStageDetail(stage, detail)
		stageStart = now
	}

	// 维度阶段，日期维覆盖原始层时间窗口
	run.MarkRunning("build_dimensions")
	p.saveRun(run)
	start, end, err := p.rawDateWindow()
	if err != nil {
		return fail("build_dimensions", err)
	}
	if !start.IsZero() {
		dateResult, err := p.dims.BuildDateDimension(start, end)
		if err != nil {
			return fail("build_dimensions", err)
		}
		run.DatesBuilt = dateResult.Created
	}
	if _, err := p.dims.BuildTimeDimension(); err != nil {
		return fail("build_dimensions", err)
	}
	if _, err := p.dims.BuildPriceAreaDimension(); err != nil {
		return fail("build_dimensions", err)
	}
	recordStage("build_dimensions", map[string]interface{}{"dates_built": run.DatesBuilt})

	// 事实转换阶段
	run.MarkRunning("transform_emissions")
	p.saveRun(run)
	result.Emissions, err = p.transform.TransformEmissions()
	if err != nil {
		return fail("transform_emissions", err)
	}
	p.applyTransform(run, meta.DatasetCO2Emissions, result.Emissions)
	run.EmissionRowsNew = result.Emissions.RowsNew
	recordStage("transform_emissions", transformDetail(result.Emissions))

	run.MarkRunning("transform_production")
	p.saveRun(run)
	result.Production, err = p.transform.TransformProduction()
	if err != nil {
		return fail("transform_production", err)
	}
	p.applyTransform(run, meta.DatasetEnergyProduction, result.Production)
	run.ProductionRowsNew = result.Production.RowsNew
	recordStage("transform_production", transformDetail(result.Production))

	run.MarkRunning("transform_prices")
	p.saveRun(run)
	result.Prices, err = p.transform.TransformPrices()
	if err != nil {
		return fail("transform_prices", err)
	}
	p.applyTransform(run, meta.DatasetElectricityPrices, result.Prices)
	run.PriceRowsNew = result.Prices.RowsNew
	recordStage("transform_prices", transformDetail(result.Prices))

	// 集市聚合阶段
	run.MarkRunning("aggregate_marts")
	p.saveRun(run)
	daily, err := p.marts.AggregateDaily()
	if err != nil {
		return fail("aggregate_marts", err)
	}
	run.DailyMartRows = daily.RowsWritten
	monthly, err := p.marts.AggregateMonthly()
	if err != nil {
		return fail("aggregate_marts", err)
	}
	run.MonthlyMartRows = monthly.RowsWritten
	recordStage("aggregate_marts", map[string]interface{}{
		"daily_rows":   daily.RowsWritten,
		"monthly_rows": monthly.RowsWritten,
	})

	// 质量检查阶段，告警随运行记录保存
	run.MarkRunning("quality_check")
	p.saveRun(run)
	report, err := p.checker.Check()
	if err != nil {
		return fail("quality_check", err)
	}
	result.Quality = report
	for _, w := range report.Warnings {
		run.AddWarning(w)
	}
	recordStage("quality_check", map[string]interface{}{"warnings": len(report.Warnings)})

	run.MarkSuccess()
	p.saveRun(run)
	monitoring.EtlRunsTotal.WithLabelValues(models.EtlRunStatusSuccess).Inc()
	monitoring.EtlRunDuration.Observe(time.Since(started).Seconds())

	p.publishRunEvent(ctx, run)

	slog.Info("ETL流水线运行完成", "run_id", run.ID,
		"emissions_new", run.EmissionRowsNew,
		"production_new", run.ProductionRowsNew,
		"prices_new", run.PriceRowsNew,
		"daily_mart_rows", run.DailyMartRows,
		"monthly_mart_rows", run.MonthlyMartRows,
		"warnings", len(run.Warnings))
	return result, nil
}

// transformDetail 单数据集转换结果的阶段明细
func transformDetail(r *TransformResult) map[string]interface{} {
	return map[string]interface{}{
		"rows_new":      r.RowsNew,
		"rows_excluded": r.RowsExcluded,
		"rows_dropped":  r.RowsDropped,
	}
}

// applyTransform 将单数据集转换结果合入运行记录与指标
func (p *PipelineService) applyTransform(run *models.EtlRun, dataset string, r *TransformResult) {
	run.RowsExcluded += r.RowsExcluded
	run.RowsDropped += r.RowsDropped
	for _, w := range r.Warnings {
		run.AddWarning(w)
	}
	monitoring.FactRowsLoadedTotal.WithLabelValues(dataset).Add(float64(r.RowsNew))
	monitoring.RowsExcludedTotal.WithLabelValues(dataset).Add(float64(r.RowsExcluded))
}

// rawDateWindow 计算三张原始表时间戳的合并窗口
func (p *PipelineService) rawDateWindow() (time.Time, time.Time, error) {
	var start, end time.Time
	rawModels := []interface{}{
		&models.RawCO2Emission{},
		&models.RawEnergyProduction{},
		&models.RawElectricityPrice{},
	}
	for _, m := range rawModels {
		var first, last []time.Time
		if err := p.db.Model(m).Order("timestamp_utc ASC").Limit(1).
			Pluck("timestamp_utc", &first).Error; err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("计算原始层时间窗口失败: %w", err)
		}
		if err := p.db.Model(m).Order("timestamp_utc DESC").Limit(1).
			Pluck("timestamp_utc", &last).Error; err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("计算原始层时间窗口失败: %w", err)
		}
		if len(first) > 0 && (start.IsZero() || first[0].Before(start)) {
			start = first[0]
		}
		if len(last) > 0 && (end.IsZero() || last[0].After(end)) {
			end = last[0]
		}
	}
	return start, end, nil
}

// publishRunEvent 发布运行结束事件，失败仅记录日志
func (p *PipelineService) publishRunEvent(ctx context.Context, run *models.EtlRun) {
	if p.publisher == nil || !p.publisher.IsConnected() {
		return
	}
	finished := time.Now()
	if run.FinishedAt != nil {
		finished = *run.FinishedAt
	}
	event := &connectors.EtlRunEvent{
		RunID:             run.ID,
		Status:            run.Status,
		Trigger:           run.Trigger,
		EmissionRowsNew:   run.EmissionRowsNew,
		ProductionRowsNew: run.ProductionRowsNew,
		PriceRowsNew:      run.PriceRowsNew,
		DailyMartRows:     run.DailyMartRows,
		MonthlyMartRows:   run.MonthlyMartRows,
		WarningCount:      len(run.Warnings),
		StartedAt:         run.StartedAt,
		FinishedAt:        finished,
	}
	if err := p.publisher.PublishRunEvent(ctx, event); err != nil {
		slog.Warn("运行事件发布失败", "run_id", run.ID, "error", err)
	}
}

// saveRun 持久化运行记录的当前状态
func (p *PipelineService) saveRun(run *models.EtlRun) {
	if err := p.db.Save(run).Error; err != nil {
		slog.Error("保存运行记录失败", "run_id", run.ID, "error", err)
	}
}

// ListRuns 按开始时间倒序查询运行历史
func (p *PipelineService) ListRuns(limit int) ([]models.EtlRun, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	var runs []models.EtlRun
	if err := p.db.Order("started_at DESC").Limit(limit).Find(&runs).Error; err != nil {
		return nil, fmt.Errorf("查询运行历史失败: %w", err)
	}
	return runs, nil
}

// GetRun 按ID查询单次运行
func (p *PipelineService) GetRun(id string) (*models.EtlRun, error) {
	var run models.EtlRun
	if err := p.db.First(&run, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &run, nil
}

// TransformDataset 按数据集名执行单个转换
func (p *PipelineService) TransformDataset(dataset string) (*TransformResult, error) {
	switch dataset {
	case meta.DatasetCO2Emissions:
		return p.transform.TransformEmissions()
	case meta.DatasetEnergyProduction:
		return p.transform.TransformProduction()
	case meta.DatasetElectricityPrices:
		return p.transform.TransformPrices()
	default:
		return nil, fmt.Errorf("未知数据集: %s", dataset)
	}
}

// AggregateMarts 按粒度执行集市聚合
func (p *PipelineService) AggregateMarts(granularity string) (*AggregateResult, error) {
	return p.marts.Aggregate(granularity)
}

// QualityCheck 单独执行质量检查
func (p *PipelineService) QualityCheck() (*quality.QualityReport, error) {
	return p.checker.Check()
}
