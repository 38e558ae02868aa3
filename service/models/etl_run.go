/*
 * @module service/models/etl_run
 * @description ETL运行审计记录，跟踪各阶段行数、告警与状态
 * @architecture 数据访问层 - 运行审计
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow pending -> running -> success/failed，每次流水线执行生成一条记录
 * @rules 运行ID为UUID，阶段计数只增不减，告警以字符串数组累积
 * @dependencies gorm.io/gorm, github.com/google/uuid, github.com/lib/pq
 * @refs service/warehouse/pipeline
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"
)

// ETL运行状态常量
const (
	EtlRunStatusPending = "pending"
	EtlRunStatusRunning = "running"
	EtlRunStatusSuccess = "success"
	EtlRunStatusFailed  = "failed"
)

// EtlRun ETL流水线运行记录
type EtlRun struct {
	ID      string `json:"id" gorm:"primaryKey;type:varchar(36)" example:"550e8400-e29b-41d4-a716-446655440000"`
	Trigger string `json:"trigger" gorm:"size:20;not null" example:"manual"` // manual/scheduled
	Status  string `json:"status" gorm:"size:20;not null;index" example:"running"`
	Stage   string `json:"stage" gorm:"size:50" example:"transform_prices"`

	DatesBuilt        int64 `json:"dates_built" gorm:"not null;default:0"`
	EmissionRowsNew   int64 `json:"emission_rows_new" gorm:"not null;default:0"`
	ProductionRowsNew int64 `json:"production_rows_new" gorm:"not null;default:0"`
	PriceRowsNew      int64 `json:"price_rows_new" gorm:"not null;default:0"`
	DailyMartRows     int64 `json:"daily_mart_rows" gorm:"not null;default:0"`
	MonthlyMartRows   int64 `json:"monthly_mart_rows" gorm:"not null;default:0"`
	RowsExcluded      int64 `json:"rows_excluded" gorm:"not null;default:0"`
	RowsDropped       int64 `json:"rows_dropped" gorm:"not null;default:0"`

	StageDetail JSONB          `json:"stage_detail,omitempty" gorm:"type:jsonb"`
	Warnings    pq.StringArray `json:"warnings" gorm:"type:text[]"`
	ErrorMsg    string         `json:"error_msg,omitempty" gorm:"type:text"`

	StartedAt  time.Time  `json:"started_at" gorm:"not null"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// TableName 指定表名
func (EtlRun) TableName() string {
	return "etl_runs"
}

// BeforeCreate 创建前生成UUID
func (r *EtlRun) BeforeCreate(tx *gorm.DB) error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}
	if r.StartedAt.IsZero() {
		r.StartedAt = time.Now()
	}
	return nil
}

// MarkRunning 标记为运行中并记录当前阶段
func (r *EtlRun) MarkRunning(stage string) {
	r.Status = EtlRunStatusRunning
	r.Stage = stage
}

// MarkSuccess 标记为成功结束
func (r *EtlRun) MarkSuccess() {
	now := time.Now()
	r.Status = EtlRunStatusSuccess
	r.FinishedAt = &now
}

// MarkFailed 标记为失败结束并记录错误
func (r *EtlRun) MarkFailed(err error) {
	now := time.Now()
	r.Status = EtlRunStatusFailed
	r.FinishedAt = &now
	if err != nil {
		r.ErrorMsg = err.Error()
	}
}

// AddWarning 追加一条告警
func (r *EtlRun) AddWarning(msg string) {
	r.Warnings = append(r.Warnings, msg)
}

// RecordStageDetail 记录单阶段的明细快照，按阶段名覆盖
func (r *EtlRun) RecordStageDetail(stage string, detail map[string]interface{}) {
	if r.StageDetail == nil {
		r.StageDetail = JSONB{}
	}
	r.StageDetail[stage] = detail
}
