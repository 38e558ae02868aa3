/*
 * @module service/monitoring/metrics
 * @description Prometheus指标定义，跟踪流水线运行次数、行数与时长
 * @architecture 监控层 - 指标采集
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 指标在init时注册到默认注册表，由/metrics端点暴露
 * @rules 计数器只增不减，标签基数保持有界
 * @dependencies github.com/prometheus/client_golang
 * @refs service/warehouse/pipeline, api/routes
 */

package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// EtlRunsTotal 按状态统计的流水线运行次数
	EtlRunsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energyhub_etl_runs_total",
		Help: "ETL流水线运行总次数，按最终状态分类",
	}, []string{"status"})

	// FactRowsLoadedTotal 按数据集统计的事实行写入数
	FactRowsLoadedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energyhub_fact_rows_loaded_total",
		Help: "写入事实表的新行总数，按数据集分类",
	}, []string{"dataset"})

	// RowsExcludedTotal 按数据集统计的越界剔除行数
	RowsExcludedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energyhub_rows_excluded_total",
		Help: "因度量越界在转换边界剔除的行总数，按数据集分类",
	}, []string{"dataset"})

	// EtlRunDuration 流水线运行时长分布
	EtlRunDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "energyhub_etl_run_duration_seconds",
		Help:    "ETL流水线单次运行时长",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 12),
	})

	// IngestRecordsTotal 按数据集统计的原始层抽取行数
	IngestRecordsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "energyhub_ingest_records_total",
		Help: "写入原始层的记录总数，按数据集分类",
	}, []string{"dataset"})
)
