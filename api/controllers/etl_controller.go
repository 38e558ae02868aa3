/*
 * @module api/controllers/etl_controller
 * @description ETL控制器，提供流水线触发、单步转换、集市聚合与运行审计查询接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow HTTP请求 -> 控制器 -> 流水线服务 -> 数据库
 * @rules 手动触发的流水线以manual方式记录，审计查询默认返回最近50次运行
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/warehouse
 */

package controllers

import (
	"net/http"
	"strconv"

	"energyhub-service/service"
	"energyhub-service/service/warehouse"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// EtlController ETL控制器
type EtlController struct {
}

// NewEtlController 创建ETL控制器实例
func NewEtlController() *EtlController {
	return &EtlController{}
}

// RunPipeline 触发完整ETL流水线
// @Summary 触发完整ETL流水线
// @Description 依次执行维度构建、事实转换、集市聚合和质量检查
// @Tags ETL
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse
// @Router /etl/run [post]
func (c *EtlController) RunPipeline(w http.ResponseWriter, r *http.Request) {
	result, err := service.GlobalPipelineService.Run(r.Context(), warehouse.TriggerManual)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "流水线执行失败: " + err.Error(),
			"data":   result,
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "流水线执行成功",
		"data":   result,
	})
}

// TransformDataset 执行单个数据集转换
// @Summary 执行单个数据集转换
// @Description 将指定数据集的原始记录转换到事实层
// @Tags ETL
// @Accept json
// @Produce json
// @Param dataset path string true "数据集名称" Enums(co2_emissions, energy_production, electricity_prices)
// @Success 200 {object} APIResponse
// @Router /etl/transform/{dataset} [post]
func (c *EtlController) TransformDataset(w http.ResponseWriter, r *http.Request) {
	dataset := chi.URLParam(r, "dataset")

	result, err := service.GlobalPipelineService.TransformDataset(dataset)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "转换失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "转换完成",
		"data":   result,
	})
}

// AggregateMarts 执行集市聚合
// @Summary 执行集市聚合
// @Description 按日或月粒度重建数据集市
// @Tags ETL
// @Accept json
// @Produce json
// @Param granularity path string true "聚合粒度" Enums(day, month)
// @Success 200 {object} APIResponse
// @Router /etl/aggregate/{granularity} [post]
func (c *EtlController) AggregateMarts(w http.ResponseWriter, r *http.Request) {
	granularity := chi.URLParam(r, "granularity")

	result, err := service.GlobalPipelineService.AggregateMarts(granularity)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "聚合失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "聚合完成",
		"data":   result,
	})
}

// QualityCheck 执行质量检查
// @Summary 执行仓库质量检查
// @Description 统计各层行数、越界原始值与维度孤儿事实
// @Tags ETL
// @Accept json
// @Produce json
// @Success 200 {object} APIResponse
// @Router /etl/quality [get]
func (c *EtlController) QualityCheck(w http.ResponseWriter, r *http.Request) {
	report, err := service.GlobalPipelineService.QualityCheck()
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "质量检查失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "质量检查完成",
		"data":   report,
	})
}

// ListRuns 查询流水线运行记录
// @Summary 查询流水线运行记录
// @Description 按开始时间倒序返回流水线运行审计记录
// @Tags ETL
// @Accept json
// @Produce json
// @Param limit query int false "返回数量上限" default(50)
// @Success 200 {object} APIResponse
// @Router /etl/runs [get]
func (c *EtlController) ListRuns(w http.ResponseWriter, r *http.Request) {
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	runs, err := service.GlobalPipelineService.ListRuns(limit)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询运行记录失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   runs,
	})
}

// GetRun 查询单次流水线运行
// @Summary 查询单次流水线运行
// @Description 根据运行ID返回流水线运行审计记录
// @Tags ETL
// @Accept json
// @Produce json
// @Param id path string true "运行ID"
// @Success 200 {object} APIResponse
// @Router /etl/runs/{id} [get]
func (c *EtlController) GetRun(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	run, err := service.GlobalPipelineService.GetRun(id)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusNotFound,
			"msg":    "运行记录不存在: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   run,
	})
}

// BuildDimensionsRequest 维度构建请求
type BuildDimensionsRequest struct {
	StartDate string `json:"start_date" example:"2024-01-01"`
	EndDate   string `json:"end_date" example:"2024-12-31"`
}

// BuildDimensions 手动构建维度
// @Summary 手动构建维度
// @Description 构建指定日期范围的日期维度，以及时间与电价区域维度
// @Tags ETL
// @Accept json
// @Produce json
// @Param request body BuildDimensionsRequest true "维度构建请求"
// @Success 200 {object} APIResponse
// @Router /etl/dimensions [post]
func (c *EtlController) BuildDimensions(w http.ResponseWriter, r *http.Request) {
	var req BuildDimensionsRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "请求参数错误: " + err.Error(),
		})
		return
	}

	start, err := parseDateParam(req.StartDate)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "起始日期格式错误: " + err.Error(),
		})
		return
	}
	end, err := parseDateParam(req.EndDate)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "结束日期格式错误: " + err.Error(),
		})
		return
	}

	dates, err := service.GlobalDimensionService.BuildDateDimension(start, end)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "日期维度构建失败: " + err.Error(),
		})
		return
	}
	times, err := service.GlobalDimensionService.BuildTimeDimension()
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "时间维度构建失败: " + err.Error(),
		})
		return
	}
	areas, err := service.GlobalDimensionService.BuildPriceAreaDimension()
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "电价区域维度构建失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "维度构建完成",
		"data": map[string]interface{}{
			"dates":       dates,
			"times":       times,
			"price_areas": areas,
		},
	})
}
