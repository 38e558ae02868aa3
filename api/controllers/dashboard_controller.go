/*
 * @module api/controllers/dashboard_controller
 * @description 分析看板控制器，提供丹麦电网KPI、趋势与结构分析的查询接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow HTTP请求 -> 控制器 -> 看板服务 -> 事实层/集市层
 * @rules 查询默认回看30天，全部接口仅统计丹麦电价区域
 * @dependencies github.com/go-chi/render
 * @refs service/dashboard
 */

package controllers

import (
	"net/http"

	"energyhub-service/service"

	"github.com/go-chi/render"
)

// DashboardController 分析看板控制器
type DashboardController struct {
}

// NewDashboardController 创建分析看板控制器实例
func NewDashboardController() *DashboardController {
	return &DashboardController{}
}

// GetKpis 获取核心KPI汇总
// @Summary 获取核心KPI汇总
// @Description 返回回看窗口内的平均碳强度、可再生占比、电价与产销总量
// @Tags 分析看板
// @Produce json
// @Param days query int false "回看天数" default(30)
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/kpis [get]
func (c *DashboardController) GetKpis(w http.ResponseWriter, r *http.Request) {
	days := parseDaysParam(r.URL.Query().Get("days"), 30)

	summary, err := service.GlobalDashboardService.GetKpiSummary(days)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询KPI失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   summary,
	})
}

// GetRenewableTrends 获取可再生能源趋势
// @Summary 获取可再生能源趋势
// @Description 按日期与区域返回可再生占比、风电与光伏出力
// @Tags 分析看板
// @Produce json
// @Param days query int false "回看天数" default(30)
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/renewable-trends [get]
func (c *DashboardController) GetRenewableTrends(w http.ResponseWriter, r *http.Request) {
	days := parseDaysParam(r.URL.Query().Get("days"), 30)

	points, err := service.GlobalDashboardService.GetRenewableTrends(days)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询可再生趋势失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   points,
	})
}

// GetCO2Analysis 获取碳强度分析
// @Summary 获取碳强度分析
// @Description 按日期与区域返回碳强度均值、极值与峰谷对比
// @Tags 分析看板
// @Produce json
// @Param days query int false "回看天数" default(30)
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/co2-analysis [get]
func (c *DashboardController) GetCO2Analysis(w http.ResponseWriter, r *http.Request) {
	days := parseDaysParam(r.URL.Query().Get("days"), 30)

	points, err := service.GlobalDashboardService.GetCO2Analysis(days)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询碳强度分析失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   points,
	})
}

// GetPriceAnalysis 获取电价分析
// @Summary 获取电价分析
// @Description 按日期与区域返回电价均值、波动与异常小时统计
// @Tags 分析看板
// @Produce json
// @Param days query int false "回看天数" default(30)
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/price-analysis [get]
func (c *DashboardController) GetPriceAnalysis(w http.ResponseWriter, r *http.Request) {
	days := parseDaysParam(r.URL.Query().Get("days"), 30)

	points, err := service.GlobalDashboardService.GetPriceAnalysis(days)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询电价分析失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   points,
	})
}

// GetHourlyPatterns 获取小时模式分析
// @Summary 获取小时模式分析
// @Description 按小时与区域返回碳强度、电价和可再生占比的日内分布
// @Tags 分析看板
// @Produce json
// @Param from query string false "起始时间，默认7天前"
// @Param to query string false "结束时间，默认当前"
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/hourly-patterns [get]
func (c *DashboardController) GetHourlyPatterns(w http.ResponseWriter, r *http.Request) {
	from, err := parseTimeParam(r.URL.Query().Get("from"))
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "起始时间格式错误: " + err.Error(),
		})
		return
	}
	to, err := parseTimeParam(r.URL.Query().Get("to"))
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "结束时间格式错误: " + err.Error(),
		})
		return
	}

	points, err := service.GlobalDashboardService.GetHourlyPatterns(from, to)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询小时模式失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   points,
	})
}

// GetEnergyMix 获取能源结构分析
// @Summary 获取能源结构分析
// @Description 按区域返回风电、光伏、水电与常规机组的发电结构
// @Tags 分析看板
// @Produce json
// @Param days query int false "回看天数" default(30)
// @Success 200 {object} APIResponse
// @Security ApiKeyAuth
// @Router /dashboard/energy-mix [get]
func (c *DashboardController) GetEnergyMix(w http.ResponseWriter, r *http.Request) {
	days := parseDaysParam(r.URL.Query().Get("days"), 30)

	points, err := service.GlobalDashboardService.GetEnergyMix(days)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询能源结构失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   points,
	})
}
