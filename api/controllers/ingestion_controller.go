/*
 * @module api/controllers/ingestion_controller
 * @description 数据接入控制器，提供EnergiDataService在线抽取和CSV文件装载接口
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow HTTP请求 -> 控制器 -> 抽取/装载服务 -> 原始层
 * @rules 抽取接口按数据集名分发，CSV上传走multipart表单，文件内容整体读入后装载
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/ingestion
 */

package controllers

import (
	"io"
	"net/http"
	"strconv"

	"energyhub-service/service"
	"energyhub-service/service/ingestion"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// 单次CSV上传的最大字节数
const maxCsvUploadBytes = 64 << 20

// IngestionController 数据接入控制器
type IngestionController struct {
}

// NewIngestionController 创建数据接入控制器实例
func NewIngestionController() *IngestionController {
	return &IngestionController{}
}

// ExtractRequest 在线抽取请求
type ExtractRequest struct {
	Dataset string `json:"dataset" example:"co2_emissions"`
	Start   string `json:"start" example:"2024-01-01T00:00"`
	End     string `json:"end" example:"2024-01-07T00:00"`
	Limit   int    `json:"limit" example:"10000"`
	Script  string `json:"script"`
}

// Extract 从EnergiDataService抽取数据集
// @Summary 从EnergiDataService抽取数据集
// @Description 按时间窗口抽取指定数据集并写入原始层，可附带yaegi预处理脚本
// @Tags 数据接入
// @Accept json
// @Produce json
// @Param request body ExtractRequest true "抽取请求"
// @Success 200 {object} APIResponse
// @Router /ingestion/extract [post]
func (c *IngestionController) Extract(w http.ResponseWriter, r *http.Request) {
	var req ExtractRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "请求参数错误: " + err.Error(),
		})
		return
	}

	dataset := chi.URLParam(r, "dataset")
	if dataset == "" {
		dataset = req.Dataset
	}

	start, err := parseTimeParam(req.Start)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "起始时间格式错误: " + err.Error(),
		})
		return
	}
	end, err := parseTimeParam(req.End)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "结束时间格式错误: " + err.Error(),
		})
		return
	}

	result, err := service.GlobalExtractService.Extract(r.Context(), dataset, ingestion.ExtractOptions{
		Start:  start,
		End:    end,
		Limit:  req.Limit,
		Script: req.Script,
	})
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "抽取失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "抽取完成",
		"data":   result,
	})
}

// LoadCsv 装载CSV文件
// @Summary 装载CSV文件
// @Description 将上传的CSV文件解码后写入指定数据集的原始层
// @Tags 数据接入
// @Accept multipart/form-data
// @Produce json
// @Param dataset formData string true "数据集名称" Enums(co2_emissions, energy_production, electricity_prices)
// @Param file formData file true "CSV文件"
// @Param encoding formData string false "文件字符集" Enums(utf-8, iso-8859-1, windows-1252)
// @Param delimiter formData string false "列分隔符，默认逗号"
// @Success 200 {object} APIResponse
// @Router /ingestion/csv [post]
func (c *IngestionController) LoadCsv(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxCsvUploadBytes); err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "表单解析失败: " + err.Error(),
		})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "缺少上传文件: " + err.Error(),
		})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, maxCsvUploadBytes))
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "读取上传文件失败: " + err.Error(),
		})
		return
	}

	opts := ingestion.LoadOptions{
		Dataset:    r.FormValue("dataset"),
		Encoding:   r.FormValue("encoding"),
		SourceFile: header.Filename,
	}
	if d := r.FormValue("delimiter"); d != "" {
		opts.Delimiter = []rune(d)[0]
	}

	result, err := service.GlobalCsvLoader.Load(data, opts)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "CSV装载失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "CSV装载完成，新增" + strconv.FormatInt(result.RowsNew, 10) + "行",
		"data":   result,
	})
}
