/*
 * @module api/controllers/sharing_controller
 * @description 数据共享控制器，管理看板接口的API密钥
 * @architecture MVC架构 - 控制器层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow HTTP请求 -> 控制器 -> 密钥服务 -> 数据库
 * @rules 明文密钥仅在签发响应中返回一次，之后只能看到前缀
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/render
 * @refs service/sharing
 */

package controllers

import (
	"net/http"
	"time"

	"energyhub-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/render"
)

// SharingController 数据共享控制器
type SharingController struct {
}

// NewSharingController 创建数据共享控制器实例
func NewSharingController() *SharingController {
	return &SharingController{}
}

// IssueApiKeyRequest 签发密钥请求
type IssueApiKeyRequest struct {
	Name      string `json:"name" binding:"required" example:"grafana-dashboard"`
	ExpiresAt string `json:"expires_at" example:"2025-12-31T00:00:00Z"`
}

// IssueApiKey 签发API密钥
// @Summary 签发API密钥
// @Description 签发新的看板访问密钥，明文仅在本次响应返回
// @Tags 数据共享
// @Accept json
// @Produce json
// @Param request body IssueApiKeyRequest true "签发密钥请求"
// @Success 200 {object} APIResponse
// @Router /sharing/api-keys [post]
func (c *SharingController) IssueApiKey(w http.ResponseWriter, r *http.Request) {
	var req IssueApiKeyRequest
	if err := render.DecodeJSON(r.Body, &req); err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "请求参数错误: " + err.Error(),
		})
		return
	}

	var expiresAt *time.Time
	if req.ExpiresAt != "" {
		t, err := time.Parse(time.RFC3339, req.ExpiresAt)
		if err != nil {
			render.JSON(w, r, map[string]interface{}{
				"status": http.StatusBadRequest,
				"msg":    "过期时间格式错误: " + err.Error(),
			})
			return
		}
		expiresAt = &t
	}

	result, err := service.GlobalApiKeyService.Issue(req.Name, expiresAt)
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusBadRequest,
			"msg":    "签发密钥失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "签发成功，请妥善保存明文密钥",
		"data":   result,
	})
}

// ListApiKeys 查询API密钥列表
// @Summary 查询API密钥列表
// @Description 返回全部密钥的元信息，不含明文与哈希
// @Tags 数据共享
// @Produce json
// @Success 200 {object} APIResponse
// @Router /sharing/api-keys [get]
func (c *SharingController) ListApiKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := service.GlobalApiKeyService.List()
	if err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusInternalServerError,
			"msg":    "查询密钥失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "查询成功",
		"data":   keys,
	})
}

// RevokeApiKey 吊销API密钥
// @Summary 吊销API密钥
// @Description 按ID禁用密钥，吊销后立即失效
// @Tags 数据共享
// @Produce json
// @Param id path string true "密钥ID"
// @Success 200 {object} APIResponse
// @Router /sharing/api-keys/{id} [delete]
func (c *SharingController) RevokeApiKey(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	if err := service.GlobalApiKeyService.Revoke(id); err != nil {
		render.JSON(w, r, map[string]interface{}{
			"status": http.StatusNotFound,
			"msg":    "吊销密钥失败: " + err.Error(),
		})
		return
	}

	render.JSON(w, r, map[string]interface{}{
		"status": http.StatusOK,
		"msg":    "吊销成功",
	})
}
