/*
 * @module api/controllers/response
 * @description 统一API响应结构，swagger文档引用的响应模型
 * @architecture API层 - 响应模型
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow N/A
 * @rules status为0表示成功，非0为HTTP错误码
 * @dependencies 无
 * @refs api/controllers
 */

package controllers

// APIResponse 统一API响应结构
type APIResponse struct {
	Status int         `json:"status" example:"0"`
	Msg    string      `json:"msg" example:"操作成功"`
	Data   interface{} `json:"data,omitempty"`
}
