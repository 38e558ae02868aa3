/*
 * @module api/routes
 * @description API路由配置模块，负责初始化和配置所有HTTP路由
 * @architecture RESTful API架构
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 无状态HTTP请求处理
 * @rules 遵循RESTful API设计规范，统一错误处理和响应格式，看板接口走API密钥鉴权
 * @dependencies github.com/go-chi/chi/v5, github.com/go-chi/cors, github.com/go-chi/render
 * @refs api/controllers, api/middleware
 */

package api

import (
	"energyhub-service/api/controllers"
	apimiddleware "energyhub-service/api/middleware"
	"energyhub-service/service"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

// InitRoute 初始化所有API路由
func InitRoute(r *chi.Mux) {
	// 基础中间件
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(render.SetContentType(render.ContentTypeJSON))

	// CORS配置
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-API-Key"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// 健康检查
	healthController := controllers.NewHealthController()
	r.Get("/health", healthController.Health)
	r.Get("/ready", healthController.Ready)

	// ETL流水线
	r.Route("/etl", func(r chi.Router) {
		etlController := controllers.NewEtlController()
		r.Post("/run", etlController.RunPipeline)
		r.Post("/dimensions", etlController.BuildDimensions)
		r.Post("/transform/{dataset}", etlController.TransformDataset)
		r.Post("/aggregate/{granularity}", etlController.AggregateMarts)
		r.Get("/quality", etlController.QualityCheck)
		r.Get("/runs", etlController.ListRuns)
		r.Get("/runs/{id}", etlController.GetRun)
	})

	// 数据接入
	r.Route("/ingestion", func(r chi.Router) {
		ingestionController := controllers.NewIngestionController()
		r.Post("/extract", ingestionController.Extract)
		r.Post("/extract/{dataset}", ingestionController.Extract)
		r.Post("/csv", ingestionController.LoadCsv)
	})

	// 分析看板（API密钥鉴权）
	r.Route("/dashboard", func(r chi.Router) {
		authMiddleware := apimiddleware.NewApiKeyAuthMiddleware(service.GlobalApiKeyService)
		r.Use(authMiddleware.Middleware)

		dashboardController := controllers.NewDashboardController()
		r.Get("/kpis", dashboardController.GetKpis)
		r.Get("/renewable-trends", dashboardController.GetRenewableTrends)
		r.Get("/co2-analysis", dashboardController.GetCO2Analysis)
		r.Get("/price-analysis", dashboardController.GetPriceAnalysis)
		r.Get("/hourly-patterns", dashboardController.GetHourlyPatterns)
		r.Get("/energy-mix", dashboardController.GetEnergyMix)
	})

	// 数据共享密钥管理
	r.Route("/sharing", func(r chi.Router) {
		sharingController := controllers.NewSharingController()
		r.Post("/api-keys", sharingController.IssueApiKey)
		r.Get("/api-keys", sharingController.ListApiKeys)
		r.Delete("/api-keys/{id}", sharingController.RevokeApiKey)
	})
}
