/*
 * @module service/init
 * @description 服务初始化模块，负责数据库连接、迁移、全局服务与可选外部组件装配
 * @architecture 分层架构 - 服务层
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 应用启动时执行初始化流程
 * @rules 确保所有依赖服务正常启动后才提供API服务，Redis/Kafka/MQTT按环境变量可选启用
 * @dependencies gorm.io/gorm, gorm.io/driver/postgres
 * @refs service/database/migrate.go
 */

package service

import (
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"energyhub-service/client"
	"energyhub-service/client/connectors"
	"energyhub-service/service/dashboard"
	"energyhub-service/service/database"
	"energyhub-service/service/dimension"
	"energyhub-service/service/distributed_lock"
	"energyhub-service/service/ingestion"
	"energyhub-service/service/scheduler"
	"energyhub-service/service/sharing"
	"energyhub-service/service/warehouse"
)

var (
	DB                     *gorm.DB
	GlobalDimensionService *dimension.DimensionService
	GlobalPipelineService  *warehouse.PipelineService
	GlobalMartService      *warehouse.MartService
	GlobalExtractService   *ingestion.ExtractService
	GlobalCsvLoader        *ingestion.CsvLoader
	GlobalDashboardService *dashboard.DashboardService
	GlobalApiKeyService    *sharing.ApiKeyService
	GlobalSchedulerService *scheduler.SchedulerService
	GlobalLockExecutor     *distributed_lock.LockExecutor
	GlobalEventPublisher   *connectors.KafkaEventPublisher
	GlobalMqttSubscriber   *connectors.MqttEmissionSubscriber
)

func init() {
	initDatabase()
	runMigrations()
	initServices()
}

// initDatabase 初始化数据库连接
func initDatabase() {
	var dsn string

	// 优先使用DATABASE_URL环境变量
	if databaseURL := os.Getenv("DATABASE_URL"); databaseURL != "" {
		dsn = databaseURL
	} else {
		// 使用分离的环境变量构建连接字符串
		host := getEnvWithDefault("DB_HOST", "localhost")
		port := getEnvWithDefault("DB_PORT", "5432")
		user := getEnvWithDefault("DB_USER", "postgres")
		password := getEnvWithDefault("DB_PASSWORD", "postgres")
		dbname := getEnvWithDefault("DB_NAME", "energyhub")
		sslmode := getEnvWithDefault("DB_SSLMODE", "disable")
		schema := getEnvWithDefault("DB_SCHEMA", "public")

		dsn = fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=%s search_path=%s TimeZone=UTC",
			host, port, user, password, dbname, sslmode, schema)
	}

	var err error
	DB, err = gorm.Open(postgres.Open(dsn), &gorm.Config{})
	if err != nil {
		log.Fatalf("数据库连接失败: %v", err)
	}

	log.Println("数据库连接成功")
}

// getEnvWithDefault 获取环境变量，如果不存在则返回默认值
func getEnvWithDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// runMigrations 运行数据库迁移
func runMigrations() {
	log.Println("开始运行数据库迁移...")

	if err := database.AutoMigrate(DB); err != nil {
		log.Fatalf("数据库迁移失败: %v", err)
	}
	log.Println("数据库表结构迁移完成")

	if err := database.InitializeData(DB); err != nil {
		log.Fatalf("基础数据初始化失败: %v", err)
	}
	log.Println("基础数据初始化完成")
}

// initServices 初始化服务
func initServices() {
	// 可选的Redis分布式锁，多实例部署时防止流水线并发写入
	if getEnvWithDefault("REDIS_ENABLED", "false") == "true" {
		redisLock, err := distributed_lock.NewRedisLock()
		if err != nil {
			log.Printf("Redis分布式锁初始化失败，降级为无锁执行: %v", err)
		} else {
			GlobalLockExecutor = distributed_lock.NewLockExecutor(redisLock)
		}
	}

	// 可选的Kafka运行事件发布
	if brokers := os.Getenv("KAFKA_BROKERS"); brokers != "" {
		topic := getEnvWithDefault("KAFKA_RUN_TOPIC", "energyhub.etl.runs")
		GlobalEventPublisher = connectors.NewKafkaEventPublisher(
			strings.Split(brokers, ","), topic, log.Default())
		if err := GlobalEventPublisher.Connect(); err != nil {
			log.Printf("Kafka事件发布器连接失败: %v", err)
		}
	}

	GlobalDimensionService = dimension.NewDimensionService(DB)
	GlobalPipelineService = warehouse.NewPipelineService(DB, GlobalEventPublisher)
	GlobalMartService = warehouse.NewMartService(DB)

	energiClient := client.NewEnergiDataClient(os.Getenv("ENERGIDATA_BASE_URL"))
	GlobalExtractService = ingestion.NewExtractService(DB, energiClient)
	GlobalCsvLoader = ingestion.NewCsvLoader(DB)
	GlobalDashboardService = dashboard.NewDashboardService(DB)
	GlobalApiKeyService = sharing.NewApiKeyService(DB)

	// 可选的MQTT实时排放订阅
	if broker := os.Getenv("MQTT_BROKER"); broker != "" {
		GlobalMqttSubscriber = connectors.NewMqttEmissionSubscriber(&connectors.MqttSubscriberConfig{
			Broker:    broker,
			ClientID:  getEnvWithDefault("MQTT_CLIENT_ID", "energyhub-service"),
			Username:  os.Getenv("MQTT_USERNAME"),
			Password:  os.Getenv("MQTT_PASSWORD"),
			Topic:     getEnvWithDefault("MQTT_TOPIC", "energinet/co2emis"),
			QoS:       1,
			KeepAlive: 30 * time.Second,
		}, GlobalExtractService.StoreRealtimeEmission, log.Default())
		if err := GlobalMqttSubscriber.Connect(); err != nil {
			log.Printf("MQTT实时订阅连接失败: %v", err)
		}
	}

	// 启动定时调度
	GlobalSchedulerService = scheduler.NewSchedulerService(GlobalPipelineService, GlobalLockExecutor)
	if getEnvWithDefault("ETL_SCHEDULE_ENABLED", "true") == "true" {
		if err := GlobalSchedulerService.Start(); err != nil {
			log.Printf("启动调度器服务失败: %v", err)
		}
	}

	log.Println("服务初始化完成")
}
