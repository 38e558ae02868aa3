/*
 * @module service/database/migrate
 * @description 数据库迁移模块，负责创建仓库各层表结构与种子数据
 * @architecture 数据访问层 - 迁移管理
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 应用启动时执行数据库迁移
 * @rules 确保数据库结构与模型定义保持一致，区域种子只在缺失时写入
 * @dependencies energyhub-service/service/models, gorm.io/gorm
 * @refs service/init.go
 */

package database

import (
	"log"

	"gorm.io/gorm"

	"energyhub-service/service/meta"
	"energyhub-service/service/models"
)

// AutoMigrate 自动迁移数据库表结构
func AutoMigrate(db *gorm.DB) error {
	log.Println("开始数据库迁移...")

	// 原始数据层相关表
	err := db.AutoMigrate(
		&models.RawCO2Emission{},
		&models.RawEnergyProduction{},
		&models.RawElectricityPrice{},
	)
	if err != nil {
		return err
	}

	// 维度相关表
	err = db.AutoMigrate(
		&models.DimDate{},
		&models.DimTime{},
		&models.DimPriceArea{},
	)
	if err != nil {
		return err
	}

	// 事实相关表
	err = db.AutoMigrate(
		&models.FactCO2Emission{},
		&models.FactEnergyProduction{},
		&models.FactElectricityPrice{},
	)
	if err != nil {
		return err
	}

	// 集市与运行审计相关表
	err = db.AutoMigrate(
		&models.MartDailyArea{},
		&models.MartMonthlyArea{},
		&models.EtlRun{},
		&models.ApiKey{},
	)
	if err != nil {
		return err
	}

	log.Println("数据库迁移完成")
	return nil
}

// InitializeData 初始化基础数据，写入电价区域维度种子
func InitializeData(db *gorm.DB) error {
	var count int64
	if err := db.Model(&models.DimPriceArea{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		log.Println("电价区域维度已存在，跳过种子初始化")
		return nil
	}

	rows := make([]models.DimPriceArea, 0, len(meta.PriceAreaSeeds))
	for _, seed := range meta.PriceAreaSeeds {
		rows = append(rows, models.DimPriceArea{
			AreaCode:     seed.AreaCode,
			AreaName:     seed.AreaName,
			Country:      seed.Country,
			Region:       seed.Region,
			IsDanishArea: seed.IsDanishArea,
			GridOperator: seed.GridOperator,
			Timezone:     seed.Timezone,
		})
	}
	if err := db.Create(&rows).Error; err != nil {
		return err
	}

	log.Printf("电价区域维度种子初始化完成: %d 个区域", len(rows))
	return nil
}
