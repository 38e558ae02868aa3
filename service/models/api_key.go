/*
 * @module service/models/api_key
 * @description 仪表盘API密钥模型，密钥以bcrypt哈希存储
 * @architecture 数据访问层 - 访问凭证
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 创建时返回一次明文密钥，之后仅保存哈希，校验走bcrypt比对
 * @rules 明文密钥不落库，KeyPrefix仅用于快速定位候选记录
 * @dependencies gorm.io/gorm, github.com/google/uuid
 * @refs service/sharing
 */

package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ApiKey 仪表盘访问密钥
type ApiKey struct {
	ID         string     `json:"id" gorm:"primaryKey;type:varchar(36)"`
	Name       string     `json:"name" gorm:"size:100;not null" example:"grafana-dashboard"`
	KeyPrefix  string     `json:"key_prefix" gorm:"size:12;not null;index" example:"ehk_a1b2c3"`
	KeyHash    string     `json:"-" gorm:"size:100;not null"`
	Enabled    bool       `json:"enabled" gorm:"not null;default:true"`
	ExpiresAt  *time.Time `json:"expires_at,omitempty"`
	LastUsedAt *time.Time `json:"last_used_at,omitempty"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt  time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// TableName 指定表名
func (ApiKey) TableName() string {
	return "api_keys"
}

// BeforeCreate 创建前生成UUID
func (k *ApiKey) BeforeCreate(tx *gorm.DB) error {
	if k.ID == "" {
		k.ID = uuid.New().String()
	}
	return nil
}

// IsExpired 判断密钥是否已过期
func (k *ApiKey) IsExpired() bool {
	return k.ExpiresAt != nil && time.Now().After(*k.ExpiresAt)
}
