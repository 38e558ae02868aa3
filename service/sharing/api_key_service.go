/*
 * @module service/sharing/api_key_service
 * @description API密钥服务，密钥签发、校验与吊销，明文只在签发时返回一次
 * @architecture 服务层 - 访问凭证
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 签发 -> 前缀定位候选 -> bcrypt比对 -> 更新最近使用时间
 * @rules 密钥以bcrypt哈希落库，过期或禁用的密钥校验失败
 * @dependencies golang.org/x/crypto/bcrypt, github.com/google/uuid
 * @refs api/middleware
 */

package sharing

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"energyhub-service/service/models"
)

// 密钥格式常量
const (
	keyPrefixTag = "ehk_"
	prefixLen    = 12
)

// 校验失败错误
var (
	ErrKeyNotFound = errors.New("密钥不存在")
	ErrKeyDisabled = errors.New("密钥已禁用")
	ErrKeyExpired  = errors.New("密钥已过期")
	ErrKeyInvalid  = errors.New("密钥校验失败")
)

// ApiKeyService API密钥服务
type ApiKeyService struct {
	db *gorm.DB
}

// NewApiKeyService 创建API密钥服务实例
func NewApiKeyService(db *gorm.DB) *ApiKeyService {
	return &ApiKeyService{db: db}
}

// IssueResult 签发结果，PlainKey只在此处返回一次
type IssueResult struct {
	Key      *models.ApiKey `json:"key"`
	PlainKey string         `json:"plain_key"`
}

// Issue 签发新密钥
func (s *ApiKeyService) Issue(name string, expiresAt *time.Time) (*IssueResult, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("密钥名称不能为空")
	}

	plain := keyPrefixTag + strings.ReplaceAll(uuid.New().String(), "-", "")
	hash, err := bcrypt.GenerateFromPassword([]byte(plain), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("密钥哈希失败: %w", err)
	}

	key := &models.ApiKey{
		Name:      name,
		KeyPrefix: plain[:prefixLen],
		KeyHash:   string(hash),
		Enabled:   true,
		ExpiresAt: expiresAt,
	}
	if err := s.db.Create(key).Error; err != nil {
		return nil, fmt.Errorf("保存密钥失败: %w", err)
	}

	return &IssueResult{Key: key, PlainKey: plain}, nil
}

// Verify 校验明文密钥，成功时更新最近使用时间
func (s *ApiKeyService) Verify(plain string) (*models.ApiKey, error) {
	if len(plain) < prefixLen || !strings.HasPrefix(plain, keyPrefixTag) {
		return nil, ErrKeyInvalid
	}

	var candidates []models.ApiKey
	if err := s.db.Where("key_prefix = ?", plain[:prefixLen]).Find(&candidates).Error; err != nil {
		return nil, fmt.Errorf("查询密钥失败: %w", err)
	}
	if len(candidates) == 0 {
		return nil, ErrKeyNotFound
	}

	for i := range candidates {
		key := &candidates[i]
		if bcrypt.CompareHashAndPassword([]byte(key.KeyHash), []byte(plain)) != nil {
			continue
		}
		if !key.Enabled {
			return nil, ErrKeyDisabled
		}
		if key.IsExpired() {
			return nil, ErrKeyExpired
		}
		now := time.Now()
		s.db.Model(key).Update("last_used_at", now)
		return key, nil
	}
	return nil, ErrKeyInvalid
}

// Revoke 吊销密钥
func (s *ApiKeyService) Revoke(id string) error {
	result := s.db.Model(&models.ApiKey{}).Where("id = ?", id).Update("enabled", false)
	if result.Error != nil {
		return fmt.Errorf("吊销密钥失败: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrKeyNotFound
	}
	return nil
}

// List 列出全部密钥
func (s *ApiKeyService) List() ([]models.ApiKey, error) {
	var keys []models.ApiKey
	if err := s.db.Order("created_at DESC").Find(&keys).Error; err != nil {
		return nil, fmt.Errorf("查询密钥列表失败: %w", err)
	}
	return keys, nil
}
