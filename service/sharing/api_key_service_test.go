/*
 * @module service/sharing/api_key_service_test
 * @description API密钥服务单元测试
 * @architecture 测试层 - 内存SQLite数据库测试
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 签发密钥 -> 校验 -> 吊销/过期 -> 验证失败路径
 * @rules 明文只在签发时返回，落库仅有bcrypt哈希
 * @dependencies testing, testify, testutil
 * @refs api_key_service.go
 */

package sharing

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"energyhub-service/service/models"
	"energyhub-service/testutil"
)

func setupApiKeys(t *testing.T) (*testutil.TestDB, *ApiKeyService) {
	tdb := testutil.NewTestDB()
	t.Cleanup(tdb.Close)
	return tdb, NewApiKeyService(tdb.DB)
}

func TestIssueApiKey(t *testing.T) {
	tdb, svc := setupApiKeys(t)

	result, err := svc.Issue("grafana-dashboard", nil)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(result.PlainKey, "ehk_"))
	assert.Equal(t, result.PlainKey[:12], result.Key.KeyPrefix)
	assert.Equal(t, "grafana-dashboard", result.Key.Name)
	assert.True(t, result.Key.Enabled)
	assert.NotEmpty(t, result.Key.ID)

	// 落库的只有哈希，不含明文
	var stored models.ApiKey
	require.NoError(t, tdb.DB.First(&stored, "id = ?", result.Key.ID).Error)
	assert.NotEqual(t, result.PlainKey, stored.KeyHash)
	assert.NotContains(t, stored.KeyHash, result.PlainKey)
}

func TestIssueApiKeyEmptyName(t *testing.T) {
	_, svc := setupApiKeys(t)

	_, err := svc.Issue("   ", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "名称不能为空")
}

func TestVerifyApiKey(t *testing.T) {
	tdb, svc := setupApiKeys(t)

	issued, err := svc.Issue("etl-trigger", nil)
	require.NoError(t, err)

	key, err := svc.Verify(issued.PlainKey)
	require.NoError(t, err)
	assert.Equal(t, issued.Key.ID, key.ID)

	// 校验成功后更新最近使用时间
	var stored models.ApiKey
	require.NoError(t, tdb.DB.First(&stored, "id = ?", key.ID).Error)
	assert.NotNil(t, stored.LastUsedAt)
}

func TestVerifyApiKeyFailures(t *testing.T) {
	_, svc := setupApiKeys(t)

	issued, err := svc.Issue("reporting", nil)
	require.NoError(t, err)

	t.Run("格式不合法", func(t *testing.T) {
		_, err := svc.Verify("short")
		assert.ErrorIs(t, err, ErrKeyInvalid)

		_, err = svc.Verify("xxx_0123456789abcdef")
		assert.ErrorIs(t, err, ErrKeyInvalid)
	})

	t.Run("前缀无匹配记录", func(t *testing.T) {
		_, err := svc.Verify("ehk_ffffffffffffffffffffffffffffffff")
		assert.ErrorIs(t, err, ErrKeyNotFound)
	})

	t.Run("前缀匹配但哈希不符", func(t *testing.T) {
		// 同前缀换掉后半段
		wrong := issued.PlainKey[:12] + strings.Repeat("0", len(issued.PlainKey)-12)
		_, err := svc.Verify(wrong)
		assert.ErrorIs(t, err, ErrKeyInvalid)
	})
}

func TestVerifyRevokedApiKey(t *testing.T) {
	_, svc := setupApiKeys(t)

	issued, err := svc.Issue("temp-access", nil)
	require.NoError(t, err)
	require.NoError(t, svc.Revoke(issued.Key.ID))

	_, err = svc.Verify(issued.PlainKey)
	assert.ErrorIs(t, err, ErrKeyDisabled)
}

func TestVerifyExpiredApiKey(t *testing.T) {
	_, svc := setupApiKeys(t)

	expired := time.Now().Add(-time.Hour)
	issued, err := svc.Issue("stale", &expired)
	require.NoError(t, err)

	_, err = svc.Verify(issued.PlainKey)
	assert.ErrorIs(t, err, ErrKeyExpired)
}

func TestRevokeApiKeyNotFound(t *testing.T) {
	_, svc := setupApiKeys(t)

	err := svc.Revoke("no-such-id")
	assert.ErrorIs(t, err, ErrKeyNotFound)
}

func TestListApiKeys(t *testing.T) {
	_, svc := setupApiKeys(t)

	_, err := svc.Issue("first", nil)
	require.NoError(t, err)
	_, err = svc.Issue("second", nil)
	require.NoError(t, err)

	keys, err := svc.List()
	require.NoError(t, err)
	assert.Len(t, keys, 2)
}
