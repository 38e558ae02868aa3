/*
 * @module service/models/jsonb
 * @description 通用JSONB列类型，ETL运行记录的阶段明细以此落库
 * @architecture 数据访问层 - 自定义列类型
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow Value序列化为JSON字节 -> 数据库 -> Scan反序列化回map
 * @rules nil值落库为NULL，扫描非[]byte/string输入报错
 * @dependencies database/sql/driver, encoding/json
 * @refs service/models/etl_run
 */

package models

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
)

// JSONB 通用JSON列类型
type JSONB map[string]interface{}

// Scan 实现sql.Scanner接口
func (j *JSONB) Scan(value interface{}) error {
	if value == nil {
		*j = nil
		return nil
	}

	var bytes []byte
	switch v := value.(type) {
	case []byte:
		bytes = v
	case string:
		bytes = []byte(v)
	default:
		return errors.New("类型断言失败: 不是 []byte 或 string")
	}
	return json.Unmarshal(bytes, j)
}

// Value 实现driver.Valuer接口
func (j JSONB) Value() (driver.Value, error) {
	if j == nil {
		return nil, nil
	}
	return json.Marshal(j)
}
