/*
 * @module service/utils/data_converter
 * @description 数据转换工具模块，负责度量值矫正、字符编码转换与时间解析
 * @architecture 工具函数模式，提供无状态转换方法集合
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 无状态转换：输入 -> 转换逻辑 -> 输出
 * @rules
 *   - 度量矫正失败统一回落为0，不中断批次
 *   - 编码转换支持北欧CSV常见的ISO-8859-1与Windows-1252字符集
 *   - 时间解析覆盖EnergiDataService的时间戳格式
 * @dependencies
 *   - github.com/spf13/cast: 宽松类型转换
 *   - golang.org/x/text: 字符编码转换
 * @refs
 *   - service/warehouse/*: 事实转换
 *   - service/ingestion/*: CSV装载
 */

package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cast"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// DataConverter 数据转换器
type DataConverter struct{}

// NewDataConverter 创建新的数据转换器实例
func NewDataConverter() *DataConverter {
	return &DataConverter{}
}

// 度量矫正功能

// CoerceFloat 将原始度量文本矫正为浮点数，失败回落为0
func (dc *DataConverter) CoerceFloat(value interface{}) float64 {
	if value == nil {
		return 0
	}
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s == "" || strings.EqualFold(s, "null") || strings.EqualFold(s, "nan") {
			return 0
		}
		// 丹麦区域设置的CSV用逗号作小数分隔符
		s = strings.ReplaceAll(s, ",", ".")
		return cast.ToFloat64(s)
	}
	return cast.ToFloat64(value)
}

// CoerceInt 将原始字段矫正为整数，失败回落为0
func (dc *DataConverter) CoerceInt(value interface{}) int {
	return cast.ToInt(value)
}

// ToString 转换为字符串
func (dc *DataConverter) ToString(value interface{}) string {
	return cast.ToString(value)
}

// InRange 判断度量值是否落在[min, max]闭区间内
func (dc *DataConverter) InRange(value, min, max float64) bool {
	return value >= min && value <= max
}

// 编码转换功能

// DecodeCharset 将单字节编码的CSV字节流解码为UTF-8
func (dc *DataConverter) DecodeCharset(data []byte, encoding string) ([]byte, error) {
	switch strings.ToLower(encoding) {
	case "", "utf-8", "utf8":
		return data, nil
	case "iso-8859-1", "latin1", "latin-1":
		decoder := charmap.ISO8859_1.NewDecoder()
		result, _, err := transform.Bytes(decoder, data)
		return result, err
	case "windows-1252", "cp1252":
		decoder := charmap.Windows1252.NewDecoder()
		result, _, err := transform.Bytes(decoder, data)
		return result, err
	default:
		return nil, fmt.Errorf("不支持的字符编码: %s", encoding)
	}
}

// NormalizeString 标准化字符串
func (dc *DataConverter) NormalizeString(str string) string {
	str = strings.TrimSpace(str)
	str = strings.Join(strings.Fields(str), " ")
	return str
}

// 时间处理功能

// 能源数据服务接口返回的时间戳格式
var energiTimeLayouts = []string{
	"2006-01-02T15:04:05",
	time.RFC3339,
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// ParseTimestamp 解析时间戳文本，按UTC处理无时区后缀的值
func (dc *DataConverter) ParseTimestamp(timeStr string) (time.Time, error) {
	timeStr = strings.TrimSpace(timeStr)
	if timeStr == "" {
		return time.Time{}, fmt.Errorf("时间字符串为空")
	}

	for _, layout := range energiTimeLayouts {
		if t, err := time.ParseInLocation(layout, timeStr, time.UTC); err == nil {
			return t, nil
		}
	}

	return time.Time{}, fmt.Errorf("无法解析时间字符串: %s", timeStr)
}

// ConvertTimezone 转换时区
func (dc *DataConverter) ConvertTimezone(t time.Time, timezone string) (time.Time, error) {
	if timezone == "" {
		return t, nil
	}

	loc, err := time.LoadLocation(timezone)
	if err != nil {
		return t, fmt.Errorf("无效的时区: %s, %v", timezone, err)
	}

	return t.In(loc), nil
}
