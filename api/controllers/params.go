package controllers

import (
	"fmt"
	"strconv"
	"time"
)

// 查询参数支持的时间格式
var paramTimeLayouts = []string{
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02",
}

// parseDateParam 解析日期参数，仅接受YYYY-MM-DD
func parseDateParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, fmt.Errorf("日期不能为空")
	}
	return time.ParseInLocation("2006-01-02", value, time.UTC)
}

// parseTimeParam 解析时间参数，空值返回零值时间
func parseTimeParam(value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	for _, layout := range paramTimeLayouts {
		if t, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("时间格式无效: %s", value)
}

// parseDaysParam 解析天数参数，空或非法时返回默认值
func parseDaysParam(value string, defaultDays int) int {
	if value == "" {
		return defaultDays
	}
	days, err := strconv.Atoi(value)
	if err != nil || days <= 0 {
		return defaultDays
	}
	return days
}
