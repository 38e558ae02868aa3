/*
 * @module service/ingestion/script_executor
 * @description 抽取钩子脚本执行器，通过Go解释器运行用户提供的记录预处理脚本
 * @architecture 解释器模式 - 脚本按内容哈希编译缓存，重复执行复用编译结果
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 计算脚本哈希 -> 查缓存 -> 编译并缓存 -> 调用Run函数
 * @rules 脚本必须实现 Run(params) (interface{}, error) 入口，编译失败拒绝执行
 * @dependencies github.com/traefik/yaegi
 * @refs service/ingestion/extract_service
 */

package ingestion

import (
	"context"
	"crypto/sha1"
	"fmt"
	"sync"
	"time"

	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ScriptExecutor 抽取钩子脚本执行器
type ScriptExecutor struct {
	mu    sync.RWMutex
	cache map[string]*compiledScript
}

// compiledScript 编译后的脚本
type compiledScript struct {
	fn       func(map[string]interface{}) (interface{}, error)
	compiled time.Time
	hash     string
}

// NewScriptExecutor 创建脚本执行器
func NewScriptExecutor() *ScriptExecutor {
	return &ScriptExecutor{
		cache: make(map[string]*compiledScript),
	}
}

// Execute 执行脚本，params中注入records、dataset等上下文
func (e *ScriptExecutor) Execute(ctx context.Context, script string, params map[string]interface{}) (interface{}, error) {
	hash := fmt.Sprintf("%x", sha1.Sum([]byte(script)))

	e.mu.RLock()
	compiled, ok := e.cache[hash]
	e.mu.RUnlock()

	if !ok {
		var err error
		compiled, err = e.compile(script, hash)
		if err != nil {
			return nil, fmt.Errorf("脚本编译失败: %v", err)
		}

		e.mu.Lock()
		e.cache[hash] = compiled
		e.mu.Unlock()
	}

	done := make(chan struct{})
	var result interface{}
	var runErr error
	go func() {
		defer close(done)
		result, runErr = compiled.fn(params)
	}()
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case <-done:
		return result, runErr
	}
}

// compile 编译脚本为可执行函数
func (e *ScriptExecutor) compile(script, hash string) (*compiledScript, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("加载标准库失败: %w", err)
	}

	// 包装脚本：要求脚本必须实现一个 Run 函数
	wrapped := fmt.Sprintf(`
package main

import (
	"fmt"
	"strings"
	"strconv"
	"sort"
	"time"
	"encoding/json"
)

// 必须提供一个 Run 函数作为入口
func Run(params map[string]interface{}) (interface{}, error) {
	// 从参数中提取常用变量，方便脚本使用
	var records interface{}
	if v, exists := params["records"]; exists {
		records = v
	}

	var dataset interface{}
	if v, exists := params["dataset"]; exists {
		dataset = v
	}

	var priceAreas interface{}
	if v, exists := params["priceAreas"]; exists {
		priceAreas = v
	}

	var windowStart interface{}
	if v, exists := params["windowStart"]; exists {
		windowStart = v
	}

	var windowEnd interface{}
	if v, exists := params["windowEnd"]; exists {
		windowEnd = v
	}

	// 脚本内容
%s
}
`, script)

	if _, err := i.Eval(wrapped); err != nil {
		return nil, fmt.Errorf("脚本编译失败: %w", err)
	}

	v, err := i.Eval("Run")
	if err != nil {
		return nil, fmt.Errorf("脚本缺少 Run 函数: %w", err)
	}

	runFunc, ok := v.Interface().(func(map[string]interface{}) (interface{}, error))
	if !ok {
		return nil, fmt.Errorf("Run 函数签名必须是 func(map[string]interface{}) (interface{}, error)")
	}

	return &compiledScript{
		fn:       runFunc,
		compiled: time.Now(),
		hash:     hash,
	}, nil
}

// Validate 验证脚本语法
func (e *ScriptExecutor) Validate(script string) error {
	_, err := e.compile(script, "")
	return err
}

// ClearCache 清空编译缓存
func (e *ScriptExecutor) ClearCache() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.cache = make(map[string]*compiledScript)
}
