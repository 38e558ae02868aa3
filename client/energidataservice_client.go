/*
 * @module client/energidataservice_client
 * @description 能源数据服务HTTP客户端，按数据集与时间窗口拉取记录
 * @architecture 适配器模式 - 封装外部开放数据接口
 * @documentReference ai_docs/warehouse_requirements.md
 * @stateFlow 构造查询参数 -> 发起请求 -> 解析{total, records}响应
 * @rules 请求携带context支持取消，非200响应视为错误
 * @dependencies net/http
 * @refs service/ingestion/extract_service
 */

package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// DefaultBaseURL 能源数据服务开放接口地址
const DefaultBaseURL = "https://api.energidataservice.dk/dataset"

// EnergiDataClient 能源数据服务客户端
type EnergiDataClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewEnergiDataClient 创建客户端实例，baseURL为空时使用默认地址
func NewEnergiDataClient(baseURL string) *EnergiDataClient {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &EnergiDataClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 60 * time.Second,
		},
	}
}

// DatasetResponse 数据集接口响应
type DatasetResponse struct {
	Total   int64                    `json:"total"`
	Records []map[string]interface{} `json:"records"`
}

// FetchOptions 拉取参数
type FetchOptions struct {
	Start time.Time // 窗口起点，含
	End   time.Time // 窗口终点，不含
	Limit int       // 0表示不限制
}

// FetchRecords 按数据集名拉取记录
func (c *EnergiDataClient) FetchRecords(ctx context.Context, dataset string, opts FetchOptions) (*DatasetResponse, error) {
	endpoint := fmt.Sprintf("%s/%s", c.baseURL, url.PathEscape(dataset))

	params := url.Values{}
	if !opts.Start.IsZero() {
		params.Set("start", opts.Start.UTC().Format("2006-01-02T15:04"))
	}
	if !opts.End.IsZero() {
		params.Set("end", opts.End.UTC().Format("2006-01-02T15:04"))
	}
	if opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("构造请求失败: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("请求数据集 %s 失败: %w", dataset, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		return nil, fmt.Errorf("数据集 %s 返回状态 %d: %s", dataset, resp.StatusCode, string(body))
	}

	var result DatasetResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("解析数据集 %s 响应失败: %w", dataset, err)
	}
	return &result, nil
}
