package service

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// ReservationReleaser 释放过期库存预占
// 库存服务在读取库存前调用，失败只记日志
type ReservationReleaser interface {
	ReleaseExpired(ctx context.Context, now time.Time) (int64, error)
}

// HTTPReservationReleaser 通过外部库存锁服务释放
type HTTPReservationReleaser struct {
	client *resty.Client
	path   string
}

// NewHTTPReservationReleaser client 需已配置 BaseURL 与鉴权头
func NewHTTPReservationReleaser(client *resty.Client) *HTTPReservationReleaser {
	return &HTTPReservationReleaser{client: client, path: "/release-expired"}
}

type releaseExpiredRequest struct {
	Before time.Time `json:"before"`
}

type releaseExpiredResponse struct {
	Released int64  `json:"released"`
	Error    string `json:"error"`
}

func (r *HTTPReservationReleaser) ReleaseExpired(ctx context.Context, now time.Time) (int64, error) {
	var result releaseExpiredResponse

	resp, err := r.client.R().
		SetContext(ctx).
		SetBody(releaseExpiredRequest{Before: now}).
		SetResult(&result).
		SetError(&result).
		Post(r.path)
	if err != nil {
		return 0, fmt.Errorf("调用库存锁服务失败: %w", err)
	}
	if resp.IsError() {
		return 0, fmt.Errorf("库存锁服务返回 %d: %s", resp.StatusCode(), result.Error)
	}
	return result.Released, nil
}
