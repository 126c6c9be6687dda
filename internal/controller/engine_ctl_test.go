package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"marketplace_engine_v1/internal/api/dto"
	"marketplace_engine_v1/internal/model"
	"marketplace_engine_v1/internal/repository"
	"marketplace_engine_v1/internal/task"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// ==================== 测试替身 ====================

type fakeEngine struct {
	err error

	rankingReq   *dto.CalculateRankingsRequest
	inventoryReq *dto.CalculateInventoryRequest
	financingReq *dto.CalculateFinancingRequest
	trigger      string
	runsReq      dto.ListJobRunsRequest
	statsReq     dto.JobRunStatsRequest
}

func (f *fakeEngine) CalculateRankings(_ context.Context, trigger string, req *dto.CalculateRankingsRequest) (*dto.CalculateRankingsResponse, error) {
	f.trigger, f.rankingReq = trigger, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CalculateRankingsResponse{Ranked: len(req.ProductIDs), Notifications: 1}, nil
}

func (f *fakeEngine) CalculateInventory(_ context.Context, trigger string, req *dto.CalculateInventoryRequest) (*dto.CalculateInventoryResponse, error) {
	f.trigger, f.inventoryReq = trigger, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CalculateInventoryResponse{Calculated: 4, AutoHidden: 1, Penalties: 1}, nil
}

func (f *fakeEngine) CalculateFinancing(_ context.Context, trigger string, req *dto.CalculateFinancingRequest) (*dto.CalculateFinancingResponse, error) {
	f.trigger, f.financingReq = trigger, req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.CalculateFinancingResponse{Calculated: 2, OffersGenerated: 1}, nil
}

func (f *fakeEngine) ListRuns(_ context.Context, req dto.ListJobRunsRequest) (*dto.ListJobRunsResponse, error) {
	f.runsReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &dto.ListJobRunsResponse{List: []dto.JobRunVO{{ID: "r1", Job: req.Job, Status: model.JobStatusSuccess}}}, nil
}

func (f *fakeEngine) RunStats(_ context.Context, req dto.JobRunStatsRequest) (*repository.JobRunStats, error) {
	f.statsReq = req
	if f.err != nil {
		return nil, f.err
	}
	return &repository.JobRunStats{TotalRuns: 3, SuccessCount: 2, FailedCount: 1}, nil
}

type fakeScheduler struct {
	triggerErr error
	triggered  string
}

func (f *fakeScheduler) Status() []dto.TaskStatusVO {
	return []dto.TaskStatusVO{{Name: model.JobRanking, Enabled: true, Spec: "0 0 */6 * * *"}}
}

func (f *fakeScheduler) Trigger(name string) error {
	f.triggered = name
	return f.triggerErr
}

// ==================== 请求构造辅助 ====================

func setupEngineRouter(engine EngineRunner, tasks TaskScheduler, health HealthChecker) *gin.Engine {
	ctl := NewEngineController(engine, tasks, health, zerolog.Nop())

	r := gin.New()
	r.GET("/healthz", ctl.Healthz)
	fn := r.Group("/functions/v1")
	{
		fn.POST("/calculate-rankings", ctl.CalculateRankings)
		fn.POST("/calculate-inventory", ctl.CalculateInventory)
		fn.POST("/calculate-financing", ctl.CalculateFinancing)
	}
	api := r.Group("/api/engine")
	{
		api.GET("/runs", ctl.ListRuns)
		api.GET("/runs/stats", ctl.RunStats)
		api.GET("/tasks", ctl.ListTasks)
		api.POST("/tasks/:name/run", ctl.TriggerTask)
	}
	return r
}

func performRequest(r http.Handler, method, path string, body interface{}) *httptest.ResponseRecorder {
	var reqBody *bytes.Buffer
	switch b := body.(type) {
	case nil:
		reqBody = bytes.NewBuffer(nil)
	case string:
		reqBody = bytes.NewBufferString(b)
	default:
		jsonBytes, _ := json.Marshal(body)
		reqBody = bytes.NewBuffer(jsonBytes)
	}

	req, _ := http.NewRequest(method, path, reqBody)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

// ==================== 评分计算 ====================

func TestCalculateRankings_Body(t *testing.T) {
	tests := []struct {
		name    string
		body    interface{}
		wantIDs []string
	}{
		{"指定商品子集", map[string]interface{}{"product_ids": []string{"p1", "p2"}}, []string{"p1", "p2"}},
		{"空请求体按全量", nil, nil},
		{"空对象按全量", map[string]interface{}{}, nil},
		{"格式错误按全量", "{not json", nil},
		{"字段类型错误按全量", `{"product_ids": "p1"}`, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			engine := &fakeEngine{}
			router := setupEngineRouter(engine, &fakeScheduler{}, nil)

			w := performRequest(router, "POST", "/functions/v1/calculate-rankings", tt.body)
			require.Equal(t, http.StatusOK, w.Code)
			require.NotNil(t, engine.rankingReq)
			assert.Equal(t, tt.wantIDs, engine.rankingReq.ProductIDs)
			assert.Equal(t, model.JobTriggerHTTP, engine.trigger)

			body := decode(t, w)
			assert.Equal(t, float64(len(tt.wantIDs)), body["ranked"])
			assert.Equal(t, float64(1), body["notifications"])
		})
	}
}

func TestCalculateInventory(t *testing.T) {
	engine := &fakeEngine{}
	router := setupEngineRouter(engine, &fakeScheduler{}, nil)

	w := performRequest(router, "POST", "/functions/v1/calculate-inventory", map[string]interface{}{"product_ids": []string{"p1"}})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, []string{"p1"}, engine.inventoryReq.ProductIDs)

	body := decode(t, w)
	assert.Equal(t, float64(4), body["calculated"])
	assert.Equal(t, float64(1), body["auto_hidden"])
	assert.Equal(t, float64(1), body["penalties"])
}

func TestCalculateFinancing(t *testing.T) {
	engine := &fakeEngine{}
	router := setupEngineRouter(engine, &fakeScheduler{}, nil)

	w := performRequest(router, "POST", "/functions/v1/calculate-financing", map[string]interface{}{"store_id": "s1"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "s1", engine.financingReq.StoreID)

	body := decode(t, w)
	assert.Equal(t, float64(2), body["calculated"])
	assert.Equal(t, float64(1), body["offers_generated"])
}

func TestCalculate_FailureHidesDetails(t *testing.T) {
	paths := []string{
		"/functions/v1/calculate-rankings",
		"/functions/v1/calculate-inventory",
		"/functions/v1/calculate-financing",
	}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			engine := &fakeEngine{err: errors.New("pq: connection refused to 10.0.0.5")}
			router := setupEngineRouter(engine, &fakeScheduler{}, nil)

			w := performRequest(router, "POST", path, nil)
			assert.Equal(t, http.StatusInternalServerError, w.Code)

			body := decode(t, w)
			assert.Equal(t, errCalculationFailed, body["error"])
			assert.NotContains(t, w.Body.String(), "10.0.0.5")
			assert.NotContains(t, body, "calculated")
		})
	}
}

// ==================== 运行记录 ====================

func TestListRuns(t *testing.T) {
	engine := &fakeEngine{}
	router := setupEngineRouter(engine, &fakeScheduler{}, nil)

	w := performRequest(router, "GET", "/api/engine/runs?job=ranking&limit=5", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.ListJobRunsRequest{Job: "ranking", Limit: 5}, engine.runsReq)

	w = performRequest(router, "GET", "/api/engine/runs", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 20, engine.runsReq.Limit)

	w = performRequest(router, "GET", "/api/engine/runs?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRunStats(t *testing.T) {
	engine := &fakeEngine{}
	router := setupEngineRouter(engine, &fakeScheduler{}, nil)

	w := performRequest(router, "GET", "/api/engine/runs/stats?job=financing", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, dto.JobRunStatsRequest{Job: "financing", Days: 7}, engine.statsReq)
	assert.Equal(t, float64(3), decode(t, w)["total_runs"])

	engine.err = errors.New("boom")
	w = performRequest(router, "GET", "/api/engine/runs/stats", nil)
	assert.Equal(t, http.StatusInternalServerError, w.Code)
}

// ==================== 定时任务 ====================

func TestListTasks(t *testing.T) {
	router := setupEngineRouter(&fakeEngine{}, &fakeScheduler{}, nil)

	w := performRequest(router, "GET", "/api/engine/tasks", nil)
	require.Equal(t, http.StatusOK, w.Code)

	list, ok := decode(t, w)["list"].([]interface{})
	require.True(t, ok)
	require.Len(t, list, 1)
	assert.Equal(t, model.JobRanking, list[0].(map[string]interface{})["name"])
}

func TestTriggerTask(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{"触发成功", nil, http.StatusAccepted},
		{"任务不存在", task.ErrTaskNotFound, http.StatusNotFound},
		{"任务执行中", task.ErrTaskRunning, http.StatusConflict},
		{"定时任务关闭", task.ErrTaskDisabled, http.StatusConflict},
		{"其他错误", errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			scheduler := &fakeScheduler{triggerErr: tt.err}
			router := setupEngineRouter(&fakeEngine{}, scheduler, nil)

			w := performRequest(router, "POST", "/api/engine/tasks/inventory/run", nil)
			assert.Equal(t, tt.wantStatus, w.Code)
			assert.Equal(t, "inventory", scheduler.triggered)
		})
	}
}

// ==================== 健康检查 ====================

func TestHealthz(t *testing.T) {
	router := setupEngineRouter(&fakeEngine{}, &fakeScheduler{}, func(context.Context) error { return nil })
	w := performRequest(router, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	router = setupEngineRouter(&fakeEngine{}, &fakeScheduler{}, func(context.Context) error { return errors.New("down") })
	w = performRequest(router, "GET", "/healthz", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
