package health

import (
	"context"
	"encoding/json"
	"net/http"
	"runtime"
	"sort"
	"strconv"
	"time"

	"greenpulse-backend/internal/application/notifications"
	"greenpulse-backend/internal/domain"
	"greenpulse-backend/internal/middleware"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// DBPinger is optional for health check. If nil, database is reported as disconnected.
type DBPinger interface {
	Ping() error
}

// GormPinger pings the pool behind a *gorm.DB.
type GormPinger struct{ DB *gorm.DB }

func (g *GormPinger) Ping() error {
	sqlDB, err := g.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// CollectResult is served by /health/json and rendered by the dashboard.
type CollectResult struct {
	Status       string               `json:"status"`
	Runtime      RuntimeInfo          `json:"runtime"`
	Traffic      TrafficInfo          `json:"traffic"`
	Dependencies map[string]DepStatus `json:"dependencies"`
	Ledger       *LedgerSummary       `json:"ledger,omitempty"`
}

type RuntimeInfo struct {
	UptimeSeconds int64      `json:"uptimeSeconds"`
	Memory        MemoryInfo `json:"memory"`
	Goroutines    int        `json:"goroutines"`
	Platform      string     `json:"platform"`
	GoVersion     string     `json:"goVersion"`
}

type MemoryInfo struct {
	Alloc    int `json:"alloc"`
	HeapUsed int `json:"heapUsed"`
}

type TrafficInfo struct {
	TotalRequests   int         `json:"totalRequests"`
	SuccessCount    int         `json:"successCount"`
	FailedCount     int         `json:"failedCount"`
	SuccessRate     string      `json:"successRate"`
	AvgResponseTime string      `json:"avgResponseTime"`
	LastRequest     interface{} `json:"lastRequest"`
}

type DepStatus struct {
	Status string `json:"status"`
	PingMs *int64 `json:"pingMs"`
}

// LedgerSummary is a cheap aggregate over the projects table.
type LedgerSummary struct {
	ProjectsByStatus map[string]int64              `json:"projectsByStatus"`
	TotalRaised      float64                       `json:"totalRaised"`
	Donations        int64                         `json:"donations"`
	RecentlyFunded   []notifications.FundedMessage `json:"recentlyFunded"`
}

// Collector gathers health data. Probes maps a dependency name to a URL
// that should answer any HTTP status.
type Collector struct {
	Rdb    *redis.Client
	DB     DBPinger
	Ledger *gorm.DB
	Probes map[string]string
	Client *http.Client
}

func (h *Collector) Collect(ctx context.Context) CollectResult {
	result := CollectResult{Dependencies: make(map[string]DepStatus)}

	dbStatus := "disconnected"
	var dbPing *int64
	if h.DB != nil {
		start := time.Now()
		if err := h.DB.Ping(); err == nil {
			dbPing = msSince(start)
			dbStatus = "connected"
		} else {
			dbStatus = "error"
		}
	}
	result.Dependencies["database"] = DepStatus{Status: dbStatus, PingMs: dbPing}

	redisStatus := "disconnected"
	var redisPing *int64
	stats := TrafficInfo{SuccessRate: "100", AvgResponseTime: "0"}
	startTimeMs := time.Now().UnixMilli()
	if h.Rdb != nil {
		start := time.Now()
		if err := h.Rdb.Ping(ctx).Err(); err == nil {
			redisPing = msSince(start)
			redisStatus = "connected"
			startTimeMs = h.readTraffic(ctx, &stats, startTimeMs)
		} else {
			redisStatus = "error"
		}
	}
	result.Dependencies["redis"] = DepStatus{Status: redisStatus, PingMs: redisPing}
	result.Traffic = stats

	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	uptime := (time.Now().UnixMilli() - startTimeMs) / 1000
	if uptime < 0 {
		uptime = 0
	}
	result.Runtime = RuntimeInfo{
		UptimeSeconds: uptime,
		Memory:        MemoryInfo{Alloc: int(m.Alloc / 1024 / 1024), HeapUsed: int(m.HeapInuse / 1024 / 1024)},
		Goroutines:    runtime.NumGoroutine(),
		Platform:      runtime.GOOS + " (" + runtime.GOARCH + ")",
		GoVersion:     runtime.Version(),
	}

	for name, url := range h.Probes {
		ping := h.httpPing(ctx, url)
		st := "unreachable"
		if ping != nil {
			st = "reachable"
		}
		result.Dependencies[name] = DepStatus{Status: st, PingMs: ping}
	}

	if h.Ledger != nil && dbStatus == "connected" {
		if sum, err := h.ledgerSummary(ctx); err == nil {
			result.Ledger = sum
		}
	}

	if dbStatus == "connected" && redisStatus == "connected" {
		result.Status = "ok"
	} else {
		result.Status = "issue"
	}
	return result
}

func (h *Collector) readTraffic(ctx context.Context, stats *TrafficInfo, startTimeMs int64) int64 {
	totalReq, _ := h.Rdb.Get(ctx, middleware.KeyReqTotal).Result()
	totalErr, _ := h.Rdb.Get(ctx, middleware.KeyReqErrors).Result()
	totalTime, _ := h.Rdb.Get(ctx, middleware.KeyResTime).Result()
	resCount, _ := h.Rdb.Get(ctx, middleware.KeyResCount).Result()
	startTimeStr, _ := h.Rdb.Get(ctx, middleware.KeyStartTime).Result()
	lastReqStr, _ := h.Rdb.Get(ctx, middleware.KeyLastReq).Result()

	if t, err := strconv.ParseInt(startTimeStr, 10, 64); err == nil {
		startTimeMs = t
	} else {
		h.Rdb.Set(ctx, middleware.KeyStartTime, startTimeMs, 0)
	}

	stats.TotalRequests, _ = strconv.Atoi(totalReq)
	stats.FailedCount, _ = strconv.Atoi(totalErr)
	stats.SuccessCount = stats.TotalRequests - stats.FailedCount
	if stats.TotalRequests > 0 {
		stats.SuccessRate = strconv.FormatFloat(float64(stats.SuccessCount)/float64(stats.TotalRequests)*100, 'f', 1, 64)
	}
	timeSum, _ := strconv.ParseFloat(totalTime, 64)
	if count, _ := strconv.Atoi(resCount); count > 0 {
		stats.AvgResponseTime = strconv.FormatFloat(timeSum/float64(count), 'f', 2, 64)
	}
	if lastReqStr != "" {
		var lastReq map[string]interface{}
		if json.Unmarshal([]byte(lastReqStr), &lastReq) == nil {
			stats.LastRequest = lastReq
		}
	}
	return startTimeMs
}

func (h *Collector) ledgerSummary(ctx context.Context) (*LedgerSummary, error) {
	db := h.Ledger.WithContext(ctx)
	var rows []struct {
		Status string
		Count  int64
		Raised float64
	}
	if err := db.Model(&domain.Project{}).
		Select("status, COUNT(*) AS count, COALESCE(SUM(current_funding), 0) AS raised").
		Group("status").
		Scan(&rows).Error; err != nil {
		return nil, err
	}
	sum := &LedgerSummary{ProjectsByStatus: make(map[string]int64, len(domain.ProjectStatuses))}
	for _, st := range domain.ProjectStatuses {
		sum.ProjectsByStatus[string(st)] = 0
	}
	for _, r := range rows {
		sum.ProjectsByStatus[r.Status] = r.Count
		sum.TotalRaised += r.Raised
	}
	if err := db.Model(&domain.Donation{}).Count(&sum.Donations).Error; err != nil {
		return nil, err
	}
	recent, _ := notifications.RecentFunded(ctx, h.Rdb, 5)
	sum.RecentlyFunded = recent
	return sum, nil
}

func (h *Collector) httpPing(ctx context.Context, url string) *int64 {
	client := h.Client
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil
	}
	start := time.Now()
	resp, err := client.Do(req)
	if err != nil {
		return nil
	}
	resp.Body.Close()
	return msSince(start)
}

// DependencyNames returns the dependency keys in display order.
func (r CollectResult) DependencyNames() []string {
	names := make([]string, 0, len(r.Dependencies))
	for k := range r.Dependencies {
		if k != "database" && k != "redis" {
			names = append(names, k)
		}
	}
	sort.Strings(names)
	return append([]string{"database", "redis"}, names...)
}

func msSince(t time.Time) *int64 {
	ms := time.Since(t).Milliseconds()
	return &ms
}
