package monitoring

import (
	"fmt"
	"math"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"winequality/pipeline"
)

// latencyWindow 保留最近的延迟样本数
const latencyWindow = 1000

// LatencySummary 延迟摘要（毫秒）
type LatencySummary struct {
	Count   int     `json:"count"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Average float64 `json:"average"`
	P95     float64 `json:"p95"`
}

// Snapshot 指标快照
type Snapshot struct {
	Uptime      string           `json:"uptime"`
	Goroutines  int              `json:"goroutines"`
	HeapAlloc   uint64           `json:"heap_alloc"`
	Predictions map[string]int64 `json:"predictions_total"`
	Errors      map[string]int64 `json:"prediction_errors_total"`
	Latency     LatencySummary   `json:"prediction_latency_ms"`
}

// MetricsCollector 预测指标收集器
type MetricsCollector struct {
	metricsLock sync.RWMutex

	predictions map[string]int64
	errors      map[string]int64
	latencies   []float64
	next        int

	startTime time.Time
}

// NewMetricsCollector 创建指标收集器
func NewMetricsCollector() *MetricsCollector {
	return &MetricsCollector{
		predictions: make(map[string]int64),
		errors:      make(map[string]int64),
		latencies:   make([]float64, 0, latencyWindow),
		startTime:   time.Now(),
	}
}

// Observe 记录一次预测
func (mc *MetricsCollector) Observe(event pipeline.Event) {
	mc.metricsLock.Lock()
	defer mc.metricsLock.Unlock()

	if event.ErrorKind != "" {
		mc.errors[event.ErrorKind]++
	} else if event.Result != nil {
		mc.predictions[string(event.Result.Quality)]++
	}

	// 环形缓冲区
	if len(mc.latencies) < latencyWindow {
		mc.latencies = append(mc.latencies, event.LatencyMs)
	} else {
		mc.latencies[mc.next] = event.LatencyMs
	}
	mc.next = (mc.next + 1) % latencyWindow
}

// Snapshot 获取指标快照
func (mc *MetricsCollector) Snapshot() Snapshot {
	mc.metricsLock.RLock()
	predictions := copyCounts(mc.predictions)
	errors := copyCounts(mc.errors)
	latencies := append([]float64(nil), mc.latencies...)
	mc.metricsLock.RUnlock()

	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	return Snapshot{
		Uptime:      mc.GetUptime().Round(time.Second).String(),
		Goroutines:  runtime.NumGoroutine(),
		HeapAlloc:   m.HeapAlloc,
		Predictions: predictions,
		Errors:      errors,
		Latency:     summarize(latencies),
	}
}

// ExportPrometheus 导出Prometheus格式
func (mc *MetricsCollector) ExportPrometheus() string {
	snapshot := mc.Snapshot()
	var b strings.Builder

	writeCounter(&b, "predictions_total", "Successful predictions by quality.", "quality", snapshot.Predictions)
	writeCounter(&b, "prediction_errors_total", "Failed predictions by error kind.", "kind", snapshot.Errors)

	fmt.Fprintf(&b, "# HELP prediction_latency_ms Prediction latency over the last %d requests.\n", latencyWindow)
	fmt.Fprintf(&b, "# TYPE prediction_latency_ms summary\n")
	fmt.Fprintf(&b, "prediction_latency_ms{quantile=\"0.95\"} %g\n", snapshot.Latency.P95)
	fmt.Fprintf(&b, "prediction_latency_ms_count %d\n", snapshot.Latency.Count)

	fmt.Fprintf(&b, "# HELP process_uptime_seconds Seconds since start.\n")
	fmt.Fprintf(&b, "# TYPE process_uptime_seconds gauge\n")
	fmt.Fprintf(&b, "process_uptime_seconds %d\n", int64(mc.GetUptime().Seconds()))
	return b.String()
}

// GetUptime 获取运行时间
func (mc *MetricsCollector) GetUptime() time.Duration {
	return time.Since(mc.startTime)
}

func writeCounter(b *strings.Builder, name, help, label string, counts map[string]int64) {
	fmt.Fprintf(b, "# HELP %s %s\n", name, help)
	fmt.Fprintf(b, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(counts))
	for key := range counts {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		fmt.Fprintf(b, "%s{%s=%q} %d\n", name, label, key, counts[key])
	}
}

func copyCounts(counts map[string]int64) map[string]int64 {
	result := make(map[string]int64, len(counts))
	for k, v := range counts {
		result[k] = v
	}
	return result
}

func summarize(values []float64) LatencySummary {
	if len(values) == 0 {
		return LatencySummary{}
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	sum := 0.0
	for _, v := range sorted {
		sum += v
	}
	rank := int(math.Ceil(0.95*float64(len(sorted)))) - 1
	return LatencySummary{
		Count:   len(sorted),
		Min:     sorted[0],
		Max:     sorted[len(sorted)-1],
		Average: sum / float64(len(sorted)),
		P95:     sorted[rank],
	}
}
