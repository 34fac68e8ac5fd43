package metrics

import (
	"bytes"
	"fmt"
	"net/http"
	"sort"
	"strconv"
	"sync"
	"sync/atomic"

	"github.com/gin-gonic/gin"
)

var (
	llmCallsTotal    atomic.Uint64
	llmFailuresTotal atomic.Uint64
	llmRetriesTotal  atomic.Uint64
	resumesUploaded  atomic.Uint64
	analysesSaved    atomic.Uint64

	llmDuration = newHistogram([]float64{250, 500, 1000, 2000, 5000, 10000, 30000, 60000})

	variantMu    sync.Mutex
	variantCalls = map[string]uint64{}
)

// ObserveLLMCall records one gateway call for a prompt variant.
func ObserveLLMCall(variant string, durationMs float64, failed bool) {
	llmCallsTotal.Add(1)
	if failed {
		llmFailuresTotal.Add(1)
	}
	if durationMs < 0 {
		durationMs = 0
	}
	llmDuration.Observe(durationMs)
	variantMu.Lock()
	variantCalls[variant]++
	variantMu.Unlock()
}

// IncLLMRetry counts a retried provider attempt.
func IncLLMRetry() {
	llmRetriesTotal.Add(1)
}

// IncResumeUploaded counts a persisted resume.
func IncResumeUploaded() {
	resumesUploaded.Add(1)
}

// IncAnalysisSaved counts an inserted or updated analysis.
func IncAnalysisSaved() {
	analysesSaved.Add(1)
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Content-Type", "text/plain; version=0.0.4")
		c.String(http.StatusOK, Render())
	}
}

// Render renders metrics in Prometheus text format.
func Render() string {
	var buf bytes.Buffer
	writeCounter(&buf, "llm_calls_total", "Total AI gateway calls", llmCallsTotal.Load())
	writeCounter(&buf, "llm_failures_total", "Total AI gateway calls that failed", llmFailuresTotal.Load())
	writeCounter(&buf, "llm_retries_total", "Total retried AI provider attempts", llmRetriesTotal.Load())
	writeCounter(&buf, "resumes_uploaded_total", "Total resumes uploaded", resumesUploaded.Load())
	writeCounter(&buf, "analyses_saved_total", "Total analyses inserted or updated", analysesSaved.Load())
	writeLabeledCounter(&buf, "llm_variant_calls_total", "AI gateway calls by prompt variant", "variant", snapshotVariants())
	writeHistogram(&buf, "llm_call_duration_ms", "AI gateway call duration in milliseconds", llmDuration.Snapshot())
	return buf.String()
}

func snapshotVariants() map[string]uint64 {
	variantMu.Lock()
	defer variantMu.Unlock()
	out := make(map[string]uint64, len(variantCalls))
	for k, v := range variantCalls {
		out[k] = v
	}
	return out
}

type histogram struct {
	mu      sync.Mutex
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

type histogramSnapshot struct {
	buckets []float64
	counts  []uint64
	sum     float64
	count   uint64
}

func newHistogram(buckets []float64) *histogram {
	return &histogram{
		buckets: buckets,
		counts:  make([]uint64, len(buckets)),
	}
}

// Observe records value in the first bucket whose bound it fits; Render accumulates.
func (h *histogram) Observe(value float64) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.count++
	h.sum += value
	for i, bound := range h.buckets {
		if value <= bound {
			h.counts[i]++
			return
		}
	}
}

func (h *histogram) Snapshot() histogramSnapshot {
	h.mu.Lock()
	defer h.mu.Unlock()
	return histogramSnapshot{
		buckets: append([]float64(nil), h.buckets...),
		counts:  append([]uint64(nil), h.counts...),
		sum:     h.sum,
		count:   h.count,
	}
}

func writeCounter(buf *bytes.Buffer, name, help string, value uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	fmt.Fprintf(buf, "%s %d\n", name, value)
}

func writeLabeledCounter(buf *bytes.Buffer, name, help, label string, values map[string]uint64) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s counter\n", name)
	keys := make([]string, 0, len(values))
	for k := range values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(buf, "%s{%s=%q} %d\n", name, label, k, values[k])
	}
}

func writeHistogram(buf *bytes.Buffer, name, help string, snap histogramSnapshot) {
	fmt.Fprintf(buf, "# HELP %s %s\n", name, help)
	fmt.Fprintf(buf, "# TYPE %s histogram\n", name)
	var cumulative uint64
	for i, bound := range snap.buckets {
		cumulative += snap.counts[i]
		fmt.Fprintf(buf, "%s_bucket{le=\"%s\"} %d\n", name, formatFloat(bound), cumulative)
	}
	fmt.Fprintf(buf, "%s_bucket{le=\"+Inf\"} %d\n", name, snap.count)
	fmt.Fprintf(buf, "%s_sum %s\n", name, formatFloat(snap.sum))
	fmt.Fprintf(buf, "%s_count %d\n", name, snap.count)
}

func formatFloat(value float64) string {
	if value == float64(int64(value)) {
		return strconv.FormatInt(int64(value), 10)
	}
	return strconv.FormatFloat(value, 'f', -1, 64)
}
