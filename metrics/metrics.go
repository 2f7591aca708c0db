package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var enabled = true

var (
	// ImportRowsTotal 导入行结果
	ImportRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrm_import_rows_total",
			Help: "Rows handled by the spreadsheet import, labeled by outcome.",
		},
		[]string{"outcome"},
	)

	// FollowUpSweepsTotal 提醒扫描次数
	FollowUpSweepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrm_followup_sweeps_total",
			Help: "Follow-up alert sweeps, labeled by result.",
		},
		[]string{"result"},
	)

	// FollowUpNotificationsTotal 提醒发送结果
	FollowUpNotificationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "smartcrm_followup_notifications_total",
			Help: "Follow-up reminder notifications, labeled by result.",
		},
		[]string{"result"},
	)

	// HTTPRequestDurationSeconds 请求耗时
	HTTPRequestDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "smartcrm_http_request_duration_seconds",
			Help:    "HTTP request latency by route, method and status.",
			Buckets: prometheus.ExponentialBuckets(0.005, 2, 12),
		},
		[]string{"route", "method", "status"},
	)
)

// SetEnabled 开关指标采集
func SetEnabled(v bool) {
	enabled = v
}

// Enabled 是否采集指标
func Enabled() bool {
	return enabled
}

// IncImportRows 记录导入行结果
func IncImportRows(outcome string, n int) {
	if !enabled || n <= 0 {
		return
	}
	ImportRowsTotal.WithLabelValues(outcome).Add(float64(n))
}

// IncSweep 记录一次扫描
func IncSweep(result string) {
	if !enabled {
		return
	}
	FollowUpSweepsTotal.WithLabelValues(result).Inc()
}

// IncNotification 记录一次提醒发送
func IncNotification(result string) {
	if !enabled {
		return
	}
	FollowUpNotificationsTotal.WithLabelValues(result).Inc()
}

// ObserveHTTPRequest 记录请求耗时
func ObserveHTTPRequest(route, method string, status int, d time.Duration) {
	if !enabled {
		return
	}
	if route == "" {
		route = "unmatched"
	}
	HTTPRequestDurationSeconds.WithLabelValues(route, method, strconv.Itoa(status)).Observe(d.Seconds())
}
