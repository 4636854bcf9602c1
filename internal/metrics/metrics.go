package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRegistry 创建自定义 Prometheus Registry，并注册常用采集器
func NewRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// Handler 返回 Prometheus 指标 HTTP 处理器
func Handler(reg *prometheus.Registry) http.Handler {
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{Registry: reg})
}

// AppMetrics 自定义业务指标
type AppMetrics struct {
	SerialBytesReceived prometheus.Counter
	SerialWriteTotal    *prometheus.CounterVec // labels: result=ok|error
	FrameTotal          *prometheus.CounterVec // labels: result=ok|checksum_error|structural_error
	DecoderOverflow     prometheus.Counter
	CommandTotal        *prometheus.CounterVec // labels: type=open|status, result=ok|error
	StatusTimeoutTotal  prometheus.Counter
	ConnectionState     prometheus.Gauge // 0=disconnected 1=connecting 2=connected 3=faulted
}

// NewAppMetrics 注册并返回业务指标
func NewAppMetrics(reg *prometheus.Registry) *AppMetrics {
	m := &AppMetrics{
		SerialBytesReceived: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "serial_bytes_received_total",
			Help: "Total bytes received over the serial link.",
		}),
		SerialWriteTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "serial_write_total",
			Help: "Serial write attempts by result.",
		}, []string{"result"}),
		FrameTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "frame_decode_total",
			Help: "Reassembled frames by validation result.",
		}, []string{"result"}),
		DecoderOverflow: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "frame_buffer_overflow_total",
			Help: "Times the reassembly buffer hit its hard cap and was cleared.",
		}),
		CommandTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "cabinet_command_total",
			Help: "Issued cabinet commands by type and result.",
		}, []string{"type", "result"}),
		StatusTimeoutTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "status_request_timeout_total",
			Help: "Status requests that timed out waiting for a response.",
		}),
		ConnectionState: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "serial_connection_state",
			Help: "Current serial connection state (0=disconnected 1=connecting 2=connected 3=faulted).",
		}),
	}
	reg.MustRegister(m.SerialBytesReceived, m.SerialWriteTotal, m.FrameTotal, m.DecoderOverflow, m.CommandTotal, m.StatusTimeoutTotal, m.ConnectionState)
	return m
}
