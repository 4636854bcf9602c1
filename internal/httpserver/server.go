package httpserver

import (
	"context"
	"net/http"
	netpprof "net/http/pprof"

	"github.com/gin-gonic/gin"

	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
)

// Server HTTP 服务封装
type Server struct {
	engine *gin.Engine
	srv    *http.Server
}

// New 创建并配置 Gin + HTTP Server，注册健康检查与指标路由
func New(cfg cfgpkg.HTTPConfig, metricsPath string, metricsHandler http.Handler, readyFn func() bool) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.String(http.StatusOK, "ok")
	})
	r.GET("/readyz", func(c *gin.Context) {
		if readyFn == nil || readyFn() {
			c.String(http.StatusOK, "ready")
			return
		}
		c.String(http.StatusServiceUnavailable, "not-ready")
	})
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	if metricsHandler != nil {
		r.GET(metricsPath, gin.WrapH(metricsHandler))
	}
	if cfg.Pprof.Enable {
		registerPprof(r, cfg.Pprof.Prefix)
	}

	srv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      r,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	return &Server{engine: r, srv: srv}
}

// Register 在启动前挂载业务路由
func (s *Server) Register(fn func(r *gin.Engine)) {
	if fn != nil {
		fn(s.engine)
	}
}

// Start 启动 HTTP 服务（阻塞）
func (s *Server) Start() error {
	return s.srv.ListenAndServe()
}

// Shutdown 优雅关闭
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

// registerPprof 挂载运行时剖析路由，仅在配置开启时调用
func registerPprof(r *gin.Engine, prefix string) {
	if prefix == "" {
		prefix = "/debug/pprof"
	}
	grp := r.Group(prefix)
	grp.GET("/", gin.WrapF(netpprof.Index))
	grp.GET("/cmdline", gin.WrapF(netpprof.Cmdline))
	grp.GET("/profile", gin.WrapF(netpprof.Profile))
	grp.GET("/symbol", gin.WrapF(netpprof.Symbol))
	grp.POST("/symbol", gin.WrapF(netpprof.Symbol))
	grp.GET("/trace", gin.WrapF(netpprof.Trace))
	grp.GET("/allocs", gin.WrapH(netpprof.Handler("allocs")))
	grp.GET("/block", gin.WrapH(netpprof.Handler("block")))
	grp.GET("/goroutine", gin.WrapH(netpprof.Handler("goroutine")))
	grp.GET("/heap", gin.WrapH(netpprof.Handler("heap")))
	grp.GET("/mutex", gin.WrapH(netpprof.Handler("mutex")))
	grp.GET("/threadcreate", gin.WrapH(netpprof.Handler("threadcreate")))
}
