package controller

import (
	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
	"github.com/apecia-org/cabinet-controller/internal/serialport"
)

// Transport 串口传输抽象（serialport.Port 的能力子集，测试时可替换为内存实现）
type Transport interface {
	SetHandler(h func([]byte))
	SetErrorHandler(h func(error))
	SetMetricsCallbacks(onRecvBytes func(int))
	Open() error
	Write(b []byte) error
	Close() error
}

// TransportFactory 按串口配置创建尚未打开的传输实例
type TransportFactory func(cfg cfgpkg.SerialConfig) Transport

// SerialTransport 默认工厂：真实RS-232串口
func SerialTransport(cfg cfgpkg.SerialConfig) Transport {
	return serialport.New(cfg)
}
