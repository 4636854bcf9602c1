package serialport

import (
	"fmt"
	"sync"

	"go.bug.st/serial"

	cfgpkg "github.com/apecia-org/cabinet-controller/internal/config"
)

// Port RS-232 串口传输
// 打开后由内部 goroutine 持续读取，通过回调向上交付字节流
type Port struct {
	cfg   cfgpkg.SerialConfig
	port  serial.Port
	wg    sync.WaitGroup
	stopC chan struct{}

	// Close可能被断开操作与读循环错误处理并发调用
	closeOnce sync.Once
	closeErr  error

	writeMu sync.Mutex

	handler func([]byte)
	onError func(error)
	// 可选指标回调
	onRecvBytes func(n int)
}

// New 创建串口传输（不做任何IO，Open后才占用设备）
func New(cfg cfgpkg.SerialConfig) *Port {
	return &Port{cfg: cfg, stopC: make(chan struct{})}
}

// SetHandler 设置上行字节流处理回调
// 回调必须在返回前消费完切片内容，底层缓冲区会被复用
func (p *Port) SetHandler(h func([]byte)) { p.handler = h }

// SetErrorHandler 设置读循环致命错误回调（设备拔出、句柄失效等）
func (p *Port) SetErrorHandler(h func(error)) { p.onError = h }

// SetMetricsCallbacks 设置指标回调
func (p *Port) SetMetricsCallbacks(onRecvBytes func(int)) {
	p.onRecvBytes = onRecvBytes
}

// parseParity 解析配置中的校验位名称
func parseParity(name string) (serial.Parity, error) {
	switch name {
	case "", "none":
		return serial.NoParity, nil
	case "odd":
		return serial.OddParity, nil
	case "even":
		return serial.EvenParity, nil
	default:
		return serial.NoParity, fmt.Errorf("unknown parity %q", name)
	}
}

// parseStopBits 解析配置中的停止位
func parseStopBits(n int) (serial.StopBits, error) {
	switch n {
	case 0, 1:
		return serial.OneStopBit, nil
	case 2:
		return serial.TwoStopBits, nil
	default:
		return serial.OneStopBit, fmt.Errorf("unsupported stop bits %d", n)
	}
}

// Open 打开串口并启动读循环（非阻塞）
func (p *Port) Open() error {
	parity, err := parseParity(p.cfg.Parity)
	if err != nil {
		return err
	}
	stopBits, err := parseStopBits(p.cfg.StopBits)
	if err != nil {
		return err
	}

	dataBits := p.cfg.DataBits
	if dataBits == 0 {
		dataBits = 8
	}

	port, err := serial.Open(p.cfg.Device, &serial.Mode{
		BaudRate: p.cfg.BaudRate,
		DataBits: dataBits,
		Parity:   parity,
		StopBits: stopBits,
	})
	if err != nil {
		return fmt.Errorf("open serial port %s: %w", p.cfg.Device, err)
	}

	// 读超时让循环周期性醒来检查stopC；超时返回 n=0, err=nil
	if p.cfg.ReadTimeout > 0 {
		if err := port.SetReadTimeout(p.cfg.ReadTimeout); err != nil {
			_ = port.Close()
			return fmt.Errorf("set read timeout: %w", err)
		}
	}
	p.port = port

	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		buf := make([]byte, 4096)
		for {
			n, err := p.port.Read(buf)
			if n > 0 {
				if p.onRecvBytes != nil {
					p.onRecvBytes(n)
				}
				if p.handler != nil {
					p.handler(buf[:n])
				}
			}
			if err != nil {
				select {
				case <-p.stopC:
					return
				default:
				}
				if p.onError != nil {
					p.onError(err)
				}
				return
			}
			select {
			case <-p.stopC:
				return
			default:
			}
		}
	}()
	return nil
}

// Write 向串口写入一帧完整字节；串行化，避免多帧交错
func (p *Port) Write(b []byte) error {
	p.writeMu.Lock()
	defer p.writeMu.Unlock()

	if p.port == nil {
		return fmt.Errorf("serial port %s not open", p.cfg.Device)
	}
	for len(b) > 0 {
		n, err := p.port.Write(b)
		if err != nil {
			return fmt.Errorf("write serial port %s: %w", p.cfg.Device, err)
		}
		b = b[n:]
	}
	return nil
}

// Close 停止读循环并关闭设备，可重复调用
func (p *Port) Close() error {
	p.closeOnce.Do(func() {
		close(p.stopC)
		if p.port != nil {
			p.closeErr = p.port.Close()
		}
		p.wg.Wait()
	})
	return p.closeErr
}
