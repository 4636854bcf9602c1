package controller

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyBatch 开柜批次为空
	ErrEmptyBatch = errors.New("empty cabinet batch")
	// ErrCabinetID 柜门编号超出协议可寻址范围
	ErrCabinetID = errors.New("cabinet id out of range")
	// ErrNotConnected 串口链路未连接
	ErrNotConnected = errors.New("serial link not connected")
	// ErrAlreadyConnected 链路已连接或正在连接
	ErrAlreadyConnected = errors.New("serial link already connected")
)

// TransportError 串口层故障，携带操作与设备上下文
// 批次内单柜门写失败只记录在结果里，不会作为error向上抛
type TransportError struct {
	Op     string
	Device string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Device, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}
