package cu48

import "errors"

const (
	// StatusSlots 一帧状态应答覆盖的柜门数量
	StatusSlots = 48
	// statusPayloadLen 状态位图字节数，每字节承载8个柜门
	statusPayloadLen = 6
)

var (
	// ErrNotStatusResponse 帧指令码不是状态应答
	ErrNotStatusResponse = errors.New("not a status response frame")
	// ErrStatusPayload 状态应答payload不足6字节
	ErrStatusPayload = errors.New("status payload too short")
)

// StatusReport 48门可用状态位图
// 字节i的bit j（低位在前）对应柜门 i*8+j：1=可用，0=不可用
type StatusReport [statusPayloadLen]byte

// Available 柜门slot是否可用；slot越界返回false
func (r StatusReport) Available(slot int) bool {
	if slot < 0 || slot >= StatusSlots {
		return false
	}
	return r[slot/8]&(1<<uint(slot%8)) != 0
}

// DecodeStatusReport 从帧中解出状态位图
// 指令码不匹配或payload不足6字节时返回错误，绝不交付部分结果
// payload超过6字节时仅取前6字节（部分固件会在位图后追加保留字节）
func DecodeStatusReport(f *Frame, ins InstructionSet) (StatusReport, error) {
	var r StatusReport
	if f == nil || f.Instr != ins.StatusResponse {
		return r, ErrNotStatusResponse
	}
	if len(f.Payload) < statusPayloadLen {
		return r, ErrStatusPayload
	}
	copy(r[:], f.Payload[:statusPayloadLen])
	return r, nil
}
