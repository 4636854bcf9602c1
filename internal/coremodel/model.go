package coremodel

import "time"

// CabinetID 柜门编号，0-based
// 协议按单字节寻址，合法范围 [0, 255]
type CabinetID int

const (
	MinCabinetID CabinetID = 0
	MaxCabinetID CabinetID = 255
)

// Valid 柜门编号是否在协议可寻址范围内
func (id CabinetID) Valid() bool {
	return id >= MinCabinetID && id <= MaxCabinetID
}

// Byte 柜门编号在线路上的单字节表示；调用前须先通过Valid检查
func (id CabinetID) Byte() byte {
	return byte(id)
}

// CabinetState 柜门状态枚举（技术视角）
type CabinetState string

const (
	CabinetStateUnknown     CabinetState = "unknown"
	CabinetStateOpened      CabinetState = "opened"      // 开柜指令已下发
	CabinetStateAvailable   CabinetState = "available"   // 状态应答：位为1
	CabinetStateUnavailable CabinetState = "unavailable" // 状态应答：位为0
)

// CabinetStatus 单个柜门的状态条目
// 状态表按需增长：只记录出现过指令或应答的柜门
type CabinetStatus struct {
	ID        CabinetID
	State     CabinetState
	UpdatedAt time.Time
}

// ConnectionState 串口链路状态
type ConnectionState string

const (
	ConnStateDisconnected ConnectionState = "disconnected"
	ConnStateConnecting   ConnectionState = "connecting"
	ConnStateConnected    ConnectionState = "connected"
	ConnStateFaulted      ConnectionState = "faulted"
)

// CanTransmit 当前链路状态是否允许下发指令
func (s ConnectionState) CanTransmit() bool {
	return s == ConnStateConnected
}
