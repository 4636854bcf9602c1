package cu48

import "errors"

// 帧格式：header(2) + len(1) + addr(1) + instr(1) + payload(var) + checksum(1)
// len字段统计 addr+instr+payload 的字节数，整帧长度 = len + 4
const (
	// Header0 Header1 帧头定界符
	Header0 = 0xAA
	Header1 = 0x55

	// MinFrameLen 空payload帧的最小长度：header(2)+len(1)+addr(1)+instr(1)+checksum(1)
	MinFrameLen = 6
	// MaxPayloadLen len为单字节，扣除addr+instr后payload的上限
	MaxPayloadLen = 253
)

var (
	// ErrPayloadTooLarge payload超出len字段可表示的范围
	ErrPayloadTooLarge = errors.New("payload too large")
)

// Frame 锁控板协议帧
type Frame struct {
	Raw     []byte // 完整帧原始字节（重组器交付时已拷贝，独立于内部缓冲）
	Addr    byte   // 板卡地址
	Instr   byte   // 指令码
	Payload []byte // 数据区（Raw的切片）
	Valid   bool   // 结构与校验和是否都通过
}

// BuildFrame 构造下行帧
func BuildFrame(instr, addr byte, payload []byte) ([]byte, error) {
	if len(payload) > MaxPayloadLen {
		return nil, ErrPayloadTooLarge
	}
	buf := make([]byte, 0, MinFrameLen+len(payload))
	buf = append(buf, Header0, Header1, byte(2+len(payload)), addr, instr)
	buf = append(buf, payload...)
	return BuildChecksummedData(buf), nil
}

// ParseFrame 解析一段候选完整帧
// 结构不符或校验失败时 Valid=false；不返回error，由调用方决定记录或丢弃
func ParseFrame(raw []byte) *Frame {
	f := &Frame{Raw: raw}
	if len(raw) < MinFrameLen {
		return f
	}
	if raw[0] != Header0 || raw[1] != Header1 {
		return f
	}
	if int(raw[2])+4 != len(raw) {
		return f
	}
	f.Addr = raw[3]
	f.Instr = raw[4]
	f.Payload = raw[5 : len(raw)-1]
	f.Valid = VerifyChecksum(raw) == nil
	return f
}

// ValidFrame 判断候选字节串是否为结构和校验和都合法的完整帧
func ValidFrame(raw []byte) bool {
	return ParseFrame(raw).Valid
}
