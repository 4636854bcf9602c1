package cu48

import (
	"bytes"
	"testing"
)

func TestBuildFrame(t *testing.T) {
	tests := []struct {
		name     string
		instr    byte
		addr     byte
		payload  []byte
		expected []byte
	}{
		{
			name:     "开柜5号门",
			instr:    0x50,
			addr:     0x00,
			payload:  []byte{0x05},
			expected: []byte{0xAA, 0x55, 0x03, 0x00, 0x50, 0x05, 0x14},
		},
		{
			name:     "状态查询（空payload）",
			instr:    0x51,
			addr:     0x00,
			payload:  nil,
			expected: []byte{0xAA, 0x55, 0x02, 0x00, 0x51, 0x1D},
		},
		{
			name:     "全部可用状态应答",
			instr:    0x51,
			addr:     0x00,
			payload:  []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF},
			expected: []byte{0xAA, 0x55, 0x08, 0x00, 0x51, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0x0F},
		},
		{
			name:     "全部不可用状态应答",
			instr:    0x51,
			addr:     0x00,
			payload:  []byte{0x00, 0x00, 0x00, 0x00, 0x00, 0x00},
			expected: []byte{0xAA, 0x55, 0x08, 0x00, 0x51, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x1D},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw, err := BuildFrame(tt.instr, tt.addr, tt.payload)
			if err != nil {
				t.Fatalf("BuildFrame() error = %v", err)
			}
			if !bytes.Equal(raw, tt.expected) {
				t.Errorf("BuildFrame() = % 02X, expected % 02X", raw, tt.expected)
			}
			if !ValidFrame(raw) {
				t.Errorf("ValidFrame() = false, 构造出的帧应当自校验通过")
			}
		})
	}
}

func TestBuildFramePayloadLimit(t *testing.T) {
	// 刚好到上限
	raw, err := BuildFrame(0x50, 0x00, make([]byte, MaxPayloadLen))
	if err != nil {
		t.Fatalf("BuildFrame(253字节payload) error = %v", err)
	}
	if len(raw) != MaxPayloadLen+MinFrameLen {
		t.Errorf("帧长 = %d, expected %d", len(raw), MaxPayloadLen+MinFrameLen)
	}
	if raw[2] != 0xFF {
		t.Errorf("len字段 = 0x%02X, expected 0xFF", raw[2])
	}

	// 超出上限
	_, err = BuildFrame(0x50, 0x00, make([]byte, MaxPayloadLen+1))
	if err != ErrPayloadTooLarge {
		t.Errorf("BuildFrame(254字节payload) error = %v, expected ErrPayloadTooLarge", err)
	}
}

func TestParseFrame(t *testing.T) {
	raw, _ := BuildFrame(0x50, 0x01, []byte{0x2A})
	f := ParseFrame(raw)
	if !f.Valid {
		t.Fatalf("ParseFrame().Valid = false")
	}
	if f.Addr != 0x01 {
		t.Errorf("Addr = 0x%02X, expected 0x01", f.Addr)
	}
	if f.Instr != 0x50 {
		t.Errorf("Instr = 0x%02X, expected 0x50", f.Instr)
	}
	if !bytes.Equal(f.Payload, []byte{0x2A}) {
		t.Errorf("Payload = % 02X, expected 2A", f.Payload)
	}
}

func TestParseFrameInvalid(t *testing.T) {
	good, _ := BuildFrame(0x50, 0x00, []byte{0x05})

	tampered := make([]byte, len(good))
	copy(tampered, good)
	tampered[len(tampered)-1] ^= 0xFF // 破坏校验和

	badLen := make([]byte, len(good))
	copy(badLen, good)
	badLen[2] = 0x09 // len字段与实际长度不符

	tests := []struct {
		name string
		raw  []byte
	}{
		{"过短", []byte{0xAA, 0x55, 0x02}},
		{"帧头错误", []byte{0xAB, 0x55, 0x02, 0x00, 0x51, 0x1D}},
		{"校验和被篡改", tampered},
		{"len字段不符", badLen},
		{"空输入", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if f := ParseFrame(tt.raw); f.Valid {
				t.Errorf("ParseFrame(% 02X).Valid = true, expected false", tt.raw)
			}
			if ValidFrame(tt.raw) {
				t.Errorf("ValidFrame(% 02X) = true, expected false", tt.raw)
			}
		})
	}
}

func TestHexDump(t *testing.T) {
	if got := HexDump(nil); got != "" {
		t.Errorf("HexDump(nil) = %q, expected 空串", got)
	}
	if got := HexDump([]byte{0xAA, 0x55, 0x02}); got != "AA 55 02" {
		t.Errorf("HexDump() = %q, expected %q", got, "AA 55 02")
	}
}
