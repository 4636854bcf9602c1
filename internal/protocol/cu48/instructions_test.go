package cu48

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultInstructionSet(t *testing.T) {
	s := DefaultInstructionSet()
	if s.Open != 0x50 {
		t.Errorf("Open = 0x%02X, expected 0x50", s.Open)
	}
	if s.StatusRequest != 0x51 || s.StatusResponse != 0x51 {
		t.Errorf("StatusRequest/StatusResponse = 0x%02X/0x%02X, expected 0x51/0x51",
			s.StatusRequest, s.StatusResponse)
	}
	// 请求与应答共码不算冲突
	if c := s.Collisions(); len(c) != 0 {
		t.Errorf("默认码表不应报冲突: %v", c)
	}
}

func TestInstructionSetCollisions(t *testing.T) {
	// 开柜与状态查询共码：两条冲突（对请求和应答各一条）
	s := InstructionSet{Open: 0x51, StatusRequest: 0x51, StatusResponse: 0x51}
	if c := s.Collisions(); len(c) != 2 {
		t.Errorf("Collisions() = %v, expected 2条", c)
	}

	// 仅与应答共码
	s = InstructionSet{Open: 0x51, StatusRequest: 0x50, StatusResponse: 0x51}
	if c := s.Collisions(); len(c) != 1 {
		t.Errorf("Collisions() = %v, expected 1条", c)
	}
}

func TestLoadInstructionSet(t *testing.T) {
	path := filepath.Join(t.TempDir(), "instructions.yaml")
	content := "open: 0x60\nstatusRequest: 0x61\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("写临时文件失败: %v", err)
	}

	s, err := LoadInstructionSet(path)
	if err != nil {
		t.Fatalf("LoadInstructionSet() error = %v", err)
	}
	if s.Open != 0x60 || s.StatusRequest != 0x61 {
		t.Errorf("加载结果 = %+v", s)
	}
	// 未出现的字段保留默认值
	if s.StatusResponse != 0x51 {
		t.Errorf("StatusResponse = 0x%02X, expected 默认0x51", s.StatusResponse)
	}
}

func TestLoadInstructionSetMissingFile(t *testing.T) {
	_, err := LoadInstructionSet(filepath.Join(t.TempDir(), "nope.yaml"))
	if err == nil {
		t.Errorf("缺失文件应返回错误")
	}
}
