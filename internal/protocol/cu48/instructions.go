package cu48

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// InstructionSet 指令码表
// 不同批次板卡固件的指令码存在差异，按配置下发而不是写死在代码里
type InstructionSet struct {
	Open           byte `yaml:"open"`
	StatusRequest  byte `yaml:"statusRequest"`
	StatusResponse byte `yaml:"statusResponse"`
}

// DefaultInstructionSet 默认指令码表
// 常见固件里状态查询的请求与应答共用同一码位，接收侧靠len字段区分
func DefaultInstructionSet() InstructionSet {
	return InstructionSet{
		Open:           0x50,
		StatusRequest:  0x51,
		StatusResponse: 0x51,
	}
}

// LoadInstructionSet 从yaml文件加载指令码表
// 未出现的字段保留默认值（部分覆盖语义）
func LoadInstructionSet(path string) (InstructionSet, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return InstructionSet{}, fmt.Errorf("read instruction set: %w", err)
	}
	s := DefaultInstructionSet()
	if err := yaml.Unmarshal(b, &s); err != nil {
		return InstructionSet{}, fmt.Errorf("unmarshal instruction set: %w", err)
	}
	return s, nil
}

// Collisions 返回语义不同的指令共用码位的冲突说明
// 状态查询请求与应答共码是协议本身的回显约定，不视为冲突
func (s InstructionSet) Collisions() []string {
	var out []string
	if s.Open == s.StatusRequest {
		out = append(out, fmt.Sprintf("open and statusRequest share code 0x%02X", s.Open))
	}
	if s.Open == s.StatusResponse {
		out = append(out, fmt.Sprintf("open and statusResponse share code 0x%02X", s.Open))
	}
	return out
}
