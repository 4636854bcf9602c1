package cu48

// DefaultMaxBuffer 重组缓冲区默认硬上限
// 合法帧最长259字节，缓冲攒到10KB说明线路在持续输出噪声或长度字段损坏
const DefaultMaxBuffer = 10240

// minBuffered 尝试切帧前至少缓冲 header(2)+len(1)+addr(1) 四个字节
const minBuffered = 4

// StreamDecoder 串口字节流帧重组器
// 跨Feed调用保留半帧前缀；帧头不匹配时丢弃单个前导字节重新对齐
type StreamDecoder struct {
	buf []byte
	max int
}

// NewStreamDecoder 创建重组器，maxBuffer<=0 时采用 DefaultMaxBuffer
func NewStreamDecoder(maxBuffer int) *StreamDecoder {
	if maxBuffer <= 0 {
		maxBuffer = DefaultMaxBuffer
	}
	return &StreamDecoder{max: maxBuffer}
}

// Feed 送入一段字节流，返回其中切出的帧（校验失败帧也会交付，Valid=false）
// 追加后缓冲超出硬上限时整体清空并返回 overflow=true，本次不再切帧
func (d *StreamDecoder) Feed(p []byte) (frames []*Frame, overflow bool) {
	d.buf = append(d.buf, p...)
	if len(d.buf) > d.max {
		d.buf = d.buf[:0]
		return nil, true
	}
	for {
		if len(d.buf) < minBuffered {
			return frames, false
		}
		if d.buf[0] != Header0 || d.buf[1] != Header1 {
			d.buf = d.buf[1:]
			continue
		}
		total := int(d.buf[2]) + 4
		if total < MinFrameLen {
			// len字段不可能小于2（addr+instr），按噪声处理
			d.buf = d.buf[1:]
			continue
		}
		if len(d.buf) < total {
			return frames, false
		}
		raw := make([]byte, total)
		copy(raw, d.buf[:total])
		d.buf = d.buf[total:]
		frames = append(frames, ParseFrame(raw))
	}
}

// Reset 清空缓冲（断开重连后调用，丢弃残留半帧）
func (d *StreamDecoder) Reset() {
	d.buf = d.buf[:0]
}

// Buffered 当前缓冲的字节数
func (d *StreamDecoder) Buffered() int {
	return len(d.buf)
}
