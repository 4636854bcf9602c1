package cu48

import (
	"bytes"
	"testing"
)

func mustBuild(t *testing.T, instr, addr byte, payload []byte) []byte {
	t.Helper()
	raw, err := BuildFrame(instr, addr, payload)
	if err != nil {
		t.Fatalf("BuildFrame() error = %v", err)
	}
	return raw
}

func TestStreamDecoderSingleFrame(t *testing.T) {
	d := NewStreamDecoder(0)
	raw := mustBuild(t, 0x50, 0x00, []byte{0x05})

	frames, overflow := d.Feed(raw)
	if overflow {
		t.Fatalf("Feed() overflow = true")
	}
	if len(frames) != 1 {
		t.Fatalf("Feed() 帧数 = %d, expected 1", len(frames))
	}
	f := frames[0]
	if !f.Valid || f.Instr != 0x50 || !bytes.Equal(f.Payload, []byte{0x05}) {
		t.Errorf("帧解析结果不符: valid=%v instr=0x%02X payload=% 02X", f.Valid, f.Instr, f.Payload)
	}
	if d.Buffered() != 0 {
		t.Errorf("Buffered() = %d, expected 0", d.Buffered())
	}
}

func TestStreamDecoderByteByByte(t *testing.T) {
	// 逐字节送入，只有最后一个字节到达时才交付帧
	d := NewStreamDecoder(0)
	raw := mustBuild(t, 0x51, 0x00, nil)

	for i := 0; i < len(raw)-1; i++ {
		frames, overflow := d.Feed(raw[i : i+1])
		if overflow {
			t.Fatalf("字节%d: 不应溢出", i)
		}
		if len(frames) != 0 {
			t.Fatalf("字节%d: 提前交付了帧", i)
		}
	}
	frames, _ := d.Feed(raw[len(raw)-1:])
	if len(frames) != 1 || !frames[0].Valid {
		t.Fatalf("最后一字节后应交付1个合法帧, got %d", len(frames))
	}
}

func TestStreamDecoderSplitAcrossFeeds(t *testing.T) {
	// 任意切分点都不影响重组结果
	raw := mustBuild(t, 0x51, 0x00, []byte{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF})
	for cut := 1; cut < len(raw); cut++ {
		d := NewStreamDecoder(0)
		frames, _ := d.Feed(raw[:cut])
		if len(frames) != 0 {
			t.Fatalf("切分点%d: 半帧不应交付", cut)
		}
		frames, _ = d.Feed(raw[cut:])
		if len(frames) != 1 || !frames[0].Valid {
			t.Fatalf("切分点%d: 补齐后应交付1个合法帧", cut)
		}
		if !bytes.Equal(frames[0].Raw, raw) {
			t.Fatalf("切分点%d: 重组字节与原帧不一致", cut)
		}
	}
}

func TestStreamDecoderBackToBackFrames(t *testing.T) {
	// 两帧连发一次送入，按序交付
	d := NewStreamDecoder(0)
	first := mustBuild(t, 0x50, 0x00, []byte{0x05})
	second := mustBuild(t, 0x51, 0x00, nil)

	frames, _ := d.Feed(append(append([]byte{}, first...), second...))
	if len(frames) != 2 {
		t.Fatalf("帧数 = %d, expected 2", len(frames))
	}
	if frames[0].Instr != 0x50 || frames[1].Instr != 0x51 {
		t.Errorf("交付顺序不对: 0x%02X, 0x%02X", frames[0].Instr, frames[1].Instr)
	}
}

func TestStreamDecoderResync(t *testing.T) {
	// 帧前噪声：丢弃前导字节后重新对齐
	d := NewStreamDecoder(0)
	raw := mustBuild(t, 0x50, 0x00, []byte{0x07})
	noisy := append([]byte{0x00, 0x13, 0xAA, 0x00}, raw...) // 0xAA后不是0x55，同样要跳过

	frames, overflow := d.Feed(noisy)
	if overflow {
		t.Fatalf("不应溢出")
	}
	if len(frames) != 1 || !frames[0].Valid {
		t.Fatalf("噪声后应重对齐并交付1个合法帧, got %d", len(frames))
	}
	if !bytes.Equal(frames[0].Raw, raw) {
		t.Errorf("重对齐后的帧字节不符")
	}
}

func TestStreamDecoderCorruptedChecksum(t *testing.T) {
	// 校验失败的帧仍要交付（Valid=false），由上层丢弃
	d := NewStreamDecoder(0)
	raw := mustBuild(t, 0x51, 0x00, []byte{0x01, 0x00, 0x00, 0x00, 0x00, 0x00})
	raw[len(raw)-1] ^= 0x5A

	frames, _ := d.Feed(raw)
	if len(frames) != 1 {
		t.Fatalf("帧数 = %d, expected 1", len(frames))
	}
	if frames[0].Valid {
		t.Errorf("校验被破坏的帧 Valid 应为 false")
	}
}

func TestStreamDecoderOverflow(t *testing.T) {
	// 超过硬上限：整体清空、报告溢出，随后恢复正常解码
	d := NewStreamDecoder(64)

	garbage := bytes.Repeat([]byte{0xAA, 0x55, 0xFF}, 40) // 伪帧头+超大len，无法切帧只能积压
	frames, overflow := d.Feed(garbage)
	if !overflow {
		t.Fatalf("Feed(120字节垃圾) overflow = false, expected true")
	}
	if len(frames) != 0 {
		t.Fatalf("溢出时不应交付帧")
	}
	if d.Buffered() != 0 {
		t.Fatalf("溢出后 Buffered() = %d, expected 0", d.Buffered())
	}

	// 溢出后引擎保持可用
	raw := mustBuild(t, 0x50, 0x00, []byte{0x01})
	frames, overflow = d.Feed(raw)
	if overflow || len(frames) != 1 || !frames[0].Valid {
		t.Fatalf("溢出恢复后应正常解码, frames=%d overflow=%v", len(frames), overflow)
	}
}

func TestStreamDecoderGarbageInSmallChunks(t *testing.T) {
	// 不含帧头的噪声分小块送入：逐字节丢弃，不积压也不溢出
	d := NewStreamDecoder(0)
	chunk := bytes.Repeat([]byte{0x13}, 512)
	for i := 0; i < 40; i++ { // 共20KB
		frames, overflow := d.Feed(chunk)
		if overflow {
			t.Fatalf("块%d: 可丢弃噪声不应触发溢出", i)
		}
		if len(frames) != 0 {
			t.Fatalf("块%d: 噪声中不应切出帧", i)
		}
		if d.Buffered() > minBuffered {
			t.Fatalf("块%d: 缓冲积压 %d 字节", i, d.Buffered())
		}
	}

	raw := mustBuild(t, 0x51, 0x00, nil)
	frames, _ := d.Feed(raw)
	if len(frames) != 1 || !frames[0].Valid {
		t.Fatalf("噪声后正常帧应可解码")
	}
}

func TestStreamDecoderReset(t *testing.T) {
	d := NewStreamDecoder(0)
	raw := mustBuild(t, 0x50, 0x00, []byte{0x01})
	d.Feed(raw[:3])
	if d.Buffered() == 0 {
		t.Fatalf("半帧应留在缓冲中")
	}
	d.Reset()
	if d.Buffered() != 0 {
		t.Errorf("Reset()后 Buffered() = %d", d.Buffered())
	}

	// 残留半帧被丢弃，新帧完整解码
	frames, _ := d.Feed(raw)
	if len(frames) != 1 || !frames[0].Valid {
		t.Fatalf("Reset后应正常解码")
	}
}
