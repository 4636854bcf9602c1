package cu48

import "errors"

var (
	// ErrChecksumMismatch checksum校验失败
	ErrChecksumMismatch = errors.New("checksum mismatch")
)

// crcPoly CRC-8反射多项式（Maxim/Dallas系，0x31的位反转形式）
const crcPoly = 0x8C

// CalculateChecksum 计算锁控板协议校验和
// 位串行CRC-8：逐字节异或进累加器，再做8轮移位——最低位为1时右移并异或多项式，
// 否则仅右移。低位在前（LSB-first），与板卡串行硬件的发送顺序一致
// 覆盖范围：帧头到payload末尾的全部字节（不含末尾校验和字节本身）
func CalculateChecksum(data []byte) byte {
	var crc byte
	for _, b := range data {
		crc ^= b
		for i := 0; i < 8; i++ {
			if crc&0x01 != 0 {
				crc = (crc >> 1) ^ crcPoly
			} else {
				crc >>= 1
			}
		}
	}
	return crc
}

// VerifyChecksum 验证校验和
// dataWithChecksum: 包含末尾校验和字节的完整数据
func VerifyChecksum(dataWithChecksum []byte) error {
	if len(dataWithChecksum) < 1 {
		return errors.New("data too short for checksum verification")
	}

	// 最后一个字节是校验和
	checksumPos := len(dataWithChecksum) - 1
	receivedChecksum := dataWithChecksum[checksumPos]

	// 计算预期的校验和（不包含校验和字节本身）
	expectedChecksum := CalculateChecksum(dataWithChecksum[:checksumPos])

	if receivedChecksum != expectedChecksum {
		return ErrChecksumMismatch
	}

	return nil
}

// BuildChecksummedData 为数据追加校验和
// data: 不包含校验和的数据（帧头到payload）
// 返回：带校验和的完整数据
func BuildChecksummedData(data []byte) []byte {
	checksum := CalculateChecksum(data)
	result := make([]byte, len(data)+1)
	copy(result, data)
	result[len(data)] = checksum
	return result
}
