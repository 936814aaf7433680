package frame

import "github.com/sigurn/crc8"

// CRC-8/MAXIM-DOW: poly 0x31 reflected, init 0x00, no final xor.
var maximTable = crc8.MakeTable(crc8.CRC8_MAXIM)

// Checksum computes the CRC-8/MAXIM-DOW of b.
func Checksum(b []byte) byte {
	return crc8.Checksum(b, maximTable)
}
