package testutil

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"testing"
)

// ArchivePage is one file stored in a test archive.
type ArchivePage struct {
	Name string
	Data []byte
}

// WriteStoredRAR writes a RAR 4 archive holding pages without compression,
// creating parent directories as needed.
func WriteStoredRAR(t *testing.T, path string, pages ...ArchivePage) {
	t.Helper()
	le := binary.LittleEndian

	var buf bytes.Buffer
	buf.WriteString("Rar!\x1a\x07\x00")
	writeRARBlock(&buf, 0x73, 0, make([]byte, 6), nil)

	// 2024-01-15 10:30:00 in MS-DOS format
	dosTime := uint32((2024-1980)<<25 | 1<<21 | 15<<16 | 10<<11 | 30<<5)

	for _, p := range pages {
		var h bytes.Buffer
		_ = binary.Write(&h, le, uint32(len(p.Data))) // packed size
		_ = binary.Write(&h, le, uint32(len(p.Data))) // unpacked size
		h.WriteByte(0)                                // host OS: MS-DOS
		_ = binary.Write(&h, le, crc32.ChecksumIEEE(p.Data))
		_ = binary.Write(&h, le, dosTime)
		h.WriteByte(20)   // version needed to extract
		h.WriteByte(0x30) // method: store
		_ = binary.Write(&h, le, uint16(len(p.Name)))
		_ = binary.Write(&h, le, uint32(0x20)) // archive attribute
		h.WriteString(p.Name)
		writeRARBlock(&buf, 0x74, 0x8000, h.Bytes(), p.Data)
	}
	writeRARBlock(&buf, 0x7b, 0x4000, nil, nil)

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("Failed to create directory for %s: %v", path, err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("Failed to write %s: %v", path, err)
	}
}

// writeRARBlock appends a block whose header CRC is the low 16 bits of the
// CRC32 of everything after the CRC field.
func writeRARBlock(buf *bytes.Buffer, typ byte, flags uint16, fields, data []byte) {
	head := make([]byte, 5, 5+len(fields))
	head[0] = typ
	binary.LittleEndian.PutUint16(head[1:], flags)
	binary.LittleEndian.PutUint16(head[3:], uint16(7+len(fields))) //nolint:gosec // test headers are small
	head = append(head, fields...)
	_ = binary.Write(buf, binary.LittleEndian, uint16(crc32.ChecksumIEEE(head))) //nolint:gosec // truncation is the format
	buf.Write(head)
	buf.Write(data)
}
