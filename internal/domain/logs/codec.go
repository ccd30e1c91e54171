package logs

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/klauspost/compress/zstd"
)

// maxDecodedSize bounds zstd output for a single envelope.
const maxDecodedSize = 8 << 20

// Envelope carries one binary-encoded log, as posted by SDK clients.
type Envelope struct {
	Serialized Bytes `json:"serialized" binding:"required"`
}

// Bytes decodes from either base64 text or a JSON array of byte values,
// so both Go and non-Go clients can post envelopes. It encodes as base64.
type Bytes []byte

// UnmarshalJSON implements json.Unmarshaler.
func (b *Bytes) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*b = nil
		return nil
	}
	if len(data) > 0 && data[0] == '[' {
		var items []uint8
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
		}
		*b = items
		return nil
	}
	var raw []byte
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	*b = raw
	return nil
}

// EncodeLog writes the compact little-endian layout:
// u32 level, u64 length + message, u8 option tag, [u64 length + data].
func EncodeLog(l Log) []byte {
	buf := make([]byte, 0, 4+8+len(l.Text)+1+8+len(l.Blob))
	buf = binary.LittleEndian.AppendUint32(buf, uint32(l.Level))
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(l.Text)))
	buf = append(buf, l.Text...)
	if l.Blob == nil {
		return append(buf, 0)
	}
	buf = append(buf, 1)
	buf = binary.LittleEndian.AppendUint64(buf, uint64(len(l.Blob)))
	return append(buf, l.Blob...)
}

// DecodeLog parses the layout written by EncodeLog. Trailing bytes are rejected.
func DecodeLog(raw []byte) (Log, error) {
	r := bytes.NewReader(raw)
	var level uint32
	if err := binary.Read(r, binary.LittleEndian, &level); err != nil {
		return Log{}, fmt.Errorf("%w: level: %v", ErrMalformedPayload, err)
	}
	if level > uint32(Debug) {
		return Log{}, fmt.Errorf("%w: level variant %d", ErrUnknownSeverity, level)
	}
	msg, err := readBytes(r)
	if err != nil {
		return Log{}, fmt.Errorf("%w: message: %v", ErrMalformedPayload, err)
	}
	if !utf8.Valid(msg) {
		return Log{}, fmt.Errorf("%w: message is not utf-8", ErrMalformedPayload)
	}
	tag, err := r.ReadByte()
	if err != nil {
		return Log{}, fmt.Errorf("%w: option tag: %v", ErrMalformedPayload, err)
	}
	out := Log{Level: Severity(level), Text: string(msg)}
	switch tag {
	case 0:
	case 1:
		data, err := readBytes(r)
		if err != nil {
			return Log{}, fmt.Errorf("%w: data: %v", ErrMalformedPayload, err)
		}
		out.Blob = data
	default:
		return Log{}, fmt.Errorf("%w: option tag %d", ErrMalformedPayload, tag)
	}
	if r.Len() != 0 {
		return Log{}, fmt.Errorf("%w: %d trailing bytes", ErrMalformedPayload, r.Len())
	}
	return out, nil
}

func readBytes(r *bytes.Reader) ([]byte, error) {
	var n uint64
	if err := binary.Read(r, binary.LittleEndian, &n); err != nil {
		return nil, err
	}
	if n > uint64(r.Len()) {
		return nil, io.ErrUnexpectedEOF
	}
	out := make([]byte, n)
	if _, err := io.ReadFull(r, out); err != nil {
		return nil, err
	}
	return out, nil
}

// Compress zstd-encodes an encoded log.
func Compress(raw []byte) ([]byte, error) {
	enc, err := zstd.NewWriter(nil)
	if err != nil {
		return nil, err
	}
	defer enc.Close()
	return enc.EncodeAll(raw, make([]byte, 0, len(raw))), nil
}

// Decompress reverses Compress.
func Decompress(raw []byte) ([]byte, error) {
	dec, err := zstd.NewReader(nil, zstd.WithDecoderMaxMemory(maxDecodedSize))
	if err != nil {
		return nil, err
	}
	defer dec.Close()
	out, err := dec.DecodeAll(raw, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: zstd: %v", ErrMalformedPayload, err)
	}
	return out, nil
}
