package logs

import (
	"encoding/base64"
	"fmt"

	"github.com/valyala/fastjson"
)

// ParseBatch decodes a request body holding either one log object or an array of them.
// "msg" is accepted as an alias of "message". "data" may be base64 text or a byte array.
func ParseBatch(pool *fastjson.ParserPool, body []byte) ([]Log, error) {
	p := pool.Get()
	defer pool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}

	if v.Type() != fastjson.TypeArray {
		l, err := parseOne(v)
		if err != nil {
			return nil, err
		}
		return []Log{l}, nil
	}

	arr, _ := v.Array()
	out := make([]Log, 0, len(arr))
	for i, item := range arr {
		l, err := parseOne(item)
		if err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		out = append(out, l)
	}
	return out, nil
}

// ParseLog decodes a body holding exactly one log object, with the same field rules as ParseBatch.
func ParseLog(pool *fastjson.ParserPool, body []byte) (Log, error) {
	p := pool.Get()
	defer pool.Put(p)

	v, err := p.ParseBytes(body)
	if err != nil {
		return Log{}, fmt.Errorf("%w: %v", ErrMalformedPayload, err)
	}
	return parseOne(v)
}

func parseOne(v *fastjson.Value) (Log, error) {
	if v.Type() != fastjson.TypeObject {
		return Log{}, fmt.Errorf("%w: expected object, got %s", ErrMalformedPayload, v.Type())
	}
	level, err := parseLevel(v.Get("level"))
	if err != nil {
		return Log{}, err
	}
	out := Log{Level: level}

	if msg := v.Get("message"); msg != nil {
		out.Text = string(msg.GetStringBytes())
	} else {
		out.Text = string(v.GetStringBytes("msg"))
	}

	data, err := parseData(v.Get("data"))
	if err != nil {
		return Log{}, err
	}
	out.Blob = data
	return out, nil
}

func parseLevel(v *fastjson.Value) (Severity, error) {
	if v == nil {
		return 0, fmt.Errorf("%w: missing level", ErrUnknownSeverity)
	}
	switch v.Type() {
	case fastjson.TypeString:
		return ParseSeverity(string(v.GetStringBytes()))
	case fastjson.TypeNumber:
		n, err := v.Int64()
		if err != nil {
			return 0, fmt.Errorf("%w: %v", ErrUnknownSeverity, err)
		}
		return SeverityFromInt(n)
	}
	return 0, fmt.Errorf("%w: level must be a string or number", ErrUnknownSeverity)
}

func parseData(v *fastjson.Value) ([]byte, error) {
	if v == nil || v.Type() == fastjson.TypeNull {
		return nil, nil
	}
	switch v.Type() {
	case fastjson.TypeString:
		raw, err := base64.StdEncoding.DecodeString(string(v.GetStringBytes()))
		if err != nil {
			return nil, fmt.Errorf("%w: data: %v", ErrMalformedPayload, err)
		}
		return raw, nil
	case fastjson.TypeArray:
		items, _ := v.Array()
		out := make([]byte, len(items))
		for i, item := range items {
			n, err := item.Int()
			if err != nil || n < 0 || n > 255 {
				return nil, fmt.Errorf("%w: data[%d] is not a byte", ErrMalformedPayload, i)
			}
			out[i] = byte(n)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: data must be base64 text or a byte array", ErrMalformedPayload)
}
