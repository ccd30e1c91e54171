package logs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"github.com/valyala/fastjson"
)

func TestParseBatchSingleObject(t *testing.T) {
	var pool fastjson.ParserPool

	got, err := ParseBatch(&pool, []byte(`{"level":"Error","message":"boom","data":"AQI="}`))

	require.NoError(t, err)
	require.Equal(t, []Log{{Level: Error, Text: "boom", Blob: []byte{1, 2}}}, got)
}

func TestParseBatchArrayWithAliases(t *testing.T) {
	var pool fastjson.ParserPool
	body := []byte(`[
		{"level":"warn","msg":"low disk"},
		{"level":2,"message":"x","data":[255,0]},
		{"level":"DEBUG","message":"y","data":null}
	]`)

	got, err := ParseBatch(&pool, body)

	require.NoError(t, err)
	require.Len(t, got, 3)
	require.Equal(t, Log{Level: Warning, Text: "low disk"}, got[0])
	require.Equal(t, Log{Level: Debug, Text: "x", Blob: []byte{255, 0}}, got[1])
	require.Nil(t, got[2].Blob)
}

func TestParseBatchEmptyArray(t *testing.T) {
	var pool fastjson.ParserPool

	got, err := ParseBatch(&pool, []byte(`[]`))

	require.NoError(t, err)
	require.Empty(t, got)
}

func TestParseBatchErrors(t *testing.T) {
	cases := map[string]struct {
		body string
		want error
	}{
		"not json":        {body: `{`, want: ErrMalformedPayload},
		"scalar":          {body: `42`, want: ErrMalformedPayload},
		"missing level":   {body: `{"message":"x"}`, want: ErrUnknownSeverity},
		"unknown level":   {body: `{"level":"fatal"}`, want: ErrUnknownSeverity},
		"level range":     {body: `{"level":3}`, want: ErrUnknownSeverity},
		"level bool":      {body: `{"level":true}`, want: ErrUnknownSeverity},
		"bad base64":      {body: `{"level":0,"data":"%%"}`, want: ErrMalformedPayload},
		"byte overflow":   {body: `{"level":0,"data":[256]}`, want: ErrMalformedPayload},
		"data object":     {body: `{"level":0,"data":{}}`, want: ErrMalformedPayload},
		"bad array entry": {body: `[{"level":0},"nope"]`, want: ErrMalformedPayload},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			var pool fastjson.ParserPool
			_, err := ParseBatch(&pool, []byte(tc.body))
			require.Error(t, err)
			require.True(t, errors.Is(err, tc.want), "got %v", err)
		})
	}
}

func TestParseLog(t *testing.T) {
	var pool fastjson.ParserPool

	got, err := ParseLog(&pool, []byte(`{"level":1,"msg":"w","data":[7]}`))
	require.NoError(t, err)
	require.Equal(t, Log{Level: Warning, Text: "w", Blob: []byte{7}}, got)

	_, err = ParseLog(&pool, []byte(`{"message":"no level"}`))
	require.True(t, errors.Is(err, ErrUnknownSeverity))

	_, err = ParseLog(&pool, []byte(`[{"level":0}]`))
	require.True(t, errors.Is(err, ErrMalformedPayload))
}
