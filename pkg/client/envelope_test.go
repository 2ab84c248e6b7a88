package client

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type statusPayload struct {
	TotalBooks int `json:"total_books"`
	TotalPages int `json:"total_pages"`
}

func TestDecodeEnvelope(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr error
		want    statusPayload
		cached  bool
	}{
		{
			name: "success",
			body: `{"success":true,"data":{"total_books":10,"total_pages":500}}`,
			want: statusPayload{TotalBooks: 10, TotalPages: 500},
		},
		{
			name:   "cached flag and unknown members",
			body:   `{"success":true,"cached":true,"took_ms":3,"data":{"total_books":1}}`,
			want:   statusPayload{TotalBooks: 1},
			cached: true,
		},
		{
			name: "partial data defaults",
			body: `{"success":true,"data":{}}`,
		},
		{
			name: "null data",
			body: `{"success":true,"data":null}`,
		},
		{
			name:    "success false",
			body:    `{"success":false,"data":null,"message":"maintenance"}`,
			wantErr: ErrEnvelopeFailed,
		},
		{
			name:    "missing success",
			body:    `{"data":{"total_books":10}}`,
			wantErr: ErrEnvelopeShape,
		},
		{
			name:    "success not boolean",
			body:    `{"success":"yes","data":{}}`,
			wantErr: ErrEnvelopeShape,
		},
		{
			name:    "missing data",
			body:    `{"success":true}`,
			wantErr: ErrEnvelopeShape,
		},
		{
			name:    "bare array",
			body:    `[1,2,3]`,
			wantErr: ErrEnvelopeShape,
		},
		{
			name:    "wrong data type",
			body:    `{"success":true,"data":{"total_books":"ten"}}`,
			wantErr: ErrEnvelopeShape,
		},
		{
			name:    "empty body",
			body:    ``,
			wantErr: ErrEnvelopeShape,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var got statusPayload
			meta, err := DecodeEnvelope([]byte(tt.body), &got)

			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.cached, meta.Cached)
		})
	}
}

func TestDecodeEnvelope_ExtraMembers(t *testing.T) {
	body := `{"success":true,"data":[],"period_info":{"days":30}}`

	var items []map[string]any
	meta, err := DecodeEnvelope([]byte(body), &items, "period_info", "absent")
	require.NoError(t, err)

	assert.JSONEq(t, `{"days":30}`, string(meta.Extra["period_info"]))
	_, ok := meta.Extra["absent"]
	assert.False(t, ok)
}
