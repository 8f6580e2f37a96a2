package provider

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestProviderData_RoundTrip(t *testing.T) {
	cases := []ProviderData{
		{BlobID: "f81d4fae-7dec-11d0-a765-00a0c91e6bf6", ChunkSize: 4096},
		{BlobID: "x", ChunkSize: 1},
		{BlobID: "", ChunkSize: 0}, // 零值也必须能往返
	}

	for _, d := range cases {
		text, err := d.Serialize()
		require.NoError(t, err)

		got, err := ParseProviderData(text)
		require.NoError(t, err)
		assert.Equal(t, d, got, "deserialize(serialize(x)) must equal x")
	}
}

func TestParseProviderData_Malformed(t *testing.T) {
	for _, text := range []string{"", "not json", "{", `[1,2,3]`} {
		_, err := ParseProviderData(text)
		assert.ErrorIs(t, err, ErrMalformedProviderData, "input %q", text)
	}
}

// 没有 schema 版本号：旧文本缺字段要安全落零值，新文本多字段要被忽略
func TestParseProviderData_FieldPresenceOnly(t *testing.T) {
	got, err := ParseProviderData(`{"blobId":"abc"}`)
	require.NoError(t, err)
	assert.Equal(t, ProviderData{BlobID: "abc", ChunkSize: 0}, got)

	got, err = ParseProviderData(`{"blobId":"abc","chunkSize":128,"futureField":true}`)
	require.NoError(t, err)
	assert.Equal(t, ProviderData{BlobID: "abc", ChunkSize: 128}, got)
}
