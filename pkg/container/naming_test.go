package container

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	// 常规: 前缀 + 租户
	name, err := Resolve("snblob-", "tenant1")
	require.NoError(t, err)
	assert.Equal(t, "snblob-tenant1", name)

	// 单租户: 租户为空
	name, err = Resolve("snblob", "")
	require.NoError(t, err)
	assert.Equal(t, "snblob", name)

	// 大写会被归一化成小写 (Azure 只接受小写)
	name, err = Resolve("SnBlob-", "TenantA")
	require.NoError(t, err)
	assert.Equal(t, "snblob-tenanta", name)
}

func TestResolve_Invalid(t *testing.T) {
	cases := []struct {
		name   string
		prefix string
		tenant string
	}{
		{"too short", "ab", ""},
		{"too long", strings.Repeat("a", 60), "aaaa"},
		{"underscore", "sn_blob", "t1"},
		{"double hyphen", "snblob--", "t1"},
		{"leading hyphen", "-snblob", ""},
		{"trailing hyphen", "snblob", "t1-"},
		{"illegal chars", "snblob.", "t1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Resolve(tc.prefix, tc.tenant)
			require.Error(t, err)

			// 必须是可识别的 NamingError，而不是笼统的存储端错误
			var nerr *NamingError
			assert.ErrorAs(t, err, &nerr)
		})
	}
}

func TestValidate_Boundaries(t *testing.T) {
	assert.NoError(t, Validate("abc"))                     // 刚好 3 位
	assert.NoError(t, Validate(strings.Repeat("a", 63)))   // 刚好 63 位
	assert.Error(t, Validate("ab"))                        // 2 位
	assert.Error(t, Validate(strings.Repeat("a", 64)))     // 64 位
	assert.NoError(t, Validate("a-1-b-2"))                 // 单个连字符分隔
}
