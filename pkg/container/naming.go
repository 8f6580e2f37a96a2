package container

import (
	"fmt"
	"regexp"
	"strings"
)

// Azure 容器命名规则 (硬约束，违反会被服务端拒绝):
//   - 3 到 63 个字符
//   - 只允许小写字母、数字和连字符
//   - 必须以字母或数字开头和结尾，连字符不能连续出现
// 我们在本地提前校验，让错误在发起任何网络请求之前就暴露出来。
var namePattern = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)

const (
	minNameLength = 3
	maxNameLength = 63
)

// NamingError 表示推导出来的容器名不符合存储端的命名语法。
// 它是致命错误：带着这个名字去请求只会得到一个更难懂的服务端错误。
type NamingError struct {
	Name   string
	Reason string
}

func (e *NamingError) Error() string {
	return fmt.Sprintf("invalid container name %q: %s", e.Name, e.Reason)
}

// Resolve 从前缀和租户标识推导容器名: <prefix><tenantId>。
// 单租户部署 tenantID 传空串即可。
// 返回之前做一次完整校验，校验失败的名字不会流向任何后续操作。
func Resolve(prefix, tenantID string) (string, error) {
	name := strings.ToLower(prefix + tenantID)
	if err := Validate(name); err != nil {
		return "", err
	}
	return name, nil
}

// Validate 校验容器名是否满足命名语法。
func Validate(name string) error {
	if len(name) < minNameLength {
		return &NamingError{Name: name, Reason: fmt.Sprintf("shorter than %d characters", minNameLength)}
	}
	if len(name) > maxNameLength {
		return &NamingError{Name: name, Reason: fmt.Sprintf("longer than %d characters", maxNameLength)}
	}
	if !namePattern.MatchString(name) {
		return &NamingError{Name: name, Reason: "only lowercase alphanumerics and single hyphens are allowed"}
	}
	return nil
}
