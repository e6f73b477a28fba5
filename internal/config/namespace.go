package config

import (
	"fmt"
	"regexp"

	"github.com/brbranch/builder_profile/internal/model"
	"github.com/brbranch/builder_profile/internal/store"
)

var namespacePattern = regexp.MustCompile(`^[A-Za-z0-9][A-Za-z0-9_.:-]*$`)

// ResolveNamespace は設定からストアのnamespaceを決定する
// 未設定の場合はstore.DefaultNamespaceを使用
func ResolveNamespace(cfg *model.Config) (string, error) {
	namespace := cfg.Store.Namespace
	if namespace == "" {
		return store.DefaultNamespace, nil
	}
	if err := ValidateNamespace(namespace); err != nil {
		return "", err
	}
	return namespace, nil
}

// ValidateNamespace はnamespaceの形式を検証する
// 英数字で始まり、英数字と "_ . : -" のみを含むこと
func ValidateNamespace(namespace string) error {
	if !namespacePattern.MatchString(namespace) {
		return fmt.Errorf("invalid namespace %q: must start with an alphanumeric and contain only [A-Za-z0-9_.:-]", namespace)
	}
	return nil
}
