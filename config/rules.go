package config

import (
	"sync"
)

var (
	rulesOnce   sync.Once
	rulesConfig *RulesConfig
)

// RulesConfig 规则表配置
//
// Path 为空时使用编译进二进制的默认规则表。
type RulesConfig struct {
	Path string
}

func GetRulesConfig() *RulesConfig {
	rulesOnce.Do(func() {
		loadEnv()

		rulesConfig = &RulesConfig{
			Path: getenv("VALIDATION_RULES_PATH", ""),
		}
	})
	return rulesConfig
}
