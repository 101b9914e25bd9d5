package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

var ErrNoConfig = errors.New("config file or config data must be specified")

// Load 读取YAML配置
// 参数：path-配置文件路径，data-Base64编码的配置内容（path为空时使用）
// 返回：配置与错误，未知字段视为错误
func Load(path, data string) (Config, error) {
	var c Config
	var file []byte
	var err error
	switch {
	case path != "":
		if file, err = os.ReadFile(path); err != nil {
			return c, fmt.Errorf("config file load err: %w", err)
		}
	case data != "":
		if file, err = base64.StdEncoding.DecodeString(data); err != nil {
			return c, fmt.Errorf("config data load err: %w", err)
		}
	default:
		return c, ErrNoConfig
	}
	if err := yaml.UnmarshalStrict(file, &c); err != nil {
		return c, fmt.Errorf("config parse err: %w", err)
	}
	return c, nil
}
