package app

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/lk2023060901/xdooria-users/pkg/config"
	"github.com/spf13/pflag"
)

const envPrefix = "XDOORIA"

var (
	configPath string
	logPath    string
)

// LoadConfig 解析命令行并加载配置到 target，返回可用于热更新的 Manager。
// 优先级：命令行 > 环境变量 > 配置文件 > 默认值。
// 未显式指定配置文件且默认路径不存在时，仅使用默认值与环境变量。
func LoadConfig(target any, opts ...config.Option) (config.Manager, error) {
	execDir, err := GetExecDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get executable directory: %w", err)
	}

	defaultConfig := filepath.Join(execDir, "config.yaml")
	defaultLog := filepath.Join(execDir, "logs", "app.log")

	if pflag.Lookup("config") == nil {
		pflag.StringVarP(&configPath, "config", "c", defaultConfig, "path to config file")
	}
	if pflag.Lookup("log.path") == nil {
		pflag.StringVar(&logPath, "log.path", "", "output path for logs, enables file logging")
	}
	if !pflag.Parsed() {
		pflag.Parse()
	}

	explicit := pflag.CommandLine.Changed("config")
	finalConfigPath := configPath
	if !explicit {
		if envConfig := os.Getenv(envPrefix + "_CONFIG"); envConfig != "" {
			finalConfigPath = envConfig
			explicit = true
		}
	}

	defaults := map[string]any{
		"log.output_path": defaultLog,
	}
	if pflag.CommandLine.Changed("log.path") {
		defaults["log.output_path"] = logPath
		defaults["log.enable_file"] = true
	}

	mgr := config.NewManager(append([]config.Option{config.WithDefaults(defaults)}, opts...)...)
	mgr.BindEnv(envPrefix)

	if _, statErr := os.Stat(finalConfigPath); statErr == nil {
		if err := mgr.LoadFile(finalConfigPath); err != nil {
			return nil, err
		}
		configPath = finalConfigPath
	} else if explicit {
		return nil, fmt.Errorf("config file not found at %s", finalConfigPath)
	} else {
		configPath = ""
	}

	if err := mgr.Unmarshal(target); err != nil {
		return nil, err
	}

	logPath = mgr.GetString("log.output_path")
	if logPath != "" {
		_ = os.MkdirAll(filepath.Dir(logPath), 0o755)
	}

	return mgr, nil
}

// GetExecDir 获取可执行文件所在目录（处理符号链接）
func GetExecDir() (string, error) {
	execPath, err := os.Executable()
	if err != nil {
		return "", err
	}
	realPath, err := filepath.EvalSymlinks(execPath)
	if err != nil {
		return filepath.Dir(execPath), nil
	}
	return filepath.Dir(realPath), nil
}

// GetConfigPath 返回实际使用的配置文件路径，未加载文件时为空
func GetConfigPath() string {
	return configPath
}

func GetLogPath() string {
	return logPath
}
