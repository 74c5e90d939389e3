package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// InitProjectConfigScaffold 在 dir 下初始化项目级配置模板（./.vbackup/config.json），已存在则保持不变。
// InitProjectConfigScaffold writes a project-level config scaffold (./.vbackup/config.json) under dir; an existing file is left untouched.
func InitProjectConfigScaffold(dir string) (string, error) {
	dir = strings.TrimSpace(dir)
	if dir == "" {
		cwd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("get current working directory: %w", err)
		}
		dir = cwd
	}

	path := filepath.Join(dir, ".vbackup", "config.json")
	info, err := os.Stat(path)
	if err == nil {
		if info.IsDir() {
			return "", fmt.Errorf("project config path is a directory: %s", path)
		}
		return path, nil
	}
	if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("stat project config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("mkdir .vbackup: %w", err)
	}

	data, err := json.MarshalIndent(Default(), "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("write project config: %w", err)
	}
	return path, nil
}

// WriteAPIBaseURL 将 api.base_url 写入项目配置（./.vbackup/config.json），保留其他字段。
// WriteAPIBaseURL writes api.base_url to project config (./.vbackup/config.json), keeping other fields.
func WriteAPIBaseURL(projectDir, baseURL string) error {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return errors.New("base url is empty")
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return fmt.Errorf("base url must start with http:// or https://: %q", baseURL)
	}

	dir := filepath.Join(strings.TrimSpace(projectDir), ".vbackup")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("mkdir .vbackup: %w", err)
	}
	path := filepath.Join(dir, "config.json")

	raw := map[string]any{}
	data, err := os.ReadFile(path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("read project config: %w", err)
	}
	if len(data) > 0 {
		if err := json.Unmarshal(stripJSONComments(data), &raw); err != nil {
			return fmt.Errorf("parse project config: %w", err)
		}
	}

	api, _ := raw["api"].(map[string]any)
	if api == nil {
		api = map[string]any{}
	}
	api["base_url"] = baseURL
	raw["api"] = api

	out, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal project config: %w", err)
	}
	return os.WriteFile(path, out, 0o644)
}
