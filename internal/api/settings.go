package api

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

type SettingsAPI struct{ c *Client }

// Get GET /user/settings
func (s SettingsAPI) Get(ctx context.Context) (UserSettings, error) {
	var out UserSettings
	err := s.c.doJSON(ctx, http.MethodGet, "/user/settings", nil, nil, &out)
	return out, err
}

// Update PUT /user/settings
func (s SettingsAPI) Update(ctx context.Context, update SettingsUpdate) (UserSettings, error) {
	if update.Empty() {
		return UserSettings{}, fmt.Errorf("settings update is empty")
	}
	var out UserSettings
	err := s.c.doJSON(ctx, http.MethodPut, "/user/settings", nil, update, &out)
	return out, err
}

// CheckRepo GET /user/github/repo/check?name=
func (s SettingsAPI) CheckRepo(ctx context.Context, name string) (RepoCheck, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return RepoCheck{}, fmt.Errorf("repository name is empty")
	}
	q := url.Values{}
	q.Set("name", name)
	var out RepoCheck
	if err := s.c.doJSON(ctx, http.MethodGet, "/user/github/repo/check", q, nil, &out); err != nil {
		return RepoCheck{}, err
	}
	if out.Name == "" {
		out.Name = name
	}
	return out, nil
}
