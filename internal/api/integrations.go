package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

// DefaultRepoName GitHub 连接时未指定仓库名的默认值
// DefaultRepoName is used when connecting GitHub without a repository name
const DefaultRepoName = "velog-backup"

type IntegrationsAPI struct{ c *Client }

// Get GET /integrations/
func (i IntegrationsAPI) Get(ctx context.Context) (Integrations, error) {
	var out Integrations
	err := i.c.doJSON(ctx, http.MethodGet, "/integrations/", nil, nil, &out)
	return out, err
}

// Update PATCH /integrations/
func (i IntegrationsAPI) Update(ctx context.Context, update IntegrationsUpdate) (Integrations, error) {
	if update.BackupFrequency != nil && !validFrequency(*update.BackupFrequency) {
		return Integrations{}, fmt.Errorf("unknown backup frequency %q", *update.BackupFrequency)
	}
	var out Integrations
	err := i.c.doJSON(ctx, http.MethodPatch, "/integrations/", nil, update, &out)
	return out, err
}

func validFrequency(f string) bool {
	for _, allowed := range BackupFrequencies {
		if f == allowed {
			return true
		}
	}
	return false
}

// GoogleDriveAuthURL GET /integrations/google-drive/auth-url
func (i IntegrationsAPI) GoogleDriveAuthURL(ctx context.Context) (AuthURL, error) {
	var out AuthURL
	err := i.c.doJSON(ctx, http.MethodGet, "/integrations/google-drive/auth-url", nil, nil, &out)
	return out, err
}

// ConnectGoogleDrive POST /integrations/google-drive/connect
func (i IntegrationsAPI) ConnectGoogleDrive(ctx context.Context, code string) (Message, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Message{}, fmt.Errorf("authorization code is empty")
	}
	var out Message
	err := i.c.doJSON(ctx, http.MethodPost, "/integrations/google-drive/connect", nil, map[string]string{"code": code}, &out)
	return out, err
}

// DisconnectGoogleDrive DELETE /integrations/google-drive/disconnect
func (i IntegrationsAPI) DisconnectGoogleDrive(ctx context.Context) error {
	return i.c.doJSON(ctx, http.MethodDelete, "/integrations/google-drive/disconnect", nil, nil, nil)
}

// GitHubAuthURL GET /integrations/github/auth-url
func (i IntegrationsAPI) GitHubAuthURL(ctx context.Context) (AuthURL, error) {
	var out AuthURL
	err := i.c.doJSON(ctx, http.MethodGet, "/integrations/github/auth-url", nil, nil, &out)
	return out, err
}

// ConnectGitHub POST /integrations/github/connect
func (i IntegrationsAPI) ConnectGitHub(ctx context.Context, code, repoName string) (Message, error) {
	code = strings.TrimSpace(code)
	if code == "" {
		return Message{}, fmt.Errorf("authorization code is empty")
	}
	repoName = strings.TrimSpace(repoName)
	if repoName == "" {
		repoName = DefaultRepoName
	}
	var out Message
	err := i.c.doJSON(ctx, http.MethodPost, "/integrations/github/connect", nil,
		map[string]string{"code": code, "repo_name": repoName}, &out)
	return out, err
}

// DisconnectGitHub DELETE /integrations/github/disconnect
func (i IntegrationsAPI) DisconnectGitHub(ctx context.Context) error {
	return i.c.doJSON(ctx, http.MethodDelete, "/integrations/github/disconnect", nil, nil, nil)
}

// AppInstallURL GET /integrations/github-app/install-url
func (i IntegrationsAPI) AppInstallURL(ctx context.Context) (AuthURL, error) {
	var out AuthURL
	err := i.c.doJSON(ctx, http.MethodGet, "/integrations/github-app/install-url", nil, nil, &out)
	return out, err
}

// AppRepos GET /integrations/github-app/repos
func (i IntegrationsAPI) AppRepos(ctx context.Context) ([]AppRepo, error) {
	var out AppRepos
	if err := i.c.doJSON(ctx, http.MethodGet, "/integrations/github-app/repos", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Repositories, nil
}

// ConnectApp POST /integrations/github-app/connect
func (i IntegrationsAPI) ConnectApp(ctx context.Context, installationID int64, repoFullName string) (Message, error) {
	repoFullName = strings.TrimSpace(repoFullName)
	if installationID <= 0 {
		return Message{}, fmt.Errorf("invalid installation id %d", installationID)
	}
	if !strings.Contains(repoFullName, "/") {
		return Message{}, fmt.Errorf("repository must be owner/name, got %q", repoFullName)
	}
	in := struct {
		InstallationID int64  `json:"installation_id"`
		RepoFullName   string `json:"repo_full_name"`
	}{installationID, repoFullName}
	var out Message
	err := i.c.doJSON(ctx, http.MethodPost, "/integrations/github-app/connect", nil, in, &out)
	return out, err
}

// DisconnectApp DELETE /integrations/github-app/disconnect
func (i IntegrationsAPI) DisconnectApp(ctx context.Context) error {
	return i.c.doJSON(ctx, http.MethodDelete, "/integrations/github-app/disconnect", nil, nil, nil)
}
