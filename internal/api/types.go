package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Timestamp 兼容后端多种时间格式（带/不带时区、微秒）
// Timestamp accepts the backend's datetime layouts, with or without zone and microseconds
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		return nil
	}
	var raw string
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("timestamp: %w", err)
	}
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			t.Time = parsed
			return nil
		}
	}
	return fmt.Errorf("timestamp: unrecognized format %q", raw)
}

// ParseTimestamp 解析失败返回零值 / ParseTimestamp returns the zero value on failure
func ParseTimestamp(raw string) Timestamp {
	raw = strings.TrimSpace(raw)
	for _, layout := range timestampLayouts {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return Timestamp{Time: parsed}
		}
	}
	return Timestamp{}
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// String 本地时区的可读格式，零值为 "-"
// String formats in local time; the zero value renders as "-"
func (t Timestamp) String() string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format("2006-01-02 15:04")
}

// TagList 文章标签；后端以 JSON 字符串或数组返回
// TagList holds post tags; the backend sends either a JSON-encoded string or an array
type TagList []string

func (l *TagList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	var arr []string
	if err := json.Unmarshal(data, &arr); err == nil {
		*l = cleanTags(arr)
		return nil
	}
	var encoded string
	if err := json.Unmarshal(data, &encoded); err != nil {
		return fmt.Errorf("tags: %w", err)
	}
	*l = ParseTags(encoded)
	return nil
}

// ParseTags 解析序列化的标签字符串；非 JSON 时按逗号切分
// ParseTags decodes a serialized tag string, falling back to comma separation
func ParseTags(encoded string) TagList {
	encoded = strings.TrimSpace(encoded)
	if encoded == "" {
		return nil
	}
	var arr []string
	if err := json.Unmarshal([]byte(encoded), &arr); err == nil {
		return cleanTags(arr)
	}
	return cleanTags(strings.Split(encoded, ","))
}

// Encode 序列化为 JSON 字符串形式，用于本地缓存
// Encode serializes to the JSON string form used by the local cache
func (l TagList) Encode() string {
	if len(l) == 0 {
		return ""
	}
	data, _ := json.Marshal([]string(l))
	return string(data)
}

func cleanTags(in []string) TagList {
	out := make(TagList, 0, len(in))
	for _, tag := range in {
		if tag = strings.TrimSpace(tag); tag != "" {
			out = append(out, tag)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

type User struct {
	ID                       int64     `json:"id"`
	Email                    string    `json:"email"`
	FullName                 string    `json:"full_name,omitempty"`
	VelogUsername            string    `json:"velog_username,omitempty"`
	IsActive                 bool      `json:"is_active"`
	CreatedAt                Timestamp `json:"created_at"`
	GitHubUsername           string    `json:"github_username,omitempty"`
	GitHubRepo               string    `json:"github_repo,omitempty"`
	GitHubSyncEnabled        bool      `json:"github_sync_enabled"`
	EmailNotificationEnabled bool      `json:"email_notification_enabled"`
	HasGoogleDrive           bool      `json:"has_google_drive"`
}

func (u *User) Validate() error {
	if u.ID <= 0 {
		return errors.New("user id missing")
	}
	return nil
}

// DisplayName 优先全名，其次 GitHub 用户名，最后邮箱
// DisplayName prefers the full name, then the GitHub login, then the email
func (u User) DisplayName() string {
	for _, candidate := range []string{u.FullName, u.GitHubUsername, u.Email} {
		if strings.TrimSpace(candidate) != "" {
			return candidate
		}
	}
	return fmt.Sprintf("user#%d", u.ID)
}

type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type,omitempty"`
}

func (t *TokenPair) Validate() error {
	if strings.TrimSpace(t.AccessToken) == "" {
		return errors.New("access_token missing")
	}
	return nil
}

type AuthURL struct {
	AuthURL string `json:"auth_url"`
	State   string `json:"state,omitempty"`
}

func (a *AuthURL) Validate() error {
	if strings.TrimSpace(a.AuthURL) == "" {
		return errors.New("auth_url missing")
	}
	return nil
}

// Message 仅带提示文本的通用响应
// Message is the generic acknowledgement body
type Message struct {
	Message  string `json:"message"`
	Username string `json:"username,omitempty"`
	RepoURL  string `json:"repo_url,omitempty"`
	FolderID string `json:"folder_id,omitempty"`
}

type BackupStatus string

const (
	StatusPending    BackupStatus = "pending"
	StatusInProgress BackupStatus = "in_progress"
	StatusSuccess    BackupStatus = "success"
	StatusFailed     BackupStatus = "failed"
)

// normalizeStatus 未知状态视为 pending
// normalizeStatus maps unknown statuses to pending
func normalizeStatus(s BackupStatus) BackupStatus {
	switch BackupStatus(strings.ToLower(strings.TrimSpace(string(s)))) {
	case StatusInProgress:
		return StatusInProgress
	case StatusSuccess:
		return StatusSuccess
	case StatusFailed:
		return StatusFailed
	default:
		return StatusPending
	}
}

type Destination string

const (
	DestinationGoogleDrive Destination = "google_drive"
	DestinationGitHub      Destination = "github"
	DestinationBoth        Destination = "both"
)

// ParseDestination 接受 gdrive/drive/google_drive、github、both
// ParseDestination accepts gdrive/drive/google_drive, github and both
func ParseDestination(s string) (Destination, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "both", "all":
		return DestinationBoth, nil
	case "gdrive", "drive", "google", "google_drive":
		return DestinationGoogleDrive, nil
	case "github", "gh":
		return DestinationGitHub, nil
	}
	return "", fmt.Errorf("unknown destination %q", s)
}

type BackupLog struct {
	ID            int64        `json:"id"`
	UserID        int64        `json:"user_id,omitempty"`
	Status        BackupStatus `json:"status"`
	Destination   Destination  `json:"destination,omitempty"`
	PostsTotal    int          `json:"posts_total"`
	PostsBackedUp int          `json:"posts_backed_up"`
	PostsNew      int          `json:"posts_new"`
	PostsUpdated  int          `json:"posts_updated"`
	PostsSkipped  int          `json:"posts_skipped"`
	PostsFailed   int          `json:"posts_failed"`
	Message       string       `json:"message,omitempty"`
	StartedAt     Timestamp    `json:"started_at"`
	CompletedAt   Timestamp    `json:"completed_at"`
}

func (l *BackupLog) Validate() error {
	if l.ID <= 0 {
		return errors.New("backup log id missing")
	}
	l.Status = normalizeStatus(l.Status)
	return nil
}

type BackupStats struct {
	TotalPosts           int         `json:"total_posts"`
	LastBackup           Timestamp   `json:"last_backup"`
	VelogConnected       bool        `json:"velog_connected"`
	GoogleDriveConnected bool        `json:"google_drive_connected"`
	GitHubConnected      bool        `json:"github_connected"`
	RecentLogs           []BackupLog `json:"recent_logs"`
}

func (s *BackupStats) Validate() error {
	if s.TotalPosts < 0 {
		return errors.New("total_posts negative")
	}
	for i := range s.RecentLogs {
		if err := s.RecentLogs[i].Validate(); err != nil {
			return fmt.Errorf("recent_logs[%d]: %w", i, err)
		}
	}
	return nil
}

// AnyInProgress 是否存在进行中的备份（决定是否轮询）
// AnyInProgress reports whether any recent log is still running
func (s BackupStats) AnyInProgress() bool {
	for _, l := range s.RecentLogs {
		if l.Status == StatusInProgress {
			return true
		}
	}
	return false
}

// HasDestination 至少连接了一个备份目的地
// HasDestination reports whether at least one destination is connected
func (s BackupStats) HasDestination() bool {
	return s.GoogleDriveConnected || s.GitHubConnected
}

type BackupLogs []BackupLog

func (ls *BackupLogs) Validate() error {
	for i := range *ls {
		if err := (*ls)[i].Validate(); err != nil {
			return fmt.Errorf("logs[%d]: %w", i, err)
		}
	}
	return nil
}

type Post struct {
	ID               int64     `json:"id"`
	Slug             string    `json:"slug"`
	Title            string    `json:"title"`
	Content          string    `json:"content,omitempty"`
	Thumbnail        string    `json:"thumbnail,omitempty"`
	Tags             TagList   `json:"tags,omitempty"`
	VelogPublishedAt Timestamp `json:"velog_published_at"`
	LastBackedUp     Timestamp `json:"last_backed_up"`
}

func (p *Post) Validate() error {
	if p.ID <= 0 {
		return errors.New("post id missing")
	}
	if strings.TrimSpace(p.Slug) == "" {
		return fmt.Errorf("post %d: slug missing", p.ID)
	}
	return nil
}

type PostPage struct {
	Posts []Post `json:"posts"`
	Total int    `json:"total"`
	Page  int    `json:"page"`
	Limit int    `json:"limit"`
}

func (p *PostPage) Validate() error {
	if p.Total < 0 {
		return errors.New("total negative")
	}
	for i := range p.Posts {
		if err := p.Posts[i].Validate(); err != nil {
			return fmt.Errorf("posts[%d]: %w", i, err)
		}
	}
	return nil
}

type UserSettings struct {
	GitHubRepo               string `json:"github_repo"`
	GitHubSyncEnabled        bool   `json:"github_sync_enabled"`
	EmailNotificationEnabled bool   `json:"email_notification_enabled"`
}

// SettingsUpdate 部分更新；nil 字段不发送
// SettingsUpdate is a partial update; nil fields are omitted
type SettingsUpdate struct {
	GitHubRepo               *string `json:"github_repo,omitempty"`
	GitHubSyncEnabled        *bool   `json:"github_sync_enabled,omitempty"`
	EmailNotificationEnabled *bool   `json:"email_notification_enabled,omitempty"`
}

func (u SettingsUpdate) Empty() bool {
	return u.GitHubRepo == nil && u.GitHubSyncEnabled == nil && u.EmailNotificationEnabled == nil
}

type RepoCheck struct {
	Name   string `json:"name,omitempty"`
	Exists bool   `json:"exists"`
	URL    string `json:"url,omitempty"`
}

type Integrations struct {
	GoogleDriveEnabled bool      `json:"google_drive_enabled"`
	GitHubEnabled      bool      `json:"github_enabled"`
	BackupFrequency    string    `json:"backup_frequency"`
	AutoBackupEnabled  bool      `json:"auto_backup_enabled"`
	IncludeImages      bool      `json:"include_images"`
	GoogleFolderID     string    `json:"google_folder_id,omitempty"`
	GitHubRepoName     string    `json:"github_repo_name,omitempty"`
	GitHubRepoURL      string    `json:"github_repo_url,omitempty"`
	GitHubUsername     string    `json:"github_username,omitempty"`
	GitHubAppInstalled bool      `json:"github_app_installed,omitempty"`
	CreatedAt          Timestamp `json:"created_at"`
}

func (i *Integrations) Validate() error {
	if strings.TrimSpace(i.BackupFrequency) == "" {
		i.BackupFrequency = "daily"
	}
	return nil
}

// IntegrationsUpdate 部分更新 / IntegrationsUpdate is a partial update
type IntegrationsUpdate struct {
	GoogleDriveEnabled *bool   `json:"google_drive_enabled,omitempty"`
	GitHubEnabled      *bool   `json:"github_enabled,omitempty"`
	BackupFrequency    *string `json:"backup_frequency,omitempty"`
	AutoBackupEnabled  *bool   `json:"auto_backup_enabled,omitempty"`
	IncludeImages      *bool   `json:"include_images,omitempty"`
}

func (u IntegrationsUpdate) Empty() bool {
	return u.GoogleDriveEnabled == nil && u.GitHubEnabled == nil && u.BackupFrequency == nil &&
		u.AutoBackupEnabled == nil && u.IncludeImages == nil
}

// 允许的备份周期 / Allowed backup frequencies
var BackupFrequencies = []string{"daily", "weekly", "monthly"}

type Installation struct {
	InstallationID int64  `json:"installation_id"`
	Account        string `json:"account,omitempty"`
}

type AppRepo struct {
	FullName       string `json:"full_name"`
	Private        bool   `json:"private"`
	InstallationID int64  `json:"installation_id"`
	URL            string `json:"html_url,omitempty"`
}

type AppRepos struct {
	Repositories []AppRepo `json:"repositories"`
}

func (r *AppRepos) Validate() error {
	for i, repo := range r.Repositories {
		if strings.TrimSpace(repo.FullName) == "" {
			return fmt.Errorf("repositories[%d]: full_name missing", i)
		}
	}
	return nil
}

// Bool/String 构造指针的小工具 / helpers for building partial updates
func Bool(v bool) *bool       { return &v }
func String(v string) *string { return &v }
