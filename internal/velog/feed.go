// Package velog 在连接 velog 账号前，通过公开 RSS 预览该用户的最近文章。
//
// Package velog previews a velog user's recent posts through the public RSS feed
// before the account is linked.
package velog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"
)

const DefaultFeedBase = "https://v2.velog.io/rss"

var ErrUserNotFound = errors.New("velog user not found")

// Item RSS 条目的归一化结果 / Item is a normalized feed entry
type Item struct {
	Title     string
	Link      string
	Excerpt   string
	Published time.Time
}

type Client struct {
	base string
	http *http.Client
}

func NewClient(base string, timeout time.Duration) *Client {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		base = DefaultFeedBase
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Client{base: base, http: &http.Client{Timeout: timeout}}
}

// NormalizeUsername 去掉前导 @ 和空白 / NormalizeUsername strips whitespace and a leading @
func NormalizeUsername(name string) string {
	return strings.TrimPrefix(strings.TrimSpace(name), "@")
}

func (c *Client) FeedURL(username string) string {
	return c.base + "/@" + NormalizeUsername(username)
}

// Recent 拉取并解析 RSS，最多返回 max 条
// Recent fetches and parses the feed, returning at most max items
func (c *Client) Recent(ctx context.Context, username string, max int) ([]Item, error) {
	username = NormalizeUsername(username)
	if username == "" {
		return nil, errors.New("velog username is empty")
	}
	feedURL := c.FeedURL(username)

	reqCtx, cancel := context.WithTimeout(ctx, c.http.Timeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, feedURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", "vbackup-cli/1.0")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET feed %s: %w", feedURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, fmt.Errorf("%w: @%s", ErrUserNotFound, username)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, fmt.Errorf("GET feed %s: status %d", feedURL, resp.StatusCode)
	}

	// gofeed 不接收自定义 http.Client，先抓取再解析
	feed, err := gofeed.NewParser().Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}
	items := make([]Item, 0, len(feed.Items))
	for _, it := range feed.Items {
		item := Item{
			Title:     strings.TrimSpace(it.Title),
			Link:      strings.TrimSpace(it.Link),
			Excerpt:   Excerpt(pickText(it.Description, it.Content), 120),
			Published: pickTime(it.PublishedParsed, it.UpdatedParsed),
		}
		items = append(items, item)
		if max > 0 && len(items) >= max {
			break
		}
	}
	return items, nil
}

// Excerpt 用 goquery 去掉 HTML 标签，压缩空白并按字符截断
// Excerpt strips HTML with goquery, collapses whitespace and truncates by runes
func Excerpt(htmlText string, limit int) string {
	if strings.TrimSpace(htmlText) == "" {
		return ""
	}
	text := htmlText
	if doc, err := goquery.NewDocumentFromReader(strings.NewReader(htmlText)); err == nil {
		text = doc.Text()
	}
	text = strings.Join(strings.Fields(text), " ")
	if limit > 0 && utf8.RuneCountInString(text) > limit {
		runes := []rune(text)
		text = strings.TrimSpace(string(runes[:limit])) + "…"
	}
	return text
}

func pickText(a, b string) string {
	if strings.TrimSpace(a) != "" {
		return a
	}
	return b
}

func pickTime(a, b *time.Time) time.Time {
	if a != nil {
		return *a
	}
	if b != nil {
		return *b
	}
	return time.Time{}
}
