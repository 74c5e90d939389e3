package velog

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0">
<channel>
<title>someone.log</title>
<link>https://velog.io/@someone</link>
<item>
  <title>Go 제네릭 정리</title>
  <link>https://velog.io/@someone/go-generics</link>
  <description><![CDATA[<h1>제네릭</h1><p>Go 1.18 부터   <b>타입 파라미터</b>를 지원합니다.</p>]]></description>
  <pubDate>Wed, 01 May 2024 09:00:00 GMT</pubDate>
</item>
<item>
  <title>두 번째 글</title>
  <link>https://velog.io/@someone/second</link>
  <description>plain text</description>
</item>
<item>
  <title>세 번째 글</title>
  <link>https://velog.io/@someone/third</link>
</item>
</channel>
</rss>`

func TestRecentParsesFeed(t *testing.T) {
	var gotPath string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		w.Header().Set("Content-Type", "application/rss+xml")
		_, _ = w.Write([]byte(sampleFeed))
	}))
	t.Cleanup(srv.Close)

	c := NewClient(srv.URL+"/rss/", time.Second)
	items, err := c.Recent(context.Background(), " @someone ", 2)
	require.NoError(t, err)
	assert.Equal(t, "/rss/@someone", gotPath)
	require.Len(t, items, 2)
	assert.Equal(t, "Go 제네릭 정리", items[0].Title)
	assert.Equal(t, "제네릭Go 1.18 부터 타입 파라미터를 지원합니다.", items[0].Excerpt)
	assert.Equal(t, 2024, items[0].Published.Year())
	assert.Equal(t, "plain text", items[1].Excerpt)
	assert.True(t, items[1].Published.IsZero())
}

func TestRecentUnknownUser(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	t.Cleanup(srv.Close)

	_, err := NewClient(srv.URL, time.Second).Recent(context.Background(), "ghost", 5)
	assert.True(t, errors.Is(err, ErrUserNotFound))

	_, err = NewClient(srv.URL, time.Second).Recent(context.Background(), "@", 5)
	assert.Error(t, err)
}

func TestExcerptTruncatesByRune(t *testing.T) {
	assert.Equal(t, "가나다…", Excerpt("<p>가나다라마</p>", 3))
	assert.Equal(t, "", Excerpt("   ", 10))
	assert.Equal(t, "a b", Excerpt("a\n\n  b", 0))
}

func TestFeedURL(t *testing.T) {
	assert.Equal(t, DefaultFeedBase+"/@someone", NewClient("", 0).FeedURL("@someone"))
}
