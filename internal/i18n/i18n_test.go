package i18n

import (
	"sync"
	"testing"
)

func TestNew_English(t *testing.T) {
	i := New("en")
	if i.Locale() != "en" {
		t.Fatalf("Locale()=%q, want en", i.Locale())
	}
	got := i.T("backup.started")
	if got != "Backup started!" {
		t.Fatalf("T(backup.started)=%q, want Backup started!", got)
	}
}

func TestNew_Korean(t *testing.T) {
	i := New("ko")
	if i.Locale() != "ko" {
		t.Fatalf("Locale()=%q, want ko", i.Locale())
	}
	got := i.T("error.generic")
	if got != "요청 처리 중 오류가 발생했습니다" {
		t.Fatalf("T(error.generic)=%q", got)
	}
}

func TestNew_KoreanFromLang(t *testing.T) {
	i := New("ko_KR.UTF-8")
	if i.Locale() != "ko" {
		t.Fatalf("Locale()=%q, want ko", i.Locale())
	}
	got := i.T("posts.empty_content")
	if got != "다운로드할 내용이 없습니다" {
		t.Fatalf("T(posts.empty_content)=%q", got)
	}
}

func TestKoreanFallsBackToEnglish(t *testing.T) {
	i := New("ko")
	got := i.T("auth.whoami", "kim", "kim@example.com", 3)
	if got != "kim <kim@example.com> (id 3)" {
		t.Fatalf("fallback=%q", got)
	}
}

func TestCatalogsShareKeys(t *testing.T) {
	for k := range KoMessages {
		if _, ok := EnMessages[k]; !ok {
			t.Errorf("ko key %q missing from en catalog", k)
		}
	}
}

func TestT_WithArgs(t *testing.T) {
	i := New("ko")
	got := i.T("posts.delete_confirm", "Go 제네릭")
	if got != `"Go 제네릭" 포스트를 삭제하시겠습니까?` {
		t.Fatalf("T with args=%q", got)
	}
}

func TestT_MissingKey(t *testing.T) {
	i := New("en")
	got := i.T("nonexistent.key")
	if got != "nonexistent.key" {
		t.Fatalf("T missing key=%q, want key itself", got)
	}
}

func TestDetectLocale(t *testing.T) {
	t.Setenv("VBACKUP_LANG", "")
	t.Setenv("LC_ALL", "")
	t.Setenv("LC_MESSAGES", "")
	t.Setenv("LANG", "ko_KR.UTF-8")
	if got := DetectLocale(); got != "ko" {
		t.Fatalf("DetectLocale()=%q, want ko", got)
	}
	t.Setenv("VBACKUP_LANG", "en_US")
	if got := DetectLocale(); got != "en" {
		t.Fatalf("DetectLocale()=%q, want en", got)
	}
}

func TestNormalizeLocale(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"en_US.UTF-8", "en"},
		{"ko_KR.UTF-8", "ko"},
		{"ko", "ko"},
		{"en", "en"},
		{"", "en"},
		{"fr_FR", "fr-FR"},
	}
	for _, tt := range tests {
		got := normalizeLocale(tt.input)
		if got != tt.expected {
			t.Errorf("normalizeLocale(%q)=%q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestGlobal(t *testing.T) {
	g := Global()
	if g == nil {
		t.Fatal("Global() should not be nil")
	}
	// 应该返回同一实例 / Should return same instance
	g2 := Global()
	if g != g2 {
		t.Fatal("Global() should return same instance")
	}
}

func TestInitReplacesGlobal(t *testing.T) {
	t.Cleanup(func() { Init("en") })

	Init("ko")
	if got := Global().Locale(); got != "ko" {
		t.Fatalf("Locale()=%q after Init(ko)", got)
	}
	if got := T("confirm.cancelled"); got != KoMessages["confirm.cancelled"] {
		t.Fatalf("T(confirm.cancelled)=%q", got)
	}
	Init("en")
	if got := T("confirm.cancelled"); got != "Cancelled" {
		t.Fatalf("T(confirm.cancelled)=%q after Init(en)", got)
	}
}

func TestInitWhileTranslating(t *testing.T) {
	t.Cleanup(func() { Init("en") })

	want := map[string]bool{
		EnMessages["error.generic"]: true,
		KoMessages["error.generic"]: true,
	}
	var wg sync.WaitGroup
	for n := 0; n < 4; n++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for k := 0; k < 200; k++ {
				if got := T("error.generic"); !want[got] {
					t.Errorf("T(error.generic)=%q", got)
					return
				}
			}
		}()
	}
	for k := 0; k < 100; k++ {
		if k%2 == 0 {
			Init("ko")
		} else {
			Init("en")
		}
	}
	wg.Wait()
}
