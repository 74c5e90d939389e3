package permission

import (
	"testing"

	"vbackup/internal/config"
)

func TestPolicyDecide(t *testing.T) {
	p := New(config.ConfirmConfig{
		Default:       "ask",
		Relink:        "allow",
		DeletePost:    "deny",
		OverwriteRepo: " ASK ",
	})

	if got := p.Decide(ActionRelink).Decision; got != DecisionAllow {
		t.Fatalf("relink decision=%s", got)
	}
	if got := p.Decide(ActionDeletePost); got.Decision != DecisionDeny || got.Reason == "" {
		t.Fatalf("delete_post result=%+v", got)
	}
	if got := p.Decide(ActionDisconnect).Decision; got != DecisionAsk {
		t.Fatalf("disconnect should fall back to default, got %s", got)
	}
	if got := p.Decide(ActionOverwriteRepo).Decision; got != DecisionAsk {
		t.Fatalf("overwrite_repo decision=%s", got)
	}
	if got := p.Decide(Action("format_disk")).Decision; got != DecisionAsk {
		t.Fatalf("unknown action decision=%s", got)
	}
}

func TestPolicyDefaultFallsBackToAsk(t *testing.T) {
	p := New(config.ConfirmConfig{Default: "sometimes", Disconnect: "bogus"})
	if got := p.Decide(ActionDisconnect).Decision; got != DecisionAsk {
		t.Fatalf("decision=%s, want ask", got)
	}

	p = New(config.ConfirmConfig{Default: "allow"})
	if got := p.Decide(ActionDeletePost).Decision; got != DecisionAllow {
		t.Fatalf("decision=%s, want allow from default", got)
	}
}

func TestPolicySummary(t *testing.T) {
	p := New(config.ConfirmConfig{Default: "deny", Relink: "allow"})
	want := "default: deny, relink: allow, delete_post: deny, disconnect: deny, overwrite_repo: deny"
	if got := p.Summary(); got != want {
		t.Fatalf("Summary()=%q\nwant %q", got, want)
	}
}
