package permission

import (
	"strings"

	"vbackup/internal/config"
)

type Decision string

const (
	DecisionAllow Decision = "allow"
	DecisionAsk   Decision = "ask"
	DecisionDeny  Decision = "deny"
)

// Action 需要确认的破坏性操作
// Action names a destructive operation that may require confirmation
type Action string

const (
	ActionRelink        Action = "relink"
	ActionDeletePost    Action = "delete_post"
	ActionDisconnect    Action = "disconnect"
	ActionOverwriteRepo Action = "overwrite_repo"
)

func (a Action) Valid() bool {
	switch a {
	case ActionRelink, ActionDeletePost, ActionDisconnect, ActionOverwriteRepo:
		return true
	default:
		return false
	}
}

type Result struct {
	Decision Decision
	Reason   string
}

type Policy struct {
	cfg config.ConfirmConfig
}

func New(cfg config.ConfirmConfig) *Policy {
	return &Policy{cfg: cfg}
}

// Decide 返回某个破坏性操作的确认策略；未知操作一律 ask。
// Decide returns the confirmation decision for a destructive action; unknown actions always ask.
func (p *Policy) Decide(action Action) Result {
	if !action.Valid() {
		return Result{Decision: DecisionAsk, Reason: "unknown action"}
	}
	decision := normalizeDecision(p.rule(action), p.defaultDecision())
	switch decision {
	case DecisionAllow:
		return Result{Decision: DecisionAllow}
	case DecisionDeny:
		return Result{Decision: DecisionDeny, Reason: string(action) + " blocked by config"}
	default:
		return Result{Decision: DecisionAsk, Reason: "confirmation required"}
	}
}

func (p *Policy) defaultDecision() Decision {
	return normalizeDecision(p.cfg.Default, DecisionAsk)
}

func (p *Policy) rule(action Action) string {
	switch action {
	case ActionRelink:
		return p.cfg.Relink
	case ActionDeletePost:
		return p.cfg.DeletePost
	case ActionDisconnect:
		return p.cfg.Disconnect
	case ActionOverwriteRepo:
		return p.cfg.OverwriteRepo
	default:
		return p.cfg.Default
	}
}

func normalizeDecision(raw string, fallback Decision) Decision {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch s {
	case string(DecisionAllow):
		return DecisionAllow
	case string(DecisionAsk):
		return DecisionAsk
	case string(DecisionDeny):
		return DecisionDeny
	default:
		return fallback
	}
}

// Summary 返回当前确认矩阵的简短描述（供 /config 展示）
func (p *Policy) Summary() string {
	parts := []string{"default: " + string(p.defaultDecision())}
	for _, a := range []Action{ActionRelink, ActionDeletePost, ActionDisconnect, ActionOverwriteRepo} {
		parts = append(parts, string(a)+": "+string(p.Decide(a).Decision))
	}
	return strings.Join(parts, ", ")
}
