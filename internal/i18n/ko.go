package i18n

// KoMessages 한국어 메시지
var KoMessages = map[string]string{
	// Entry
	"entry.title":   "Velog Backup",
	"entry.intro":   "velog 포스트를 Google Drive 또는 GitHub에 자동으로 백업하세요.",
	"entry.options": "/login github, /login google, /login password 로 로그인하세요. 처음이라면 /register",

	// Auth
	"auth.github_cancelled": "GitHub 인증이 취소되었습니다",
	"auth.no_code":          "인증 코드가 없습니다",
	"auth.github_failed":    "GitHub 인증에 실패했습니다",
	"auth.state_mismatch":   "인증 상태 값이 일치하지 않습니다",
	"auth.already_handled":  "이미 처리된 로그인 요청입니다",
	"auth.login_success":    "로그인 성공!",
	"auth.login_failed":     "로그인에 실패했습니다",
	"auth.logged_out":       "로그아웃되었습니다",
	"auth.open_url":         "브라우저에서 다음 주소를 여세요:\n  %s",
	"auth.waiting_callback": "http://%s%s 에서 리디렉션을 기다리는 중...",
	"auth.paste_callback":   "리디렉션 URL(또는 코드)을 붙여넣으세요: ",
	"auth.callback_page_ok": "로그인 성공! 이 탭을 닫고 터미널로 돌아가세요.",
	"auth.register_success": "%s 계정이 생성되었습니다. /login password 로 로그인하세요",
	"auth.google_prompt":    "Google ID 토큰을 붙여넣으세요: ",
	"auth.email_prompt":     "이메일: ",
	"auth.password_prompt":  "비밀번호: ",
	"auth.name_prompt":      "이름 (선택): ",
	"auth.velog_prompt":     "Velog 사용자명 (선택): ",
	"auth.required":         "로그인이 필요합니다",
	"auth.token_expires":    "세션 만료: %s",

	// Dashboard
	"dashboard.title":           "대시보드",
	"dashboard.total_posts":     "전체 포스트: %d",
	"dashboard.last_backup":     "마지막 백업: %s",
	"dashboard.connected":       "연동됨",
	"dashboard.disconnected":    "미연동",
	"dashboard.connections":     "Velog %s · Google Drive %s · GitHub %s",
	"dashboard.no_logs":         "백업 기록이 없습니다",
	"dashboard.setup_guide":     "시작하기: 1) /velog verify <사용자명>  2) /connect gdrive 또는 /connect github  3) /backup   (/dismiss 로 숨기기)",
	"dashboard.polling":         "백업 진행 중... %s마다 새로고침합니다",
	"dashboard.polling_stopped": "진행 중인 백업이 없습니다",
	"dashboard.unavailable":     "대시보드를 불러올 수 없습니다. /dashboard 로 다시 시도하세요",

	// Backup
	"backup.started":        "백업이 시작되었습니다!",
	"backup.failed":         "백업 시작에 실패했습니다",
	"backup.in_flight":      "이미 백업 요청을 보내는 중입니다",
	"backup.no_destination": "Google Drive 또는 GitHub를 먼저 연동해주세요",
	"download.success":      "ZIP 파일 다운로드가 완료되었습니다! (%s)",
	"download.failed":       "ZIP 파일 다운로드에 실패했습니다",

	// Logs
	"logs.col.started":     "시작",
	"logs.col.status":      "상태",
	"logs.col.destination": "대상",
	"logs.col.posts":       "포스트",
	"logs.col.message":     "메시지",
	"status.pending":       "대기",
	"status.in_progress":   "진행 중",
	"status.success":       "성공",
	"status.failed":        "실패",

	// Velog
	"velog.verified":       "Velog 계정 @%s 이(가) 연동되었습니다",
	"velog.relink_confirm": "연동된 Velog 계정 @%s 을(를) @%s 으로 변경하시겠습니까?",
	"velog.preview_header": "@%s 의 최근 포스트:",
	"velog.preview_empty":  "@%s 의 공개 포스트를 찾을 수 없습니다",
	"velog.not_linked":     "미연동",

	// Settings
	"settings.title":               "설정",
	"settings.saved":               "설정이 저장되었습니다",
	"settings.save_failed":         "설정 저장에 실패했습니다",
	"settings.repo_exists_confirm": "%s 저장소가 이미 존재합니다. 기존 파일이 덮어써질 수 있습니다. 계속하시겠습니까?",
	"settings.email_on":            "이메일 알림이 활성화되었습니다",
	"settings.email_off":           "이메일 알림이 비활성화되었습니다",
	"settings.no_changes":          "저장할 변경 사항이 없습니다",
	"settings.unknown_key":         "알 수 없는 설정 %q (github_repo, github_sync, email_notification, auto_backup, frequency, include_images)",
	"settings.invalid_value":       "%s 값이 올바르지 않습니다: %s",
	"settings.draft":               "%s = %s (/settings save 로 적용)",
	"settings.integrations_saved":  "연동 설정이 저장되었습니다",

	// Integrations
	"integrations.title":                     "연동",
	"integrations.disconnect_gdrive_confirm": "Google Drive 연동을 해제하시겠습니까?",
	"integrations.disconnect_github_confirm": "GitHub 연동을 해제하시겠습니까?",
	"integrations.disconnect_app_confirm":    "GitHub App 연동을 해제하시겠습니까?",
	"integrations.disconnect_failed":         "연동 해제에 실패했습니다",
	"integrations.disconnected":              "%s 연동이 해제되었습니다",
	"integrations.connected":                 "%s 연동이 완료되었습니다",
	"integrations.connect_failed":            "연동에 실패했습니다",
	"integrations.no_repos":                  "GitHub App 에서 사용할 수 있는 저장소가 없습니다",
	"integrations.code_prompt":               "인증 코드를 붙여넣으세요: ",

	// Posts
	"posts.title":          "백업된 포스트",
	"posts.delete_confirm": "\"%s\" 포스트를 삭제하시겠습니까?",
	"posts.deleted":        "포스트가 삭제되었습니다",
	"posts.delete_failed":  "포스트 삭제에 실패했습니다",
	"posts.empty_content":  "다운로드할 내용이 없습니다",
	"posts.exported":       "%s 에 저장되었습니다",
	"posts.not_found":      "포스트를 찾을 수 없습니다",
	"posts.page":           "%d / %d 페이지 (총 %d개)",
	"posts.none":           "백업된 포스트가 없습니다",
	"posts.copied":         "%s 에 내용을 복사했습니다",
	"posts.cached_header":  "캐시된 포스트 (오프라인):",
	"posts.cached_copy":    "캐시된 사본",
	"posts.no_content":     "본문 없음",

	// Confirm
	"confirm.cancelled": "취소되었습니다",
	"confirm.denied":    "설정에 의해 차단된 작업입니다 (%s)",

	// Theme
	"theme.set": "테마가 %s(으)로 변경되었습니다",

	// TUI
	"tui.loading": "불러오는 중...",

	// Errors
	"error.generic":         "요청 처리 중 오류가 발생했습니다",
	"error.load_failed":     "데이터를 불러오는데 실패했습니다",
	"error.unknown_command": "알 수 없는 명령어: %s (/help 참고)",
	"error.usage":           "사용법: %s",

	// Startup
	"startup.welcome": "vbackup 이(가) %s 에 연결되었습니다",
}
