package i18n

// EnMessages English message catalog
var EnMessages = map[string]string{
	// Entry
	"entry.title":   "Velog Backup",
	"entry.intro":   "Back up your velog posts to Google Drive or GitHub automatically.",
	"entry.options": "Sign in with /login github, /login google or /login password. New here? /register",

	// Auth
	"auth.github_cancelled": "GitHub authorization was cancelled",
	"auth.no_code":          "No authorization code",
	"auth.github_failed":    "GitHub authorization failed",
	"auth.state_mismatch":   "OAuth state does not match",
	"auth.already_handled":  "This sign-in link was already used",
	"auth.login_success":    "Signed in!",
	"auth.login_failed":     "Sign-in failed",
	"auth.logged_out":       "Signed out",
	"auth.open_url":         "Open this URL in your browser:\n  %s",
	"auth.waiting_callback": "Waiting for the redirect on http://%s%s ...",
	"auth.paste_callback":   "Paste the redirect URL (or the code): ",
	"auth.callback_page_ok": "Signed in. You can close this tab and return to the terminal.",
	"auth.register_success": "Account created for %s. Sign in with /login password",
	"auth.google_prompt":    "Paste your Google ID token: ",
	"auth.email_prompt":     "Email: ",
	"auth.password_prompt":  "Password: ",
	"auth.name_prompt":      "Full name (optional): ",
	"auth.velog_prompt":     "Velog username (optional): ",
	"auth.whoami":           "%s <%s> (id %d)",
	"auth.token_expires":    "Session expires at %s",
	"auth.required":         "Please sign in first",

	// Dashboard
	"dashboard.title":           "Dashboard",
	"dashboard.total_posts":     "Total posts: %d",
	"dashboard.last_backup":     "Last backup: %s",
	"dashboard.connected":       "connected",
	"dashboard.disconnected":    "not connected",
	"dashboard.connections":     "Velog %s · Google Drive %s · GitHub %s",
	"dashboard.no_logs":         "No backups yet",
	"dashboard.setup_guide":     "Getting started: 1) /velog verify <username>  2) /connect gdrive or /connect github  3) /backup   (hide with /dismiss)",
	"dashboard.polling":         "Backup in progress, refreshing every %s",
	"dashboard.polling_stopped": "No backup in progress",
	"dashboard.unavailable":     "Dashboard unavailable. Run /dashboard to retry",

	// Backup
	"backup.started":        "Backup started!",
	"backup.failed":         "Failed to start backup",
	"backup.in_flight":      "A backup request is already being sent",
	"backup.no_destination": "Connect Google Drive or GitHub first",
	"download.success":      "ZIP download complete! (%s)",
	"download.failed":       "ZIP download failed",

	// Logs
	"logs.col.started":     "Started",
	"logs.col.status":      "Status",
	"logs.col.destination": "Destination",
	"logs.col.posts":       "Posts",
	"logs.col.message":     "Message",
	"status.pending":       "Pending",
	"status.in_progress":   "In progress",
	"status.success":       "Success",
	"status.failed":        "Failed",

	// Velog
	"velog.verified":       "Velog account @%s linked",
	"velog.relink_confirm": "Replace the linked velog account @%s with @%s?",
	"velog.preview_header": "Recent posts of @%s:",
	"velog.preview_empty":  "No public posts found for @%s",
	"velog.not_linked":     "not linked",

	// Settings
	"settings.title":               "Settings",
	"settings.saved":               "Settings saved",
	"settings.save_failed":         "Failed to save settings",
	"settings.repo_exists_confirm": "Repository %s already exists. Existing files may be overwritten. Continue?",
	"settings.email_on":            "Email notifications enabled",
	"settings.email_off":           "Email notifications disabled",
	"settings.no_changes":          "No changes to save",
	"settings.unknown_key":         "Unknown setting %q (github_repo, github_sync, email_notification, auto_backup, frequency, include_images)",
	"settings.invalid_value":       "Invalid value for %s: %s",
	"settings.draft":               "%s = %s (run /settings save to apply)",
	"settings.integrations_saved":  "Integration settings saved",

	// Integrations
	"integrations.title":                     "Integrations",
	"integrations.disconnect_gdrive_confirm": "Disconnect Google Drive?",
	"integrations.disconnect_github_confirm": "Disconnect GitHub?",
	"integrations.disconnect_app_confirm":    "Disconnect the GitHub App?",
	"integrations.disconnect_failed":         "Failed to disconnect",
	"integrations.disconnected":              "%s disconnected",
	"integrations.connected":                 "%s connected",
	"integrations.connect_failed":            "Failed to connect",
	"integrations.no_repos":                  "No repositories available to the GitHub App",
	"integrations.code_prompt":               "Paste the authorization code: ",

	// Posts
	"posts.title":          "Backed up posts",
	"posts.delete_confirm": "Delete the post \"%s\"?",
	"posts.deleted":        "Post deleted",
	"posts.delete_failed":  "Failed to delete the post",
	"posts.empty_content":  "Nothing to download",
	"posts.exported":       "Saved to %s",
	"posts.not_found":      "Post not found",
	"posts.page":           "Page %d / %d (%d posts)",
	"posts.none":           "No backed up posts",
	"posts.copied":         "Copied content to %s",
	"posts.cached_header":  "Cached posts (offline):",
	"posts.cached_copy":    "cached copy",
	"posts.no_content":     "no content",

	// Confirm
	"confirm.cancelled": "Cancelled",
	"confirm.denied":    "Blocked by config (%s)",

	// Theme
	"theme.set": "Theme set to %s",

	// TUI
	"tui.loading": "Loading...",

	// Errors
	"error.generic":         "Something went wrong while processing the request",
	"error.load_failed":     "Failed to load data",
	"error.unknown_command": "Unknown command: %s (see /help)",
	"error.usage":           "Usage: %s",

	// Startup
	"startup.welcome": "vbackup connected to %s",
}
