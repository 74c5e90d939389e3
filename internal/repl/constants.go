package repl

type replCommand struct {
	name        string
	subcommands []string
	usage       string
	description string
}

var replCommands = []replCommand{
	{name: "/help", usage: "/help", description: "show available commands"},
	{name: "/login", subcommands: []string{"github", "google", "password", "callback"}, usage: "/login github|google|password|callback <url>", description: "sign in"},
	{name: "/register", usage: "/register", description: "create an account with email and password"},
	{name: "/logout", usage: "/logout", description: "sign out (local only)"},
	{name: "/whoami", usage: "/whoami", description: "show the signed-in user"},
	{name: "/dashboard", usage: "/dashboard", description: "stats, connections and recent backups"},
	{name: "/backup", subcommands: []string{"force", "gdrive", "github", "both"}, usage: "/backup [force] [gdrive|github|both]", description: "start a backup"},
	{name: "/watch", usage: "/watch", description: "refresh stats and follow a running backup"},
	{name: "/logs", usage: "/logs [limit]", description: "recent backup logs"},
	{name: "/download", usage: "/download [dir]", description: "download all backed up posts as ZIP"},
	{name: "/dismiss", usage: "/dismiss", description: "hide the setup guide for this session"},
	{name: "/velog", subcommands: []string{"verify", "preview"}, usage: "/velog verify|preview <username>", description: "link or preview a velog account"},
	{name: "/settings", subcommands: []string{"set", "save", "email"}, usage: "/settings [set <key> <value> | save | email]", description: "view or edit settings"},
	{name: "/integrations", usage: "/integrations", description: "connection status"},
	{name: "/connect", subcommands: []string{"gdrive", "github"}, usage: "/connect gdrive|github [code] [repo]", description: "connect a destination"},
	{name: "/disconnect", subcommands: []string{"gdrive", "github", "app"}, usage: "/disconnect gdrive|github|app", description: "disconnect a destination"},
	{name: "/app", subcommands: []string{"install", "repos", "connect"}, usage: "/app install|repos|connect <installation_id> <owner/repo>", description: "GitHub App"},
	{name: "/posts", usage: "/posts [page]", description: "backed up posts"},
	{name: "/post", usage: "/post <id>", description: "show one post"},
	{name: "/delete", usage: "/delete <id>", description: "delete a backed up post"},
	{name: "/export", subcommands: []string{"md", "html"}, usage: "/export <id> [md|html] [dir]", description: "save a post as markdown or HTML"},
	{name: "/copy", usage: "/copy <id> [file|-]", description: "write a post's content to a file or stdout"},
	{name: "/cached", usage: "/cached [limit]", description: "posts cached for offline reading"},
	{name: "/theme", subcommands: []string{"light", "dark"}, usage: "/theme [light|dark]", description: "switch the color theme"},
	{name: "/config", usage: "/config", description: "show the effective configuration"},
	{name: "/exit", usage: "/exit", description: "exit"},
}
