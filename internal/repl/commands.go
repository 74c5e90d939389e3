package repl

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"vbackup/internal/api"
	"vbackup/internal/app"
	"vbackup/internal/i18n"
	"vbackup/internal/posts"
	"vbackup/internal/session"
	"vbackup/internal/tui"
)

// usageError 参数不对时由 Execute 打印用法
// usageError makes Execute print the command usage
type usageError struct{ usage string }

func (e usageError) Error() string { return "usage: " + e.usage }

func usage(name string) error {
	for _, c := range replCommands {
		if c.name == name {
			return usageError{usage: c.usage}
		}
	}
	return usageError{usage: name}
}

// handleCommand returns exit=true for /exit.
func (loop *Loop) handleCommand(ctx context.Context, input string) (bool, error) {
	parts := strings.Fields(input)
	if len(parts) == 0 {
		return false, nil
	}
	cmd := strings.ToLower(parts[0])
	args := parts[1:]
	a := loop.App

	switch cmd {
	case "/exit", "/quit":
		return true, nil
	case "/help":
		loop.printHelp()
		return false, nil
	case "/login":
		return false, loop.login(ctx, args)
	case "/register":
		return false, loop.register(ctx)
	case "/logout":
		return false, a.Logout()
	case "/whoami":
		_, err := a.WhoAmI()
		return false, err
	case "/dashboard":
		return false, a.Enter(ctx, session.RouteDashboard)
	case "/backup":
		return false, loop.backup(ctx, args)
	case "/watch":
		return false, a.Watch(ctx)
	case "/logs":
		limit := 0
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n <= 0 {
				return false, usage(cmd)
			}
			limit = n
		}
		_, err := a.Logs(ctx, limit)
		return false, err
	case "/download":
		_, err := a.DownloadArchive(ctx, strings.Join(args, " "))
		return false, err
	case "/dismiss":
		if err := a.DismissSetup(); err != nil {
			return false, err
		}
		if a.Route() == session.RouteDashboard {
			a.Navigate(session.RouteDashboard)
		}
		return false, nil
	case "/velog":
		if len(args) < 2 {
			return false, usage(cmd)
		}
		switch strings.ToLower(args[0]) {
		case "verify":
			return false, a.VerifyVelog(ctx, args[1])
		case "preview":
			_, err := a.PreviewVelog(ctx, args[1])
			return false, err
		}
		return false, usage(cmd)
	case "/settings":
		return false, loop.settings(ctx, args)
	case "/integrations":
		return false, a.Enter(ctx, app.RouteIntegrations)
	case "/connect":
		return false, loop.connect(ctx, args)
	case "/disconnect":
		if len(args) < 1 {
			return false, usage(cmd)
		}
		target, err := app.ParseTarget(args[0])
		if err != nil {
			return false, usage(cmd)
		}
		return false, a.Disconnect(ctx, target)
	case "/app":
		return false, loop.githubApp(ctx, args)
	case "/posts":
		page := 1
		if len(args) > 0 {
			n, err := strconv.Atoi(args[0])
			if err != nil || n < 1 {
				return false, usage(cmd)
			}
			page = n
		}
		return false, a.Enter(ctx, app.PostsRoute(page))
	case "/post", "/delete", "/export", "/copy":
		return false, loop.post(ctx, cmd, args)
	case "/cached":
		limit := 0
		if len(args) > 0 {
			limit, _ = strconv.Atoi(args[0])
		}
		_, err := a.CachedPosts(limit)
		return false, err
	case "/theme":
		name := ""
		if len(args) > 0 {
			name = args[0]
		}
		if err := a.SetTheme(name); err != nil {
			return false, err
		}
		loop.notify(tui.NoticeInfo, i18n.T("theme.set", a.Theme().Name))
		return false, nil
	case "/config":
		a.ShowConfig()
		return false, nil
	}

	loop.warn(i18n.T("error.unknown_command", parts[0]))
	return false, nil
}

func (loop *Loop) login(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("/login")
	}
	a := loop.App
	switch strings.ToLower(args[0]) {
	case "github":
		err := a.LoginGitHub(ctx)
		if !errors.Is(err, app.ErrNoLoopback) {
			return err
		}
		if _, err := a.GitHubLoginURL(ctx); err != nil {
			return err
		}
		raw, err := loop.input.ReadLine(i18n.T("auth.paste_callback"))
		if err != nil {
			return context.Canceled
		}
		return a.CompleteCallback(ctx, raw)
	case "callback":
		if len(args) < 2 {
			return usage("/login")
		}
		return a.CompleteCallback(ctx, strings.Join(args[1:], " "))
	case "google":
		token := ""
		if len(args) > 1 {
			token = args[1]
		} else {
			line, err := loop.input.ReadPassword(i18n.T("auth.google_prompt"))
			if err != nil {
				return context.Canceled
			}
			token = line
		}
		return a.LoginGoogle(ctx, token)
	case "password":
		email := ""
		if len(args) > 1 {
			email = args[1]
		} else {
			line, err := loop.input.ReadLine(i18n.T("auth.email_prompt"))
			if err != nil {
				return context.Canceled
			}
			email = line
		}
		password, err := loop.input.ReadPassword(i18n.T("auth.password_prompt"))
		if err != nil {
			return context.Canceled
		}
		return a.LoginPassword(ctx, email, password)
	}
	return usage("/login")
}

func (loop *Loop) register(ctx context.Context) error {
	var req api.RegisterRequest
	fields := []struct {
		key    string
		secret bool
		dst    *string
	}{
		{"auth.email_prompt", false, &req.Email},
		{"auth.password_prompt", true, &req.Password},
		{"auth.name_prompt", false, &req.FullName},
		{"auth.velog_prompt", false, &req.VelogUsername},
	}
	for _, f := range fields {
		read := loop.input.ReadLine
		if f.secret {
			read = loop.input.ReadPassword
		}
		line, err := read(i18n.T(f.key))
		if err != nil {
			return context.Canceled
		}
		*f.dst = strings.TrimSpace(line)
	}
	_, err := loop.App.Register(ctx, req)
	return err
}

func (loop *Loop) backup(ctx context.Context, args []string) error {
	force := false
	dest := api.DestinationBoth
	for _, arg := range args {
		if strings.EqualFold(arg, "force") {
			force = true
			continue
		}
		d, err := api.ParseDestination(arg)
		if err != nil {
			return usage("/backup")
		}
		dest = d
	}
	return loop.App.TriggerBackup(ctx, force, dest)
}

func (loop *Loop) settings(ctx context.Context, args []string) error {
	a := loop.App
	if len(args) == 0 {
		return a.Enter(ctx, app.RouteSettings)
	}
	switch strings.ToLower(args[0]) {
	case "set":
		if len(args) < 3 {
			return usage("/settings")
		}
		return a.SetSetting(ctx, args[1], strings.Join(args[2:], " "))
	case "save":
		return a.SaveSettings(ctx)
	case "email":
		return a.ToggleEmail(ctx)
	}
	return usage("/settings")
}

func (loop *Loop) connect(ctx context.Context, args []string) error {
	if len(args) < 1 {
		return usage("/connect")
	}
	target, err := app.ParseTarget(args[0])
	if err != nil || target == app.TargetGitHubApp {
		return usage("/connect")
	}
	a := loop.App
	code, repo := "", ""
	if len(args) > 1 {
		code = args[1]
	}
	if len(args) > 2 {
		repo = args[2]
	}
	if code == "" {
		if _, err := a.IntegrationAuthURL(ctx, target); err != nil {
			return err
		}
		line, err := loop.input.ReadLine(i18n.T("integrations.code_prompt"))
		if err != nil {
			return context.Canceled
		}
		code = line
	}
	return a.Connect(ctx, target, code, repo)
}

func (loop *Loop) githubApp(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return usage("/app")
	}
	a := loop.App
	switch strings.ToLower(args[0]) {
	case "install":
		_, err := a.IntegrationAuthURL(ctx, app.TargetGitHubApp)
		return err
	case "repos":
		_, err := a.AppRepos(ctx)
		return err
	case "connect":
		if len(args) < 3 {
			return usage("/app")
		}
		id, err := strconv.ParseInt(args[1], 10, 64)
		if err != nil || id <= 0 {
			return usage("/app")
		}
		return a.ConnectApp(ctx, id, args[2])
	}
	return usage("/app")
}

func (loop *Loop) post(ctx context.Context, cmd string, args []string) error {
	if len(args) < 1 {
		return usage(cmd)
	}
	id, err := parseID(args[0])
	if err != nil {
		return usage(cmd)
	}
	a := loop.App
	switch cmd {
	case "/post":
		return a.Enter(ctx, app.PostRoute(id))
	case "/delete":
		return a.DeletePost(ctx, id)
	case "/copy":
		target := ""
		if len(args) > 1 {
			target = strings.Join(args[1:], " ")
		}
		return a.CopyPost(ctx, id, target)
	}

	format := posts.FormatMarkdown
	dir := ""
	if len(args) > 1 {
		f, err := posts.ParseFormat(args[1])
		if err != nil {
			return usage(cmd)
		}
		format = f
	}
	if len(args) > 2 {
		dir = strings.Join(args[2:], " ")
	}
	_, err = a.ExportPost(ctx, id, format, dir)
	return err
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimPrefix(strings.TrimSpace(s), "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid post id %q", s)
	}
	return id, nil
}

func (loop *Loop) printHelp() {
	_, _ = fmt.Fprintln(loop.out, "commands:")
	for _, c := range replCommands {
		_, _ = fmt.Fprintf(loop.out, "  %-58s %s\n", c.usage, c.description)
	}
}

func (loop *Loop) notify(level tui.NoticeLevel, text string) {
	if loop.printer != nil {
		loop.printer.Notify(level, text)
		return
	}
	_, _ = fmt.Fprintln(loop.out, text)
}
