package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/term"

	"vbackup/internal/app"
	"vbackup/internal/bootstrap"
	"vbackup/internal/config"
	"vbackup/internal/i18n"
	"vbackup/internal/repl"
	"vbackup/internal/session"
	"vbackup/internal/tui"
)

type options struct {
	configPath string
	route      string
	tui        bool
	initConfig bool
	baseURL    string
	command    string
}

func parseFlags(args []string, errOut io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("vbackup", flag.ContinueOnError)
	fs.SetOutput(errOut)
	fs.StringVar(&opts.configPath, "config", "", "Path to config JSON/JSONC/YAML")
	fs.StringVar(&opts.route, "route", session.RouteEntry, "Initial route, e.g. /dashboard or /posts/12")
	fs.BoolVar(&opts.tui, "tui", false, "Open the full-screen dashboard")
	fs.BoolVar(&opts.initConfig, "init", false, "Write ./.vbackup/config.json with defaults and exit")
	fs.StringVar(&opts.baseURL, "base-url", "", "Save api.base_url to ./.vbackup/config.json and exit")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	opts.command = strings.TrimSpace(strings.Join(fs.Args(), " "))
	if opts.command != "" && !strings.HasPrefix(opts.command, "/") {
		opts.command = "/" + opts.command
	}
	return opts, nil
}

func main() {
	opts, err := parseFlags(os.Args[1:], os.Stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return
		}
		os.Exit(2)
	}

	if opts.initConfig || opts.baseURL != "" {
		if err := writeProjectConfig(opts); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
			os.Exit(1)
		}
		return
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load config failed: %v\n", err)
		os.Exit(1)
	}
	i18n.Init(cfg.UI.Locale)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if opts.tui || (cfg.UI.TUI && opts.command == "") {
		err = runTUI(ctx, cfg)
	} else {
		err = runREPL(ctx, cfg, opts)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func writeProjectConfig(opts options) error {
	cwd, err := os.Getwd()
	if err != nil {
		return err
	}
	if opts.initConfig {
		path, err := config.InitProjectConfigScaffold(cwd)
		if err != nil {
			return err
		}
		fmt.Println(path)
	}
	if opts.baseURL != "" {
		return config.WriteAPIBaseURL(cwd, opts.baseURL)
	}
	return nil
}

func runREPL(ctx context.Context, cfg config.Config, opts options) error {
	if err := os.MkdirAll(cfg.Storage.BaseDir, 0o755); err != nil {
		return fmt.Errorf("create base dir: %w", err)
	}
	input, inputErr := repl.NewLineInput(filepath.Join(cfg.Storage.BaseDir, "repl.history"))
	if inputErr != nil {
		fmt.Fprintf(os.Stderr, "line editor unavailable, fallback to basic input: %v\n", inputErr)
	}
	defer input.Close()

	out := input.Stdout()
	printer := repl.NewPrinter(out, repl.UseColor())
	res, err := bootstrap.Build(cfg, bootstrap.Options{
		Out:      out,
		Notifier: printer,
		Width:    terminalWidth(),
	})
	if err != nil {
		return err
	}
	defer res.Close()
	printer.SetThemeSource(res.App.Theme)

	loop := repl.NewLoop(res, input, printer, out)
	if opts.command != "" {
		if err := res.Session.Init(ctx, opts.route); err != nil && !errors.Is(err, context.Canceled) {
			printer.Notify(tui.NoticeWarn, app.Message(err, "error.load_failed"))
		}
		loop.Execute(ctx, opts.command)
		return nil
	}

	fmt.Fprintln(out, i18n.T("startup.welcome", cfg.API.BaseURL))
	res.App.Start(ctx, opts.route)
	return repl.Run(ctx, loop)
}

func runTUI(ctx context.Context, cfg config.Config) error {
	var program *tea.Program
	send := func(msg tea.Msg) {
		if program != nil {
			program.Send(msg)
		}
	}
	res, err := bootstrap.Build(cfg, bootstrap.Options{
		Out: io.Discard,
		Notifier: app.NotifierFunc(func(level tui.NoticeLevel, text string) {
			send(tui.NoticeMsg{Level: level, Text: text})
		}),
		// 仪表盘视图没有需要确认的操作 / the dashboard view has nothing that needs confirming
		Confirmer: app.ConfirmerFunc(func(context.Context, string) (bool, error) { return false, nil }),
		Width:     terminalWidth(),
	})
	if err != nil {
		return err
	}
	defer res.Close()

	if err := res.Session.Init(ctx, session.RouteDashboard); err != nil || res.Session.State() != session.Authenticated {
		return errors.New(i18n.T("auth.required") + " (vbackup /login github)")
	}

	program = tea.NewProgram(tui.NewApp(ctx, res.App, res.App.Theme(), cfg.Download.Dir), tea.WithAltScreen(), tea.WithContext(ctx))
	res.App.SetStatsListener(func(msg tui.StatsMsg) { send(msg) })
	_, err = program.Run()
	if errors.Is(err, tea.ErrProgramKilled) {
		return nil
	}
	return err
}

func terminalWidth() int {
	if w, _, err := term.GetSize(int(os.Stdout.Fd())); err == nil && w > 0 {
		return w
	}
	return 100
}
