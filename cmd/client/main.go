package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/joho/godotenv"
	"golang.org/x/term"

	"github.com/nzaccagnino/go-sheets/internal/autosave"
	"github.com/nzaccagnino/go-sheets/internal/config"
	"github.com/nzaccagnino/go-sheets/internal/crypto"
	"github.com/nzaccagnino/go-sheets/internal/db"
	"github.com/nzaccagnino/go-sheets/internal/editor"
	"github.com/nzaccagnino/go-sheets/internal/i18n"
	"github.com/nzaccagnino/go-sheets/internal/logging"
	"github.com/nzaccagnino/go-sheets/internal/store"
	"github.com/nzaccagnino/go-sheets/internal/ui"
)

func main() {
	configPath := flag.String("config", config.DefaultConfigPath(), "path to config.yml")
	open := flag.String("open", "", "document to open on startup")
	flag.Parse()

	_ = godotenv.Load()

	if err := run(*configPath, *open); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", i18n.T().Error, err)
		os.Exit(1)
	}
}

func run(configPath, open string) error {
	printLogo()

	if !config.ConfigExists(configPath) {
		if err := firstTimeSetup(configPath); err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Language != "" {
		i18n.SetLanguage(i18n.Language(cfg.Language))
	}

	var logOut io.Writer = io.Discard
	if cfg.Log.File != "" {
		f, err := os.OpenFile(cfg.Log.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
		if err != nil {
			return fmt.Errorf("failed to open log file: %w", err)
		}
		defer f.Close()
		logOut = f
	}
	log := logging.New(logOut, cfg.Log.Level, cfg.Log.Format)

	cipher, err := crypto.New(cfg.KDF.Params())
	if err != nil {
		return fmt.Errorf("invalid kdf settings: %w", err)
	}

	database, err := db.New(cfg.DBPath)
	if err != nil {
		return err
	}
	defer database.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := store.New(database.Documents(),
		store.WithCipher(cipher),
		store.WithLogger(log.With("component", "store")),
	)
	buf := editor.NewBuffer()

	notes := make(chan autosave.Notification, 16)
	sched := autosave.New(ctx, st, buf,
		autosave.NewConfigStore(database.Settings(), log.With("component", "autosave-config")),
		autosave.WithLogger(log.With("component", "autosave")),
		autosave.WithNotifier(autosave.NotifierFunc(func(n autosave.Notification) {
			select {
			case notes <- n:
			default:
			}
		})),
	)
	defer sched.Close()

	if err := openInitial(ctx, st, sched, buf, open); err != nil {
		return err
	}

	m := ui.NewModel(ctx, st, sched, buf, notes, log.With("component", "ui"))
	p := tea.NewProgram(m, tea.WithAltScreen())
	_, runErr := p.Run()

	// Flush edits the timer has not picked up yet.
	if sched.HasUnsavedChanges(ctx) {
		if err := sched.ManualSave(ctx); err != nil {
			log.Error(ctx, "final save failed", "error", err)
			fmt.Fprintf(os.Stderr, "%s: %s\n", i18n.T().SaveFailed, err)
		}
	}
	return runErr
}

// openInitial loads name into the buffer, prompting for its password when
// protected. An empty name starts on an untitled sheet.
func openInitial(ctx context.Context, st *store.Store, sched *autosave.Scheduler, buf *editor.Buffer, name string) error {
	if name == "" {
		return sched.Start(ctx, store.UntitledName, editor.DefaultKind)
	}

	var password string
	if st.IsPasswordProtected(ctx, name) {
		var err error
		password, err = promptPassword(name)
		if err != nil {
			return err
		}
	}

	doc, err := st.GetDecrypted(ctx, name, password)
	if err != nil {
		return err
	}
	content, err := store.DecodeContent(doc.Content)
	if err != nil {
		return err
	}
	kind := doc.BillType
	if kind == 0 {
		kind = editor.DefaultKind
	}
	buf.Load(content, kind)

	var opts []autosave.StartOption
	if doc.PasswordProtected {
		opts = append(opts, autosave.WithPassword(password))
	}
	return sched.Start(ctx, name, kind, opts...)
}

func printLogo() {
	fmt.Println()
	fmt.Println("  ███████╗██╗  ██╗███████╗███████╗████████╗███████╗")
	fmt.Println("  ██╔════╝██║  ██║██╔════╝██╔════╝╚══██╔══╝██╔════╝")
	fmt.Println("  ███████╗███████║█████╗  █████╗     ██║   ███████╗")
	fmt.Println("  ╚════██║██╔══██║██╔══╝  ██╔══╝     ██║   ╚════██║")
	fmt.Println("  ███████║██║  ██║███████╗███████╗   ██║   ███████║")
	fmt.Println("  ╚══════╝╚═╝  ╚═╝╚══════╝╚══════╝   ╚═╝   ╚══════╝")
	fmt.Println()
}

func firstTimeSetup(configPath string) error {
	reader := bufio.NewReader(os.Stdin)

	fmt.Println("  Select language / Seleziona lingua:")
	fmt.Println("  [1] English")
	fmt.Println("  [2] Italiano")
	fmt.Print("  > ")

	choice, err := reader.ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read input: %w", err)
	}

	cfg := config.Default()
	cfg.Language = string(i18n.English)
	if strings.TrimSpace(choice) == "2" {
		cfg.Language = string(i18n.Italian)
	}
	i18n.SetLanguage(i18n.Language(cfg.Language))

	if err := cfg.Save(configPath); err != nil {
		return fmt.Errorf("failed to save config: %w", err)
	}
	fmt.Println()
	return nil
}

func promptPassword(name string) (string, error) {
	fmt.Printf(i18n.T().PasswordPrompt, name)

	if term.IsTerminal(int(os.Stdin.Fd())) {
		password, err := term.ReadPassword(int(os.Stdin.Fd()))
		fmt.Println()
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(password), nil
	}

	reader := bufio.NewReader(os.Stdin)
	password, err := reader.ReadString('\n')
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(password, "\r\n"), nil
}
