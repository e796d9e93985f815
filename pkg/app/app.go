package app

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"

	"github.com/zurustar/computron/pkg/binding"
	"github.com/zurustar/computron/pkg/cli"
	"github.com/zurustar/computron/pkg/console"
	"github.com/zurustar/computron/pkg/cue"
	"github.com/zurustar/computron/pkg/level"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/puzzle"
	"github.com/zurustar/computron/pkg/window"
)

// LevelDir は埋め込みファイルシステム内のレベルのディレクトリ
const LevelDir = "levels"

// Option configures an Application.
type Option func(*Application)

// WithIO はヘッドレスモードの入出力を差し替える
func WithIO(r io.Reader, w io.Writer) Option {
	return func(app *Application) {
		app.stdin = r
		app.stdout = w
	}
}

// Application はアプリケーションのメインロジックを管理する
type Application struct {
	config   *cli.Config
	log      *slog.Logger
	levelReg *level.Registry
	embedFS  fs.FS
	cues     *cue.Player
	stdin    io.Reader
	stdout   io.Writer
}

// New Applicationを作成
func New(embedFS fs.FS, opts ...Option) *Application {
	app := &Application{
		embedFS: embedFS,
		stdin:   os.Stdin,
		stdout:  os.Stdout,
	}
	for _, opt := range opts {
		opt(app)
	}
	return app
}

// Run アプリケーションを実行
func (app *Application) Run(args []string) error {
	// 1. コマンドライン引数の解析
	if err := app.parseArgs(args); err != nil {
		return fmt.Errorf("failed to parse args: %w", err)
	}

	if app.config.ShowHelp {
		cli.PrintHelp()
		return nil
	}

	// 2. ロガーの初期化
	if err := app.initLogger(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}

	app.log.Info("Application started", "headless", app.config.Headless, "max_steps", app.config.MaxSteps)

	// 3. レベルの読み込み
	selected, needsSelection, err := app.loadLevels()
	if err != nil {
		return fmt.Errorf("failed to load levels: %w", err)
	}

	// 4. 実行
	if app.config.Headless {
		err = app.runHeadless(selected, needsSelection)
	} else {
		err = app.runWindow(selected, needsSelection)
	}
	if err != nil {
		return err
	}

	app.log.Info("Application terminated normally")
	return nil
}

// parseArgs コマンドライン引数を解析
func (app *Application) parseArgs(args []string) error {
	config, err := cli.ParseArgs(args)
	if err != nil {
		return err
	}
	app.config = config
	return nil
}

// initLogger ロガーを初期化
func (app *Application) initLogger() error {
	if err := logger.InitLogger(app.config.LogLevel); err != nil {
		return err
	}
	app.log = logger.GetLogger()
	return nil
}

// loadLevels レベルを読み込んで選択する
func (app *Application) loadLevels() (*level.Entry, bool, error) {
	app.levelReg = level.NewRegistry(app.embedFS, LevelDir, level.WithRegistryLogger(app.log))

	// 外部レベルの読み込み（指定されている場合）
	if app.config.LevelPath != "" {
		if err := app.levelReg.LoadExternal(app.config.LevelPath); err != nil {
			return nil, false, fmt.Errorf("failed to load external levels: %w", err)
		}
	}

	selected, needsSelection, err := app.levelReg.Select(app.config.LevelName)
	if err != nil {
		return nil, false, err
	}
	if selected != nil {
		app.log.Info("Level selected", "name", selected.Name, "path", selected.Path)
	} else {
		app.log.Info("Multiple levels available, showing selection screen", "count", len(app.levelReg.Levels()))
	}
	return selected, needsSelection, nil
}

// openLevel 選択されたレベルからセッションを作る
// listeners は初期リンクの時点からカードのロックを受け取る
func (app *Application) openLevel(entry *level.Entry, listeners ...binding.Listener) (*puzzle.Session, error) {
	mopts := []level.Option{level.WithLogger(app.log)}
	for _, l := range listeners {
		mopts = append(mopts, level.WithBindingListener(l))
	}
	ctx, err := entry.Level.Materialize(mopts...)
	if err != nil {
		return nil, fmt.Errorf("failed to materialize level %s: %w", entry.Name, err)
	}

	opts := []puzzle.Option{
		puzzle.WithLogger(app.log),
		puzzle.WithMaxSteps(app.config.MaxSteps),
	}
	if app.cues != nil {
		opts = append(opts, puzzle.WithEngineListener(app.cues))
	}

	app.log.Info("Level opened",
		"name", entry.DisplayName(),
		"cards", ctx.Cards.Len(),
		"commands", ctx.Program.Len(),
		"cost", ctx.Cards.TotalCost())
	return puzzle.New(ctx, opts...), nil
}

// runHeadless 標準入出力でレベルを操作する
func (app *Application) runHeadless(selected *level.Entry, needsSelection bool) error {
	// レベル選択とコンソールで同じ入力を共有する
	input := bufio.NewReader(app.stdin)

	if needsSelection {
		var err error
		selected, err = console.SelectLevel(app.levelReg.Levels(), app.config.Timeout, input, app.stdout)
		if errors.Is(err, console.ErrTimeout) {
			app.log.Info("Timeout reached, terminating")
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to select level: %w", err)
		}
	}

	session, err := app.openLevel(selected)
	if err != nil {
		return err
	}

	prompt := false
	if f, ok := app.stdin.(*os.File); ok {
		prompt = console.IsInteractive(f)
	}
	c := console.New(session, input, app.stdout,
		console.WithLogger(app.log),
		console.WithPrompt(prompt))

	ctx := context.Background()
	if app.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, app.config.Timeout)
		defer cancel()
	}

	if err := c.Run(ctx); err != nil {
		if errors.Is(err, console.ErrTimeout) {
			app.log.Info("Timeout reached, terminating")
			return nil
		}
		return err
	}
	return nil
}

// runWindow GUIモードでレベルを操作する
func (app *Application) runWindow(selected *level.Entry, needsSelection bool) error {
	app.cues = app.loadCues()

	mode := window.ModePuzzle
	if needsSelection {
		mode = window.ModeSelection
	}
	game := window.NewGame(mode, app.levelReg.Levels(), app.config.Timeout)
	game.SetLogger(app.log)
	if app.cues != nil {
		game.SetCues(app.cues)
	}
	game.SetHasLevelSelection(needsSelection)
	game.SetOnLevelSelected(func(entry *level.Entry) (*puzzle.Session, error) {
		return app.openLevel(entry, game.Locks())
	})
	game.SetOnLevelExit(func() error {
		app.log.Info("Level closed")
		return nil
	})

	if !needsSelection {
		session, err := app.openLevel(selected, game.Locks())
		if err != nil {
			return err
		}
		game.SetSession(session)
	}

	if _, err := window.Run(game); err != nil {
		return fmt.Errorf("failed to run window: %w", err)
	}
	return nil
}

// loadCues は効果音プレイヤーを準備する
// SoundFontが見つからない場合は効果音なしで続行する
func (app *Application) loadCues() *cue.Player {
	loc := findSoundFont(app.embedFS, app.config.SoundFont, levelDir(app.config.LevelPath))
	if loc == nil {
		app.log.Warn("SoundFont not found, audio cues disabled", "name", DefaultSoundFontName)
		return nil
	}

	data, err := loc.Read()
	if err != nil {
		app.log.Warn("Failed to read SoundFont, audio cues disabled", "path", loc.Path, "error", err)
		return nil
	}
	sf, err := cue.LoadSoundFont(data)
	if err != nil {
		app.log.Warn("Failed to load SoundFont, audio cues disabled", "path", loc.Path, "error", err)
		return nil
	}
	renderer, err := cue.NewRenderer(sf)
	if err != nil {
		app.log.Warn("Failed to create synthesizer, audio cues disabled", "error", err)
		return nil
	}

	app.log.Info("SoundFont loaded", "path", loc.Path, "embedded", loc.IsEmbedded)
	return cue.NewPlayer(nil, renderer, cue.WithLogger(app.log))
}
