package window

import (
	"fmt"
	"image/color"
	"log/slog"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/text/v2"
	"github.com/zurustar/computron/pkg/level"
	"github.com/zurustar/computron/pkg/logger"
	"github.com/zurustar/computron/pkg/puzzle"
	"golang.org/x/image/font/basicfont"
)

var (
	// 背景色 #0087C8
	backgroundColor = color.RGBA{0x00, 0x87, 0xC8, 0xFF}
	// テキスト色（白）
	textColor = color.White
	// 選択中のテキスト色（黄色）
	selectedTextColor = color.RGBA{0xFF, 0xFF, 0x00, 0xFF}
	// リンク中のカードの表示色（灰色）
	lockedTextColor = color.RGBA{0xB0, 0xB0, 0xB0, 0xFF}
	// エラー表示色
	errorTextColor = color.RGBA{0xFF, 0x80, 0x80, 0xFF}
	// デフォルトフォント
	defaultFace = text.NewGoXFace(basicfont.Face7x13)
)

const (
	screenWidth  = 1024
	screenHeight = 768

	// runInterval は連続実行時に1ステップ進めるまでのフレーム数
	runInterval = 10
)

// Mode はウィンドウの表示モードを表す
type Mode int

const (
	ModeSelection Mode = iota // レベル選択画面
	ModePuzzle                // プログラム編集・実行画面
)

// Muter は効果音のミュートを切り替える
type Muter interface {
	SetMuted(muted bool)
	IsMuted() bool
}

// Game はEbitengineのゲームインターフェースを実装する
type Game struct {
	mode          Mode          // 現在のモード
	levels        []level.Entry // 利用可能なレベル一覧
	selectedIndex int           // 選択中のレベルのインデックス
	selectedLevel *level.Entry  // 選択されたレベル
	timeout       time.Duration // タイムアウト時間
	startTime     time.Time     // 開始時刻

	session *puzzle.Session
	cursor  int    // 選択中のコマンド位置
	message string // 直前の操作結果
	isError bool   // message がエラーかどうか
	running bool   // 連続実行中かどうか
	ticks   int

	cues  Muter
	locks *CardLocks // リンク中のカード（binding.Listener から更新）

	// レベル選択時のコールバック（選択 -> パズル遷移）
	onLevelSelected func(entry *level.Entry) (*puzzle.Session, error)
	transitionError error

	hasLevelSelection bool         // レベル選択画面があるかどうか（複数レベル時true）
	onLevelExit       func() error // レベル終了時のコールバック

	log *slog.Logger
	mu  sync.RWMutex
}

// NewGame Gameを作成
func NewGame(mode Mode, levels []level.Entry, timeout time.Duration) *Game {
	return &Game{
		mode:          mode,
		levels:        levels,
		selectedIndex: 0,
		timeout:       timeout,
		startTime:     time.Now(),
		locks:         NewCardLocks(),
		log:           logger.GetLogger(),
	}
}

// Locks returns the card lock listener to register when a level is materialized.
func (g *Game) Locks() *CardLocks {
	return g.locks
}

// SetLogger sets the logger.
func (g *Game) SetLogger(log *slog.Logger) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.log = log
}

// SetSession sets the session shown in puzzle mode
func (g *Game) SetSession(s *puzzle.Session) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.session = s
	g.cursor = 0
	g.running = false
	g.setMessage("", false)
}

// SetCues sets the cue player toggled with the M key
func (g *Game) SetCues(m Muter) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.cues = m
}

// SetOnLevelSelected sets the callback function called when a level is selected
// The callback materializes the level and returns the session to edit
func (g *Game) SetOnLevelSelected(callback func(entry *level.Entry) (*puzzle.Session, error)) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLevelSelected = callback
}

// SetHasLevelSelection sets whether the level selection screen is available
// When true, pressing ESC in puzzle mode returns to the selection screen
// When false, pressing ESC in puzzle mode exits the program
func (g *Game) SetHasLevelSelection(has bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.hasLevelSelection = has
}

// SetOnLevelExit sets the callback function called when leaving a level
func (g *Game) SetOnLevelExit(callback func() error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.onLevelExit = callback
}

// GetTransitionError returns any error that occurred during mode transition
func (g *Game) GetTransitionError() error {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.transitionError
}

// GetSelectedLevel 選択されたレベルを取得
func (g *Game) GetSelectedLevel() *level.Entry {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selectedLevel
}

// Update ゲームロジックの更新（Ebitengineが毎フレーム呼び出す）
func (g *Game) Update() error {
	// タイムアウトチェック
	if g.timeout > 0 && time.Since(g.startTime) >= g.timeout {
		return ebiten.Termination
	}

	for _, in := range readInputs(g.mode) {
		if err := g.apply(in); err != nil {
			return err
		}
	}
	g.tick()
	return nil
}

// tick は連続実行中に一定間隔でステップを進める
func (g *Game) tick() {
	g.mu.Lock()
	defer g.mu.Unlock()
	if !g.running || g.session == nil {
		return
	}
	g.ticks++
	if g.ticks%runInterval != 0 {
		return
	}
	g.stepLocked()
}

// Layout 画面サイズを返す
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	return screenWidth, screenHeight
}

// setMessage は直前の操作結果を保存する（ロック取得済みで呼ぶ）
func (g *Game) setMessage(msg string, isError bool) {
	g.message = msg
	g.isError = isError
}

// Run GUIモードでウィンドウを実行
func Run(g *Game) (*level.Entry, error) {
	// ウィンドウ設定
	ebiten.SetWindowSize(screenWidth, screenHeight)
	ebiten.SetWindowTitle("computron")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	// ゲームを実行
	if err := ebiten.RunGame(g); err != nil {
		return nil, fmt.Errorf("failed to run game: %w", err)
	}
	if err := g.GetTransitionError(); err != nil {
		return nil, err
	}

	return g.GetSelectedLevel(), nil
}
