package cli

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

// Config はコマンドライン引数から解析された設定を保持する
type Config struct {
	LevelPath string        // 外部レベルのパス（ディレクトリまたは .toml ファイル）
	LevelName string        // 起動時に選択するレベル名
	Timeout   time.Duration // タイムアウト時間（0は無制限）
	LogLevel  string        // ログレベル（debug, info, warn, error）
	Headless  bool          // ヘッドレスモード
	MaxSteps  int           // 実行ステップ上限（0は無制限）
	SoundFont string        // SoundFontファイルのパス
	ShowHelp  bool          // ヘルプ表示フラグ
}

// DefaultMaxSteps は --max-steps 未指定時のステップ上限
const DefaultMaxSteps = 10000

// ParseArgs コマンドライン引数を解析してConfigを返す
func ParseArgs(args []string) (*Config, error) {
	// 引数を並べ替え：フラグを前に、位置引数を後ろに
	reorderedArgs := reorderArgs(args)

	fs := flag.NewFlagSet("computron", flag.ContinueOnError)

	config := &Config{}

	var timeoutSec int
	maxSteps := -1
	fs.StringVar(&config.LevelName, "level", "", "選択するレベル名")
	fs.StringVar(&config.LevelName, "L", "", "選択するレベル名（短縮形）")
	fs.IntVar(&timeoutSec, "timeout", 0, "タイムアウト時間（秒）")
	fs.IntVar(&timeoutSec, "t", 0, "タイムアウト時間（秒）（短縮形）")
	fs.StringVar(&config.LogLevel, "log-level", "info", "ログレベル（debug, info, warn, error）")
	fs.StringVar(&config.LogLevel, "l", "info", "ログレベル（短縮形）")
	fs.BoolVar(&config.Headless, "headless", false, "ヘッドレスモード")
	fs.IntVar(&maxSteps, "max-steps", -1, "実行ステップ上限（0は無制限）")
	fs.StringVar(&config.SoundFont, "soundfont", "", "SoundFontファイルのパス")
	fs.BoolVar(&config.ShowHelp, "help", false, "ヘルプを表示")
	fs.BoolVar(&config.ShowHelp, "h", false, "ヘルプを表示（短縮形）")

	if err := fs.Parse(reorderedArgs); err != nil {
		return nil, err
	}

	// 環境変数からの設定（コマンドラインフラグが優先）
	if !config.Headless {
		if headlessEnv := os.Getenv("HEADLESS"); headlessEnv != "" {
			config.Headless = headlessEnv == "1" || strings.ToLower(headlessEnv) == "true"
		}
	}

	if timeoutSec == 0 {
		if timeoutEnv := os.Getenv("TIMEOUT"); timeoutEnv != "" {
			if t, err := strconv.Atoi(timeoutEnv); err == nil && t > 0 {
				timeoutSec = t
			}
		}
	}

	if config.LogLevel == "info" {
		if logLevelEnv := os.Getenv("LOG_LEVEL"); logLevelEnv != "" {
			config.LogLevel = strings.ToLower(logLevelEnv)
		}
	}

	if maxSteps < 0 {
		maxSteps = DefaultMaxSteps
		if env := os.Getenv("MAX_STEPS"); env != "" {
			n, err := strconv.Atoi(env)
			if err != nil || n < 0 {
				return nil, fmt.Errorf("invalid MAX_STEPS: %q", env)
			}
			maxSteps = n
		}
	}
	config.MaxSteps = maxSteps

	if config.SoundFont == "" {
		config.SoundFont = os.Getenv("SOUNDFONT")
	}

	// タイムアウトの検証
	if timeoutSec < 0 {
		return nil, fmt.Errorf("timeout must be non-negative, got %d", timeoutSec)
	}
	config.Timeout = time.Duration(timeoutSec) * time.Second

	// ログレベルの検証
	validLogLevels := map[string]bool{
		"debug": true,
		"info":  true,
		"warn":  true,
		"error": true,
	}
	if !validLogLevels[config.LogLevel] {
		return nil, fmt.Errorf("invalid log level: %s (must be debug, info, warn, or error)", config.LogLevel)
	}

	// 位置引数（レベルのパス）
	if fs.NArg() > 0 {
		config.LevelPath = filepath.Clean(fs.Arg(0))
	}
	if fs.NArg() > 1 {
		return nil, fmt.Errorf("too many arguments: %v", fs.Args())
	}

	return config, nil
}

// boolFlags は値を取らないフラグ
var boolFlags = map[string]bool{
	"-h":         true,
	"--h":        true,
	"-help":      true,
	"--help":     true,
	"-headless":  true,
	"--headless": true,
}

// reorderArgs 引数を並べ替えて、フラグを前に、位置引数を後ろに配置する
func reorderArgs(args []string) []string {
	var flags []string
	var positional []string

	for i := 0; i < len(args); i++ {
		arg := args[i]

		if arg == "--" {
			positional = append(positional, args[i+1:]...)
			break
		}

		// フラグかどうかを判定（-または--で始まる）
		if len(arg) > 1 && arg[0] == '-' {
			flags = append(flags, arg)

			// -t 5 のように値が続く場合は一緒に移動する
			if strings.Contains(arg, "=") || boolFlags[arg] {
				continue
			}
			if i+1 < len(args) {
				i++
				flags = append(flags, args[i])
			}
		} else {
			positional = append(positional, arg)
		}
	}

	return append(flags, positional...)
}

// PrintHelp ヘルプメッセージを表示
func PrintHelp() {
	fmt.Fprintf(os.Stdout, `computron - card programming puzzle

Usage:
  computron [options] [level-path]

Arguments:
  level-path    外部レベルのディレクトリ、または .toml ファイルのパス（省略可）
                省略した場合は埋め込みレベルを使用

Options:
  -L, --level <name>          起動時に選択するレベル名
  -t, --timeout <seconds>     指定秒数後にプログラムを終了（デフォルト: 無制限）
  -l, --log-level <level>     ログレベル: debug, info, warn, error（デフォルト: info）
  --headless                  ヘッドレスモード（GUIなし、標準入出力で操作）
  --max-steps <n>             実行ステップ上限（デフォルト: %d、0は無制限）
  --soundfont <path>          効果音に使うSoundFont（.sf2）
  -h, --help                  このヘルプを表示

Environment Variables:
  HEADLESS=1                  ヘッドレスモードを有効化
  TIMEOUT=<seconds>           タイムアウト時間（秒）
  LOG_LEVEL=<level>           ログレベル
  MAX_STEPS=<n>               実行ステップ上限
  SOUNDFONT=<path>            SoundFontファイルのパス

Examples:
  computron                             埋め込みレベルから選択
  computron --level 02-sorting-hat      レベルを名前で指定
  computron ./my-levels                 外部レベルのディレクトリを指定
  computron ./my-levels/stack.toml      外部レベルファイルを指定
  computron --headless --timeout 60     ヘッドレスモードで60秒後に終了
  HEADLESS=1 computron ./my-levels      環境変数でヘッドレスモード
`, DefaultMaxSteps)
}
