package level

import (
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/zurustar/computron/pkg/fileutil"
	"github.com/zurustar/computron/pkg/logger"
)

// Extension はレベルファイルの拡張子
const Extension = ".toml"

// Entry はレジストリに登録されたレベルを表す
type Entry struct {
	Name       string // ファイル名から拡張子を除いたもの
	Path       string // ファイルのパス（embedの場合は仮想パス）
	IsEmbedded bool   // embedされたレベルかどうか
	Level      *Level
}

// DisplayName はレベルの表示名を返す
// レベル名があればそれを、なければファイル名を返す
func (e Entry) DisplayName() string {
	if e.Level != nil && e.Level.Name != "" {
		return e.Level.Name
	}
	return e.Name
}

// Registry はレベルの管理を行う
type Registry struct {
	embedded []Entry // embedされたレベル一覧
	external []Entry // 外部から指定されたレベル
	log      *slog.Logger
}

// RegistryOption configures a Registry.
type RegistryOption func(*Registry)

// WithRegistryLogger sets a custom logger.
func WithRegistryLogger(log *slog.Logger) RegistryOption {
	return func(r *Registry) {
		r.log = log
	}
}

// NewRegistry はembedされたファイルシステムの dir 以下からレベルを読み込む
// fsys が nil の場合は空のレジストリを作る
func NewRegistry(fsys fs.FS, dir string, opts ...RegistryOption) *Registry {
	r := &Registry{log: logger.GetLogger()}
	for _, opt := range opts {
		opt(r)
	}
	if fsys != nil {
		r.embedded = r.loadSource(fileutil.NewEmbedFS(fsys, dir))
	}
	return r
}

// loadSource はディレクトリ内のレベルファイルを読み込む
// 壊れたファイルは警告を出してスキップする
func (r *Registry) loadSource(src *fileutil.Source) []Entry {
	names, err := src.Files(Extension)
	if err != nil {
		// ディレクトリが存在しない場合は何もしない
		r.log.Debug("No levels directory", "path", src.BasePath(), "error", err)
		return nil
	}

	var entries []Entry
	for _, name := range names {
		data, err := src.ReadFile(name)
		if err != nil {
			r.log.Warn("Failed to read level", "file", name, "error", err)
			continue
		}
		stem := strings.TrimSuffix(name, filepath.Ext(name))
		l, err := Parse(data, stem)
		if err != nil {
			r.log.Warn("Skipping invalid level", "file", name, "error", err)
			continue
		}
		p := filepath.Join(src.BasePath(), name)
		if src.IsEmbedded() {
			p = src.BasePath() + "/" + name
		}
		l.Source = p
		entries = append(entries, Entry{Name: stem, Path: p, IsEmbedded: src.IsEmbedded(), Level: l})
	}
	return entries
}

// LoadExternal は外部のディレクトリまたは .toml ファイルからレベルを読み込む
func (r *Registry) LoadExternal(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return fmt.Errorf("level path does not exist: %s", path)
		}
		return fmt.Errorf("failed to access level path: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("failed to get absolute path: %w", err)
	}

	if info.IsDir() {
		entries := r.loadSource(fileutil.NewRealFS(absPath))
		if len(entries) == 0 {
			return fmt.Errorf("no valid levels in %s", absPath)
		}
		r.external = entries
		return nil
	}

	// 単一ファイルの場合はパースエラーをそのまま返す
	data, err := os.ReadFile(absPath)
	if err != nil {
		return fmt.Errorf("failed to read level: %w", err)
	}
	stem := strings.TrimSuffix(filepath.Base(absPath), filepath.Ext(absPath))
	l, err := Parse(data, stem)
	if err != nil {
		return err
	}
	l.Source = absPath
	r.external = []Entry{{Name: stem, Path: absPath, Level: l}}
	return nil
}

// Levels は利用可能なレベル一覧を返す
// 外部レベルが指定されている場合はそれのみを返す
func (r *Registry) Levels() []Entry {
	if len(r.external) > 0 {
		return append([]Entry(nil), r.external...)
	}
	return append([]Entry(nil), r.embedded...)
}

// Lookup は名前でレベルを探す（大文字小文字を無視、ファイル名とレベル名の両方）
func (r *Registry) Lookup(name string) (*Entry, bool) {
	for _, e := range r.Levels() {
		if strings.EqualFold(e.Name, name) || strings.EqualFold(e.DisplayName(), name) {
			return &e, true
		}
	}
	return nil, false
}

// Select はレベルを選択する
// name が指定されていればそれを、単一の場合は自動選択する
// 戻り値: (選択されたレベル, 選択画面が必要か, エラー)
func (r *Registry) Select(name string) (*Entry, bool, error) {
	if name != "" {
		e, ok := r.Lookup(name)
		if !ok {
			return nil, false, fmt.Errorf("level not found: %s", name)
		}
		return e, false, nil
	}

	levels := r.Levels()
	if len(levels) == 0 {
		return nil, false, fmt.Errorf("no levels available")
	}
	if len(levels) == 1 {
		return &levels[0], false, nil
	}
	// 複数のレベルがある場合は選択画面が必要
	return nil, true, nil
}
