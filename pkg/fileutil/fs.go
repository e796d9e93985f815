package fileutil

import (
	"io/fs"
	"os"
	"path"
)

// Source は実ファイルシステムと埋め込みファイルシステムを統一的に扱う
type Source struct {
	fsys     fs.FS
	basePath string
	embedded bool
}

// NewRealFS は実ディレクトリ用のSourceを作成する
func NewRealFS(dir string) *Source {
	return &Source{fsys: os.DirFS(dir), basePath: dir}
}

// NewEmbedFS は埋め込みファイルシステム用のSourceを作成する
// basePath は fsys 内のディレクトリ（例: "levels"）
func NewEmbedFS(fsys fs.FS, basePath string) *Source {
	return &Source{fsys: fsys, basePath: clean(basePath), embedded: true}
}

// ReadFile はファイルの内容を読み込む（大文字小文字を無視）
func (s *Source) ReadFile(name string) ([]byte, error) {
	return ReadFile(s.fsys, s.resolvePath(name))
}

// Files は拡張子 ext のファイル名一覧を返す
func (s *Source) Files(ext string) ([]string, error) {
	return ListFiles(s.fsys, s.resolvePath("."), ext)
}

// BasePath はベースパスを返す
func (s *Source) BasePath() string { return s.basePath }

// IsEmbedded は埋め込みファイルシステムかどうかを返す
func (s *Source) IsEmbedded() bool { return s.embedded }

func (s *Source) resolvePath(name string) string {
	name = clean(name)
	// 実ディレクトリは os.DirFS のルートがベースパス
	if !s.embedded || s.basePath == "." {
		return name
	}
	if name == "." {
		return s.basePath
	}
	return path.Join(s.basePath, name)
}
