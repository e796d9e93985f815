package app

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/zurustar/computron/pkg/fileutil"
)

// SoundFontLocation represents the location of a SoundFont file.
type SoundFontLocation struct {
	// Path is the path to the SoundFont file
	Path string
	// Source is the file source to use for loading (nil for external files)
	Source *fileutil.Source
	// IsEmbedded indicates whether the SoundFont is embedded
	IsEmbedded bool
}

// DefaultSoundFontName is the default SoundFont filename to search for.
const DefaultSoundFontName = "GeneralUser-GS.sf2"

// Read はSoundFontの内容を読み込む
func (loc *SoundFontLocation) Read() ([]byte, error) {
	if loc.Source != nil {
		return loc.Source.ReadFile(loc.Path)
	}
	return os.ReadFile(loc.Path)
}

// findSoundFont searches for a SoundFont file in the following order:
// 1. Path given by --soundfont or SOUNDFONT
// 2. Embedded soundfonts directory
// 3. Current directory (external)
// 4. Level directory (external)
//
// Returns nil if no SoundFont is found.
func findSoundFont(embedFS fs.FS, configured, levelDir string) *SoundFontLocation {
	// 1. 明示的に指定されたファイル
	if configured != "" {
		if _, err := os.Stat(configured); err == nil {
			return &SoundFontLocation{Path: configured}
		}
	}

	// 2. 埋め込みの soundfonts ディレクトリ
	if embedFS != nil {
		src := fileutil.NewEmbedFS(embedFS, "soundfonts")
		if data, err := src.ReadFile(DefaultSoundFontName); err == nil && len(data) > 0 {
			return &SoundFontLocation{
				Path:       DefaultSoundFontName, // Sourceのベースパスが"soundfonts"なので、ファイル名だけ
				Source:     src,
				IsEmbedded: true,
			}
		}
	}

	// 3. カレントディレクトリ
	if _, err := os.Stat(DefaultSoundFontName); err == nil {
		return &SoundFontLocation{Path: DefaultSoundFontName}
	}

	// 4. レベルのディレクトリ
	if levelDir != "" {
		p := filepath.Join(levelDir, DefaultSoundFontName)
		if _, err := os.Stat(p); err == nil {
			return &SoundFontLocation{Path: p}
		}
	}

	return nil
}

// levelDir は位置引数からSoundFontを探すディレクトリを求める
func levelDir(levelPath string) string {
	if levelPath == "" {
		return ""
	}
	if info, err := os.Stat(levelPath); err == nil && !info.IsDir() {
		return filepath.Dir(levelPath)
	}
	return levelPath
}
