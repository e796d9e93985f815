package app

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

// chdir はテスト中だけカレントディレクトリを移動する
func chdir(t *testing.T, dir string) {
	t.Helper()
	originalDir, err := os.Getwd()
	if err != nil {
		t.Fatal(err)
	}
	if err := os.Chdir(dir); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.Chdir(originalDir) })
}

func writeSoundFont(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}
}

func TestFindSoundFont_Configured(t *testing.T) {
	tmpDir := t.TempDir()
	sfPath := filepath.Join(tmpDir, "cues.sf2")
	writeSoundFont(t, sfPath, "RIFF-configured")

	embedded := fstest.MapFS{"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF-embedded")}}
	result := findSoundFont(embedded, sfPath, "")
	if result == nil || result.Path != sfPath || result.IsEmbedded {
		t.Fatalf("Expected configured SoundFont, got %+v", result)
	}
	data, err := result.Read()
	if err != nil || string(data) != "RIFF-configured" {
		t.Errorf("Read = %q, %v", data, err)
	}
}

func TestFindSoundFont_Embedded(t *testing.T) {
	chdir(t, t.TempDir())
	embedded := fstest.MapFS{"soundfonts/" + DefaultSoundFontName: {Data: []byte("RIFF-embedded")}}

	// 指定されたファイルが存在しなければ埋め込みを使う
	result := findSoundFont(embedded, "/nonexistent/cues.sf2", "")
	if result == nil || !result.IsEmbedded || result.Source == nil {
		t.Fatalf("Expected embedded SoundFont, got %+v", result)
	}
	data, err := result.Read()
	if err != nil || string(data) != "RIFF-embedded" {
		t.Errorf("Read = %q, %v", data, err)
	}
}

func TestFindSoundFont_ExternalFile(t *testing.T) {
	tmpDir := t.TempDir()
	writeSoundFont(t, filepath.Join(tmpDir, DefaultSoundFontName), "RIFF....sfbk")
	chdir(t, tmpDir)

	result := findSoundFont(fstest.MapFS{}, "", "")
	if result == nil {
		t.Fatal("Expected to find SoundFont in current directory")
	}
	if result.IsEmbedded || result.Source != nil {
		t.Error("Expected external file, got embedded")
	}
	if result.Path != DefaultSoundFontName {
		t.Errorf("Expected path %s, got %s", DefaultSoundFontName, result.Path)
	}
}

func TestFindSoundFont_LevelDir(t *testing.T) {
	chdir(t, t.TempDir())
	levels := t.TempDir()
	sfPath := filepath.Join(levels, DefaultSoundFontName)
	writeSoundFont(t, sfPath, "RIFF....sfbk")

	result := findSoundFont(nil, "", levels)
	if result == nil || result.Path != sfPath {
		t.Fatalf("Expected SoundFont in level directory, got %+v", result)
	}
}

func TestFindSoundFont_Priority(t *testing.T) {
	tmpDir := t.TempDir()
	levels := filepath.Join(tmpDir, "levels")
	if err := os.MkdirAll(levels, 0755); err != nil {
		t.Fatal(err)
	}
	writeSoundFont(t, filepath.Join(tmpDir, DefaultSoundFontName), "RIFF-current")
	writeSoundFont(t, filepath.Join(levels, DefaultSoundFontName), "RIFF-levels")
	chdir(t, tmpDir)

	// カレントディレクトリがレベルのディレクトリより優先
	result := findSoundFont(nil, "", levels)
	if result == nil || result.Path != DefaultSoundFontName {
		t.Errorf("Expected current directory SoundFont, got %+v", result)
	}
}

func TestFindSoundFont_NotFound(t *testing.T) {
	chdir(t, t.TempDir())
	if result := findSoundFont(fstest.MapFS{}, "", "/nonexistent/path"); result != nil {
		t.Errorf("Expected nil when no SoundFont found, got %+v", result)
	}
}

func TestLevelDir(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "stack.toml")
	writeSoundFont(t, file, "")

	tests := []struct {
		name, path, want string
	}{
		{"未指定", "", ""},
		{"ディレクトリ", dir, dir},
		{"ファイル", file, dir},
		{"存在しないパス", "/nonexistent", "/nonexistent"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := levelDir(tt.path); got != tt.want {
				t.Errorf("levelDir(%q) = %q, want %q", tt.path, got, tt.want)
			}
		})
	}
}
