package fileutil

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"levels/First.toml":     {Data: []byte("first")},
		"levels/SECOND.TOML":    {Data: []byte("second")},
		"levels/readme.txt":     {Data: []byte("readme")},
		"levels/sub/third.toml": {Data: []byte("third")},
	}
}

func TestFindFile(t *testing.T) {
	fsys := testFS()

	tests := []struct {
		name          string
		searchName    string
		shouldFind    bool
		expectedMatch string
	}{
		{"exact match", "First.toml", true, "levels/First.toml"},
		{"lowercase search for mixed case file", "first.toml", true, "levels/First.toml"},
		{"mixed case search for uppercase file", "Second.toml", true, "levels/SECOND.TOML"},
		{"directories are skipped", "sub", false, ""},
		{"non-existent file", "missing.toml", false, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindFile(fsys, "levels", tt.searchName)
			if tt.shouldFind {
				if err != nil {
					t.Fatalf("FindFile(%q) error = %v", tt.searchName, err)
				}
				if got != tt.expectedMatch {
					t.Errorf("FindFile(%q) = %q, want %q", tt.searchName, got, tt.expectedMatch)
				}
			} else if err == nil {
				t.Errorf("FindFile(%q) = %q, want error", tt.searchName, got)
			}
		})
	}
}

func TestFindFile_MissingDirectory(t *testing.T) {
	if _, err := FindFile(testFS(), "nowhere", "a.toml"); err == nil {
		t.Error("expected error for missing directory")
	}
}

func TestReadFile(t *testing.T) {
	fsys := testFS()

	data, err := ReadFile(fsys, "/levels/second.toml")
	if err != nil {
		t.Fatalf("ReadFile failed: %v", err)
	}
	if string(data) != "second" {
		t.Errorf("ReadFile = %q, want second", data)
	}

	if _, err := ReadFile(fsys, "levels/none.toml"); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestListFiles(t *testing.T) {
	names, err := ListFiles(testFS(), "levels", ".toml")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"First.toml", "SECOND.TOML"}
	if len(names) != len(want) {
		t.Fatalf("ListFiles = %v, want %v", names, want)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Errorf("ListFiles[%d] = %q, want %q", i, names[i], want[i])
		}
	}

	all, err := ListFiles(testFS(), "levels", "")
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Errorf("ListFiles with no extension = %v, want 3 files", all)
	}
}

func TestSource_Embedded(t *testing.T) {
	src := NewEmbedFS(testFS(), "levels")
	if !src.IsEmbedded() || src.BasePath() != "levels" {
		t.Errorf("embedded source = %+v", src)
	}

	files, err := src.Files(".toml")
	if err != nil || len(files) != 2 {
		t.Fatalf("Files() = %v, %v", files, err)
	}

	data, err := src.ReadFile("first.TOML")
	if err != nil || string(data) != "first" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}

func TestSource_Real(t *testing.T) {
	tmpDir := t.TempDir()
	if err := os.WriteFile(filepath.Join(tmpDir, "Level.toml"), []byte("real"), 0644); err != nil {
		t.Fatalf("Failed to create test file: %v", err)
	}

	src := NewRealFS(tmpDir)
	if src.IsEmbedded() {
		t.Error("real source reported embedded")
	}
	files, err := src.Files(".toml")
	if err != nil || len(files) != 1 || files[0] != "Level.toml" {
		t.Fatalf("Files() = %v, %v", files, err)
	}
	data, err := src.ReadFile("level.toml")
	if err != nil || string(data) != "real" {
		t.Errorf("ReadFile = %q, %v", data, err)
	}
}
