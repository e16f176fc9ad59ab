package env

import (
	"os"
	"path/filepath"
)

func WorkDir() (string, error) {
	userCacheDir, err := os.UserCacheDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(userCacheDir, ".avconf"), nil
}

// SourceDir returns the directory vendored library sources are checked
// out into, creating it with 0700 permissions if needed.
func SourceDir() (string, error) {
	return subDir("src")
}

// BuildDir returns the directory vendored build outputs are installed
// into, creating it with 0700 permissions if needed.
func BuildDir() (string, error) {
	return subDir("out")
}

func subDir(name string) (string, error) {
	workDir, err := WorkDir()
	if err != nil {
		return "", err
	}
	dir := filepath.Join(workDir, name)
	if err := os.MkdirAll(dir, 0700); err != nil {
		return "", err
	}
	return dir, nil
}
