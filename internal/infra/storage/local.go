package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// 開発用のローカルディスク実装。
type LocalStorage struct {
	baseDir string
}

func NewLocalStorage(baseDir string) *LocalStorage {
	return &LocalStorage{baseDir: baseDir}
}

// キーのパストラバーサルを防いだ上でbaseDir配下に解決する
func (s *LocalStorage) resolve(key string) string {
	clean := filepath.Clean("/" + strings.ReplaceAll(key, "\\", "/"))
	return filepath.Join(s.baseDir, clean)
}

func (s *LocalStorage) Store(_ context.Context, key string, data []byte, _ string) (string, error) {
	path := s.resolve(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", err
	}
	return path, nil
}

func (s *LocalStorage) Open(_ context.Context, key string) (io.ReadCloser, error) {
	f, err := os.Open(s.resolve(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrFileNotFound
		}
		return nil, err
	}
	return f, nil
}

func (s *LocalStorage) Delete(_ context.Context, key string) error {
	err := os.Remove(s.resolve(key))
	if err != nil && !os.IsNotExist(err) {
		return err
	}
	return nil
}
