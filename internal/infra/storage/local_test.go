package storage_test

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"bookstore/internal/infra/storage"

	"github.com/stretchr/testify/assert"
)

func TestLocalStorage_StoreOpenDelete(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := storage.NewLocalStorage(dir)

	url, err := s.Store(ctx, "books/abc.pdf", []byte("%PDF fake"), "application/pdf")
	assert.NoError(t, err)
	assert.NotEmpty(t, url)

	rc, err := s.Open(ctx, "books/abc.pdf")
	assert.NoError(t, err)
	data, err := io.ReadAll(rc)
	assert.NoError(t, err)
	rc.Close()
	assert.Equal(t, []byte("%PDF fake"), data)

	assert.NoError(t, s.Delete(ctx, "books/abc.pdf"))

	_, err = s.Open(ctx, "books/abc.pdf")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestLocalStorage_OpenMissing(t *testing.T) {
	s := storage.NewLocalStorage(t.TempDir())

	_, err := s.Open(context.Background(), "nope.pdf")
	assert.ErrorIs(t, err, storage.ErrFileNotFound)
}

func TestLocalStorage_DeleteMissingIsNoop(t *testing.T) {
	s := storage.NewLocalStorage(t.TempDir())
	assert.NoError(t, s.Delete(context.Background(), "nope.pdf"))
}

func TestLocalStorage_PathTraversalStaysInBaseDir(t *testing.T) {
	ctx := context.Background()
	dir := t.TempDir()
	s := storage.NewLocalStorage(dir)

	//baseDirの外に出ようとするキー
	_, err := s.Store(ctx, "../../etc/evil.txt", []byte("x"), "text/plain")
	assert.NoError(t, err)

	//素直にjoinした場合の行き先には書かれていない
	_, statErr := os.Stat(filepath.Clean(filepath.Join(dir, "../../etc/evil.txt")))
	assert.True(t, os.IsNotExist(statErr))

	//baseDir配下に解決されている
	_, statErr = os.Stat(filepath.Join(dir, "etc", "evil.txt"))
	assert.NoError(t, statErr)

	rc, err := s.Open(ctx, "../../etc/evil.txt")
	assert.NoError(t, err)
	rc.Close()
}
