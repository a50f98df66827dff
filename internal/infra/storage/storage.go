package storage

import (
	"context"
	"errors"
	"io"
)

// ファイルが無いを統一
var ErrFileNotFound = errors.New("file not found")

// 証憑画像・書籍PDFの保管の約束。
// Storeは公開URL（またはローカルパス）を返すが、取得はキーで行う。
type FileStorage interface {
	Store(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}
