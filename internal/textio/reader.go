// Package textio 实现单文档的文件/STDIN 读取与原子写出。
// 写出使用同目录临时文件 + 平台原子替换，崩溃不留半成品。
package textio

import (
	"bufio"
	"context"
	"io"
	"os"
)

const defaultBuf = 64 * 1024

// ReadAll 读取整个文档；path 为 "-" 时读 STDIN。
func ReadAll(ctx context.Context, path string) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	default:
	}
	if path == "-" {
		b, err := io.ReadAll(readerWithCtx(ctx, bufio.NewReaderSize(os.Stdin, defaultBuf)))
		return string(b), err
	}
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	b, err := io.ReadAll(readerWithCtx(ctx, bufio.NewReaderSize(f, defaultBuf)))
	return string(b), err
}

// readerWithCtx: 在每次 Read 前检查 ctx 是否已取消。
func readerWithCtx(ctx context.Context, r io.Reader) io.Reader {
	return &ctxReader{ctx: ctx, r: r}
}

type ctxReader struct {
	ctx context.Context
	r   io.Reader
}

func (cr *ctxReader) Read(p []byte) (int, error) {
	select {
	case <-cr.ctx.Done():
		return 0, cr.ctx.Err()
	default:
	}
	return cr.r.Read(p)
}
