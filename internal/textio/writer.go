package textio

import (
	"bufio"
	"context"
	"os"
	"path/filepath"
	"strings"
)

// WriteAll 写出整个文档；path 为 "-" 时写 STDOUT，否则原子替换目标文件。
func WriteAll(ctx context.Context, path, text string) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	if path == "-" {
		bw := bufio.NewWriterSize(os.Stdout, defaultBuf)
		if _, err := bw.WriteString(text); err != nil {
			return err
		}
		return bw.Flush()
	}
	return writeAtomic(path, text)
}

// writeAtomic: 同目录临时文件 + fsync + 平台原子替换。
func writeAtomic(dest, text string) error {
	dir := filepath.Dir(dest)
	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()
	_ = os.Chmod(tmpPath, 0o644)

	bw := bufio.NewWriterSize(tmp, defaultBuf)
	if _, err := bw.WriteString(text); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := bw.Flush(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	if err := osReplace(tmpPath, dest); err != nil {
		_ = os.Remove(tmpPath)
		return err
	}
	// 最佳努力：在部分平台同步父目录，提升崩溃安全性
	_ = syncDir(dir)
	return nil
}

// SafeName: 从输出路径派生附属文件名（决策日志/报告）时的扩展替换。
func SafeName(path, ext string) string {
	if path == "" || path == "-" {
		return ""
	}
	base := strings.TrimSuffix(path, filepath.Ext(path))
	return base + ext
}
