package diag

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

const (
	currentName = "spktag.log"
	// defaultMaxBytes: 单文档一遍跑产出的事件很少，2 MiB 足够容纳
	// 数百次调用的决策/审计日志。
	defaultMaxBytes = 2 * 1024 * 1024
	// maxRotated: 轮转文件保留上限，超出按时间戳从旧到新删除。
	maxRotated = 5
)

// RotatingFile 将日志行追加到 dir/spktag.log，超过 maxBytes 即轮转：
// 当前文件改名为 spktag-YYYYMMDD-HHMMSS.log，重开新文件，
// 并修剪旧轮转件到 maxRotated 个。
type RotatingFile struct {
	dir      string
	maxBytes int64

	mu   sync.Mutex
	f    *os.File
	size int64
}

func NewRotatingFile(dir string, maxBytes int64) *RotatingFile {
	if maxBytes <= 0 {
		maxBytes = defaultMaxBytes
	}
	return &RotatingFile{dir: dir, maxBytes: maxBytes}
}

func (w *RotatingFile) WriteLine(b []byte) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(); err != nil {
		return err
	}
	if w.size+int64(len(b))+1 > w.maxBytes {
		if err := w.rotate(); err != nil {
			return err
		}
	}
	n, err := w.f.Write(append(b, '\n'))
	w.size += int64(n)
	return err
}

func (w *RotatingFile) open() error {
	if w.f != nil {
		return nil
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}
	f, err := os.OpenFile(filepath.Join(w.dir, currentName), os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	w.f = f
	w.size = 0
	if st, err := f.Stat(); err == nil {
		w.size = st.Size()
	}
	return nil
}

func (w *RotatingFile) rotate() error {
	cur := w.f.Name()
	_ = w.f.Close()
	w.f = nil
	// 纳秒时间戳：同秒内两次轮转不互相覆盖
	ts := time.Now().UTC().Format("20060102-150405.000000000")
	if err := os.Rename(cur, filepath.Join(w.dir, fmt.Sprintf("spktag-%s.log", ts))); err != nil {
		return fmt.Errorf("rotate log: %w", err)
	}
	w.prune()
	return w.open()
}

// prune 删除最旧的轮转件，保留 maxRotated 个。失败静默：
// 修剪是卫生措施，不值得让一次日志写入失败。
func (w *RotatingFile) prune() {
	ents, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}
	var rotated []string
	for _, e := range ents {
		name := e.Name()
		if strings.HasPrefix(name, "spktag-") && strings.HasSuffix(name, ".log") {
			rotated = append(rotated, name)
		}
	}
	if len(rotated) <= maxRotated {
		return
	}
	sort.Strings(rotated) // 时间戳字典序即时间序
	for _, name := range rotated[:len(rotated)-maxRotated] {
		_ = os.Remove(filepath.Join(w.dir, name))
	}
}

func (w *RotatingFile) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}
