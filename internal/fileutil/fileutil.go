package fileutil

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"os"
)

// ProgressFunc receives the number of bytes copied so far and the total size.
type ProgressFunc func(written, total int64)

// CopyFileVerified streams src to dst with SHA256 + size integrity
// verification. The copy stops when ctx is cancelled. dst is removed on
// mismatch or cancellation.
func CopyFileVerified(ctx context.Context, src, dst string, progress ProgressFunc) error {
	srcInfo, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("stat source: %w", err)
	}
	srcSize := srcInfo.Size()

	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer func() {
		_ = out.Close()
	}()

	srcHasher := sha256.New()
	dstHasher := sha256.New()
	tee := io.TeeReader(in, srcHasher)
	counter := &countingWriter{ctx: ctx, total: srcSize, progress: progress}
	multi := io.MultiWriter(out, dstHasher, counter)

	written, err := io.Copy(multi, tee)
	if err != nil {
		_ = out.Close()
		_ = os.Remove(dst)
		return err
	}
	if err := out.Close(); err != nil {
		return err
	}

	if written != srcSize {
		_ = os.Remove(dst)
		return fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", srcSize, written)
	}

	if !bytes.Equal(srcHasher.Sum(nil), dstHasher.Sum(nil)) {
		_ = os.Remove(dst)
		return fmt.Errorf("copy hash mismatch: file corrupted during copy")
	}

	return nil
}

// Size returns the size of the regular file at path, or -1 when it does
// not exist or is not a regular file.
func Size(path string) int64 {
	info, err := os.Stat(path)
	if err != nil || !info.Mode().IsRegular() {
		return -1
	}
	return info.Size()
}

// RemoveIfSmaller deletes path when it is a regular file below limit bytes.
// It reports whether a file was removed.
func RemoveIfSmaller(path string, limit int64) bool {
	size := Size(path)
	if size < 0 || size >= limit {
		return false
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return false
	}
	return true
}

type countingWriter struct {
	ctx      context.Context
	written  int64
	total    int64
	progress ProgressFunc
}

func (w *countingWriter) Write(p []byte) (int, error) {
	if w.ctx != nil {
		if err := w.ctx.Err(); err != nil {
			return 0, err
		}
	}
	w.written += int64(len(p))
	if w.progress != nil {
		w.progress(w.written, w.total)
	}
	return len(p), nil
}
