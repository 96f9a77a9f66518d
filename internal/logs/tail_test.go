package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"streampay/internal/logs"
)

func writeLog(t *testing.T, lines string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "streampay.log")
	if err := os.WriteFile(path, []byte(lines), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
	return path
}

func TestTailLastLines(t *testing.T) {
	path := writeLog(t, "one\ntwo\nthree\nfour\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 2})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"three", "four"}) {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
	if res.Offset == 0 {
		t.Fatal("expected end-of-file offset")
	}
}

func TestTailLimitLargerThanFile(t *testing.T) {
	path := writeLog(t, "only\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 10})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"only"}) {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
}

func TestTailFromOffsetReadsNewLines(t *testing.T) {
	path := writeLog(t, "first\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 0})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines with zero limit, got %v", res.Lines)
	}

	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open append: %v", err)
	}
	if _, err := f.WriteString("second\nthird\n"); err != nil {
		t.Fatalf("append: %v", err)
	}
	f.Close()

	res, err = logs.Tail(context.Background(), path, logs.Options{Offset: res.Offset})
	if err != nil {
		t.Fatalf("Tail from offset: %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"second", "third"}) {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
}

func TestTailMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.log")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 5})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 0 || res.Offset != 0 {
		t.Fatalf("expected empty result, got %+v", res)
	}
}

func TestTailOffsetPastEndClamps(t *testing.T) {
	path := writeLog(t, "line\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: 1 << 20})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	if len(res.Lines) != 0 {
		t.Fatalf("expected no lines past end, got %v", res.Lines)
	}
}

func TestTailFollowWaitsForAppend(t *testing.T) {
	path := writeLog(t, "existing\n")

	res, err := logs.Tail(context.Background(), path, logs.Options{Offset: -1, Limit: 0})
	if err != nil {
		t.Fatalf("Tail: %v", err)
	}
	offset := res.Offset

	done := make(chan struct{})
	go func() {
		defer close(done)
		time.Sleep(300 * time.Millisecond)
		f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			return
		}
		defer f.Close()
		_, _ = f.WriteString("fresh\n")
	}()

	res, err = logs.Tail(context.Background(), path, logs.Options{
		Offset: offset,
		Follow: true,
		Wait:   2 * time.Second,
	})
	<-done
	if err != nil {
		t.Fatalf("Tail follow: %v", err)
	}
	if !reflect.DeepEqual(res.Lines, []string{"fresh"}) {
		t.Fatalf("unexpected lines: %v", res.Lines)
	}
}
