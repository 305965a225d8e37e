package utils

import (
	"io"
	"log/slog"
	"os"
)

// ParseLevel は "debug" や "WARN" のような文字列をログレベルに変換します。解釈できない値は Info です。
func ParseLevel(s string) slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return slog.LevelInfo
	}
	return level
}

// NewLogHandler は level 以上を path に書き出すテキストハンドラを返します。
// path が空なら標準出力に書き出します。返り値の close でファイルを閉じます。
func NewLogHandler(level, path string) (slog.Handler, func() error, error) {
	var w io.Writer = os.Stdout
	closeFn := func() error { return nil }
	if path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, nil, err
		}
		w, closeFn = f, f.Close
	}
	return slog.NewTextHandler(w, &slog.HandlerOptions{Level: ParseLevel(level)}), closeFn, nil
}
