// Package version хранит сведения о сборке, заполняемые через -ldflags.
package version

import (
	"fmt"
	"io"

	"go.uber.org/zap"
)

var (
	BuildVersion string
	BuildDate    string
	BuildCommit  string
)

// Fprint выводит информацию о сборке в w.
func Fprint(w io.Writer) {
	fmt.Fprintln(w, "Build version:", valueOrNA(BuildVersion))
	fmt.Fprintln(w, "Build date:", valueOrNA(BuildDate))
	fmt.Fprintln(w, "Build commit:", valueOrNA(BuildCommit))
}

// Fields сведения о сборке для логов.
func Fields() []zap.Field {
	return []zap.Field{
		zap.String("version", valueOrNA(BuildVersion)),
		zap.String("build_date", valueOrNA(BuildDate)),
		zap.String("commit", valueOrNA(BuildCommit)),
	}
}

func valueOrNA(v string) string {
	if v == "" {
		return "N/A"
	}
	return v
}
