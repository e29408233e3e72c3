package postgres

import (
	"log/slog"
	"os"
	"regexp"

	"github.com/pashagolub/pgxmock/v3"
)

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func quoted(sql string) string {
	return regexp.QuoteMeta(sql)
}

func strPtr(s string) *string {
	return &s
}

func anyArgs(n int) []interface{} {
	args := make([]interface{}, n)
	for i := range args {
		args[i] = pgxmock.AnyArg()
	}
	return args
}
