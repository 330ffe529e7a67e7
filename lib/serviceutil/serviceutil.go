package serviceutil

import (
	"log/slog"
	"os"
)

// Fatal logs the error and exits, only for use at the edge of a command.
func Fatal(message string, err error) {
	slog.Error(message, "err", err.Error())
	os.Exit(1)
}
