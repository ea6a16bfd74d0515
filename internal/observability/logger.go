package observability

import (
	"fmt"
	"io"
	"strings"

	"github.com/apex/log"
	"github.com/apex/log/handlers/cli"
	"github.com/apex/log/handlers/json"
	"github.com/apex/log/handlers/text"
)

// NewLogger builds a logger writing to w. format is one of cli, text or json;
// level is an apex/log level name such as "info" or "debug".
func NewLogger(w io.Writer, level, format string) (*log.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	var h log.Handler
	switch strings.ToLower(format) {
	case "", "cli":
		h = cli.New(w)
	case "text":
		h = text.New(w)
	case "json":
		h = json.New(w)
	default:
		return nil, fmt.Errorf("unknown log format %q", format)
	}

	return &log.Logger{Handler: h, Level: lvl}, nil
}
