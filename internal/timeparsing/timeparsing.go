// Package timeparsing resolves user-supplied date expressions, natural
// language included, to calendar dates for the CLI.
package timeparsing

import (
	"fmt"
	"strings"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
)

var parser = func() *when.Parser {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)
	return w
}()

// ParseDate resolves an expression like "2026-08-26", "yesterday", or "last
// friday" to a YYYY-MM-DD string relative to now. Empty input means today.
func ParseDate(expr string, now time.Time) (string, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return now.UTC().Format("2006-01-02"), nil
	}
	if t, err := time.Parse("2006-01-02", expr); err == nil {
		return t.Format("2006-01-02"), nil
	}
	result, err := parser.Parse(expr, now)
	if err != nil {
		return "", fmt.Errorf("parse date %q: %w", expr, err)
	}
	if result == nil {
		return "", fmt.Errorf("unrecognized date expression %q", expr)
	}
	return result.Time.UTC().Format("2006-01-02"), nil
}
