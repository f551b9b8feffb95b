// Package memory is an in-process RowAppender used with the memory backend
// and in tests.
package memory

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"boutique/internal/sheets"
)

type Appender struct {
	mu   sync.Mutex
	tabs map[string][][]any
	// Err, when set, is returned by every AppendRow call.
	Err error
}

var (
	_ sheets.RowAppender  = (*Appender)(nil)
	_ sheets.HeaderWriter = (*Appender)(nil)
)

func New() *Appender {
	return &Appender{tabs: make(map[string][][]any)}
}

func (a *Appender) AppendRow(_ context.Context, sheet string, row []any) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.Err != nil {
		return "", a.Err
	}
	a.tabs[sheet] = append(a.tabs[sheet], slices.Clone(row))
	n := len(a.tabs[sheet])
	return fmt.Sprintf("%s!A%d", sheet, n), nil
}

func (a *Appender) EnsureHeader(_ context.Context, sheet string, header []any) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if len(a.tabs[sheet]) == 0 {
		a.tabs[sheet] = [][]any{slices.Clone(header)}
	}
	return nil
}

// Rows returns a copy of the rows of a tab, header included.
func (a *Appender) Rows(sheet string) [][]any {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([][]any, len(a.tabs[sheet]))
	for i, r := range a.tabs[sheet] {
		out[i] = slices.Clone(r)
	}
	return out
}
