package integration

import (
	"context"
	"io"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
)

func discardTestLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

// fakeCompleter returns canned answers and records the prompts it saw.
type fakeCompleter struct {
	mu        sync.Mutex
	answer    string
	err       error
	prompts   []string
	maxTokens []int
}

func (f *fakeCompleter) Complete(_ context.Context, prompt string, maxTokens int) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prompts = append(f.prompts, prompt)
	f.maxTokens = append(f.maxTokens, maxTokens)
	return f.answer, f.err
}

func (f *fakeCompleter) lastPrompt() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.prompts) == 0 {
		return ""
	}
	return f.prompts[len(f.prompts)-1]
}

func containsAll(s string, parts ...string) (string, bool) {
	for _, p := range parts {
		if !strings.Contains(s, p) {
			return p, false
		}
	}
	return "", true
}
