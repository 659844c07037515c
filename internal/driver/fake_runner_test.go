package driver

import (
	"context"
	"errors"
	"strings"
)

// fakeRunner records invocations and answers from a table keyed by
// "name arg0 arg1...". Unknown commands fail.
type fakeRunner struct {
	calls     []string
	responses map[string]string
	failures  map[string]string
}

func newFakeRunner() *fakeRunner {
	return &fakeRunner{responses: map[string]string{}, failures: map[string]string{}}
}

func (f *fakeRunner) Run(_ context.Context, name string, args ...string) (string, error) {
	key := strings.TrimSpace(name + " " + strings.Join(args, " "))
	f.calls = append(f.calls, key)

	for prefix, msg := range f.failures {
		if strings.HasPrefix(key, prefix) {
			return "", errors.New(msg)
		}
	}
	for prefix, out := range f.responses {
		if strings.HasPrefix(key, prefix) {
			return out, nil
		}
	}
	return "", nil
}
