package cli

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/dmitrijs2005/trackify/internal/common"
	"github.com/stretchr/testify/assert"
)

type fakeCommands struct {
	loggedIn bool
	calls    []string
	args     [][]string
}

func (f *fakeCommands) table() map[string]command {
	rec := func(name string, auth bool, after func()) command {
		return command{help: name, auth: auth, run: func(_ context.Context, args []string) error {
			f.calls = append(f.calls, name)
			f.args = append(f.args, args)
			if after != nil {
				after()
			}
			return nil
		}}
	}
	return map[string]command{
		"login":   rec("login", false, func() { f.loggedIn = true }),
		"deposit": rec("deposit", true, nil),
		"logout":  rec("logout", true, func() { f.loggedIn = false }),
		"broken": {auth: false, run: func(context.Context, []string) error {
			return errors.New("kaput")
		}},
	}
}

func runScript(f *fakeCommands, lines ...string) string {
	var out bytes.Buffer
	reader := bufio.NewReader(strings.NewReader(strings.Join(lines, "\n") + "\n"))
	runREPL(context.Background(), f.table(), func() bool { return f.loggedIn }, func() string { return "" }, reader, &out)
	return out.String()
}

func TestRunREPL_LoginFlowAndCommands(t *testing.T) {
	f := &fakeCommands{}

	out := runScript(f,
		"deposit 5",
		"login",
		"",
		"DEPOSIT 10 extra",
		"logout",
		"exit",
		"login",
	)

	assert.Equal(t, []string{"login", "deposit", "logout"}, f.calls)
	assert.Equal(t, []string{"10", "extra"}, f.args[1])
	assert.Contains(t, out, "Please login first.")
	assert.Contains(t, out, "Bye!")
}

func TestRunREPL_UnknownAndFailingCommands(t *testing.T) {
	f := &fakeCommands{}

	out := runScript(f, "frobnicate", "broken", "quit")

	assert.Contains(t, out, "Unknown command: frobnicate")
	assert.Contains(t, out, "Error: kaput")
	assert.Empty(t, f.calls)
}

func TestRunREPL_StopsAtEOF(t *testing.T) {
	f := &fakeCommands{}
	var out bytes.Buffer

	runREPL(context.Background(), f.table(), func() bool { return false }, func() string { return "" },
		bufio.NewReader(strings.NewReader("login")), &out)

	assert.Equal(t, []string{"login"}, f.calls)
}

func TestRunREPL_HelpDependsOnSession(t *testing.T) {
	f := &fakeCommands{}

	out := runScript(f, "help", "quit")
	assert.Contains(t, out, "login")
	assert.NotContains(t, out, "deposit")

	f.loggedIn = true
	out = runScript(f, "help", "quit")
	assert.Contains(t, out, "deposit")
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "insufficient balance", describe(common.ErrorInsufficientBalance))
	assert.Equal(t, "invalid credentials or session", describe(common.ErrorUnauthorized))
	assert.Equal(t, "timed out", describe(context.DeadlineExceeded))
	assert.Equal(t, "boom", describe(errors.New("boom")))
}
