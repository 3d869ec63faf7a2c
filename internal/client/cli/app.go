package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/dmitrijs2005/trackify/internal/server"
	"github.com/dmitrijs2005/trackify/internal/server/config"
	"github.com/dmitrijs2005/trackify/internal/server/models"
	"github.com/dmitrijs2005/trackify/internal/server/services"
)

const (
	commandTimeout = 15 * time.Second
	exportDir      = "exports"
)

type App struct {
	svc     services.Bundle
	session *models.Session
	reader  *bufio.Reader
	out     io.Writer
	now     func() time.Time
	close   func() error
}

// NewApp opens storage and builds the services from cfg.
func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	core, err := server.NewApp(ctx, cfg, nil)
	if err != nil {
		return nil, err
	}
	return newApp(core.Services(), bufio.NewReader(os.Stdin), os.Stdout, core.Close), nil
}

func newApp(svc services.Bundle, reader *bufio.Reader, out io.Writer, closeFn func() error) *App {
	return &App{
		svc:     svc,
		session: &models.Session{},
		reader:  reader,
		out:     out,
		now:     time.Now,
		close:   closeFn,
	}
}

func (a *App) isLoggedIn() bool {
	return a.session.IsAuthenticated()
}

func (a *App) getStatus() string {
	if !a.isLoggedIn() {
		return ""
	}
	return fmt.Sprintf("(%s)", a.session.UserName)
}

// Run blocks in the REPL until the user exits or input ends.
func (a *App) Run(ctx context.Context) {
	defer func() {
		if a.close != nil {
			_ = a.close()
		}
	}()

	fmt.Fprintln(a.out, "Welcome to Trackify CLI (type 'help' for commands)")
	runREPL(ctx, a.commands(), a.isLoggedIn, a.getStatus, a.reader, a.out)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}
