package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/dmitrijs2005/trackify/internal/common"
)

// command is one REPL verb. Commands with auth set are refused until a
// user has logged in.
type command struct {
	help string
	auth bool
	run  func(ctx context.Context, args []string) error
}

func (a *App) commands() map[string]command {
	return map[string]command{
		"register":    {help: "create an account", run: a.Register},
		"login":       {help: "sign in", run: a.Login},
		"logout":      {help: "sign out", auth: true, run: a.Logout},
		"whoami":      {help: "show the signed-in account", auth: true, run: a.WhoAmI},
		"balance":     {help: "show balance and recent wallet actions", auth: true, run: a.Balance},
		"deposit":     {help: "deposit [amount]", auth: true, run: a.Deposit},
		"withdraw":    {help: "withdraw [amount]", auth: true, run: a.Withdraw},
		"record":      {help: "record a sale", auth: true, run: a.Record},
		"list":        {help: "list transactions", auth: true, run: a.List},
		"delete":      {help: "delete [transaction id]", auth: true, run: a.Delete},
		"reconcile":   {help: "compare balance with the ledger", auth: true, run: a.Reconcile},
		"products":    {help: "list products", auth: true, run: a.Products},
		"addproduct":  {help: "add a product", auth: true, run: a.AddProduct},
		"product":     {help: "product [id|name]", auth: true, run: a.Product},
		"editproduct": {help: "editproduct [id|name]", auth: true, run: a.EditProduct},
		"stock":       {help: "stock [id|name] [n|+n|-n]", auth: true, run: a.Stock},
		"delproduct":  {help: "delproduct [id|name]", auth: true, run: a.DeleteProduct},
		"buy":         {help: "buy [product] [quantity]", auth: true, run: a.Buy},
		"convert":     {help: "convert [usd amount]", run: a.Convert},
		"summary":     {help: "revenue, cost and profit KPIs", auth: true, run: a.Summary},
		"export":      {help: "export [file.csv|all]", auth: true, run: a.Export},
		"statement":   {help: "statement [file.pdf]", auth: true, run: a.Statement},
		"archive":     {help: "archive [csv|pdf] to object storage", auth: true, run: a.Archive},
	}
}

// runREPL reads one line at a time, parses the first token as the command
// and dispatches it with a per-command timeout. Errors are printed and the
// loop goes on. It returns on EOF or on "exit" / "quit".
func runREPL(ctx context.Context, cmds map[string]command, loggedIn func() bool, statusFn func() string, reader *bufio.Reader, w io.Writer) {
	for {
		fmt.Fprintf(w, "trackify %s> ", statusFn())
		line, err := reader.ReadString('\n')
		if err != nil && (line == "" || !errors.Is(err, io.EOF)) {
			return
		}

		parts := strings.Fields(line)
		if len(parts) == 0 {
			continue
		}
		name, args := strings.ToLower(parts[0]), parts[1:]

		switch name {
		case "exit", "quit":
			fmt.Fprintln(w, "Bye!")
			return
		case "help":
			printHelp(w, cmds, loggedIn())
			continue
		}

		cmd, ok := cmds[name]
		if !ok {
			fmt.Fprintln(w, "Unknown command:", name)
			continue
		}
		if cmd.auth && !loggedIn() {
			fmt.Fprintln(w, "Please login first.")
			continue
		}

		cctx, cancel := context.WithTimeout(ctx, commandTimeout)
		err = cmd.run(cctx, args)
		cancel()
		if err != nil {
			fmt.Fprintln(w, "Error:", describe(err))
		}
	}
}

func printHelp(w io.Writer, cmds map[string]command, loggedIn bool) {
	names := make([]string, 0, len(cmds))
	for n, c := range cmds {
		if !c.auth || loggedIn {
			names = append(names, n)
		}
	}
	sort.Strings(names)

	fmt.Fprintln(w, "Available commands:")
	for _, n := range names {
		fmt.Fprintf(w, "  %-12s %s\n", n, cmds[n].help)
	}
	fmt.Fprintf(w, "  %-12s %s\n", "exit", "leave the program")
}

// describe turns service errors into short user-facing text.
func describe(err error) string {
	switch {
	case errors.Is(err, common.ErrorUnauthorized):
		return "invalid credentials or session"
	case errors.Is(err, common.ErrorInsufficientBalance):
		return "insufficient balance"
	case errors.Is(err, common.ErrorNotFound):
		return "not found"
	case errors.Is(err, common.ErrorAlreadyExists):
		return "already exists"
	case errors.Is(err, context.DeadlineExceeded):
		return "timed out"
	}
	return err.Error()
}
