package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/dvloznov/finance-assistant/internal/domain"
	"github.com/dvloznov/finance-assistant/internal/events"
	"github.com/dvloznov/finance-assistant/internal/report"
	"github.com/dvloznov/finance-assistant/internal/tools"
	"github.com/goccy/go-json"
	"github.com/google/subcommands"
)

var commands = []subcommands.Command{
	&chatCmd{},
	&intentCmd{},
	&goalsDueCmd{},
	&reportCmd{},
}

// --- chatCmd ---

type chatCmd struct {
	common commonFlags
}

func (*chatCmd) Name() string     { return "chat" }
func (*chatCmd) Synopsis() string { return "talk to the assistant in an interactive session" }
func (*chatCmd) Usage() string {
	return `chat [-env <file>] [-plain] [message...]

With a message, sends it once and prints the reply. Without one, reads a
message per line from stdin until EOF or "exit".
`
}
func (c *chatCmd) SetFlags(f *flag.FlagSet) { c.common.register(f) }

func (c *chatCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx, c.common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close(ctx)

	a, err := e.newAgent(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	if f.NArg() > 0 {
		reply := a.Handle(ctx, strings.Join(f.Args(), " "))
		e.printMarkdown(reply.Response + "\n")
		return subcommands.ExitSuccess
	}

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Fprint(os.Stderr, "> ")
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "exit" || line == "quit":
			return subcommands.ExitSuccess
		case line != "":
			reply := a.Handle(ctx, line)
			e.printMarkdown(reply.Response + "\n")
		}
		fmt.Fprint(os.Stderr, "> ")
	}
	if err := scanner.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "Error reading input: %v\n", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

// --- intentCmd ---

type intentCmd struct {
	common commonFlags
}

func (*intentCmd) Name() string     { return "intent" }
func (*intentCmd) Synopsis() string { return "print the resolved intent of a message as JSON" }
func (*intentCmd) Usage() string {
	return `intent [-env <file>] <message...>

Classifies the message without changing any data.
`
}
func (c *intentCmd) SetFlags(f *flag.FlagSet) { c.common.register(f) }

func (c *intentCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if f.NArg() == 0 {
		fmt.Fprintln(os.Stderr, "Error: a message is required.")
		return subcommands.ExitUsageError
	}
	e, err := openEnv(ctx, c.common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.closeFn()

	a, err := e.newAgent(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}

	res := a.ClassifyOnly(ctx, strings.Join(f.Args(), " "))
	data, err := json.MarshalIndent(res, "", "  ")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	fmt.Fprintln(e.out, string(data))
	return subcommands.ExitSuccess
}

// --- goalsDueCmd ---

type goalsDueCmd struct {
	common commonFlags
}

func (*goalsDueCmd) Name() string     { return "goals-due" }
func (*goalsDueCmd) Synopsis() string { return "check for goals due soon or recently overdue" }
func (*goalsDueCmd) Usage() string {
	return `goals-due [-env <file>] [-plain]

Runs the goal due check, records a notification per goal in the window and
prints them.
`
}
func (c *goalsDueCmd) SetFlags(f *flag.FlagSet) { c.common.register(f) }

func (c *goalsDueCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx, c.common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.close(ctx)

	alerts, failed := collect(e.svc.CheckGoalsDue(ctx))
	e.printAlerts("Goals due", alerts)
	if failed {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

func collect(outcomes []events.Outcome) ([]domain.Alert, bool) {
	var alerts []domain.Alert
	failed := false
	for _, o := range outcomes {
		if o.Err != nil {
			fmt.Fprintf(os.Stderr, "Error: %s: %v\n", o.Handler, o.Err)
			failed = true
			continue
		}
		alerts = append(alerts, o.Result.Alerts...)
	}
	return alerts, failed
}

// --- reportCmd ---

type reportCmd struct {
	common commonFlags
}

func (*reportCmd) Name() string     { return "report" }
func (*reportCmd) Synopsis() string { return "print a summary of balances, budgets and goals" }
func (*reportCmd) Usage() string {
	return `report [-env <file>] [-plain]
`
}
func (c *reportCmd) SetFlags(f *flag.FlagSet) { c.common.register(f) }

func (c *reportCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, err := openEnv(ctx, c.common)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	defer e.closeFn()

	rep, err := report.Build(ctx, e.svc, tools.NewRegistry(e.svc))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return subcommands.ExitFailure
	}
	e.printMarkdown(report.Markdown(rep))
	return subcommands.ExitSuccess
}
