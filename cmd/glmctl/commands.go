package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/google/subcommands"

	"github.com/goloanme/backend/internal/models"
)

func commands(env *cliEnv) []subcommands.Command {
	return []subcommands.Command{
		&migrateCmd{env: env},
		&balanceCmd{env: env},
		&entriesCmd{env: env},
		&fundCmd{env: env},
		&transferCmd{env: env},
	}
}

func fail(err error) subcommands.ExitStatus {
	fmt.Fprintln(os.Stderr, err)
	return subcommands.ExitFailure
}

func (e *cliEnv) printJSON(v any) error {
	enc := json.NewEncoder(e.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type migrateCmd struct {
	env *cliEnv
}

func (*migrateCmd) Name() string     { return "migrate" }
func (*migrateCmd) Synopsis() string { return "create or update the ledger schema" }
func (*migrateCmd) Usage() string {
	return `glmctl migrate

  Applies the ledger schema. Safe to run repeatedly.
`
}
func (*migrateCmd) SetFlags(*flag.FlagSet) {}

func (c *migrateCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	_, st, err := c.env.open(ctx)
	if err != nil {
		return fail(err)
	}
	if err := st.Migrate(ctx); err != nil {
		return fail(err)
	}
	fmt.Fprintln(c.env.out, "schema up to date")
	return subcommands.ExitSuccess
}

type balanceCmd struct {
	env   *cliEnv
	kind  string
	owner string
}

func (*balanceCmd) Name() string     { return "balance" }
func (*balanceCmd) Synopsis() string { return "show an owner's balance and check it against the entries" }
func (*balanceCmd) Usage() string {
	return `glmctl balance -kind <user|post> -owner <id>
`
}

func (c *balanceCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", string(models.OwnerUser), "owner kind (user or post)")
	f.StringVar(&c.owner, "owner", "", "owner id")
}

func (c *balanceCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.owner == "" {
		return fail(fmt.Errorf("-owner is required"))
	}
	ledger, _, err := c.env.open(ctx)
	if err != nil {
		return fail(err)
	}

	kind := models.OwnerKind(c.kind)
	account, err := ledger.FindAccount(ctx, kind, c.owner)
	if err != nil {
		return fail(err)
	}

	check, err := ledger.VerifyAccount(ctx, account.ID)
	if err != nil {
		return fail(err)
	}
	if err := c.env.printJSON(check); err != nil {
		return fail(err)
	}
	if !check.Consistent {
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}

type entriesCmd struct {
	env     *cliEnv
	account string
	limit   int
	cursor  string
}

func (*entriesCmd) Name() string     { return "entries" }
func (*entriesCmd) Synopsis() string { return "list an account's ledger entries, newest first" }
func (*entriesCmd) Usage() string {
	return `glmctl entries -account <id> [-limit n] [-cursor <entry id>]
`
}

func (c *entriesCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.account, "account", "", "account id")
	f.IntVar(&c.limit, "limit", 0, "page size (default from config)")
	f.StringVar(&c.cursor, "cursor", "", "nextCursor of the previous page")
}

func (c *entriesCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.account == "" {
		return fail(fmt.Errorf("-account is required"))
	}
	ledger, _, err := c.env.open(ctx)
	if err != nil {
		return fail(err)
	}
	page, err := ledger.ListEntries(ctx, c.account, c.limit, c.cursor)
	if err != nil {
		return fail(err)
	}
	if err := c.env.printJSON(page); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type fundCmd struct {
	env    *cliEnv
	kind   string
	owner  string
	amount int64
	note   string
}

func (*fundCmd) Name() string     { return "fund" }
func (*fundCmd) Synopsis() string { return "credit GLM to an owner's account" }
func (*fundCmd) Usage() string {
	return `glmctl fund -kind <user|post> -owner <id> -amount <n> [-note <text>]
`
}

func (c *fundCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.kind, "kind", string(models.OwnerUser), "owner kind (user or post)")
	f.StringVar(&c.owner, "owner", "", "owner id")
	f.Int64Var(&c.amount, "amount", 0, "amount in GLM")
	f.StringVar(&c.note, "note", "operator funding", "audit note")
}

func (c *fundCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	ledger, _, err := c.env.open(ctx)
	if err != nil {
		return fail(err)
	}
	entry, err := ledger.Fund(ctx, models.OwnerKind(c.kind), c.owner, c.amount, actor(), c.note)
	if err != nil {
		return fail(err)
	}
	if err := c.env.printJSON(entry); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}

type transferCmd struct {
	env    *cliEnv
	from   string
	to     string
	amount int64
	note   string
}

func (*transferCmd) Name() string     { return "transfer" }
func (*transferCmd) Synopsis() string { return "move GLM between two accounts" }
func (*transferCmd) Usage() string {
	return `glmctl transfer -from <account id> -to <account id> -amount <n> -note <text>
`
}

func (c *transferCmd) SetFlags(f *flag.FlagSet) {
	f.StringVar(&c.from, "from", "", "source account id")
	f.StringVar(&c.to, "to", "", "destination account id")
	f.Int64Var(&c.amount, "amount", 0, "amount in GLM")
	f.StringVar(&c.note, "note", "", "audit note")
}

func (c *transferCmd) Execute(ctx context.Context, _ *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.note == "" {
		return fail(fmt.Errorf("-note is required"))
	}
	ledger, _, err := c.env.open(ctx)
	if err != nil {
		return fail(err)
	}
	refID, entries, err := ledger.AdminTransfer(ctx, actor(), c.from, c.to, c.amount, c.note)
	if err != nil {
		return fail(err)
	}
	if err := c.env.printJSON(map[string]any{"refId": refID, "entries": entries}); err != nil {
		return fail(err)
	}
	return subcommands.ExitSuccess
}
