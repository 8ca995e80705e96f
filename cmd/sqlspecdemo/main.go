// Command sqlspecdemo is a smoke-test harness for the external hooks
// spec.md §6 describes (Registry, Loader, cache stats) — not the CLI named
// in spec.md's Non-goals, which is a separate, larger tool. This one is
// small enough to read top to bottom.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alecthomas/kong"
	"github.com/fatih/color"

	"github.com/sqlspec/sqlspec"
	"github.com/sqlspec/sqlspec/driver"
	_ "github.com/sqlspec/sqlspec/driver/sqlite"
	"github.com/sqlspec/sqlspec/sqlfile"
)

type cli struct {
	Config string `help:"Path to a SQLSpec YAML config file." default:"sqlspec.yaml"`

	Run struct {
		Database string `arg:"" help:"Configured database name to run against."`
		Queries  string `arg:"" help:"Directory of .sql files to load, containing '-- name:' sections."`
		Name     string `arg:"" help:"Name of the loaded statement to execute."`
	} `cmd:"" help:"Load a named query and execute it against a configured database."`

	Stats struct {
		Database string `arg:"" help:"Configured database name whose pool stats to print."`
	} `cmd:"" help:"Print a configured database's connection pool stats."`
}

func main() {
	var c cli

	ctx := kong.Parse(&c,
		kong.Name("sqlspecdemo"),
		kong.Description("Smoke-test harness for the SQLSpec Registry, Loader, and cache."),
	)

	cfg, err := sqlspec.LoadConfig(c.Config)
	if err != nil {
		fatal(err)
	}

	registry := sqlspec.NewRegistry(cfg)
	defer registry.CloseAll()

	switch ctx.Command() {
	case "run <database> <queries> <name>":
		runQuery(registry, c.Run.Database, c.Run.Queries, c.Run.Name)
	case "stats <database>":
		printStats(registry, c.Stats.Database)
	default:
		fatal(fmt.Errorf("unknown command %q", ctx.Command()))
	}
}

func runQuery(registry *sqlspec.Registry, database, queriesDir, name string) {
	loader := sqlfile.New(sqlfile.Options{})

	if err := loader.Load(queriesDir); err != nil {
		fatal(err)
	}

	stmt, err := loader.Get(name)
	if err != nil {
		fatal(err)
	}

	ctx := context.Background()

	conn, err := registry.Acquire(ctx, database)
	if err != nil {
		fatal(err)
	}
	defer conn.Release()

	session, ok := conn.(*driver.Session)
	if !ok {
		fatal(fmt.Errorf("connection for %q is not a driver.Session", database))
	}

	if _, err := session.Execute(ctx, stmt); err != nil {
		fatal(err)
	}

	color.Green("executed %q against %q", name, database)
}

func printStats(registry *sqlspec.Registry, database string) {
	pool, err := registry.Pool(database)
	if err != nil {
		fatal(err)
	}

	stats := pool.Stats()
	color.Cyan("pool %q: in_use=%d idle=%d max=%d", database, stats.InUse, stats.Idle, stats.Max)

	driverPool, ok := pool.(*driver.Pool)
	if !ok {
		return
	}

	cacheStats := driverPool.Cache().Stats()
	color.Cyan("cache %q: hits=%d misses=%d evictions=%d size=%d",
		database, cacheStats.Hits, cacheStats.Misses, cacheStats.Evictions, cacheStats.Size)
}

func fatal(err error) {
	color.Red("sqlspecdemo: %v", err)
	os.Exit(1)
}
