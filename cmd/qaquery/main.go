// Command qaquery loads a directory of Markdown study guides and prints the
// sections matching a query.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/alecthomas/kong"

	"github.com/dgallion1/qaindex/internal/corpus"
	"github.com/dgallion1/qaindex/internal/index"
	"github.com/dgallion1/qaindex/internal/loader"
	"github.com/dgallion1/qaindex/internal/parser"
)

// QueryCmd is the qaquery command line.
type QueryCmd struct {
	Dir        string   `short:"d" required:"" env:"CORPUS_DIR" help:"Corpus directory" type:"existingdir"`
	Mode       string   `short:"m" default:"any" enum:"any,all" help:"Match sections containing any or all query words"`
	Limit      int      `short:"n" default:"10" help:"Maximum number of results (0 for no limit)"`
	MaxLevel   int      `name:"max-level" default:"6" help:"Deepest heading level that starts a section"`
	Extensions []string `name:"ext" default:".md,.markdown" help:"File extensions to load"`
	Warnings   bool     `short:"w" help:"Print load warnings"`
	JSON       bool     `name:"json" help:"Print results as JSON"`
	Verbose    bool     `short:"v" help:"Enable debug logging"`

	Query []string `arg:"" optional:"" help:"Query words"`
}

// Run loads the corpus and writes results to out.
func (c *QueryCmd) Run(out io.Writer) error {
	level := slog.LevelWarn
	if c.Verbose {
		level = slog.LevelDebug
	}
	log := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	mode, err := index.ParseMode(c.Mode)
	if err != nil {
		return err
	}

	qc := corpus.New(parser.NewMarkdownParser(c.MaxLevel), loader.New(c.Extensions, 0), log, nil)
	report, err := qc.Load(context.Background(), c.Dir)
	if err != nil {
		return err
	}

	if c.Warnings {
		for _, w := range report.Warnings {
			fmt.Fprintf(out, "warning: %s\n", w)
		}
	}

	results := qc.Query(strings.Join(c.Query, " "), mode, c.Limit)
	if c.JSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(results)
	}
	printResults(out, results)
	return nil
}

func printResults(out io.Writer, results []corpus.Result) {
	if len(results) == 0 {
		fmt.Fprintln(out, "no matches")
		return
	}
	for _, r := range results {
		heading := r.Heading
		if len(r.Breadcrumb) > 0 {
			heading = strings.Join(r.Breadcrumb, " > ") + " > " + heading
		}
		flag := ""
		if r.Malformed {
			flag = " [malformed]"
		}
		fmt.Fprintf(out, "%d  %s:%d  %s%s\n", r.Score, r.Path, r.Line, heading, flag)
	}
}

func main() {
	var cli QueryCmd
	ctx := kong.Parse(&cli,
		kong.Name("qaquery"),
		kong.Description("Search a directory of Markdown question banks"),
		kong.UsageOnError(),
		kong.ConfigureHelp(kong.HelpOptions{
			Compact: true,
		}),
		kong.BindTo(os.Stdout, (*io.Writer)(nil)),
	)
	err := ctx.Run()
	ctx.FatalIfErrorf(err)
}
