// Command reinplace runs the re-inplacing pass over one or more
// serialized graph files and reports what it rewrote. Each file is an
// independent graph: §5 of the pass itself stays single-threaded and
// sequential, but this front-end fans independent files out to a
// bounded worker pool with golang.org/x/sync/errgroup, the same way
// the pack's CLIs parallelize across independent units of work rather
// than within one.
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/pflag"
	"golang.org/x/mod/modfile"
	"golang.org/x/sync/errgroup"

	"github.com/tensorir/reinplace/internal/obslog"
	"github.com/tensorir/reinplace/internal/passconfig"
	"github.com/tensorir/reinplace/opset"
	"github.com/tensorir/reinplace/reinplace"
	"github.com/tensorir/reinplace/symbolic"
)

func main() {
	os.Exit(run(os.Args[1:]))
}

func run(argv []string) int {
	fs := pflag.NewFlagSet("reinplace", pflag.ContinueOnError)
	cfg := passconfig.Default()
	cfg.RegisterFlags(fs)
	reportFormat := fs.String("report", "text", `report format: "text", "md", or "html"`)
	jobs := fs.Int("jobs", 4, "maximum number of graph files processed concurrently")

	if err := fs.Parse(argv); err != nil {
		if err == pflag.ErrHelp {
			return 0
		}
		fmt.Fprintln(os.Stderr, err)
		return 2
	}
	paths := fs.Args()
	if len(paths) == 0 {
		fmt.Fprintln(os.Stderr, "usage: reinplace [flags] graph.json [graph.json...]")
		fs.PrintDefaults()
		return 2
	}

	if path, modPath, err := nearestModulePath(); err == nil {
		fmt.Fprintf(os.Stderr, "reinplace: running against module %s (%s)\n", modPath, path)
	}

	logger, err := obslog.New(cfg.Verbose)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reinplace: building logger:", err)
		return 1
	}
	defer logger.Sync()

	reports := processAll(paths, *jobs, cfg, logger)

	out, err := renderReport(reports, *reportFormat)
	if err != nil {
		fmt.Fprintln(os.Stderr, "reinplace:", err)
		return 1
	}
	fmt.Print(out)

	for _, r := range reports {
		if r.Err != nil {
			return 1
		}
	}
	return 0
}

// processAll runs one pass invocation per path, at most jobs at a
// time, and returns reports in the same order as paths regardless of
// completion order.
func processAll(paths []string, jobs int, cfg *passconfig.Config, logger *obslog.Logger) []fileReport {
	reports := make([]fileReport, len(paths))
	reg := opset.StandardRegistry() // read-only once built; safe to share across workers

	var g errgroup.Group
	g.SetLimit(jobs)
	for i, path := range paths {
		i, path := i, path
		g.Go(func() error {
			reports[i] = processOne(path, reg, cfg, logger)
			return nil
		})
	}
	g.Wait() // processOne never returns an error here: failures are recorded per-report
	return reports
}

// defaultEvaluator returns a fresh symbolic.Evaluator preloaded with
// the same fixed shape-rule set opset.StandardRegistry's schemas
// describe. A fresh instance per file keeps each worker's evaluator
// un-shared, even though NewEvaluator's shape rules carry no mutable
// state of their own.
func defaultEvaluator() *symbolic.Evaluator {
	return symbolic.NewEvaluator()
}

func processOne(path string, reg *opset.Registry, cfg *passconfig.Config, logger *obslog.Logger) fileReport {
	g, samples, err := loadGraphFile(path, reg)
	if err != nil {
		return fileReport{Path: path, Err: err}
	}
	ev := defaultEvaluator()
	out, decisions, err := reinplace.ReinplaceWithOptions(g, reg, ev, samples, logger, cfg.DisableViewInverse)
	if err != nil {
		return fileReport{Path: path, Err: err, Decisions: decisions}
	}
	return fileReport{Path: path, NodesAfter: len(out.Nodes), Decisions: decisions}
}

func renderReport(reports []fileReport, format string) (string, error) {
	switch format {
	case "text":
		var sb strings.Builder
		renderText(&sb, reports)
		return sb.String(), nil
	case "md":
		return renderMarkdown(reports), nil
	case "html":
		return renderHTML(reports)
	default:
		return "", fmt.Errorf("unknown -report format %q", format)
	}
}

// nearestModulePath walks up from the working directory looking for a
// go.mod, parsing it with golang.org/x/mod/modfile purely to print the
// enclosing module's path as a diagnostic.
func nearestModulePath() (path, modPath string, err error) {
	dir, err := os.Getwd()
	if err != nil {
		return "", "", err
	}
	for {
		candidate := filepath.Join(dir, "go.mod")
		data, readErr := os.ReadFile(candidate)
		if readErr == nil {
			f, parseErr := modfile.Parse(candidate, data, nil)
			if parseErr != nil {
				return "", "", parseErr
			}
			return candidate, f.Module.Mod.Path, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", "", fmt.Errorf("no go.mod found above %s", dir)
		}
		dir = parent
	}
}
