// Command pgraph parses a single Python or Java source file (or, with
// -dir, walks a whole tree of them) and emits its program graph as
// GraphViz DOT.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/viant/afs"

	"github.com/gocodewalk/pgraph"
	"github.com/gocodewalk/pgraph/batch"
	"github.com/gocodewalk/pgraph/graph"
)

var (
	langFlag     = flag.String("lang", "", "source language: python or java (default: inferred from file extension)")
	dirFlag      = flag.Bool("dir", false, "treat the argument as a directory and walk it")
	analysesFlag = flag.String("analyses", "", "comma-separated analyses to run (default: ast,cfg,dataflow)")
	warnFlag     = flag.Bool("warn", false, "warn instead of abort on syntax errors")
	colorsFlag   = flag.String("colors", "", "path to a YAML edge-color map for DOT output")
)

func main() {
	flag.Usage = usage
	flag.Parse()
	if flag.NArg() != 1 {
		usage()
		os.Exit(2)
	}
	if err := run(flag.Arg(0)); err != nil {
		fmt.Fprintln(os.Stderr, "pgraph:", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintf(os.Stderr, "usage: %s [flags] <file|dir>\n\n", os.Args[0])
	flag.PrintDefaults()
}

func run(path string) error {
	colors, err := loadColors(*colorsFlag)
	if err != nil {
		return err
	}

	opts, err := buildOptions()
	if err != nil {
		return err
	}

	if *dirFlag {
		return runDir(path, opts, colors)
	}
	return runFile(path, opts, colors)
}

func runFile(path string, opts []pgraph.Option, colors graph.EdgeColors) error {
	lang, err := resolveLanguage(*langFlag, path)
	if err != nil {
		return err
	}
	code, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	g, err := pgraph.Build(code, lang, opts...)
	if err != nil {
		if _, ok := err.(*pgraph.SyntaxError); !ok || g == nil {
			return err
		}
		fmt.Fprintln(os.Stderr, "pgraph: warning:", err)
	}
	return g.ToDOT(os.Stdout, colors)
}

func runDir(path string, opts []pgraph.Option, colors graph.EdgeColors) error {
	lang, err := resolveLanguage(*langFlag, "")
	if err != nil {
		return fmt.Errorf("-dir requires an explicit -lang: %w", err)
	}
	res, err := batch.Walk(context.Background(), afs.New(), path, lang, batch.WithBuildOptions(opts...))
	if err != nil {
		return err
	}
	if res.Warnings != nil {
		fmt.Fprintln(os.Stderr, "pgraph: warnings:", res.Warnings)
	}
	for _, f := range res.Files {
		if f.Err != nil {
			fmt.Fprintf(os.Stderr, "pgraph: %s: %v\n", f.Path, f.Err)
			continue
		}
		fmt.Fprintf(os.Stdout, "// %s\n", f.Path)
		if err := f.Graph.ToDOT(os.Stdout, colors); err != nil {
			return err
		}
	}
	return nil
}

func resolveLanguage(flagVal, path string) (pgraph.Language, error) {
	switch flagVal {
	case "python":
		return pgraph.Python, nil
	case "java":
		return pgraph.Java, nil
	case "":
		switch {
		case len(path) > 3 && path[len(path)-3:] == ".py":
			return pgraph.Python, nil
		case len(path) > 5 && path[len(path)-5:] == ".java":
			return pgraph.Java, nil
		}
		return "", fmt.Errorf("cannot infer language, pass -lang")
	default:
		return "", fmt.Errorf("unknown -lang %q", flagVal)
	}
}

func buildOptions() ([]pgraph.Option, error) {
	var opts []pgraph.Option
	if *warnFlag {
		opts = append(opts, pgraph.WithSyntaxErrorPolicy(pgraph.PolicyWarn))
	}
	if *analysesFlag == "" {
		return opts, nil
	}
	var analyses []pgraph.Analysis
	start := 0
	for i := 0; i <= len(*analysesFlag); i++ {
		if i == len(*analysesFlag) || (*analysesFlag)[i] == ',' {
			if i > start {
				analyses = append(analyses, pgraph.Analysis((*analysesFlag)[start:i]))
			}
			start = i + 1
		}
	}
	return append(opts, pgraph.WithAnalyses(analyses...)), nil
}

func loadColors(path string) (graph.EdgeColors, error) {
	if path == "" {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return graph.LoadEdgeColors(f)
}
