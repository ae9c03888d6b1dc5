package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/query"
	"github.com/danielpatrickdp/railpath/internal/railpf"
)

// #region main

func main() {
	layoutPath := flag.String("layout", "", "path to layout JSON")
	queryPath := flag.String("query", "-", "path to query JSON, - for stdin")
	forbid90 := flag.Bool("forbid90", false, "forbid 90 degree turns")
	jsonOut := flag.Bool("json", false, "output as JSON instead of table")
	flag.Parse()

	if *layoutPath == "" {
		fmt.Fprintln(os.Stderr, "usage: findpath --layout path/to/layout.json [--query path/to/query.json] [--forbid90] [--json]")
		os.Exit(2)
	}

	resp, err := run(*layoutPath, *queryPath, *forbid90)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(2)
	}
	if *jsonOut {
		if err := printJSON(resp); err != nil {
			fmt.Fprintf(os.Stderr, "error: %v\n", err)
			os.Exit(2)
		}
	} else {
		printSteps(resp)
	}
	if !resp.Found {
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(layoutPath, queryPath string, forbid90 bool) (query.Response, error) {
	net, err := layout.LoadFile(layoutPath)
	if err != nil {
		return query.Response{}, err
	}

	var r io.Reader = os.Stdin
	if queryPath != "-" {
		f, err := os.Open(queryPath)
		if err != nil {
			return query.Response{}, fmt.Errorf("open query: %w", err)
		}
		defer f.Close()
		r = f
	}
	var q query.Request
	if err := json.NewDecoder(r).Decode(&q); err != nil {
		return query.Response{}, fmt.Errorf("parse query: %w", err)
	}

	cfg := railpf.DefaultConfig()
	cfg.Forbid90 = forbid90
	req, err := q.Resolve(net, cfg.Forbid90)
	if err != nil {
		return query.Response{}, err
	}
	return query.NewResponse(railpf.NewFinder(net, cfg).FindPath(req)), nil
}

// #endregion run

// #region output

func printSteps(resp query.Response) {
	steps := resp.Steps
	if !resp.Found {
		fmt.Printf("No path (%s).", resp.Outcome())
		if len(resp.Closest) == 0 {
			fmt.Println()
			return
		}
		fmt.Println(" Closest approach:")
		steps = resp.Closest
	}

	fmt.Printf("%-5s| %-6s| %-6s| %s\n", "#", "X", "Y", "Trackdir")
	fmt.Printf("%-5s+%-7s+%-7s+%s\n", "-----", "-------", "-------", "----------")
	for i, s := range steps {
		fmt.Printf("%-5d| %-6d| %-6d| %s\n", i, s.X, s.Y, s.Trackdir)
	}

	if resp.Found {
		fmt.Printf("\nCost: %d over %d steps (hash %s)\n", resp.Cost, len(steps), shortHash(resp.StepsHash))
	}
	fmt.Printf("Nodes: %d created, %d expanded, %d cache hits\n",
		resp.Stats.Created, resp.Stats.Expanded, resp.Stats.CacheHits)
}

func printJSON(v interface{}) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal json: %w", err)
	}
	fmt.Println(string(data))
	return nil
}

func shortHash(h string) string {
	if len(h) > 12 {
		return h[:12]
	}
	return h
}

// #endregion output
