package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/danielpatrickdp/railpath/internal/layout"
	"github.com/danielpatrickdp/railpath/internal/netstore"
)

// #region main

func main() {
	dbPath := flag.String("db", "", "path to railpath.db")
	layoutPath := flag.String("layout", "", "path to layout JSON")
	note := flag.String("note", "", "note stored with the version")
	rollback := flag.String("rollback", "", "re-activate an earlier version ID instead of importing")
	flag.Parse()

	if *dbPath == "" || (*layoutPath == "") == (*rollback == "") {
		fmt.Fprintln(os.Stderr, "usage: import-layout --db path/to/railpath.db --layout path/to/layout.json [--note text]")
		fmt.Fprintln(os.Stderr, "       import-layout --db path/to/railpath.db --rollback version-id")
		os.Exit(2)
	}

	if err := run(*dbPath, *layoutPath, *note, *rollback); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// #endregion main

// #region run

func run(dbPath, layoutPath, note, rollback string) error {
	store, err := netstore.NewStore(dbPath)
	if err != nil {
		return fmt.Errorf("open db: %w", err)
	}
	defer store.Close()

	if rollback != "" {
		if err := store.Rollback(rollback); err != nil {
			return err
		}
		fmt.Printf("Active layout is now %s\n", rollback)
		return nil
	}

	data, err := os.ReadFile(layoutPath)
	if err != nil {
		return fmt.Errorf("read layout: %w", err)
	}
	spec, err := layout.Parse(data)
	if err != nil {
		return err
	}
	rec, err := store.CommitLayout(spec, note)
	if err != nil {
		return err
	}

	fmt.Printf("Imported %q as %s\n", rec.Name, rec.VersionID)
	if rec.ParentID != "" {
		fmt.Printf("  parent: %s\n", rec.ParentID)
	}
	fmt.Println("Send SIGHUP to a running pathd to pick it up.")
	return nil
}

// #endregion run
