package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/chrissnell/pvyield/internal/devicedb"
)

func main() {
	var (
		sandia     = flag.String("sandia", "", "Path to the SAM Sandia module library CSV")
		cec        = flag.String("cec", "", "Path to the SAM CEC module library CSV")
		inverters  = flag.String("inverters", "", "Path to the SAM CEC inverter library CSV")
		sqliteFile = flag.String("sqlite", "", "Path to SQLite database file (required)")
		force      = flag.Bool("force", false, "Overwrite existing SQLite database")
		dryRun     = flag.Bool("dry-run", false, "Parse the libraries without writing the database")
	)
	flag.Parse()

	if *sqliteFile == "" || (*sandia == "" && *cec == "" && *inverters == "") {
		fmt.Fprintf(os.Stderr, "Usage: %s -sqlite <devices.db> [-sandia <modules.csv>] [-cec <modules.csv>] [-inverters <inverters.csv>]\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(1)
	}

	// Check if SQLite file already exists
	if _, err := os.Stat(*sqliteFile); err == nil {
		if !*force {
			fmt.Fprintf(os.Stderr, "Error: SQLite file already exists: %s\n", *sqliteFile)
			fmt.Fprintf(os.Stderr, "Use -force to overwrite or choose a different filename\n")
			os.Exit(1)
		}
		if !*dryRun {
			if err := os.Remove(*sqliteFile); err != nil {
				fmt.Fprintf(os.Stderr, "Error removing existing database: %v\n", err)
				os.Exit(1)
			}
		}
	}

	fmt.Printf("Loading device libraries...\n")
	cat, err := devicedb.LoadFiles(devicedb.Files{
		SandiaModules: *sandia,
		CECModules:    *cec,
		Inverters:     *inverters,
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading device libraries: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("  Sandia modules: %d\n", len(cat.Modules(devicedb.Sandia)))
	fmt.Printf("  CEC modules:    %d\n", len(cat.Modules(devicedb.CEC)))
	fmt.Printf("  Inverters:      %d\n", len(cat.Inverters()))

	if *dryRun {
		fmt.Println("DRY RUN complete - no database created")
		return
	}

	db, err := devicedb.OpenSQLite(*sqliteFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error creating SQLite database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	modules, invs, err := db.Import(context.Background(), cat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error importing devices: %v\n", err)
		os.Exit(1)
	}

	fmt.Printf("Imported %d modules and %d inverters into %s\n", modules, invs, *sqliteFile)
	fmt.Printf("Reference it from the input document as deviceDatabase.sqlite\n")
}
