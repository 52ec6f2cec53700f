// Command errorcode-checker reports unused, duplicated and malformed error codes
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
)

func main() {
	var (
		dir        = flag.String("dir", ".", "Directory to check")
		configPath = flag.String("config", ".errorcode.yml", "Path to configuration file")
	)
	flag.Parse()

	config, err := loadConfig(*configPath)
	if err != nil {
		log.Printf("Warning: Using default configuration: %v", err)
		config, _ = loadConfig("")
	}

	checker, err := NewErrorCodeChecker(config)
	if err != nil {
		log.Fatalf("Invalid configuration: %v", err)
	}

	fmt.Printf("Checking error codes in %s (excluding %s)\n\n", *dir, strings.Join(config.ExcludePaths, ", "))
	if err := checker.CheckDirectory(*dir, config.ExcludePaths); err != nil {
		log.Fatalf("Error checking directory: %v", err)
	}

	failed := false

	unused := checker.Unused()
	for _, info := range unused {
		fmt.Printf("UNUSED     %s (%s) declared in %s:%d\n", info.Var, info.Code, info.File, info.Line)
	}
	if len(unused) > 0 && config.ExitOnUnused {
		failed = true
	}

	duplicates := checker.Duplicates()
	for code, infos := range duplicates {
		for _, info := range infos {
			fmt.Printf("DUPLICATE  %s declared as %s in %s:%d\n", code, info.Var, info.File, info.Line)
		}
	}
	if len(duplicates) > 0 && config.ExitOnDuplicate {
		failed = true
	}

	violations := checker.Violations()
	for _, v := range violations {
		fmt.Printf("VIOLATION  %s\n", v)
	}
	if len(violations) > 0 && config.ExitOnViolation {
		failed = true
	}

	if failed {
		fmt.Println("\nError code check failed")
		os.Exit(1)
	}
	fmt.Println("All error codes are declared once and used")
}
