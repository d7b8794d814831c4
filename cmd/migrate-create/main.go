package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Generates an empty up/down migration pair with a sortable version
// prefix, matching the naming golang-migrate expects.
func main() {
	name := flag.String("name", "", "migration name (lowercase, underscores)")
	dir := flag.String("dir", filepath.Join("db", "migrations"), "migrations directory")
	flag.Parse()

	if *name == "" {
		log.Fatal("migration name is required")
	}
	for _, r := range *name {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') && r != '_' {
			log.Fatalf("migration name %q must use lowercase letters, digits and underscores", *name)
		}
	}

	version := time.Now().UTC().Format("20060102150405")
	base := fmt.Sprintf("%s_%s", version, *name)
	upPath := filepath.Join(*dir, base+".up.sql")
	downPath := filepath.Join(*dir, base+".down.sql")

	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("create migrations dir: %v", err)
	}

	if err := writeStub(upPath, fmt.Sprintf("-- %s (up)\n", *name)); err != nil {
		log.Fatalf("create up migration: %v", err)
	}
	if err := writeStub(downPath, fmt.Sprintf("-- %s (down)\n", *name)); err != nil {
		log.Fatalf("create down migration: %v", err)
	}

	log.Printf("created %s and %s", upPath, downPath)
}

func writeStub(path, content string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("file already exists: %s", path)
	} else if !os.IsNotExist(err) {
		return err
	}
	return os.WriteFile(path, []byte(content), 0o644)
}
