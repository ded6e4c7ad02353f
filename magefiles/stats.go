//go:build mage

package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Stats prints Go lines of code per package, split into production and
// test code.
func Stats() error {
	type counts struct{ prod, test int }
	byDir := map[string]*counts{}

	err := filepath.Walk(".", func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.IsDir() {
			name := info.Name()
			if path != "." && (strings.HasPrefix(name, ".") || strings.HasPrefix(name, "_") ||
				name == "vendor" || name == binaryDir || name == "magefiles") {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") {
			return nil
		}
		n, err := countLines(path)
		if err != nil {
			return nil
		}
		dir := filepath.Dir(path)
		if byDir[dir] == nil {
			byDir[dir] = &counts{}
		}
		if strings.HasSuffix(path, "_test.go") {
			byDir[dir].test += n
		} else {
			byDir[dir].prod += n
		}
		return nil
	})
	if err != nil {
		return err
	}

	dirs := make([]string, 0, len(byDir))
	for dir := range byDir {
		dirs = append(dirs, dir)
	}
	sort.Strings(dirs)

	var prod, test int
	fmt.Printf("%-28s %8s %8s\n", "package", "prod", "test")
	for _, dir := range dirs {
		c := byDir[dir]
		prod += c.prod
		test += c.test
		fmt.Printf("%-28s %8d %8d\n", dir, c.prod, c.test)
	}
	fmt.Printf("%-28s %8d %8d\n", "total", prod, test)
	return nil
}

func countLines(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}
