// gmctest runs the checker over annotated fixture files and compares the
// diagnostics it produces against the expectations written in the fixtures'
// comments. See pkg/fixture for the annotation format.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/cespare/xxhash/v2"
	"github.com/google/go-cmp/cmp"

	"github.com/xplshn/gmc/pkg/checker"
	"github.com/xplshn/gmc/pkg/config"
	"github.com/xplshn/gmc/pkg/diag"
	"github.com/xplshn/gmc/pkg/fixture"
	"github.com/xplshn/gmc/pkg/lexer"
	"github.com/xplshn/gmc/pkg/parser"
)

type FileTestResult struct {
	File     string                `json:"file"`
	Status   string                `json:"status"` // PASS, FAIL, SKIP, ERROR
	Message  string                `json:"message,omitempty"`
	Diff     string                `json:"diff,omitempty"`
	Expected []fixture.Expectation `json:"expected,omitempty"`
	Actual   []fixture.Expectation `json:"actual,omitempty"`
}

var (
	testFiles  = flag.String("test-files", "pkg/checker/testdata/*.c", "Glob pattern(s) for fixture files (space-separated).")
	skipFiles  = flag.String("skip-files", "", "Files to skip (space-separated).")
	outputJSON = flag.String("output", ".gmctest_results.json", "Output file for the JSON test report.")
	jobs       = flag.Int("j", 4, "Number of parallel test jobs.")
	allWarn    = flag.Bool("all-warnings", false, "Enable every warning category while checking fixtures.")
	verbose    = flag.Bool("v", false, "Print PASS details, not just failures.")
)

const (
	cRed    = "\x1b[91m"
	cYellow = "\x1b[93m"
	cGreen  = "\x1b[92m"
	cCyan   = "\x1b[96m"
	cBold   = "\x1b[1m"
	cNone   = "\x1b[0m"
)

func main() {
	flag.Parse()
	log.SetFlags(0)

	files, err := expandGlobPatterns(*testFiles)
	if err != nil {
		log.Fatalf("%s[ERROR]%s Invalid glob pattern(s): %v\n", cRed, cNone, err)
	}
	if len(files) == 0 {
		log.Println("No fixture files found matching the pattern(s).")
		return
	}

	skipList := make(map[string]bool)
	for _, f := range strings.Fields(*skipFiles) {
		if abs, err := filepath.Abs(f); err == nil {
			skipList[abs] = true
		}
	}

	tasks := make(chan string, len(files))
	resultsChan := make(chan *FileTestResult, len(files))
	var wg sync.WaitGroup

	for i := 0; i < *jobs; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for file := range tasks {
				resultsChan <- checkFixture(file)
			}
		}()
	}

	// Feed the tasks channel, skipping files with identical content.
	seenHashes := make(map[uint64]string)
	for _, file := range files {
		if skipList[file] {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: "Explicitly skipped"}
			continue
		}
		content, err := os.ReadFile(file)
		if err != nil {
			resultsChan <- &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file: %v", err)}
			continue
		}
		hash := xxhash.Sum64(content)
		if original, seen := seenHashes[hash]; seen {
			resultsChan <- &FileTestResult{File: file, Status: "SKIP", Message: fmt.Sprintf("Content is identical to %s", original)}
			continue
		}
		seenHashes[hash] = file
		tasks <- file
	}
	close(tasks)

	wg.Wait()
	close(resultsChan)

	var allResults []*FileTestResult
	for result := range resultsChan {
		allResults = append(allResults, result)
	}
	sort.Slice(allResults, func(i, j int) bool {
		return allResults[i].File < allResults[j].File
	})

	printSummary(allResults)
	writeJSONReport(allResults)

	for _, result := range allResults {
		if result.Status == "FAIL" || result.Status == "ERROR" {
			os.Exit(1)
		}
	}
}

// checkFixture runs the whole pipeline over one fixture file and diffs the
// produced diagnostics against the file's annotations.
func checkFixture(file string) *FileTestResult {
	content, err := os.ReadFile(file)
	if err != nil {
		return &FileTestResult{File: file, Status: "ERROR", Message: fmt.Sprintf("Failed to read file: %v", err)}
	}

	expected := fixture.Parse(string(content))

	cfg := config.NewConfig()
	if *allWarn {
		cfg.SetAllWarnings(true)
	}

	sources := diag.NewSourceMap()
	bag := diag.NewBag()
	runes := []rune(string(content))
	fileIndex := sources.Add(file, runes)

	tokens := lexer.NewLexer(runes, fileIndex, bag).Tokenize()
	decls := parser.NewParser(tokens, bag).Parse()
	checker.NewChecker(cfg, bag).Check(decls)

	actual := fixture.FromDiagnostics(bag.Diagnostics())
	fixture.Sort(expected)
	fixture.Sort(actual)

	if diff := cmp.Diff(expected, actual); diff != "" {
		return &FileTestResult{
			File: file, Status: "FAIL",
			Message:  "Diagnostics do not match fixture annotations",
			Diff:     diff,
			Expected: expected, Actual: actual,
		}
	}
	return &FileTestResult{
		File: file, Status: "PASS",
		Message:  fmt.Sprintf("%d expectation(s) matched", len(expected)),
		Expected: expected, Actual: actual,
	}
}

func printSummary(results []*FileTestResult) {
	var passed, failed, skipped, errored int
	for _, result := range results {
		switch result.Status {
		case "PASS":
			passed++
			if *verbose {
				fmt.Printf("[%sPASS%s] %s%s%s: %s\n", cGreen, cNone, cCyan, result.File, cNone, result.Message)
			}
		case "FAIL":
			failed++
			fmt.Printf("[%sFAIL%s] %s%s%s: %s\n", cRed, cNone, cCyan, result.File, cNone, result.Message)
			fmt.Println(formatDiff(result.Diff))
		case "SKIP":
			skipped++
			if *verbose {
				fmt.Printf("[%sSKIP%s] %s%s%s: %s\n", cYellow, cNone, cCyan, result.File, cNone, result.Message)
			}
		case "ERROR":
			errored++
			fmt.Printf("[%sERROR%s] %s%s%s: %s\n", cRed, cNone, cCyan, result.File, cNone, result.Message)
		}
	}
	fmt.Printf("%sTest Summary:%s %s%d Passed%s, %s%d Failed%s, %s%d Skipped%s, %s%d Errored%s, %d Total\n",
		cBold, cNone, cGreen, passed, cNone, cRed, failed, cNone, cYellow, skipped, cNone, cRed, errored, cNone, len(results))
}

func formatDiff(diff string) string {
	if diff == "" {
		return ""
	}
	var builder strings.Builder
	builder.WriteString("    --- Diff (-expected +actual) ---\n")
	for _, line := range strings.Split(diff, "\n") {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "-") {
			builder.WriteString(cRed)
		} else if strings.HasPrefix(trimmed, "+") {
			builder.WriteString(cGreen)
		}
		builder.WriteString("    " + line)
		builder.WriteString(cNone)
		builder.WriteString("\n")
	}
	return builder.String()
}

func writeJSONReport(results []*FileTestResult) {
	resultsMap := make(map[string]*FileTestResult, len(results))
	for _, r := range results {
		resultsMap[r.File] = r
	}
	jsonData, err := json.MarshalIndent(resultsMap, "", "  ")
	if err != nil {
		log.Printf("%s[ERROR]%s Failed to marshal results to JSON: %v\n", cRed, cNone, err)
		return
	}
	if err := os.WriteFile(*outputJSON, jsonData, 0644); err != nil {
		log.Printf("%s[ERROR]%s Failed to write JSON report to %s: %v\n", cRed, cNone, *outputJSON, err)
		return
	}
	fmt.Printf("Full test report saved to %s\n", *outputJSON)
}

func expandGlobPatterns(patterns string) ([]string, error) {
	var allFiles []string
	seen := make(map[string]bool)
	for _, pattern := range strings.Fields(patterns) {
		files, err := filepath.Glob(pattern)
		if err != nil {
			return nil, fmt.Errorf("bad pattern %s: %w", pattern, err)
		}
		for _, file := range files {
			absFile, err := filepath.Abs(file)
			if err != nil {
				continue
			}
			if !seen[absFile] {
				if info, err := os.Stat(absFile); err == nil && info.Mode().IsRegular() {
					allFiles = append(allFiles, absFile)
					seen[absFile] = true
				}
			}
		}
	}
	return allFiles, nil
}
