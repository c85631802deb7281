package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"testing"

	"github.com/cucumber/godog"

	"github.com/mrsinham/b0spt/internal/wad"
)

// testContext holds state for a single scenario
type testContext struct {
	tmpDir   string
	exitCode int
	output   string
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: InitializeScenario,
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"features"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}

func InitializeScenario(sc *godog.ScenarioContext) {
	tc := &testContext{}

	sc.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
		tmpDir, err := os.MkdirTemp("", "b0spt-e2e-*")
		if err != nil {
			return ctx, err
		}
		tc.tmpDir = tmpDir
		return ctx, nil
	})

	sc.After(func(ctx context.Context, sc *godog.Scenario, err error) (context.Context, error) {
		if tc.tmpDir != "" {
			os.RemoveAll(tc.tmpDir)
		}
		return ctx, nil
	})

	sc.Step(`^I run b0spt with "([^"]*)"$`, tc.iRunB0sptWith)
	sc.Step(`^the exit code should be (\d+)$`, tc.theExitCodeShouldBe)
	sc.Step(`^the output should contain "([^"]*)"$`, tc.theOutputShouldContain)
	sc.Step(`^"([^"]*)" should exist$`, tc.shouldExist)
	sc.Step(`^"([^"]*)" should not exist$`, tc.shouldNotExist)
	sc.Step(`^the results file "([^"]*)" should have (\d+) "([^"]*)" entries$`, tc.resultsShouldHaveEntries)
}

func (tc *testContext) expand(s string) string {
	return strings.ReplaceAll(s, "{tmpdir}", tc.tmpDir)
}

// iRunB0sptWith executes the root command in-process; a returned error maps
// to exit code 1 the way main does.
func (tc *testContext) iRunB0sptWith(args string) error {
	var output bytes.Buffer
	cmd := newRootCmd(&output)
	cmd.SetErr(&output)
	cmd.SetArgs(strings.Fields(tc.expand(args)))

	tc.exitCode = 0
	if err := cmd.Execute(); err != nil {
		fmt.Fprintf(&output, "Error: %v\n", err)
		tc.exitCode = 1
	}
	tc.output = output.String()
	return nil
}

func (tc *testContext) theExitCodeShouldBe(expected int) error {
	if tc.exitCode != expected {
		return fmt.Errorf("expected exit code %d, got %d\nOutput:\n%s", expected, tc.exitCode, tc.output)
	}
	return nil
}

func (tc *testContext) theOutputShouldContain(expected string) error {
	if !strings.Contains(tc.output, expected) {
		return fmt.Errorf("output does not contain %q\nOutput:\n%s", expected, tc.output)
	}
	return nil
}

func (tc *testContext) shouldExist(path string) error {
	path = tc.expand(path)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return fmt.Errorf("path does not exist: %s", path)
	}
	return nil
}

func (tc *testContext) shouldNotExist(path string) error {
	path = tc.expand(path)
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("path exists: %s", path)
	}
	return nil
}

func (tc *testContext) resultsShouldHaveEntries(path string, count int, category string) error {
	raw, err := os.ReadFile(tc.expand(path))
	if err != nil {
		return err
	}
	var entries []wad.Entry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("parse results: %w", err)
	}
	got := 0
	for _, e := range entries {
		if e.Category == category {
			got++
		}
	}
	if got != count {
		return fmt.Errorf("expected %d %q entries, got %d\n%s", count, category, got, raw)
	}
	return nil
}
