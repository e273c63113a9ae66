// Package verify checks that source files under a root directory still
// contain expected snippets. It is a developer aid for confirming a feature
// landed where it should.
package verify

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

type Check struct {
	Name     string   `mapstructure:"name"`
	File     string   `mapstructure:"file"`
	Contains []string `mapstructure:"contains"`
}

type Result struct {
	Check   Check
	Missing []string
	Err     error
}

func (r Result) Passed() bool { return r.Err == nil && len(r.Missing) == 0 }

type Summary struct {
	Results []Result
}

func (s Summary) Passed() int {
	n := 0
	for _, r := range s.Results {
		if r.Passed() {
			n++
		}
	}
	return n
}

func (s Summary) Failed() int { return len(s.Results) - s.Passed() }

// DefaultChecks cover the categories routes and their handlers.
func DefaultChecks() []Check {
	return []Check{
		{
			Name: "category routes registered",
			File: "internal/http/router.go",
			Contains: []string{
				`"/categories"`,
				`"/categories/:id"`,
				`"/categories/:id/subcategories"`,
				`"/subcategories/:id"`,
			},
		},
		{
			Name: "category handlers wired",
			File: "internal/http/router.go",
			Contains: []string{
				"categories.ListCategories",
				"categories.CreateCategory",
				"categories.UpdateCategory",
				"categories.DeleteCategory",
				"categories.ListSubcategories",
				"categories.CreateSubcategory",
				"categories.UpdateSubcategory",
				"categories.DeleteSubcategory",
			},
		},
		{
			Name: "category handlers defined",
			File: "internal/http/handlers/categories.go",
			Contains: []string{
				"func (h *CategoriesHandler) CreateSubcategory(",
				"func (h *CategoriesHandler) DeleteSubcategory(",
				"Category deleted successfully",
				"Subcategory deleted successfully",
			},
		},
		{
			Name: "subcategories cascade with their category",
			File: "internal/db/migrations/sql/0002_catalog.up.sql",
			Contains: []string{
				"REFERENCES categories (id) ON DELETE CASCADE",
			},
		},
	}
}

// LoadChecks reads a YAML (or any viper-supported) file with a top level
// "checks" list.
func LoadChecks(path string) ([]Check, error) {
	v := viper.New()
	v.SetConfigFile(path)

	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read checks %s: %w", path, err)
	}

	var checks []Check
	if err := v.UnmarshalKey("checks", &checks); err != nil {
		return nil, fmt.Errorf("decode checks %s: %w", path, err)
	}

	if len(checks) == 0 {
		return nil, errors.New("no checks defined in " + path)
	}

	for i, c := range checks {
		if c.File == "" {
			return nil, fmt.Errorf("check %d (%s): file is required", i, c.Name)
		}
		if checks[i].Name == "" {
			checks[i].Name = c.File
		}
	}

	return checks, nil
}

// Run evaluates every check relative to root and prints one line per check.
func Run(root string, checks []Check, out io.Writer) Summary {
	var s Summary

	for _, c := range checks {
		r := runOne(root, c)
		s.Results = append(s.Results, r)

		switch {
		case r.Err != nil:
			fmt.Fprintf(out, "FAIL %s: %v\n", c.Name, r.Err)
		case len(r.Missing) > 0:
			fmt.Fprintf(out, "FAIL %s: missing %s\n", c.Name, strings.Join(quoteAll(r.Missing), ", "))
		default:
			fmt.Fprintf(out, "PASS %s\n", c.Name)
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed\n", s.Passed(), s.Failed())
	return s
}

func runOne(root string, c Check) Result {
	b, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(c.File)))
	if err != nil {
		return Result{Check: c, Err: err}
	}

	content := string(b)

	var missing []string
	for _, want := range c.Contains {
		if !strings.Contains(content, want) {
			missing = append(missing, want)
		}
	}

	return Result{Check: c, Missing: missing}
}

func quoteAll(in []string) []string {
	out := make([]string, len(in))
	for i, s := range in {
		out[i] = fmt.Sprintf("%q", s)
	}
	return out
}
