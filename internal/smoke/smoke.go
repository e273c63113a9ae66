// Package smoke runs the categories lifecycle against a live API and reports
// each step as PASS or FAIL.
package smoke

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const DefaultCategoryName = "Test Robotics Kits"

type Config struct {
	BaseURL  string
	Email    string
	Password string

	// CategoryName defaults to DefaultCategoryName.
	CategoryName string

	Client *http.Client
	Out    io.Writer
}

type Check struct {
	Name   string
	Passed bool
	Detail string
}

type Report struct {
	Checks []Check
}

func (r Report) Passed() int {
	n := 0
	for _, c := range r.Checks {
		if c.Passed {
			n++
		}
	}
	return n
}

func (r Report) Failed() int { return len(r.Checks) - r.Passed() }

func (r Report) OK() bool { return len(r.Checks) > 0 && r.Failed() == 0 }

type runner struct {
	cfg    Config
	client *http.Client
	token  string
	report Report
}

type entity struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// RunCategories creates a category and a subcategory, renames both, deletes
// them and checks the category is gone. A failed create stops the run since
// every later step depends on it. Only a failed login is returned as an error.
func RunCategories(ctx context.Context, cfg Config) (Report, error) {
	if cfg.BaseURL == "" {
		return Report{}, errors.New("base url is required")
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")

	if cfg.CategoryName == "" {
		cfg.CategoryName = DefaultCategoryName
	}
	if cfg.Out == nil {
		cfg.Out = io.Discard
	}

	r := &runner{cfg: cfg, client: cfg.Client}
	if r.client == nil {
		r.client = &http.Client{Timeout: 10 * time.Second}
	}

	if cfg.Email != "" {
		if err := r.login(ctx); err != nil {
			return Report{}, err
		}
	}

	r.run(ctx)

	fmt.Fprintf(cfg.Out, "\n%d passed, %d failed\n", r.report.Passed(), r.report.Failed())
	return r.report, nil
}

func (r *runner) run(ctx context.Context) {
	var cat entity
	status, err := r.do(ctx, http.MethodPost, "/categories", map[string]string{
		"name":        r.cfg.CategoryName,
		"description": "Created by smoke test",
	}, &cat)
	if !r.expect("create category", status, http.StatusCreated, err) {
		return
	}
	r.record("category has id", cat.ID != 0, fmt.Sprintf("id=%d", cat.ID))

	var list []entity
	status, err = r.do(ctx, http.MethodGet, "/categories", nil, &list)
	if r.expect("list categories", status, http.StatusOK, err) {
		r.record("list contains category", containsID(list, cat.ID), fmt.Sprintf("%d categories", len(list)))
	}

	catPath := fmt.Sprintf("/categories/%d", cat.ID)

	status, err = r.do(ctx, http.MethodGet, catPath, nil, nil)
	r.expect("get category", status, http.StatusOK, err)

	var sub entity
	status, err = r.do(ctx, http.MethodPost, catPath+"/subcategories", map[string]string{
		"name": "Starter Kits",
	}, &sub)
	subOK := r.expect("create subcategory", status, http.StatusCreated, err)

	if subOK {
		var subs []entity
		status, err = r.do(ctx, http.MethodGet, catPath+"/subcategories", nil, &subs)
		if r.expect("list subcategories", status, http.StatusOK, err) {
			r.record("subcategory listed under parent", containsID(subs, sub.ID), fmt.Sprintf("%d subcategories", len(subs)))
		}
	}

	renamed := r.cfg.CategoryName + " (updated)"
	var updated entity
	status, err = r.do(ctx, http.MethodPut, catPath, map[string]string{"name": renamed}, &updated)
	if r.expect("update category", status, http.StatusOK, err) {
		r.record("category renamed", updated.Name == renamed, fmt.Sprintf("name=%q", updated.Name))
	}

	if subOK {
		subPath := fmt.Sprintf("/categories/subcategories/%d", sub.ID)

		var updatedSub entity
		status, err = r.do(ctx, http.MethodPut, subPath, map[string]string{"name": "Advanced Kits"}, &updatedSub)
		if r.expect("update subcategory", status, http.StatusOK, err) {
			r.record("subcategory renamed", updatedSub.Name == "Advanced Kits", fmt.Sprintf("name=%q", updatedSub.Name))
		}

		status, err = r.do(ctx, http.MethodDelete, subPath, nil, nil)
		r.expect("delete subcategory", status, http.StatusOK, err)
	}

	status, err = r.do(ctx, http.MethodDelete, catPath, nil, nil)
	r.expect("delete category", status, http.StatusOK, err)

	status, err = r.do(ctx, http.MethodGet, catPath, nil, nil)
	r.expect("deleted category is gone", status, http.StatusNotFound, err)
}

func (r *runner) login(ctx context.Context) error {
	var out struct {
		AccessToken string `json:"accessToken"`
	}

	status, err := r.do(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    r.cfg.Email,
		"password": r.cfg.Password,
	}, &out)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if status != http.StatusOK || out.AccessToken == "" {
		return fmt.Errorf("login: unexpected status %d", status)
	}

	r.token = out.AccessToken
	fmt.Fprintf(r.cfg.Out, "logged in as %s\n", r.cfg.Email)
	return nil
}

func (r *runner) expect(name string, got, want int, err error) bool {
	if err != nil {
		r.record(name, false, err.Error())
		return false
	}
	return r.record(name, got == want, fmt.Sprintf("status %d, want %d", got, want))
}

func (r *runner) record(name string, ok bool, detail string) bool {
	r.report.Checks = append(r.report.Checks, Check{Name: name, Passed: ok, Detail: detail})

	if ok {
		fmt.Fprintf(r.cfg.Out, "PASS %s\n", name)
	} else {
		fmt.Fprintf(r.cfg.Out, "FAIL %s: %s\n", name, detail)
	}
	return ok
}

// do sends body as JSON and decodes a 2xx response into out when out is set.
func (r *runner) do(ctx context.Context, method, path string, body any, out any) (int, error) {
	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return 0, err
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, r.cfg.BaseURL+path, rdr)
	if err != nil {
		return 0, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if r.token != "" {
		req.Header.Set("Authorization", "Bearer "+r.token)
	}

	res, err := r.client.Do(req)
	if err != nil {
		return 0, err
	}
	defer res.Body.Close()

	if out != nil && res.StatusCode >= 200 && res.StatusCode < 300 {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return res.StatusCode, fmt.Errorf("decode %s %s: %w", method, path, err)
		}
	}

	return res.StatusCode, nil
}

func containsID(items []entity, id int64) bool {
	for _, it := range items {
		if it.ID == id {
			return true
		}
	}
	return false
}
