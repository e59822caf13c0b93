package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/tabwriter"

	"MaturityBoard/internal/migrator"
	"MaturityBoard/internal/templates"
	"MaturityBoard/internal/validator"
)

// validateFile decodes path by extension and validates it. The first
// violation is returned as an error naming the field.
func validateFile(out io.Writer, path string, asJSON bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("validate: %w", err)
	}

	var c validator.CandidateTemplate
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		c, err = validator.DecodeYAML(data)
	default:
		c, err = validator.DecodeJSON(strings.NewReader(string(data)))
	}
	if err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	v, err := validator.ValidateTemplate(c)
	if err != nil {
		return fmt.Errorf("validate %s: %w", path, err)
	}

	if asJSON {
		b, err := json.MarshalIndent(v, "", "  ")
		if err != nil {
			return err
		}
		_, _ = fmt.Fprintln(out, string(b))
		return nil
	}

	_, _ = fmt.Fprintf(out, "%s %s is valid\n", v.Name, v.Version)
	rows := make([][]string, 0, len(v.Facets))
	for _, f := range v.Facets {
		numbers := make([]string, 0, len(f.Levels))
		for _, l := range f.Levels {
			numbers = append(numbers, strconv.Itoa(l.Number))
		}
		rows = append(rows, []string{f.Name, strings.Join(numbers, ",")})
	}
	printTable(out, []string{"FACET", "LEVELS"}, rows)
	return nil
}

func printSeedResult(out io.Writer, res *templates.SeedResult) {
	rows := make([][]string, 0, len(res.Created)+len(res.Skipped))
	for _, t := range res.Created {
		rows = append(rows, []string{t, "created"})
	}
	for _, t := range res.Skipped {
		rows = append(rows, []string{t, "already present"})
	}
	printTable(out, []string{"TEMPLATE", "RESULT"}, rows)
}

func printMigrations(out io.Writer, status []migrator.Migration) {
	rows := make([][]string, 0, len(status))
	for _, m := range status {
		applied := "pending"
		if m.AppliedAt != nil {
			applied = m.AppliedAt.Format("2006-01-02 15:04:05")
		}
		rows = append(rows, []string{m.Version, applied})
	}
	printTable(out, []string{"VERSION", "APPLIED"}, rows)
}

func printTable(out io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		_, _ = fmt.Fprintln(out, "no results")
		return
	}
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, strings.Join(headers, "\t"))
	for _, row := range rows {
		_, _ = fmt.Fprintln(w, strings.Join(row, "\t"))
	}
	_ = w.Flush()
}
