package ynap

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/jbrukh/bayesian"
)

var ErrNotEnoughCategories = errors.New("training data needs at least two distinct categories")

// Classifier suggests budgeting categories for records the rule file
// left uncategorized, using a naive-Bayes model over payee words trained
// from a previously produced five-column CSV.
type Classifier struct {
	classifier *bayesian.Classifier
}

// TrainClassifier builds a classifier from a five-column YNAB CSV (as
// written by WriteRecords). Rows without both a payee and a category are
// skipped.
func TrainClassifier(r io.Reader) (*Classifier, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("error parsing training CSV: %w", err)
	}

	type sample struct {
		words    []string
		category string
	}
	var samples []sample
	categories := make(map[string]bool)
	for i, row := range rows {
		if len(row) < 5 {
			continue
		}
		if i == 0 && row[0] == "Date" {
			continue
		}
		payee, category := row[1], row[2]
		if payee == "" || category == "" {
			continue
		}
		samples = append(samples, sample{words: strings.Fields(payee), category: category})
		categories[category] = true
	}
	if len(categories) < 2 {
		return nil, ErrNotEnoughCategories
	}

	classes := make([]bayesian.Class, 0, len(categories))
	for category := range categories {
		classes = append(classes, bayesian.Class(category))
	}

	classifier := bayesian.NewClassifier(classes...)
	for _, s := range samples {
		classifier.Learn(s.words, bayesian.Class(s.category))
	}
	return &Classifier{classifier: classifier}, nil
}

// Suggest returns a category for the payee, or false when the model has
// no high-confidence prediction. A prediction counts as high-confidence
// when its log score beats the runner-up by more than 10.
func (c *Classifier) Suggest(payee string) (string, bool) {
	words := strings.Fields(payee)
	if len(words) == 0 {
		return "", false
	}

	highest, second := math.Inf(-1), math.Inf(-1)
	matchIdx := 0
	scores, _, _ := c.classifier.LogScores(words)
	for i, score := range scores {
		if score > highest {
			second = highest
			highest = score
			matchIdx = i
		} else if score > second {
			second = score
		}
	}
	if highest-second <= 10 {
		return "", false
	}
	return string(c.classifier.Classes[matchIdx]), true
}

// FillCategories writes suggestions into every record whose category is
// still empty, returning how many records were filled. Categories set by
// the rule chain are never overwritten.
func (c *Classifier) FillCategories(records []*Record) int {
	filled := 0
	for _, r := range records {
		if r.Category != "" {
			continue
		}
		category, ok := c.Suggest(r.Payee)
		if !ok {
			continue
		}
		r.Category = category
		filled++
	}
	return filled
}
