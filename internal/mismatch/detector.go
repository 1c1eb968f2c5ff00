// Package mismatch cross-references the entities a query asked about with
// the entities a generated answer actually discusses, to catch topic drift.
package mismatch

import (
	"fmt"
	"strings"

	"github.com/sportsiq/backend/internal/entity"
)

type Result struct {
	HasMismatch      bool
	Details          string
	QueryEntities    []string
	ResponseEntities []string
}

type Detector struct {
	registry *entity.Registry
}

func NewDetector(registry *entity.Registry) *Detector {
	return &Detector{registry: registry}
}

// Detect extracts entities from query and response independently and flags a
// mismatch only when the query named entities, the response named entities,
// and the two sets share nothing. A response with no entities at all is not
// flagged: absence is not evidence of wrongness, a rules explanation can
// legitimately mention nobody.
func (d *Detector) Detect(query, response string) Result {
	result := Result{
		QueryEntities:    d.registry.Extract(query),
		ResponseEntities: d.registry.Extract(response),
	}

	if len(result.QueryEntities) == 0 {
		return result
	}
	if len(result.ResponseEntities) == 0 {
		return result
	}

	if overlaps(result.QueryEntities, result.ResponseEntities) {
		return result
	}

	result.HasMismatch = true
	result.Details = fmt.Sprintf(
		"query asked about [%s] but response discusses [%s]",
		strings.Join(result.QueryEntities, ", "),
		strings.Join(result.ResponseEntities, ", "),
	)
	return result
}

// overlaps uses substring inclusion in both directions so partial name forms
// still count: "haaland" overlaps "erling haaland".
func overlaps(queryEntities, responseEntities []string) bool {
	for _, q := range queryEntities {
		for _, r := range responseEntities {
			if strings.Contains(q, r) || strings.Contains(r, q) {
				return true
			}
		}
	}
	return false
}
