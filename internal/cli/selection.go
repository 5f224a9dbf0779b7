package cli

import (
	"fmt"
	"strconv"
	"strings"

	"epbm-autofill/internal/domain/entity"
)

// SelectItems resolves queries against the discovered list. A query is either
// a 1-based position or a case-insensitive substring of the item label. With no
// queries every incomplete item is chosen. Completed items are never selected;
// matches that are already completed come back in skipped.
func SelectItems(items []entity.WorkItem, queries []string) (sel entity.RunSelection, skipped []entity.WorkItem, err error) {
	if len(queries) == 0 {
		return entity.Incomplete(items), nil, nil
	}

	picked := make([]bool, len(items))
	for _, q := range queries {
		matched := false
		if n, convErr := strconv.Atoi(strings.TrimSpace(q)); convErr == nil {
			if n < 1 || n > len(items) {
				return nil, nil, fmt.Errorf("item %d is out of range (1-%d)", n, len(items))
			}
			picked[n-1] = true
			continue
		}
		for i, it := range items {
			if it.Matches(q) {
				picked[i] = true
				matched = true
			}
		}
		if !matched {
			return nil, nil, fmt.Errorf("no questionnaire matches %q", q)
		}
	}

	sel = entity.RunSelection{}
	for i, it := range items {
		if !picked[i] {
			continue
		}
		if it.Completed {
			skipped = append(skipped, it)
			continue
		}
		sel = append(sel, it)
	}
	return sel, skipped, nil
}
