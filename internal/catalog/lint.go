package catalog

import "fmt"

// LintTeardownCoverage reports provision items that have no teardown
// counterpart and are not listed in settings.teardown_exempt. Coverage gaps
// are warnings, not errors: a catalog without a teardown list is legal, it
// just cannot be undone.
func LintTeardownCoverage(doc *Document) []string {
	if len(doc.Teardown) == 0 && len(doc.Settings.TeardownExempt) == 0 {
		if len(doc.Provision) > 0 {
			return []string{"catalog has no teardown list; teardown will do nothing"}
		}
		return nil
	}

	covered := make(map[string]bool, len(doc.Teardown))
	for _, item := range doc.Teardown {
		covered[item.ID] = true
	}
	exempt := make(map[string]bool, len(doc.Settings.TeardownExempt))
	for _, id := range doc.Settings.TeardownExempt {
		exempt[id] = true
	}

	var warnings []string
	for _, item := range doc.Provision {
		if covered[item.ID] || exempt[item.ID] {
			continue
		}
		warnings = append(warnings, fmt.Sprintf(
			"provision item %q has no teardown counterpart; add one or list it under settings.teardown_exempt", item.ID))
	}

	for _, id := range doc.Settings.TeardownExempt {
		if covered[id] {
			warnings = append(warnings, fmt.Sprintf(
				"item %q is both exempt and covered by teardown; drop it from settings.teardown_exempt", id))
		}
	}
	return warnings
}
