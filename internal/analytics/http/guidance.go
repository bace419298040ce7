package analytichttp

import (
	"fmt"

	"github.com/durabrake/findash/internal/analytics"
	"github.com/durabrake/findash/internal/analytics/ui"
	"github.com/durabrake/findash/internal/period"
	"github.com/durabrake/findash/internal/snapshot"
)

const noPeriodsGuide = `### No reporting periods found

The data directory does not contain any period folders yet. Generate a month with the
reporting pipeline so that ` + "`<YY.MM>/" + snapshot.DashboardFile + "`" + ` exists, then reload.
`

var sectionDocuments = map[string]string{
	analytics.SectionSummary:     snapshot.DashboardFile,
	analytics.SectionProducts:    snapshot.DashboardFile,
	analytics.SectionNWC:         snapshot.DashboardFile,
	analytics.SectionCustomers:   snapshot.CustomersFile,
	analytics.SectionBacklog:     snapshot.BacklogFile,
	analytics.SectionHistoricals: snapshot.DashboardFile,
}

func sectionGuide(section string, key period.Key) string {
	doc := sectionDocuments[section]
	return fmt.Sprintf(`### %s data is not available for %s

No `+"`%s/%s`"+` was found in the data directory.

- Run the monthly generator for **%s** and reload this page.
- Or pick another period from the list.
`, ui.TabLabel(section), key.LongName(), key.String(), doc, key.String())
}
