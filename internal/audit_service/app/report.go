package app

import (
	"fmt"
	"sort"
	"strings"
)

// MarkdownReport renders the counts as a deterministic hierarchical report.
// Each nested line shows its share of the immediate parent to one decimal
// place; labels and percentages are padded to the widest sibling so columns
// line up. Sections whose top-level count is zero render only the All line.
func (c *Counts) MarkdownReport() string {
	sections := []string{
		renderSection("Relay Numbers", c.RelayNumbers.All, relayNumberNodes(c.RelayNumbers)),
		renderSection("Twilio Numbers", c.TwilioNumbers.All, twilioNumberNodes(c.TwilioNumbers)),
		renderSection("Twilio Messaging Services", c.TwilioMessagingServices.All,
			messagingServiceNodes(c.TwilioMessagingServices)),
	}
	return strings.Join(sections, "\n\n")
}

type reportNode struct {
	label    string
	count    int
	children []reportNode
}

func renderSection(title string, all int, children []reportNode) string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**:\n- All: %d", title, all)
	if all > 0 {
		renderNodes(&b, children, all, "  ")
	}
	return b.String()
}

// renderNodes writes one sibling group. Label and percentage widths are
// computed per group, not globally, which is what keeps the columns aligned
// within each indentation level.
func renderNodes(b *strings.Builder, nodes []reportNode, parent int, indent string) {
	maxLabel := 0
	maxPct := 0
	pcts := make([]string, len(nodes))
	for i, n := range nodes {
		if len(n.label) > maxLabel {
			maxLabel = len(n.label)
		}
		pcts[i] = fmt.Sprintf("%.1f", float64(n.count)*100.0/float64(parent))
		if len(pcts[i]) > maxPct {
			maxPct = len(pcts[i])
		}
	}
	for i, n := range nodes {
		b.WriteString("\n")
		b.WriteString(indent)
		fmt.Fprintf(b, "- %-*s: %d (%*s%%)", maxLabel, n.label, n.count, maxPct, pcts[i])
		if n.count > 0 && len(n.children) > 0 {
			renderNodes(b, n.children, n.count, indent+"  ")
		}
	}
}

func relayNumberNodes(rc RelayNumberCounts) []reportNode {
	return []reportNode{{
		label: "Enabled",
		count: rc.Enabled,
		children: []reportNode{{
			label: "Used",
			count: rc.Used,
			children: []reportNode{
				{label: "Used for Texts Only", count: rc.UsedTexts},
				{label: "Used for Calls Only", count: rc.UsedCalls},
				{label: "Used for Both", count: rc.UsedBoth},
			},
		}},
	}}
}

func twilioNumberNodes(tc TwilioNumberCounts) []reportNode {
	inBoth := reportNode{label: "In Both Databases", count: tc.InBothDB}
	codes := make([]string, 0, len(tc.CountryCodes))
	for cc := range tc.CountryCodes {
		codes = append(codes, cc)
	}
	sort.Strings(codes)
	for _, cc := range codes {
		inBoth.children = append(inBoth.children, countryNode(cc, tc.CountryCodes[cc]))
	}

	main := reportNode{label: "Main Number in Twilio", count: tc.MainNumber}
	if d := tc.MainNumberDetail; d != nil {
		main.children = []reportNode{
			{label: "In Correct Messaging Service", count: d.InService},
			{label: "In Wrong Messaging Service", count: d.WrongService},
			{label: "Not in a Messaging Service", count: d.NoService},
		}
	}

	nodes := []reportNode{
		inBoth,
		main,
		{label: "Only in Relay Database", count: tc.OnlyRelayDB},
		{label: "Only in Twilio Database", count: tc.OnlyTwilioDB},
	}
	if tc.OnlyServiceMembers > 0 {
		// Malformed upstream data; the line only appears when it happens so
		// healthy reports keep their fixed shape.
		nodes = append(nodes, reportNode{
			label: "Only in a Messaging Service", count: tc.OnlyServiceMembers,
		})
	}
	return nodes
}

func countryNode(cc string, c *CountryCounts) reportNode {
	inService := reportNode{label: "In a Messaging Service", count: c.InService}
	if c.ServiceFit != nil {
		inService.children = []reportNode{
			{label: "In Correct Service", count: c.ServiceFit.CorrectService},
			{label: "In Wrong Service", count: c.ServiceFit.WrongService},
		}
	}
	noServiceLabel := "Not in a Messaging Service"
	if c.ServiceOptional {
		noServiceLabel += " (OK)"
	}
	return reportNode{
		label: "Country Code " + cc,
		count: c.All,
		children: []reportNode{
			inService,
			{label: "Only in Relay Messaging Service", count: c.OnlyRelayService},
			{label: "Only in Twilio Messaging Service", count: c.OnlyTwilioService},
			{label: noServiceLabel, count: c.NoService},
		},
	}
}

func messagingServiceNodes(mc MessagingServiceCounts) []reportNode {
	inBoth := reportNode{label: "In Both Databases", count: mc.InBothDB}
	if s := mc.Sync; s != nil {
		inBoth.children = []reportNode{
			{
				label: "In Sync, Good Data",
				count: s.GoodData,
				children: []reportNode{
					{label: "Ready to Use", count: s.Ready},
					{label: "Marked as Spam", count: s.Spam},
					{label: "Full", count: s.Full},
				},
			},
			{label: "In Sync, Bad Data", count: s.BadData},
			{label: "Out of Sync", count: s.OutOfSync},
		}
	}
	return []reportNode{
		inBoth,
		{label: "Only in Relay Database", count: mc.OnlyRelayDB},
		{label: "Only in Twilio Database", count: mc.OnlyTwilioDB},
	}
}
