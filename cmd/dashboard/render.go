package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/olekukonko/tablewriter"

	"github.com/sakif/interview-tracker/internal/filter"
	"github.com/sakif/interview-tracker/internal/model"
)

var (
	high   = color.New(color.FgRed, color.Bold).SprintFunc()
	medium = color.New(color.FgYellow).SprintFunc()
	low    = color.New(color.FgGreen).SprintFunc()
	faint  = color.New(color.Faint).SprintFunc()
	title  = color.New(color.FgCyan, color.Bold).SprintFunc()
)

func priorityCell(p *float64) string {
	label := filter.PriorityLabel(p)
	if p == nil {
		return faint(label)
	}
	switch *p {
	case 1:
		return high(label)
	case 2:
		return medium(label)
	case 3:
		return low(label)
	}
	return label
}

// renderList prints the candidate table.
func renderList(w io.Writer, candidates []model.Candidate, total int) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"ID", "Name", "Reg No", "Domain", "Branch", "Priority", "Latest"})
	table.SetAutoWrapText(false)

	for i := range candidates {
		c := &candidates[i]
		latest := "-"
		if r, ok := filter.LatestRating(c); ok {
			latest = filter.FormatRating(r)
		}
		table.Append([]string{
			c.ID,
			c.Name,
			c.Reg,
			c.Domain,
			c.Branch,
			priorityCell(c.Priority),
			latest,
		})
	}
	table.Render()
	fmt.Fprintln(w, faint(fmt.Sprintf("%d of %d results", len(candidates), total)))
}

// renderCandidate prints one candidate's details and remarks, newest first.
func renderCandidate(w io.Writer, c *model.Candidate) {
	fmt.Fprintln(w, title(c.Name))
	fmt.Fprintf(w, "  id:       %s\n", c.ID)
	fmt.Fprintf(w, "  reg:      %s\n", c.Reg)
	fmt.Fprintf(w, "  email:    %s\n", c.Email)
	fmt.Fprintf(w, "  phone:    %s\n", c.Phone)
	fmt.Fprintf(w, "  branch:   %s\n", c.Branch)
	fmt.Fprintf(w, "  domain:   %s\n", c.Domain)
	fmt.Fprintf(w, "  priority: %s\n", priorityCell(c.Priority))
	if avg, ok := filter.AverageRating(c); ok {
		fmt.Fprintf(w, "  average:  %.1f\n", avg)
	}
	if c.Reason != "" {
		fmt.Fprintf(w, "  reason:   %s\n", c.Reason)
	}
	if c.BestProject != "" {
		fmt.Fprintf(w, "  project:  %s\n", c.BestProject)
	}

	if len(c.Remarks) == 0 {
		fmt.Fprintln(w, faint("\nNo remarks yet."))
		return
	}

	fmt.Fprintln(w)
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Remark ID", "Rating", "By", "When", "Text"})
	table.SetColWidth(60)
	for i := len(c.Remarks) - 1; i >= 0; i-- {
		r := c.Remarks[i]
		table.Append([]string{
			r.ID,
			filter.FormatRating(r.Rating),
			r.Reviewer(),
			r.CreatedAt.Local().Format("02 Jan 2006 15:04"),
			strings.TrimSpace(r.Text),
		})
	}
	table.Render()
}
