// Package filter narrows an already-fetched candidate list for display.
//
// It never talks to the store: the web and terminal dashboards fetch the full
// list once and re-filter it locally as the query changes.
package filter

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/sakif/interview-tracker/internal/model"
)

// Field selects which attribute a query is matched against.
type Field string

const (
	FieldName     Field = "name"
	FieldReg      Field = "reg"
	FieldPriority Field = "priority"
	FieldRating   Field = "rating"
)

// Fields lists every filterable field in display order.
var Fields = []Field{FieldName, FieldReg, FieldPriority, FieldRating}

// Label is the field's human-readable name.
func (f Field) Label() string {
	switch f {
	case FieldReg:
		return "Reg No"
	case FieldPriority:
		return "Priority"
	case FieldRating:
		return "Rating"
	default:
		return "Name"
	}
}

// ParseField converts user input into a Field. Matching ignores case and
// surrounding space; an empty string is FieldName.
func ParseField(s string) (Field, error) {
	switch f := Field(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return FieldName, nil
	case FieldName, FieldReg, FieldPriority, FieldRating:
		return f, nil
	default:
		return "", fmt.Errorf("unknown filter field %q (want name, reg, priority or rating)", s)
	}
}

// priorityWords maps the dashboard's priority labels onto their numbers.
var priorityWords = map[string]float64{
	"high":   1,
	"medium": 2,
	"low":    3,
}

// Apply returns the candidates matching query on field, in their original order.
//
//   - name, reg: case-insensitive substring
//   - priority: "high", "medium", "low" or a number; exact match
//   - rating: a number; the latest remark's rating must be at least that
//
// A blank query matches everything. A query the field cannot interpret
// matches nothing. An unrecognised field behaves as FieldName.
func Apply(candidates []model.Candidate, field Field, query string) []model.Candidate {
	q := strings.TrimSpace(query)
	if q == "" {
		return candidates
	}

	match := matcher(field, q)
	out := make([]model.Candidate, 0, len(candidates))
	for _, c := range candidates {
		if match(&c) {
			out = append(out, c)
		}
	}
	return out
}

func matcher(field Field, q string) func(*model.Candidate) bool {
	never := func(*model.Candidate) bool { return false }

	switch field {
	case FieldReg:
		needle := strings.ToLower(q)
		return func(c *model.Candidate) bool {
			return strings.Contains(strings.ToLower(c.Reg), needle)
		}

	case FieldPriority:
		want, ok := priorityWords[strings.ToLower(q)]
		if !ok {
			n, err := parseNumber(q)
			if err != nil {
				return never
			}
			want = n
		}
		return func(c *model.Candidate) bool {
			return c.Priority != nil && *c.Priority == want
		}

	case FieldRating:
		threshold, err := parseNumber(q)
		if err != nil {
			return never
		}
		return func(c *model.Candidate) bool {
			r, ok := LatestRating(c)
			return ok && r >= threshold
		}

	default:
		needle := strings.ToLower(q)
		return func(c *model.Candidate) bool {
			return strings.Contains(strings.ToLower(c.Name), needle)
		}
	}
}

func parseNumber(s string) (float64, error) {
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, fmt.Errorf("not a finite number: %q", s)
	}
	return f, nil
}

// LatestRating is the rating of the most recently added remark.
func LatestRating(c *model.Candidate) (float64, bool) {
	r, ok := c.LatestRemark()
	if !ok {
		return 0, false
	}
	return r.Rating, true
}

// AverageRating is the mean rating across all remarks.
func AverageRating(c *model.Candidate) (float64, bool) {
	if len(c.Remarks) == 0 {
		return 0, false
	}
	var sum float64
	for _, r := range c.Remarks {
		sum += r.Rating
	}
	return sum / float64(len(c.Remarks)), true
}

// PriorityLabel renders a priority badge: 1, 2 and 3 read High, Medium and
// Low; other values print as numbers; a missing priority is "-".
func PriorityLabel(p *float64) string {
	if p == nil {
		return "-"
	}
	switch *p {
	case 1:
		return "High"
	case 2:
		return "Medium"
	case 3:
		return "Low"
	default:
		return strconv.FormatFloat(*p, 'f', -1, 64)
	}
}

// FormatRating prints a rating with at most one decimal, e.g. "7.5/10".
func FormatRating(r float64) string {
	return strconv.FormatFloat(math.Round(r*10)/10, 'f', -1, 64) + "/10"
}
