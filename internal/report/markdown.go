// Package report renders trip details and plans as Markdown for text channels.
package report

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"text/template"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/globemate/globemate/internal/trip"
)

const detailsTemplate = `Travel details detected:
- **From:** {{ title .Fields.From }}
- **To:** {{ title .Fields.To }}
- **Mode of Travel:** {{ .Fields.Mode }}
- **Fuel Average:** {{ number .Fields.FuelEconomy }} km/l
- **Fuel Price:** {{ money .Fields.FuelPrice }}
- **Duration:** {{ .Fields.Days }} days
`

const planTemplate = `---
## Your Personalized Travel Plan

### Trip Overview
- **From:** {{ title .Fields.From }}{{ with .Route.From.DisplayName }} ({{ . }}){{ end }}
- **To:** {{ title .Fields.To }}{{ with .Route.To.DisplayName }} ({{ . }}){{ end }}
- **Total Distance:** {{ .Route.Kilometers }} km
- **Travel Mode:** {{ .Fields.Mode }}
- **Trip Duration:** {{ .Fields.Days }} days

### Estimated Costs
- **Fuel:** {{ money .Expenses.FuelCost }}
- **Hotel:** {{ money .Expenses.HotelCost }}
- **Food:** {{ money .Expenses.FoodCost }}
- **Total:** {{ money .Expenses.TotalCost }}

### Hotel Recommendations
{{ range .Recommendations.Hotels -}}
- {{ .Name }} - {{ money .Price }} (rating {{ number .Rating }})
{{ else -}}
No hotel data found.
{{ end }}
### Local Food You Must Try
{{ range .Recommendations.Foods -}}
- {{ . }}
{{ else -}}
No food data found.
{{ end }}
### Tourist Attractions in {{ title .Fields.To }}
{{ range .Recommendations.Attractions -}}
- {{ . }}
{{ else -}}
No attraction data found.
{{ end -}}
`

// Renderer writes Markdown reports. It is safe for concurrent use.
type Renderer struct {
	details *template.Template
	plan    *template.Template
}

// NewRenderer creates a Renderer that labels amounts with currency.
func NewRenderer(currency string) *Renderer {
	funcs := template.FuncMap{
		"title":  Title,
		"number": formatNumber,
		"money": func(v any) string {
			return strings.TrimSpace(currency + " " + formatNumber(v))
		},
	}
	return &Renderer{
		details: template.Must(template.New("details").Funcs(funcs).Parse(detailsTemplate)),
		plan:    template.Must(template.New("plan").Funcs(funcs).Parse(planTemplate)),
	}
}

// Details writes the parsed fields for confirmation before planning.
func (r *Renderer) Details(w io.Writer, fields trip.ParsedFields) error {
	return r.details.Execute(w, struct{ Fields trip.ParsedFields }{fields})
}

// Plan writes the full trip plan.
func (r *Renderer) Plan(w io.Writer, plan *trip.Plan) error {
	if plan == nil {
		return errors.New("report: nil plan")
	}
	return r.plan.Execute(w, plan)
}

// Title capitalises each word of a place name.
func Title(s string) string {
	return cases.Title(language.Und).String(strings.TrimSpace(s))
}

// formatNumber prints integers without a fractional part and other values with
// at most two decimals.
func formatNumber(v any) string {
	switch n := v.(type) {
	case int:
		return strconv.Itoa(n)
	case float64:
		s := strconv.FormatFloat(n, 'f', 2, 64)
		return strings.TrimSuffix(strings.TrimRight(s, "0"), ".")
	default:
		return fmt.Sprint(v)
	}
}
