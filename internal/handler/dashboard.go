package handler

import (
	"bytes"
	"embed"
	"errors"
	"html/template"
	"log/slog"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/interview-tracker/internal/apperror"
	"github.com/sakif/interview-tracker/internal/filter"
	"github.com/sakif/interview-tracker/internal/model"
	"github.com/sakif/interview-tracker/internal/service"
)

//go:embed templates/*.html
var templateFS embed.FS

// DashboardHandler serves the server-rendered dashboard pages.
// Templates are parsed once at startup and reused for every request.
type DashboardHandler struct {
	svc       CandidateService
	templates map[string]*template.Template
	logger    *slog.Logger
}

var templateFuncs = template.FuncMap{
	"priorityLabel": filter.PriorityLabel,
	"priorityClass": func(p *float64) string {
		if p == nil {
			return "p-none"
		}
		switch *p {
		case 1:
			return "p-high"
		case 2:
			return "p-medium"
		case 3:
			return "p-low"
		}
		return "p-none"
	},
	"latestRating": func(c model.Candidate) string {
		if r, ok := filter.LatestRating(&c); ok {
			return filter.FormatRating(r)
		}
		return "-"
	},
	"averageRating": func(c *model.Candidate) string {
		if r, ok := filter.AverageRating(c); ok {
			return strconv.FormatFloat(r, 'f', 1, 64)
		}
		return ""
	},
	"formatRating": filter.FormatRating,
	"newestFirst": func(rs []model.Remark) []model.Remark {
		out := slices.Clone(rs)
		slices.Reverse(out)
		return out
	},
	"fmtNumber": func(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) },
}

// NewDashboardHandler parses the embedded templates.
//
// Each page is parsed together with base.html so it can fill the "content"
// block that base.html leaves open.
func NewDashboardHandler(svc CandidateService, logger *slog.Logger) (*DashboardHandler, error) {
	pages := map[string]*template.Template{}
	for _, page := range []string{"candidates.html", "candidate.html", "error.html"} {
		tmpl, err := template.New(page).Funcs(templateFuncs).ParseFS(templateFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, err
		}
		pages[page] = tmpl
	}

	return &DashboardHandler{svc: svc, templates: pages, logger: logger}, nil
}

type listPage struct {
	Title      string
	Candidates []model.Candidate
	Total      int
	Fields     []filter.Field
	Field      filter.Field
	Query      string
	Domain     string
}

type candidatePage struct {
	Title     string
	Candidate *model.Candidate
	Error     string
	Form      remarkForm
}

type remarkForm struct {
	Text   string
	Rating string
	By     string
}

type errorPage struct {
	Title   string
	Status  int
	Message string
}

// HandleIndex renders the candidate table.
//
// HTTP: GET /?field=priority&q=high&domain=web
//
// domain narrows the store query; field and q filter the fetched list.
func (h *DashboardHandler) HandleIndex(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	domain := strings.TrimSpace(q.Get("domain"))

	field, err := filter.ParseField(q.Get("field"))
	if err != nil {
		field = filter.FieldName
	}

	all, err := h.svc.List(r.Context(), domain)
	if err != nil {
		h.renderError(w, err)
		return
	}

	h.render(w, http.StatusOK, "candidates.html", listPage{
		Title:      "Candidates",
		Candidates: filter.Apply(all, field, q.Get("q")),
		Total:      len(all),
		Fields:     filter.Fields,
		Field:      field,
		Query:      q.Get("q"),
		Domain:     domain,
	})
}

// HandleCandidate renders one candidate with its remarks, newest first.
//
// HTTP: GET /view/{id}
func (h *DashboardHandler) HandleCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := h.svc.GetByID(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.renderError(w, err)
		return
	}
	h.render(w, http.StatusOK, "candidate.html", candidatePage{Title: c.Name, Candidate: c})
}

// HandleAddRemark handles the add-remark form.
//
// HTTP: POST /view/{id}/remarks
//
// A blank reviewer box counts as "not given", so the remark shows the
// default reviewer.
func (h *DashboardHandler) HandleAddRemark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	in := service.RemarkInput{
		Text:   model.StringOf(form.Text),
		Rating: formNumber(form.Rating),
	}
	if strings.TrimSpace(form.By) != "" {
		in.By = model.StringOf(form.By)
	}

	if _, err := h.svc.AddRemark(r.Context(), id, in); err != nil {
		h.formError(w, r, id, form, err)
		return
	}
	h.redirectToCandidate(w, r, id)
}

// HandleEditRemark handles a remark's inline edit form. All three fields are
// submitted, so a cleared reviewer box stores an empty reviewer.
//
// HTTP: POST /view/{id}/remarks/{remarkId}
func (h *DashboardHandler) HandleEditRemark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	form, ok := h.parseForm(w, r)
	if !ok {
		return
	}

	in := service.RemarkInput{
		Text:   model.StringOf(form.Text),
		Rating: formNumber(form.Rating),
		By:     model.StringOf(form.By),
	}
	if _, err := h.svc.EditRemark(r.Context(), id, chi.URLParam(r, "remarkId"), in); err != nil {
		h.formError(w, r, id, remarkForm{}, err)
		return
	}
	h.redirectToCandidate(w, r, id)
}

// HandleDeleteRemark handles a remark's delete button.
//
// HTTP: POST /view/{id}/remarks/{remarkId}/delete
func (h *DashboardHandler) HandleDeleteRemark(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := h.svc.DeleteRemark(r.Context(), id, chi.URLParam(r, "remarkId")); err != nil {
		h.renderError(w, err)
		return
	}
	h.redirectToCandidate(w, r, id)
}

func (h *DashboardHandler) parseForm(w http.ResponseWriter, r *http.Request) (remarkForm, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		h.render(w, http.StatusBadRequest, "error.html", errorPage{
			Title: "Bad request", Status: http.StatusBadRequest, Message: "Could not read the form.",
		})
		return remarkForm{}, false
	}
	return remarkForm{
		Text:   r.PostForm.Get("text"),
		Rating: r.PostForm.Get("rating"),
		By:     r.PostForm.Get("by"),
	}, true
}

// formNumber converts a form value the same way the JSON API treats a
// numeric string.
func formNumber(s string) model.OptionalNumber {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return model.InvalidNumber()
	}
	return model.NumberOf(f)
}

// formError re-renders the candidate page with the validation message and
// the user's input kept in the add form.
func (h *DashboardHandler) formError(w http.ResponseWriter, r *http.Request, id string, form remarkForm, err error) {
	if !errors.Is(err, apperror.ErrValidation) {
		h.renderError(w, err)
		return
	}
	c, getErr := h.svc.GetByID(r.Context(), id)
	if getErr != nil {
		h.renderError(w, getErr)
		return
	}
	status, msg := errorStatus(err)
	h.render(w, status, "candidate.html", candidatePage{
		Title:     c.Name,
		Candidate: c,
		Error:     msg,
		Form:      form,
	})
}

// redirectToCandidate uses 303 so the browser follows up with a GET and a
// refresh does not resubmit the form.
func (h *DashboardHandler) redirectToCandidate(w http.ResponseWriter, r *http.Request, id string) {
	http.Redirect(w, r, "/view/"+url.PathEscape(id), http.StatusSeeOther)
}

func (h *DashboardHandler) renderError(w http.ResponseWriter, err error) {
	status, msg := errorStatus(err)
	h.render(w, status, "error.html", errorPage{Title: http.StatusText(status), Status: status, Message: msg})
}

// render executes into a buffer first so a template error can still become
// a clean 500 instead of a half-written page.
func (h *DashboardHandler) render(w http.ResponseWriter, status int, page string, data any) {
	var buf bytes.Buffer
	if err := h.templates[page].ExecuteTemplate(&buf, "base", data); err != nil {
		h.logger.Error("failed to render template",
			slog.String("page", page),
			slog.String("error", err.Error()),
		)
		http.Error(w, "Internal Server Error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	buf.WriteTo(w)
}
