// Package portalsim serves a small imitation of the FW portal's HTML/JSON
// surface. It backs the HTTP client tests and the portal-sim binary used for
// offline development.
//
// Forms carry real anti-forgery tokens issued by gorilla/csrf under the
// portal's field name, so a client that drops or reuses the wrong token is
// rejected exactly like on the real portal.
package portalsim

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"html/template"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"

	"github.com/Feuerwehr-Effeltrich/Erfassinator/pkg/portal"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"github.com/gorilla/csrf"
)

const (
	sessionCookie = "FWPortal.Session"
	csrfCookie    = "__RequestVerificationCookie"

	// DefaultOrganisationID is embedded into status pages unless overridden.
	DefaultOrganisationID = "4711"
)

// Portal is the simulated portal state.
type Portal struct {
	csrfKey   []byte
	endpoints portal.Endpoints
	orgID     string

	mu          sync.Mutex
	users       map[string]string
	items       []portal.WorkItem
	sessions    map[string]string
	statusCodes map[int]int
	saveCodes   map[int]int
	noToken     map[int]bool
	noOrg       map[int]bool
	requests    []string
}

// Option configures a Portal.
type Option func(*Portal)

// WithUser adds an accepted account.
func WithUser(username, password string) Option {
	return func(p *Portal) {
		p.users[username] = password
	}
}

// WithItems replaces the listed reports.
func WithItems(items []portal.WorkItem) Option {
	return func(p *Portal) {
		p.items = append([]portal.WorkItem(nil), items...)
	}
}

// WithOrganisationID sets the id embedded into status pages and required on
// save.
func WithOrganisationID(id string) Option {
	return func(p *Portal) {
		p.orgID = id
	}
}

// WithStatusPageCode makes the status page of id answer with code.
func WithStatusPageCode(id, code int) Option {
	return func(p *Portal) {
		p.statusCodes[id] = code
	}
}

// WithSaveCode makes the save request of id answer with code.
func WithSaveCode(id, code int) Option {
	return func(p *Portal) {
		p.saveCodes[id] = code
	}
}

// WithoutToken renders the status page of id without the anti-forgery
// field.
func WithoutToken(id int) Option {
	return func(p *Portal) {
		p.noToken[id] = true
	}
}

// WithoutOrganisation renders the status page of id without the
// organisation id.
func WithoutOrganisation(id int) Option {
	return func(p *Portal) {
		p.noOrg[id] = true
	}
}

// New creates a portal with the default endpoint layout. Without WithUser
// it accepts admin/admin; without WithItems it lists the MemoryBackend demo
// reports.
func New(opts ...Option) *Portal {
	key := make([]byte, 32)
	if _, err := rand.Read(key); err != nil {
		panic(fmt.Sprintf("failed to generate CSRF key: %v", err))
	}

	p := &Portal{
		csrfKey:     key,
		endpoints:   portal.DefaultEndpoints(""),
		orgID:       DefaultOrganisationID,
		users:       make(map[string]string),
		items:       portal.DefaultMemoryItems(),
		sessions:    make(map[string]string),
		statusCodes: make(map[int]int),
		saveCodes:   make(map[int]int),
		noToken:     make(map[int]bool),
		noOrg:       make(map[int]bool),
	}
	for _, opt := range opts {
		opt(p)
	}
	if len(p.users) == 0 {
		p.users["admin"] = "admin"
	}
	return p
}

// NewServer starts p on a local httptest server. The caller closes it.
func NewServer(opts ...Option) (*Portal, *httptest.Server) {
	p := New(opts...)
	return p, httptest.NewServer(p.Handler())
}

// Handler returns the portal's router.
func (p *Portal) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(p.record)
	r.Use(p.prepareCSRF)
	r.Use(csrf.Protect(
		p.csrfKey,
		csrf.Secure(false),
		csrf.Path("/"),
		csrf.HttpOnly(true),
		csrf.CookieName(csrfCookie),
		csrf.FieldName(p.endpoints.TokenField),
		csrf.ErrorHandler(http.HandlerFunc(p.handleForbidden)),
	))

	r.Get(p.endpoints.EntryPath, p.handleEntry)
	r.Post(p.endpoints.LogonPath, p.handleLogon)
	r.Get(p.endpoints.LogoffPath, p.handleLogoff)
	r.Post(p.endpoints.ListPath, p.handleList)
	r.Get(p.endpoints.StatusPath, p.handleStatusPage)
	r.Post(p.endpoints.SaveStatusPath, p.handleSaveStatus)
	return r
}

// Requests returns "METHOD path" for every request served so far.
func (p *Portal) Requests() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.requests...)
}

// Items returns the current report list including status changes.
func (p *Portal) Items() []portal.WorkItem {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]portal.WorkItem(nil), p.items...)
}

// ActiveSessions returns the number of logged in sessions.
func (p *Portal) ActiveSessions() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.sessions)
}

func (p *Portal) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p.mu.Lock()
		p.requests = append(p.requests, r.Method+" "+r.URL.Path)
		p.mu.Unlock()
		next.ServeHTTP(w, r)
	})
}

// prepareCSRF marks every request as plain HTTP (the simulator never runs
// behind TLS) and exempts the JSON list endpoint, which the real portal does
// not protect either.
func (p *Portal) prepareCSRF(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		r = csrf.PlaintextHTTPRequest(r)
		if r.Method == http.MethodPost && r.URL.Path == p.endpoints.ListPath {
			r = csrf.UnsafeSkipCheck(r)
		}
		next.ServeHTTP(w, r)
	})
}

func (p *Portal) handleForbidden(w http.ResponseWriter, r *http.Request) {
	reason := "unknown"
	if err := csrf.FailureReason(r); err != nil {
		reason = err.Error()
	}
	http.Error(w, "Anti-forgery validation failed: "+reason, http.StatusForbidden)
}

// currentUser returns the user of the request's session cookie.
func (p *Portal) currentUser(r *http.Request) (string, bool) {
	c, err := r.Cookie(sessionCookie)
	if err != nil {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	user, ok := p.sessions[c.Value]
	return user, ok
}

var entryPage = template.Must(template.New("entry").Parse(`<!DOCTYPE html>
<html>
<head><title>FW Portal</title></head>
<body>
{{if .User}}
  <header>Angemeldet als {{.User}} <a href="{{.LogoffPath}}">Abmelden</a></header>
  <div class="messages">Sie haben {{.Unread}} ungelesene Nachrichten</div>
{{else}}
  <form action="{{.LogonPath}}" method="post">
    {{.TokenField}}
    <input type="text" name="UserName">
    <input type="password" name="Password">
    <input type="checkbox" name="StayLoggedIn" value="true">
    <button type="submit">Anmelden</button>
  </form>
{{end}}
</body>
</html>`))

func (p *Portal) handleEntry(w http.ResponseWriter, r *http.Request) {
	user, _ := p.currentUser(r)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = entryPage.Execute(w, map[string]any{
		"User":       user,
		"Unread":     0,
		"LogonPath":  p.endpoints.LogonPath,
		"LogoffPath": p.endpoints.LogoffPath,
		"TokenField": csrf.TemplateField(r),
	})
}

func (p *Portal) handleLogon(w http.ResponseWriter, r *http.Request) {
	username := r.PostFormValue("UserName")
	password := r.PostFormValue("Password")

	p.mu.Lock()
	expected, known := p.users[username]
	p.mu.Unlock()

	if !known || expected != password {
		http.Redirect(w, r, p.endpoints.EntryPath+"?error=credentials", http.StatusFound)
		return
	}

	id := uuid.New().String()
	p.mu.Lock()
	p.sessions[id] = username
	p.mu.Unlock()

	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
	})
	http.Redirect(w, r, p.endpoints.EntryPath, http.StatusFound)
}

func (p *Portal) handleLogoff(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		p.mu.Lock()
		delete(p.sessions, c.Value)
		p.mu.Unlock()
	}
	http.SetCookie(w, &http.Cookie{Name: sessionCookie, Value: "", Path: "/", MaxAge: -1})
	http.Redirect(w, r, p.endpoints.EntryPath, http.StatusFound)
}

type gridRecord struct {
	ID               int    `json:"Id"`
	Stichwort        string `json:"Stichwort"`
	BeginnText       string `json:"BeginnText"`
	Gesamtstatus     string `json:"Gesamtstatus"`
	Kurzbeschreibung string `json:"Kurzbeschreibung"`
}

func (p *Portal) handleList(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.currentUser(r); !ok {
		// An expired session lands on the login page, like the real portal.
		http.Redirect(w, r, p.endpoints.EntryPath, http.StatusFound)
		return
	}

	p.mu.Lock()
	records := make([]gridRecord, 0, len(p.items))
	for _, it := range p.items {
		records = append(records, gridRecord{
			ID:               it.ID,
			Stichwort:        it.Title,
			BeginnText:       it.Date,
			Gesamtstatus:     it.Status,
			Kurzbeschreibung: it.Description,
		})
	}
	p.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]any{
		"Data":  records,
		"Total": len(records),
	})
}

var statusPage = template.Must(template.New("status").Parse(`<!DOCTYPE html>
<html>
<head><title>Status ändern</title></head>
<body>
  <h1>Einsatzbericht {{.ID}}: {{.Title}}</h1>
  <form action="{{.Action}}" method="post">
    {{if .TokenField}}{{.TokenField}}{{end}}
    <textarea name="Bemerkung"></textarea>
    <button type="submit">Speichern</button>
  </form>
</body>
</html>`))

// itemIndex returns the index of id in p.items. The caller holds p.mu.
func (p *Portal) itemIndex(id int) int {
	for i, it := range p.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (p *Portal) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.currentUser(r); !ok {
		http.Redirect(w, r, p.endpoints.EntryPath, http.StatusFound)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}
	if r.URL.Query().Get("status") != p.endpoints.DraftStatus {
		http.Error(w, "unsupported status", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	code, forced := p.statusCodes[id]
	idx := p.itemIndex(id)
	var item portal.WorkItem
	if idx >= 0 {
		item = p.items[idx]
	}
	noToken, noOrg := p.noToken[id], p.noOrg[id]
	p.mu.Unlock()

	switch {
	case forced:
		http.Error(w, http.StatusText(code), code)
		return
	case idx < 0:
		http.NotFound(w, r)
		return
	case item.Status == portal.StatusConfirmed:
		http.Error(w, "Bericht bereits erfasst", http.StatusConflict)
		return
	}

	action := strings.ReplaceAll(p.endpoints.SaveStatusPath, "{id}", strconv.Itoa(id)) +
		"?status=" + p.endpoints.ConfirmedStatus
	if !noOrg {
		action += "&organisationId=" + p.orgID
	}

	data := map[string]any{
		"ID":     id,
		"Title":  item.Title,
		"Action": template.URL(action),
	}
	if !noToken {
		data["TokenField"] = csrf.TemplateField(r)
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_ = statusPage.Execute(w, data)
}

func (p *Portal) handleSaveStatus(w http.ResponseWriter, r *http.Request) {
	if _, ok := p.currentUser(r); !ok {
		http.Redirect(w, r, p.endpoints.EntryPath, http.StatusFound)
		return
	}

	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	if q.Get("status") != p.endpoints.ConfirmedStatus {
		http.Error(w, "unsupported status", http.StatusBadRequest)
		return
	}
	if q.Get("organisationId") != p.orgID {
		http.Error(w, "unknown organisation", http.StatusBadRequest)
		return
	}
	if err := r.ParseForm(); err != nil {
		http.Error(w, "invalid form", http.StatusBadRequest)
		return
	}
	if _, ok := r.PostForm["Bemerkung"]; !ok {
		http.Error(w, "missing remark", http.StatusBadRequest)
		return
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if code, forced := p.saveCodes[id]; forced {
		http.Error(w, http.StatusText(code), code)
		return
	}
	idx := p.itemIndex(id)
	if idx < 0 {
		http.NotFound(w, r)
		return
	}
	p.items[idx].Status = portal.StatusConfirmed
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}
