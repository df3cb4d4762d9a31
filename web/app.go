// Package web serves the single page circuit builder form: a description
// box, an editable component list, LCSC links, an optional BOM upload, and
// the generate/export actions. All state is session scoped; nothing
// survives the session and nothing is shared across sessions.
package web

import (
	"encoding/json"
	"html/template"
	"log"
	"net/http"

	"github.com/alexedwards/scs/v2"
	gut "github.com/panyam/goutils/template"
	tmplr "github.com/panyam/templar"

	"github.com/voltlab/circuitforge/circuit"
	"github.com/voltlab/circuitforge/llm"
)

// Session keys. The whole state container is one JSON blob so a session
// either has a coherent state or gets reseeded.
const (
	stateKey       = "circuitforge.state"
	connectionsKey = "circuitforge.connections"
	flashKey       = "circuitforge.flash"
)

// App is the web application: session manager, templates, and the gateway
// client each handler calls through.
type App struct {
	Session   *scs.SessionManager
	Templates *tmplr.TemplateGroup
	LLM       llm.Client

	// ModelName is shown in the page header so the user knows which
	// model answers.
	ModelName string

	mux *http.ServeMux
}

// NewApp wires the session manager and template group around the given
// gateway client. templatesDir defaults to ./web/templates.
func NewApp(client llm.Client, modelName, templatesDir string) *App {
	if templatesDir == "" {
		templatesDir = "./web/templates"
	}

	templates := tmplr.NewTemplateGroup()
	templates.Loader = (&tmplr.LoaderList{}).AddLoader(tmplr.NewFileSystemLoader(templatesDir))
	templates.AddFuncs(gut.DefaultFuncMap())
	templates.AddFuncs(template.FuncMap{
		"Add": func(a, b int) int { return a + b },
	})

	app := &App{
		Session:   scs.New(),
		Templates: templates,
		LLM:       client,
		ModelName: modelName,
	}
	app.setupRoutes()
	return app
}

// Handler returns the full middleware chain: session load/save around
// request logging around the route mux.
func (a *App) Handler() http.Handler {
	return a.Session.LoadAndSave(withRequestLogging(a.mux))
}

// state returns the caller's session state, reseeding on a missing or
// undecodable blob so a corrupt cookie never takes the page down.
func (a *App) state(r *http.Request) *circuit.Session {
	raw := a.Session.GetString(r.Context(), stateKey)
	if raw == "" {
		return circuit.NewSession()
	}
	var s circuit.Session
	if err := json.Unmarshal([]byte(raw), &s); err != nil {
		log.Println("Resetting undecodable session state:", err)
		return circuit.NewSession()
	}
	return &s
}

func (a *App) saveState(r *http.Request, s *circuit.Session) {
	raw, err := json.Marshal(s)
	if err != nil {
		// Session state is plain strings and slices; this cannot
		// happen on well formed state.
		log.Println("Failed to encode session state:", err)
		return
	}
	a.Session.Put(r.Context(), stateKey, string(raw))
}

// flash stores a one-shot user visible message shown on the next page load.
func (a *App) flash(r *http.Request, msg string) {
	a.Session.Put(r.Context(), flashKey, msg)
}

func (a *App) render(w http.ResponseWriter, r *http.Request, data *pageData) {
	tmpl, err := a.Templates.Loader.Load("index.html", "")
	if err != nil {
		log.Println("Template load error:", err)
		http.Error(w, "Template not found", http.StatusInternalServerError)
		return
	}
	if err := a.Templates.RenderHtmlTemplate(w, tmpl[0], "", data, nil); err != nil {
		log.Println("Template render error:", err)
		http.Error(w, "Template render error", http.StatusInternalServerError)
	}
}
