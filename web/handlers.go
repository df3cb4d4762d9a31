package web

import (
	"bytes"
	"errors"
	"html/template"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/voltlab/circuitforge/bom"
	"github.com/voltlab/circuitforge/circuit"
	"github.com/voltlab/circuitforge/conntable"
	"github.com/voltlab/circuitforge/diagram"
	"github.com/voltlab/circuitforge/prompt"
)

// pageData is everything the index template needs for one render.
type pageData struct {
	Title     string
	ModelName string
	State     *circuit.Session

	ValidLinks []string
	Flash      string

	// DiagramSVG is the inline block diagram, empty until the first
	// generate action. It is produced by our own serializer, not user
	// input, hence template.HTML.
	DiagramSVG template.HTML

	// Connections holds the decoded table; ConnectionsRaw holds the
	// model's reply verbatim when it would not decode.
	Connections    []conntable.Connection
	ConnectionsRaw string
}

func (a *App) setupRoutes() {
	a.mux = http.NewServeMux()
	a.mux.HandleFunc("GET /{$}", a.handleIndex)
	a.mux.HandleFunc("POST /components", a.handleComponents)
	a.mux.HandleFunc("POST /links", a.handleLinks)
	a.mux.HandleFunc("POST /generate", a.handleGenerate)
	a.mux.HandleFunc("POST /connections", a.handleConnections)
	a.mux.HandleFunc("GET /export/bom.xlsx", a.handleExportBOM)
	a.mux.HandleFunc("GET /export/connections.json", a.handleExportConnectionsJSON)
	a.mux.HandleFunc("GET /export/connections.csv", a.handleExportConnectionsCSV)
}

func (a *App) handleIndex(w http.ResponseWriter, r *http.Request) {
	s := a.state(r)
	data := &pageData{
		Title:      "AI Circuit Builder",
		ModelName:  a.ModelName,
		State:      s,
		ValidLinks: s.ValidLinks(),
		Flash:      a.Session.PopString(r.Context(), flashKey),
	}

	// The diagram is recomputed from the current component list on every
	// page load once a response exists; it is never cached.
	if s.Response != "" {
		svg, err := diagram.Layout(s.Components).SVG()
		if err != nil {
			log.Println("Error generating block diagram:", err)
			if data.Flash == "" {
				data.Flash = "Error generating block diagram: " + err.Error()
			}
		} else {
			data.DiagramSVG = template.HTML(svg)
		}
	}

	if raw := a.Session.GetString(r.Context(), connectionsKey); raw != "" {
		conns, err := conntable.TryDecode(raw)
		if err != nil {
			data.ConnectionsRaw = raw
		} else {
			data.Connections = conns
		}
	}

	a.render(w, r, data)
}

// handleComponents applies the in-place edits from the component form and
// optionally appends a blank row.
func (a *App) handleComponents(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s := a.state(r)
	for i := range s.Components {
		idx := strconv.Itoa(i)
		s.SetComponent(i, r.Form.Get("kind_"+idx), r.Form.Get("value_"+idx))
	}
	if r.Form.Get("add") == "1" {
		s.AddComponent()
	}
	a.saveState(r, s)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleLinks(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s := a.state(r)
	for i := range s.Links {
		s.SetLink(i, r.Form.Get("link_"+strconv.Itoa(i)))
	}
	if r.Form.Get("add") == "1" {
		s.AddLink()
	}
	a.saveState(r, s)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleGenerate runs the main flow: optional BOM upload for prompt
// context, one gateway round trip, reply cached in the session. Every
// failure becomes a flash message; the session state survives all of them.
func (a *App) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "bad form", http.StatusBadRequest)
		return
	}
	s := a.state(r)
	s.Description = r.FormValue("description")

	if strings.TrimSpace(s.Description) == "" {
		a.flash(r, "Please enter a description first.")
		a.saveState(r, s)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// A malformed upload is treated as absent, not as a fatal error.
	s.BOMNames = nil
	if file, header, err := r.FormFile("bom"); err == nil {
		upload, perr := bom.Parse(header.Filename, file)
		file.Close()
		if perr != nil {
			a.flash(r, perr.Error())
		} else {
			s.BOMNames = upload.Names()
		}
	} else if !errors.Is(err, http.ErrMissingFile) {
		a.flash(r, "Error reading uploaded file: "+err.Error())
	}

	p, err := prompt.Design(s.Description, s.BOMNames)
	if err != nil {
		a.flash(r, "Error building prompt: "+err.Error())
		a.saveState(r, s)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	reply, err := a.LLM.Generate(r.Context(), p)
	if err != nil {
		a.flash(r, err.Error())
		a.saveState(r, s)
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	s.Response = reply
	a.saveState(r, s)
	http.Redirect(w, r, "/", http.StatusFound)
}

// handleConnections asks the model for the pin to pin table. The reply is
// stored as text; the index page decodes it best effort on render.
func (a *App) handleConnections(w http.ResponseWriter, r *http.Request) {
	s := a.state(r)
	if s.Response == "" {
		a.flash(r, "Please generate the block diagram and confirm components first.")
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	p, err := prompt.Connections(s.Description, s.Components)
	if err != nil {
		a.flash(r, "Error building prompt: "+err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	reply, err := a.LLM.Generate(r.Context(), p)
	if err != nil {
		a.flash(r, err.Error())
		http.Redirect(w, r, "/", http.StatusFound)
		return
	}

	// Normalize to pretty JSON when the reply decodes, so the export
	// endpoints and the table view agree on one representation.
	if conns, derr := conntable.TryDecode(reply); derr == nil {
		if pretty, jerr := conntable.EncodeJSON(conns); jerr == nil {
			reply = string(pretty)
		}
	}
	a.Session.Put(r.Context(), connectionsKey, reply)
	http.Redirect(w, r, "/", http.StatusFound)
}

func (a *App) handleExportBOM(w http.ResponseWriter, r *http.Request) {
	s := a.state(r)
	data, err := bom.ExportXLSX(s.Components)
	if err != nil {
		log.Println("BOM export failed:", err)
		http.Error(w, "BOM export failed: "+err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", bom.MIMEXLSX)
	w.Header().Set("Content-Disposition", `attachment; filename="circuit_BOM.xlsx"`)
	w.Write(data)
}

// decodedConnections returns the last connection table, or a user facing
// error when there is none or it never decoded.
func (a *App) decodedConnections(r *http.Request) ([]conntable.Connection, error) {
	raw := a.Session.GetString(r.Context(), connectionsKey)
	if raw == "" {
		return nil, errors.New("no connection table has been generated yet")
	}
	return conntable.TryDecode(raw)
}

func (a *App) handleExportConnectionsJSON(w http.ResponseWriter, r *http.Request) {
	conns, err := a.decodedConnections(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	data, err := conntable.EncodeJSON(conns)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Content-Disposition", `attachment; filename="connection_details.json"`)
	w.Write(data)
}

func (a *App) handleExportConnectionsCSV(w http.ResponseWriter, r *http.Request) {
	conns, err := a.decodedConnections(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	var buf bytes.Buffer
	if err := conntable.WriteCSV(&buf, conns); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="connection_details.csv"`)
	w.Write(buf.Bytes())
}
