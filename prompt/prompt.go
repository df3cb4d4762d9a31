// Package prompt builds the instruction text sent to the model endpoint.
// Both prompts are fixed templates over the user's description and the
// current component state, so identical inputs always produce identical
// prompt text.
package prompt

import (
	"bytes"
	"text/template"

	"github.com/voltlab/circuitforge/circuit"
)

var designTmpl = template.Must(template.New("design").Parse(`You are an expert electronics engineer.

User request: "{{.Description}}"
Uploaded BOM parts: [{{range $i, $p := .BOMParts}}{{if $i}}, {{end}}{{$p}}{{end}}]

1. If the description is unclear, ask 3-5 clarifying questions.
2. If enough information is available, summarize the circuit idea and list key components.
3. Provide a preliminary block diagram description.

Return the output clearly with sections:
'Questions', 'Block Diagram Summary', and 'Key Components'.
`))

var connectionsTmpl = template.Must(template.New("connections").Parse(`You are an expert electronics circuit designer.

Given the following circuit description and components:
{{.Description}}

Components list:
{{range .Components}}- {{.Kind}}: {{.Value}}
{{end}}
Task:
1. Generate a table of pin-to-pin connections between these components.
2. Include connection type (signal, power, ground, etc.).
3. If unsure, make reasonable engineering assumptions.

Format strictly as JSON array with fields:
[
  {
    "From_Component": "Resistor R1",
    "From_Pin": "Pin 1",
    "To_Component": "LED D1",
    "To_Pin": "Anode",
    "Connection_Type": "Signal"
  },
  ...
]
`))

// Design renders the clarify/summarize prompt for a circuit description
// plus the part names pulled from an uploaded BOM.
func Design(description string, bomParts []string) (string, error) {
	var buf bytes.Buffer
	err := designTmpl.Execute(&buf, struct {
		Description string
		BOMParts    []string
	}{description, bomParts})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Connections renders the strict-JSON connection table prompt for the
// current component list.
func Connections(description string, components []circuit.Component) (string, error) {
	var buf bytes.Buffer
	err := connectionsTmpl.Execute(&buf, struct {
		Description string
		Components  []circuit.Component
	}{description, components})
	if err != nil {
		return "", err
	}
	return buf.String(), nil
}
