// Package conntable decodes the model's free text reply into the pin to pin
// connection table, best effort. A reply that does not decode is shown to
// the user as raw text; decode failure is never fatal.
package conntable

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Connection is one pin to pin link in the table. The JSON tags match the
// field names the model is instructed to emit.
type Connection struct {
	FromComponent  string `json:"From_Component"`
	FromPin        string `json:"From_Pin"`
	ToComponent    string `json:"To_Component"`
	ToPin          string `json:"To_Pin"`
	ConnectionType string `json:"Connection_Type"`
}

// DecodeError reports a reply that could not be interpreted as the expected
// array of connection records.
type DecodeError struct {
	Err error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("reply is not a connection table: %v", e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

// stripFences removes a surrounding markdown code fence, which models often
// wrap around JSON despite being told not to.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}

// TryDecode attempts a single decode of the reply into the documented
// array-of-records shape. No other shapes are guessed at; anything that
// fails the one unmarshal comes back as a *DecodeError.
func TryDecode(text string) ([]Connection, error) {
	var conns []Connection
	if err := json.Unmarshal([]byte(stripFences(text)), &conns); err != nil {
		return nil, &DecodeError{Err: err}
	}
	return conns, nil
}

// EncodeJSON pretty prints the table with two space indentation. Output
// round trips through TryDecode to an equal table.
func EncodeJSON(conns []Connection) ([]byte, error) {
	return json.MarshalIndent(conns, "", "  ")
}

// WriteCSV writes the flattened table with a header row.
func WriteCSV(w io.Writer, conns []Connection) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"From_Component", "From_Pin", "To_Component", "To_Pin", "Connection_Type"}); err != nil {
		return err
	}
	for _, c := range conns {
		if err := cw.Write([]string{c.FromComponent, c.FromPin, c.ToComponent, c.ToPin, c.ConnectionType}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
