package web

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voltlab/circuitforge/llm"
)

const tableReply = `[{"From_Component":"Resistor R1","From_Pin":"Pin 1","To_Component":"LED D1","To_Pin":"Anode","Connection_Type":"Signal"}]`

func newTestServer(t *testing.T, mock *llm.MockClient) (*httptest.Server, *http.Client) {
	t.Helper()
	app := NewApp(mock, "llama3", "./templates")
	server := httptest.NewServer(app.Handler())
	t.Cleanup(server.Close)

	jar, err := cookiejar.New(nil)
	require.NoError(t, err)
	client := server.Client()
	client.Jar = jar
	return server, client
}

func get(t *testing.T, client *http.Client, url string) string {
	t.Helper()
	resp, err := client.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

// postGenerate submits the multipart generate form, optionally attaching a
// BOM file.
func postGenerate(t *testing.T, client *http.Client, baseURL, description, filename, fileBody string) string {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", description))
	if filename != "" {
		fw, err := mw.CreateFormFile("bom", filename)
		require.NoError(t, err)
		_, err = fw.Write([]byte(fileBody))
		require.NoError(t, err)
	}
	require.NoError(t, mw.Close())

	resp, err := client.Post(baseURL+"/generate", mw.FormDataContentType(), &buf)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return string(body)
}

func TestIndexShowsDefaults(t *testing.T) {
	server, client := newTestServer(t, &llm.MockClient{})
	body := get(t, client, server.URL+"/")

	assert.Contains(t, body, "AI Circuit Builder")
	assert.Contains(t, body, "Resistor")
	assert.Contains(t, body, "10kΩ")
	assert.Contains(t, body, "llama3")
	// No response yet, so no diagram or download section
	assert.NotContains(t, body, "Preliminary Block Diagram")
}

func TestGenerateFlow(t *testing.T) {
	mock := &llm.MockClient{ResponseToReturn: "Questions: none. Looks like a blinker."}
	server, client := newTestServer(t, mock)

	body := postGenerate(t, client, server.URL, "blink an LED", "", "")

	assert.Contains(t, mock.ReceivedPrompt, `User request: "blink an LED"`)
	assert.Contains(t, body, "Looks like a blinker.")
	assert.Contains(t, body, "Preliminary Block Diagram")
	assert.Contains(t, body, "<svg")
	assert.Contains(t, body, "/export/bom.xlsx")
}

func TestGenerateWithUpload(t *testing.T) {
	mock := &llm.MockClient{ResponseToReturn: "ok"}
	server, client := newTestServer(t, mock)

	body := postGenerate(t, client, server.URL, "blink an LED",
		"parts.csv", "Name,Qty\nNE555,1\nLED Red,2\n")

	assert.Contains(t, mock.ReceivedPrompt, "NE555")
	assert.Contains(t, mock.ReceivedPrompt, "LED Red")
	assert.Contains(t, body, "Uploaded BOM parts:")
}

func TestGenerateBadUploadIsNonFatal(t *testing.T) {
	mock := &llm.MockClient{ResponseToReturn: "ok"}
	server, client := newTestServer(t, mock)

	body := postGenerate(t, client, server.URL, "blink an LED",
		"parts.xlsx", "not a spreadsheet")

	// Upload error surfaces as a message; the gateway call still happens
	assert.Contains(t, body, "error reading BOM")
	assert.Contains(t, body, "ok")
	assert.Contains(t, mock.ReceivedPrompt, "Uploaded BOM parts: []")
}

func TestGenerateEmptyDescription(t *testing.T) {
	mock := &llm.MockClient{ResponseToReturn: "should not be called"}
	server, client := newTestServer(t, mock)

	body := postGenerate(t, client, server.URL, "   ", "", "")

	assert.Contains(t, body, "Please enter a description first.")
	assert.Empty(t, mock.ReceivedPrompt)
}

func TestGatewayErrorPreservesState(t *testing.T) {
	mock := &llm.MockClient{ErrorToReturn: &llm.GatewayError{Status: 500, Body: "model not loaded"}}
	server, client := newTestServer(t, mock)

	// Edit a component first so there is state worth preserving
	_, err := client.PostForm(server.URL+"/components", url.Values{
		"kind_0": {"Thermistor"}, "value_0": {"NTC 10k"},
		"kind_1": {"Capacitor"}, "value_1": {"100nF"},
		"kind_2": {"LED"}, "value_2": {"Green"},
	})
	require.NoError(t, err)

	body := postGenerate(t, client, server.URL, "blink an LED", "", "")

	assert.Contains(t, body, "model not loaded")
	assert.Contains(t, body, "Thermistor", "component edits must survive a gateway failure")
}

func TestComponentAdd(t *testing.T) {
	server, client := newTestServer(t, &llm.MockClient{})

	resp, err := client.PostForm(server.URL+"/components", url.Values{
		"kind_0": {"Resistor"}, "value_0": {"10kΩ"},
		"kind_1": {"Capacitor"}, "value_1": {"100nF"},
		"kind_2": {"LED"}, "value_2": {"Green"},
		"add": {"1"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	body := get(t, client, server.URL+"/")
	assert.Contains(t, body, "kind_3", "a blank fourth row should exist")
}

func TestLinks(t *testing.T) {
	server, client := newTestServer(t, &llm.MockClient{})

	resp, err := client.PostForm(server.URL+"/links", url.Values{
		"link_0": {"https://lcsc.com/part/C123"},
		"add":    {"1"},
	})
	require.NoError(t, err)
	resp.Body.Close()

	body := get(t, client, server.URL+"/")
	assert.Contains(t, body, "https://lcsc.com/part/C123")
	assert.Contains(t, body, "1 LCSC link(s) added.")
	assert.Contains(t, body, "link_1")
}

func TestConnectionsFlow(t *testing.T) {
	mock := &llm.MockClient{ResponseToReturn: "summary"}
	server, client := newTestServer(t, mock)
	postGenerate(t, client, server.URL, "blink an LED", "", "")

	t.Run("Decodable Reply", func(t *testing.T) {
		mock.ResponseToReturn = tableReply
		resp, err := client.Post(server.URL+"/connections", "application/x-www-form-urlencoded", nil)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Contains(t, string(body), "Resistor R1")
		assert.Contains(t, string(body), "Anode")
		assert.Contains(t, string(body), "/export/connections.json")
	})

	t.Run("JSON Export", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/export/connections.json")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

		body, _ := io.ReadAll(resp.Body)
		assert.Contains(t, string(body), `"From_Component": "Resistor R1"`)
	})

	t.Run("CSV Export", func(t *testing.T) {
		resp, err := client.Get(server.URL + "/export/connections.csv")
		require.NoError(t, err)
		defer resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, "text/csv", resp.Header.Get("Content-Type"))

		body, _ := io.ReadAll(resp.Body)
		assert.True(t, strings.HasPrefix(string(body), "From_Component,From_Pin,To_Component,To_Pin,Connection_Type\n"))
	})

	t.Run("Undecodable Reply Shows Raw Text", func(t *testing.T) {
		mock.ResponseToReturn = "I could not produce a table, sorry."
		resp, err := client.Post(server.URL+"/connections", "application/x-www-form-urlencoded", nil)
		require.NoError(t, err)
		body, _ := io.ReadAll(resp.Body)
		resp.Body.Close()

		assert.Contains(t, string(body), "Connection Details (raw)")
		assert.Contains(t, string(body), "I could not produce a table, sorry.")
	})
}

func TestConnectionsRequiresResponse(t *testing.T) {
	mock := &llm.MockClient{}
	server, client := newTestServer(t, mock)

	resp, err := client.Post(server.URL+"/connections", "application/x-www-form-urlencoded", nil)
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()

	assert.Contains(t, string(body), "Please generate the block diagram")
	assert.Empty(t, mock.ReceivedPrompt)
}

func TestExportBOM(t *testing.T) {
	server, client := newTestServer(t, &llm.MockClient{})

	resp, err := client.Get(server.URL + "/export/bom.xlsx")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t,
		"application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
		resp.Header.Get("Content-Type"))

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	// XLSX files are zip archives
	assert.True(t, bytes.HasPrefix(body, []byte("PK")))
}

func TestExportConnectionsWithoutTable(t *testing.T) {
	server, client := newTestServer(t, &llm.MockClient{})

	resp, err := client.Get(server.URL + "/export/connections.json")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}
