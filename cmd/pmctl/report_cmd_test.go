package main

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReportPeoplePrintsTable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/access_token":
			_, _ = w.Write([]byte(`{"access_token":"tok","token_type":"Bearer","expires_in":60}`))
		case "/api/reportgenerator/space-1/2020-06-01":
			assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
			_, _ = w.Write([]byte(`[{"productName":"Baguette Bakery","personName":"Jane Smith","personRole":"THE BEST"}]`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"report", "people", "space-1", "--date", "2020-06-01", "--api", srv.URL, "--access-code", "jdoe", "--output", "table"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "PRODUCT")
	assert.Contains(t, out.String(), "Baguette Bakery")
	assert.Contains(t, out.String(), "Jane Smith")
}

func TestReportSpacesExplainsForbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"error":"forbidden"}`))
	}))
	defer srv.Close()

	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"report", "spaces", "--api", srv.URL, "--token", "tok"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not a report administrator")
}

func TestMigrateDownRejectsNegativeTarget(t *testing.T) {
	root := newRootCmd()
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})
	root.SetArgs([]string{"migrate", "down", "--target", "-1"})
	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be negative")
}

func TestReportDefaultsToJSONWhenNotATerminal(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`[{"person":{"id":1,"name":"Bob Barker"},"fromProductName":"unassigned","toProductName":"Baguette Bakery"}]`))
	}))
	defer srv.Close()

	var out bytes.Buffer
	root := newRootCmd()
	root.SetOut(&out)
	root.SetArgs([]string{"report", "reassignments", "space-1", "--api", srv.URL, "--token", "tok"})
	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), `"toProductName": "Baguette Bakery"`)
}
