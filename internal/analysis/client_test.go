package analysis

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	id "odontoforense/pkg/domain"
	dErrors "odontoforense/pkg/domain-errors"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestParseAction(t *testing.T) {
	for raw, want := range map[string]Action{
		"resumo":                ActionResumo,
		"  Laudo_Preliminar  ":  ActionLaudoPreliminar,
		"identificacao_cruzada": ActionIdentificacaoCruzada,
	} {
		got, err := ParseAction(raw)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}

	_, err := ParseAction("resumo_executivo")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}

func TestHTTPClientAnalyze(t *testing.T) {
	caseID := id.CaseID(uuid.New())

	t.Run("forwards case and action, returns the answer verbatim", func(t *testing.T) {
		var got analyzeRequest
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			require.Equal(t, http.MethodPost, r.Method)
			require.Equal(t, "/analyze", r.URL.Path)
			require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
			json.NewEncoder(w).Encode(analyzeResponse{Analysis: "Resumo: duas vítimas, uma identificada."})
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, discardLogger())
		analysis, err := c.Analyze(context.Background(), caseID, "resumo")
		require.NoError(t, err)
		assert.Equal(t, "Resumo: duas vítimas, uma identificada.", analysis)
		assert.Equal(t, caseID.String(), got.CaseID)
		assert.Equal(t, "resumo", got.Action)
	})

	t.Run("collaborator error body surfaces as transport failure", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(analyzeResponse{Error: "model overloaded"})
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, discardLogger())
		_, err := c.Analyze(context.Background(), caseID, "laudo_preliminar")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
		assert.Contains(t, err.Error(), "model overloaded")
	})

	t.Run("unreachable endpoint is a single failed attempt", func(t *testing.T) {
		hits := 0
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits++
			w.WriteHeader(http.StatusBadGateway)
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, discardLogger())
		_, err := c.Analyze(context.Background(), caseID, "resumo")
		require.Error(t, err)
		assert.True(t, dErrors.HasCode(err, dErrors.CodeTransport))
		assert.Equal(t, 1, hits)
	})

	t.Run("invalid action never reaches the wire", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			t.Fatal("collaborator should not have been called")
		}))
		defer srv.Close()

		c := NewHTTPClient(srv.URL, discardLogger())
		_, err := c.Analyze(context.Background(), caseID, "diagnostico")
		assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
	})
}

func TestMockClientIsDeterministic(t *testing.T) {
	caseID := id.CaseID(uuid.New())
	m := NewMockClient()

	first, err := m.Analyze(context.Background(), caseID, "resumo")
	require.NoError(t, err)
	second, err := m.Analyze(context.Background(), caseID, "resumo")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.Contains(t, first, caseID.String())
	assert.Equal(t, []string{"resumo", "resumo"}, m.Calls())

	_, err = m.Analyze(context.Background(), caseID, "diagnostico")
	assert.True(t, dErrors.HasCode(err, dErrors.CodeValidation))
}
