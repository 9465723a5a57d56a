package http

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/eanfill/backend/config"
	"github.com/eanfill/backend/internal/domain"
)

// TestMain sets up test environment before running tests
func TestMain(m *testing.M) {
	// Set Gin to test mode once for all tests
	gin.SetMode(gin.TestMode)

	os.Exit(m.Run())
}

// stubAutofiller is a canned pipeline for handler tests
type stubAutofiller struct {
	record *domain.ProductRecord
	err    error
	query  *domain.ProductQuery
}

func (s *stubAutofiller) Autofill(ctx context.Context, query *domain.ProductQuery) (*domain.ProductRecord, error) {
	s.query = query
	if s.err != nil {
		return nil, s.err
	}
	return s.record, nil
}

// setupTestRouter creates a test router around a stubbed pipeline
func setupTestRouter(stub *stubAutofiller) *gin.Engine {
	cfg := &config.Config{
		Server: config.ServerConfig{
			Port:           "8080",
			Environment:    "test",
			AllowedOrigins: []string{"*"},
		},
	}

	handler := NewHandler(stub)
	return SetupRouter(cfg, handler)
}

func seededRecord(identifier string) *domain.ProductRecord {
	return &domain.ProductRecord{
		Name:       "Produto Teste",
		Identifier: identifier,
		Sources:    []string{},
		Confidence: 0.20,
	}
}

func TestHealthCheckEndpoint(t *testing.T) {
	router := setupTestRouter(&stubAutofiller{})

	req, _ := http.NewRequest("GET", "/health", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
	}

	var response map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &response); err != nil {
		t.Fatalf("Failed to unmarshal response: %v", err)
	}
	if response["status"] != "healthy" {
		t.Errorf("status = %v, want healthy", response["status"])
	}
	if response["service"] != "eanfill-backend" {
		t.Errorf("service = %v, want eanfill-backend", response["service"])
	}
}

func TestAutofillEndpoint(t *testing.T) {
	t.Run("returns the resolved record", func(t *testing.T) {
		stub := &stubAutofiller{record: seededRecord("7891234567895")}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/api/v1/autofill?ean=7891234567895&name=Produto+Teste", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d, body: %s", w.Code, http.StatusOK, w.Body.String())
		}

		if stub.query == nil {
			t.Fatal("pipeline was not invoked")
		}
		if stub.query.Identifier != "7891234567895" {
			t.Errorf("Identifier = %q", stub.query.Identifier)
		}
		if stub.query.KnownName != "Produto Teste" {
			t.Errorf("KnownName = %q", stub.query.KnownName)
		}

		var record domain.ProductRecord
		if err := json.Unmarshal(w.Body.Bytes(), &record); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}
		if record.Name != "Produto Teste" {
			t.Errorf("name = %q", record.Name)
		}
		if record.Confidence != 0.20 {
			t.Errorf("confidence = %v, want 0.20", record.Confidence)
		}
	})

	t.Run("accepts the legacy ean13 parameter", func(t *testing.T) {
		stub := &stubAutofiller{record: seededRecord("7891234567895")}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/api/v1/autofill?ean13=7891234567895", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Fatalf("Status = %d, want %d", w.Code, http.StatusOK)
		}
		if stub.query.Identifier != "7891234567895" {
			t.Errorf("Identifier = %q", stub.query.Identifier)
		}
	})

	t.Run("serves the legacy root path", func(t *testing.T) {
		stub := &stubAutofiller{record: seededRecord("7891234567895")}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/autofill?ean=7891234567895", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusOK {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusOK)
		}
	})

	t.Run("invalid identifier maps to 400", func(t *testing.T) {
		stub := &stubAutofiller{err: domain.ErrInvalidIdentifier}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/api/v1/autofill?ean=123", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusBadRequest)
		}

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		if response["error"] != "Parâmetros inválidos" {
			t.Errorf("error = %v", response["error"])
		}
	})

	t.Run("pipeline defect maps to 500", func(t *testing.T) {
		stub := &stubAutofiller{err: context.DeadlineExceeded}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/api/v1/autofill?ean=7891234567895", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		if w.Code != http.StatusInternalServerError {
			t.Errorf("Status = %d, want %d", w.Code, http.StatusInternalServerError)
		}

		var response map[string]interface{}
		json.Unmarshal(w.Body.Bytes(), &response)
		if response["error"] != "Falha interna no autofill" {
			t.Errorf("error = %v", response["error"])
		}
	})

	t.Run("optional fields serialize as null and empty list", func(t *testing.T) {
		stub := &stubAutofiller{record: seededRecord("7891234567895")}
		router := setupTestRouter(stub)

		req, _ := http.NewRequest("GET", "/api/v1/autofill?ean=7891234567895", nil)
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)

		var raw map[string]json.RawMessage
		if err := json.Unmarshal(w.Body.Bytes(), &raw); err != nil {
			t.Fatalf("Failed to unmarshal response: %v", err)
		}

		for _, field := range []string{"weight_kg", "width_cm", "height_cm", "length_cm"} {
			if string(raw[field]) != "null" {
				t.Errorf("%s = %s, want null", field, raw[field])
			}
		}
		if string(raw["sources"]) != "[]" {
			t.Errorf("sources = %s, want []", raw["sources"])
		}
		if string(raw["brand"]) != `""` {
			t.Errorf("brand = %s, want empty string", raw["brand"])
		}
	})
}

func TestUnknownRouteReturns404(t *testing.T) {
	router := setupTestRouter(&stubAutofiller{})

	req, _ := http.NewRequest("GET", "/api/v1/unknown", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("Status = %d, want %d", w.Code, http.StatusNotFound)
	}
}
