package server

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const validConfigYAML = `---
portfolio:
  name: retail_book
  riskWeightCap: 0.55
  confidenceLevel: 0.975
  objectiveTolerance: 5.0
  assets:
    - name: A1
      segments:
        - name: s1
          exposure: 100
          profitability: 0.05
          riskWeight: 0.4
          sellCost: 0.01
          originationCost: 0.02
    - name: A2
      segments:
        - name: s1
          exposure: 200
          profitability: 0.06
          riskWeight: 0.5
          sellCost: 0.01
          originationCost: 0.01
scenarios:
  - name: baseline
    priority: 1
    assets:
      - name: A1
        stdevProfitability: 0.1
      - name: A2
        stdevProfitability: 0.2
`

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(NewHandler(nil, 1024*1024, "test-version"))
	t.Cleanup(srv.Close)
	return srv
}

func TestVersionEndpoint(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/version")
	if err != nil {
		t.Fatalf("GET /api/version error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
	var payload map[string]string
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload["version"] != "test-version" {
		t.Errorf("version = %q, want test-version", payload["version"])
	}
}

func TestVersionEndpointRejectsPost(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/version", "text/plain", nil)
	if err != nil {
		t.Fatalf("POST /api/version error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRebalanceRawBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/rebalance", "application/yaml",
		strings.NewReader(validConfigYAML))
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}

	var payload rebalanceResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if payload.Report == nil {
		t.Fatal("response carries no report")
	}
	if payload.Report.SolverCalls != 1 {
		t.Errorf("solver calls = %d, want 1", payload.Report.SolverCalls)
	}
	if len(payload.Report.Decisions) != 2 {
		t.Errorf("report has %d decisions, want 2", len(payload.Report.Decisions))
	}
	if !strings.Contains(payload.CSV, `"asset","segment"`) {
		t.Errorf("response CSV missing header:\n%s", payload.CSV)
	}
	if payload.Duration == "" {
		t.Error("response carries no duration")
	}
}

func TestRebalanceMultipartUpload(t *testing.T) {
	srv := newTestServer(t)

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", "config.yaml")
	if err != nil {
		t.Fatalf("creating form file: %v", err)
	}
	if _, err := part.Write([]byte(validConfigYAML)); err != nil {
		t.Fatalf("writing form file: %v", err)
	}
	writer.Close()

	resp, err := http.Post(srv.URL+"/api/rebalance", writer.FormDataContentType(), &body)
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d, want 200", resp.StatusCode)
	}
}

func TestRebalanceRejectsGet(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Get(srv.URL + "/api/rebalance")
	if err != nil {
		t.Fatalf("GET /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("status = %d, want 405", resp.StatusCode)
	}
}

func TestRebalanceEmptyBody(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/rebalance", "application/yaml", strings.NewReader(""))
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRebalanceMalformedYAML(t *testing.T) {
	srv := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/rebalance", "application/yaml",
		strings.NewReader("{not yaml"))
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}

	var payload errorResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		t.Fatalf("decoding error response: %v", err)
	}
	if payload.Error == "" {
		t.Error("error response carries no message")
	}
}

func TestRebalanceInvalidProblem(t *testing.T) {
	srv := newTestServer(t)

	// Duplicate scenario priorities fail domain validation.
	invalid := `---
portfolio:
  name: broken
  riskWeightCap: 0.5
  assets:
    - name: A1
      segments:
        - name: s1
          exposure: 100
          profitability: 0.05
          riskWeight: 0.4
scenarios:
  - name: first
    priority: 1
    assets:
      - name: A1
        stdevProfitability: 0.1
  - name: second
    priority: 1
    assets:
      - name: A1
        stdevProfitability: 0.2
`
	resp, err := http.Post(srv.URL+"/api/rebalance", "application/yaml", strings.NewReader(invalid))
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", resp.StatusCode)
	}
}

func TestRebalanceUploadTooLarge(t *testing.T) {
	srv := httptest.NewServer(NewHandler(nil, 64, "test-version"))
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/rebalance", "application/yaml",
		strings.NewReader(validConfigYAML))
	if err != nil {
		t.Fatalf("POST /api/rebalance error = %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusRequestEntityTooLarge {
		t.Errorf("status = %d, want 413", resp.StatusCode)
	}
}
