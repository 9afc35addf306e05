// Package server exposes the rebalancing pipeline over HTTP: a YAML
// configuration is uploaded and the resulting report is returned as JSON.
package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quantfolio/rebalance/internal/config"
	"github.com/quantfolio/rebalance/internal/portfolio"
	"github.com/quantfolio/rebalance/internal/rebalancer"
	"github.com/quantfolio/rebalance/internal/solver"
	"github.com/quantfolio/rebalance/pkg/output"
	"go.uber.org/zap"
)

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
}

// NewHandler constructs the HTTP handler that serves the rebalancing API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	mux := http.NewServeMux()

	// Rebalancing API endpoint (YAML config upload)
	mux.HandleFunc("/api/rebalance", h.handleRebalance)

	// Version endpoint for client metadata
	mux.HandleFunc("/api/version", h.handleVersion)

	return mux
}

type rebalanceResponse struct {
	Report   *rebalancer.Report `json:"report"`
	CSV      string             `json:"csv"`
	Warnings []string           `json:"warnings,omitempty"`
	Duration string             `json:"duration"`
}

type errorResponse struct {
	Error string `json:"error"`
}

func (h *handler) handleRebalance(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	start := time.Now()
	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}

	configBytes, err := h.readConfig(r)
	if err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize))
			return
		}
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	conf, err := config.LoadConfigurationFromReader(bytes.NewReader(configBytes))
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	warnings := conf.ValidateConfiguration()

	problem, err := conf.ToProblem()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	timeout, err := conf.SolverTimeout()
	if err != nil {
		h.respondError(w, http.StatusBadRequest, err.Error())
		return
	}

	backend := solver.NewSimplexSolver(h.logger, conf.SolverTolerance(), timeout)
	runner, err := rebalancer.New(h.logger, backend, rebalancer.Options{
		AllowPartial: conf.Solver.AllowPartial,
	})
	if err != nil {
		h.respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	report, err := runner.Rebalance(r.Context(), problem)
	if err != nil {
		status := http.StatusInternalServerError
		var validationErr *portfolio.ValidationError
		if errors.As(err, &validationErr) {
			status = http.StatusBadRequest
		}
		var scenarioErr *rebalancer.ScenarioError
		if errors.As(err, &scenarioErr) {
			status = http.StatusUnprocessableEntity
		}
		h.respondError(w, status, err.Error())
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("rebalance computed",
		zap.String("op", "server.handleRebalance"),
		zap.Int("scenarios", len(report.Scenarios)),
		zap.Int("solverCalls", report.SolverCalls),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, rebalanceResponse{
		Report:   report,
		CSV:      output.CsvString(report),
		Warnings: warnings,
		Duration: elapsed.String(),
	})
}

// readConfig accepts either a multipart upload with a "file" field or a raw
// YAML request body.
func (h *handler) readConfig(r *http.Request) ([]byte, error) {
	contentType := r.Header.Get("Content-Type")
	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
			return nil, fmt.Errorf("failed to parse upload: %w", err)
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			return nil, fmt.Errorf("missing configuration file")
		}
		defer func() {
			if closeErr := file.Close(); closeErr != nil {
				h.logger.Warn("failed to close uploaded file",
					zap.String("op", "server.readConfig"),
					zap.Error(closeErr),
				)
			}
		}()
		var buf bytes.Buffer
		if _, err := io.Copy(&buf, file); err != nil {
			return nil, fmt.Errorf("failed to read configuration: %w", err)
		}
		return buf.Bytes(), nil
	}

	data, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read configuration: %w", err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("missing configuration body")
	}
	return data, nil
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) respondError(w http.ResponseWriter, status int, message string) {
	h.logger.Warn("request failed",
		zap.String("op", "server.respondError"),
		zap.Int("status", status),
		zap.String("error", message),
	)
	h.writeJSON(w, status, errorResponse{Error: message})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Warn("failed to encode response",
			zap.String("op", "server.writeJSON"),
			zap.Error(err),
		)
	}
}
