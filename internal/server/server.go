package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/isolation-scheme/internal/config"
	"github.com/iwvelando/isolation-scheme/internal/observability/metrics"
	"github.com/iwvelando/isolation-scheme/internal/observability/tracing"
	"github.com/iwvelando/isolation-scheme/internal/scheme"
	"github.com/iwvelando/isolation-scheme/pkg/constants"
	"github.com/iwvelando/isolation-scheme/pkg/isolation"
	"github.com/iwvelando/isolation-scheme/pkg/output"
	"github.com/iwvelando/isolation-scheme/pkg/windowtable"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

// RequestIDHeader carries the request id in both directions.
const RequestIDHeader = "X-Request-ID"

type handler struct {
	logger        *zap.Logger
	maxUploadSize int64
	version       string
	metrics       *metrics.SchemeMetrics
}

type contextKey struct{}

// NewHandler constructs the HTTP handler that serves the isolation scheme API.
func NewHandler(logger *zap.Logger, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, maxUploadSize: maxUploadSize, version: trimmedVersion}

	m, err := metrics.NewSchemeMetrics()
	if err != nil {
		logger.Warn("failed to create metrics, continuing without them",
			zap.String("op", "server.NewHandler"),
			zap.Error(err),
		)
	}
	h.metrics = m

	mux := http.NewServeMux()

	// Window generation preview
	mux.HandleFunc("/api/generate", h.instrument("/api/generate", http.MethodPost, h.handleGenerate))

	// Hand-entered scheme validation
	mux.HandleFunc("/api/validate", h.instrument("/api/validate", http.MethodPost, h.handleValidate))

	// Isolation/extraction view switch
	mux.HandleFunc("/api/convert", h.instrument("/api/convert", http.MethodPost, h.handleConvert))

	// Configuration upload
	mux.HandleFunc("/api/schemes", h.instrument("/api/schemes", http.MethodPost, h.handleSchemes))

	// Config serialization for downloads
	mux.HandleFunc("/api/export", h.instrument("/api/export", http.MethodPost, h.handleConfigExport))

	mux.HandleFunc("/api/version", h.instrument("/api/version", http.MethodGet, h.handleVersion))

	return mux
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

// instrument checks the method, assigns a request id and records a span and
// metrics for the request.
func (h *handler) instrument(route, method string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		requestID := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, requestID)

		ctx, span := tracing.StartRequestSpan(r.Context(), route, requestID)
		defer span.End()

		logger := h.logger.With(zap.String("requestId", requestID))
		ctx = context.WithValue(ctx, contextKey{}, logger)

		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		if r.Method != method {
			http.Error(rec, http.StatusText(http.StatusMethodNotAllowed), http.StatusMethodNotAllowed)
		} else {
			next(rec, r.WithContext(ctx))
		}

		tracing.RecordRequestResult(span, rec.status)
		if h.metrics != nil {
			h.metrics.RecordRequest(ctx, route, rec.status, time.Since(start))
		}
	}
}

func (h *handler) requestLogger(ctx context.Context) *zap.Logger {
	if logger, ok := ctx.Value(contextKey{}).(*zap.Logger); ok {
		return logger
	}
	return h.logger
}

// errorDetail is the structured form of a rejected request.
type errorDetail struct {
	Kind    string             `json:"kind"`
	Message string             `json:"message"`
	Param   string             `json:"param,omitempty"`
	Index   *int               `json:"index,omitempty"`
	Field   string             `json:"field,omitempty"`
	Header  string             `json:"header,omitempty"`
	Line    int                `json:"line,omitempty"`
	Sorted  []isolation.Window `json:"sorted,omitempty"`
}

// describeError maps the engine's typed errors onto an errorDetail. ok is
// false for errors that are not input problems.
func describeError(err error) (detail errorDetail, ok bool) {
	detail.Message = err.Error()

	var paramErr *isolation.ParameterError
	var schemeErr *isolation.SchemeError
	var rowErr *scheme.RowError
	var parseErr *windowtable.ParseError
	switch {
	case errors.As(err, &paramErr):
		detail.Kind = "parameter"
		detail.Param = paramErr.Param
	case errors.As(err, &rowErr):
		detail.Kind = "incomplete_row"
		detail.Index = isolation.Int(rowErr.Row)
		detail.Field = rowErr.Field.String()
		detail.Header = rowErr.Header
	case errors.As(err, &parseErr):
		detail.Kind = "parse"
		detail.Line = parseErr.Line
		detail.Header = parseErr.Column
	case errors.As(err, &schemeErr):
		detail.Kind = schemeErr.Kind.String()
		if schemeErr.Index >= 0 {
			detail.Index = isolation.Int(schemeErr.Index)
		}
		detail.Sorted = schemeErr.Sorted
	default:
		return detail, false
	}
	return detail, true
}

type generateRequest struct {
	isolation.GenerationParameters
	SpecialHandling isolation.SpecialHandling `json:"specialHandling"`
}

type generateResponse struct {
	Windows         []isolation.Window        `json:"windows"`
	Count           int                       `json:"count"`
	SpecialHandling isolation.SpecialHandling `json:"specialHandling"`
	Visibility      isolation.Visibility      `json:"visibility"`
	Warnings        []string                  `json:"warnings,omitempty"`
	ValidationError *errorDetail              `json:"validationError,omitempty"`
}

// handleGenerate previews a generation. Windows are always returned; a
// problem with the parameters or the resulting scheme is reported alongside.
func (h *handler) handleGenerate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleGenerate"
	ctx := r.Context()

	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode generation parameters: %v", err), op)
		return
	}

	params := req.GenerationParameters
	handling := req.SpecialHandling
	if params.Multiplexed && !handling.IsMultiplexed() {
		handling = isolation.HandlingMsx
	}
	params.Multiplexed = params.Multiplexed || handling.IsMultiplexed()

	ctx, span := tracing.StartGenerateSpan(ctx, params)
	windows := isolation.Generate(params)

	err := params.Validate()
	if err == nil {
		s := isolation.Scheme{Windows: windows, SpecialHandling: handling}
		if handling.IsMultiplexed() {
			s.WindowsPerScan = isolation.Int(params.WindowsPerScan)
		}
		err = isolation.ValidateScheme(s, isolation.ValidationOptions{RequireTarget: params.GenerateTarget})
	}
	tracing.RecordGenerateResult(span, len(windows), err)
	span.End()

	if windows == nil {
		windows = []isolation.Window{}
	}
	resp := generateResponse{
		Windows:         windows,
		Count:           len(windows),
		SpecialHandling: handling,
		Visibility:      isolation.ColumnVisibility(params.MarginMode, params.GenerateTarget, handling),
		Warnings:        params.Warnings(),
	}
	if err != nil {
		detail, _ := describeError(err)
		resp.ValidationError = &detail
		h.recordValidationFailure(ctx, detail.Kind)
	}
	if h.metrics != nil {
		h.metrics.RecordWindowsGenerated(ctx, handling.String(), len(windows))
	}

	h.requestLogger(ctx).Debug(fmt.Sprintf("generated %d windows", len(windows)),
		zap.String("op", op),
	)
	h.writeJSON(w, http.StatusOK, resp)
}

type validateRequest struct {
	Name                 string                    `json:"name"`
	Rows                 []isolation.Row           `json:"rows"`
	Paste                string                    `json:"paste,omitempty"`
	Margins              isolation.MarginMode      `json:"margins"`
	WindowType           isolation.ViewMode        `json:"windowType"`
	SpecifyTarget        bool                      `json:"specifyTarget"`
	SpecialHandling      isolation.SpecialHandling `json:"specialHandling"`
	WindowsPerScan       *int                      `json:"windowsPerScan,omitempty"`
	PrecursorFilter      *float64                  `json:"precursorFilter,omitempty"`
	PrecursorRightFilter *float64                  `json:"precursorRightFilter,omitempty"`
}

type schemeResponse struct {
	Name                 string                    `json:"name"`
	Source               string                    `json:"source"`
	SpecialHandling      isolation.SpecialHandling `json:"specialHandling"`
	Deconvolution        string                    `json:"deconvolution"`
	WindowsPerScan       *int                      `json:"windowsPerScan,omitempty"`
	Windows              []isolation.Window        `json:"windows"`
	PrecursorFilter      *float64                  `json:"precursorFilter,omitempty"`
	PrecursorRightFilter *float64                  `json:"precursorRightFilter,omitempty"`
	Visibility           isolation.Visibility      `json:"visibility"`
	Warnings             []string                  `json:"warnings,omitempty"`
}

func newSchemeResponse(result scheme.Result) schemeResponse {
	s := result.Scheme
	windows := s.Windows
	if windows == nil {
		windows = []isolation.Window{}
	}
	return schemeResponse{
		Name:                 result.Name,
		Source:               result.Source,
		SpecialHandling:      s.SpecialHandling,
		Deconvolution:        s.SpecialHandling.Deconvolution(),
		WindowsPerScan:       s.WindowsPerScan,
		Windows:              windows,
		PrecursorFilter:      s.PrecursorFilter,
		PrecursorRightFilter: s.PrecursorRightFilter,
		Visibility:           result.Visibility(),
		Warnings:             result.Warnings,
	}
}

// handleValidate checks a hand-entered scheme. Pasted text is read with the
// same column layout as the rows and appended to them.
func (h *handler) handleValidate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleValidate"
	ctx := r.Context()

	var req validateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode scheme: %v", err), op)
		return
	}

	layout := config.Layout{
		MarginMode:      req.Margins,
		ViewMode:        req.WindowType,
		SpecialHandling: req.SpecialHandling,
		RequireTarget:   req.SpecifyTarget,
	}

	rows := req.Rows
	if strings.TrimSpace(req.Paste) != "" {
		pasted, err := windowtable.Parse(strings.NewReader(req.Paste), windowtable.Layout{
			RequireTarget: layout.RequireTarget,
			MarginMode:    layout.MarginMode,
		})
		if err != nil {
			h.respondValidation(w, r, err, op)
			return
		}
		rows = append(rows, pasted...)
	}

	ctx, span := tracing.StartValidateSpan(ctx, req.Name, len(rows))
	result, err := scheme.BuildEntry(h.requestLogger(ctx), scheme.Entry{
		Name:                 req.Name,
		Layout:               layout,
		Rows:                 rows,
		WindowsPerScan:       req.WindowsPerScan,
		PrecursorFilter:      req.PrecursorFilter,
		PrecursorRightFilter: req.PrecursorRightFilter,
	})
	if err == nil {
		err = isolation.ValidateSchemeNames([]string{req.Name})
	}
	tracing.RecordResult(span, err)
	span.End()

	if err != nil {
		h.respondValidation(w, r.WithContext(ctx), err, op)
		return
	}

	h.writeJSON(w, http.StatusOK, newSchemeResponse(result))
}

type convertRequest struct {
	Rows    []isolation.Row      `json:"rows"`
	Margins isolation.MarginMode `json:"margins"`
	From    isolation.ViewMode   `json:"from"`
	To      isolation.ViewMode   `json:"to"`
}

type convertResponse struct {
	Rows []isolation.Row `json:"rows"`
}

func (h *handler) handleConvert(w http.ResponseWriter, r *http.Request) {
	var req convertRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode rows: %v", err), "server.handleConvert")
		return
	}

	h.writeJSON(w, http.StatusOK, convertResponse{
		Rows: isolation.NormalizeRows(req.Rows, req.From, req.To, req.Margins),
	})
}

type schemesResponse struct {
	Schemes  []schemeResponse `json:"schemes"`
	CSV      string           `json:"csv"`
	YAML     string           `json:"yaml"`
	Warnings []string         `json:"warnings,omitempty"`
	Duration string           `json:"duration"`
}

// handleSchemes builds every scheme in an uploaded configuration.
func (h *handler) handleSchemes(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleSchemes"
	start := time.Now()

	if h.maxUploadSize > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	}
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondErrorWithOp(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.requestLogger(r.Context()).Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	cfg, err := config.LoadConfigurationFromReader(bytes.NewReader(buf.Bytes()))
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}
	for i, entry := range cfg.Schemes {
		if entry.WindowsFile != "" {
			h.respondErrorWithOp(w, r, http.StatusBadRequest,
				fmt.Sprintf("scheme '%s': windowsFile is not supported in uploaded configurations", entry.DisplayName(i)), op)
			return
		}
	}

	warnings := cfg.ValidateConfiguration()

	ctx, span := tracing.StartBuildSpan(r.Context(), len(cfg.Generations), len(cfg.Schemes))
	results, err := scheme.BuildSchemes(h.requestLogger(ctx), *cfg)
	tracing.RecordResult(span, err)
	span.End()
	if err != nil {
		h.respondValidation(w, r.WithContext(ctx), err, op)
		return
	}

	yamlOut, err := output.YAMLString(results)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	csvOut, err := output.CsvString(results)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	response := schemesResponse{
		Schemes:  make([]schemeResponse, 0, len(results)),
		CSV:      csvOut,
		YAML:     yamlOut,
		Warnings: warnings,
		Duration: elapsed.String(),
	}
	for _, result := range results {
		response.Schemes = append(response.Schemes, newSchemeResponse(result))
		if result.Source == constants.SourceGenerated && h.metrics != nil {
			h.metrics.RecordWindowsGenerated(ctx, result.Scheme.SpecialHandling.String(), len(result.Scheme.Windows))
		}
	}

	h.requestLogger(ctx).Info("isolation schemes built",
		zap.String("op", op),
		zap.Int("schemes", len(response.Schemes)),
		zap.Duration("duration", elapsed),
	)

	h.writeJSON(w, http.StatusOK, response)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleConfigExport(w http.ResponseWriter, r *http.Request) {
	var payload map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode configuration: %v", err), "server.handleConfigExport")
		return
	}
	if payload == nil {
		payload = make(map[string]interface{})
	}

	yamlBytes, err := marshalOrderedConfigYAML(payload)
	if err != nil {
		h.respondErrorWithOp(w, r, http.StatusBadRequest, fmt.Sprintf("failed to encode configuration: %v", err), "server.handleConfigExport")
		return
	}

	h.writeJSON(w, http.StatusOK, map[string]string{
		"configYaml": string(yamlBytes),
	})
}

// marshalOrderedConfigYAML writes the known sections in configuration order
// followed by any other keys sorted by name.
func marshalOrderedConfigYAML(payload map[string]interface{}) ([]byte, error) {
	items := make([]orderedItem, 0, len(payload))
	seen := make(map[string]struct{})

	for _, key := range []string{"logging", "output", "generations", "schemes"} {
		if value, ok := payload[key]; ok {
			items = append(items, orderedItem{key: key, value: value})
			seen[key] = struct{}{}
		}
	}

	remainingKeys := make([]string, 0, len(payload))
	for key := range payload {
		if _, already := seen[key]; already {
			continue
		}
		remainingKeys = append(remainingKeys, key)
	}
	sort.Strings(remainingKeys)
	for _, key := range remainingKeys {
		items = append(items, orderedItem{key: key, value: payload[key]})
	}

	ordered := orderedConfig{items: items}
	return yaml.Marshal(ordered)
}

type orderedConfig struct {
	items []orderedItem
}

type orderedItem struct {
	key   string
	value interface{}
}

func (o orderedConfig) MarshalYAML() (interface{}, error) {
	mapNode := &yaml.Node{
		Kind: yaml.MappingNode,
		Tag:  "!!map",
	}

	for _, item := range o.items {
		keyNode := &yaml.Node{
			Kind:  yaml.ScalarNode,
			Tag:   "!!str",
			Value: item.key,
		}
		valueNode := &yaml.Node{}
		if err := valueNode.Encode(item.value); err != nil {
			return nil, err
		}
		mapNode.Content = append(mapNode.Content, keyNode, valueNode)
	}

	return mapNode, nil
}

// respondValidation reports input errors as 422 with their structured
// detail, and anything else as 500.
func (h *handler) respondValidation(w http.ResponseWriter, r *http.Request, err error, op string) {
	detail, ok := describeError(err)
	if !ok {
		h.respondErrorWithOp(w, r, http.StatusInternalServerError, err.Error(), op)
		return
	}
	h.recordValidationFailure(r.Context(), detail.Kind)

	h.requestLogger(r.Context()).Info("scheme rejected",
		zap.String("op", op),
		zap.String("kind", detail.Kind),
		zap.String("error", detail.Message),
	)
	h.writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
		"error":   detail.Message,
		"details": detail,
	})
}

func (h *handler) recordValidationFailure(ctx context.Context, kind string) {
	if h.metrics != nil {
		h.metrics.RecordValidationFailure(ctx, kind)
	}
}

func (h *handler) respondErrorWithOp(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.requestLogger(r.Context()).Error("isolation scheme request failed",
		zap.String("op", op),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
