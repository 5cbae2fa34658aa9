package server

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/ironsheep/blueprint-estimator/internal/config"
	"github.com/ironsheep/blueprint-estimator/internal/imaging"
	"github.com/ironsheep/blueprint-estimator/internal/logging"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
	"github.com/ironsheep/blueprint-estimator/internal/pipeline"
)

// Version is reported in serverInfo.
var Version = "0.1.0"

// Server handles MCP protocol communication
type Server struct {
	cfg    *config.Config
	cache  *imaging.ImageCache
	logger *logging.Logger

	in  io.Reader
	out io.Writer

	recMu sync.Mutex
	rec   ocr.Recognizer
}

// Option customizes a Server.
type Option func(*Server)

// WithRecognizer replaces the shared Tesseract engine.
func WithRecognizer(rec ocr.Recognizer) Option {
	return func(s *Server) { s.rec = rec }
}

// WithIO replaces stdin and stdout.
func WithIO(in io.Reader, out io.Writer) Option {
	return func(s *Server) {
		s.in = in
		s.out = out
	}
}

// MCPRequest represents an incoming JSON-RPC request
type MCPRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params,omitempty"`
}

// MCPResponse represents an outgoing JSON-RPC response
type MCPResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *MCPError   `json:"error,omitempty"`
}

// MCPError represents a JSON-RPC error
type MCPError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// New creates a new MCP server instance. cfg and logger may be nil.
func New(cfg *config.Config, logger *logging.Logger, opts ...Option) *Server {
	if cfg == nil {
		cfg = config.Default()
	}
	if logger == nil {
		logger = logging.Discard()
	}
	s := &Server{
		cfg:    cfg,
		cache:  imaging.NewImageCache(),
		logger: logger,
		in:     os.Stdin,
		out:    os.Stdout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// recognizer returns the configured recognizer, creating the shared
// Tesseract engine on first use.
func (s *Server) recognizer() (ocr.Recognizer, error) {
	s.recMu.Lock()
	defer s.recMu.Unlock()
	if s.rec != nil {
		return s.rec, nil
	}
	engine, err := ocr.Shared(pipeline.OCROptions(s.cfg.OCR))
	if err != nil {
		return nil, fmt.Errorf("failed to start OCR engine: %w", err)
	}
	s.rec = engine
	return s.rec, nil
}

// pipeline returns a pipeline bound to the server's recognizer.
func (s *Server) pipeline() (*pipeline.Pipeline, error) {
	rec, err := s.recognizer()
	if err != nil {
		return nil, err
	}
	return pipeline.New(s.cfg, rec, s.logger.With("pipeline")), nil
}

// Run starts the MCP server, reading requests line by line until EOF.
func (s *Server) Run() error {
	scanner := bufio.NewScanner(s.in)
	// Increase buffer size for large requests
	buf := make([]byte, 0, 64*1024)
	scanner.Buffer(buf, 1024*1024)

	encoder := json.NewEncoder(s.out)

	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}

		var req MCPRequest
		if err := json.Unmarshal(line, &req); err != nil {
			s.logger.Warn("Failed to parse request", "error", err)
			continue
		}

		resp := s.handleRequest(&req)
		if resp != nil {
			if err := encoder.Encode(resp); err != nil {
				s.logger.Error("Failed to encode response", "error", err)
			}
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scanner error: %w", err)
	}

	return nil
}

// handleRequest routes requests to appropriate handlers
func (s *Server) handleRequest(req *MCPRequest) *MCPResponse {
	switch req.Method {
	case "initialize":
		return s.handleInitialize(req)
	case "notifications/initialized":
		// Client acknowledgment, no response needed
		return nil
	case "tools/list":
		return s.handleToolsList(req)
	case "tools/call":
		return s.handleToolsCall(req)
	case "ping":
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Result:  map[string]interface{}{},
		}
	default:
		return &MCPResponse{
			JSONRPC: "2.0",
			ID:      req.ID,
			Error: &MCPError{
				Code:    -32601,
				Message: fmt.Sprintf("Method not found: %s", req.Method),
			},
		}
	}
}

// handleInitialize responds to the initialize request
func (s *Server) handleInitialize(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"protocolVersion": "2024-11-05",
			"capabilities": map[string]interface{}{
				"tools": map[string]interface{}{},
			},
			"serverInfo": map[string]interface{}{
				"name":    "blueprint-estimator",
				"version": Version,
			},
		},
	}
}
