package server

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/ironsheep/blueprint-estimator/internal/bundle"
	"github.com/ironsheep/blueprint-estimator/internal/detection"
	bperrors "github.com/ironsheep/blueprint-estimator/internal/errors"
	"github.com/ironsheep/blueprint-estimator/internal/geometry"
	"github.com/ironsheep/blueprint-estimator/internal/imaging"
	"github.com/ironsheep/blueprint-estimator/internal/ocr"
	"github.com/ironsheep/blueprint-estimator/internal/pipeline"
	"github.com/ironsheep/blueprint-estimator/internal/report"
)

// ToolCallParams represents the parameters for a tools/call MCP request.
type ToolCallParams struct {
	// Name is the tool to invoke (e.g., "blueprint_estimate").
	Name string `json:"name"`

	// Arguments contains the tool-specific parameters as JSON.
	Arguments json.RawMessage `json:"arguments"`
}

// handleToolsCall processes a tools/call request and executes the specified tool.
//
// The response wraps the tool result in MCP's content format:
//
//	{
//	  "content": [{"type": "text", "text": "<JSON result>"}]
//	}
//
// Tool execution errors return a JSON-RPC error response with code -32000.
// Processing errors carry their code and details in the error data.
func (s *Server) handleToolsCall(req *MCPRequest) *MCPResponse {
	var params ToolCallParams
	if err := json.Unmarshal(req.Params, &params); err != nil {
		return s.errorResponse(req.ID, -32602, "Invalid params", err.Error())
	}

	result, err := s.executeTool(params.Name, params.Arguments)
	if err != nil {
		s.logger.Warn("Tool failed", "tool", params.Name, "error", err)
		var perr *bperrors.ProcessingError
		if errors.As(err, &perr) {
			return s.errorResponse(req.ID, -32000, "Tool execution failed", perr.ToMap())
		}
		return s.errorResponse(req.ID, -32000, "Tool execution failed", err.Error())
	}

	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": mustMarshalJSON(result),
				},
			},
		},
	}
}

// executeTool dispatches tool execution to the appropriate handler function.
func (s *Server) executeTool(name string, args json.RawMessage) (interface{}, error) {
	if len(args) == 0 {
		args = json.RawMessage("{}")
	}

	switch name {
	// Estimation
	case "blueprint_estimate":
		return s.handleBlueprintEstimate(args)
	case "blueprint_open_bundle":
		return s.handleBlueprintOpenBundle(args)

	// Pipeline stages
	case "blueprint_polygons":
		return s.handleBlueprintPolygons(args)
	case "blueprint_labels":
		return s.handleBlueprintLabels(args)
	case "blueprint_overlay":
		return s.handleBlueprintOverlay(args)

	// Diagnostics
	case "image_dimensions":
		return s.handleImageDimensions(args)
	case "ocr_info":
		return ocr.GetInfo(pipeline.OCROptions(s.cfg.OCR)), nil

	default:
		return nil, fmt.Errorf("unknown tool: %s", name)
	}
}

// errorResponse creates a JSON-RPC error response with the given details.
func (s *Server) errorResponse(id interface{}, code int, message string, data interface{}) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      id,
		Error: &MCPError{
			Code:    code,
			Message: message,
			Data:    data,
		},
	}
}

// mustMarshalJSON converts a value to pretty-printed JSON string.
// Panics are suppressed; on marshal failure, returns an empty string.
func mustMarshalJSON(v interface{}) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}

// === Estimation Handlers ===

type folderArgs struct {
	Folder string `json:"folder"`
}

type blueprintEstimateArgs struct {
	Folder string `json:"folder"`
	Format string `json:"format"`
	Trace  bool   `json:"trace"`
}

// renderedReport is a non-JSON report rendering.
type renderedReport struct {
	Blueprint string `json:"blueprint"`
	Format    string `json:"format"`
	MimeType  string `json:"mime_type"`
	Encoding  string `json:"encoding,omitempty"`
	Content   string `json:"content"`
}

func (s *Server) handleBlueprintEstimate(args json.RawMessage) (interface{}, error) {
	var a blueprintEstimateArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	format, err := report.ParseFormat(a.Format)
	if err != nil {
		return nil, err
	}

	res, err := s.run(a.Folder)
	if err != nil {
		return nil, err
	}
	if a.Trace {
		return res, nil
	}
	if format == report.FormatJSON {
		return res.Report, nil
	}

	var buf bytes.Buffer
	if err := report.Render(&buf, res.Report, format); err != nil {
		return nil, err
	}
	out := &renderedReport{
		Blueprint: res.Report.Blueprint,
		Format:    string(format),
		MimeType:  format.MimeType(),
		Content:   buf.String(),
	}
	if format.Binary() {
		out.Encoding = "base64"
		out.Content = base64.StdEncoding.EncodeToString(buf.Bytes())
	}
	return out, nil
}

func (s *Server) run(folder string) (*pipeline.Result, error) {
	in, err := pipeline.ResolveInputs(folder)
	if err != nil {
		return nil, err
	}
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}
	return p.Run(in)
}

type openBundleArgs struct {
	Path    string `json:"path"`
	WorkDir string `json:"work_dir"`
}

type openBundleResult struct {
	Folder      string          `json:"folder"`
	PassThrough bool            `json:"pass_through"`
	Result      json.RawMessage `json:"result"`
}

func (s *Server) handleBlueprintOpenBundle(args json.RawMessage) (interface{}, error) {
	var a openBundleArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	p, err := s.pipeline()
	if err != nil {
		return nil, err
	}

	opened, err := bundle.Open(a.Path, a.WorkDir, p.ProduceReport)
	if err != nil {
		return nil, err
	}
	return &openBundleResult{
		Folder:      opened.Folder,
		PassThrough: opened.PassThrough(),
		Result:      opened.Raw,
	}, nil
}

// === Pipeline Stage Handlers ===

type polygonInfo struct {
	Index    int          `json:"index"`
	Vertices int          `json:"vertices"`
	Points   [][2]float64 `json:"points"`
	Area     float64      `json:"area"`
	Centroid [2]float64   `json:"centroid"`
	Bounds   [4]float64   `json:"bounds"` // min x, min y, max x, max y
}

type extentInfo struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type polygonsResult struct {
	Polygons []polygonInfo     `json:"polygons"`
	Count    int               `json:"count"`
	Skipped  int               `json:"skipped"`
	ViewBox  *geometry.ViewBox `json:"view_box,omitempty"`
	Extent   *extentInfo       `json:"extent,omitempty"`
}

func (s *Server) handleBlueprintPolygons(args json.RawMessage) (interface{}, error) {
	var a folderArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := pipeline.ResolveInputs(a.Folder)
	if err != nil {
		return nil, err
	}
	doc, err := geometry.ParseFile(in.VectorPath)
	if err != nil {
		return nil, err
	}

	out := &polygonsResult{
		Polygons: make([]polygonInfo, 0, len(doc.Polygons)),
		Count:    len(doc.Polygons),
		Skipped:  doc.Skipped,
		ViewBox:  doc.ViewBox,
	}
	if w, h, ok := doc.Extent(); ok {
		out.Extent = &extentInfo{Width: w, Height: h}
	}
	for i, p := range doc.Polygons {
		info := polygonInfo{Index: i, Vertices: p.Len(), Area: p.Area()}
		c := p.Centroid()
		info.Centroid = [2]float64{c[0], c[1]}
		b := p.Bound()
		info.Bounds = [4]float64{b.Min[0], b.Min[1], b.Max[0], b.Max[1]}
		for _, pt := range p.Points() {
			info.Points = append(info.Points, [2]float64{pt[0], pt[1]})
		}
		out.Polygons = append(out.Polygons, info)
	}
	return out, nil
}

type blueprintLabelsArgs struct {
	Folder        string   `json:"folder"`
	MinConfidence *float64 `json:"min_confidence"`
	Order         string   `json:"order"`
}

type labelsResult struct {
	ImagePath string            `json:"image_path"`
	Labels    []detection.Label `json:"labels"`
	Count     int               `json:"count"`
}

func (s *Server) handleBlueprintLabels(args json.RawMessage) (interface{}, error) {
	var a blueprintLabelsArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	in, err := pipeline.ResolveInputs(a.Folder)
	if err != nil {
		return nil, err
	}

	opts := pipeline.LabelOptions(s.cfg.Labels)
	if a.MinConfidence != nil {
		opts.MinConfidence = *a.MinConfidence
	}
	if a.Order != "" {
		if a.Order != detection.OrderDetection && a.Order != detection.OrderSpatial {
			return nil, fmt.Errorf("order must be %s or %s", detection.OrderDetection, detection.OrderSpatial)
		}
		opts.Order = a.Order
	}

	rec, err := s.recognizer()
	if err != nil {
		return nil, err
	}
	labels, err := detection.DetectLabels(rec, in.ImagePath, opts)
	if err != nil {
		return nil, err
	}
	return &labelsResult{ImagePath: in.ImagePath, Labels: labels, Count: len(labels)}, nil
}

type blueprintOverlayArgs struct {
	Folder         string `json:"folder"`
	UnmatchedColor string `json:"unmatched_color"`
}

func (s *Server) handleBlueprintOverlay(args json.RawMessage) (interface{}, error) {
	var a blueprintOverlayArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}

	res, err := s.run(a.Folder)
	if err != nil {
		return nil, err
	}
	img, err := s.cache.Load(res.Inputs.ImagePath)
	if err != nil {
		return nil, err
	}

	ov := res.Overlay()
	ov.UnmatchedColor = a.UnmatchedColor
	return imaging.RenderOverlayPNG(img, ov)
}

// === Diagnostic Handlers ===

type imagePathArgs struct {
	Path string `json:"path"`
}

func (s *Server) handleImageDimensions(args json.RawMessage) (interface{}, error) {
	var a imagePathArgs
	if err := json.Unmarshal(args, &a); err != nil {
		return nil, err
	}
	return imaging.ReadDimensions(a.Path)
}
