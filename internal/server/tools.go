package server

// Tool represents an MCP tool definition
type Tool struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

var folderProperty = map[string]interface{}{
	"type":        "string",
	"description": "Absolute path to a blueprint folder containing model.svg and a *scaled* raster image",
}

// GetToolDefinitions returns all available tools
func GetToolDefinitions() []Tool {
	return []Tool{
		// Estimation
		{
			Name:        "blueprint_estimate",
			Description: "Estimate per-room materials (floor area, flooring, paint, drywall) for a blueprint folder. Returns the report in the requested format; with trace=true returns every intermediate result (labels, polygon assignments, alignment check) as JSON.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": folderProperty,
					"format": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"json", "markdown", "html", "pdf"},
						"description": "Report format. PDF content is base64 encoded. Default json",
						"default":     "json",
					},
					"trace": map[string]interface{}{
						"type":        "boolean",
						"description": "Return the full pipeline trace instead of the report. Default false",
						"default":     false,
					},
				},
				"required": []string{"folder"},
			},
		},
		{
			Name:        "blueprint_open_bundle",
			Description: "Extract a zipped blueprint. If the zip carries a result .json it is returned unchanged; otherwise the blueprint inside is estimated.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the .zip file",
					},
					"work_dir": map[string]interface{}{
						"type":        "string",
						"description": "Directory to extract into. Default: a new temporary directory",
					},
				},
				"required": []string{"path"},
			},
		},

		// Pipeline stages
		{
			Name:        "blueprint_polygons",
			Description: "List the room outlines parsed from model.svg with their area, centroid and bounding box, plus the declared drawing size.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": folderProperty,
				},
				"required": []string{"folder"},
			},
		},
		{
			Name:        "blueprint_labels",
			Description: "Run text recognition on the scaled raster and list the room labels that pass the confidence filter, with their names and anchor points.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": folderProperty,
					"min_confidence": map[string]interface{}{
						"type":        "number",
						"description": "Confidence a detection must exceed (0-1). Default from configuration (0.6)",
						"default":     0.6,
					},
					"order": map[string]interface{}{
						"type":        "string",
						"enum":        []string{"detection", "spatial"},
						"description": "Naming order: recognizer order, or top-to-bottom then left-to-right",
						"default":     "detection",
					},
				},
				"required": []string{"folder"},
			},
		},
		{
			Name:        "blueprint_overlay",
			Description: "Estimate a blueprint and draw its room outlines and label anchors on the raster, each room in its own color. Returns a base64-encoded PNG. Use this to check that labels landed in the right rooms.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"folder": folderProperty,
					"unmatched_color": map[string]interface{}{
						"type":        "string",
						"description": "Hex color for polygons without a room. Default #808080",
						"default":     "#808080",
					},
				},
				"required": []string{"folder"},
			},
		},

		// Diagnostics
		{
			Name:        "image_dimensions",
			Description: "Get the width, height and format of an image file without decoding it.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Absolute path to the image file",
					},
				},
				"required": []string{"path"},
			},
		},
		{
			Name:        "ocr_info",
			Description: "Report whether the Tesseract engine is available, with its version and configured language.",
			InputSchema: map[string]interface{}{
				"type":       "object",
				"properties": map[string]interface{}{},
			},
		},
	}
}

// handleToolsList returns the list of available tools
func (s *Server) handleToolsList(req *MCPRequest) *MCPResponse {
	return &MCPResponse{
		JSONRPC: "2.0",
		ID:      req.ID,
		Result: map[string]interface{}{
			"tools": GetToolDefinitions(),
		},
	}
}
