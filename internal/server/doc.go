// Package server implements the MCP (Model Context Protocol) server for blueprint estimation.
//
// The server is a JSON-RPC 2.0 endpoint that exposes the estimation pipeline
// and its individual stages to MCP-compatible clients, so an assistant can
// estimate a blueprint and inspect why a room came out the way it did.
//
// # Protocol
//
// The server communicates over stdio using JSON-RPC 2.0:
//   - Input: JSON-RPC requests on stdin (one per line)
//   - Output: JSON-RPC responses on stdout
//
// Supported MCP methods:
//   - initialize: Protocol handshake
//   - tools/list: Enumerate available tools
//   - tools/call: Execute a tool with arguments
//   - ping: Health check
//
// # Available Tools
//
// Estimation:
//   - blueprint_estimate: Per-room report as JSON, Markdown, HTML or PDF, or the full trace
//   - blueprint_open_bundle: Extract a zipped blueprint and estimate it or pass its result through
//
// Pipeline stages:
//   - blueprint_polygons: Room outlines parsed from model.svg
//   - blueprint_labels: Room labels recognized on the scaled raster
//   - blueprint_overlay: Outlines and labels drawn on the raster as PNG
//
// Diagnostics:
//   - image_dimensions: Raster size from the file header
//   - ocr_info: Tesseract availability and version
//
// # Recognizer
//
// The Tesseract engine is created on the first call that needs it and shared
// for the life of the process. Tests and embedders can supply their own with
// WithRecognizer.
//
// # Error Handling
//
// Tool execution errors are returned as JSON-RPC error responses with:
//   - code: -32000 (tool execution failure) or standard JSON-RPC codes
//   - message: Human-readable error description
//   - data: for processing failures, an object with error_code, message,
//     blueprint and details; otherwise the Go error string
//
// # Usage
//
//	srv := server.New(cfg, logger)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
