package server

import (
	"testing"
)

func TestGetToolDefinitions(t *testing.T) {
	tools := GetToolDefinitions()

	expectedTools := []string{
		"blueprint_estimate",
		"blueprint_open_bundle",
		"blueprint_polygons",
		"blueprint_labels",
		"blueprint_overlay",
		"image_dimensions",
		"ocr_info",
	}

	if len(tools) != len(expectedTools) {
		t.Errorf("got %d tools, want %d", len(tools), len(expectedTools))
	}

	toolMap := make(map[string]Tool)
	for _, tool := range tools {
		if _, dup := toolMap[tool.Name]; dup {
			t.Errorf("duplicate tool %s", tool.Name)
		}
		toolMap[tool.Name] = tool
	}

	for _, name := range expectedTools {
		if _, ok := toolMap[name]; !ok {
			t.Errorf("Expected tool %s not found", name)
		}
	}
}

func TestToolDefinitions_Structure(t *testing.T) {
	for _, tool := range GetToolDefinitions() {
		t.Run(tool.Name, func(t *testing.T) {
			if tool.Description == "" {
				t.Error("Tool description is empty")
			}
			if tool.InputSchema["type"] != "object" {
				t.Errorf("InputSchema type: got %v, want object", tool.InputSchema["type"])
			}

			props, ok := tool.InputSchema["properties"].(map[string]interface{})
			if !ok {
				t.Fatal("InputSchema.properties should be a map")
			}

			required, _ := tool.InputSchema["required"].([]string)
			for _, r := range required {
				if _, ok := props[r]; !ok {
					t.Errorf("required field %s not in properties", r)
				}
			}
		})
	}
}

func TestToolDefinitions_FolderTools(t *testing.T) {
	for _, name := range []string{"blueprint_estimate", "blueprint_polygons", "blueprint_labels", "blueprint_overlay"} {
		var found *Tool
		for _, tool := range GetToolDefinitions() {
			if tool.Name == name {
				tool := tool
				found = &tool
			}
		}
		if found == nil {
			t.Fatalf("tool %s missing", name)
		}
		required, _ := found.InputSchema["required"].([]string)
		if len(required) != 1 || required[0] != "folder" {
			t.Errorf("%s: required = %v, want [folder]", name, required)
		}
	}
}
