package cache

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
)

func TestExporter_Export(t *testing.T) {
	ctx := context.Background()
	c := NewInMemoryCache(16, 3600)
	c.Set(ctx, "key2", "value2")
	c.Set(ctx, "key1", "value1")

	var buf bytes.Buffer
	n, err := NewExporter(c).Export(ctx, &buf, map[string]string{"target": "DE"})
	if err != nil {
		t.Fatalf("Export failed: %v", err)
	}
	if n != 2 {
		t.Errorf("Expected 2 exported, got %d", n)
	}

	var export ExportFormat
	if err := json.Unmarshal(buf.Bytes(), &export); err != nil {
		t.Fatalf("Failed to parse export: %v", err)
	}

	if export.Version != ExportVersion {
		t.Errorf("Expected version %s, got %s", ExportVersion, export.Version)
	}
	if export.Metadata["target"] != "DE" {
		t.Errorf("Expected metadata to be kept, got %v", export.Metadata)
	}
	if len(export.Entries) != 2 || export.Entries[0].Key != "key1" {
		t.Errorf("Expected entries sorted by key, got %v", export.Entries)
	}
}

type brokenLister struct{ *InMemoryCache }

func (brokenLister) Entries(context.Context) (map[string]string, error) {
	return nil, errors.New("scan failed")
}

func TestExporter_ListError(t *testing.T) {
	var buf bytes.Buffer
	_, err := NewExporter(brokenLister{NewInMemoryCache(0, 0)}).Export(context.Background(), &buf, nil)
	if err == nil || !strings.Contains(err.Error(), "scan failed") {
		t.Errorf("Expected lister error, got %v", err)
	}
}

func TestImporter_Import(t *testing.T) {
	ctx := context.Background()
	jsonData := `{
		"version": "1.0",
		"exported_at": "2026-01-01T00:00:00Z",
		"entries": [
			{"key": "key1", "value": "value1"},
			{"key": "key2", "value": "value2"},
			{"key": "", "value": "orphan"}
		]
	}`

	c := NewInMemoryCache(16, 3600)
	result, err := NewImporter(c).Import(ctx, strings.NewReader(jsonData))
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if result.Failed != 1 {
		t.Errorf("Expected 1 failed, got %d", result.Failed)
	}

	if val, ok := c.Get(ctx, "key1"); !ok || val != "value1" {
		t.Errorf("key1 not found or wrong value: %s", val)
	}
}

func TestExportImport_FileRoundTrip(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "cache.json")

	src := NewInMemoryCache(16, 3600)
	src.Set(ctx, "hash1:EN:DE", `{"data":"Hallo"}`)
	src.Set(ctx, "hash2:EN:DE", `{"data":"Welt"}`)

	if _, err := NewExporter(src).ExportToFile(ctx, path, nil); err != nil {
		t.Fatalf("Export failed: %v", err)
	}

	dst := NewInMemoryCache(16, 3600)
	result, err := NewImporter(dst).ImportFromFile(ctx, path)
	if err != nil {
		t.Fatalf("Import failed: %v", err)
	}

	if result.Imported != 2 {
		t.Errorf("Expected 2 imported, got %d", result.Imported)
	}
	if val, ok := dst.Get(ctx, "hash1:EN:DE"); !ok || val != `{"data":"Hallo"}` {
		t.Errorf("hash1 not found or wrong value")
	}
}

func TestImporter_InvalidJSON(t *testing.T) {
	c := NewInMemoryCache(16, 3600)

	_, err := NewImporter(c).Import(context.Background(), strings.NewReader("invalid json"))
	if err == nil {
		t.Error("Expected error for invalid JSON")
	}
}
