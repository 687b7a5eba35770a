package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	phpclientgen "github.com/blimu-dev/php-client-gen"
)

func TestValidateSpec_NoSpec(t *testing.T) {
	// Smoke: ensure ValidateSpec errors on missing file
	if _, err := os.Stat("/no/such/file.yaml"); err == nil {
		t.Fatal("expected no file")
	}
	if err := phpclientgen.ValidateSpec(context.Background(), "/no/such/file.yaml"); err == nil {
		t.Fatal("expected error")
	}
}

func TestGenerateFromConfig(t *testing.T) {
	dir := t.TempDir()
	spec := filepath.Join(dir, "openapi.json")
	if err := os.WriteFile(spec, []byte(`{
  "openapi": "3.0.3",
  "info": {"title": "Pets", "version": "1"},
  "paths": {
    "/pets/{petId}": {
      "get": {
        "operationId": "getPet",
        "tags": ["Resource:Pet", "Manager:Pets"],
        "parameters": [{"name": "petId", "in": "path", "required": true, "schema": {"type": "string"}}],
        "responses": {"200": {"description": "ok", "content": {"application/json": {"schema": {"$ref": "#/components/schemas/Pet"}}}}}
      }
    }
  },
  "components": {"schemas": {"Pet": {"type": "object", "required": ["id"], "properties": {"id": {"type": "string"}}}}}
}`), 0o644); err != nil {
		t.Fatal(err)
	}
	cfgPath := filepath.Join(dir, "phpclientgen.yaml")
	cfg := "spec: " + spec + "\nvalidate: true\nclients:\n  - type: php\n    outDir: " + filepath.Join(dir, "out") +
		"\n    namespace: Acme\\Pets\n    name: Pets\n    tests: true\n"
	if err := os.WriteFile(cfgPath, []byte(cfg), 0o644); err != nil {
		t.Fatal(err)
	}

	results, err := phpclientgen.GenerateFromConfig(context.Background(), cfgPath)
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	for _, f := range []string{"PetsClient.php", "Managers/Pets.php", "Resources/Pet.php", "Tests/Resources/PetTest.php"} {
		if _, err := os.Stat(filepath.Join(dir, "out", f)); err != nil {
			t.Errorf("missing %s: %v", f, err)
		}
	}
}
