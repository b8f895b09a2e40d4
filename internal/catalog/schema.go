package catalog

import (
	_ "embed"
	"fmt"
	"sync"

	"github.com/xeipuuv/gojsonschema"
)

//go:embed manifest.schema.json
var manifestSchemaJSON []byte

var manifestSchema = sync.OnceValues(func() (*gojsonschema.Schema, error) {
	return gojsonschema.NewSchema(gojsonschema.NewBytesLoader(manifestSchemaJSON))
})

// ValidateManifestSchema checks a raw manifest document against the
// published JSON schema. It catches shape problems (wrong types, missing
// keys) before the document is decoded into Go types.
func ValidateManifestSchema(data []byte) ValidationResult {
	var r ValidationResult

	schema, err := manifestSchema()
	if err != nil {
		r.errorf("loading manifest schema: %v", err)
		return r.finish()
	}

	result, err := schema.Validate(gojsonschema.NewBytesLoader(data))
	if err != nil {
		r.errorf("manifest is not valid JSON: %v", err)
		return r.finish()
	}
	for _, e := range result.Errors() {
		r.Errors = append(r.Errors, fmt.Sprintf("%s: %s", e.Field(), e.Description()))
	}
	return r.finish()
}
