package transport

import (
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"
)

//go:embed schemas/envelope.schema.json
var envelopeSchemaJSON string

//go:embed schemas/submit.schema.json
var submitSchemaJSON string

type schemas struct {
	envelope *jsonschema.Schema
	submit   *jsonschema.Schema
}

func compileSchemas() (*schemas, error) {
	env, err := jsonschema.CompileString("envelope.schema.json", envelopeSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile envelope schema: %w", err)
	}
	sub, err := jsonschema.CompileString("submit.schema.json", submitSchemaJSON)
	if err != nil {
		return nil, fmt.Errorf("compile submit schema: %w", err)
	}
	return &schemas{envelope: env, submit: sub}, nil
}

func validate(s *jsonschema.Schema, data []byte) error {
	var v any
	if err := json.Unmarshal(data, &v); err != nil {
		return fmt.Errorf("invalid json: %w", err)
	}
	return s.Validate(v)
}
