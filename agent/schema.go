package agent

import (
	"encoding/json"

	"github.com/invopop/jsonschema"
)

// SchemaFor derives a JSON schema from a Go struct, for use as an
// agent's OutputSchema. Descriptions come from jsonschema_description
// struct tags.
func SchemaFor[T any]() json.RawMessage {
	reflector := &jsonschema.Reflector{
		Anonymous:      true,
		DoNotReference: true,
	}
	var zero T
	schema := reflector.Reflect(&zero)
	raw, err := json.Marshal(schema)
	if err != nil {
		// Reflect output always marshals; a failure here is a bug in
		// the struct definition itself.
		panic(err)
	}
	return raw
}
