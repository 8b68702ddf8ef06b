package handlers

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/xeipuuv/gojsonschema"

	"github.com/AnshRaj112/journal-backend/internal/services"
)

const (
	credentialsSchema = `{
		"type": "object",
		"properties": {
			"email":    {"type": "string"},
			"password": {"type": "string"}
		},
		"required": ["email", "password"]
	}`

	createEntrySchema = `{
		"type": "object",
		"properties": {
			"title":   {"type": "string"},
			"content": {"type": "string"},
			"mood":    {"type": ["string", "null"]}
		},
		"required": ["title", "content"]
	}`

	updateEntrySchema = `{
		"type": "object",
		"properties": {
			"title":   {"type": "string"},
			"content": {"type": "string"},
			"mood":    {"type": ["string", "null"]}
		}
	}`
)

// bodySchema validates request bodies before they are decoded.
type bodySchema struct {
	schema *gojsonschema.Schema
}

func mustCompile(src string) bodySchema {
	s, err := gojsonschema.NewSchema(gojsonschema.NewStringLoader(src))
	if err != nil {
		panic(fmt.Sprintf("cannot compile schema: %v", err))
	}
	return bodySchema{schema: s}
}

var (
	credentialsBody = mustCompile(credentialsSchema)
	createEntryBody = mustCompile(createEntrySchema)
	updateEntryBody = mustCompile(updateEntrySchema)
)

// decode validates body against the schema and unmarshals it into v.
// Every failure is a BadRequest naming the first offending field.
func (s bodySchema) decode(body []byte, v any) error {
	if len(strings.TrimSpace(string(body))) == 0 {
		return services.BadRequest("request body is required")
	}

	result, err := s.schema.Validate(gojsonschema.NewBytesLoader(body))
	if err != nil {
		return services.BadRequest("invalid JSON body")
	}
	if !result.Valid() {
		return services.BadRequest(describe(result.Errors()[0]))
	}

	if err := json.Unmarshal(body, v); err != nil {
		return services.BadRequest("invalid JSON body")
	}
	return nil
}

func describe(e gojsonschema.ResultError) string {
	if e.Type() == "required" {
		return e.Description()
	}
	return fmt.Sprintf("%s: %s", e.Field(), e.Description())
}
