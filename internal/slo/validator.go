package slo

import (
	"fmt"
	"math"
	"path/filepath"
	"strings"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"gopkg.in/yaml.v3"
)

// Validator handles SLO definition validation
type Validator struct {
	schema *jsonschema.Schema
}

// NewValidator creates a new validator with the given schema file
func NewValidator(schemaPath string) (*Validator, error) {
	compiler := jsonschema.NewCompiler()

	schema, err := compiler.Compile(schemaPath)
	if err != nil {
		return nil, fmt.Errorf("failed to compile schema: %w", err)
	}

	return &Validator{schema: schema}, nil
}

// ValidateDirectory loads and validates all definition files in a directory
func (v *Validator) ValidateDirectory(dirPath string) []ValidationError {
	defsWithFiles, loadErrors := LoadFromDirectory(dirPath)

	var allErrors []ValidationError
	allErrors = append(allErrors, loadErrors...)

	if len(defsWithFiles) == 0 {
		return allErrors
	}

	// Validate each definition against the JSON schema
	for _, dwf := range defsWithFiles {
		schemaErrors := v.validateSchema(dwf.File, dwf.Definition)
		allErrors = append(allErrors, schemaErrors...)
	}

	// Apply extra validation rules
	extraErrors := validateExtraRules(defsWithFiles)
	allErrors = append(allErrors, extraErrors...)

	return allErrors
}

// validateSchema validates a single definition against the JSON schema
func (v *Validator) validateSchema(file string, def *Definition) []ValidationError {
	var errors []ValidationError

	// Round-trip through YAML to get plain maps for schema validation
	yamlBytes, err := yaml.Marshal(def)
	if err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to marshal definition: %v", err),
		})
		return errors
	}

	var jsonData interface{}
	if err := yaml.Unmarshal(yamlBytes, &jsonData); err != nil {
		errors = append(errors, ValidationError{
			File:    file,
			Message: fmt.Sprintf("failed to convert to JSON: %v", err),
		})
		return errors
	}

	if err := v.schema.Validate(jsonData); err != nil {
		if validationErr, ok := err.(*jsonschema.ValidationError); ok {
			errors = append(errors, extractSchemaErrors(file, validationErr)...)
		} else {
			errors = append(errors, ValidationError{
				File:    file,
				Message: err.Error(),
			})
		}
	}

	return errors
}

// extractSchemaErrors converts JSON schema validation errors to ValidationErrors
func extractSchemaErrors(file string, err *jsonschema.ValidationError) []ValidationError {
	var errors []ValidationError

	path := strings.Join(err.InstanceLocation, ".")
	if path == "" {
		path = "(root)"
	}

	errors = append(errors, ValidationError{
		File:    file,
		Path:    path,
		Message: err.Error(),
	})

	for _, cause := range err.Causes {
		errors = append(errors, extractSchemaErrors(file, cause)...)
	}

	return errors
}

// validateExtraRules applies validation rules beyond the JSON schema:
// unique names, known comparison operators, finite thresholds.
func validateExtraRules(defsWithFiles []DefinitionWithFile) []ValidationError {
	var errors []ValidationError

	nameSeen := make(map[string]string)
	for _, dwf := range defsWithFiles {
		def := dwf.Definition

		name := def.Name
		if prevFile, exists := nameSeen[name]; exists {
			errors = append(errors, ValidationError{
				File:    dwf.File,
				Path:    "name",
				Message: fmt.Sprintf("duplicate name %q (also in %s)", name, filepath.Base(prevFile)),
			})
		} else {
			nameSeen[name] = dwf.File
		}

		if !def.Comparison.Known() {
			errors = append(errors, ValidationError{
				File:    dwf.File,
				Path:    "comparison",
				Message: fmt.Sprintf("unknown comparison operator %q", def.Comparison),
			})
		}

		if math.IsNaN(def.Threshold) || math.IsInf(def.Threshold, 0) {
			errors = append(errors, ValidationError{
				File:    dwf.File,
				Path:    "threshold",
				Message: "threshold must be a finite number",
			})
		}

		if def.Target != nil && (*def.Target < 0 || *def.Target > 1) {
			errors = append(errors, ValidationError{
				File:    dwf.File,
				Path:    "target",
				Message: fmt.Sprintf("target must be a fraction in [0, 1], got %v", *def.Target),
			})
		}
	}

	return errors
}
