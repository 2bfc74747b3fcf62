// Package hclconf implements the declarative side of the step
// configuration surface: HCL files containing `step "<name>" { ... }`
// blocks whose attributes override the code-level options of matching step
// definitions.
//
// The file format deliberately mirrors the option table of the step
// factory one-to-one. Loading never touches definitions; it produces an
// Overlay that is applied separately, so parse errors surface before any
// definition is rebuilt.
package hclconf

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"

	"github.com/specialistvlad/stepflow/internal/steperr"
)

// stepBlockSchema is the expected structure of a `step` block's body.
var stepBlockSchema = &hcl.BodySchema{
	Attributes: []hcl.AttributeSchema{
		{Name: "enable_cache"},
		{Name: "enable_artifact_metadata"},
		{Name: "enable_artifact_visualization"},
		{Name: "experiment_tracker"},
		{Name: "step_operator"},
		{Name: "output_materializers"},
		{Name: "settings"},
		{Name: "extra"},
		{Name: "on_failure"},
		{Name: "on_success"},
	},
}

// rootSchema is the top-level structure of an override file.
type rootSchema struct {
	Steps []*stepBlock `hcl:"step,block"`
}

type stepBlock struct {
	Name string   `hcl:"name,label"`
	Body hcl.Body `hcl:",remain"`
}

// Load parses the file or directory at path into an Overlay. Directories
// are searched recursively for .hcl files; a step may be overridden by at
// most one block across all of them.
func Load(path string) (*Overlay, error) {
	files, err := findFiles(path)
	if err != nil {
		return nil, err
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no .hcl files found at %s", path)
	}

	parser := hclparse.NewParser()
	overlay := &Overlay{steps: make(map[string]*StepOverride)}

	for _, file := range files {
		hclFile, diags := parser.ParseHCLFile(file)
		if diags.HasErrors() {
			return nil, fmt.Errorf("failed to parse %s: %w", file, diags)
		}

		root := &rootSchema{}
		if diags := gohcl.DecodeBody(hclFile.Body, nil, root); diags.HasErrors() {
			return nil, fmt.Errorf("failed to decode %s: %w", file, diags)
		}

		for _, block := range root.Steps {
			if _, exists := overlay.steps[block.Name]; exists {
				return nil, steperr.NewConfiguration(
					"step", "step %q is overridden more than once", block.Name)
			}
			override, err := decodeStepBlock(block)
			if err != nil {
				return nil, fmt.Errorf("in %s: %w", file, err)
			}
			overlay.steps[block.Name] = override
			overlay.order = append(overlay.order, block.Name)
		}
	}
	return overlay, nil
}

// findFiles resolves path to the list of .hcl files it names: the file
// itself, or every .hcl file under it when it is a directory.
func findFiles(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("cannot access %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() && strings.HasSuffix(d.Name(), ".hcl") {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return files, nil
}

func decodeStepBlock(block *stepBlock) (*StepOverride, error) {
	content, diags := block.Body.Content(stepBlockSchema)
	if diags.HasErrors() {
		return nil, fmt.Errorf("step %q: %w", block.Name, diags)
	}

	override := &StepOverride{Name: block.Name}
	for name, attr := range content.Attributes {
		val, diags := attr.Expr.Value(nil)
		if diags.HasErrors() {
			return nil, fmt.Errorf("step %q, attribute %q: %w", block.Name, name, diags)
		}
		if err := setOverrideAttr(override, name, val); err != nil {
			return nil, steperr.NewConfiguration(name, "step %q: %v", block.Name, err)
		}
	}
	return override, nil
}
