package hclconf

import (
	"fmt"

	"github.com/zclconf/go-cty/cty"

	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/step"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

// StepOverride holds the decoded attributes of one `step` block. Nil
// pointer fields were absent from the block and leave the definition's
// current value untouched.
type StepOverride struct {
	Name                        string
	EnableCache                 *bool
	EnableArtifactMetadata      *bool
	EnableArtifactVisualization *bool
	ExperimentTracker           *string
	StepOperator                *string

	// OutputMaterializers keeps the raw shape the user wrote (a single
	// name, a list, or a map); the step factory re-normalizes it.
	OutputMaterializers any

	Settings  map[string]map[string]any
	Extra     map[string]any
	OnFailure *string
	OnSuccess *string
}

// Overlay is the set of step overrides loaded from one configuration path.
type Overlay struct {
	steps map[string]*StepOverride
	order []string
}

// Overrides returns the loaded overrides in declaration order.
func (o *Overlay) Overrides() []*StepOverride {
	out := make([]*StepOverride, 0, len(o.order))
	for _, name := range o.order {
		out = append(out, o.steps[name])
	}
	return out
}

// Apply layers the overlay over the given definitions and returns the
// rebuilt list in the original order. An override naming a step that is
// not among the definitions is a configuration error: a typo in a pipeline
// file must abort construction, not silently configure nothing.
func (o *Overlay) Apply(reg *registry.Registry, defs []*step.Definition) ([]*step.Definition, error) {
	byName := make(map[string]int, len(defs))
	for i, def := range defs {
		byName[def.Name()] = i
	}

	out := append([]*step.Definition(nil), defs...)
	for _, name := range o.order {
		override := o.steps[name]
		i, ok := byName[name]
		if !ok {
			return nil, steperr.NewConfiguration("step", "override for unknown step %q", name)
		}
		amended, err := step.Amend(reg, out[i], override.options()...)
		if err != nil {
			return nil, err
		}
		out[i] = amended
	}
	return out, nil
}

// options translates the override into step factory options.
func (s *StepOverride) options() []step.Option {
	var opts []step.Option
	if s.EnableCache != nil {
		opts = append(opts, step.WithCache(*s.EnableCache))
	}
	if s.EnableArtifactMetadata != nil {
		opts = append(opts, step.WithArtifactMetadata(*s.EnableArtifactMetadata))
	}
	if s.EnableArtifactVisualization != nil {
		opts = append(opts, step.WithArtifactVisualization(*s.EnableArtifactVisualization))
	}
	if s.ExperimentTracker != nil {
		opts = append(opts, step.WithExperimentTracker(*s.ExperimentTracker))
	}
	if s.StepOperator != nil {
		opts = append(opts, step.WithStepOperator(*s.StepOperator))
	}
	if s.OutputMaterializers != nil {
		opts = append(opts, step.WithOutputMaterializers(s.OutputMaterializers))
	}
	if s.Settings != nil {
		opts = append(opts, step.WithSettings(s.Settings))
	}
	if s.Extra != nil {
		opts = append(opts, step.WithExtra(s.Extra))
	}
	if s.OnFailure != nil {
		opts = append(opts, step.OnFailure(*s.OnFailure))
	}
	if s.OnSuccess != nil {
		opts = append(opts, step.OnSuccess(*s.OnSuccess))
	}
	return opts
}

// setOverrideAttr decodes one attribute value into the override.
func setOverrideAttr(override *StepOverride, name string, val cty.Value) error {
	switch name {
	case "enable_cache":
		return decodeBool(val, &override.EnableCache)
	case "enable_artifact_metadata":
		return decodeBool(val, &override.EnableArtifactMetadata)
	case "enable_artifact_visualization":
		return decodeBool(val, &override.EnableArtifactVisualization)
	case "experiment_tracker":
		return decodeString(val, &override.ExperimentTracker)
	case "step_operator":
		return decodeString(val, &override.StepOperator)
	case "on_failure":
		return decodeString(val, &override.OnFailure)
	case "on_success":
		return decodeString(val, &override.OnSuccess)
	case "output_materializers":
		native, err := ctyToNative(val)
		if err != nil {
			return err
		}
		override.OutputMaterializers = native
		return nil
	case "extra":
		native, err := ctyToNative(val)
		if err != nil {
			return err
		}
		extra, ok := native.(map[string]any)
		if !ok {
			return fmt.Errorf("extra must be an object, got %s", val.Type().FriendlyName())
		}
		override.Extra = extra
		return nil
	case "settings":
		native, err := ctyToNative(val)
		if err != nil {
			return err
		}
		raw, ok := native.(map[string]any)
		if !ok {
			return fmt.Errorf("settings must be an object of objects, got %s", val.Type().FriendlyName())
		}
		settings := make(map[string]map[string]any, len(raw))
		for component, payload := range raw {
			payloadMap, ok := payload.(map[string]any)
			if !ok {
				return fmt.Errorf("settings for component %q must be an object, got %T", component, payload)
			}
			settings[component] = payloadMap
		}
		override.Settings = settings
		return nil
	default:
		return fmt.Errorf("unsupported attribute %q", name)
	}
}

func decodeBool(val cty.Value, target **bool) error {
	if val.Type() != cty.Bool {
		return fmt.Errorf("expected bool, got %s", val.Type().FriendlyName())
	}
	b := val.True()
	*target = &b
	return nil
}

func decodeString(val cty.Value, target **string) error {
	if val.Type() != cty.String {
		return fmt.Errorf("expected string, got %s", val.Type().FriendlyName())
	}
	s := val.AsString()
	*target = &s
	return nil
}
