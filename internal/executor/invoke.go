package executor

import (
	"context"
	"reflect"

	"github.com/specialistvlad/stepflow/internal/profiling"
	"github.com/specialistvlad/stepflow/internal/registry"
	"github.com/specialistvlad/stepflow/internal/step"
	"github.com/specialistvlad/stepflow/internal/stepctx"
	"github.com/specialistvlad/stepflow/internal/steperr"
)

var (
	contextType      = reflect.TypeOf((*context.Context)(nil)).Elem()
	stepContextType  = reflect.TypeOf((*stepctx.Context)(nil))
	profilingCtxType = reflect.TypeOf((*profiling.Context)(nil))
	errorType        = reflect.TypeOf((*error)(nil)).Elem()
)

// invoke calls the entrypoint by reflection, injecting the contexts its
// signature declares, and untangles the returned values into one output
// and one error.
func (e *Executor) invoke(ctx context.Context, def *step.Definition, sctx *stepctx.Context) (any, error) {
	fnVal := reflect.ValueOf(def.Entrypoint())
	fnType := fnVal.Type()
	if fnType.IsVariadic() {
		return nil, steperr.NewConfiguration("entrypoint", "variadic entrypoints are not supported")
	}

	args := make([]reflect.Value, 0, fnType.NumIn())
	for i := 0; i < fnType.NumIn(); i++ {
		switch fnType.In(i) {
		case contextType:
			args = append(args, reflect.ValueOf(ctx))
		case stepContextType:
			args = append(args, reflect.ValueOf(sctx))
		case profilingCtxType:
			args = append(args, reflect.ValueOf(profiling.NewContext(sctx)))
		default:
			return nil, steperr.NewConfiguration("entrypoint",
				"unsupported parameter %d of type %s", i, fnType.In(i))
		}
	}

	results := fnVal.Call(args)

	var output any
	var runErr error
	for _, result := range results {
		if result.Type().Implements(errorType) {
			if !result.IsNil() {
				runErr = result.Interface().(error)
			}
			continue
		}
		if output != nil {
			return nil, steperr.NewConfiguration("entrypoint",
				"entrypoints may return at most one output value and one error")
		}
		output = result.Interface()
	}
	return output, runErr
}

// dispatchHook invokes a success or failure hook with as many of (run
// context, step parameters, raised error) as its signature accepts. A hook
// failure is logged, never propagated: hooks observe the run's outcome,
// they do not change it.
func (e *Executor) dispatchHook(ref registry.HookRef, sctx *stepctx.Context, stepErr error) {
	if ref.IsZero() {
		return
	}
	logger := sctx.Logger().With("hook", ref.Name)

	fnVal := reflect.ValueOf(ref.Fn)
	fnType := fnVal.Type()
	if fnType.Kind() != reflect.Func || fnType.IsVariadic() {
		logger.Warn("Hook is not a plain function, skipping.")
		return
	}

	available := []reflect.Value{
		reflect.ValueOf(sctx),
		reflect.ValueOf(e.params),
	}
	if stepErr != nil {
		errVal := reflect.New(errorType).Elem()
		errVal.Set(reflect.ValueOf(stepErr))
		available = append(available, errVal)
	}

	if fnType.NumIn() > len(available) {
		logger.Warn("Hook declares more parameters than the engine supplies, skipping.",
			"declared", fnType.NumIn(), "available", len(available))
		return
	}

	args := available[:fnType.NumIn()]
	for i, arg := range args {
		if !arg.Type().AssignableTo(fnType.In(i)) {
			logger.Warn("Hook parameter type mismatch, skipping.",
				"param", i, "want", fnType.In(i).String(), "got", arg.Type().String())
			return
		}
	}

	defer func() {
		if r := recover(); r != nil {
			logger.Warn("Hook panicked.", "panic", r)
		}
	}()
	results := fnVal.Call(args)
	for _, result := range results {
		if result.Type().Implements(errorType) && !result.IsNil() {
			logger.Warn("Hook returned an error.", "error", result.Interface())
		}
	}
}
