package runtime

import (
	"context"
	"os"

	"github.com/dop251/goja"
	"go.uber.org/zap"

	"github.com/wippyai/jsbridge/errors"
)

// Script is one unit of source code.
type Script struct {
	Name   string
	Source string
}

// LoadScript reads a script file.
func LoadScript(path string) (Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return Script{}, errors.Wrap(errors.PhaseScript, errors.KindNotFound, err, "Failed to read script file")
	}
	return Script{Name: path, Source: string(src)}, nil
}

// Run executes scripts in order, waits for every background task they
// started, and returns the scriptOutput global if set, else the value of
// the last expression.
func (r *Runtime) Run(ctx context.Context, scripts ...Script) (Output, error) {
	if len(scripts) == 0 {
		return Output{}, errors.InvalidInput(errors.PhaseScript, "No script file provided")
	}

	var last goja.Value
	for _, s := range scripts {
		name := s.Name
		if name == "" {
			name = "<eval>"
		}
		err := r.do(func(vm *goja.Runtime) error {
			v, err := vm.RunScript(name, s.Source)
			if err != nil {
				return errors.Wrap(errors.PhaseScript, errors.KindException, err, "Failed to execute script")
			}
			last = v
			return nil
		})
		if err != nil {
			return Output{}, err
		}
	}

	if n := r.NumTasks(); n > 0 {
		r.log.Debug("waiting for tasks", zap.Int("tasks", n))
		if err := r.Wait(ctx); err != nil {
			return Output{}, err
		}
	}

	var out Output
	err := r.do(func(vm *goja.Runtime) error {
		v := vm.Get("scriptOutput")
		if v == nil || goja.IsUndefined(v) {
			v = last
		}
		out = convertOutput(v)
		return nil
	})
	return out, err
}

// Eval runs a single source snippet. It does not wait for tasks.
func (r *Runtime) Eval(name, src string) (Output, error) {
	var out Output
	err := r.do(func(vm *goja.Runtime) error {
		v, err := vm.RunScript(name, src)
		if err != nil {
			return errors.Wrap(errors.PhaseScript, errors.KindException, err, "Failed to execute "+name)
		}
		out = convertOutput(v)
		return nil
	})
	return out, err
}
