package script

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Shopify/go-lua"
	"github.com/specialistvlad/assetgrid/internal/buildlog"
	"github.com/specialistvlad/assetgrid/internal/params"
	"github.com/specialistvlad/assetgrid/internal/processor"
	"github.com/specialistvlad/assetgrid/internal/registry"
)

// ErrNoScript is returned when the asset does not name a script.
var ErrNoScript = errors.New("parameter 'script' is not set")

// hookInterval is how many Lua instructions run between cancellation checks.
const hookInterval = 1000

// Module implements the registry.Module interface for this package.
type Module struct{}

// Processor runs a Lua script against the asset.
type Processor struct{}

// Describe implements processor.Processor.
func (Processor) Describe() processor.Details {
	return processor.Details{
		Name: "script",
		Description: "Runs a Lua script with the globals source(), param(name [, default]), read(path), " +
			"write(path, data), log(level, message) and depend(path).",
		Parameters: []processor.Parameter{
			{
				Name:        "script",
				Description: "Content relative path of the Lua script. The script is an input of the asset.",
				Kind:        params.KindString,
				Default:     params.String(""),
			},
		},
		ExtraParameters: true,
	}
}

// Process implements processor.Processor.
func (Processor) Process(ctx context.Context, pc *processor.Context) error {
	name := pc.Parameters.GetString("script", "")
	if name == "" {
		return ErrNoScript
	}
	code, err := pc.ReadInput(name)
	if err != nil {
		return fmt.Errorf("read script: %w", err)
	}

	l := lua.NewState()
	for _, lib := range []lua.RegistryFunction{
		{Name: "_G", Function: lua.BaseOpen},
		{Name: "string", Function: lua.StringOpen},
		{Name: "table", Function: lua.TableOpen},
		{Name: "math", Function: lua.MathOpen},
	} {
		lua.Require(l, lib.Name, lib.Function, true)
		l.Pop(1)
	}
	// File loaders would bypass ReadInput and its dependency record.
	for _, name := range []string{"dofile", "loadfile"} {
		l.PushNil()
		l.SetGlobal(name)
	}
	for _, fn := range bindings(pc) {
		l.Register(fn.Name, fn.Function)
	}
	lua.SetDebugHook(l, func(l *lua.State, _ lua.Debug) {
		if err := ctx.Err(); err != nil {
			lua.Errorf(l, "%s", err.Error())
		}
	}, lua.MaskCount, hookInterval)

	if err := lua.LoadBuffer(l, string(code), "@"+name, "t"); err != nil {
		return fmt.Errorf("load script '%s': %w", name, err)
	}
	if err := l.ProtectedCall(0, 0, 0); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		return fmt.Errorf("run script '%s': %w", name, err)
	}
	return nil
}

func bindings(pc *processor.Context) []lua.RegistryFunction {
	return []lua.RegistryFunction{
		{Name: "source", Function: func(l *lua.State) int {
			l.PushString(pc.Asset.Path)
			return 1
		}},
		{Name: "param", Function: func(l *lua.State) int {
			key := lua.CheckString(l, 1)
			if v, ok := pc.Parameters.Get(key); ok {
				l.PushString(v.String())
				return 1
			}
			if l.Top() >= 2 {
				l.PushValue(2)
			} else {
				l.PushNil()
			}
			return 1
		}},
		{Name: "read", Function: func(l *lua.State) int {
			data, err := pc.ReadInput(lua.CheckString(l, 1))
			if err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			l.PushString(string(data))
			return 1
		}},
		{Name: "write", Function: func(l *lua.State) int {
			rel := lua.CheckString(l, 1)
			data := lua.CheckString(l, 2)
			if err := pc.WriteOutput(rel, []byte(data)); err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			return 0
		}},
		{Name: "log", Function: func(l *lua.State) int {
			level, ok := parseLevel(lua.CheckString(l, 1))
			if !ok {
				lua.ArgumentError(l, 1, "expected error, warning, info or verbose")
			}
			pc.Log(level, lua.CheckString(l, 2))
			return 0
		}},
		{Name: "depend", Function: func(l *lua.State) int {
			if err := pc.AddInputDependency(lua.CheckString(l, 1)); err != nil {
				lua.Errorf(l, "%s", err.Error())
			}
			return 0
		}},
	}
}

func parseLevel(s string) (buildlog.Level, bool) {
	switch strings.ToLower(s) {
	case "error":
		return buildlog.Error, true
	case "warning", "warn":
		return buildlog.Warning, true
	case "info":
		return buildlog.Info, true
	case "verbose", "debug":
		return buildlog.Verbose, true
	}
	return 0, false
}

// Register registers the processor with the registry.
func (m *Module) Register(r *registry.Registry) {
	r.RegisterProcessor(Processor{})
}
