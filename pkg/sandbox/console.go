package sandbox

import (
	"errors"
	"strings"

	"github.com/dop251/goja"
)

// console collects one line per console call.
type console struct {
	vm        *goja.Runtime
	stringify goja.Callable
	lines     []string
}

func (c *console) install() error {
	stringify, ok := goja.AssertFunction(c.vm.Get("JSON").ToObject(c.vm).Get("stringify"))
	if !ok {
		return errors.New("JSON.stringify unavailable")
	}
	c.stringify = stringify

	obj := c.vm.NewObject()
	for _, name := range []string{"log", "info", "warn", "error", "debug"} {
		if err := obj.Set(name, c.capture); err != nil {
			return err
		}
	}
	return c.vm.Set("console", obj)
}

func (c *console) capture(call goja.FunctionCall) goja.Value {
	parts := make([]string, len(call.Arguments))
	for i, arg := range call.Arguments {
		parts[i] = c.format(arg)
	}
	c.lines = append(c.lines, strings.Join(parts, " "))
	return goja.Undefined()
}

// format renders objects and arrays as indented JSON and everything else
// the way String(v) would. A stringify failure, such as a circular
// structure, is rethrown into the script.
func (c *console) format(v goja.Value) string {
	if _, ok := v.(*goja.Object); ok {
		if _, isFunc := goja.AssertFunction(v); !isFunc {
			out, err := c.stringify(goja.Undefined(), v, goja.Null(), c.vm.ToValue(2))
			if err != nil {
				var exc *goja.Exception
				if errors.As(err, &exc) {
					panic(exc)
				}
				panic(c.vm.NewGoError(err))
			}
			if out != nil && !goja.IsUndefined(out) {
				return out.String()
			}
		}
	}
	return v.String()
}
