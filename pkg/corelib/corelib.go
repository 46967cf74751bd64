// Package corelib installs the built-in method tables for teascript's five
// core non-instance types (string, list, map, range, file), the methods
// dot-call syntax resolves for a value that isn't a user-defined class
// instance, e.g. "abc".upper() or [1,2,3].push(4). Grounded on pkg/vm's own
// for-in iteration tables (pkg/vm/iterate.go) for what each type's natural
// element/index shape is, and registered through pkg/api's declarative
// Member tables rather than imperative Table.SetStr calls.
package corelib

import (
	"strings"

	"github.com/teascript/tea/pkg/api"
	"github.com/teascript/tea/pkg/value"
	"github.com/teascript/tea/pkg/vm"
)

// Install populates v's five core method tables. Call once per VM before
// running any script; idempotent if called again (re-registers the same
// names over themselves).
func Install(v *vm.VM) {
	b := api.NewBuilder(v)
	installString(v.CoreMethods("string"), b)
	installList(v.CoreMethods("list"), b)
	installMap(v.CoreMethods("map"), b)
	installRange(v.CoreMethods("range"), b)
	installFile(v.CoreMethods("file"))
}

// --- string ----------------------------------------------------------------

func installString(t *value.Table, b *api.Builder) {
	api.InstallMethods(t, []api.Member{
		{Name: "size", Kind: value.NativeProperty, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "size")
			if err != nil {
				return value.Value{}, err
			}
			return api.Num(float64(len([]rune(s)))), nil
		}},
		{Name: "upper", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "upper")
			if err != nil {
				return value.Value{}, err
			}
			return api.Str(strings.ToUpper(s)), nil
		}},
		{Name: "lower", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "lower")
			if err != nil {
				return value.Value{}, err
			}
			return api.Str(strings.ToLower(s)), nil
		}},
		{Name: "trim", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "trim")
			if err != nil {
				return value.Value{}, err
			}
			return api.Str(strings.TrimSpace(s)), nil
		}},
		{Name: "contains", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "contains")
			if err != nil {
				return value.Value{}, err
			}
			sub, err := api.CheckString(args, 1, "contains")
			if err != nil {
				return value.Value{}, err
			}
			return api.Bool(strings.Contains(s, sub)), nil
		}},
		{Name: "indexOf", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "indexOf")
			if err != nil {
				return value.Value{}, err
			}
			sub, err := api.CheckString(args, 1, "indexOf")
			if err != nil {
				return value.Value{}, err
			}
			return api.Num(float64(strings.Index(s, sub))), nil
		}},
		{Name: "replace", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "replace")
			if err != nil {
				return value.Value{}, err
			}
			old, err := api.CheckString(args, 1, "replace")
			if err != nil {
				return value.Value{}, err
			}
			repl, err := api.CheckString(args, 2, "replace")
			if err != nil {
				return value.Value{}, err
			}
			return api.Str(strings.ReplaceAll(s, old, repl)), nil
		}},
		{Name: "split", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			s, err := api.CheckString(args, 0, "split")
			if err != nil {
				return value.Value{}, err
			}
			sep, err := api.CheckString(args, 1, "split")
			if err != nil {
				return value.Value{}, err
			}
			parts := strings.Split(s, sep)
			items := make([]value.Value, len(parts))
			for i, p := range parts {
				items[i] = api.Str(p)
			}
			return b.List(items), nil
		}},
		{Name: "toNumber", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			n, ok := value.ToNumber(api.Arg(args, 0))
			if !ok {
				return value.NullVal(), nil
			}
			return api.Num(n), nil
		}},
	})
}

// --- list --------------------------------------------------------------

func installList(t *value.Table, b *api.Builder) {
	api.InstallMethods(t, []api.Member{
		{Name: "size", Kind: value.NativeProperty, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "size")
			if err != nil {
				return value.Value{}, err
			}
			return api.Num(float64(len(l.Items))), nil
		}},
		{Name: "push", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "push")
			if err != nil {
				return value.Value{}, err
			}
			l.Items = append(l.Items, args[1:]...)
			return args[0], nil
		}},
		{Name: "pop", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "pop")
			if err != nil {
				return value.Value{}, err
			}
			if len(l.Items) == 0 {
				return value.Value{}, api.ArgError("pop", 0, "non-empty list", args[0])
			}
			last := l.Items[len(l.Items)-1]
			l.Items = l.Items[:len(l.Items)-1]
			return last, nil
		}},
		{Name: "contains", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "contains")
			if err != nil {
				return value.Value{}, err
			}
			needle := api.Arg(args, 1)
			for _, it := range l.Items {
				if value.Equal(it, needle) {
					return api.Bool(true), nil
				}
			}
			return api.Bool(false), nil
		}},
		{Name: "indexOf", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "indexOf")
			if err != nil {
				return value.Value{}, err
			}
			needle := api.Arg(args, 1)
			for i, it := range l.Items {
				if value.Equal(it, needle) {
					return api.Num(float64(i)), nil
				}
			}
			return api.Num(-1), nil
		}},
		{Name: "reverse", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "reverse")
			if err != nil {
				return value.Value{}, err
			}
			items := make([]value.Value, len(l.Items))
			for i, it := range l.Items {
				items[len(items)-1-i] = it
			}
			return b.List(items), nil
		}},
		{Name: "join", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			l, err := api.CheckList(args, 0, "join")
			if err != nil {
				return value.Value{}, err
			}
			sep, err := api.CheckString(args, 1, "join")
			if err != nil {
				return value.Value{}, err
			}
			parts := make([]string, len(l.Items))
			for i, it := range l.Items {
				parts[i] = value.Stringify(it)
			}
			return api.Str(strings.Join(parts, sep)), nil
		}},
	})
}

// --- map -----------------------------------------------------------------

func installMap(t *value.Table, b *api.Builder) {
	api.InstallMethods(t, []api.Member{
		{Name: "size", Kind: value.NativeProperty, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "size")
			if err != nil {
				return value.Value{}, err
			}
			return api.Num(float64(m.Table.Count())), nil
		}},
		{Name: "has", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "has")
			if err != nil {
				return value.Value{}, err
			}
			_, ok := m.Table.Get(api.Arg(args, 1))
			return api.Bool(ok), nil
		}},
		{Name: "get", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "get")
			if err != nil {
				return value.Value{}, err
			}
			if v, ok := m.Table.Get(api.Arg(args, 1)); ok {
				return v, nil
			}
			return api.Arg(args, 2), nil
		}},
		{Name: "remove", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "remove")
			if err != nil {
				return value.Value{}, err
			}
			return api.Bool(m.Table.Delete(api.Arg(args, 1))), nil
		}},
		{Name: "keys", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "keys")
			if err != nil {
				return value.Value{}, err
			}
			return b.List(m.Table.Keys()), nil
		}},
		{Name: "values", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			m, err := api.CheckMap(args, 0, "values")
			if err != nil {
				return value.Value{}, err
			}
			keys := m.Table.Keys()
			items := make([]value.Value, len(keys))
			for i, k := range keys {
				items[i], _ = m.Table.Get(k)
			}
			return b.List(items), nil
		}},
	})
}

// --- range -----------------------------------------------------------------

func installRange(t *value.Table, b *api.Builder) {
	api.InstallMethods(t, []api.Member{
		{Name: "size", Kind: value.NativeProperty, Fn: func(args []value.Value) (value.Value, error) {
			r, err := api.CheckRange(args, 0, "size")
			if err != nil {
				return value.Value{}, err
			}
			n := (r.End - r.Start) / r.Step
			if n < 0 {
				n = 0
			}
			return api.Num(n), nil
		}},
		{Name: "contains", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			r, err := api.CheckRange(args, 0, "contains")
			if err != nil {
				return value.Value{}, err
			}
			n, err := api.CheckNumber(args, 1, "contains")
			if err != nil {
				return value.Value{}, err
			}
			return api.Bool(r.Contains(n)), nil
		}},
		{Name: "toList", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			r, err := api.CheckRange(args, 0, "toList")
			if err != nil {
				return value.Value{}, err
			}
			var items []value.Value
			for n := r.Start; r.Contains(n); n += r.Step {
				items = append(items, api.Num(n))
			}
			return b.List(items), nil
		}},
	})
}

// --- file --------------------------------------------------------------

func installFile(t *value.Table) {
	api.InstallMethods(t, []api.Member{
		{Name: "read", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			f, err := checkFile(args, 0, "read")
			if err != nil {
				return value.Value{}, err
			}
			if !f.Open {
				return value.Value{}, api.ArgError("read", 0, "open file", args[0])
			}
			buf := make([]byte, 4096)
			var sb strings.Builder
			for {
				n, rerr := f.Handle.Read(buf)
				sb.Write(buf[:n])
				if rerr != nil {
					break
				}
			}
			return api.Str(sb.String()), nil
		}},
		{Name: "write", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			f, err := checkFile(args, 0, "write")
			if err != nil {
				return value.Value{}, err
			}
			s, err := api.CheckString(args, 1, "write")
			if err != nil {
				return value.Value{}, err
			}
			if !f.Open {
				return value.Value{}, api.ArgError("write", 0, "open file", args[0])
			}
			n, werr := f.Handle.Write([]byte(s))
			if werr != nil {
				return value.Value{}, werr
			}
			return api.Num(float64(n)), nil
		}},
		{Name: "close", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) {
			f, err := checkFile(args, 0, "close")
			if err != nil {
				return value.Value{}, err
			}
			if f.Open {
				err := f.Handle.Close()
				f.Open = false
				if err != nil {
					return value.Value{}, err
				}
			}
			return value.NullVal(), nil
		}},
	})
}

func checkFile(args []value.Value, i int, who string) (*value.File, error) {
	v := api.Arg(args, i)
	if v.IsObject() {
		if f, ok := v.AsObject().(*value.File); ok {
			return f, nil
		}
	}
	return nil, api.ArgError(who, i, "file", v)
}
