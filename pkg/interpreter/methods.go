package interpreter

import (
	"slices"
	"strings"
)

var (
	listMethods = map[string]BuiltinFunc{
		"append":  listAppend,
		"insert":  listInsert,
		"extend":  listExtend,
		"pop":     listPop,
		"index":   listIndex,
		"count":   listCount,
		"reverse": listReverse,
		"sort":    listSort,
	}
	dictMethods = map[string]BuiltinFunc{
		"get":        dictGet,
		"keys":       dictKeys,
		"values":     dictValues,
		"items":      dictItems,
		"update":     dictUpdate,
		"setdefault": dictSetDefault,
		"pop":        dictPop,
	}
	strMethods = map[string]BuiltinFunc{
		"upper":      strUpper,
		"lower":      strLower,
		"strip":      strStrip,
		"split":      strSplit,
		"join":       strJoin,
		"replace":    strReplace,
		"startswith": strStartsWith,
		"endswith":   strEndsWith,
		"find":       strFind,
	}
)

// getAttr resolves `obj.name`. Instance attributes shadow class attributes, and
// functions found on the class come back bound to the instance.
func (i *Interpreter) getAttr(obj Value, name string) (Value, error) {
	var methods map[string]BuiltinFunc
	switch obj.Kind {
	case KindObject:
		if v, ok := obj.Object.Attrs.Get(name); ok {
			return v, nil
		}
		if v, ok := obj.Object.Class.lookup(name); ok {
			if v.Kind == KindFunction {
				return Value{Kind: KindFunction, Func: v.Func.bind(obj.Object)}, nil
			}
			return v, nil
		}
		return Value{}, i.errorf(NameNotFound, "'%s' object has no attribute '%s'", obj.TypeName(), name)
	case KindClass:
		if v, ok := obj.Class.lookup(name); ok {
			return v, nil
		}
		return Value{}, i.errorf(NameNotFound, "type object '%s' has no attribute '%s'", obj.Class.Name, name)
	case KindList:
		methods = listMethods
	case KindMap:
		methods = dictMethods
	case KindString:
		methods = strMethods
	}

	fn, ok := methods[name]
	if !ok {
		return Value{}, i.errorf(NameNotFound, "'%s' object has no attribute '%s'", obj.TypeName(), name)
	}
	self := obj
	return Value{Kind: KindBuiltin, Builtin: &Builtin{Name: name, Self: &self, Fn: fn}}, nil
}

func listAppend(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("append", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	self.List.Items = append(self.List.Items, args[0])
	return None, nil
}

func listInsert(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("insert", args, kwargs, 2, 2); err != nil {
		return Value{}, err
	}
	if args[0].Kind != KindInt && args[0].Kind != KindBool {
		return Value{}, i.errorf(TypeMismatch, "'%s' object cannot be interpreted as an integer", args[0].TypeName())
	}
	n := int64(len(self.List.Items))
	idx, _ := args[0].AsInt64()
	if idx < 0 {
		idx = max(idx+n, 0)
	}
	idx = min(idx, n)
	self.List.Items = slices.Insert(self.List.Items, int(idx), args[1])
	return None, nil
}

func listExtend(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("extend", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	self.List.Items = append(self.List.Items, items...)
	return None, nil
}

func listPop(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("pop", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(self.List.Items) == 0 {
		return Value{}, i.errorf(IndexOutOfRange, "pop from empty list")
	}
	at := NewInt(-1)
	if len(args) == 1 {
		at = args[0]
	}
	idx, err := i.index(at, len(self.List.Items), "pop")
	if err != nil {
		return Value{}, err
	}
	v := self.List.Items[idx]
	self.List.Items = slices.Delete(self.List.Items, idx, idx+1)
	return v, nil
}

func listIndex(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("index", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	for idx, v := range self.List.Items {
		if equal(v, args[0]) {
			return NewInt(int64(idx)), nil
		}
	}
	return Value{}, i.errorf(ArgumentError, "%s is not in list", i.repr(args[0]))
}

func listCount(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("count", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	n := 0
	for _, v := range self.List.Items {
		if equal(v, args[0]) {
			n++
		}
	}
	return NewInt(int64(n)), nil
}

func listReverse(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("reverse", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	slices.Reverse(self.List.Items)
	return None, nil
}

func listSort(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("sort", args, kwargs, 0, 0, "reverse"); err != nil {
		return Value{}, err
	}
	return None, i.sortValues(self.List.Items, kwarg(kwargs, "reverse", NewBool(false)).Truthy())
}

func dictGet(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("get", args, kwargs, 1, 2); err != nil {
		return Value{}, err
	}
	v, ok, hashable := self.Map.Get(args[0])
	if !hashable {
		return Value{}, i.errorf(TypeMismatch, "unhashable type: '%s'", args[0].TypeName())
	}
	if ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return None, nil
}

func dictKeys(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("keys", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	return NewList(self.Map.Keys()...), nil
}

func dictValues(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("values", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	return NewList(self.Map.Values()...), nil
}

func dictItems(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("items", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	items := make([]Value, 0, self.Map.Len())
	self.Map.Each(func(k, v Value) bool {
		items = append(items, NewList(k, v))
		return true
	})
	return NewList(items...), nil
}

func dictUpdate(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if len(args) > 1 {
		return Value{}, i.errorf(ArgumentError, "update expected at most 1 argument, got %d", len(args))
	}
	if len(args) == 1 {
		if err := i.mergeInto(self.Map, args[0]); err != nil {
			return Value{}, err
		}
	}
	for _, kw := range kwargs {
		self.Map.Set(NewString(kw.Name), kw.Value)
	}
	return None, nil
}

func dictSetDefault(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("setdefault", args, kwargs, 1, 2); err != nil {
		return Value{}, err
	}
	v, ok, hashable := self.Map.Get(args[0])
	if !hashable {
		return Value{}, i.errorf(TypeMismatch, "unhashable type: '%s'", args[0].TypeName())
	}
	if ok {
		return v, nil
	}
	def := None
	if len(args) == 2 {
		def = args[1]
	}
	self.Map.Set(args[0], def)
	return def, nil
}

func dictPop(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("pop", args, kwargs, 1, 2); err != nil {
		return Value{}, err
	}
	if _, _, hashable := self.Map.Get(args[0]); !hashable {
		return Value{}, i.errorf(TypeMismatch, "unhashable type: '%s'", args[0].TypeName())
	}
	if v, ok := self.Map.Delete(args[0]); ok {
		return v, nil
	}
	if len(args) == 2 {
		return args[1], nil
	}
	return Value{}, i.errorf(KeyNotFound, "%s", i.repr(args[0]))
}

// stringArg fetches a str argument, naming the method in the error
func (i *Interpreter) stringArg(method string, v Value) (string, error) {
	if v.Kind != KindString {
		return "", i.errorf(TypeMismatch, "%s() argument must be str, not %s", method, v.TypeName())
	}
	return v.Str, nil
}

func strUpper(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("upper", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	return NewString(strings.ToUpper(self.Str)), nil
}

func strLower(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("lower", args, kwargs, 0, 0); err != nil {
		return Value{}, err
	}
	return NewString(strings.ToLower(self.Str)), nil
}

func strStrip(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("strip", args, kwargs, 0, 1); err != nil {
		return Value{}, err
	}
	if len(args) == 0 || args[0].Kind == KindNone {
		return NewString(strings.TrimSpace(self.Str)), nil
	}
	chars, err := i.stringArg("strip", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewString(strings.Trim(self.Str, chars)), nil
}

func strSplit(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("split", args, kwargs, 0, 1, "sep"); err != nil {
		return Value{}, err
	}
	sep := kwarg(kwargs, "sep", None)
	if len(args) == 1 {
		sep = args[0]
	}

	var parts []string
	if sep.Kind == KindNone {
		parts = strings.Fields(self.Str)
	} else {
		s, err := i.stringArg("split", sep)
		if err != nil {
			return Value{}, err
		}
		if s == "" {
			return Value{}, i.errorf(ArgumentError, "empty separator")
		}
		parts = strings.Split(self.Str, s)
	}

	items := make([]Value, len(parts))
	for idx, p := range parts {
		items[idx] = NewString(p)
	}
	return NewList(items...), nil
}

func strJoin(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("join", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	items, err := i.iterate(args[0])
	if err != nil {
		return Value{}, err
	}
	parts := make([]string, len(items))
	for idx, item := range items {
		if item.Kind != KindString {
			return Value{}, i.errorf(TypeMismatch, "sequence item %d: expected str instance, %s found", idx, item.TypeName())
		}
		parts[idx] = item.Str
	}
	return NewString(strings.Join(parts, self.Str)), nil
}

func strReplace(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("replace", args, kwargs, 2, 2); err != nil {
		return Value{}, err
	}
	old, err := i.stringArg("replace", args[0])
	if err != nil {
		return Value{}, err
	}
	repl, err := i.stringArg("replace", args[1])
	if err != nil {
		return Value{}, err
	}
	return NewString(strings.ReplaceAll(self.Str, old, repl)), nil
}

func strStartsWith(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("startswith", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	prefix, err := i.stringArg("startswith", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewBool(strings.HasPrefix(self.Str, prefix)), nil
}

func strEndsWith(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("endswith", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	suffix, err := i.stringArg("endswith", args[0])
	if err != nil {
		return Value{}, err
	}
	return NewBool(strings.HasSuffix(self.Str, suffix)), nil
}

// strFind returns a character index, or -1
func strFind(i *Interpreter, self Value, args []Value, kwargs []Kwarg) (Value, error) {
	if err := i.arity("find", args, kwargs, 1, 1); err != nil {
		return Value{}, err
	}
	sub, err := i.stringArg("find", args[0])
	if err != nil {
		return Value{}, err
	}
	at := strings.Index(self.Str, sub)
	if at < 0 {
		return NewInt(-1), nil
	}
	return NewInt(int64(len([]rune(self.Str[:at])))), nil
}
