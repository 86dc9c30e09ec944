package reflection

import (
	"slices"

	"github.com/wippyai/jbridge/config"
	"github.com/wippyai/jbridge/jtype"
	"github.com/wippyai/jbridge/jvm"
)

// ClassDescriptor is the resolved public surface of one managed class under
// one configuration. Descriptors are immutable and shared.
type ClassDescriptor struct {
	Class         *jvm.GlobalRef
	Methods       map[string][]*Method
	StaticMethods map[string][]*Method
	Fields        map[string]*Field
	StaticFields  map[string]*Field
	Name          string
	Type          jtype.Type
	Constructors  []*Constructor
	Config        config.Class
}

// Describe resolves name and its members.
func Describe(env *jvm.Env, name string, cfg config.Class) (*ClassDescriptor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cls, err := ResolveClass(env, name)
	if err != nil {
		return nil, err
	}

	inst, err := ResolveMembers(env, cls, false)
	if err != nil {
		cls.Release()
		return nil, err
	}
	stat, err := ResolveMembers(env, cls, true)
	if err != nil {
		cls.Release()
		return nil, err
	}

	d := &ClassDescriptor{
		Name:          name,
		Type:          jtype.Parse(name),
		Class:         cls,
		Methods:       groupMethods(inst.Methods),
		StaticMethods: groupMethods(stat.Methods),
		Fields:        indexFields(inst.Fields),
		StaticFields:  indexFields(stat.Fields),
		Constructors:  inst.Constructors,
		Config:        cfg,
	}
	return d, nil
}

// groupMethods keeps declaration order within each overload list.
func groupMethods(ms []*Method) map[string][]*Method {
	out := make(map[string][]*Method)
	for _, m := range ms {
		out[m.Name] = append(out[m.Name], m)
	}
	return out
}

func indexFields(fs []*Field) map[string]*Field {
	out := make(map[string]*Field, len(fs))
	for _, f := range fs {
		if _, ok := out[f.Name]; !ok {
			out[f.Name] = f
		}
	}
	return out
}

// MethodNames returns the sorted instance method names.
func (d *ClassDescriptor) MethodNames() []string {
	return sortedKeys(d.Methods)
}

// StaticMethodNames returns the sorted static method names.
func (d *ClassDescriptor) StaticMethodNames() []string {
	return sortedKeys(d.StaticMethods)
}

// FieldNames returns the sorted instance field names.
func (d *ClassDescriptor) FieldNames() []string {
	return sortedKeys(d.Fields)
}

// StaticFieldNames returns the sorted static field names.
func (d *ClassDescriptor) StaticFieldNames() []string {
	return sortedKeys(d.StaticFields)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// AccessorNames returns the host-side names of the blocking and the
// scheduled variant of a member.
func (d *ClassDescriptor) AccessorNames(member string) (sync, async string) {
	return member + d.Config.SyncSuffix, member + d.Config.AsyncSuffix
}

// Lookup maps a host-side accessor name back to the member name and reports
// whether it names the blocking variant. Names that carry neither suffix
// are returned unchanged as blocking.
func (d *ClassDescriptor) Lookup(accessor string, static bool) (member string, blocking bool) {
	methods := d.Methods
	if static {
		methods = d.StaticMethods
	}
	try := func(suffix string) (string, bool) {
		if len(accessor) < len(suffix) || accessor[len(accessor)-len(suffix):] != suffix {
			return "", false
		}
		name := accessor[:len(accessor)-len(suffix)]
		_, ok := methods[name]
		return name, ok
	}

	// The longer suffix wins so "Sync" is not mistaken for an empty async suffix.
	first, second := d.Config.SyncSuffix, d.Config.AsyncSuffix
	firstBlocking := true
	if len(second) > len(first) {
		first, second = second, first
		firstBlocking = false
	}
	if name, ok := try(first); ok {
		return name, firstBlocking
	}
	if name, ok := try(second); ok {
		return name, !firstBlocking
	}
	return accessor, true
}

// Release drops the descriptor's class reference. Members become unusable.
func (d *ClassDescriptor) Release() {
	d.Class.Release()
}
