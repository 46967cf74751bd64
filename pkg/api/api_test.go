package api_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/teascript/tea/pkg/api"
	"github.com/teascript/tea/pkg/value"
)

// fakeTracker satisfies api.Tracker without pulling in *vm.VM, so Builder
// can be tested in isolation from pkg/vm.
type fakeTracker struct {
	tracked []value.Obj
	sizes   []int
}

func (f *fakeTracker) Track(obj value.Obj, size int) {
	f.tracked = append(f.tracked, obj)
	f.sizes = append(f.sizes, size)
}

func echoMember(name string) api.Member {
	return api.Member{
		Name: name,
		Kind: value.NativeFunction,
		Fn: func(args []value.Value) (value.Value, error) {
			return api.Arg(args, 0), nil
		},
	}
}

func TestBuildModuleInstallsMembers(t *testing.T) {
	mod := api.BuildModule("geom", "geom", []api.Member{echoMember("identity")})
	fn, ok := mod.Values.GetStr("identity")
	require.True(t, ok)
	native, ok := fn.AsObject().(*value.Native)
	require.True(t, ok)
	result, err := native.Fn([]value.Value{api.Num(7)})
	require.NoError(t, err)
	require.Equal(t, 7.0, result.AsNumber())
}

func TestBuildClassSeparatesConstructorFromMethods(t *testing.T) {
	members := []api.Member{
		{Name: "constructor", Kind: value.NativeMethod, Fn: func(args []value.Value) (value.Value, error) { return api.Null(), nil }},
		echoMember("tap"),
	}
	klass := api.BuildClass("Widget", nil, members, nil)

	_, hasCtorAsMethod := klass.Methods.GetStr("constructor")
	require.False(t, hasCtorAsMethod)
	require.False(t, klass.Constructor.IsNull())

	_, hasTap := klass.Methods.GetStr("tap")
	require.True(t, hasTap)
}

func TestBuildClassInheritsSuperMembers(t *testing.T) {
	super := api.BuildClass("Base", nil, []api.Member{echoMember("baseMethod")}, []api.Member{echoMember("baseStatic")})
	sub := api.BuildClass("Sub", super, []api.Member{echoMember("subMethod")}, nil)

	require.Equal(t, super, sub.Super)
	_, hasBase := sub.Methods.GetStr("baseMethod")
	require.True(t, hasBase)
	_, hasOwn := sub.Methods.GetStr("subMethod")
	require.True(t, hasOwn)
	_, hasStatic := sub.Statics.GetStr("baseStatic")
	require.True(t, hasStatic)
}

func TestInstallMethodsPopulatesTable(t *testing.T) {
	table := value.NewTable()
	api.InstallMethods(table, []api.Member{echoMember("upper")})
	_, ok := table.GetStr("upper")
	require.True(t, ok)
}

func TestCheckNumberRejectsNonNumber(t *testing.T) {
	_, err := api.CheckNumber([]value.Value{api.Str("nope")}, 0, "test")
	require.Error(t, err)
	require.Contains(t, err.Error(), "bad argument #1 to 'test'")
}

func TestCheckStringRoundTrip(t *testing.T) {
	s, err := api.CheckString([]value.Value{api.Str("hi")}, 0, "test")
	require.NoError(t, err)
	require.Equal(t, "hi", s)
}

func TestCheckBoolRejectsMissingArg(t *testing.T) {
	_, err := api.CheckBool(nil, 0, "test")
	require.Error(t, err)
}

func TestCheckListAndMap(t *testing.T) {
	tracker := &fakeTracker{}
	b := api.NewBuilder(tracker)
	listVal := b.List([]value.Value{api.Num(1), api.Num(2)})
	l, err := api.CheckList([]value.Value{listVal}, 0, "test")
	require.NoError(t, err)
	require.Len(t, l.Items, 2)

	mapVal := b.Map()
	m, err := api.CheckMap([]value.Value{mapVal}, 0, "test")
	require.NoError(t, err)
	require.NotNil(t, m)

	require.Len(t, tracker.tracked, 2)
}

func TestCheckRange(t *testing.T) {
	r := &value.Range{Start: 1, End: 5}
	_, err := api.CheckRange([]value.Value{value.ObjectVal(r)}, 0, "test")
	require.NoError(t, err)

	_, err = api.CheckRange([]value.Value{api.Num(3)}, 0, "test")
	require.Error(t, err)
}

func TestOptionalNumberUsesDefaultWhenNull(t *testing.T) {
	n, err := api.OptionalNumber([]value.Value{api.Null()}, 0, "test", 42)
	require.NoError(t, err)
	require.Equal(t, 42.0, n)

	n, err = api.OptionalNumber([]value.Value{api.Num(9)}, 0, "test", 42)
	require.NoError(t, err)
	require.Equal(t, 9.0, n)
}

func TestProducers(t *testing.T) {
	require.True(t, api.Bool(true).AsBool())
	require.True(t, api.Null().IsNull())
	require.Equal(t, 3.0, api.Num(3).AsNumber())
}
