package di

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type Database struct {
	DSN string
}

type repository struct {
	Master  *Database `di:"master"`
	Replica *Database `di:"replica,?"`
	Engine  *Engine   `di:""`
	Cache   *Engine   `di:"?"`
	Plain   string
}

func TestServiceTargets(t *testing.T) {
	_, c := newTestContainer(t)

	require.NoError(t, Service(c, "app.name", WithValue("demo")))
	require.NoError(t, Service(c, NewToken[int]("port"), WithValue(8080)))
	require.NoError(t, Service(c, TypeOf[*Engine]()))
	require.NoError(t, Service(c, Ctor(NewCar)))
	require.NoError(t, Service(c, reflect.TypeOf(0), WithID("answer"), WithValue(42)))

	assert.Equal(t, "demo", MustResolve[string](c, "app.name"))
	assert.Equal(t, 42, MustResolve[int](c, "answer"))

	car := MustResolve[*Car](c, TypeOf[*Car]())
	require.NotNil(t, car.Engine)
	assert.Equal(t, 0, car.Engine.Cylinders)

	var invalid *InvalidServiceOptionsError
	assert.ErrorAs(t, Service(c, nil), &invalid)
	assert.Error(t, Service(c, func() {}))
}

func TestServiceFactoryMethodOption(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, "car", WithFactoryMethod(TypeOf[*carFactory](), "Build"), AsTransient()))

	a := MustResolve[*Car](c, "car")
	b := MustResolve[*Car](c, "car")
	assert.NotSame(t, a, b)
}

func TestServiceMultipleOption(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, "hooks", WithValue("a"), AsMultiple()))
	require.NoError(t, Service(c, "hooks", WithValue("b"), AsMultiple()))

	vs, err := ResolveMany[string](c, "hooks")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b"}, vs)
}

func TestInjectTagged(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.SetValue("master", &Database{DSN: "primary"}))
	require.NoError(t, Service(c, NewEngine))

	ctor := Struct[repository]()
	require.NoError(t, Service(c, ctor))
	require.NoError(t, InjectTagged(c, ctor))

	repo := MustResolve[*repository](c, TypeOf[*repository]())
	assert.Equal(t, "primary", repo.Master.DSN)
	assert.Nil(t, repo.Replica)
	assert.NotNil(t, repo.Engine)
	assert.Same(t, repo.Engine, repo.Cache)
	assert.Empty(t, repo.Plain)
}

func TestInjectTaggedRequiredMissing(t *testing.T) {
	_, c := newTestContainer(t)
	ctor := Struct[repository]()
	require.NoError(t, Service(c, ctor))
	require.NoError(t, InjectTagged(c, ctor))

	_, err := c.Get(TypeOf[*repository]())
	assert.True(t, IsNotFound(err))
}

type hidden struct {
	engine *Engine `di:""`
}

func TestInjectTaggedRejectsUnexported(t *testing.T) {
	_, c := newTestContainer(t)
	assert.Error(t, InjectTagged(c, Struct[hidden]()))
	assert.Error(t, InjectTagged(c, Ctor(func() int { return 1 })))
}

type loose struct {
	Anything any
	Engine   *Engine
}

func TestInjectPropertyNeedsUsableIdentifier(t *testing.T) {
	_, c := newTestContainer(t)
	var cannot *CannotInjectValueError

	err := InjectProperty(c, TypeOf[*loose](), "Anything")
	require.ErrorAs(t, err, &cannot)
	assert.Equal(t, "Anything", cannot.Property)

	assert.ErrorAs(t, InjectProperty(c, TypeOf[*loose](), "Missing"), &cannot)
	assert.ErrorAs(t, InjectProperty(c, TypeOf[*loose](), "Engine", TypeOf[any]()), &cannot)

	require.NoError(t, InjectProperty(c, TypeOf[*loose](), "Anything", "payload"))
	require.NoError(t, InjectProperty(c, TypeOf[loose](), "Engine"))
	require.NoError(t, c.SetValue("payload", 7))
	require.NoError(t, Service(c, NewEngine))
	require.NoError(t, Service(c, Struct[loose]()))

	l := MustResolve[*loose](c, TypeOf[*loose]())
	assert.Equal(t, 7, l.Anything)
	assert.NotNil(t, l.Engine)
}

type wheel struct {
	Size int
}

func newWheel(size int) *wheel { return &wheel{Size: size} }

func TestInjectParam(t *testing.T) {
	_, c := newTestContainer(t)
	ctor := Ctor(newWheel)
	require.NoError(t, c.SetValue("wheel.size", 17))
	require.NoError(t, Service(c, ctor))
	require.NoError(t, InjectParam(c, ctor, 0, "wheel.size"))

	assert.Equal(t, 17, MustResolve[*wheel](c, TypeOf[*wheel]()).Size)

	var invalid *InvalidServiceOptionsError
	assert.ErrorAs(t, InjectParam(c, ctor, 1, "x"), &invalid)

	var cannot *CannotInjectValueError
	anyCtor := Ctor(func(v any) *wheel { return &wheel{} })
	assert.ErrorAs(t, InjectParam(c, anyCtor, 0, nil), &cannot)
}

func TestParseTag(t *testing.T) {
	tests := []struct {
		tag      string
		name     string
		optional bool
	}{
		{"", "", false},
		{"master", "master", false},
		{"master,?", "master", true},
		{"master, optional", "master", true},
		{"?", "", true},
		{"optional", "", true},
	}
	for _, tt := range tests {
		name, optional := parseTag(tt.tag)
		assert.Equal(t, tt.name, name, tt.tag)
		assert.Equal(t, tt.optional, optional, tt.tag)
	}
}
