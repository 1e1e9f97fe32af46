package di

import (
	"bytes"
	"sync"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gocrud/ioc/logging"
)

type Engine struct {
	Cylinders int
}

func NewEngine() *Engine { return &Engine{Cylinders: 4} }

type Car struct {
	Engine *Engine
}

func NewCar(e *Engine) *Car { return &Car{Engine: e} }

type resource struct {
	disposed int
}

func newResource() *resource { return &resource{} }

func (r *resource) Dispose() { r.disposed++ }

type failingCloser struct{}

func (failingCloser) Close() error { return errors.New("close failed") }

type panickingDisposer struct{}

func (*panickingDisposer) Dispose() { panic("boom") }

type Plugin interface {
	Name() string
}

type namedPlugin string

func (p namedPlugin) Name() string { return string(p) }

func newTestContainer(t *testing.T) (*Registry, *Container) {
	t.Helper()
	r := NewRegistry()
	t.Cleanup(func() { _ = r.Close() })
	return r, r.Default()
}

func TestEngineCar(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, NewEngine))
	require.NoError(t, Service(c, NewCar))

	car, err := ResolveType[*Car](c)
	require.NoError(t, err)
	engine, err := ResolveType[*Engine](c)
	require.NoError(t, err)

	assert.Same(t, engine, car.Engine)
	assert.Equal(t, 4, car.Engine.Cylinders)
}

func TestFactoryOverridesConstructor(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, NewEngine))
	require.NoError(t, Service(c, NewCar))
	require.NoError(t, Service(c, NewCar, WithFactory(func(c *Container, id any) (any, error) {
		return &Car{Engine: &Engine{Cylinders: 8}}, nil
	})))

	car, err := ResolveType[*Car](c)
	require.NoError(t, err)
	assert.Equal(t, 8, car.Engine.Cylinders)
}

func TestFalsyValues(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.SetValue("flag", false))
	require.NoError(t, c.SetValue("zero", 0))
	require.NoError(t, c.SetValue("empty", ""))

	for i := 0; i < 2; i++ {
		v, err := c.Get("flag")
		require.NoError(t, err)
		assert.Equal(t, false, v)

		v, err = c.Get("zero")
		require.NoError(t, err)
		assert.Equal(t, 0, v)

		v, err = c.Get("empty")
		require.NoError(t, err)
		assert.Equal(t, "", v)
	}
}

func TestSingletonSharedAcrossContainers(t *testing.T) {
	r, def := newTestContainer(t)
	c1, err := r.NewContainer("c1")
	require.NoError(t, err)
	c2, err := r.NewContainer("c2")
	require.NoError(t, err)

	require.NoError(t, Service(c1, NewEngine, AsGlobal()))
	assert.True(t, def.Has(TypeOf[*Engine]()))
	assert.False(t, c1.Has(TypeOf[*Engine]()))

	e1 := MustResolve[*Engine](c1, TypeOf[*Engine]())
	e2 := MustResolve[*Engine](c2, TypeOf[*Engine]())
	assert.Same(t, e1, e2)

	e1.Cylinders = 12
	assert.Equal(t, 12, MustResolve[*Engine](def, TypeOf[*Engine]()).Cylinders)
}

func TestTransientScope(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, NewEngine, AsTransient()))

	e1, err := ResolveType[*Engine](c)
	require.NoError(t, err)
	e2, err := ResolveType[*Engine](c)
	require.NoError(t, err)
	assert.NotSame(t, e1, e2)

	md, ok := c.Metadata(TypeOf[*Engine]())
	require.True(t, ok)
	assert.False(t, md.HasValue())
}

func TestContainerScope(t *testing.T) {
	r, def := newTestContainer(t)
	require.NoError(t, Service(def, NewEngine))

	c1, err := def.Of("c1")
	require.NoError(t, err)
	c2, err := def.Of("c2")
	require.NoError(t, err)

	a1 := MustResolve[*Engine](c1, TypeOf[*Engine]())
	a2 := MustResolve[*Engine](c1, TypeOf[*Engine]())
	b := MustResolve[*Engine](c2, TypeOf[*Engine]())
	d := MustResolve[*Engine](def, TypeOf[*Engine]())

	assert.Same(t, a1, a2)
	assert.NotSame(t, a1, b)
	assert.NotSame(t, a1, d)

	// 第一次访问后元数据被克隆到子容器
	assert.True(t, c1.Has(TypeOf[*Engine]()))
	md, _ := c1.Metadata(TypeOf[*Engine]())
	assert.Contains(t, md.ReferencedBy(), "c1")

	again, err := def.Of("c1")
	require.NoError(t, err)
	assert.Same(t, c1, again)
	assert.Len(t, r.Containers(), 2)
}

func TestMultipleServices(t *testing.T) {
	_, c := newTestContainer(t)
	plugins := NewToken[Plugin]("plugins")
	for _, name := range []string{"a", "b", "c"} {
		p := namedPlugin(name)
		require.NoError(t, c.Set(ServiceOptions{
			ID:       plugins,
			Factory:  func() any { return p },
			Multiple: true,
		}))
	}

	vs, err := ResolveMany[Plugin](c, plugins)
	require.NoError(t, err)
	require.Len(t, vs, 3)
	assert.Equal(t, "a", vs[0].Name())
	assert.Equal(t, "b", vs[1].Name())
	assert.Equal(t, "c", vs[2].Name())

	assert.True(t, c.Has(plugins))

	_, err = c.Get(plugins)
	var multi *MultipleServiceError
	assert.ErrorAs(t, err, &multi)
}

func TestGetManyFromChildIgnoresContainerScopedDefault(t *testing.T) {
	r, def := newTestContainer(t)
	plugins := NewToken[Plugin]("plugins")
	require.NoError(t, def.Set(ServiceOptions{ID: plugins, Value: namedPlugin("default"), Multiple: true}))

	child, err := r.NewContainer("child")
	require.NoError(t, err)
	assert.False(t, child.Has(plugins))
	_, err = child.GetMany(plugins)
	assert.True(t, IsNotFound(err))

	require.NoError(t, child.Set(ServiceOptions{ID: plugins, Value: namedPlugin("local"), Multiple: true}))
	vs, err := ResolveMany[Plugin](child, plugins)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "local", vs[0].Name())

	shared := NewToken[Plugin]("shared")
	require.NoError(t, def.Set(ServiceOptions{ID: shared, Value: namedPlugin("global"), Multiple: true, Scope: ScopeSingleton}))
	vs, err = ResolveMany[Plugin](child, shared)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "global", vs[0].Name())

	_, err = child.GetMany("nothing")
	assert.True(t, IsNotFound(err))
}

func TestSingletonMultipleWinsOverLocal(t *testing.T) {
	r, _ := newTestContainer(t)
	child, err := r.NewContainer("child")
	require.NoError(t, err)
	plugins := NewToken[Plugin]("plugins")

	require.NoError(t, child.Set(ServiceOptions{ID: plugins, Value: namedPlugin("local"), Multiple: true}))
	require.NoError(t, child.Set(ServiceOptions{ID: plugins, Value: namedPlugin("global"), Multiple: true, Scope: ScopeSingleton}))

	vs, err := ResolveMany[Plugin](child, plugins)
	require.NoError(t, err)
	require.Len(t, vs, 1)
	assert.Equal(t, "global", vs[0].Name())
}

func TestResetValueRunsCleanupOnce(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, newResource))
	require.NoError(t, c.SetValue("preset", &resource{}))

	r1 := MustResolve[*resource](c, TypeOf[*resource]())
	preset := MustResolve[*resource](c, "preset")

	require.NoError(t, c.Reset(ResetValue))
	assert.Equal(t, 1, r1.disposed)
	assert.Equal(t, 0, preset.disposed)

	r2 := MustResolve[*resource](c, TypeOf[*resource]())
	assert.NotSame(t, r1, r2)
	assert.Same(t, preset, MustResolve[*resource](c, "preset"))

	require.NoError(t, c.Reset(ResetValue))
	assert.Equal(t, 1, r1.disposed)
	assert.Equal(t, 1, r2.disposed)
}

func TestResetServicesClearsRegistrations(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, newResource))
	require.NoError(t, c.SetValue("preset", &resource{}))
	r1 := MustResolve[*resource](c, TypeOf[*resource]())
	preset := MustResolve[*resource](c, "preset")

	require.NoError(t, c.Reset(ResetServices))
	assert.Equal(t, 1, r1.disposed)
	assert.Equal(t, 1, preset.disposed)
	assert.False(t, c.Has(TypeOf[*resource]()))
	assert.False(t, c.Has("preset"))
}

func TestCleanupFailuresAreLoggedAndSwallowed(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewLoggingBuilder().
		AddConsole(logging.ConsoleLoggerOptions{Output: &buf}).
		Build().
		CreateLogger("test")
	r := NewRegistry(WithLogger(logger))
	c := r.Default()

	require.NoError(t, c.Set(ServiceOptions{ID: "closer", Factory: func() any { return failingCloser{} }}))
	require.NoError(t, c.Set(ServiceOptions{ID: "panics", Factory: func() any { return &panickingDisposer{} }}))
	_, err := c.Get("closer")
	require.NoError(t, err)
	_, err = c.Get("panics")
	require.NoError(t, err)

	require.NoError(t, c.Reset(ResetValue))
	out := buf.String()
	assert.Contains(t, out, "WARN [di] service cleanup failed")
	assert.Contains(t, out, "close failed")
	assert.Contains(t, out, "cleanup panicked: boom")
}

func TestRemoveThenGet(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, newResource))
	r1 := MustResolve[*resource](c, TypeOf[*resource]())

	require.NoError(t, c.Remove(TypeOf[*resource]()))
	assert.Equal(t, 1, r1.disposed)

	_, err := c.Get(TypeOf[*resource]())
	var nf *ServiceNotFoundError
	require.ErrorAs(t, err, &nf)
	assert.Equal(t, TypeOf[*resource](), nf.ID)
}

func TestRemoveMultiple(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.Set(ServiceOptions{ID: "res", Factory: func() any { return newResource() }, Multiple: true}))
	require.NoError(t, c.Set(ServiceOptions{ID: "res", Factory: func() any { return newResource() }, Multiple: true}))
	vs, err := ResolveMany[*resource](c, "res")
	require.NoError(t, err)

	require.NoError(t, c.Remove("res"))
	for _, v := range vs {
		assert.Equal(t, 1, v.disposed)
	}
	assert.False(t, c.Has("res"))
	_, err = c.GetMany("res")
	assert.True(t, IsNotFound(err))
}

func TestDispose(t *testing.T) {
	r, _ := newTestContainer(t)
	c, err := r.NewContainer("temp")
	require.NoError(t, err)
	require.NoError(t, Service(c, newResource))
	res := MustResolve[*resource](c, TypeOf[*resource]())

	require.NoError(t, c.Dispose())
	assert.True(t, c.Disposed())
	assert.Equal(t, 1, res.disposed)
	assert.False(t, r.HasContainer("temp"))
	assert.False(t, c.Has(TypeOf[*resource]()))

	_, err = c.Get(TypeOf[*resource]())
	assert.ErrorIs(t, err, ErrContainerDisposed)
	assert.ErrorIs(t, c.Set(ServiceOptions{ID: "x", Value: 1}), ErrContainerDisposed)
	assert.ErrorIs(t, c.Dispose(), ErrContainerDisposed)
	_, err = c.Of("other")
	assert.ErrorIs(t, err, ErrContainerDisposed)
}

func TestEagerService(t *testing.T) {
	_, c := newTestContainer(t)
	built := 0
	require.NoError(t, Service(c, func() *Engine {
		built++
		return NewEngine()
	}, AsEager()))
	assert.Equal(t, 1, built)

	_, err := ResolveType[*Engine](c)
	require.NoError(t, err)
	assert.Equal(t, 1, built)
}

func TestEagerTransientIsNotBuiltOnSet(t *testing.T) {
	_, c := newTestContainer(t)
	built := 0
	require.NoError(t, Service(c, func() *Engine {
		built++
		return NewEngine()
	}, AsEager(), AsTransient()))
	assert.Equal(t, 0, built)

	_, err := ResolveType[*Engine](c)
	require.NoError(t, err)
	assert.Equal(t, 1, built)
}

func TestEagerFailureIsReported(t *testing.T) {
	_, c := newTestContainer(t)
	err := Service(c, NewCar, AsEager())
	assert.True(t, IsNotFound(err))
}

type carFactory struct{}

func (carFactory) Build(c *Container, id any) (any, error) {
	return &Car{Engine: &Engine{Cylinders: 6}}, nil
}

func (carFactory) Named(id any) any { return id }

func TestFactoryMethod(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.Set(ServiceOptions{
		ID:      "car",
		Factory: FactoryMethod{Service: TypeOf[*carFactory](), Method: "Build"},
	}))
	car := MustResolve[*Car](c, "car")
	assert.Equal(t, 6, car.Engine.Cylinders)

	require.NoError(t, c.SetValue("factory", carFactory{}))
	require.NoError(t, c.Set(ServiceOptions{
		ID:      "echo",
		Factory: &FactoryMethod{Service: "factory", Method: "Named"},
	}))
	assert.Equal(t, "echo", MustResolve[string](c, "echo"))

	require.NoError(t, c.Set(ServiceOptions{
		ID:      "missing",
		Factory: FactoryMethod{Service: "factory", Method: "Nope"},
	}))
	_, err := c.Get("missing")
	assert.Error(t, err)
}

type fleet struct {
	engine *Engine
}

func newFleet(e *Engine) *fleet { return &fleet{engine: e} }

func (f *fleet) Make() *Car { return &Car{Engine: f.engine} }

func TestFactoryMethodFallsBackToBareOwner(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.Set(ServiceOptions{
		ID:      "car",
		Factory: FactoryMethod{Service: Ctor(newFleet), Method: "Make"},
	}))

	car := MustResolve[*Car](c, "car")
	assert.Nil(t, car.Engine)
}

type scoped struct {
	owner any
}

func TestConstructorReceivesRequestingContainer(t *testing.T) {
	r, def := newTestContainer(t)
	require.NoError(t, Service(def, func(c *Container) *scoped { return &scoped{owner: c.ID()} }))
	child, err := r.NewContainer("child")
	require.NoError(t, err)

	assert.Equal(t, "child", MustResolve[*scoped](child, TypeOf[*scoped]()).owner)
	assert.Equal(t, DefaultContainerID, MustResolve[*scoped](def, TypeOf[*scoped]()).owner)
}

func TestCannotInstantiate(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.Set(ServiceOptions{ID: "bare"}))
	_, err := c.Get("bare")
	var ci *CannotInstantiateValueError
	assert.ErrorAs(t, err, &ci)

	require.NoError(t, c.Set(ServiceOptions{ID: "nil", Factory: func() any { return nil }}))
	_, err = c.Get("nil")
	assert.ErrorAs(t, err, &ci)
}

func TestInvalidOptions(t *testing.T) {
	_, c := newTestContainer(t)
	var invalid *InvalidServiceOptionsError
	assert.ErrorAs(t, c.Set(ServiceOptions{}), &invalid)
	assert.ErrorAs(t, c.Set(ServiceOptions{ID: []string{"x"}}), &invalid)
	assert.ErrorAs(t, c.Set(ServiceOptions{ID: "f", Factory: 42}), &invalid)

	_, err := c.Get(nil)
	assert.True(t, IsNotFound(err))
}

type baseService struct {
	Name string
}

type derivedService struct {
	baseService
	Extra string
}

func newDerived(name string) *derivedService {
	return &derivedService{baseService: baseService{Name: name}}
}

func TestParamHandlerParentFallback(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, newDerived))

	d := MustResolve[*derivedService](c, TypeOf[*derivedService]())
	assert.Equal(t, "", d.Name)

	require.NoError(t, c.RegisterHandler(ParamHandler(TypeOf[*baseService](), 0, func(*Container) (any, error) {
		return "from-parent", nil
	})))
	require.NoError(t, c.Reset(ResetValue))
	d = MustResolve[*derivedService](c, TypeOf[*derivedService]())
	assert.Equal(t, "from-parent", d.Name)

	require.NoError(t, c.RegisterHandler(ParamHandler(TypeOf[*derivedService](), 0, func(*Container) (any, error) {
		return "own", nil
	})))
	require.NoError(t, c.Reset(ResetValue))
	d = MustResolve[*derivedService](c, TypeOf[*derivedService]())
	assert.Equal(t, "own", d.Name)
}

func TestPropertyHandlerParentFallback(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, Struct[derivedService]()))
	require.NoError(t, c.RegisterHandler(PropertyHandler(TypeOf[*baseService](), "Name", func(*Container) (any, error) {
		return "inherited", nil
	})))
	require.NoError(t, c.RegisterHandler(PropertyHandler(TypeOf[*derivedService](), "Extra", func(*Container) (any, error) {
		return "extra", nil
	})))

	d := MustResolve[*derivedService](c, TypeOf[*derivedService]())
	assert.Equal(t, "inherited", d.Name)
	assert.Equal(t, "extra", d.Extra)
}

func TestHandlerValidation(t *testing.T) {
	_, c := newTestContainer(t)
	value := func(*Container) (any, error) { return nil, nil }
	var invalid *InvalidServiceOptionsError
	assert.ErrorAs(t, c.RegisterHandler(Handler{Target: TypeOf[*Car](), Property: "Engine", Index: 0, Value: value}), &invalid)
	assert.ErrorAs(t, c.RegisterHandler(Handler{Target: TypeOf[*Car](), Index: -1, Value: value}), &invalid)
	assert.ErrorAs(t, c.RegisterHandler(Handler{Index: 0, Value: value}), &invalid)
	assert.ErrorAs(t, c.RegisterHandler(Handler{Target: TypeOf[*Car](), Index: 0}), &invalid)
}

func TestChildInheritsHandlerSnapshot(t *testing.T) {
	_, def := newTestContainer(t)
	require.NoError(t, Service(def, newDerived))
	require.NoError(t, def.RegisterHandler(ParamHandler(TypeOf[*derivedService](), 0, func(*Container) (any, error) {
		return "snapshot", nil
	})))

	child, err := def.Of("child")
	require.NoError(t, err)
	require.NoError(t, def.RegisterHandler(ParamHandler(TypeOf[*derivedService](), 0, func(*Container) (any, error) {
		return "late", nil
	})))

	assert.Equal(t, "snapshot", MustResolve[*derivedService](child, TypeOf[*derivedService]()).Name)
}

type nodeA struct {
	B *nodeB
}

type nodeB struct {
	A *nodeA
}

func TestPropertyCycleWithDeferredIdentifiers(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, Struct[nodeA]()))
	require.NoError(t, Service(c, Struct[nodeB]()))
	require.NoError(t, InjectProperty(c, TypeOf[nodeA](), "B", Deferred(func() any { return TypeOf[*nodeB]() })))
	require.NoError(t, InjectProperty(c, TypeOf[nodeB](), "A", Deferred(func() any { return TypeOf[*nodeA]() })))

	a := MustResolve[*nodeA](c, TypeOf[*nodeA]())
	require.NotNil(t, a.B)
	assert.Same(t, a, a.B.A)
}

type cycX struct{ y *cycY }
type cycY struct{ x *cycX }

func TestConstructorCycleFails(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, func(y *cycY) *cycX { return &cycX{y: y} }))
	require.NoError(t, Service(c, func(x *cycX) *cycY { return &cycY{x: x} }))

	_, err := c.Get(TypeOf[*cycX]())
	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []any{TypeOf[*cycX](), TypeOf[*cycY](), TypeOf[*cycX]()}, cycle.Path)
}

type wiredX struct{ y *wiredY }
type wiredY struct{ x *wiredX }

func TestParamHandlerCycleFails(t *testing.T) {
	_, c := newTestContainer(t)
	ctorX := Ctor(func(y *wiredY) *wiredX { return &wiredX{y: y} })
	ctorY := Ctor(func(x *wiredX) *wiredY { return &wiredY{x: x} })
	require.NoError(t, Service(c, ctorX))
	require.NoError(t, Service(c, ctorY))
	require.NoError(t, InjectParam(c, ctorX, 0, TypeOf[*wiredY]()))
	require.NoError(t, InjectParam(c, ctorY, 0, TypeOf[*wiredX]()))

	_, err := c.Get(TypeOf[*wiredX]())
	var cycle *CircularDependencyError
	require.ErrorAs(t, err, &cycle)
	assert.Equal(t, []any{TypeOf[*wiredX](), TypeOf[*wiredY](), TypeOf[*wiredX]()}, cycle.Path)
}

func TestTransientPropertyCycleFails(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, Struct[nodeA](), AsTransient()))
	require.NoError(t, Service(c, Struct[nodeB](), AsTransient()))
	require.NoError(t, InjectProperty(c, TypeOf[nodeA](), "B"))
	require.NoError(t, InjectProperty(c, TypeOf[nodeB](), "A"))

	_, err := c.Get(TypeOf[*nodeA]())
	var cycle *CircularDependencyError
	assert.ErrorAs(t, err, &cycle)
}

func TestChildFirstAccessIsPlaceholdered(t *testing.T) {
	r, def := newTestContainer(t)
	require.NoError(t, Service(def, Struct[nodeA]()))
	require.NoError(t, Service(def, Struct[nodeB]()))
	require.NoError(t, InjectProperty(def, TypeOf[nodeA](), "B"))
	require.NoError(t, InjectProperty(def, TypeOf[nodeB](), "A"))

	child, err := r.NewContainer("child")
	require.NoError(t, err)
	a := MustResolve[*nodeA](child, TypeOf[*nodeA]())
	assert.Same(t, a, a.B.A)
	assert.NotSame(t, a, MustResolve[*nodeA](def, TypeOf[*nodeA]()))
}

func TestConcurrentGetReturnsOneInstance(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, Service(c, NewEngine))

	const n = 32
	results := make([]*Engine, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = MustResolve[*Engine](c, TypeOf[*Engine]())
		}(i)
	}
	wg.Wait()
	for _, e := range results {
		assert.Same(t, results[0], e)
	}
}

func TestConcurrentSetAndChildGet(t *testing.T) {
	r, def := newTestContainer(t)
	require.NoError(t, Service(def, NewEngine))
	child, err := r.NewContainer("child")
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.NoError(t, Service(def, NewEngine))
		}()
		go func() {
			defer wg.Done()
			e, err := ResolveType[*Engine](child)
			if assert.NoError(t, err) {
				assert.Equal(t, 4, e.Cylinders)
			}
			md, ok := def.Metadata(TypeOf[*Engine]())
			if assert.True(t, ok) {
				assert.NotEmpty(t, md.ReferencedBy())
				assert.Equal(t, ScopeContainer, md.Scope())
			}
		}()
	}
	wg.Wait()
}

func TestSetMergesInPlace(t *testing.T) {
	_, c := newTestContainer(t)
	require.NoError(t, c.SetValue("name", "first"))
	md, ok := c.Metadata("name")
	require.True(t, ok)

	require.NoError(t, c.SetValue("name", "second"))
	again, _ := c.Metadata("name")
	assert.Same(t, md, again)
	assert.Equal(t, "second", MustResolve[string](c, "name"))
}
