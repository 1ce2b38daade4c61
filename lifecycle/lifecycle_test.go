package lifecycle_test

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/coder/phaseguard/clock"
	"github.com/coder/phaseguard/lifecycle"
	"github.com/coder/phaseguard/testutil"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// recorder returns a behavior that appends "<name>:<boundary>:<pre|post>"
// around each call to next.
func recorder(name string, log *[]string) lifecycle.Behavior {
	hook := func(bd lifecycle.Boundary) lifecycle.Hook {
		return func(_ *lifecycle.Execution, next func()) {
			*log = append(*log, name+":"+bd.String()+":pre")
			next()
			*log = append(*log, name+":"+bd.String()+":post")
		}
	}
	return lifecycle.Behavior{
		Name:           name,
		BeforeSetup:    hook(lifecycle.BeforeSetup),
		AfterSetup:     hook(lifecycle.AfterSetup),
		BeforeTeardown: hook(lifecycle.BeforeTeardown),
		AfterTeardown:  hook(lifecycle.AfterTeardown),
	}
}

func TestRunOrder(t *testing.T) {
	t.Parallel()

	var log []string
	class := lifecycle.NewClass("Order", lifecycle.WithLogger(testutil.Logger(t)))
	class.Adopt(lifecycle.Behavior{
		Name: "only-setup",
		BeforeSetup: func(_ *lifecycle.Execution, next func()) {
			next()
			log = append(log, "hook:before_setup")
		},
	})

	res := class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{
		Name: "TestSomething",
		Setup: func(x *lifecycle.Execution) {
			assert.Equal(t, lifecycle.PhaseSetup, x.Phase())
			log = append(log, "setup")
		},
		Body: func(x *lifecycle.Execution) {
			assert.Equal(t, lifecycle.PhaseTest, x.Phase())
			log = append(log, "body")
		},
		Teardown: func(x *lifecycle.Execution) {
			assert.Equal(t, lifecycle.PhaseTeardown, x.Phase())
			log = append(log, "teardown")
		},
	})
	require.True(t, res.Passed())
	require.Equal(t, "Order", res.Class)
	require.Equal(t, "TestSomething", res.Test)
	require.Equal(t, []string{"hook:before_setup", "setup", "body", "teardown"}, log)
}

func TestHookChain(t *testing.T) {
	t.Parallel()

	t.Run("LaterAdoptedIsOutermost", func(t *testing.T) {
		t.Parallel()

		var log []string
		class := lifecycle.NewClass("Chain")
		class.Adopt(recorder("a", &log)).Adopt(recorder("b", &log))

		res := class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.True(t, res.Passed())
		require.Equal(t, []string{
			"b:before_setup:pre", "a:before_setup:pre", "a:before_setup:post", "b:before_setup:post",
			"b:after_setup:pre", "a:after_setup:pre", "a:after_setup:post", "b:after_setup:post",
			"b:before_teardown:pre", "a:before_teardown:pre", "a:before_teardown:post", "b:before_teardown:post",
			"b:after_teardown:pre", "a:after_teardown:pre", "a:after_teardown:post", "b:after_teardown:post",
		}, log)
	})

	t.Run("SubclassWrapsParent", func(t *testing.T) {
		t.Parallel()

		var log []string
		parent := lifecycle.NewClass("Parent").Adopt(recorder("parent", &log))
		child := parent.Extend("Child").Adopt(recorder("child", &log))

		child.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.Equal(t, "child:before_setup:pre", log[0])
		require.Equal(t, "parent:before_setup:pre", log[1])

		log = nil
		parent.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.NotContains(t, log, "child:before_setup:pre")
	})

	t.Run("AdoptTwice", func(t *testing.T) {
		t.Parallel()

		var log []string
		parent := lifecycle.NewClass("Parent").Adopt(recorder("a", &log))
		child := parent.Extend("Child").Adopt(recorder("a", &log))
		require.True(t, child.Adopted("a"))
		require.False(t, child.Adopted("b"))

		child.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.Len(t, log, 8)
	})

	t.Run("AdoptConcurrently", func(t *testing.T) {
		t.Parallel()

		var log []string
		class := lifecycle.NewClass("Chain")
		var wg sync.WaitGroup
		for range 16 {
			wg.Add(1)
			go func() {
				defer wg.Done()
				class.Adopt(recorder("a", &log))
			}()
		}
		wg.Wait()

		class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.Len(t, log, 8)
	})

	t.Run("HookWithoutNext", func(t *testing.T) {
		t.Parallel()

		var log []string
		class := lifecycle.NewClass("Chain").Adopt(recorder("a", &log))
		class.Adopt(lifecycle.Behavior{
			Name:        "stop",
			BeforeSetup: func(*lifecycle.Execution, func()) {},
		})

		class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestChain"})
		require.NotContains(t, log, "a:before_setup:pre")
		require.Contains(t, log, "a:after_setup:pre")
	})
}

func TestVars(t *testing.T) {
	t.Parallel()

	root := lifecycle.NewClass("Root")
	mid := root.Extend("Mid")
	leaf := mid.Extend("Leaf")

	_, ok := leaf.Var("k")
	require.False(t, ok)

	root.SetVar("k", 1)
	v, ok := leaf.Var("k")
	require.True(t, ok)
	require.Equal(t, 1, v)

	mid.SetVar("k", 2)
	v, _ = leaf.Var("k")
	require.Equal(t, 2, v)
	v, _ = root.Var("k")
	require.Equal(t, 1, v)

	mid.UnsetVar("k")
	v, _ = leaf.Var("k")
	require.Equal(t, 1, v)

	lineage := leaf.Lineage()
	require.Len(t, lineage, 3)
	require.Same(t, leaf, lineage[0])
	require.Same(t, root, lineage[2])
	require.Same(t, mid, leaf.Parent())
	require.Nil(t, root.Parent())
}

func TestClassClock(t *testing.T) {
	t.Parallel()

	at := time.Unix(42, 0)
	root := lifecycle.NewClass("Root", lifecycle.WithClock(clock.Fixed(at)))
	child := root.Extend("Child")
	require.Equal(t, at, child.Clock().Now())

	other := time.Unix(7, 0)
	override := root.Extend("Override", lifecycle.WithClock(clock.Fixed(other)))
	var seen time.Time
	override.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{
		Name: "TestNow",
		Body: func(x *lifecycle.Execution) {
			seen = x.Now()
		},
	})
	require.Equal(t, other, seen)
}

func TestFailures(t *testing.T) {
	t.Parallel()

	t.Run("AssertContinues", func(t *testing.T) {
		t.Parallel()

		ft := testutil.NewFakeT(t.Name())
		var bodyDone, teardownRan bool
		res := lifecycle.NewClass("Fail").Run(testutil.Context(t, testutil.WaitShort), ft, lifecycle.Test{
			Name: "TestAssert",
			Body: func(x *lifecycle.Execution) {
				assert.Fail(x, "nope")
				bodyDone = true
			},
			Teardown: func(*lifecycle.Execution) {
				teardownRan = true
			},
		})
		require.False(t, res.Passed())
		require.True(t, bodyDone)
		require.True(t, teardownRan)
		require.Len(t, res.Failures, 1)
		require.Equal(t, lifecycle.PhaseTest, res.Failures[0].Phase)
		require.Contains(t, res.Failures[0].Message, "nope")
		require.True(t, ft.Failed())
	})

	t.Run("RequireInSetupSkipsBody", func(t *testing.T) {
		t.Parallel()

		ft := testutil.NewFakeT(t.Name())
		var log []string
		res := lifecycle.NewClass("Fail").Adopt(recorder("r", &log)).Run(testutil.Context(t, testutil.WaitShort), ft, lifecycle.Test{
			Name: "TestRequire",
			Setup: func(x *lifecycle.Execution) {
				require.True(x, false, "setup broke")
			},
			Body: func(*lifecycle.Execution) {
				log = append(log, "body")
			},
			Teardown: func(*lifecycle.Execution) {
				log = append(log, "teardown")
			},
		})
		require.False(t, res.Passed())
		require.Equal(t, lifecycle.PhaseSetup, res.Failures[0].Phase)
		require.NotContains(t, log, "body")
		require.NotContains(t, log, "r:after_setup:pre")
		require.Contains(t, log, "r:before_teardown:pre")
		require.Contains(t, log, "teardown")
		require.Contains(t, log, "r:after_teardown:post")
	})

	t.Run("FailNowInTeardown", func(t *testing.T) {
		t.Parallel()

		ft := testutil.NewFakeT(t.Name())
		var afterTeardown bool
		class := lifecycle.NewClass("Fail").Adopt(lifecycle.Behavior{
			Name: "after",
			AfterTeardown: func(_ *lifecycle.Execution, next func()) {
				afterTeardown = true
				next()
			},
		})
		res := class.Run(testutil.Context(t, testutil.WaitShort), ft, lifecycle.Test{
			Name: "TestFailNow",
			Teardown: func(x *lifecycle.Execution) {
				x.FailNow()
			},
		})
		require.False(t, res.Passed())
		require.True(t, afterTeardown)
		require.Equal(t, lifecycle.PhaseTeardown, res.Failures[0].Phase)
	})

	t.Run("PanicPropagates", func(t *testing.T) {
		t.Parallel()

		ft := testutil.NewFakeT(t.Name())
		require.PanicsWithValue(t, "boom", func() {
			lifecycle.NewClass("Panic").Run(testutil.Context(t, testutil.WaitShort), ft, lifecycle.Test{
				Name: "TestPanic",
				Body: func(*lifecycle.Execution) {
					panic("boom")
				},
			})
		})
	})
}

func TestExecutionState(t *testing.T) {
	t.Parallel()

	type key struct{}
	class := lifecycle.NewClass("State").Adopt(lifecycle.Behavior{
		Name: "counter",
		BeforeSetup: func(x *lifecycle.Execution, next func()) {
			next()
			require.Nil(t, x.Value(key{}))
			x.SetValue(key{}, 1)
		},
		AfterTeardown: func(x *lifecycle.Execution, next func()) {
			require.Equal(t, 1, x.Value(key{}))
			next()
		},
	})

	first := class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestOne"})
	second := class.Run(testutil.Context(t, testutil.WaitShort), t, lifecycle.Test{Name: "TestTwo"})
	require.True(t, first.Passed())
	require.True(t, second.Passed())
	require.NotEqual(t, first.ExecutionID, second.ExecutionID)
}

func TestPhaseString(t *testing.T) {
	t.Parallel()

	require.Equal(t, "setup", lifecycle.PhaseSetup.String())
	require.Equal(t, "test", lifecycle.PhaseTest.String())
	require.Equal(t, "teardown", lifecycle.PhaseTeardown.String())
	require.Equal(t, "after_teardown", lifecycle.AfterTeardown.String())
	require.Equal(t, []lifecycle.Phase{lifecycle.PhaseSetup, lifecycle.PhaseTest, lifecycle.PhaseTeardown}, lifecycle.Phases)
}
