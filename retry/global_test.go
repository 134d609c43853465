package retry

import "testing"

func resetGlobalExecutor() {
	globalExec.Store(nil)
}

func TestDefaultExecutor_LazyInit(t *testing.T) {
	resetGlobalExecutor()
	t.Cleanup(resetGlobalExecutor)

	exec1 := DefaultExecutor()
	if exec1 == nil {
		t.Fatal("expected executor")
	}
	exec2 := DefaultExecutor()
	if exec1 != exec2 {
		t.Fatal("expected DefaultExecutor to return the same instance")
	}
	if exec1.Config().MaxAttempts != 3 {
		t.Fatalf("MaxAttempts=%d, want 3", exec1.Config().MaxAttempts)
	}
}

func TestSetGlobal_BeforeDefaultExecutor(t *testing.T) {
	resetGlobalExecutor()
	t.Cleanup(resetGlobalExecutor)

	custom := NewExecutor()
	if !SetGlobal(custom) {
		t.Fatal("SetGlobal should succeed before first use")
	}
	if got := DefaultExecutor(); got != custom {
		t.Fatalf("got %p, want %p", got, custom)
	}
}

func TestSetGlobal_AfterDefaultExecutorIgnored(t *testing.T) {
	resetGlobalExecutor()
	t.Cleanup(resetGlobalExecutor)

	orig := DefaultExecutor()
	if SetGlobal(NewExecutor()) {
		t.Fatal("SetGlobal should report false once initialized")
	}
	if got := DefaultExecutor(); got != orig {
		t.Fatalf("got %p, want %p", got, orig)
	}
}

func TestSetGlobal_IgnoresNil(t *testing.T) {
	resetGlobalExecutor()
	t.Cleanup(resetGlobalExecutor)

	if SetGlobal(nil) {
		t.Fatal("SetGlobal(nil) should report false")
	}
	if DefaultExecutor() == nil {
		t.Fatalf("expected default executor to initialize")
	}
}
