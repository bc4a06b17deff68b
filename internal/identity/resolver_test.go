package identity

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/me/mediafront/internal/config"
	"github.com/me/mediafront/pkg/model"
)

// fakeWhoAmI answers with raw/err, optionally blocking until release is closed.
type fakeWhoAmI struct {
	raw     model.WhoAmI
	err     error
	release chan struct{}
	calls   atomic.Int32
}

func (f *fakeWhoAmI) WhoAmI(ctx context.Context) (model.WhoAmI, error) {
	f.calls.Add(1)
	if f.release != nil {
		<-f.release
	}
	return f.raw, f.err
}

type fakeSigner struct {
	err   error
	calls int
}

func (f *fakeSigner) Logout(context.Context) error {
	f.calls++
	return f.err
}

func newResolver(w WhoAmIer, s SignOuter, fallbacks ...Source) *Resolver {
	if len(fallbacks) == 0 {
		fallbacks = []Source{DevelopmentSource{}}
	}
	return NewResolver(NewAPISource(w, testLogger()), s, testLogger(), fallbacks...)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatal("condition not met within 2s")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestResolve_Success(t *testing.T) {
	r := newResolver(&fakeWhoAmI{raw: model.WhoAmI{Username: "alice", IsStaff: true}}, nil)

	p := r.Resolve(context.Background())
	if p.Username != "alice" || !p.Is.Admin || !p.Can.ManageUsers {
		t.Errorf("profile = %+v", p)
	}
	cur, ok := r.Current()
	if !ok || cur != p {
		t.Errorf("Current() = %+v, %v; want resolved profile", cur, ok)
	}
	if r.Resolving() {
		t.Error("guard should be released after resolution")
	}
}

func TestResolve_Forbidden(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL}, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	r := newResolver(c, c)

	p := r.Resolve(context.Background())
	if p != AnonymousProfile() {
		t.Errorf("profile = %+v, want anonymous profile", p)
	}
	if p.Can.AddMedia {
		t.Error("addMedia must be false for anonymous visitors")
	}
}

func TestResolve_TransportFailureWithoutFallback(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	c, err := NewClient(ClientConfig{BaseURL: srv.URL, Timeout: time.Second}, nil, testLogger())
	if err != nil {
		t.Fatal(err)
	}
	r := newResolver(c, c, NewStaticSource(config.UserDefaults{}), DevelopmentSource{})

	p := r.Resolve(context.Background())
	if p != DevelopmentProfile() {
		t.Errorf("profile = %+v, want development profile", p)
	}
	if r.Resolving() {
		t.Error("guard should be released after a failed resolution")
	}
}

func TestResolve_ServerErrorUsesStaticFallback(t *testing.T) {
	static := NewStaticSource(config.UserDefaults{
		Name:       "Static Sam",
		Username:   "sam",
		IsAdvanced: true,
		Pages:      config.PagesConfig{About: "/about-sam"},
	})
	r := newResolver(&fakeWhoAmI{err: &StatusError{Op: "whoami", StatusCode: 500}}, nil, static, DevelopmentSource{})

	p := r.Resolve(context.Background())
	if p.Username != "sam" || p.Name != "Static Sam" || !p.Is.AdvancedUser {
		t.Errorf("profile = %+v, want static fallback", p)
	}
	if !p.Can.AddMedia || p.Can.ManageUsers {
		t.Errorf("static capabilities should follow normalization: %+v", p.Can)
	}
	if p.Pages.About != "/about-sam" || p.Pages.Media != model.DefaultMediaPage {
		t.Errorf("pages = %+v", p.Pages)
	}
}

func TestStaticSource_Anonymous(t *testing.T) {
	p, ok := NewStaticSource(config.UserDefaults{IsAnonymous: true, IsAdmin: true}).Lookup(context.Background())
	if !ok {
		t.Fatal("configured anonymous fallback should answer")
	}
	if p != AnonymousProfile() {
		t.Errorf("profile = %+v, want anonymous", p)
	}
}

func TestStaticSource_RoleFlagsWithoutUsername(t *testing.T) {
	p, ok := NewStaticSource(config.UserDefaults{IsAdmin: true}).Lookup(context.Background())
	if !ok {
		t.Fatal("role-only fallback user should answer")
	}
	if !p.Is.Anonymous || p.Is.Admin || p.Can.ManageUsers {
		t.Errorf("role-only fallback user should resolve anonymous: %+v", p)
	}
}

func TestResolve_SingleFlight(t *testing.T) {
	f := &fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}, release: make(chan struct{})}
	r := newResolver(f, nil)

	const callers = 5
	var started, done sync.WaitGroup
	results := make([]model.UserProfile, callers)
	started.Add(callers)
	done.Add(callers)

	go func() {
		defer done.Done()
		started.Done()
		results[0] = r.Resolve(context.Background())
	}()
	waitFor(t, func() bool { return f.calls.Load() == 1 })
	if !r.Resolving() {
		t.Error("Resolving() should report the in-flight lookup")
	}

	for i := 1; i < callers; i++ {
		go func(i int) {
			defer done.Done()
			started.Done()
			results[i] = r.Resolve(context.Background())
		}(i)
	}
	started.Wait()
	time.Sleep(50 * time.Millisecond)
	close(f.release)
	done.Wait()

	if n := f.calls.Load(); n != 1 {
		t.Errorf("whoami called %d times, want 1", n)
	}
	for i, p := range results {
		if p.Username != "alice" {
			t.Errorf("caller %d got %+v", i, p)
		}
	}
}

func TestResolve_CancelledWaiterGetsPlaceholder(t *testing.T) {
	f := &fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}, release: make(chan struct{})}
	static := NewStaticSource(config.UserDefaults{Name: "Guest", IsAnonymous: true})
	r := newResolver(f, nil, static, DevelopmentSource{})

	done := make(chan model.UserProfile)
	go func() { done <- r.Resolve(context.Background()) }()
	waitFor(t, func() bool { return f.calls.Load() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p := r.Resolve(ctx); p != AnonymousProfile() {
		t.Errorf("cancelled waiter got %+v, want static placeholder", p)
	}

	close(f.release)
	if p := <-done; p.Username != "alice" {
		t.Errorf("in-flight caller got %+v", p)
	}
	if f.calls.Load() != 1 {
		t.Errorf("whoami called %d times, want 1", f.calls.Load())
	}

	// Once something is known, a cancelled caller gets the last record.
	if p := r.Resolve(ctx); p.Username != "alice" {
		t.Errorf("cancelled caller got %+v", p)
	}
}

func TestPlaceholder_WithoutConfiguredUserIsAnonymous(t *testing.T) {
	r := newResolver(&fakeWhoAmI{}, nil, NewStaticSource(config.UserDefaults{}), DevelopmentSource{})

	p := r.Placeholder(context.Background())
	if p != AnonymousProfile() {
		t.Errorf("placeholder = %+v, want anonymous profile", p)
	}
	if p.Can.ManageUsers || p.Is.Admin {
		t.Error("placeholder must not grant development capabilities")
	}
}

func TestPlaceholder_UsesConfiguredUser(t *testing.T) {
	static := NewStaticSource(config.UserDefaults{Name: "Static Sam", Username: "sam"})
	r := newResolver(&fakeWhoAmI{}, nil, static, DevelopmentSource{})

	if p := r.Placeholder(context.Background()); p.Username != "sam" {
		t.Errorf("placeholder = %+v, want configured user", p)
	}
}

func TestResolve_CancelledWaiterWithoutFallbackGetsAnonymous(t *testing.T) {
	f := &fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}, release: make(chan struct{})}
	r := newResolver(f, nil)

	done := make(chan struct{})
	go func() {
		r.Resolve(context.Background())
		close(done)
	}()
	waitFor(t, func() bool { return f.calls.Load() == 1 })

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if p := r.Resolve(ctx); p != AnonymousProfile() {
		t.Errorf("cancelled waiter got %+v, want anonymous profile", p)
	}
	close(f.release)
	<-done
}

func TestResolve_ClearDuringFlightDropsResult(t *testing.T) {
	f := &fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}, release: make(chan struct{})}
	r := newResolver(f, nil)

	done := make(chan struct{})
	go func() {
		r.Resolve(context.Background())
		close(done)
	}()
	waitFor(t, func() bool { return f.calls.Load() == 1 })
	r.Clear()
	close(f.release)
	<-done

	if _, ok := r.Current(); ok {
		t.Error("a cleared resolver must not be repopulated by a stale lookup")
	}
}

func TestSignOut_FailureKeepsProfile(t *testing.T) {
	signer := &fakeSigner{err: &StatusError{Op: "logout", StatusCode: http.StatusForbidden}}
	r := newResolver(&fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}}, signer)
	before := r.Resolve(context.Background())

	if r.SignOut(context.Background()) {
		t.Fatal("SignOut() = true, want false")
	}
	cur, ok := r.Current()
	if !ok || cur != before {
		t.Errorf("Current() = %+v, %v; want unchanged profile", cur, ok)
	}
}

func TestSignOut_TransportError(t *testing.T) {
	r := newResolver(&fakeWhoAmI{}, &fakeSigner{err: errors.New("connection refused")})
	if r.SignOut(context.Background()) {
		t.Fatal("SignOut() = true, want false")
	}
}

func TestSignOut_SuccessClears(t *testing.T) {
	signer := &fakeSigner{}
	r := newResolver(&fakeWhoAmI{raw: model.WhoAmI{Username: "alice"}}, signer)
	r.Resolve(context.Background())

	if !r.SignOut(context.Background()) {
		t.Fatal("SignOut() = false, want true")
	}
	if _, ok := r.Current(); ok {
		t.Error("profile should be cleared after sign-out")
	}
	if signer.calls != 1 {
		t.Errorf("logout called %d times", signer.calls)
	}
}

func TestSignOut_NoSigner(t *testing.T) {
	r := newResolver(&fakeWhoAmI{}, nil)
	if r.SignOut(context.Background()) {
		t.Fatal("SignOut() without a backend client should fail")
	}
}
