package auth

import (
	"context"
	"sync"

	"github.com/platinummonkey/signon/pkg/identity"
)

type fakeRedirect struct {
	mu          sync.Mutex
	navigateErr error
	result      *identity.Credential
	resultErr   error
	signOutErr  error
	requests    []*identity.GoogleAuthProvider
	signOuts    int
}

func (f *fakeRedirect) SignInWithRedirect(ctx context.Context, provider *identity.GoogleAuthProvider) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, provider)
	return f.navigateErr
}

func (f *fakeRedirect) GetRedirectResult(ctx context.Context) (*identity.Credential, error) {
	return f.result, f.resultErr
}

func (f *fakeRedirect) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return f.signOutErr
}

type passwordCall struct {
	method   string
	email    string
	password string
}

// fakePassword answers sign-in attempts from a queue of errors; an empty
// queue means success
type fakePassword struct {
	mu         sync.Mutex
	signInErrs []error
	createErr  error
	calls      []passwordCall
	signOuts   int
}

func (f *fakePassword) SignInWithEmailAndPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, passwordCall{"signIn", email, password})
	if len(f.signInErrs) > 0 {
		err := f.signInErrs[0]
		f.signInErrs = f.signInErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	return &identity.Credential{
		User:       &identity.User{UID: "uid-" + email, Email: email, IDToken: "token-" + email},
		ProviderID: identity.ProviderIDPassword,
	}, nil
}

func (f *fakePassword) CreateUserWithEmailAndPassword(ctx context.Context, email, password string) (*identity.Credential, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, passwordCall{"create", email, password})
	if f.createErr != nil {
		return nil, f.createErr
	}
	return &identity.Credential{User: &identity.User{UID: "uid-" + email, Email: email}}, nil
}

func (f *fakePassword) SignOut(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signOuts++
	return nil
}

func (f *fakePassword) methods() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	methods := make([]string, len(f.calls))
	for i, c := range f.calls {
		methods[i] = c.method
	}
	return methods
}

type fakePrompter struct {
	email string
	err   error
	calls int
}

func (f *fakePrompter) PromptEmail(ctx context.Context) (string, error) {
	f.calls++
	return f.email, f.err
}

type fakeSessions struct {
	mu       sync.Mutex
	beginErr error
	endErr   error
	tokens   []string
	ends     int
}

func (f *fakeSessions) BeginSession(ctx context.Context, idToken string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tokens = append(f.tokens, idToken)
	return f.beginErr
}

func (f *fakeSessions) EndSession(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ends++
	return f.endErr
}
