package flows

import "context"

// Service is the centralized flow runner built once by the root engine.
type Service struct {
	deps Deps
}

// New returns a flow service with immutable dependency wiring.
func New(deps Deps) Service {
	return Service{deps: deps}
}

// Initialized reports whether the service has been wired with flow deps.
func (s Service) Initialized() bool {
	return s.deps.Logout.ParseAccess != nil && s.deps.Issue.CreateRecord != nil
}

func (s Service) VerifyCredentials(ctx context.Context, email, password string) VerifyResult {
	return RunVerifyCredentials(ctx, email, password, s.deps.Verify)
}

func (s Service) Issue(ctx context.Context, identity Identity) IssueResult {
	return RunIssue(ctx, identity, s.deps.Issue)
}

func (s Service) Login(ctx context.Context, email, password, ip string) LoginResult {
	return RunLogin(ctx, email, password, ip, s.deps.Login)
}

func (s Service) Signup(ctx context.Context, email, password string) SignupResult {
	return RunSignup(ctx, email, password, s.deps.Signup)
}

func (s Service) Refresh(ctx context.Context, refreshToken string) RefreshResult {
	return RunRefresh(ctx, refreshToken, s.deps.Refresh)
}

func (s Service) Logout(ctx context.Context, accessToken string) LogoutResult {
	return RunLogout(ctx, accessToken, s.deps.Logout)
}

func (s Service) Gate(path, accessToken string) GateResult {
	return RunGate(path, accessToken, s.deps.Gate)
}
