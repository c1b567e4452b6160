package flows

// Deps groups flow dependency sets. Root engine builds this once and delegates
// request methods to the matching flow implementation.
type Deps struct {
	Verify  VerifyDeps
	Issue   IssueDeps
	Login   LoginDeps
	Signup  SignupDeps
	Refresh RefreshDeps
	Logout  LogoutDeps
	Gate    GateDeps
}
