package session

const (
	// AuthPath is the login/registration page.
	AuthPath = "/auth"
	// HomePath is where signed-in users land.
	HomePath = "/"
)

// Decision is the outcome of Guard: either allow the page or redirect elsewhere.
type Decision struct {
	Redirect string
}

func (d Decision) Allowed() bool { return d.Redirect == "" }

var allow = Decision{}

// Guard decides whether the page at path may be shown.
// Every page but the auth page needs a session; the auth page is only for anonymous visitors.
func Guard(path string, loggedIn bool) Decision {
	isAuthPage := path == AuthPath
	switch {
	case isAuthPage && loggedIn:
		return Decision{Redirect: HomePath}
	case !isAuthPage && !loggedIn:
		return Decision{Redirect: AuthPath}
	default:
		return allow
	}
}
