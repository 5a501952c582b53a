// Package sec provides authentication and security primitives for the web
// application.
//
// # Authentication
//
// The journal has a single administrator configured at start: a username and
// a bcrypt password hash. A successful login is remembered with a signed,
// expiring auth ticket (an HS256 JWT) stored in an HTTP-only cookie. The
// connectrpc.com/authn middleware resolves the ticket on every request;
// requests without a valid ticket proceed anonymously.
//
// IMPORTANT: the ticket cookie is only marked Secure outside of dev mode. TLS
// must be used in production to protect it in transit.
//
// # Components
//
//   - [Credentials]: the admin identity and its password check
//   - [Tickets]: issues, verifies and clears auth ticket cookies
//   - [NewAuthMiddleware]: resolves the ticket into an [Identity]
//   - [GetAuthenticatedUser], [SetAuthenticatedUser]: context accessors
//   - [Flashes]: one-shot messages carried across a redirect
//   - [HashPassword], [ComparePassword]: bcrypt password hashing utilities
package sec

const (
	// ErrInvalidCredentials is returned when a login attempt fails.
	ErrInvalidCredentials Error = "invalid username or password"
	// ErrForbidden is returned when an anonymous user attempts a privileged
	// operation.
	ErrForbidden Error = "forbidden"
)

// Error is an error type returned by the sec package.
type Error string

// Error satisfies [error].
func (e Error) Error() string { return string(e) }
