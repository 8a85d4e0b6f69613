// Package noserver obtains OAuth2 tokens for command-line programs without a
// hosted redirect endpoint.
//
// The provider redirects the user's browser to http://localhost:{port}{path},
// where a one-shot listener bound to 127.0.0.1 captures the authorization code,
// answers with a short plain-text page and shuts down. The code is then
// exchanged for a token.
//
//	cfg := noserver.NewConfig(clientID, clientSecret,
//		"https://accounts.example.com/o/oauth2/auth",
//		"https://accounts.example.com/o/oauth2/token",
//	).WithScopes("openid", "email")
//
//	auth, err := noserver.New(cfg, noserver.WithLogger(logger))
//	if err != nil {
//		return err
//	}
//	token, err := auth.Authenticate(ctx)
//	switch {
//	case errors.Is(err, noserver.ErrTimeout):
//		// the user never finished in the browser
//	case errors.Is(err, noserver.ErrStateMismatch):
//		// the redirect did not belong to this attempt
//	}
//
// The redirect URI registered with the provider must match Config.RedirectURI
// exactly, including the port.
package noserver
