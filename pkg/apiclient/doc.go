// Package apiclient is a Go client for the MedConnect HTTP API.
//
// A Client holds no credentials of its own. Tokens live in a Session, which
// persists them through a TokenStore, so callers choose where a login
// survives (process memory, a file on disk, or their own store):
//
//	sess := apiclient.NewSession(apiclient.NewFileTokenStore(path))
//	c := apiclient.New("http://localhost:8080", sess)
//	if _, err := c.Login(ctx, email, password); err != nil { ... }
//	doctors, err := c.Doctors(ctx, "Cardiology")
package apiclient
