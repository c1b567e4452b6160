// Package handlers is the HTTP surface over goSession.Engine: login, logout,
// signup, refresh, identity and health endpoints.
//
// Handlers are thin. They parse the request, call the Engine, write cookies
// from the RequestContext and map errors with goSession.HTTPStatus and
// goSession.PublicMessage. No authentication logic lives here.
package handlers
