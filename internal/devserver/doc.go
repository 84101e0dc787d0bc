// Package devserver is an in-memory implementation of the QuickQR REST
// contract, used for local development and for exercising the client
// against a real HTTP server in tests.
//
// Routes (under /api):
//
//	POST   /auth/register   {username, email, password} -> {user, token}
//	POST   /auth/login      {email, password}           -> {user, token}
//	GET    /auth/me                                     -> {user}
//	GET    /qr/history                                  -> [record] (snake_case)
//	POST   /qr/generate     {url, name}                 -> {data: record} (camelCase)
//	DELETE /qr/{id}                                     -> 204
//
// The two record shapes differ on purpose: real deployments were observed
// to mix them, and the client must normalize both.
package devserver
