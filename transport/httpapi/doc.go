// Package httpapi is the HTTP implementation of examAuth.Transport.
//
// Every endpoint lives under <base>/api/v1/ and answers with a JSON envelope:
//
//	{"success": true,  "result": {...}}
//	{"success": false, "error": {"code": 2101, "message": "..."}}
//
// Coded failures become *examAuth.RemoteError. A success envelope without a
// decodable result is reported as examAuth.ErrProtocolViolation. Bearer
// tokens are attached with golang.org/x/oauth2 and every call carries an
// X-Request-ID, taken from the context when set with examAuth.WithRequestID.
package httpapi
