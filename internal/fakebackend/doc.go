// Package fakebackend is an in-memory fiber implementation of the platform's
// user API. It backs the transport and session manager tests, the examctl
// demo mode and the load test. Nothing here is meant to face a network.
package fakebackend
