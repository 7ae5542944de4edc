// Package ask holds the wire contract with the remote answering service
// (POST /ask): the request/response shapes, the request builder that turns
// a session configuration into a request, and the HTTP answer client.
package ask
