// Package localserver serves the meterd HTTP API on a Unix domain socket.
//
// The socket is created with mode 0600, so only the server's user (and
// root) can connect. Requests arriving on it are trusted: resetting reads
// and /admin endpoints need neither the admin key nor an allow-listed
// address. Requests on the socket are not fed into the API family.
package localserver
