// Package tlsroots loads TLS material for meterd.
//
// The server side keeps its certificate in a CertReloader that re-reads the
// key pair when the files change or on SIGHUP. The CLI side builds a client
// configuration trusting the system roots plus an optional CA file.
package tlsroots
