/*
Package tls terminates HTTPS on the proxy listener when the deployment does
not place a TLS-terminating edge in front of it.

	tlsConfig, err := tls.ServerConfig(ctx, tls.Options{
		CertFile:       "/etc/atelier/tls/server.crt",
		KeyFile:        "/etc/atelier/tls/server.key",
		MinVersion:     "1.3",
		ReloadInterval: 5 * time.Minute,
	}, logger)

The returned config serves the certificate through a CertificateReloader, so
renewed files on disk are picked up without restarting the server. A renewal
that fails to parse or has expired is logged and the previous pair stays in
service.
*/
package tls
