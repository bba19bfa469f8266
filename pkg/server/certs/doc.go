// Package certs builds the HTTPS configuration of the orchestrator's
// listener.
//
// The certificate and key are loaded once at startup and then polled for
// changes, so a renewed certificate is served without a restart. A
// certificate that fails to load or is outside its validity window is
// rejected and the previous one stays in use.
//
// Mutual TLS is enabled by naming a client CA bundle:
//
//	server:
//	  tls:
//	    enabled: true
//	    cert_file: /etc/orchestrator/tls.crt
//	    key_file: /etc/orchestrator/tls.key
//	    client_ca_file: /etc/orchestrator/clients.pem
//	    client_auth: require
package certs
