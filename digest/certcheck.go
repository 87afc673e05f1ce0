package digest

import (
	"bytes"
	"crypto/x509"
	"encoding/pem"
	"fmt"
	"net/http"

	"github.com/F5Networks/f5-appsvcs-extension-sub010/adcerrors"
	"github.com/F5Networks/f5-appsvcs-extension-sub010/declaration"
)

// checkCertificates parses every declared certificate and rejects
// structurally impossible combinations: a self-signed certificate has no
// issuer, so it can neither declare an issuerCertificate nor request
// OCSP stapling.
func checkCertificates(decl declaration.Declaration) error {
	return decl.Walk(func(tenant, app, item string, obj map[string]any) error {
		if declaration.ClassOf(obj) != declaration.ClassCertificate {
			return nil
		}
		pemText, ok := obj["certificate"].(string)
		if !ok {
			// A device reference or an unfetched remote; nothing to parse.
			return nil
		}

		block, _ := pem.Decode([]byte(pemText))
		if block == nil {
			return &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("certificate /%s/%s/%s is not valid PEM", tenant, app, item),
			}
		}
		cert, err := x509.ParseCertificate(block.Bytes)
		if err != nil {
			return &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("certificate /%s/%s/%s cannot be parsed", tenant, app, item),
				Cause:   err,
			}
		}

		if !bytes.Equal(cert.RawIssuer, cert.RawSubject) {
			return nil
		}
		if _, has := obj["issuerCertificate"]; has {
			return &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("certificate /%s/%s/%s is self-signed and cannot declare issuerCertificate", tenant, app, item),
			}
		}
		if stapling, _ := obj["ocspStapling"].(bool); stapling {
			return &adcerrors.RequestError{
				Status:  http.StatusUnprocessableEntity,
				Message: fmt.Sprintf("certificate /%s/%s/%s is self-signed and cannot request OCSP stapling", tenant, app, item),
			}
		}
		return nil
	})
}
