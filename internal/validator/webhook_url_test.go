package validator

import "testing"

func TestValidateWebhookURLRejectsLoopbackAndPrivate(t *testing.T) {
	bad := []string{
		"http://localhost/hook",
		"http://127.0.0.1:8080/hook",
		"http://0.0.0.0/hook",
		"http://[::1]/hook",
		"http://10.0.0.5/hook",
		"http://192.168.1.1/hook",
		"ftp://example.com/hook",
		"not-a-url",
	}
	for _, raw := range bad {
		if err := ValidateWebhookURL(raw); err == nil {
			t.Errorf("expected %q to be rejected", raw)
		}
	}
}

func TestValidateWebhookURLAllowsPublicHTTPS(t *testing.T) {
	good := []string{
		"https://hooks.example.com/callback",
		"http://api.example.com/v1/ocr-callback",
	}
	for _, raw := range good {
		if err := ValidateWebhookURL(raw); err != nil {
			t.Errorf("expected %q to be allowed, got %v", raw, err)
		}
	}
}
