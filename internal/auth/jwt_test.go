package auth

import "testing"

func TestGenerateAndValidateDeviceToken(t *testing.T) {
	secret := []byte("test-secret")

	token, err := GenerateDeviceToken("device-123", secret)
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}
	if token == "" {
		t.Fatal("GenerateDeviceToken() returned empty token")
	}

	claims, err := ValidateToken(token, secret)
	if err != nil {
		t.Fatalf("ValidateToken() error = %v", err)
	}
	if claims.DeviceID != "device-123" {
		t.Errorf("DeviceID = %q, want %q", claims.DeviceID, "device-123")
	}
	if claims.Role != "device" {
		t.Errorf("Role = %q, want %q", claims.Role, "device")
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	token, err := GenerateDeviceToken("device-123", []byte("right-secret"))
	if err != nil {
		t.Fatalf("GenerateDeviceToken() error = %v", err)
	}

	if _, err := ValidateToken(token, []byte("wrong-secret")); err == nil {
		t.Error("ValidateToken() with wrong secret should fail")
	}
}

func TestValidateTokenGarbage(t *testing.T) {
	if _, err := ValidateToken("not-a-token", []byte("secret")); err == nil {
		t.Error("ValidateToken() with garbage input should fail")
	}
}
