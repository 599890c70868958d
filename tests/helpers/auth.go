package helpers

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"math/big"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
)

func randInt(max int) int {
	n, _ := rand.Int(rand.Reader, big.NewInt(int64(max)))
	return int(n.Int64())
}

// GeneratePassword generates a 10 character password with a capital and special char
func GeneratePassword() string {
	const (
		lower   = "abcdefghijklmnopqrstuvwxyz"
		upper   = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"
		special = "!@#$%^&*"
		numbers = "0123456789"
		all     = lower + upper + special + numbers
	)

	password := make([]byte, 10)
	password[0] = upper[randInt(len(upper))]
	password[1] = special[randInt(len(special))]
	password[2] = numbers[randInt(len(numbers))]

	for i := 3; i < 10; i++ {
		password[i] = all[randInt(len(all))]
	}

	for i := range password {
		j := randInt(len(password))
		password[i], password[j] = password[j], password[i]
	}

	return string(password)
}

// sessionEnvelope is the wire shape of signup and login responses.
type sessionEnvelope struct {
	Session struct {
		AccessToken string `json:"access_token"`
	} `json:"session"`
}

// AcquireAccount signs up (or logs in, if the account exists) against the app
// and returns a bearer token.
func AcquireAccount(t *testing.T, app *fiber.App, email, password string) string {
	t.Helper()

	body, _ := json.Marshal(map[string]string{
		"email":    email,
		"password": password,
	})

	req := httptest.NewRequest("POST", "/auth/signup", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("Signup request failed: %v", err)
	}

	if resp.StatusCode != 200 {
		// Might already exist, try login
		t.Logf("Signup returned %d, trying login", resp.StatusCode)
		req = httptest.NewRequest("POST", "/auth/login", bytes.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		resp, err = app.Test(req)
		if err != nil {
			t.Fatalf("Login request failed: %v", err)
		}
		if resp.StatusCode != 200 {
			t.Fatalf("Login failed with status %d", resp.StatusCode)
		}
	}

	var envelope sessionEnvelope
	ParseJSON(t, resp, &envelope)
	if envelope.Session.AccessToken == "" {
		t.Fatal("Access token is empty")
	}

	return envelope.Session.AccessToken
}
