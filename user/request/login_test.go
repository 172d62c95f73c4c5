package request

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLoginRequest(t *testing.T) {
	expectedMap := map[string]string{"email": "email", "password": "***"}
	expected, _ := json.Marshal(expectedMap)
	loginReq := LoginRequest{Email: "email", Password: "password"}

	actual, _ := json.Marshal(loginReq)

	assert.EqualValues(t, expected, actual)
	assert.EqualValues(t, "password", loginReq.Password)
}

func TestRegisterRequest(t *testing.T) {
	register := RegisterRequest{
		Email:     "jane@example.com",
		Password:  "password",
		FirstName: "Jane",
		LastName:  "Doe",
	}

	actual, err := json.Marshal(register)

	assert.NoError(t, err)
	assert.Contains(t, string(actual), `"password":"***"`)
	assert.NotContains(t, string(actual), `"password":"password"`)
	assert.EqualValues(t, "password", register.Password)
}
