package pkg

import "github.com/google/uuid"

func GenerateGameID() string {
	return uuid.NewString()
}

func GenerateUserID() string {
	return uuid.NewString()
}

func GenerateConnectionID() string {
	return uuid.NewString()
}
