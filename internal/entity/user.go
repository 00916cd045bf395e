package entity

const UnknownUserName = "Unknown User"

type User struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}
