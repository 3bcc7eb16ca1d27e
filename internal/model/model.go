package model

import "time"

type Student struct {
	ID           string
	Nom          string
	Age          int
	Classe       string
	Departement  string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
}

type RecommendedBook struct {
	ID           int64
	Title        string
	Price        float64
	Category     string
	Availability string
}
