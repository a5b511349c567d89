package handlers

import "os"

func apiKey() string {
	return os.Getenv("AI_API_KEY") // want "os.Getenv outside package config"
}

func secret() (string, bool) {
	return os.LookupEnv("SECRET_KEY") // want "os.LookupEnv outside package config"
}

type settings struct{}

func (settings) Getenv(key string) string { return key }

func notOS() string {
	return settings{}.Getenv("AI_API_KEY")
}
