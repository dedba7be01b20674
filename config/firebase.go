package config

import (
	"context"
	"encoding/base64"
	"fmt"
	"log"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"
)

// InitFirebase initializes the Firebase Admin SDK and returns its auth client
func InitFirebase(ctx context.Context, cfg *Config) (*auth.Client, error) {
	var opt option.ClientOption

	switch {
	case cfg.FirebaseCredsBase64 != "":
		log.Printf("Using Firebase credentials from base64 environment variable")
		decoded, err := base64.StdEncoding.DecodeString(cfg.FirebaseCredsBase64)
		if err != nil {
			return nil, fmt.Errorf("decode base64 credentials: %w", err)
		}
		opt = option.WithCredentialsJSON(decoded)
	case cfg.FirebaseCredsFile != "":
		log.Printf("Using Firebase credentials file: %s", cfg.FirebaseCredsFile)
		opt = option.WithCredentialsFile(cfg.FirebaseCredsFile)
	default:
		return nil, fmt.Errorf("set FIREBASE_CREDENTIALS_BASE64 or GOOGLE_APPLICATION_CREDENTIALS")
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.FirebaseProjectID}, opt)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase app: %w", err)
	}
	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initialize firebase auth: %w", err)
	}
	return client, nil
}
