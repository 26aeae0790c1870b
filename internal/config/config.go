package config

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port            string
	DatabaseURL     string
	ShutdownTimeout int // seconds

	AppName     string
	FrontendURL string

	JWTSecret    string
	JWTExpiresIn time.Duration

	GoogleClientID     string
	GoogleClientSecret string

	GmailSender       string
	GmailRefreshToken string

	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	AWSBucket    string

	// AllowGoogleUnlinkWithoutPassword keeps the historical behavior of
	// letting an account unlink Google even when no password is set, which
	// can leave the account with no way to authenticate. Set to false to
	// require a password before unlinking.
	AllowGoogleUnlinkWithoutPassword bool
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	// Load .env file if exists (ignore error in production)
	_ = godotenv.Load()

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		return nil, fmt.Errorf("DATABASE_URL is required")
	}

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		return nil, fmt.Errorf("JWT_SECRET is required")
	}

	jwtExpiresIn := 24 * time.Hour
	if v := os.Getenv("JWT_EXPIRES_IN"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return nil, fmt.Errorf("invalid JWT_EXPIRES_IN: %w", err)
		}
		jwtExpiresIn = d
	}

	googleClientID := os.Getenv("GOOGLE_CLIENT_ID")
	googleClientSecret := os.Getenv("GOOGLE_CLIENT_SECRET")
	if googleClientID == "" || googleClientSecret == "" {
		fmt.Println("Warning: GOOGLE_CLIENT_ID or GOOGLE_CLIENT_SECRET not set, Google sign-in will not work")
	}

	gmailSender := os.Getenv("GMAIL_SENDER")
	gmailRefreshToken := os.Getenv("GMAIL_REFRESH_TOKEN")
	if gmailSender == "" || gmailRefreshToken == "" {
		fmt.Println("Warning: GMAIL_SENDER or GMAIL_REFRESH_TOKEN not set, outbound email will not work")
	}

	awsRegion := os.Getenv("AWS_REGION")
	awsAccessKey := os.Getenv("AWS_ACCESS_KEY")
	awsSecretKey := os.Getenv("AWS_SECRET_KEY")
	awsBucket := os.Getenv("AWS_BUCKET_NAME")
	if awsBucket == "" {
		fmt.Println("Warning: AWS_BUCKET_NAME not set, avatar uploads will not work")
	}

	port := os.Getenv("PORT")
	if port == "" {
		port = "3000"
	}

	frontendURL := os.Getenv("FRONTEND_URL")
	if frontendURL == "" {
		frontendURL = "http://localhost:3000"
	}

	appName := os.Getenv("APP_NAME")
	if appName == "" {
		appName = "Nox Vision"
	}

	allowUnlink := true
	if v := os.Getenv("ALLOW_GOOGLE_UNLINK_WITHOUT_PASSWORD"); v == "false" {
		allowUnlink = false
	}

	return &Config{
		Port:                             port,
		DatabaseURL:                      dbURL,
		ShutdownTimeout:                  30,
		AppName:                          appName,
		FrontendURL:                      frontendURL,
		JWTSecret:                        jwtSecret,
		JWTExpiresIn:                     jwtExpiresIn,
		GoogleClientID:                   googleClientID,
		GoogleClientSecret:               googleClientSecret,
		GmailSender:                      gmailSender,
		GmailRefreshToken:                gmailRefreshToken,
		AWSRegion:                        awsRegion,
		AWSAccessKey:                     awsAccessKey,
		AWSSecretKey:                     awsSecretKey,
		AWSBucket:                        awsBucket,
		AllowGoogleUnlinkWithoutPassword: allowUnlink,
	}, nil
}
