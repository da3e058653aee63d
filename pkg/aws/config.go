package aws

import (
	"context"
	"fmt"
	"os"

	sdkaws "github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"go.uber.org/zap"
)

// Settings are the AWS connection options read from the environment.
type Settings struct {
	Region    string
	Endpoint  string // LocalStack edge URL, e.g. http://localstack:4566
	AccessKey string
	SecretKey string
}

// SettingsFromEnv reads AWS_REGION, AWS_ENDPOINT and static credentials.
func SettingsFromEnv() Settings {
	s := Settings{
		Region:    os.Getenv("AWS_REGION"),
		Endpoint:  os.Getenv("AWS_ENDPOINT"),
		AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
		SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
	}
	if s.Region == "" {
		s.Region = "us-east-1"
	}
	return s
}

// LoadAWSConfig loads the SDK config. When an endpoint is set every client
// built from the returned config targets it (LocalStack).
func LoadAWSConfig(ctx context.Context, s Settings) (sdkaws.Config, error) {
	opts := []func(*config.LoadOptions) error{
		config.WithRegion(s.Region),
	}
	if s.AccessKey != "" || s.SecretKey != "" {
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(s.AccessKey, s.SecretKey, ""),
		))
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return cfg, fmt.Errorf("failed to load aws config: %w", err)
	}

	if s.Endpoint != "" {
		cfg.BaseEndpoint = sdkaws.String(s.Endpoint)
		zap.L().Debug("custom AWS endpoint configured",
			zap.String("endpoint", s.Endpoint),
			zap.String("region", cfg.Region),
		)
	}

	return cfg, nil
}
