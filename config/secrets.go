package config

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterStore fetches a single decrypted parameter by name.
type ParameterStore interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// NewSSMStore builds a parameter store client from the default AWS credential chain.
func NewSSMStore(ctx context.Context) (ParameterStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}
	return ssm.NewFromConfig(awsCfg), nil
}

// ResolveSecret returns the value of key. When key+"_SSM_PARAM" names a
// parameter, the value is read from the store instead of the environment.
func ResolveSecret(ctx context.Context, c map[string]string, key string, store func(context.Context) (ParameterStore, error)) (string, error) {
	paramName := GetString(c, key+"_SSM_PARAM", "")
	if paramName == "" {
		return GetString(c, key, ""), nil
	}

	client, err := store(ctx)
	if err != nil {
		return "", err
	}

	out, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(paramName),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", fmt.Errorf("get parameter %s: %w", paramName, err)
	}
	if out.Parameter == nil || out.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", paramName)
	}
	return aws.ToString(out.Parameter.Value), nil
}
