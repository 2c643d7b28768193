// Package kms decrypts venue credential material supplied as AWS KMS
// ciphertext, so the signing key never sits in the environment in plaintext.
package kms

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/kms"
)

// Client wraps the AWS KMS SDK to perform decryption operations.
type Client struct {
	kms *kms.Client
}

// New creates a KMS Client. If localStackEndpoint is non-empty, the client
// targets that endpoint with dummy credentials (for local development).
// Otherwise it uses the AWS default credential chain (IAM Roles in production).
func New(ctx context.Context, region, localStackEndpoint string) (*Client, error) {
	var opts []func(*config.LoadOptions) error
	opts = append(opts, config.WithRegion(region))

	if localStackEndpoint != "" {
		opts = append(opts,
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider("test", "test", "test")),
		)
	}

	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("kms: load aws config: %w", err)
	}

	var kmsOpts []func(*kms.Options)
	if localStackEndpoint != "" {
		kmsOpts = append(kmsOpts, func(o *kms.Options) {
			o.BaseEndpoint = aws.String(localStackEndpoint)
		})
	}

	return &Client{
		kms: kms.NewFromConfig(cfg, kmsOpts...),
	}, nil
}

// DecryptSigningKey decrypts a base64-encoded KMS ciphertext and returns the
// plaintext as a trimmed hex key string. The caller should seal the result
// into locked memory promptly.
func (c *Client) DecryptSigningKey(ctx context.Context, encoded string) (string, error) {
	ciphertext, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return "", fmt.Errorf("kms: decode ciphertext: %w", err)
	}

	out, err := c.kms.Decrypt(ctx, &kms.DecryptInput{
		CiphertextBlob: ciphertext,
	})
	if err != nil {
		return "", fmt.Errorf("kms: decrypt: %w", err)
	}

	return strings.TrimSpace(string(out.Plaintext)), nil
}
