// Copyright 2025 TejaData
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package wordlist fetches banned/competitor word lists from their
// configured locations. A location is a plain file path, an
// "s3://bucket/key" URL, or a "redis://host:port/key" URL. Lists are
// comma-separated text; entries are trimmed, lowercased, and empty
// entries dropped.
package wordlist

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-redis/redis/v8"
)

// Loader resolves word-list locations. The zero value is not usable;
// call NewLoader.
type Loader struct {
	s3Client    *s3.Client
	redisClient *redis.Client
}

// Option customizes a Loader
type Option func(*Loader)

// WithS3Client injects a pre-built S3 client (used by tests and by
// deployments with custom endpoints)
func WithS3Client(client *s3.Client) Option {
	return func(l *Loader) { l.s3Client = client }
}

// WithRedisClient injects a pre-built Redis client
func WithRedisClient(client *redis.Client) Option {
	return func(l *Loader) { l.redisClient = client }
}

// NewLoader creates a word-list loader. Transport clients are created
// lazily on first use for schemes that need them.
func NewLoader(opts ...Option) *Loader {
	l := &Loader{}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Load fetches and parses the word list at the given location
func (l *Loader) Load(ctx context.Context, location string) ([]string, error) {
	switch {
	case strings.HasPrefix(location, "s3://"):
		return l.loadS3(ctx, location)
	case strings.HasPrefix(location, "redis://"):
		return l.loadRedis(ctx, location)
	default:
		return l.loadFile(location)
	}
}

func (l *Loader) loadFile(path string) ([]string, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(string(content)), nil
}

// loadS3 fetches s3://bucket/key
func (l *Loader) loadS3(ctx context.Context, location string) ([]string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid s3 location %s: %w", location, err)
	}
	bucket := u.Host
	key := strings.TrimPrefix(u.Path, "/")
	if bucket == "" || key == "" {
		return nil, fmt.Errorf("invalid s3 location %s: bucket and key required", location)
	}

	client, err := l.ensureS3Client(ctx)
	if err != nil {
		return nil, err
	}

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	defer func() { _ = out.Body.Close() }()

	content, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", location, err)
	}
	return Parse(string(content)), nil
}

// loadRedis fetches the string value at redis://host:port/key
func (l *Loader) loadRedis(ctx context.Context, location string) ([]string, error) {
	u, err := url.Parse(location)
	if err != nil {
		return nil, fmt.Errorf("invalid redis location %s: %w", location, err)
	}
	key := strings.TrimPrefix(u.Path, "/")
	if key == "" {
		return nil, fmt.Errorf("invalid redis location %s: key required", location)
	}

	client := l.redisClient
	if client == nil {
		password := ""
		if u.User != nil {
			password, _ = u.User.Password()
		}
		client = redis.NewClient(&redis.Options{
			Addr:         u.Host,
			Password:     password,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		})
		l.redisClient = client
	}

	content, err := client.Get(ctx, key).Result()
	if err != nil {
		return nil, fmt.Errorf("fetching %s: %w", location, err)
	}
	return Parse(content), nil
}

// ensureS3Client builds the S3 client from the default AWS config chain.
// AWS_ACCESS_KEY_ID/AWS_SECRET_ACCESS_KEY are honored as static
// credentials; S3_ENDPOINT overrides the endpoint for S3-compatible
// stores.
func (l *Loader) ensureS3Client(ctx context.Context) (*s3.Client, error) {
	if l.s3Client != nil {
		return l.s3Client, nil
	}

	var optFns []func(*awsconfig.LoadOptions) error
	if accessKey := os.Getenv("AWS_ACCESS_KEY_ID"); accessKey != "" {
		optFns = append(optFns, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(
				accessKey, os.Getenv("AWS_SECRET_ACCESS_KEY"), "")))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	var s3Options []func(*s3.Options)
	if endpoint := os.Getenv("S3_ENDPOINT"); endpoint != "" {
		s3Options = append(s3Options, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		})
	}

	l.s3Client = s3.NewFromConfig(awsCfg, s3Options...)
	return l.s3Client, nil
}

// Parse splits comma-separated list content into normalized words
func Parse(content string) []string {
	var words []string
	for _, raw := range strings.Split(content, ",") {
		word := strings.ToLower(strings.TrimSpace(raw))
		if word != "" {
			words = append(words, word)
		}
	}
	return words
}
