// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

// Package storage archives generated article images in S3-compatible
// object storage. Archived images get a stable public URL that the
// pipeline can reference before the article reaches WordPress. Path-style
// addressing is used so CEPH and Hetzner endpoints work.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/google/uuid"
)

// keyPrefix is the folder all generated images live under.
const keyPrefix = "generated"

// Archive stores images in a single public bucket.
type Archive struct {
	s3        *s3.Client
	bucket    string
	endpoint  string
	publicURL string // optional CDN/direct URL for the bucket
	now       func() time.Time
}

// New creates an archive client. Returns (nil, nil) if the endpoint,
// credentials or bucket are empty, allowing the app to start without
// storage.
func New(endpoint, region, accessKey, secretKey, bucket, publicURL string) (*Archive, error) {
	if endpoint == "" || accessKey == "" || secretKey == "" || bucket == "" {
		return nil, nil
	}
	if region == "" {
		region = "us-east-1"
	}
	endpoint = strings.TrimRight(endpoint, "/")

	client := s3.New(s3.Options{
		Region:       region,
		BaseEndpoint: aws.String(endpoint),
		Credentials:  credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		UsePathStyle: true,
	})

	return &Archive{
		s3:        client,
		bucket:    bucket,
		endpoint:  endpoint,
		publicURL: strings.TrimRight(publicURL, "/"),
		now:       time.Now,
	}, nil
}

// PutImage uploads data under a fresh key and returns its public URL.
func (a *Archive) PutImage(ctx context.Context, data []byte, contentType string) (string, error) {
	if contentType == "" {
		contentType = "image/png"
	}
	key := a.newKey(contentType)

	_, err := a.s3.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
		ACL:           s3types.ObjectCannedACLPublicRead,
	})
	if err != nil {
		return "", fmt.Errorf("s3 upload %s/%s: %w", a.bucket, key, err)
	}
	return a.FileURL(key), nil
}

// Delete removes an archived image by its public URL. URLs that do not
// belong to this archive are ignored.
func (a *Archive) Delete(ctx context.Context, rawURL string) error {
	key, ok := a.KeyFromURL(rawURL)
	if !ok {
		return nil
	}
	_, err := a.s3.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete %s/%s: %w", a.bucket, key, err)
	}
	return nil
}

// FileURL returns the public URL for key. Uses the configured public URL
// if set, otherwise builds a path-style URL.
func (a *Archive) FileURL(key string) string {
	if a.publicURL != "" {
		return a.publicURL + "/" + key
	}
	return a.endpoint + "/" + a.bucket + "/" + key
}

// KeyFromURL extracts the object key from a public URL, or ("", false)
// if the URL doesn't belong to this archive.
func (a *Archive) KeyFromURL(rawURL string) (string, bool) {
	if a.publicURL != "" {
		if key, ok := strings.CutPrefix(rawURL, a.publicURL+"/"); ok {
			return key, true
		}
	}
	if key, ok := strings.CutPrefix(rawURL, a.endpoint+"/"+a.bucket+"/"); ok {
		return key, true
	}
	return "", false
}

// newKey builds generated/YYYY/MM/<uuid><ext>.
func (a *Archive) newKey(contentType string) string {
	return fmt.Sprintf("%s/%s/%s%s", keyPrefix, a.now().UTC().Format("2006/01"), uuid.New().String(), extension(contentType))
}

func extension(contentType string) string {
	switch contentType {
	case "image/jpeg":
		return ".jpg"
	case "image/webp":
		return ".webp"
	case "image/gif":
		return ".gif"
	}
	return ".png"
}
