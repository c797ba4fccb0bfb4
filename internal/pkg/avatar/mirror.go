package avatar

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/disintegration/imaging"
	"github.com/gofiber/fiber/v2/log"

	"github.com/subamericanetwork/nx8up/internal/pkg/env"
)

const thumbnailSize = 256

// Mirror copies connected-account profile images into our own S3 bucket so
// dashboards do not hotlink the platform CDN. Best effort; linking never
// depends on it.
type Mirror struct {
	s3Client *s3.Client
	bucket   string
	baseURL  string
	http     *http.Client
}

// NewMirrorFromEnv returns nil when S3 is not configured; callers treat a
// nil mirror as "feature off".
func NewMirrorFromEnv() *Mirror {
	bucket := strings.TrimSpace(env.GetEnv("S3_AVATAR_BUCKET", ""))
	accessKey := strings.TrimSpace(env.GetEnv("S3_ACCESS_KEY_ID", ""))
	secretKey := strings.TrimSpace(env.GetEnv("S3_SECRET_ACCESS_KEY", ""))
	if bucket == "" || accessKey == "" || secretKey == "" {
		return nil
	}

	region := env.GetEnv("S3_REGION", "us-east-1")
	endpoint := strings.TrimSpace(env.GetEnv("S3_ENDPOINT_URL", ""))

	awsConfig, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			accessKey,
			secretKey,
			"",
		)),
	)
	if err != nil {
		log.Warnf("[Avatar] S3 config failed, mirroring disabled: %v", err)
		return nil
	}

	client := s3.NewFromConfig(awsConfig, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	baseURL := strings.TrimRight(env.GetEnv("S3_PUBLIC_BASE_URL", ""), "/")
	return &Mirror{
		s3Client: client,
		bucket:   bucket,
		baseURL:  baseURL,
		http:     &http.Client{Timeout: 10 * time.Second},
	}
}

// MirrorProfileImage downloads, resizes and uploads one avatar. Returns the
// mirrored public URL.
func (m *Mirror) MirrorProfileImage(ctx context.Context, accountID, sourceURL string) (string, error) {
	if sourceURL == "" {
		return "", fmt.Errorf("avatar: no source url")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", err
	}
	resp, err := m.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("avatar: download failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("avatar: download failed: status %d", resp.StatusCode)
	}

	img, err := imaging.Decode(resp.Body)
	if err != nil {
		return "", fmt.Errorf("avatar: decode failed: %w", err)
	}

	thumb := imaging.Fill(img, thumbnailSize, thumbnailSize, imaging.Center, imaging.Lanczos)
	var buf bytes.Buffer
	if err := imaging.Encode(&buf, thumb, imaging.JPEG, imaging.JPEGQuality(85)); err != nil {
		return "", fmt.Errorf("avatar: encode failed: %w", err)
	}

	key := fmt.Sprintf("avatars/%s.jpg", accountID)
	_, err = m.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(m.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return "", fmt.Errorf("avatar: upload failed: %w", err)
	}

	if m.baseURL != "" {
		return m.baseURL + "/" + key, nil
	}
	return fmt.Sprintf("https://%s.s3.amazonaws.com/%s", m.bucket, key), nil
}
