package services

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

// Upload is one photo to store: an opaque content stream plus its type.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// PhotoService stores photos in S3 and hands back download URLs.
type PhotoService struct {
	s3Client *s3.Client
	bucket   string
	region   string
	endpoint string
}

// NewPhotoService creates a new photo service backed by S3 or an
// S3-compatible endpoint.
func NewPhotoService(region, bucket, accessKey, secretKey, endpoint string) (*PhotoService, error) {
	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if accessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	cfg, err := awsconfig.LoadDefaultConfig(context.Background(), opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	s3Client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	return &PhotoService{
		s3Client: s3Client,
		bucket:   bucket,
		region:   region,
		endpoint: endpoint,
	}, nil
}

// Put uploads one object and returns its download URL.
func (s *PhotoService) Put(ctx context.Context, key, contentType string, body io.Reader) (string, error) {
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s: %w", key, err)
	}
	return s.DownloadURL(key), nil
}

// DownloadURL returns the public URL for a stored object.
func (s *PhotoService) DownloadURL(key string) string {
	if s.endpoint != "" {
		return fmt.Sprintf("%s/%s/%s", strings.TrimSuffix(s.endpoint, "/"), s.bucket, key)
	}
	return fmt.Sprintf("https://%s.s3.%s.amazonaws.com/%s", s.bucket, s.region, key)
}

// UploadToEvent uploads the photos concurrently under events/{id}/ and
// returns their URLs keyed by upload timestamp in milliseconds, the key
// format of an event's photo map.
func (s *PhotoService) UploadToEvent(ctx context.Context, eventID string, uploads []Upload) (map[string]string, error) {
	photos := make(map[string]string, len(uploads))
	var mu sync.Mutex

	base := time.Now().UnixMilli()
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			key := fmt.Sprintf("events/%s/%s", eventID, objectName(up.Filename))
			url, err := s.Put(ctx, key, up.ContentType, up.Body)
			if err != nil {
				return err
			}
			mu.Lock()
			// Successive keys so simultaneous uploads never collide.
			photos[strconv.FormatInt(base+int64(i), 10)] = url
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to upload event photos: %w", err)
	}
	return photos, nil
}

// UploadToAlbum uploads photos under albumPhotos/{id}/ and returns their
// URLs in submission order.
func (s *PhotoService) UploadToAlbum(ctx context.Context, albumID string, uploads []Upload) ([]string, error) {
	urls := make([]string, len(uploads))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, up := range uploads {
		i, up := i, up
		g.Go(func() error {
			key := fmt.Sprintf("albumPhotos/%s/%s", albumID, objectName(up.Filename))
			url, err := s.Put(ctx, key, up.ContentType, up.Body)
			if err != nil {
				return err
			}
			urls[i] = url
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("failed to upload album photos: %w", err)
	}
	return urls, nil
}

// UploadProfilePicture uploads one photo under profilePictures/ and
// returns its URL.
func (s *PhotoService) UploadProfilePicture(ctx context.Context, up Upload) (string, error) {
	key := fmt.Sprintf("profilePictures/%s", objectName(up.Filename))
	return s.Put(ctx, key, up.ContentType, up.Body)
}

// objectName derives a collision-free object name, keeping the original
// extension for content sniffing downstream.
func objectName(filename string) string {
	ext := path.Ext(filename)
	return uuid.New().String() + ext
}

// NormalizeDownloadURL re-encodes the object path segment of a stored
// download URL. Stored URLs embed the object path after "/o/" with its
// separators escaped; URLs that went through a decoding round trip must
// be re-escaped before being reused as query parameters.
func NormalizeDownloadURL(raw string) string {
	parts := strings.SplitN(raw, "/o/", 2)
	if len(parts) != 2 {
		return raw
	}
	base, rest := parts[0], parts[1]

	filePath := rest
	query := ""
	if i := strings.Index(rest, "?"); i >= 0 {
		filePath, query = rest[:i], rest[i+1:]
	}

	decoded, err := url.PathUnescape(filePath)
	if err != nil {
		return raw
	}
	encoded := filePath
	if decoded == filePath {
		encoded = url.QueryEscape(filePath)
	}
	if query == "" {
		return base + "/o/" + encoded
	}
	return base + "/o/" + encoded + "?" + query
}
