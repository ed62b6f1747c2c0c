package imagegen

import (
	"bytes"
	"context"
	"encoding/base64"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"log"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	goopenai "github.com/sashabaranov/go-openai"
	xdraw "golang.org/x/image/draw"
)

const (
	defaultSize  = "1024x1024"
	placeholderW = 1024
	placeholderH = 1024
)

// ImageClient is the slice of the OpenAI client the service needs
type ImageClient interface {
	CreateImage(ctx context.Context, request goopenai.ImageRequest) (goopenai.ImageResponse, error)
}

// ObjectPutter is the slice of the S3 client the service needs
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Service generates marketing images, uploads them to S3, and returns CDN
// URLs. Provider failures degrade to a branded placeholder instead of erroring
// so site and campaign generation never block on image quota.
type Service struct {
	client    ImageClient
	s3Client  ObjectPutter
	model     string
	bucket    string
	cdnDomain string
}

// Request describes one image to generate
type Request struct {
	Key    string `json:"key"`
	Prompt string `json:"prompt"`
	Size   string `json:"size,omitempty"`
}

// Result is a stored image
type Result struct {
	Key         string `json:"key"`
	URL         string `json:"url"`
	Placeholder bool   `json:"placeholder"`
}

// BatchResult is the outcome for one key in a batch. OK is false only when
// the image could not be produced at all, placeholder included.
type BatchResult struct {
	Key string `json:"key"`
	URL string `json:"url,omitempty"`
	Err string `json:"error,omitempty"`
	OK  bool   `json:"ok"`
}

// NewService creates an image generation service. client may be nil; every
// request then gets a placeholder.
func NewService(client ImageClient, s3Client ObjectPutter, model, bucket, cdnDomain string) *Service {
	if model == "" {
		model = goopenai.CreateImageModelDallE3
	}
	return &Service{
		client:    client,
		s3Client:  s3Client,
		model:     model,
		bucket:    bucket,
		cdnDomain: cdnDomain,
	}
}

// Generate produces one image and uploads it. A provider failure falls back
// to a placeholder PNG; only an upload failure is an error.
func (s *Service) Generate(ctx context.Context, req Request) (*Result, error) {
	if req.Prompt == "" {
		return nil, fmt.Errorf("prompt is required")
	}
	if req.Key == "" {
		req.Key = uuid.New().String()
	}
	if req.Size == "" {
		req.Size = defaultSize
	}

	data, placeholder := s.render(ctx, req)

	key := fmt.Sprintf("images/%s/%s.png", time.Now().UTC().Format("2006/01/02"), req.Key)
	_, err := s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("image/png"),
	})
	if err != nil {
		return nil, fmt.Errorf("uploading image to S3: %w", err)
	}

	return &Result{
		Key:         req.Key,
		URL:         fmt.Sprintf("https://%s/%s", s.cdnDomain, key),
		Placeholder: placeholder,
	}, nil
}

// GenerateBatch produces one image per request and reports per-key outcomes.
// One bad request never aborts the rest.
func (s *Service) GenerateBatch(ctx context.Context, reqs []Request) []BatchResult {
	results := make([]BatchResult, 0, len(reqs))
	for _, req := range reqs {
		// Assign the key up front so failed entries stay attributable
		if req.Key == "" {
			req.Key = uuid.New().String()
		}
		res, err := s.Generate(ctx, req)
		if err != nil {
			results = append(results, BatchResult{Key: req.Key, Err: err.Error()})
			continue
		}
		results = append(results, BatchResult{Key: res.Key, URL: res.URL, OK: true})
	}
	return results
}

// render returns PNG bytes and whether they are a placeholder
func (s *Service) render(ctx context.Context, req Request) ([]byte, bool) {
	if s.client == nil {
		return placeholderPNG(req.Prompt), true
	}

	resp, err := s.client.CreateImage(ctx, goopenai.ImageRequest{
		Model:          s.model,
		Prompt:         req.Prompt,
		N:              1,
		Size:           req.Size,
		ResponseFormat: goopenai.CreateImageResponseFormatB64JSON,
	})
	if err != nil {
		log.Printf("ImageGen: provider failed for %q, using placeholder: %v", req.Key, err)
		return placeholderPNG(req.Prompt), true
	}
	if len(resp.Data) == 0 {
		log.Printf("ImageGen: empty response for %q, using placeholder", req.Key)
		return placeholderPNG(req.Prompt), true
	}

	data, err := base64.StdEncoding.DecodeString(resp.Data[0].B64JSON)
	if err != nil {
		log.Printf("ImageGen: bad image payload for %q, using placeholder: %v", req.Key, err)
		return placeholderPNG(req.Prompt), true
	}
	return data, false
}

// placeholderPNG renders a gradient tile derived from the prompt and scales
// it up, so the same prompt always gets the same placeholder.
func placeholderPNG(prompt string) []byte {
	base, accent := placeholderColors(prompt)

	tile := image.NewRGBA(image.Rect(0, 0, 16, 16))
	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			t := float64(x+y) / 30.0
			tile.Set(x, y, color.RGBA{
				R: blend(base.R, accent.R, t),
				G: blend(base.G, accent.G, t),
				B: blend(base.B, accent.B, t),
				A: 255,
			})
		}
	}

	full := image.NewRGBA(image.Rect(0, 0, placeholderW, placeholderH))
	xdraw.ApproxBiLinear.Scale(full, full.Bounds(), tile, tile.Bounds(), xdraw.Src, nil)

	var buf bytes.Buffer
	if err := png.Encode(&buf, full); err != nil {
		return nil
	}
	return buf.Bytes()
}

func placeholderColors(prompt string) (color.RGBA, color.RGBA) {
	var sum uint32
	for _, r := range strings.ToLower(prompt) {
		sum = sum*31 + uint32(r)
	}
	base := color.RGBA{R: uint8(60 + sum%120), G: uint8(60 + (sum>>8)%120), B: uint8(120 + (sum>>16)%100), A: 255}
	accent := color.RGBA{R: base.B, G: base.R, B: base.G, A: 255}
	return base, accent
}

func blend(a, b uint8, t float64) uint8 {
	if t > 1 {
		t = 1
	}
	return uint8(float64(a)*(1-t) + float64(b)*t)
}
