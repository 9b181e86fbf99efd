// Package gemini classifies ads with the Gemini API.
package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"path/filepath"

	"google.golang.org/genai"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/config"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
	"github.com/Stefatorus/observator-electoral-transparenta/internal/ports"
)

// Generator is the slice of genai.Models the classifier calls.
type Generator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, cfg *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Uploader is the slice of genai.Files the classifier calls.
type Uploader interface {
	UploadFromPath(ctx context.Context, path string, cfg *genai.UploadFileConfig) (*genai.File, error)
}

// Classifier sends one ad, with its creative when downloaded, to Gemini.
type Classifier struct {
	models    Generator
	files     Uploader
	model     string
	genCfg    *genai.GenerateContentConfig
	prompts   Prompts
	imagesDir string
	logger    *slog.Logger
}

var _ ports.Classifier = (*Classifier)(nil)

// New builds a classifier backed by a genai client.
func New(ctx context.Context, cfg config.GeminiConfig, prompts Prompts, imagesDir string, logger *slog.Logger) (*Classifier, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("gemini api key is not configured")
	}

	clientCfg := &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	}
	if cfg.BaseURL != "" {
		clientCfg.HTTPOptions = genai.HTTPOptions{BaseURL: cfg.BaseURL}
	}

	client, err := genai.NewClient(ctx, clientCfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return NewWithServices(client.Models, client.Files, cfg, prompts, imagesDir, logger), nil
}

// NewWithServices wires explicit model and file services.
func NewWithServices(models Generator, files Uploader, cfg config.GeminiConfig, prompts Prompts, imagesDir string, logger *slog.Logger) *Classifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &Classifier{
		models:    models,
		files:     files,
		model:     cfg.Model,
		genCfg:    generationConfig(cfg, prompts.System),
		prompts:   prompts,
		imagesDir: imagesDir,
		logger:    logger,
	}
}

func generationConfig(cfg config.GeminiConfig, system string) *genai.GenerateContentConfig {
	gc := &genai.GenerateContentConfig{
		Temperature:      genai.Ptr(cfg.Temperature),
		TopK:             genai.Ptr(cfg.TopK),
		TopP:             genai.Ptr(cfg.TopP),
		MaxOutputTokens:  cfg.MaxOutputTokens,
		ResponseMIMEType: "text/plain",
	}
	if system != "" {
		gc.SystemInstruction = genai.NewContentFromText(system, genai.RoleUser)
	}
	return gc
}

// Classify returns the response envelope as JSON, ready to be written to
// the analysis directory.
func (c *Classifier) Classify(ctx context.Context, ad domain.Ad) ([]byte, error) {
	contents, err := c.contents(ctx, ad)
	if err != nil {
		return nil, err
	}

	resp, err := c.models.GenerateContent(ctx, c.model, contents, c.genCfg)
	if err != nil {
		return nil, fmt.Errorf("generate content for ad %s: %w", ad.ArchiveID, err)
	}

	out, err := json.MarshalIndent(resp, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal response for ad %s: %w", ad.ArchiveID, err)
	}
	return out, nil
}

func (c *Classifier) contents(ctx context.Context, ad domain.Ad) ([]*genai.Content, error) {
	var contents []*genai.Content

	var imageURI string
	if path := FindImage(c.imagesDir, ad.ArchiveID); path != "" && c.files != nil {
		mime, err := DetectMIME(path)
		if err != nil {
			return nil, err
		}
		file, err := c.files.UploadFromPath(ctx, path, &genai.UploadFileConfig{
			MIMEType:    mime,
			DisplayName: filepath.Base(path),
		})
		if err != nil {
			return nil, fmt.Errorf("upload image for ad %s: %w", ad.ArchiveID, err)
		}
		imageURI = file.URI
		contents = append(contents, genai.NewContentFromParts(
			[]*genai.Part{genai.NewPartFromURI(file.URI, mime)}, genai.RoleUser))
		c.logger.Debug("image attached", "ad_id", ad.ArchiveID, "mime", mime)
	}

	prompt, err := RenderUser(c.prompts.User, FormatDocument(ad.Raw), imageURI)
	if err != nil {
		return nil, err
	}
	contents = append(contents, genai.NewContentFromText(prompt, genai.RoleUser))
	return contents, nil
}
