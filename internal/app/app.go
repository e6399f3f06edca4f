package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"exegesisai/internal/store"
	"exegesisai/pkg/auth"
	"exegesisai/pkg/domain"
	"exegesisai/pkg/storage"
)

// AIClient is the facade over the generative provider.
type AIClient interface {
	Analyze(ctx context.Context, query string) (domain.AnalysisResult, error)
	GenerateImage(ctx context.Context, prompt string) ([]byte, error)
	Synthesize(ctx context.Context, text, voice, language string) ([]byte, error)
}

// Config wires the orchestrator's collaborators.
type Config struct {
	Store  store.Store
	AI     AIClient
	Images storage.ImageStore
}

// App coordinates query submissions: analysis first, then best-effort image
// generation, then a history entry for the owning user.
type App struct {
	store  store.Store
	ai     AIClient
	images storage.ImageStore
}

// New constructs the application core.
func New(cfg Config) (*App, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("store required")
	}
	if cfg.AI == nil {
		return nil, fmt.Errorf("ai client required")
	}
	return &App{store: cfg.Store, ai: cfg.AI, images: cfg.Images}, nil
}

// Register creates an account. The display name defaults to the username.
func (a *App) Register(username, name, password string) (domain.User, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return domain.User{}, fmt.Errorf("username required")
	}
	if password == "" {
		return domain.User{}, fmt.Errorf("password required")
	}
	if strings.TrimSpace(name) == "" {
		name = username
	}
	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.User{}, fmt.Errorf("hash password: %w", err)
	}
	user := domain.User{
		ID:           uuid.NewString(),
		Username:     username,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
		CreatedAt:    time.Now().UTC(),
	}
	if err := a.store.SaveUser(user); err != nil {
		if errors.Is(err, store.ErrUserExists) {
			return domain.User{}, ErrUsernameTaken
		}
		return domain.User{}, fmt.Errorf("save user: %w", err)
	}
	return user, nil
}

// Login validates credentials and returns the account.
func (a *App) Login(username, password string) (domain.User, error) {
	user, ok, err := a.store.GetUserByUsername(username)
	if err != nil {
		return domain.User{}, fmt.Errorf("load user: %w", err)
	}
	if !ok || !auth.CheckPassword(password, user.PasswordHash) {
		return domain.User{}, ErrInvalidCredentials
	}
	return user, nil
}

// Analyze runs one query submission. The analysis must complete before the
// image call is issued because the image prompt is derived from it. Image
// generation is best-effort: failure or refusal degrades to an entry without
// an image and never fails the submission. When user is non-nil the result
// is prepended to that user's history.
func (a *App) Analyze(ctx context.Context, user *domain.User, query string) (domain.AnalysisResult, string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return domain.AnalysisResult{}, "", ErrEmptyQuery
	}
	result, err := a.ai.Analyze(ctx, query)
	if err != nil {
		return domain.AnalysisResult{}, "", err
	}

	imageURL := a.illustrate(ctx, result.ImagePrompt)

	if user != nil {
		entry := domain.HistoryEntry{
			ID:        uuid.NewString(),
			Query:     query,
			Timestamp: time.Now().UTC(),
			Result:    result,
			ImageURL:  imageURL,
		}
		if err := a.store.PrependHistory(user.ID, entry); err != nil {
			// The analysis already succeeded; losing the history entry is
			// not worth failing the submission.
			slog.Warn("prepend history failed", "user_id", user.ID, "err", err)
		}
	}
	return result, imageURL, nil
}

// illustrate generates and stores the illustration, returning its URL or ""
// when generation was declined, failed, or no image store is configured.
func (a *App) illustrate(ctx context.Context, prompt string) string {
	if strings.TrimSpace(prompt) == "" {
		return ""
	}
	img, err := a.ai.GenerateImage(ctx, prompt)
	if err != nil {
		slog.Warn("image generation failed", "err", err)
		return ""
	}
	if len(img) == 0 {
		return ""
	}
	if a.images == nil {
		return ""
	}
	_, url, err := a.images.Save(ctx, img, http.DetectContentType(img))
	if err != nil {
		slog.Warn("image store failed", "err", err)
		return ""
	}
	return url
}

// Illustrate exposes direct image generation for the proxy action. Unlike
// the submission flow, hard provider failures propagate so the proxy can
// report them; the browser client treats them as soft.
func (a *App) Illustrate(ctx context.Context, prompt string) ([]byte, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt required")
	}
	return a.ai.GenerateImage(ctx, prompt)
}

// Narrate synthesizes narration audio. Voice and language must belong to
// the fixed selectable sets; empty values fall back to the defaults.
func (a *App) Narrate(ctx context.Context, text, voice, language string) ([]byte, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("text required")
	}
	if voice == "" {
		voice = domain.DefaultVoice
	}
	if language == "" {
		language = domain.DefaultLanguage
	}
	if !domain.ValidVoice(voice) {
		return nil, ErrUnknownVoice
	}
	if !domain.ValidLanguage(language) {
		return nil, ErrUnknownLanguage
	}
	return a.ai.Synthesize(ctx, text, voice, language)
}

// History returns the user's entries, most recent first.
func (a *App) History(userID string) ([]domain.HistoryEntry, error) {
	entries, err := a.store.ListHistory(userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	return entries, nil
}

// ClearHistory wipes the user's entries.
func (a *App) ClearHistory(userID string) error {
	if err := a.store.ClearHistory(userID); err != nil {
		return fmt.Errorf("clear history: %w", err)
	}
	return nil
}

// GetUser loads an account by id.
func (a *App) GetUser(userID string) (domain.User, bool, error) {
	return a.store.GetUserByID(userID)
}
