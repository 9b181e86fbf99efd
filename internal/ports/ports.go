package ports

import (
	"context"
	"time"

	"github.com/Stefatorus/observator-electoral-transparenta/internal/domain"
)

// AdSource pulls raw Ad Library records from upstream providers.
type AdSource interface {
	FetchAds(ctx context.Context) ([]map[string]any, error)
}

// AdRepository persists scraped ads and classification progress.
type AdRepository interface {
	SaveAds(ctx context.Context, ads []domain.Ad) (int, error)
	AlreadyClassified(ctx context.Context, ids []string) (map[string]bool, error)
	MarkClassified(ctx context.Context, id string, status domain.ClassificationStatus) error
}

// Classifier sends one ad to the language model and returns the raw
// response envelope.
type Classifier interface {
	Classify(ctx context.Context, ad domain.Ad) ([]byte, error)
}

// ComplaintRenderer writes the grouped violations as a complaint document.
type ComplaintRenderer interface {
	Render(entities []string, groups map[string][]string) ([]byte, error)
}

// Notifier streams run digests to Telegram or other channels.
type Notifier interface {
	PublishDigest(ctx context.Context, digest string) error
}

// Scheduler controls when pipelines execute.
type Scheduler interface {
	Start(ctx context.Context, job func(time.Time)) error
	Stop(ctx context.Context) error
}
