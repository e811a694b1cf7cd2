package runners

import (
	"context"
	"log/slog"

	"github.com/alekLukanen/errs"

	"github.com/alekLukanen/featureprep/config"
	"github.com/alekLukanen/featureprep/storage"
)

// BuildPublisher connects to the configured object and key storage. The
// returned func closes the key storage connection.
func BuildPublisher(ctx context.Context, logger *slog.Logger, cfg config.Config) (*storage.ArtifactPublisher, func() error, error) {
	objectStorage, err := storage.NewObjectStorage(ctx, logger, cfg.ObjectStorage())
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}

	keyStorage, err := storage.NewKeyStorage(ctx, logger, cfg.KeyStorage())
	if err != nil {
		return nil, nil, errs.Wrap(err)
	}

	publisher := storage.NewArtifactPublisher(logger, objectStorage, keyStorage, cfg.Publisher())
	return publisher, keyStorage.Close, nil
}
