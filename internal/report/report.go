package report

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"sort"
	"strconv"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/storage"
	"github.com/rs/zerolog/log"
)

const onlineChannel = "Online"

var header = []string{
	"id", "source_store", "dest_store", "product", "category",
	"quantity", "co2_saved", "status", "method", "created_at",
}

// WriteRecommendations writes one CSV row per recommendation.
func WriteRecommendations(w io.Writer, views []domain.RecommendationView) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write report header: %w", err)
	}

	for _, v := range views {
		if err := cw.Write(row(v)); err != nil {
			return fmt.Errorf("write recommendation %d: %w", v.ID, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

func row(v domain.RecommendationView) []string {
	source := strconv.FormatInt(v.SourceStoreID, 10)
	if v.SourceStore != nil {
		source = v.SourceStore.Name
	}

	dest := onlineChannel
	if v.DestStore != nil {
		dest = v.DestStore.Name
	} else if v.DestStoreID != nil {
		dest = strconv.FormatInt(*v.DestStoreID, 10)
	}

	product, category := strconv.FormatInt(v.ProductID, 10), ""
	if v.Product != nil {
		product, category = v.Product.Name, v.Product.Category
	}

	createdAt := ""
	if !v.CreatedAt.IsZero() {
		createdAt = v.CreatedAt.UTC().Format(time.RFC3339)
	}

	return []string{
		strconv.FormatInt(v.ID, 10),
		source,
		dest,
		product,
		category,
		strconv.Itoa(v.Quantity),
		strconv.FormatFloat(v.CO2Saved, 'f', 2, 64),
		string(v.Status),
		string(v.Method),
		createdAt,
	}
}

// KeyPrefix is the object storage folder holding recommendation reports.
const KeyPrefix = "recommendations/"

// ObjectKey names the report stored for the given day.
func ObjectKey(day time.Time) string {
	return fmt.Sprintf("%s%s.csv", KeyPrefix, day.UTC().Format(time.DateOnly))
}

// List returns the stored reports, newest day first.
func List(ctx context.Context, store storage.ObjectStorage) ([]storage.ObjectInfo, error) {
	objects, err := store.ListObjects(ctx, KeyPrefix)
	if err != nil {
		return nil, err
	}
	sort.Slice(objects, func(i, j int) bool { return objects[i].Key > objects[j].Key })
	return objects, nil
}

// Fetch downloads the report stored for day into destPath.
func Fetch(ctx context.Context, store storage.ObjectStorage, day time.Time, destPath string) error {
	key := ObjectKey(day)
	if err := store.DownloadObject(ctx, key, destPath); err != nil {
		return err
	}
	log.Info().Str("key", key).Str("path", destPath).Msg("report: recommendations downloaded")
	return nil
}

// Upload renders the report and stores it under ObjectKey(day).
func Upload(ctx context.Context, store storage.ObjectStorage, day time.Time, views []domain.RecommendationView) (string, error) {
	var buf bytes.Buffer
	if err := WriteRecommendations(&buf, views); err != nil {
		return "", err
	}

	key := ObjectKey(day)
	if err := store.UploadObject(ctx, key, buf.Bytes()); err != nil {
		return "", err
	}

	log.Info().Str("key", key).Int("rows", len(views)).Msg("report: recommendations uploaded")
	return key, nil
}
