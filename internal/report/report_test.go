package report

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeStorage struct {
	objects map[string][]byte
	err     error
}

func (f *fakeStorage) ListObjects(ctx context.Context, prefix string) ([]storage.ObjectInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	objects := make([]storage.ObjectInfo, 0)
	for key, data := range f.objects {
		if strings.HasPrefix(key, prefix) {
			objects = append(objects, storage.ObjectInfo{Key: key, Size: int64(len(data))})
		}
	}
	return objects, nil
}

func (f *fakeStorage) DownloadObject(ctx context.Context, key string, destPath string) error {
	data, ok := f.objects[key]
	if !ok {
		return fmt.Errorf("object %s does not exist", key)
	}
	return os.WriteFile(destPath, data, 0o644)
}

func (f *fakeStorage) UploadObject(ctx context.Context, key string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.objects[key] = data
	return nil
}

var createdAt = time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

func sampleViews() []domain.RecommendationView {
	manhattan := &domain.Store{ID: 1, Name: "Manhattan"}
	brooklyn := &domain.Store{ID: 2, Name: "Brooklyn"}
	parka := &domain.Product{ID: 3, Name: "Winter Parka", Category: "Outerwear"}

	return []domain.RecommendationView{
		{
			TransferRecommendation: domain.TransferRecommendation{
				ID: 1, SourceStoreID: 1, DestStoreID: domain.Int64Ptr(2), ProductID: 3, Quantity: 18,
				CO2Saved: 19.43, Status: domain.StatusPending, Method: domain.MethodStoreTransfer, CreatedAt: createdAt,
			},
			SourceStore: manhattan, DestStore: brooklyn, Product: parka,
		},
		{
			TransferRecommendation: domain.TransferRecommendation{
				ID: 2, SourceStoreID: 2, ProductID: 3, Quantity: 30,
				Status: domain.StatusApproved, Method: domain.MethodOnlineSale,
			},
			SourceStore: brooklyn, Product: parka,
		},
	}
}

func TestWriteRecommendations(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteRecommendations(&buf, sampleViews()))

	want := "id,source_store,dest_store,product,category,quantity,co2_saved,status,method,created_at\n" +
		"1,Manhattan,Brooklyn,Winter Parka,Outerwear,18,19.43,Pending,StoreTransfer,2026-03-01T09:00:00Z\n" +
		"2,Brooklyn,Online,Winter Parka,Outerwear,30,0.00,Approved,OnlineSale,\n"
	assert.Equal(t, want, buf.String())
}

func TestUpload(t *testing.T) {
	store := &fakeStorage{objects: map[string][]byte{}}

	key, err := Upload(context.Background(), store, createdAt, sampleViews())
	require.NoError(t, err)
	assert.Equal(t, "recommendations/2026-03-01.csv", key)
	assert.Contains(t, string(store.objects[key]), "Manhattan,Brooklyn")

	store.err = errors.New("bucket gone")
	_, err = Upload(context.Background(), store, createdAt, nil)
	assert.EqualError(t, err, "bucket gone")
}

func TestListAndFetch(t *testing.T) {
	ctx := context.Background()
	store := &fakeStorage{objects: map[string][]byte{"exports/other.csv": []byte("x")}}

	_, err := Upload(ctx, store, createdAt, sampleViews())
	require.NoError(t, err)
	_, err = Upload(ctx, store, createdAt.AddDate(0, 0, 1), nil)
	require.NoError(t, err)

	objects, err := List(ctx, store)
	require.NoError(t, err)
	require.Len(t, objects, 2)
	assert.Equal(t, "recommendations/2026-03-02.csv", objects[0].Key)
	assert.Equal(t, "recommendations/2026-03-01.csv", objects[1].Key)

	dest := filepath.Join(t.TempDir(), "report.csv")
	require.NoError(t, Fetch(ctx, store, createdAt, dest))
	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, store.objects[ObjectKey(createdAt)], data)

	assert.Error(t, Fetch(ctx, store, createdAt.AddDate(0, 0, -1), dest))
}
