package seed

import (
	"context"
	"fmt"
	"math/rand/v2"

	"github.com/andresuchdata/eco-inventory/internal/domain"
	"github.com/andresuchdata/eco-inventory/internal/repository"
	"github.com/rs/zerolog/log"
)

const imageBase = "https://images.unsplash.com/"

func newRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x5eed))
}

// Options controls the demo data set.
type Options struct {
	// Seed drives the filler inventory spread over the first two stores.
	Seed int64
	// WithRecommendations also stores a hand-picked set of pending recommendations.
	WithRecommendations bool
}

// Summary reports what Load wrote.
type Summary struct {
	Stores          int `json:"stores"`
	Products        int `json:"products"`
	Inventory       int `json:"inventory"`
	Recommendations int `json:"recommendations"`
}

func image(photo string) *string {
	url := imageBase + photo + "?auto=format&fit=crop&q=80&w=600"
	return &url
}

// Stores returns the demo store network.
func Stores() []domain.Store {
	return []domain.Store{
		{ID: 1, Name: "Store A (Manhattan)", Lat: 40.7128, Lon: -74.0060, Type: domain.StoreTypeFlagship},
		{ID: 2, Name: "Store B (Brooklyn)", Lat: 40.6782, Lon: -73.9442, Type: domain.StoreTypeOutlet},
		{ID: 3, Name: "Store C (Miami)", Lat: 25.7617, Lon: -80.1918, Type: domain.StoreTypeFlagship},
		{ID: 4, Name: "Store D (San Francisco)", Lat: 37.7749, Lon: -122.4194, Type: domain.StoreTypeFlagship},
	}
}

// Products returns the demo clothing catalog.
func Products() []domain.Product {
	return []domain.Product{
		{ID: 1, Name: "Winter Parka", Category: "Outerwear", Size: "L", Price: 120, CarbonFootprintWeight: 15, ImageURL: image("photo-1539533018447-63fcce6a25e8")},
		{ID: 2, Name: "Denim Jacket", Category: "Outerwear", Size: "M", Price: 85, CarbonFootprintWeight: 10, ImageURL: image("photo-1523205771623-e0faa4d2813d")},
		{ID: 3, Name: "Recycled Puffer Jacket", Category: "Outerwear", Size: "XL", Price: 140, CarbonFootprintWeight: 12, ImageURL: image("photo-1605763240004-7e93b172d754")},
		{ID: 4, Name: "Trench Coat", Category: "Outerwear", Size: "L", Price: 180, CarbonFootprintWeight: 14, ImageURL: image("photo-1591047139829-d91aecb6caea")},
		{ID: 5, Name: "Wool Overcoat", Category: "Outerwear", Size: "M", Price: 250, CarbonFootprintWeight: 18, ImageURL: image("photo-1559551409-dadc959f76b8")},

		{ID: 6, Name: "Organic Cotton T-Shirt", Category: "Tops", Size: "M", Price: 25, CarbonFootprintWeight: 2, ImageURL: image("photo-1521572163474-6864f9cf17ab")},
		{ID: 7, Name: "Silk Blouse", Category: "Tops", Size: "S", Price: 95, CarbonFootprintWeight: 1.5, ImageURL: image("photo-1604176354204-9268737828fa")},
		{ID: 8, Name: "Vintage Hoodie", Category: "Tops", Size: "L", Price: 55, CarbonFootprintWeight: 4, ImageURL: image("photo-1556905055-8f358a7a47b2")},
		{ID: 9, Name: "Hemp Button Shirt", Category: "Tops", Size: "L", Price: 65, CarbonFootprintWeight: 4.5, ImageURL: image("photo-1626497764746-6dc36546b388")},
		{ID: 10, Name: "Striped Polo", Category: "Tops", Size: "M", Price: 45, CarbonFootprintWeight: 3, ImageURL: image("photo-1626557981101-aae6f84aa6a8")},
		{ID: 11, Name: "Linen Shirt", Category: "Tops", Size: "L", Price: 70, CarbonFootprintWeight: 3.5, ImageURL: image("photo-1598033129183-c4f50c736f10")},

		{ID: 12, Name: "Slim Fit Jeans", Category: "Bottoms", Size: "32", Price: 75, CarbonFootprintWeight: 8, ImageURL: image("photo-1542272454315-4c01d7abdf4a")},
		{ID: 13, Name: "Summer Chinos", Category: "Bottoms", Size: "34", Price: 60, CarbonFootprintWeight: 6, ImageURL: image("photo-1473966968600-fa801b869a1a")},
		{ID: 14, Name: "Bamboo Yoga Pants", Category: "Bottoms", Size: "M", Price: 55, CarbonFootprintWeight: 3},
		{ID: 15, Name: "Cargo Shorts", Category: "Bottoms", Size: "34", Price: 40, CarbonFootprintWeight: 5, ImageURL: image("photo-1591195853828-11db59a44f6b")},
		{ID: 16, Name: "Pleated Skirt", Category: "Bottoms", Size: "S", Price: 50, CarbonFootprintWeight: 4, ImageURL: image("photo-1582142327242-0b2626b29841")},

		{ID: 17, Name: "Floral Maxi Dress", Category: "Dresses", Size: "M", Price: 110, CarbonFootprintWeight: 5, ImageURL: image("photo-1572804013309-59a88b7e92f1")},
		{ID: 18, Name: "Linen Summer Dress", Category: "Dresses", Size: "S", Price: 85, CarbonFootprintWeight: 4, ImageURL: image("photo-1515372039744-b8f02a3ae446")},
		{ID: 19, Name: "Evening Gown", Category: "Dresses", Size: "M", Price: 220, CarbonFootprintWeight: 8, ImageURL: image("photo-1595777457583-95e059d581b8")},

		{ID: 20, Name: "Sustainable Sneakers", Category: "Footwear", Size: "10", Price: 95, CarbonFootprintWeight: 9, ImageURL: image("photo-1560769629-975ec94e6a86")},
		{ID: 21, Name: "Vegan Leather Boots", Category: "Footwear", Size: "9", Price: 130, CarbonFootprintWeight: 11, ImageURL: image("photo-1608256246200-53e635b5b65f")},
		{ID: 22, Name: "Running Shoes", Category: "Footwear", Size: "10", Price: 110, CarbonFootprintWeight: 10, ImageURL: image("photo-1542291026-7eec264c27ff")},

		{ID: 23, Name: "Wool Scarf", Category: "Accessories", Size: "OneSize", Price: 35, CarbonFootprintWeight: 1, ImageURL: image("photo-1520903920248-2651479860b0")},
		{ID: 24, Name: "Leather Belt", Category: "Accessories", Size: "32", Price: 45, CarbonFootprintWeight: 1.2, ImageURL: image("photo-1624222247344-550fb60583dc")},
		{ID: 25, Name: "Recycled Wool Beanie", Category: "Accessories", Size: "OneSize", Price: 25, CarbonFootprintWeight: 1, ImageURL: image("photo-1576871337632-b9aef4c17ab9")},
		{ID: 26, Name: "Canvas Tote Bag", Category: "Accessories", Size: "OneSize", Price: 20, CarbonFootprintWeight: 0.5, ImageURL: image("photo-1597484662317-c9313d330d45")},
	}
}

// scenarioInventory sets up the overstock and shortage pairs the demo walks through.
func scenarioInventory() []domain.InventoryRecord {
	return []domain.InventoryRecord{
		{StoreID: 1, ProductID: 1, Quantity: 60, WeeklySalesVelocity: 0.1},
		{StoreID: 2, ProductID: 1, Quantity: 5, WeeklySalesVelocity: 15},
		{StoreID: 3, ProductID: 5, Quantity: 50, WeeklySalesVelocity: 0.1},
		{StoreID: 1, ProductID: 5, Quantity: 2, WeeklySalesVelocity: 10},
		{StoreID: 4, ProductID: 2, Quantity: 60, WeeklySalesVelocity: 0.1},
		{StoreID: 3, ProductID: 2, Quantity: 0, WeeklySalesVelocity: 12},
		{StoreID: 2, ProductID: 3, Quantity: 40, WeeklySalesVelocity: 0.1},
		{StoreID: 1, ProductID: 3, Quantity: 2, WeeklySalesVelocity: 14},
		{StoreID: 1, ProductID: 7, Quantity: 45, WeeklySalesVelocity: 0.1},
		{StoreID: 3, ProductID: 4, Quantity: 50, WeeklySalesVelocity: 0.1},
		{StoreID: 4, ProductID: 6, Quantity: 100, WeeklySalesVelocity: 0.5},
		{StoreID: 1, ProductID: 18, Quantity: 20, WeeklySalesVelocity: 0.1},
		{StoreID: 2, ProductID: 11, Quantity: 60, WeeklySalesVelocity: 0.2},
		{StoreID: 3, ProductID: 14, Quantity: 55, WeeklySalesVelocity: 0.1},
	}
}

// fillerInventory spreads random stock over stores A and B so every category
// shows up on the map. Pairs already covered by the scenario are left alone.
func fillerInventory(products []domain.Product, taken map[[2]int64]bool, rng *rand.Rand) []domain.InventoryRecord {
	uniform := func(lo, hi float64) float64 { return lo + rng.Float64()*(hi-lo) }
	records := make([]domain.InventoryRecord, 0)

	add := func(storeID, productID int64, velocity float64) {
		qty := 5 + rng.IntN(26)
		if taken[[2]int64{storeID, productID}] {
			return
		}
		taken[[2]int64{storeID, productID}] = true
		records = append(records, domain.InventoryRecord{StoreID: storeID, ProductID: productID, Quantity: qty, WeeklySalesVelocity: velocity})
	}

	for _, p := range products {
		if rng.Float64() > 0.5 {
			// A mixes dead stock with healthy sellers
			velocity := uniform(2, 10)
			if rng.Float64() < 0.4 {
				velocity = uniform(0.1, 1.5)
			}
			add(1, p.ID, velocity)
		}
		if rng.Float64() > 0.5 {
			add(2, p.ID, uniform(0.1, 3))
		}
	}
	return records
}

func demoRecommendations() []domain.TransferRecommendation {
	pending := func(source int64, dest *int64, product int64, qty int, co2 float64) domain.TransferRecommendation {
		method := domain.MethodStoreTransfer
		if dest == nil {
			method = domain.MethodOnlineSale
		}
		return domain.TransferRecommendation{
			SourceStoreID: source, DestStoreID: dest, ProductID: product,
			Quantity: qty, CO2Saved: co2, Status: domain.StatusPending, Method: method,
		}
	}
	store := domain.Int64Ptr

	return []domain.TransferRecommendation{
		pending(1, store(2), 1, 15, 4.2),
		pending(3, store(1), 5, 10, 12.5),
		pending(4, store(3), 2, 20, 8.9),
		pending(2, store(1), 3, 8, 2.1),
		pending(1, store(2), 7, 12, 1.8),
		pending(3, nil, 4, 35, 0),
		pending(4, nil, 6, 50, 0),
		pending(1, nil, 18, 5, 0),
		pending(2, nil, 11, 25, 0),
		pending(3, nil, 14, 30, 0),
	}
}

// Load writes the demo data set in a single transaction. Existing rows with
// the same identities are overwritten.
func Load(ctx context.Context, repo repository.Repository, opts Options) (*Summary, error) {
	summary := &Summary{}
	rng := newRand(opts.Seed)

	err := repo.WithTx(ctx, func(tx repository.Repository) error {
		for _, s := range Stores() {
			if err := tx.SaveStore(ctx, &s); err != nil {
				return fmt.Errorf("seed store %q: %w", s.Name, err)
			}
			summary.Stores++
		}

		products := Products()
		for _, p := range products {
			if err := tx.SaveProduct(ctx, &p); err != nil {
				return fmt.Errorf("seed product %q: %w", p.Name, err)
			}
			summary.Products++
		}

		scenario := scenarioInventory()
		taken := make(map[[2]int64]bool, len(scenario))
		for _, rec := range scenario {
			taken[[2]int64{rec.StoreID, rec.ProductID}] = true
		}

		inventory := append(scenario, fillerInventory(products, taken, rng)...)
		for _, rec := range inventory {
			if err := tx.SaveInventory(ctx, &rec); err != nil {
				return fmt.Errorf("seed inventory store=%d product=%d: %w", rec.StoreID, rec.ProductID, err)
			}
			summary.Inventory++
		}

		if !opts.WithRecommendations {
			return nil
		}
		saved, err := tx.UpsertRecommendations(ctx, demoRecommendations())
		if err != nil {
			return fmt.Errorf("seed recommendations: %w", err)
		}
		summary.Recommendations = len(saved)
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.Info().
		Int("stores", summary.Stores).
		Int("products", summary.Products).
		Int("inventory", summary.Inventory).
		Int("recommendations", summary.Recommendations).
		Msg("seed: demo data loaded")
	return summary, nil
}
