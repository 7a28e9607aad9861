package seed

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"storefront/internal/logging"
)

// DemoShopKey is the shop the seed data lands in.
const DemoShopKey = "demo"

type productSeed struct {
	Handle      string
	SKU         string
	Title       string
	Description string
	Vendor      string
	PriceCents  int64
	Inventory   *int
	Images      []string
	Tags        []string
}

type collectionSeed struct {
	Handle      string
	Title       string
	Description string
	Image       string
	Products    []string
}

type pageSeed struct {
	Handle string
	Title  string
	Body   string
	Kind   string
}

type articleSeed struct {
	Handle  string
	Title   string
	Excerpt string
	Body    string
	Author  string
}

type discountSeed struct {
	Code      string
	Permyriad int
	Active    bool
}

type giftCardSeed struct {
	Code         string
	BalanceCents int64
}

func stock(n int) *int { return &n }

var (
	products = []productSeed{
		{Handle: "demo-shirt", SKU: "SKU-DEMO-TSHIRT", Title: "Demo T-Shirt", Description: "Soft cotton tee for demo purposes", Vendor: "Demo Apparel", PriceCents: 1999, Inventory: stock(25), Images: []string{"/products/demo-shirt.jpg"}, Tags: []string{"apparel", "cotton"}},
		{Handle: "demo-hoodie", SKU: "SKU-DEMO-HOODIE", Title: "Demo Hoodie", Description: "Heavyweight fleece hoodie", Vendor: "Demo Apparel", PriceCents: 5400, Inventory: stock(3), Images: []string{"/products/demo-hoodie.jpg"}, Tags: []string{"apparel"}},
		{Handle: "demo-mug", SKU: "SKU-DEMO-MUG", Title: "Demo Mug", Description: "Ceramic mug with demo logo", Vendor: "Demo Home", PriceCents: 1299, Images: []string{"/products/demo-mug.jpg"}, Tags: []string{"kitchen"}},
		{Handle: "desk-lamp", SKU: "SKU-DESK-LAMP", Title: "Desk Lamp", Description: "Adjustable arm lamp with warm LED", Vendor: "Demo Home", PriceCents: 4500, Inventory: stock(10), Images: []string{"/products/desk-lamp.jpg"}, Tags: []string{"lighting"}},
		{Handle: "floor-lamp", SKU: "SKU-FLOOR-LAMP", Title: "Floor Lamp", Description: "Tall lamp with linen shade", Vendor: "Demo Home", PriceCents: 12900, Inventory: stock(0), Images: []string{"/products/floor-lamp.jpg"}, Tags: []string{"lighting"}},
	}

	collections = []collectionSeed{
		{Handle: "apparel", Title: "Apparel", Description: "Things to wear", Image: "/collections/apparel.jpg", Products: []string{"demo-shirt", "demo-hoodie"}},
		{Handle: "lighting", Title: "Lighting", Description: "Lamps for every room", Image: "/collections/lighting.jpg", Products: []string{"desk-lamp", "floor-lamp"}},
		{Handle: "home", Title: "Home", Products: []string{"demo-mug", "desk-lamp", "floor-lamp"}},
	}

	pages = []pageSeed{
		{Handle: "about", Title: "About us", Body: "A demo shop for the storefront.", Kind: "page"},
		{Handle: "contact", Title: "Contact", Body: "Write to hello@example.com.", Kind: "page"},
		{Handle: "refund-policy", Title: "Refund policy", Body: "Returns accepted within 30 days.", Kind: "policy"},
		{Handle: "shipping-policy", Title: "Shipping policy", Body: "Orders ship within two business days.", Kind: "policy"},
		{Handle: "privacy-policy", Title: "Privacy policy", Body: "We only keep what we need to ship your order.", Kind: "policy"},
	}

	articles = []articleSeed{
		{Handle: "lighting-guide", Title: "Choosing a desk lamp", Excerpt: "Warm or cool light?", Body: "Pick a lamp that matches how you work.", Author: "Demo Team"},
		{Handle: "spring-drop", Title: "Spring apparel drop", Excerpt: "New tees are here", Body: "Fresh colours for the season.", Author: "Demo Team"},
	}

	discounts = []discountSeed{
		{Code: "WELCOME10", Permyriad: 1000, Active: true},
		{Code: "HALFOFF", Permyriad: 5000, Active: true},
		{Code: "EXPIRED", Permyriad: 2000, Active: false},
	}

	giftCards = []giftCardSeed{
		{Code: "GIFT-DEMO-0025", BalanceCents: 2500},
		{Code: "GIFT-DEMO-0100", BalanceCents: 10000},
	}
)

// Apply inserts demo data for manual testing. It is idempotent via ON CONFLICT.
func Apply(ctx context.Context, pool *pgxpool.Pool, logger *zap.Logger) error {
	logger = logging.OrNop(logger)
	shopID, err := ensureShop(ctx, pool, DemoShopKey, "Demo Shop", "USD")
	if err != nil {
		return fmt.Errorf("ensure shop: %w", err)
	}

	productIDs := make(map[string]string, len(products))
	for _, p := range products {
		id, err := upsertProduct(ctx, pool, shopID, p)
		if err != nil {
			return fmt.Errorf("upsert product %s: %w", p.Handle, err)
		}
		productIDs[p.Handle] = id
	}

	for _, c := range collections {
		if err := upsertCollection(ctx, pool, shopID, c, productIDs); err != nil {
			return fmt.Errorf("upsert collection %s: %w", c.Handle, err)
		}
	}

	for _, p := range pages {
		if err := upsertPage(ctx, pool, shopID, p); err != nil {
			return fmt.Errorf("upsert page %s: %w", p.Handle, err)
		}
	}

	blogID, err := upsertBlog(ctx, pool, shopID, "news", "News")
	if err != nil {
		return fmt.Errorf("upsert blog: %w", err)
	}
	for _, a := range articles {
		if err := upsertArticle(ctx, pool, blogID, a); err != nil {
			return fmt.Errorf("upsert article %s: %w", a.Handle, err)
		}
	}

	for _, d := range discounts {
		if _, err := pool.Exec(ctx, `
INSERT INTO discount_codes (shop_id, code, permyriad, active)
VALUES ($1, $2, $3, $4)
ON CONFLICT (shop_id, code) DO UPDATE SET permyriad = EXCLUDED.permyriad, active = EXCLUDED.active`,
			shopID, d.Code, d.Permyriad, d.Active); err != nil {
			return fmt.Errorf("upsert discount %s: %w", d.Code, err)
		}
	}

	for _, g := range giftCards {
		if _, err := pool.Exec(ctx, `
INSERT INTO gift_cards (shop_id, code, balance_cents, currency)
VALUES ($1, $2, $3, 'USD')
ON CONFLICT (shop_id, code) DO UPDATE SET balance_cents = EXCLUDED.balance_cents`,
			shopID, g.Code, g.BalanceCents); err != nil {
			return fmt.Errorf("upsert gift card %s: %w", g.Code, err)
		}
	}

	logger.Info("seed applied",
		zap.String("shop_key", DemoShopKey),
		zap.Int("products", len(products)),
		zap.Int("collections", len(collections)),
		zap.Int("pages", len(pages)),
		zap.Int("articles", len(articles)),
	)
	return nil
}

func ensureShop(ctx context.Context, pool *pgxpool.Pool, key, name, currency string) (string, error) {
	const q = `
INSERT INTO shops (key, name, currency)
VALUES ($1, $2, $3)
ON CONFLICT (key) DO UPDATE SET name = EXCLUDED.name
RETURNING id::text
`
	var id string
	if err := pool.QueryRow(ctx, q, key, name, currency).Scan(&id); err != nil {
		return "", err
	}
	return id, nil
}

func upsertProduct(ctx context.Context, pool *pgxpool.Pool, shopID string, p productSeed) (string, error) {
	images, err := json.Marshal(p.Images)
	if err != nil {
		return "", err
	}
	tags, err := json.Marshal(p.Tags)
	if err != nil {
		return "", err
	}
	const q = `
INSERT INTO products (shop_id, handle, sku, title, description, vendor, price_cents, currency, inventory_quantity, images, tags)
VALUES ($1, $2, $3, $4, $5, $6, $7, 'USD', $8, $9::jsonb, $10::jsonb)
ON CONFLICT (shop_id, handle) DO UPDATE
SET sku = EXCLUDED.sku,
    title = EXCLUDED.title,
    description = EXCLUDED.description,
    vendor = EXCLUDED.vendor,
    price_cents = EXCLUDED.price_cents,
    inventory_quantity = EXCLUDED.inventory_quantity,
    images = EXCLUDED.images,
    tags = EXCLUDED.tags
RETURNING id::text
`
	var id string
	err = pool.QueryRow(ctx, q, shopID, p.Handle, p.SKU, p.Title, p.Description, p.Vendor, p.PriceCents, p.Inventory, string(images), string(tags)).Scan(&id)
	return id, err
}

func upsertCollection(ctx context.Context, pool *pgxpool.Pool, shopID string, c collectionSeed, productIDs map[string]string) error {
	return pgx.BeginFunc(ctx, pool, func(tx pgx.Tx) error {
		var id string
		err := tx.QueryRow(ctx, `
INSERT INTO collections (shop_id, handle, title, description, image)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (shop_id, handle) DO UPDATE
SET title = EXCLUDED.title, description = EXCLUDED.description, image = EXCLUDED.image
RETURNING id::text`, shopID, c.Handle, c.Title, c.Description, c.Image).Scan(&id)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, `DELETE FROM collection_products WHERE collection_id = $1`, id); err != nil {
			return err
		}
		for pos, handle := range c.Products {
			productID, ok := productIDs[handle]
			if !ok {
				return fmt.Errorf("unknown product %s", handle)
			}
			if _, err := tx.Exec(ctx, `INSERT INTO collection_products (collection_id, product_id, position) VALUES ($1, $2, $3)`, id, productID, pos); err != nil {
				return err
			}
		}
		return nil
	})
}

func upsertPage(ctx context.Context, pool *pgxpool.Pool, shopID string, p pageSeed) error {
	_, err := pool.Exec(ctx, `
INSERT INTO pages (shop_id, handle, title, body, kind)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (shop_id, kind, handle) DO UPDATE SET title = EXCLUDED.title, body = EXCLUDED.body`,
		shopID, p.Handle, p.Title, p.Body, p.Kind)
	return err
}

func upsertBlog(ctx context.Context, pool *pgxpool.Pool, shopID, handle, title string) (string, error) {
	var id string
	err := pool.QueryRow(ctx, `
INSERT INTO blogs (shop_id, handle, title)
VALUES ($1, $2, $3)
ON CONFLICT (shop_id, handle) DO UPDATE SET title = EXCLUDED.title
RETURNING id::text`, shopID, handle, title).Scan(&id)
	return id, err
}

func upsertArticle(ctx context.Context, pool *pgxpool.Pool, blogID string, a articleSeed) error {
	_, err := pool.Exec(ctx, `
INSERT INTO articles (blog_id, handle, title, excerpt, body, author)
VALUES ($1, $2, $3, $4, $5, $6)
ON CONFLICT (blog_id, handle) DO UPDATE
SET title = EXCLUDED.title, excerpt = EXCLUDED.excerpt, body = EXCLUDED.body, author = EXCLUDED.author`,
		blogID, a.Handle, a.Title, a.Excerpt, a.Body, a.Author)
	return err
}
